// Package repository implements the SQLite persistence layer for voucher
// headers, their child rows and stored reservations.
package repository

import (
	"embed"

	"github.com/altamar/tour-vouchers/pkg/database"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded schema migrations.
func Migrate(db *database.DB, logger *zap.Logger) error {
	return database.NewMigrator(db, logger).Run(migrationsFS, "migrations")
}
