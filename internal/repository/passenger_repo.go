package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/altamar/tour-vouchers/internal/models"
	"go.uber.org/zap"
)

// PassengerRepository handles passenger rows attached to vouchers
type PassengerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPassengerRepository creates a new passenger repository
func NewPassengerRepository(db *sql.DB, logger *zap.Logger) *PassengerRepository {
	return &PassengerRepository{db: db, logger: logger}
}

func (r *PassengerRepository) conn(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.db
}

// Replace swaps the full passenger set of a voucher, preserving order
func (r *PassengerRepository) Replace(ctx context.Context, tx *sql.Tx, voucherID int64, passengers []models.Passenger) error {
	c := r.conn(tx)

	if _, err := c.ExecContext(ctx, "DELETE FROM voucher_passengers WHERE voucher_id = ?", voucherID); err != nil {
		return fmt.Errorf("failed to clear passengers: %w", err)
	}

	for i, p := range passengers {
		_, err := c.ExecContext(ctx, `
			INSERT INTO voucher_passengers (voucher_id, position, name, phone, is_infant)
			VALUES (?, ?, ?, ?, ?)`,
			voucherID, i, p.Name, p.Phone, p.IsInfant,
		)
		if err != nil {
			return fmt.Errorf("failed to insert passenger %d: %w", i, err)
		}
	}
	return nil
}

// GetByVoucherID returns passengers in stored position order
func (r *PassengerRepository) GetByVoucherID(ctx context.Context, voucherID int64) ([]models.Passenger, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, voucher_id, position, name, phone, is_infant
		FROM voucher_passengers WHERE voucher_id = ? ORDER BY position ASC`, voucherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get passengers: %w", err)
	}
	defer rows.Close()

	passengers := []models.Passenger{}
	for rows.Next() {
		var p models.Passenger
		if err := rows.Scan(&p.ID, &p.VoucherID, &p.Position, &p.Name, &p.Phone, &p.IsInfant); err != nil {
			return nil, fmt.Errorf("failed to scan passenger: %w", err)
		}
		passengers = append(passengers, p)
	}
	return passengers, rows.Err()
}

// DeleteByVoucherID removes all passengers of a voucher
func (r *PassengerRepository) DeleteByVoucherID(ctx context.Context, tx *sql.Tx, voucherID int64) error {
	if _, err := r.conn(tx).ExecContext(ctx, "DELETE FROM voucher_passengers WHERE voucher_id = ?", voucherID); err != nil {
		return fmt.Errorf("failed to delete passengers: %w", err)
	}
	return nil
}
