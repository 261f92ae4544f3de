package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/altamar/tour-vouchers/internal/models"
	"go.uber.org/zap"
)

// ItemRepository handles voucher line-item rows
type ItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *sql.DB, logger *zap.Logger) *ItemRepository {
	return &ItemRepository{db: db, logger: logger}
}

func (r *ItemRepository) conn(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.db
}

// Replace swaps the full line-item set of a voucher: delete all, then insert
// in record order. It runs against the caller's transaction together with
// the header write.
func (r *ItemRepository) Replace(ctx context.Context, tx *sql.Tx, voucherID int64, items []models.VoucherItem) error {
	c := r.conn(tx)

	if _, err := c.ExecContext(ctx, "DELETE FROM voucher_items WHERE voucher_id = ?", voucherID); err != nil {
		return fmt.Errorf("failed to clear voucher items: %w", err)
	}

	for i, item := range items {
		_, err := c.ExecContext(ctx, `
			INSERT INTO voucher_items (voucher_id, position, description, trip_date, trip_time, quantity, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			voucherID, i, item.Description, item.TripDate, item.TripTime, item.Quantity, item.Notes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert voucher item %d: %w", i, err)
		}
	}
	return nil
}

// GetByVoucherID returns line items in stored position order
func (r *ItemRepository) GetByVoucherID(ctx context.Context, voucherID int64) ([]models.VoucherItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, voucher_id, position, description, trip_date, trip_time, quantity, notes
		FROM voucher_items WHERE voucher_id = ? ORDER BY position ASC`, voucherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get voucher items: %w", err)
	}
	defer rows.Close()

	items := []models.VoucherItem{}
	for rows.Next() {
		var it models.VoucherItem
		if err := rows.Scan(&it.ID, &it.VoucherID, &it.Position, &it.Description,
			&it.TripDate, &it.TripTime, &it.Quantity, &it.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan voucher item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeleteByVoucherID removes all line items of a voucher
func (r *ItemRepository) DeleteByVoucherID(ctx context.Context, tx *sql.Tx, voucherID int64) error {
	if _, err := r.conn(tx).ExecContext(ctx, "DELETE FROM voucher_items WHERE voucher_id = ?", voucherID); err != nil {
		return fmt.Errorf("failed to delete voucher items: %w", err)
	}
	return nil
}
