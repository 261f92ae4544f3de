package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/altamar/tour-vouchers/internal/models"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// VoucherRepository handles voucher header rows
type VoucherRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVoucherRepository creates a new voucher repository
func NewVoucherRepository(db *sql.DB, logger *zap.Logger) *VoucherRepository {
	return &VoucherRepository{db: db, logger: logger}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *VoucherRepository) conn(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts a voucher header and fills in the generated id.
// A unique-constraint hit on the code column maps to ErrDuplicateCode so the
// caller can regenerate once and retry.
func (r *VoucherRepository) Create(ctx context.Context, tx *sql.Tx, v *models.VoucherRecord) error {
	query := `
		INSERT INTO vouchers (
			code, client_name, client_phone, embark_place, seller_name,
			operator_name, total_centavos, down_payment_centavos,
			remaining_centavos, notes, status, issued_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.conn(tx).ExecContext(ctx, query,
		v.Code, v.ClientName, v.ClientPhone, v.EmbarkPlace, v.SellerName,
		v.OperatorName, v.TotalCents, v.DownPaymentCents,
		v.RemainingCents, v.Notes, v.Status, v.IssuedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateCode
		}
		r.logger.Error("Failed to create voucher", zap.String("code", v.Code), zap.Error(err))
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	v.ID = id
	return nil
}

// Update rewrites a voucher header in place
func (r *VoucherRepository) Update(ctx context.Context, tx *sql.Tx, v *models.VoucherRecord) error {
	query := `
		UPDATE vouchers SET
			client_name = ?, client_phone = ?, embark_place = ?,
			seller_name = ?, operator_name = ?, total_centavos = ?,
			down_payment_centavos = ?, remaining_centavos = ?, notes = ?,
			status = ?, issued_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	res, err := r.conn(tx).ExecContext(ctx, query,
		v.ClientName, v.ClientPhone, v.EmbarkPlace,
		v.SellerName, v.OperatorName, v.TotalCents,
		v.DownPaymentCents, v.RemainingCents, v.Notes,
		v.Status, v.IssuedAt, v.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update voucher", zap.Int64("id", v.ID), zap.Error(err))
		return fmt.Errorf("failed to update voucher: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrVoucherNotFound
	}
	return nil
}

const voucherColumns = `
	id, code, client_name, client_phone, embark_place, seller_name,
	operator_name, total_centavos, down_payment_centavos, remaining_centavos,
	notes, status, issued_at, rendered_at, created_at, updated_at
`

func (r *VoucherRepository) scan(row interface{ Scan(...interface{}) error }) (*models.VoucherRecord, error) {
	var v models.VoucherRecord
	var issuedAt, renderedAt sql.NullTime
	err := row.Scan(
		&v.ID, &v.Code, &v.ClientName, &v.ClientPhone, &v.EmbarkPlace,
		&v.SellerName, &v.OperatorName, &v.TotalCents, &v.DownPaymentCents,
		&v.RemainingCents, &v.Notes, &v.Status, &issuedAt, &renderedAt,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if issuedAt.Valid {
		v.IssuedAt = &issuedAt.Time
	}
	if renderedAt.Valid {
		v.RenderedAt = &renderedAt.Time
	}
	return &v, nil
}

// GetByID loads a voucher header. Child rows are loaded separately.
func (r *VoucherRepository) GetByID(ctx context.Context, id int64) (*models.VoucherRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+voucherColumns+" FROM vouchers WHERE id = ?", id)
	v, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVoucherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voucher %d: %w", id, err)
	}
	return v, nil
}

// GetByCode loads a voucher header by its booking code
func (r *VoucherRepository) GetByCode(ctx context.Context, code string) (*models.VoucherRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+voucherColumns+" FROM vouchers WHERE code = ?", code)
	v, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVoucherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voucher %s: %w", code, err)
	}
	return v, nil
}

// CodeExists reports whether a code is already assigned to any voucher
func (r *VoucherRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM vouchers WHERE code = ?", code).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}
	return n > 0, nil
}

// ListFilter narrows List results; zero values mean no filtering.
type ListFilter struct {
	Status     models.VoucherStatus
	IssuedFrom time.Time
	IssuedTo   time.Time
}

// List returns voucher headers matching the filter, newest first.
func (r *VoucherRepository) List(ctx context.Context, filter ListFilter) ([]*models.VoucherRecord, error) {
	query := "SELECT " + voucherColumns + " FROM vouchers WHERE 1=1"
	var args []interface{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if !filter.IssuedFrom.IsZero() {
		query += " AND issued_at >= ?"
		args = append(args, filter.IssuedFrom)
	}
	if !filter.IssuedTo.IsZero() {
		query += " AND issued_at < ?"
		args = append(args, filter.IssuedTo)
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	defer rows.Close()

	var out []*models.VoucherRecord
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListIssuedUnrendered returns issued vouchers that never produced a
// rendered document, oldest first, for the background render retrier.
func (r *VoucherRepository) ListIssuedUnrendered(ctx context.Context, limit int) ([]*models.VoucherRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+voucherColumns+" FROM vouchers WHERE status = ? AND rendered_at IS NULL ORDER BY id ASC LIMIT ?",
		models.StatusIssued, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unrendered vouchers: %w", err)
	}
	defer rows.Close()

	var out []*models.VoucherRecord
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// MarkRendered records a successful render
func (r *VoucherRepository) MarkRendered(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE vouchers SET rendered_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", at, id)
	if err != nil {
		return fmt.Errorf("failed to mark voucher rendered: %w", err)
	}
	return nil
}

// Delete removes a voucher header. Child rows must already be gone; the
// service wraps the cascade in one transaction.
func (r *VoucherRepository) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := r.conn(tx).ExecContext(ctx, "DELETE FROM vouchers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete voucher: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrVoucherNotFound
	}
	return nil
}
