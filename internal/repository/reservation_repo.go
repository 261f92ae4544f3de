package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/altamar/tour-vouchers/internal/models"
	"go.uber.org/zap"
)

// ReservationRepository handles stored reservations. Reservation payloads
// are kept as the raw JSON the intake form produced; shapes vary across
// schema generations and the reconciler sorts them out on read.
type ReservationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *sql.DB, logger *zap.Logger) *ReservationRepository {
	return &ReservationRepository{db: db, logger: logger}
}

// Create stores a reservation payload and returns its id
func (r *ReservationRepository) Create(ctx context.Context, payload map[string]interface{}) (int64, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode reservation payload: %w", err)
	}

	res, err := r.db.ExecContext(ctx, "INSERT INTO reservations (payload) VALUES (?)", string(raw))
	if err != nil {
		r.logger.Error("Failed to create reservation", zap.Error(err))
		return 0, fmt.Errorf("failed to create reservation: %w", err)
	}
	return res.LastInsertId()
}

// GetPayload loads and decodes a reservation payload
func (r *ReservationRepository) GetPayload(ctx context.Context, id int64) (map[string]interface{}, error) {
	var rec models.Reservation
	err := r.db.QueryRowContext(ctx,
		"SELECT id, payload, created_at FROM reservations WHERE id = ?", id,
	).Scan(&rec.ID, &rec.Payload, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation %d: %w", id, err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(rec.Payload), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode reservation %d payload: %w", id, err)
	}
	return payload, nil
}

// Delete removes a reservation, typically after conversion to a voucher
func (r *ReservationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reservations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}
