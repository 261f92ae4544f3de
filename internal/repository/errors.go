package repository

import "errors"

var (
	// ErrVoucherNotFound is returned when a voucher id or code has no row.
	ErrVoucherNotFound = errors.New("voucher not found")
	// ErrReservationNotFound is returned when a reservation id has no row.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrDuplicateCode is returned when an insert hits the unique code
	// constraint: the late TOCTOU loser of two concurrent generations.
	ErrDuplicateCode = errors.New("voucher code already exists")
)
