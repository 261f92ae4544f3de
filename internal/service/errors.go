package service

import "errors"

var (
	// ErrNotIssued is returned when a render retry targets a voucher that
	// never reached the issued state.
	ErrNotIssued = errors.New("voucher is not issued")
)
