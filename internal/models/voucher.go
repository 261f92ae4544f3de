package models

import "time"

// VoucherStatus represents the lifecycle state of a voucher
type VoucherStatus string

const (
	StatusDraft     VoucherStatus = "draft"
	StatusIssued    VoucherStatus = "issued"
	StatusCancelled VoucherStatus = "cancelled"
)

// VoucherRecord is the canonical in-memory voucher shape.
// All monetary fields are integer centavos; RemainingCents is derived and
// must be recomputed from TotalCents and DownPaymentCents before every
// persistence write and before every document build.
type VoucherRecord struct {
	ID               int64
	Code             string
	ClientName       string
	ClientPhone      string
	EmbarkPlace      string
	SellerName       string
	OperatorName     string
	Items            []VoucherItem
	Passengers       []Passenger
	TotalCents       int64
	DownPaymentCents int64
	RemainingCents   int64
	Notes            string
	Status           VoucherStatus
	IssuedAt         *time.Time
	RenderedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// VoucherItem is a single booked tour/service line
type VoucherItem struct {
	ID          int64
	VoucherID   int64
	Position    int
	Description string
	TripDate    string
	TripTime    string
	Quantity    int
	Notes       string
}

// Passenger is a traveler attached to a voucher
type Passenger struct {
	ID        int64
	VoucherID int64
	Position  int
	Name      string
	Phone     string
	IsInfant  bool
}

// Reservation is a stored pre-sale record with a historically loose shape.
// The payload is kept as raw JSON and normalized by the reconciler on read.
type Reservation struct {
	ID        int64
	Payload   string
	CreatedAt time.Time
}
