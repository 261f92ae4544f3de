package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/altamar/tour-vouchers/internal/document"
	"github.com/altamar/tour-vouchers/internal/models"
	"github.com/altamar/tour-vouchers/internal/repository"
)

// VoucherStore is the header-row persistence contract
type VoucherStore interface {
	Create(ctx context.Context, tx *sql.Tx, v *models.VoucherRecord) error
	Update(ctx context.Context, tx *sql.Tx, v *models.VoucherRecord) error
	GetByID(ctx context.Context, id int64) (*models.VoucherRecord, error)
	GetByCode(ctx context.Context, code string) (*models.VoucherRecord, error)
	List(ctx context.Context, filter repository.ListFilter) ([]*models.VoucherRecord, error)
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
	MarkRendered(ctx context.Context, id int64, at time.Time) error
	ListIssuedUnrendered(ctx context.Context, limit int) ([]*models.VoucherRecord, error)
}

// ItemStore is the line-item persistence contract
type ItemStore interface {
	Replace(ctx context.Context, tx *sql.Tx, voucherID int64, items []models.VoucherItem) error
	GetByVoucherID(ctx context.Context, voucherID int64) ([]models.VoucherItem, error)
	DeleteByVoucherID(ctx context.Context, tx *sql.Tx, voucherID int64) error
}

// PassengerStore is the passenger persistence contract
type PassengerStore interface {
	Replace(ctx context.Context, tx *sql.Tx, voucherID int64, passengers []models.Passenger) error
	GetByVoucherID(ctx context.Context, voucherID int64) ([]models.Passenger, error)
	DeleteByVoucherID(ctx context.Context, tx *sql.Tx, voucherID int64) error
}

// ReservationStore reads stored reservation payloads
type ReservationStore interface {
	GetPayload(ctx context.Context, id int64) (map[string]interface{}, error)
	Delete(ctx context.Context, id int64) error
}

// TxRunner runs a function inside one store transaction
type TxRunner interface {
	WithTransaction(fn func(*sql.Tx) error) error
}

// CodeGenerator produces unique booking codes
type CodeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// Renderer turns a document description into final PDF bytes
type Renderer interface {
	Render(ctx context.Context, doc *document.Document) ([]byte, error)
}

// LogoFetcher returns the brand logo or nil when unavailable
type LogoFetcher interface {
	Fetch(ctx context.Context, url string) *document.Image
}

// PDFArchiver keeps filesystem copies of rendered documents
type PDFArchiver interface {
	Save(code string, issuedAt time.Time, pdf []byte) (string, error)
	Load(code string, issuedAt time.Time) ([]byte, bool, error)
	Remove(code string, issuedAt time.Time) error
}

// Reconciler normalizes raw payloads into canonical records
type Reconciler interface {
	Reconcile(raw map[string]interface{}) (*models.VoucherRecord, error)
}

// DocumentBuilder assembles the printable voucher description
type DocumentBuilder interface {
	Build(rec *models.VoucherRecord, logo *document.Image) *document.Document
}
