// Package service orchestrates the voucher lifecycle: reconcile the input,
// assign a code, persist header and child rows atomically, assemble the
// document and hand it to the render gateway.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/altamar/tour-vouchers/internal/document"
	"github.com/altamar/tour-vouchers/internal/events"
	"github.com/altamar/tour-vouchers/internal/models"
	"github.com/altamar/tour-vouchers/internal/money"
	"github.com/altamar/tour-vouchers/internal/repository"
	"go.uber.org/zap"
)

// IssueResult is the outcome of a save-and-issue run. The record is
// persisted and issued even when rendering failed; RenderErr reports the
// "saved but not rendered" case so callers can retry export without
// re-entering data.
type IssueResult struct {
	Record    *models.VoucherRecord
	Document  *document.Document
	PDF       []byte
	RenderErr error
}

// Rendered reports whether the PDF was produced
func (r *IssueResult) Rendered() bool { return r.RenderErr == nil }

// VoucherService coordinates the voucher pipeline
type VoucherService struct {
	tx           TxRunner
	vouchers     VoucherStore
	items        ItemStore
	passengers   PassengerStore
	reservations ReservationStore
	reconciler   Reconciler
	codes        CodeGenerator
	builder      DocumentBuilder
	renderer     Renderer
	logos        LogoFetcher
	logoURL      string
	archive      PDFArchiver
	bus          *events.Bus
	now          func() time.Time
	logger       *zap.Logger
}

// Deps bundles the service dependencies
type Deps struct {
	Tx           TxRunner
	Vouchers     VoucherStore
	Items        ItemStore
	Passengers   PassengerStore
	Reservations ReservationStore
	Reconciler   Reconciler
	Codes        CodeGenerator
	Builder      DocumentBuilder
	Renderer     Renderer
	Logos        LogoFetcher
	LogoURL      string
	Archive      PDFArchiver
	Bus          *events.Bus
	Now          func() time.Time
}

// NewVoucherService creates a new voucher lifecycle service
func NewVoucherService(deps Deps, logger *zap.Logger) *VoucherService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	bus := deps.Bus
	if bus == nil {
		bus = events.NewBus()
	}
	return &VoucherService{
		tx:           deps.Tx,
		vouchers:     deps.Vouchers,
		items:        deps.Items,
		passengers:   deps.Passengers,
		reservations: deps.Reservations,
		reconciler:   deps.Reconciler,
		codes:        deps.Codes,
		builder:      deps.Builder,
		renderer:     deps.Renderer,
		logos:        deps.Logos,
		logoURL:      deps.LogoURL,
		archive:      deps.Archive,
		bus:          bus,
		now:          now,
		logger:       logger,
	}
}

// Bus exposes the notification bus so views can subscribe to lifecycle and
// pricebook events.
func (s *VoucherService) Bus() *events.Bus { return s.bus }

// SaveAndIssue runs the full pipeline for a raw voucher payload. On render
// failure the voucher stays issued and the result carries the render error;
// persistence failures surface as plain errors and leave the voucher
// untouched.
func (s *VoucherService) SaveAndIssue(ctx context.Context, raw map[string]interface{}) (*IssueResult, error) {
	rec, err := s.reconciler.Reconcile(raw)
	if err != nil {
		return nil, err
	}

	if rec.Code == "" {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			return nil, err
		}
		rec.Code = code
	}

	if err := s.persistIssued(ctx, rec); err != nil {
		return nil, err
	}
	s.bus.Publish(events.TopicVoucherIssued, rec.Code)

	result := &IssueResult{Record: rec}
	result.Document = s.builder.Build(rec, s.logos.Fetch(ctx, s.logoURL))

	pdf, err := s.renderer.Render(ctx, result.Document)
	if err != nil {
		s.logger.Warn("Voucher saved but not rendered",
			zap.String("code", rec.Code),
			zap.Error(err))
		result.RenderErr = err
		return result, nil
	}

	result.PDF = pdf
	s.archiveDocument(rec, pdf)
	if err := s.vouchers.MarkRendered(ctx, rec.ID, s.now()); err != nil {
		s.logger.Error("Failed to mark voucher rendered", zap.Int64("id", rec.ID), zap.Error(err))
	}
	return result, nil
}

// archiveDocument stores the rendered PDF on disk. Archiving is best effort,
// the authoritative copy of the voucher is the database record.
func (s *VoucherService) archiveDocument(rec *models.VoucherRecord, pdf []byte) {
	if s.archive == nil || rec.IssuedAt == nil {
		return
	}
	path, err := s.archive.Save(rec.Code, *rec.IssuedAt, pdf)
	if err != nil {
		s.logger.Warn("Failed to archive document", zap.String("code", rec.Code), zap.Error(err))
		return
	}
	s.logger.Debug("Document archived", zap.String("path", path))
}

// persistIssued writes header and child rows in one transaction, tolerating
// exactly one late unique-code violation: two generators racing on the same
// candidate is possible because uniqueness is enforced by the store, not a
// lock.
func (s *VoucherService) persistIssued(ctx context.Context, rec *models.VoucherRecord) error {
	rec.RemainingCents = money.Remaining(rec.TotalCents, rec.DownPaymentCents)
	issuedAt := s.now()
	rec.Status = models.StatusIssued
	rec.IssuedAt = &issuedAt

	err := s.writeRecord(ctx, rec)
	if errors.Is(err, repository.ErrDuplicateCode) {
		s.logger.Warn("Late code collision, regenerating once", zap.String("code", rec.Code))
		code, genErr := s.codes.Generate(ctx)
		if genErr != nil {
			return genErr
		}
		rec.Code = code
		err = s.writeRecord(ctx, rec)
	}
	if err != nil {
		return fmt.Errorf("failed to persist voucher: %w", err)
	}

	s.logger.Info("Voucher issued",
		zap.String("code", rec.Code),
		zap.Int64("total_centavos", rec.TotalCents),
		zap.Int64("remaining_centavos", rec.RemainingCents))
	return nil
}

// writeRecord upserts the header and replaces the child sets atomically.
func (s *VoucherService) writeRecord(ctx context.Context, rec *models.VoucherRecord) error {
	if rec.ID == 0 {
		if existing, err := s.vouchers.GetByCode(ctx, rec.Code); err == nil {
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
		} else if !errors.Is(err, repository.ErrVoucherNotFound) {
			return err
		}
	}

	return s.tx.WithTransaction(func(tx *sql.Tx) error {
		if rec.ID == 0 {
			if err := s.vouchers.Create(ctx, tx, rec); err != nil {
				return err
			}
		} else {
			if err := s.vouchers.Update(ctx, tx, rec); err != nil {
				return err
			}
		}
		if err := s.items.Replace(ctx, tx, rec.ID, rec.Items); err != nil {
			return err
		}
		return s.passengers.Replace(ctx, tx, rec.ID, rec.Passengers)
	})
}

// Get loads a voucher with its items and passengers
func (s *VoucherService) Get(ctx context.Context, id int64) (*models.VoucherRecord, error) {
	rec, err := s.vouchers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Items, err = s.items.GetByVoucherID(ctx, id); err != nil {
		return nil, err
	}
	if rec.Passengers, err = s.passengers.GetByVoucherID(ctx, id); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns voucher headers matching the filter
func (s *VoucherService) List(ctx context.Context, filter repository.ListFilter) ([]*models.VoucherRecord, error) {
	return s.vouchers.List(ctx, filter)
}

// Duplicate clones an existing voucher into a fresh draft: new code, same
// items and passengers in the same order, payments carried over.
func (s *VoucherService) Duplicate(ctx context.Context, id int64) (*models.VoucherRecord, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Generate(ctx)
	if err != nil {
		return nil, err
	}

	dup := *src
	dup.ID = 0
	dup.Code = code
	dup.Status = models.StatusDraft
	dup.IssuedAt = nil
	dup.RenderedAt = nil
	dup.RemainingCents = money.Remaining(dup.TotalCents, dup.DownPaymentCents)

	dup.Items = make([]models.VoucherItem, len(src.Items))
	for i, it := range src.Items {
		it.ID = 0
		it.VoucherID = 0
		it.Position = i
		dup.Items[i] = it
	}
	dup.Passengers = make([]models.Passenger, len(src.Passengers))
	for i, p := range src.Passengers {
		p.ID = 0
		p.VoucherID = 0
		p.Position = i
		dup.Passengers[i] = p
	}

	err = s.tx.WithTransaction(func(tx *sql.Tx) error {
		if err := s.vouchers.Create(ctx, tx, &dup); err != nil {
			return err
		}
		if err := s.items.Replace(ctx, tx, dup.ID, dup.Items); err != nil {
			return err
		}
		return s.passengers.Replace(ctx, tx, dup.ID, dup.Passengers)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist duplicate: %w", err)
	}

	s.logger.Info("Voucher duplicated",
		zap.String("source_code", src.Code),
		zap.String("new_code", dup.Code))
	return &dup, nil
}

// Delete hard-deletes a voucher, cascading over child rows first.
func (s *VoucherService) Delete(ctx context.Context, id int64) error {
	rec, err := s.vouchers.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.tx.WithTransaction(func(tx *sql.Tx) error {
		if err := s.items.DeleteByVoucherID(ctx, tx, id); err != nil {
			return err
		}
		if err := s.passengers.DeleteByVoucherID(ctx, tx, id); err != nil {
			return err
		}
		return s.vouchers.Delete(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete voucher: %w", err)
	}

	if s.archive != nil && rec.IssuedAt != nil {
		if err := s.archive.Remove(rec.Code, *rec.IssuedAt); err != nil {
			s.logger.Warn("Failed to remove archived document", zap.String("code", rec.Code), zap.Error(err))
		}
	}

	s.bus.Publish(events.TopicVoucherDeleted, rec.Code)
	s.logger.Info("Voucher deleted", zap.String("code", rec.Code))
	return nil
}

// ConvertReservation turns a stored reservation into a draft voucher with a
// freshly assigned code. The reservation row is kept until the draft is
// issued and saved by the user.
func (s *VoucherService) ConvertReservation(ctx context.Context, reservationID int64) (*models.VoucherRecord, error) {
	payload, err := s.reservations.GetPayload(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	rec, err := s.reconciler.Reconcile(payload)
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Generate(ctx)
	if err != nil {
		return nil, err
	}
	rec.Code = code
	rec.Status = models.StatusDraft
	rec.IssuedAt = nil
	rec.RemainingCents = money.Remaining(rec.TotalCents, rec.DownPaymentCents)

	err = s.tx.WithTransaction(func(tx *sql.Tx) error {
		if err := s.vouchers.Create(ctx, tx, rec); err != nil {
			return err
		}
		if err := s.items.Replace(ctx, tx, rec.ID, rec.Items); err != nil {
			return err
		}
		return s.passengers.Replace(ctx, tx, rec.ID, rec.Passengers)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist converted reservation: %w", err)
	}

	s.logger.Info("Reservation converted to draft voucher",
		zap.Int64("reservation_id", reservationID),
		zap.String("code", rec.Code))
	return rec, nil
}

// DeleteReservation removes a stored reservation, used by the back office
// after a booking has been converted to a voucher or abandoned.
func (s *VoucherService) DeleteReservation(ctx context.Context, id int64) error {
	if err := s.reservations.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Reservation deleted", zap.Int64("reservation_id", id))
	return nil
}

// FetchDocument returns the PDF for an issued voucher, preferring the
// archived copy over a fresh render. An archive miss falls back to
// RetryRender, so reprints keep working after the archive directory is
// cleaned out.
func (s *VoucherService) FetchDocument(ctx context.Context, id int64) (*IssueResult, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.StatusIssued {
		return nil, ErrNotIssued
	}

	if s.archive != nil && rec.IssuedAt != nil {
		pdf, found, err := s.archive.Load(rec.Code, *rec.IssuedAt)
		if err != nil {
			s.logger.Warn("Failed to read archived document", zap.String("code", rec.Code), zap.Error(err))
		}
		if found {
			return &IssueResult{Record: rec, PDF: pdf}, nil
		}
	}

	return s.RetryRender(ctx, id)
}

// RetryRender rebuilds the document from the persisted record alone and
// re-renders it. Nothing but the stored record is needed, which is what
// makes render failures safely retryable.
func (s *VoucherService) RetryRender(ctx context.Context, id int64) (*IssueResult, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.StatusIssued {
		return nil, ErrNotIssued
	}

	doc := s.builder.Build(rec, s.logos.Fetch(ctx, s.logoURL))
	pdf, err := s.renderer.Render(ctx, doc)
	if err != nil {
		return &IssueResult{Record: rec, Document: doc, RenderErr: err}, nil
	}

	s.archiveDocument(rec, pdf)
	if err := s.vouchers.MarkRendered(ctx, rec.ID, s.now()); err != nil {
		s.logger.Error("Failed to mark voucher rendered", zap.Int64("id", rec.ID), zap.Error(err))
	}
	return &IssueResult{Record: rec, Document: doc, PDF: pdf}, nil
}

// NotifyPricebookChanged publishes a pricebook change so open views can
// refresh their cached prices.
func (s *VoucherService) NotifyPricebookChanged(change interface{}) {
	s.bus.Publish(events.TopicPricebookChanged, change)
}
