package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/altamar/tour-vouchers/internal/codegen"
	"github.com/altamar/tour-vouchers/internal/models"
	"github.com/altamar/tour-vouchers/internal/money"
	"github.com/altamar/tour-vouchers/internal/reconcile"
	"github.com/altamar/tour-vouchers/internal/repository"
	"github.com/altamar/tour-vouchers/internal/service"
)

// VoucherPipeline is the slice of the voucher service the handlers use
type VoucherPipeline interface {
	SaveAndIssue(ctx context.Context, raw map[string]interface{}) (*service.IssueResult, error)
	Get(ctx context.Context, id int64) (*models.VoucherRecord, error)
	List(ctx context.Context, filter repository.ListFilter) ([]*models.VoucherRecord, error)
	Duplicate(ctx context.Context, id int64) (*models.VoucherRecord, error)
	Delete(ctx context.Context, id int64) error
	ConvertReservation(ctx context.Context, reservationID int64) (*models.VoucherRecord, error)
	DeleteReservation(ctx context.Context, reservationID int64) error
	FetchDocument(ctx context.Context, id int64) (*service.IssueResult, error)
	RetryRender(ctx context.Context, id int64) (*service.IssueResult, error)
	NotifyPricebookChanged(change interface{})
}

// SalesExporter writes a sales report file
type SalesExporter interface {
	Export(ctx context.Context, from, to time.Time, outputPath string) (int, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	vouchers  VoucherPipeline
	reports   SalesExporter
	reportDir string
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(vouchers VoucherPipeline, reports SalesExporter, reportDir string, logger *zap.Logger) *Handlers {
	return &Handlers{vouchers: vouchers, reports: reports, reportDir: reportDir, logger: logger}
}

// Response is the standard JSON envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// VoucherResponse is a voucher in API responses
type VoucherResponse struct {
	ID               int64               `json:"id"`
	Code             string              `json:"code"`
	ClientName       string              `json:"client_name"`
	ClientPhone      string              `json:"client_phone,omitempty"`
	EmbarkPlace      string              `json:"embark_place,omitempty"`
	SellerName       string              `json:"seller_name,omitempty"`
	OperatorName     string              `json:"operator_name,omitempty"`
	TotalCents       int64               `json:"total_centavos"`
	DownPaymentCents int64               `json:"down_payment_centavos"`
	RemainingCents   int64               `json:"remaining_centavos"`
	TotalDisplay     string              `json:"total_display"`
	RemainingDisplay string              `json:"remaining_display"`
	Notes            string              `json:"notes,omitempty"`
	Status           string              `json:"status"`
	IssuedAt         *string             `json:"issued_at,omitempty"`
	Items            []ItemResponse      `json:"items,omitempty"`
	Passengers       []PassengerResponse `json:"passengers,omitempty"`
}

// ItemResponse is a voucher line item in API responses
type ItemResponse struct {
	Description string `json:"description"`
	TripDate    string `json:"date,omitempty"`
	TripTime    string `json:"time,omitempty"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes,omitempty"`
}

// PassengerResponse is a passenger in API responses
type PassengerResponse struct {
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	IsInfant bool   `json:"is_infant"`
}

// IssueResponse reports a save-and-issue outcome
type IssueResponse struct {
	Voucher  VoucherResponse `json:"voucher"`
	Rendered bool            `json:"rendered"`
	// RenderError is set when the voucher was saved but the document
	// could not be produced; rendering can be retried separately.
	RenderError string `json:"render_error,omitempty"`
}

func toVoucherResponse(v *models.VoucherRecord) VoucherResponse {
	resp := VoucherResponse{
		ID:               v.ID,
		Code:             v.Code,
		ClientName:       v.ClientName,
		ClientPhone:      v.ClientPhone,
		EmbarkPlace:      v.EmbarkPlace,
		SellerName:       v.SellerName,
		OperatorName:     v.OperatorName,
		TotalCents:       v.TotalCents,
		DownPaymentCents: v.DownPaymentCents,
		RemainingCents:   money.Remaining(v.TotalCents, v.DownPaymentCents),
		TotalDisplay:     money.FormatBRL(v.TotalCents),
		Notes:            v.Notes,
		Status:           string(v.Status),
	}
	resp.RemainingDisplay = money.FormatBRL(resp.RemainingCents)
	if v.IssuedAt != nil {
		s := v.IssuedAt.Format(time.RFC3339)
		resp.IssuedAt = &s
	}
	for _, it := range v.Items {
		resp.Items = append(resp.Items, ItemResponse{
			Description: it.Description,
			TripDate:    it.TripDate,
			TripTime:    it.TripTime,
			Quantity:    it.Quantity,
			Notes:       it.Notes,
		})
	}
	for _, p := range v.Passengers {
		resp.Passengers = append(resp.Passengers, PassengerResponse{
			Name:     p.Name,
			Phone:    p.Phone,
			IsInfant: p.IsInfant,
		})
	}
	return resp
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// SaveAndIssue handles POST /api/vouchers. The body is the raw payload in
// whatever shape the form produced; reconciliation happens in the service.
func (h *Handlers) SaveAndIssue(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid JSON body"})
		return
	}

	res, err := h.vouchers.SaveAndIssue(c.Request.Context(), raw)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := IssueResponse{Voucher: toVoucherResponse(res.Record), Rendered: res.Rendered()}
	status := http.StatusCreated
	if !res.Rendered() {
		// saved but not rendered: the caller can retry the export alone
		resp.RenderError = res.RenderErr.Error()
		status = http.StatusAccepted
	}
	c.JSON(status, Response{Success: true, Data: resp})
}

// GetVoucher handles GET /api/vouchers/:id
func (h *Handlers) GetVoucher(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	rec, err := h.vouchers.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toVoucherResponse(rec)})
}

// ListVouchers handles GET /api/vouchers
func (h *Handlers) ListVouchers(c *gin.Context) {
	filter := repository.ListFilter{
		Status: models.VoucherStatus(c.Query("status")),
	}

	vouchers, err := h.vouchers.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]VoucherResponse, 0, len(vouchers))
	for _, v := range vouchers {
		out = append(out, toVoucherResponse(v))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// DownloadDocument handles GET /api/vouchers/:id/document. The archived copy
// is served when present; only a miss touches the render service.
func (h *Handlers) DownloadDocument(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	res, err := h.vouchers.FetchDocument(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !res.Rendered() {
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: res.RenderErr.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+res.Record.Code+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", res.PDF)
}

// RetryRender handles POST /api/vouchers/:id/render
func (h *Handlers) RetryRender(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	res, err := h.vouchers.RetryRender(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := IssueResponse{Voucher: toVoucherResponse(res.Record), Rendered: res.Rendered()}
	status := http.StatusOK
	if !res.Rendered() {
		resp.RenderError = res.RenderErr.Error()
		status = http.StatusAccepted
	}
	c.JSON(status, Response{Success: true, Data: resp})
}

// DuplicateVoucher handles POST /api/vouchers/:id/duplicate
func (h *Handlers) DuplicateVoucher(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	rec, err := h.vouchers.Duplicate(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: toVoucherResponse(rec)})
}

// DeleteVoucher handles DELETE /api/vouchers/:id
func (h *Handlers) DeleteVoucher(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.vouchers.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ConvertReservation handles POST /api/reservations/:id/convert
func (h *Handlers) ConvertReservation(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	rec, err := h.vouchers.ConvertReservation(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: toVoucherResponse(rec)})
}

// DeleteReservation handles DELETE /api/reservations/:id
func (h *Handlers) DeleteReservation(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.vouchers.DeleteReservation(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SalesReport handles GET /api/reports/sales?from=2024-03-01&to=2024-04-01
func (h *Handlers) SalesReport(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid or missing from date"})
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid or missing to date"})
		return
	}

	if err := os.MkdirAll(h.reportDir, 0o755); err != nil {
		h.writeError(c, err)
		return
	}
	path := filepath.Join(h.reportDir, "sales_"+uuid.NewString()+".xlsx")

	n, err := h.reports.Export(c.Request.Context(), from, to, path)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Info("Sales report ready",
		zap.String("path", path),
		zap.Int("vouchers", n))
	c.FileAttachment(path, "sales.xlsx")
}

// PricebookChanged handles POST /api/pricebook/changed; open views subscribe
// to the bus and refresh when this fires.
func (h *Handlers) PricebookChanged(c *gin.Context) {
	var change map[string]interface{}
	if err := c.ShouldBindJSON(&change); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid JSON body"})
		return
	}
	h.vouchers.NotifyPricebookChanged(change)
	c.JSON(http.StatusAccepted, Response{Success: true})
}

func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// writeError maps service errors to HTTP statuses
func (h *Handlers) writeError(c *gin.Context, err error) {
	var reconErr *reconcile.ReconciliationError
	var uniqErr *codegen.UniquenessCheckError

	switch {
	case errors.As(err, &reconErr):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: reconErr.Error()})
	case errors.Is(err, repository.ErrVoucherNotFound),
		errors.Is(err, repository.ErrReservationNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrNotIssued):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.As(err, &uniqErr), errors.Is(err, codegen.ErrCodeSpaceExhausted):
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}
