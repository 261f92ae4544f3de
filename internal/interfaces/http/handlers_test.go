package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/altamar/tour-vouchers/internal/models"
	"github.com/altamar/tour-vouchers/internal/reconcile"
	"github.com/altamar/tour-vouchers/internal/repository"
	"github.com/altamar/tour-vouchers/internal/service"
)

type mockPipeline struct {
	issueResult *service.IssueResult
	issueErr    error

	getRecord *models.VoucherRecord
	getErr    error

	listRecords []*models.VoucherRecord
	listFilter  repository.ListFilter

	deleteErr error
	deletedID int64

	deleteReservationErr error
	deletedReservationID int64

	fetchResult *service.IssueResult
	fetchErr    error

	retryResult *service.IssueResult
	retryErr    error

	pricebookChanges []interface{}
}

func (m *mockPipeline) SaveAndIssue(ctx context.Context, raw map[string]interface{}) (*service.IssueResult, error) {
	return m.issueResult, m.issueErr
}

func (m *mockPipeline) Get(ctx context.Context, id int64) (*models.VoucherRecord, error) {
	return m.getRecord, m.getErr
}

func (m *mockPipeline) List(ctx context.Context, filter repository.ListFilter) ([]*models.VoucherRecord, error) {
	m.listFilter = filter
	return m.listRecords, nil
}

func (m *mockPipeline) Duplicate(ctx context.Context, id int64) (*models.VoucherRecord, error) {
	return m.getRecord, m.getErr
}

func (m *mockPipeline) Delete(ctx context.Context, id int64) error {
	m.deletedID = id
	return m.deleteErr
}

func (m *mockPipeline) ConvertReservation(ctx context.Context, reservationID int64) (*models.VoucherRecord, error) {
	return m.getRecord, m.getErr
}

func (m *mockPipeline) DeleteReservation(ctx context.Context, reservationID int64) error {
	m.deletedReservationID = reservationID
	return m.deleteReservationErr
}

func (m *mockPipeline) FetchDocument(ctx context.Context, id int64) (*service.IssueResult, error) {
	return m.fetchResult, m.fetchErr
}

func (m *mockPipeline) RetryRender(ctx context.Context, id int64) (*service.IssueResult, error) {
	return m.retryResult, m.retryErr
}

func (m *mockPipeline) NotifyPricebookChanged(change interface{}) {
	m.pricebookChanges = append(m.pricebookChanges, change)
}

type mockExporter struct {
	count int
	err   error
	path  string
}

func (m *mockExporter) Export(ctx context.Context, from, to time.Time, outputPath string) (int, error) {
	m.path = outputPath
	return m.count, m.err
}

func testRouter(t *testing.T, pipeline *mockPipeline, exporter *mockExporter) *gin.Engine {
	t.Helper()
	handlers := NewHandlers(pipeline, exporter, t.TempDir(), zap.NewNop())
	server := NewServer(ServerConfig{Port: 0}, handlers, zap.NewNop())
	return server.Router()
}

func sampleRecord() *models.VoucherRecord {
	issued := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	return &models.VoucherRecord{
		ID:               1,
		Code:             "ATV-2403151430-KQ7X",
		ClientName:       "Maria Souza",
		TotalCents:       125000,
		DownPaymentCents: 50000,
		RemainingCents:   75000,
		Status:           models.StatusIssued,
		IssuedAt:         &issued,
		Items: []models.VoucherItem{
			{Description: "Passeio de escuna", Quantity: 4},
		},
		Passengers: []models.Passenger{
			{Name: "Maria Souza"},
		},
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := testRouter(t, &mockPipeline{}, &mockExporter{})

	w := doJSON(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestSaveAndIssue(t *testing.T) {
	t.Run("rendered voucher returns 201", func(t *testing.T) {
		pipeline := &mockPipeline{
			issueResult: &service.IssueResult{Record: sampleRecord(), PDF: []byte("%PDF")},
		}
		router := testRouter(t, pipeline, &mockExporter{})

		w := doJSON(t, router, http.MethodPost, "/api/vouchers", map[string]interface{}{
			"client_name": "Maria Souza",
			"items":       []interface{}{},
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)

		body := w.Body.String()
		assert.Contains(t, body, "ATV-2403151430-KQ7X")
		assert.Contains(t, body, `"rendered":true`)
		assert.Contains(t, body, "R$ 1.250,00")
	})

	t.Run("saved but not rendered returns 202", func(t *testing.T) {
		pipeline := &mockPipeline{
			issueResult: &service.IssueResult{
				Record:    sampleRecord(),
				RenderErr: errors.New("renderer unreachable"),
			},
		}
		router := testRouter(t, pipeline, &mockExporter{})

		w := doJSON(t, router, http.MethodPost, "/api/vouchers", map[string]interface{}{
			"client_name": "Maria Souza",
			"items":       []interface{}{},
		})

		require.Equal(t, http.StatusAccepted, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `"rendered":false`)
		assert.Contains(t, body, "renderer unreachable")
	})

	t.Run("reconciliation failure returns 400", func(t *testing.T) {
		pipeline := &mockPipeline{
			issueErr: &reconcile.ReconciliationError{Field: "client_name", Reason: "missing"},
		}
		router := testRouter(t, pipeline, &mockExporter{})

		w := doJSON(t, router, http.MethodPost, "/api/vouchers", map[string]interface{}{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "client_name")
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		router := testRouter(t, &mockPipeline{}, &mockExporter{})

		req := httptest.NewRequest(http.MethodPost, "/api/vouchers", bytes.NewBufferString("{not json"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetVoucher(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		pipeline := &mockPipeline{getRecord: sampleRecord()}
		router := testRouter(t, pipeline, &mockExporter{})

		w := doJSON(t, router, http.MethodGet, "/api/vouchers/1", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Maria Souza")
	})

	t.Run("not found returns 404", func(t *testing.T) {
		pipeline := &mockPipeline{getErr: repository.ErrVoucherNotFound}
		router := testRouter(t, pipeline, &mockExporter{})

		w := doJSON(t, router, http.MethodGet, "/api/vouchers/99", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-numeric id returns 400", func(t *testing.T) {
		router := testRouter(t, &mockPipeline{}, &mockExporter{})

		w := doJSON(t, router, http.MethodGet, "/api/vouchers/abc", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListVouchers(t *testing.T) {
	pipeline := &mockPipeline{listRecords: []*models.VoucherRecord{sampleRecord()}}
	router := testRouter(t, pipeline, &mockExporter{})

	w := doJSON(t, router, http.MethodGet, "/api/vouchers?status=issued", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusIssued, pipeline.listFilter.Status)
	assert.Contains(t, w.Body.String(), "ATV-2403151430-KQ7X")
}

func TestDownloadDocument(t *testing.T) {
	t.Run("serves archived PDF without a retry attempt", func(t *testing.T) {
		pipeline := &mockPipeline{
			fetchResult: &service.IssueResult{Record: sampleRecord(), PDF: []byte("%PDF-1.4 test")},
			retryErr:    errors.New("downloads must not reach the renderer path"),
		}
		router := testRouter(t, pipeline, &mockExporter{})

		w := doJSON(t, router, http.MethodGet, "/api/vouchers/1/document", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "ATV-2403151430-KQ7X.pdf")
		assert.Equal(t, "%PDF-1.4 test", w.Body.String())
	})

	t.Run("render failure returns 503", func(t *testing.T) {
		pipeline := &mockPipeline{
			fetchResult: &service.IssueResult{Record: sampleRecord(), RenderErr: errors.New("renderer down")},
		}
		router := testRouter(t, pipeline, &mockExporter{})

		w := doJSON(t, router, http.MethodGet, "/api/vouchers/1/document", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("draft voucher returns 409", func(t *testing.T) {
		pipeline := &mockPipeline{fetchErr: service.ErrNotIssued}
		router := testRouter(t, pipeline, &mockExporter{})

		w := doJSON(t, router, http.MethodGet, "/api/vouchers/1/document", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestDeleteVoucher(t *testing.T) {
	pipeline := &mockPipeline{}
	router := testRouter(t, pipeline, &mockExporter{})

	w := doJSON(t, router, http.MethodDelete, "/api/vouchers/42", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(42), pipeline.deletedID)
}

func TestConvertReservation(t *testing.T) {
	t.Run("missing reservation returns 404", func(t *testing.T) {
		pipeline := &mockPipeline{getErr: repository.ErrReservationNotFound}
		router := testRouter(t, pipeline, &mockExporter{})

		w := doJSON(t, router, http.MethodPost, "/api/reservations/5/convert", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("converted returns 201", func(t *testing.T) {
		pipeline := &mockPipeline{getRecord: sampleRecord()}
		router := testRouter(t, pipeline, &mockExporter{})

		w := doJSON(t, router, http.MethodPost, "/api/reservations/5/convert", nil)

		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestDeleteReservation(t *testing.T) {
	t.Run("deletes and returns 204", func(t *testing.T) {
		pipeline := &mockPipeline{}
		router := testRouter(t, pipeline, &mockExporter{})

		w := doJSON(t, router, http.MethodDelete, "/api/reservations/5", nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, int64(5), pipeline.deletedReservationID)
	})

	t.Run("missing reservation returns 404", func(t *testing.T) {
		pipeline := &mockPipeline{deleteReservationErr: repository.ErrReservationNotFound}
		router := testRouter(t, pipeline, &mockExporter{})

		w := doJSON(t, router, http.MethodDelete, "/api/reservations/99", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSalesReport(t *testing.T) {
	t.Run("missing dates return 400", func(t *testing.T) {
		router := testRouter(t, &mockPipeline{}, &mockExporter{})

		w := doJSON(t, router, http.MethodGet, "/api/reports/sales", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("export failure returns 500", func(t *testing.T) {
		exporter := &mockExporter{err: errors.New("disk full")}
		router := testRouter(t, &mockPipeline{}, exporter)

		w := doJSON(t, router, http.MethodGet, "/api/reports/sales?from=2024-03-01&to=2024-04-01", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestPricebookChanged(t *testing.T) {
	pipeline := &mockPipeline{}
	router := testRouter(t, pipeline, &mockExporter{})

	w := doJSON(t, router, http.MethodPost, "/api/pricebook/changed", map[string]interface{}{
		"trip": "Passeio de escuna",
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, pipeline.pricebookChanges, 1)
}
