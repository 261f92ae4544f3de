// Package render is the client for the external document rendering service:
// it posts a document description and gets PDF bytes back. Render failures
// are deliberately decoupled from persistence; callers detect them with
// errors.As and report "saved but not rendered" instead of rolling back.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/altamar/tour-vouchers/internal/document"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RenderError reports a failed render attempt. The voucher it belongs to is
// already persisted; rendering can be retried from the stored record alone.
type RenderError struct {
	Code       string
	StatusCode int
	Err        error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render failed for voucher %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("render failed for voucher %s: service returned status %d", e.Code, e.StatusCode)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Client talks to the render service over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new render service client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Render posts the document description and returns the PDF bytes.
func (c *Client) Render(ctx context.Context, doc *document.Document) ([]byte, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, &RenderError{Code: doc.Code, Err: fmt.Errorf("failed to encode document: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, &RenderError{Code: doc.Code, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Render request failed", zap.String("code", doc.Code), zap.Error(err))
		return nil, &RenderError{Code: doc.Code, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Render service returned non-OK status",
			zap.String("code", doc.Code),
			zap.Int("status", resp.StatusCode))
		return nil, &RenderError{Code: doc.Code, StatusCode: resp.StatusCode}
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RenderError{Code: doc.Code, Err: fmt.Errorf("failed to read rendered document: %w", err)}
	}

	c.logger.Info("Document rendered",
		zap.String("code", doc.Code),
		zap.Int("bytes", len(pdf)))
	return pdf, nil
}
