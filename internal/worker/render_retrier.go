// Package worker holds background workers for the back office.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/altamar/tour-vouchers/internal/models"
	"github.com/altamar/tour-vouchers/internal/service"
	"go.uber.org/zap"
)

// UnrenderedLister finds issued vouchers with no rendered document yet
type UnrenderedLister interface {
	ListIssuedUnrendered(ctx context.Context, limit int) ([]*models.VoucherRecord, error)
}

// RenderRetryer re-renders a voucher from its persisted record
type RenderRetryer interface {
	RetryRender(ctx context.Context, id int64) (*service.IssueResult, error)
}

// RenderRetrier periodically retries rendering for vouchers that were
// issued while the render service was unavailable. Persistence success is
// independent of document availability, so these vouchers are valid and
// merely waiting for their PDF.
type RenderRetrier struct {
	vouchers UnrenderedLister
	svc      RenderRetryer
	logger   *zap.Logger

	pollInterval time.Duration
	batchSize    int

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRenderRetrier creates a new render retry worker
func NewRenderRetrier(vouchers UnrenderedLister, svc RenderRetryer, pollInterval time.Duration, batchSize int, logger *zap.Logger) *RenderRetrier {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &RenderRetrier{
		vouchers:     vouchers,
		svc:          svc,
		logger:       logger,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

// Start launches the polling loop
func (w *RenderRetrier) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("render retrier is already running")
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.done = make(chan struct{})

	w.logger.Info("RenderRetrier started",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Int("batch_size", w.batchSize))

	go w.loop(ctx)
	return nil
}

// Stop cancels the loop and waits for it to exit
func (w *RenderRetrier) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.cancel()
	done := w.done
	w.mu.Unlock()

	<-done
	w.logger.Info("RenderRetrier stopped")
}

func (w *RenderRetrier) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll runs one retry pass over the pending batch
func (w *RenderRetrier) Poll(ctx context.Context) {
	pending, err := w.vouchers.ListIssuedUnrendered(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("Failed to list unrendered vouchers", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	w.logger.Info("Retrying pending renders", zap.Int("count", len(pending)))

	for _, v := range pending {
		res, err := w.svc.RetryRender(ctx, v.ID)
		if err != nil {
			w.logger.Error("Render retry failed",
				zap.String("code", v.Code),
				zap.Error(err))
			continue
		}
		if !res.Rendered() {
			w.logger.Warn("Render service still unavailable",
				zap.String("code", v.Code),
				zap.Error(res.RenderErr))
			continue
		}
		w.logger.Info("Pending render completed", zap.String("code", v.Code))
	}
}
