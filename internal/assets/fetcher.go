// Package assets fetches and caches the brand logo used on rendered
// vouchers. The fetcher is deliberately failure-absorbing: a missing logo is
// never a reason to fail a voucher build, so every error path here returns a
// nil asset and a log line, nothing else.
package assets

import (
	"context"
	"io"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/altamar/tour-vouchers/internal/document"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const maxAssetSize = 4 << 20 // refuse anything that is clearly not a logo

// Fetcher downloads image assets over HTTP with retries and keeps them in an
// in-memory cache keyed by URL.
type Fetcher struct {
	client *retryablehttp.Client
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]*document.Image
}

// NewFetcher creates a new asset fetcher
func NewFetcher(timeout time.Duration, logger *zap.Logger) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 1 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = nil

	return &Fetcher{
		client: client,
		logger: logger,
		cache:  make(map[string]*document.Image),
	}
}

// Fetch returns the image at url, or nil when it cannot be obtained.
// Fetch never returns an error; callers render without the image region.
func (f *Fetcher) Fetch(ctx context.Context, url string) *document.Image {
	if url == "" {
		return nil
	}

	f.mu.RLock()
	cached, ok := f.cache[url]
	f.mu.RUnlock()
	if ok {
		return cached
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.logger.Warn("Invalid asset URL", zap.String("url", url), zap.Error(err))
		return nil
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("Asset fetch failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("Asset fetch returned non-OK status",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode))
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		f.logger.Warn("Asset body read failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	if len(data) == 0 {
		f.logger.Warn("Asset body was empty", zap.String("url", url))
		return nil
	}

	img := &document.Image{
		Name: path.Base(url),
		MIME: resp.Header.Get("Content-Type"),
		Data: data,
	}

	f.mu.Lock()
	f.cache[url] = img
	f.mu.Unlock()

	return img
}
