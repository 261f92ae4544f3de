package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetcher_Fetch(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("fetches and caches the asset", func(t *testing.T) {
		hits := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte{0x89, 0x50, 0x4E, 0x47})
		}))
		defer srv.Close()

		f := NewFetcher(2*time.Second, logger)

		img := f.Fetch(ctx, srv.URL+"/logo.png")
		require.NotNil(t, img)
		assert.Equal(t, "logo.png", img.Name)
		assert.Equal(t, "image/png", img.MIME)
		assert.Len(t, img.Data, 4)

		again := f.Fetch(ctx, srv.URL+"/logo.png")
		require.NotNil(t, again)
		assert.Equal(t, 1, hits, "second fetch must come from cache")
	})

	t.Run("not found returns nil, never an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		f := NewFetcher(2*time.Second, logger)
		assert.Nil(t, f.Fetch(ctx, srv.URL+"/missing.png"))
	})

	t.Run("unreachable host returns nil", func(t *testing.T) {
		f := NewFetcher(500*time.Millisecond, logger)
		f.client.RetryMax = 0
		assert.Nil(t, f.Fetch(ctx, "http://127.0.0.1:1/logo.png"))
	})

	t.Run("empty url returns nil without a request", func(t *testing.T) {
		f := NewFetcher(time.Second, logger)
		assert.Nil(t, f.Fetch(ctx, ""))
	})

	t.Run("empty body returns nil", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		f := NewFetcher(time.Second, logger)
		assert.Nil(t, f.Fetch(ctx, srv.URL+"/empty.png"))
	})
}
