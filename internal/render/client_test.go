package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/altamar/tour-vouchers/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClient_Render(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	doc := &document.Document{
		Title: "Altamar Turismo",
		Code:  "ATV-2403151430-ABCD",
		Sections: []document.Section{
			{Title: "Valores"},
		},
	}

	t.Run("posts the document and returns the pdf bytes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/render", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

			var got document.Document
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, doc.Code, got.Code)

			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.7 fake"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 2*time.Second, logger)

		pdf, err := c.Render(ctx, doc)

		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.7 fake"), pdf)
	})

	t.Run("non-OK status surfaces a RenderError with the status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 2*time.Second, logger)

		pdf, err := c.Render(ctx, doc)

		assert.Nil(t, pdf)
		var rErr *RenderError
		require.ErrorAs(t, err, &rErr)
		assert.Equal(t, http.StatusInternalServerError, rErr.StatusCode)
		assert.Equal(t, doc.Code, rErr.Code)
	})

	t.Run("transport error surfaces a RenderError", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", 500*time.Millisecond, logger)

		_, err := c.Render(ctx, doc)

		var rErr *RenderError
		require.ErrorAs(t, err, &rErr)
	})
}
