package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var issuedMarch = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func TestArchive_Save(t *testing.T) {
	tempDir := t.TempDir()
	a := New(tempDir, zap.NewNop())

	t.Run("stores under issue month", func(t *testing.T) {
		path, err := a.Save("ATV-2403151430-KQ7X", issuedMarch, []byte("%PDF"))

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tempDir, "2024-03", "ATV-2403151430-KQ7X.pdf"), path)
		assert.FileExists(t, path)
	})

	t.Run("overwrites on re-render", func(t *testing.T) {
		_, err := a.Save("ATV-2403151430-AAAA", issuedMarch, []byte("first"))
		require.NoError(t, err)
		_, err = a.Save("ATV-2403151430-AAAA", issuedMarch, []byte("second"))
		require.NoError(t, err)

		pdf, found, err := a.Load("ATV-2403151430-AAAA", issuedMarch)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []byte("second"), pdf)
	})

	t.Run("rejects empty code", func(t *testing.T) {
		_, err := a.Save("", issuedMarch, []byte("%PDF"))
		assert.Error(t, err)
	})

	t.Run("strips traversal sequences from code", func(t *testing.T) {
		path, err := a.Save("../../etc/passwd", issuedMarch, []byte("x"))

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tempDir, "2024-03", "etcpasswd.pdf"), path)
	})
}

func TestArchive_Load(t *testing.T) {
	a := New(t.TempDir(), zap.NewNop())

	t.Run("missing document reports not found", func(t *testing.T) {
		_, found, err := a.Load("ATV-2403151430-ZZZZ", issuedMarch)

		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("round trip", func(t *testing.T) {
		_, err := a.Save("ATV-2403151430-KQ7X", issuedMarch, []byte("%PDF-1.4"))
		require.NoError(t, err)

		pdf, found, err := a.Load("ATV-2403151430-KQ7X", issuedMarch)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []byte("%PDF-1.4"), pdf)
	})
}

func TestArchive_Remove(t *testing.T) {
	a := New(t.TempDir(), zap.NewNop())

	t.Run("removes archived document", func(t *testing.T) {
		path, err := a.Save("ATV-2403151430-KQ7X", issuedMarch, []byte("%PDF"))
		require.NoError(t, err)

		require.NoError(t, a.Remove("ATV-2403151430-KQ7X", issuedMarch))
		assert.NoFileExists(t, path)
	})

	t.Run("idempotent for missing document", func(t *testing.T) {
		assert.NoError(t, a.Remove("ATV-2403151430-NEVR", issuedMarch))
	})
}
