// Package archive keeps a filesystem copy of every rendered voucher so the
// back office can reprint documents without hitting the renderer again.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// Archive stores rendered voucher PDFs under baseDir, grouped by issue month.
type Archive struct {
	baseDir string
	logger  *zap.Logger
}

// New creates an Archive rooted at baseDir
func New(baseDir string, logger *zap.Logger) *Archive {
	return &Archive{baseDir: baseDir, logger: logger}
}

// Save writes the PDF for the given voucher code and returns the stored path.
// Files land in {baseDir}/{YYYY-MM}/{code}.pdf keyed by issue date.
func (a *Archive) Save(code string, issuedAt time.Time, pdf []byte) (string, error) {
	if code == "" {
		return "", fmt.Errorf("cannot archive: empty voucher code")
	}

	path := a.Path(code, issuedAt)
	if err := a.validatePath(path); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive folder: %w", err)
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", fmt.Errorf("failed to write archived document: %w", err)
	}

	a.logger.Debug("Document archived",
		zap.String("code", code),
		zap.String("path", path),
		zap.Int("size", len(pdf)))
	return path, nil
}

// Path returns where the document for this voucher lives. It does not check
// that the file exists.
func (a *Archive) Path(code string, issuedAt time.Time) string {
	return filepath.Join(a.baseDir, issuedAt.Format("2006-01"), sanitizeName(code)+".pdf")
}

// Load reads a previously archived document. The boolean reports whether the
// file was present.
func (a *Archive) Load(code string, issuedAt time.Time) ([]byte, bool, error) {
	pdf, err := os.ReadFile(a.Path(code, issuedAt))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read archived document: %w", err)
	}
	return pdf, true, nil
}

// Remove deletes the archived document for a voucher. Removing a document
// that was never archived is not an error.
func (a *Archive) Remove(code string, issuedAt time.Time) error {
	err := os.Remove(a.Path(code, issuedAt))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove archived document: %w", err)
	}
	return nil
}

// validatePath guards against a sanitized name still escaping the base dir
func (a *Archive) validatePath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(a.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes archive directory: %s", path)
	}
	return nil
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	return unsafeChars.ReplaceAllString(name, "")
}
