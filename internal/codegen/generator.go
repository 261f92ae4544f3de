// Package codegen produces human-readable booking codes and guarantees they
// are unused at generation time by probing the store.
package codegen

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// suffixAlphabet avoids 0/O, 1/I/L ambiguity in codes read over the phone.
const suffixAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	defaultPrefix      = "ATV"
	defaultSuffixLen   = 4
	defaultMaxAttempts = 5
	defaultBackoff     = 25 * time.Millisecond
)

var (
	// ErrCodeSpaceExhausted is returned when every attempt collided.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique code")

	errCollision = errors.New("code already taken")
)

// UniquenessCheckError wraps a store failure during the existence probe.
// No code is returned when the store cannot be consulted.
type UniquenessCheckError struct {
	Code string
	Err  error
}

func (e *UniquenessCheckError) Error() string {
	return fmt.Sprintf("uniqueness check failed for %s: %v", e.Code, e.Err)
}

func (e *UniquenessCheckError) Unwrap() error { return e.Err }

// ExistsFunc reports whether a candidate code is already persisted.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator builds candidate codes from prefix + timestamp + random suffix
// and retries with a fresh suffix on collision, bounded by maxAttempts.
type Generator struct {
	exists      ExistsFunc
	prefix      string
	suffixLen   int
	maxAttempts uint64
	backoff     time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithPrefix overrides the default code prefix.
func WithPrefix(prefix string) Option {
	return func(g *Generator) {
		if prefix != "" {
			g.prefix = prefix
		}
	}
}

// WithMaxAttempts bounds the collision retry loop.
func WithMaxAttempts(n uint64) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithClock injects the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a new code generator
func NewGenerator(exists ExistsFunc, logger *zap.Logger, opts ...Option) *Generator {
	g := &Generator{
		exists:      exists,
		prefix:      defaultPrefix,
		suffixLen:   defaultSuffixLen,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a code that was not present in the store at probe time.
// A store error fails fast with *UniquenessCheckError; exhausting all
// attempts on collisions returns ErrCodeSpaceExhausted.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	var code string

	backoff := retry.WithMaxRetries(g.maxAttempts-1, retry.NewConstant(g.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		candidate, err := g.candidate()
		if err != nil {
			return err
		}

		taken, err := g.exists(ctx, candidate)
		if err != nil {
			return &UniquenessCheckError{Code: candidate, Err: err}
		}
		if taken {
			g.logger.Warn("Code collision, regenerating", zap.String("code", candidate))
			return retry.RetryableError(errCollision)
		}

		code = candidate
		return nil
	})

	if err != nil {
		if errors.Is(err, errCollision) {
			return "", ErrCodeSpaceExhausted
		}
		return "", err
	}

	g.logger.Debug("Generated voucher code", zap.String("code", code))
	return code, nil
}

// candidate builds PREFIX-YYMMDDHHMM-XXXX
func (g *Generator) candidate() (string, error) {
	suffix, err := randomSuffix(g.suffixLen)
	if err != nil {
		return "", fmt.Errorf("failed to read random suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", g.prefix, g.now().Format("0601021504"), suffix), nil
}

func randomSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(out), nil
}
