package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToCents(t *testing.T) {
	t.Run("whole amounts", func(t *testing.T) {
		assert.Equal(t, int64(125000), ToCents(1250.00))
		assert.Equal(t, int64(0), ToCents(0))
		assert.Equal(t, int64(50000), ToCents(500.00))
	})

	t.Run("half-up on the .005 boundary", func(t *testing.T) {
		assert.Equal(t, int64(1235), ToCents(12.345))
		assert.Equal(t, int64(1), ToCents(0.005))
		assert.Equal(t, int64(101), ToCents(1.005))
		assert.Equal(t, int64(268), ToCents(2.675))
	})

	t.Run("plain fractions", func(t *testing.T) {
		assert.Equal(t, int64(1999), ToCents(19.99))
		assert.Equal(t, int64(10), ToCents(0.1))
	})
}

func TestToDecimal(t *testing.T) {
	assert.Equal(t, 12.5, ToDecimal(1250))
	assert.Equal(t, 0.0, ToDecimal(0))
	assert.Equal(t, 750.0, ToDecimal(75000))
}

func TestRoundTrip(t *testing.T) {
	// toMinorUnits(toDecimal(x)) == x for non-negative integers
	for _, x := range []int64{0, 1, 5, 99, 100, 101, 12345, 125000, 999999999} {
		assert.Equal(t, x, ToCents(ToDecimal(x)), "round trip for %d", x)
	}
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, int64(75000), Remaining(125000, 50000))
	assert.Equal(t, int64(0), Remaining(100, 100))
	// down payment larger than total clamps to zero, never negative
	assert.Equal(t, int64(0), Remaining(100, 500))
	assert.Equal(t, int64(42), Remaining(42, 0))
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 0,00", FormatBRL(0))
	assert.Equal(t, "R$ 1.250,00", FormatBRL(125000))
	assert.Equal(t, "R$ 500,00", FormatBRL(50000))
	assert.Equal(t, "R$ 750,00", FormatBRL(75000))
	assert.Equal(t, "R$ 12.345,67", FormatBRL(1234567))
	assert.Equal(t, "R$ 1.000.000,00", FormatBRL(100000000))
	assert.Equal(t, "R$ 0,05", FormatBRL(5))
	assert.Equal(t, "-R$ 1,50", FormatBRL(-150))
}

func TestFormatAnyBRL(t *testing.T) {
	assert.Equal(t, "R$ 1.250,00", FormatAnyBRL(1250.00))
	assert.Equal(t, "R$ 10,00", FormatAnyBRL(10))
	assert.Equal(t, "R$ 19,99", FormatAnyBRL("19.99"))

	// garbage never panics, renders the zero value
	assert.Equal(t, "R$ 0,00", FormatAnyBRL(nil))
	assert.Equal(t, "R$ 0,00", FormatAnyBRL("abc"))
	assert.Equal(t, "R$ 0,00", FormatAnyBRL(struct{}{}))
	assert.Equal(t, "R$ 0,00", FormatAnyBRL(""))
}

func TestParseAmount(t *testing.T) {
	f, ok := ParseAmount(json.Number("1250.5"))
	assert.True(t, ok)
	assert.Equal(t, 1250.5, f)

	f, ok = ParseAmount(" 42.00 ")
	assert.True(t, ok)
	assert.Equal(t, 42.0, f)

	_, ok = ParseAmount([]string{"no"})
	assert.False(t, ok)
}
