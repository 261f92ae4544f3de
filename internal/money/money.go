// Package money converts between decimal currency and integer centavos and
// formats amounts for presentation. Centavos are the source of truth
// everywhere else in the system; float64 only appears at the edges.
package money

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToCents converts a decimal currency amount to integer centavos.
// Ties round half-up: 12.345 becomes 1235. The conversion goes through
// an exact decimal so binary float artifacts on the .005 boundary cannot
// flip the result.
func ToCents(v float64) int64 {
	return decimal.NewFromFloat(v).Mul(hundred).Round(0).IntPart()
}

// ToDecimal converts integer centavos back to a decimal amount.
func ToDecimal(cents int64) float64 {
	f, _ := decimal.NewFromInt(cents).Div(hundred).Float64()
	return f
}

// Remaining returns the outstanding balance, never negative.
func Remaining(totalCents, downPaymentCents int64) int64 {
	r := totalCents - downPaymentCents
	if r < 0 {
		return 0
	}
	return r
}

// FormatBRL renders centavos in Brazilian presentation: "R$ 1.250,00".
func FormatBRL(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), frac)
}

// FormatAnyBRL formats an arbitrary value assumed to be a decimal currency
// amount. Nil and non-numeric inputs render as "R$ 0,00" rather than failing;
// the document assembler relies on this when legacy records carry junk.
func FormatAnyBRL(v interface{}) string {
	f, ok := ParseAmount(v)
	if !ok {
		return FormatBRL(0)
	}
	return FormatBRL(ToCents(f))
}

// ParseAmount coerces the numeric representations seen in stored payloads
// (float64, ints, json.Number, plain numeric strings) into a float64.
// Returns false for anything it cannot interpret.
func ParseAmount(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
