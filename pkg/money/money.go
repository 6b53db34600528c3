// Package money handles Brazilian real amounts stored as integer centavos.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cents is an amount in centavos.
type Cents int64

var ErrInvalidAmount = errors.New("invalid monetary amount")

// FromReais converts a float amount, rounding half away from zero.
func FromReais(r float64) Cents {
	return Cents(math.Round(r * 100))
}

func (c Cents) Reais() float64 {
	return float64(c) / 100
}

// String renders "R$ 1.234,56".
func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
	}
	return sign + "R$ " + groupThousands(abs(int64(c))/100) + "," + fmt.Sprintf("%02d", abs(int64(c))%100)
}

// FormatDecimal renders "5,89" without symbol or grouping.
func (c Cents) FormatDecimal() string {
	sign := ""
	if c < 0 {
		sign = "-"
	}
	v := abs(int64(c))
	return fmt.Sprintf("%s%d,%02d", sign, v/100, v%100)
}

// ParseBRL parses strict Brazilian notation: "." groups thousands, "," separates decimals.
func ParseBRL(s string) (Cents, error) {
	clean, neg, err := normalize(s)
	if err != nil {
		return 0, err
	}
	if strings.Count(clean, ",") > 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	intPart, frac, _ := strings.Cut(clean, ",")
	intPart = strings.ReplaceAll(intPart, ".", "")
	return compose(intPart, frac, neg, s)
}

// ParseDecimal accepts "5,89", "5.89", "R$ 5,89" and "1.234,567".
// When both separators appear the last one is the decimal separator.
// A lone "," is decimal; several "." are thousands groups; a single "." is decimal.
// Extra fractional digits are rounded half-up to centavos.
func ParseDecimal(s string) (Cents, error) {
	clean, neg, err := normalize(s)
	if err != nil {
		return 0, err
	}

	lastDot := strings.LastIndex(clean, ".")
	lastComma := strings.LastIndex(clean, ",")

	var intPart, frac string
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			intPart, frac = clean[:lastComma], clean[lastComma+1:]
			intPart = strings.ReplaceAll(intPart, ".", "")
		} else {
			intPart, frac = clean[:lastDot], clean[lastDot+1:]
			intPart = strings.ReplaceAll(intPart, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(clean, ",") > 1 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
		intPart, frac = clean[:lastComma], clean[lastComma+1:]
	case strings.Count(clean, ".") > 1:
		intPart = strings.ReplaceAll(clean, ".", "")
	case lastDot >= 0:
		intPart, frac = clean[:lastDot], clean[lastDot+1:]
	default:
		intPart = clean
	}

	return compose(intPart, frac, neg, s)
}

func normalize(s string) (string, bool, error) {
	clean := strings.TrimSpace(s)
	clean = strings.ReplaceAll(clean, "R$", "")
	clean = strings.ReplaceAll(clean, "\u00a0", "")
	clean = strings.ReplaceAll(clean, " ", "")

	neg := false
	if strings.HasPrefix(clean, "-") {
		neg = true
		clean = clean[1:]
	}
	if clean == "" {
		return "", false, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return clean, neg, nil
}

func compose(intPart, frac string, neg bool, original string) (Cents, error) {
	if intPart == "" {
		intPart = "0"
	}
	if !digitsOnly(intPart) || !digitsOnly(frac) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, original)
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || whole > math.MaxInt64/100-1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, original)
	}

	padded := frac + "00"
	cents, _ := strconv.ParseInt(padded[:2], 10, 64)
	total := whole*100 + cents
	if len(frac) > 2 && frac[2] >= '5' {
		total++
	}

	if neg {
		total = -total
	}
	return Cents(total), nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
