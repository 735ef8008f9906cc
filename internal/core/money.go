// Package core provides the account model and money handling.
//
// This file contains the amount parser and the fixed-width balance formatter.
// Amounts are kept as integer cents; shopspring/decimal is only used at the
// text boundary so that rounding is applied to the exact decimal value.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Bounds on the decimal position of the leading significant digit. A number
// whose leading digit sits above maxMagnitude cannot fit in int64 cents; one
// below minMagnitude is under 0.001 and rounds to zero.
const (
	maxMagnitude = 20
	minMagnitude = -2

	// exponents are saturated here while scanning
	exponentCap = 1 << 30
)

// intWidth is the minimum number of integer digits printed by FormatBalance.
const intWidth = 6

// ParseAmount converts free-form text to an amount rounded to cents.
//
// It reads the longest leading numeric prefix (optional sign, digits, an
// optional fraction and an optional exponent) and ignores whatever follows.
// Text without a numeric prefix, or a value too large for int64 cents,
// yields zero. Rounding is half away from zero.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12abc")  -> 12.00
//	ParseAmount("1.005")  -> 1.01
//	ParseAmount("-1.005") -> -1.01
//	ParseAmount("abc")    -> 0.00
func ParseAmount(s string) Money {
	lit, ok := numericPrefix(strings.TrimSpace(s))
	if !ok {
		return Money{}
	}
	d, err := decimal.NewFromString(lit)
	if err != nil {
		return Money{}
	}
	m, ok := Round2(d)
	if !ok {
		return Money{}
	}
	return m
}

// numericPrefix extracts the leading number of s and rewrites it in a form
// decimal.NewFromString accepts ("5." -> "5", ".5" -> "0.5").
func numericPrefix(s string) (string, bool) {
	i := 0
	sign := ""
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		if s[i] == '-' {
			sign = "-"
		}
		i++
	}

	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intDigits := s[start:i]

	fracDigits := ""
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		fracDigits = s[i+1 : j]
		if intDigits != "" || fracDigits != "" {
			i = j
		}
	}
	if intDigits == "" && fracDigits == "" {
		return "", false
	}

	exp := 0
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		if v, ok := parseExponent(s[i+1:]); ok {
			exp = v
		}
	}

	mag, nonZero := magnitude(intDigits, fracDigits)
	if !nonZero {
		return "0", true
	}
	switch {
	case mag+exp > maxMagnitude:
		return "", false
	case mag+exp < minMagnitude:
		return "0", true
	}

	if intDigits == "" {
		intDigits = "0"
	}
	lit := sign + intDigits
	if fracDigits != "" {
		lit += "." + fracDigits
	}
	if exp != 0 {
		lit += "e" + strconv.Itoa(exp)
	}
	return lit, true
}

// parseExponent reads an optionally signed run of digits at the start of s.
// The value saturates at exponentCap. ok is false when there are no digits.
func parseExponent(s string) (int, bool) {
	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	v := 0
	for i < len(s) && isDigit(s[i]) {
		if v < exponentCap {
			v = v*10 + int(s[i]-'0')
		}
		i++
	}
	if i == start {
		return 0, false
	}
	v = min(v, exponentCap)
	if neg {
		v = -v
	}
	return v, true
}

// magnitude returns the position of the leading significant digit relative
// to the decimal point: 3 for "123.4", 0 for "0.5", -2 for "0.005".
// nonZero is false when every digit is zero.
func magnitude(intDigits, fracDigits string) (int, bool) {
	if significant := strings.TrimLeft(intDigits, "0"); significant != "" {
		return len(significant), true
	}
	significant := strings.TrimLeft(fracDigits, "0")
	if significant == "" {
		return 0, false
	}
	return -(len(fracDigits) - len(significant)), true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Round2 rounds d to 2 fraction digits, half away from zero.
// The boolean is false when the result does not fit in int64 cents.
func Round2(d decimal.Decimal) (Money, bool) {
	cents := d.Round(2).Shift(2)
	b := cents.BigInt()
	if !b.IsInt64() {
		return Money{}, false
	}
	return Money{Cents: b.Int64()}, true
}

// Decimal returns the amount as a decimal with 2 fraction digits.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Add returns m+o. The boolean is false on int64 overflow.
func (m Money) Add(o Money) (Money, bool) {
	if (o.Cents > 0 && m.Cents > math.MaxInt64-o.Cents) ||
		(o.Cents < 0 && m.Cents < math.MinInt64-o.Cents) {
		return m, false
	}
	return Money{Cents: m.Cents + o.Cents}, true
}

// Sub returns m-o. The boolean is false on int64 overflow.
func (m Money) Sub(o Money) (Money, bool) {
	if (o.Cents < 0 && m.Cents > math.MaxInt64+o.Cents) ||
		(o.Cents > 0 && m.Cents < math.MinInt64+o.Cents) {
		return m, false
	}
	return Money{Cents: m.Cents - o.Cents}, true
}

// String renders the amount with FormatBalance.
func (m Money) String() string {
	return FormatBalance(m)
}

// FormatBalance renders m as an optional "-", the integer part zero-padded
// to at least 6 digits, "." and two fraction digits. Wider values are not
// clipped: 1000999.99 renders as "1000999.99".
func FormatBalance(m Money) string {
	return FormatDecimal(m.Decimal())
}

// FormatDecimal is FormatBalance for an arbitrary decimal. The value is
// rounded half away from zero first.
func FormatDecimal(d decimal.Decimal) string {
	r := d.Round(2)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Neg()
	}
	intPart, frac, _ := strings.Cut(r.StringFixed(2), ".")
	if n := len(intPart); n < intWidth {
		intPart = strings.Repeat("0", intWidth-n) + intPart
	}
	return sign + intPart + "." + frac
}
