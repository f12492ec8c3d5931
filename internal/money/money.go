// Package money converts between integer pennies and the dollar strings
// shown in amount fields.
package money

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxPennies is the largest amount accepted: beyond 2^53 pennies, share
// arithmetic in float64 no longer lands on whole pennies.
const MaxPennies int64 = 1 << 53

// ErrTooLarge is returned by ParseAmount for amounts above MaxPennies.
var ErrTooLarge = errors.New("amount is too large")

var (
	maxDecimal = decimal.NewFromInt(MaxPennies)

	nonNumeric = regexp.MustCompile(`[^0-9.]`)
	amountRe   = regexp.MustCompile(`(([0-9]+)?\.[0-9]+)|[0-9]+`)

	hundred = decimal.NewFromInt(100)
	printer = message.NewPrinter(language.English)
)

// Parse reads a typed dollar amount and returns it in pennies.
//
// Everything other than digits and '.' is stripped first, so "$1,234.50"
// and "1234.5" both parse to 123450. The first numeric token wins, digits
// past the second decimal place are truncated, and text with no number in
// it parses to 0. Amounts above MaxPennies are clamped to it.
func Parse(text string) int64 {
	pennies, err := ParseAmount(text)
	if errors.Is(err, ErrTooLarge) {
		return MaxPennies
	}
	return pennies
}

// ParseAmount is Parse, but rejects amounts above MaxPennies with
// ErrTooLarge instead of clamping them.
func ParseAmount(text string) (int64, error) {
	token := amountRe.FindString(nonNumeric.ReplaceAllString(text, ""))
	if token == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(token)
	if err != nil {
		return 0, nil
	}
	scaled := d.Truncate(2).Mul(hundred)
	if scaled.GreaterThan(maxDecimal) {
		return 0, fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, token, Format(MaxPennies))
	}
	return scaled.IntPart(), nil
}

// Format renders pennies as "$D,DDD.CC".
func Format(pennies int64) string {
	sign := ""
	u := uint64(pennies)
	if pennies < 0 {
		sign = "-"
		u = uint64(-pennies)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, printer.Sprintf("%d", u/100), u%100)
}
