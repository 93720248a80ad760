package payroll

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var errNotNumeric = errors.New("not a number")

// ParseAmount reads a spreadsheet money cell. Thousands separators, a naira
// sign and surrounding whitespace are ignored, and "(1,000)" is negative.
// A blank cell is zero.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "₦")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "NGN"), "ngn")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return decimal.Zero, nil
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errNotNumeric
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// FormatNaira renders an amount as ₦1,234,567.89.
func FormatNaira(d decimal.Decimal) string {
	return "₦" + formatGrouped(d)
}

// FormatNGN is FormatNaira for output that cannot carry the naira sign.
func FormatNGN(d decimal.Decimal) string {
	return "NGN " + formatGrouped(d)
}

// formatGrouped groups the exact decimal text, so amounts past float64
// precision keep every digit.
func formatGrouped(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
