// Package money holds the rounding and percentage conventions shared by the tax
// engine and the pricing code. Every monetary derivation goes through Round2 so
// that aggregates sum consistently with the figures remitted to the tax authority.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	hundred = decimal.NewFromInt(100)
	printer = message.NewPrinter(language.English)
)

// Round2 rounds half away from zero to two decimal places. For the non-negative
// amounts the engine rounds this is round-half-up.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// Percent returns round2(amount * pct / 100).
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(pct).Div(hundred))
}

// Sum adds the values without intermediate rounding.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// ClampZero floors v at zero.
func ClampZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// FormatNaira renders v as "₦1,234,567.89"; the kobo part is omitted when zero.
func FormatNaira(v decimal.Decimal) string {
	v = Round2(v)
	abs := v.Abs()
	whole := abs.Truncate(0)
	out := "₦" + printer.Sprintf("%d", whole.IntPart())
	if frac := abs.Sub(whole); !frac.IsZero() {
		out += frac.StringFixed(2)[1:]
	}
	if v.IsNegative() {
		return "-" + out
	}
	return out
}
