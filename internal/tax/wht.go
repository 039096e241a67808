package tax

import (
	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/money"
)

// ComputeWHT withholds on the VAT-exclusive subtotal. vatAmount only affects
// the gross and net figures, never the base.
func ComputeWHT(subtotal, vatAmount decimal.Decimal, category ServiceCategory, class TaxpayerClass, tables RateTables) (WHTResult, error) {
	if err := checkAmount("subtotal", subtotal, ErrNegativeAmount); err != nil {
		return WHTResult{}, err
	}
	if err := checkAmount("vat_amount", vatAmount, ErrNegativeAmount); err != nil {
		return WHTResult{}, err
	}
	rate, defaulted, err := tables.WHT.Lookup(category, class)
	if err != nil {
		return WHTResult{}, err
	}
	wht := money.Percent(subtotal, rate)
	gross := money.Round2(subtotal.Add(vatAmount))
	return WHTResult{
		Category:    category,
		Class:       class,
		Rate:        rate,
		DefaultRate: defaulted,
		BaseAmount:  money.Round2(subtotal),
		WHTAmount:   wht,
		GrossAmount: gross,
		NetAfterWHT: money.Round2(gross.Sub(wht)),
	}, nil
}
