package tax

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Bracket is a progressive band. An invalid UpperBound means unbounded.
type Bracket struct {
	UpperBound decimal.NullDecimal `json:"upper_bound"`
	Rate       decimal.Decimal     `json:"rate"`
}

// Unbounded reports whether the bracket extends to infinity.
func (b Bracket) Unbounded() bool {
	return !b.UpperBound.Valid
}

// CITRates splits the small-company and large-company rates.
type CITRates struct {
	Small decimal.Decimal `json:"small"`
	Large decimal.Decimal `json:"large"`
}

// RentRelief is the PIT deduction for rent paid.
type RentRelief struct {
	Rate decimal.Decimal `json:"rate"`
	Cap  decimal.Decimal `json:"cap"`
}

// WHTMatrix maps category and payer class to a percentage rate. Default
// carries the documented fallback row per class.
type WHTMatrix struct {
	Rates   map[ServiceCategory]map[TaxpayerClass]decimal.Decimal `json:"rates"`
	Default map[TaxpayerClass]decimal.Decimal                     `json:"default"`
}

// Lookup returns the rate for a cell, falling back to the default row.
func (m WHTMatrix) Lookup(category ServiceCategory, class TaxpayerClass) (decimal.Decimal, bool, error) {
	if !category.Valid() {
		return decimal.Zero, false, invalid("service_category", ErrUnknownServiceCategory, string(category))
	}
	if !class.Valid() {
		return decimal.Zero, false, invalid("taxpayer_class", ErrUnknownTaxpayerClass, string(class))
	}
	if row, ok := m.Rates[category]; ok {
		if rate, ok := row[class]; ok {
			return rate, false, nil
		}
	}
	rate, ok := m.Default[class]
	if !ok {
		return decimal.Zero, false, misconfigured("wht_rate_matrix", "no default rate for "+string(class))
	}
	return rate, true, nil
}

// RateTables is the statutory parameter set for one tax year. Percentages
// are stored as whole numbers (7.5 means 7.5%).
type RateTables struct {
	TaxYear                        TaxYear         `json:"tax_year"`
	Statute                        string          `json:"statute"`
	PITBrackets                    []Bracket       `json:"pit_brackets"`
	CITSmallCompanyTurnoverCeiling decimal.Decimal `json:"cit_small_company_turnover_ceiling"`
	CITRates                       CITRates        `json:"cit_rates"`
	VATRate                        decimal.Decimal `json:"vat_rate"`
	VATRegistrationThreshold       decimal.Decimal `json:"vat_registration_threshold"`
	WHT                            WHTMatrix       `json:"wht_rate_matrix"`
	RentRelief                     RentRelief      `json:"rent_relief"`
}

// Validate rejects tables the calculators cannot safely use.
func (t RateTables) Validate() error {
	if err := t.TaxYear.Validate(); err != nil {
		return misconfigured("tax_year", err.Error())
	}
	if err := validateBrackets(t.PITBrackets); err != nil {
		return err
	}
	if !validRate(t.VATRate) || t.VATRate.IsZero() {
		return misconfigured("vat_rate", "missing or out of range")
	}
	if t.VATRegistrationThreshold.IsNegative() {
		return misconfigured("vat_registration_threshold", "negative")
	}
	if !t.CITSmallCompanyTurnoverCeiling.IsPositive() {
		return misconfigured("cit_small_company_turnover_ceiling", "must be positive")
	}
	if !validRate(t.CITRates.Small) || !validRate(t.CITRates.Large) {
		return misconfigured("cit_rates", "out of range")
	}
	for _, class := range TaxpayerClasses {
		rate, ok := t.WHT.Default[class]
		if !ok {
			return misconfigured("wht_rate_matrix", "no default rate for "+string(class))
		}
		if !validRate(rate) {
			return misconfigured("wht_rate_matrix", "default rate out of range for "+string(class))
		}
	}
	for category, row := range t.WHT.Rates {
		if !category.Valid() {
			return misconfigured("wht_rate_matrix", "unknown category "+string(category))
		}
		for class, rate := range row {
			if !class.Valid() || !validRate(rate) {
				return misconfigured("wht_rate_matrix", fmt.Sprintf("bad cell %s/%s", category, class))
			}
		}
	}
	if !validRate(t.RentRelief.Rate) || t.RentRelief.Cap.IsNegative() {
		return misconfigured("rent_relief", "out of range")
	}
	return nil
}

// Clone returns a copy that shares no slices or maps with t.
func (t RateTables) Clone() RateTables {
	out := t
	out.PITBrackets = append([]Bracket(nil), t.PITBrackets...)
	out.WHT.Rates = make(map[ServiceCategory]map[TaxpayerClass]decimal.Decimal, len(t.WHT.Rates))
	for category, row := range t.WHT.Rates {
		copied := make(map[TaxpayerClass]decimal.Decimal, len(row))
		for class, rate := range row {
			copied[class] = rate
		}
		out.WHT.Rates[category] = copied
	}
	out.WHT.Default = make(map[TaxpayerClass]decimal.Decimal, len(t.WHT.Default))
	for class, rate := range t.WHT.Default {
		out.WHT.Default[class] = rate
	}
	return out
}

func validateBrackets(brackets []Bracket) error {
	if len(brackets) == 0 {
		return misconfigured("pit_brackets", "empty")
	}
	prev := decimal.Zero
	for i, b := range brackets {
		if !validRate(b.Rate) {
			return misconfigured("pit_brackets", fmt.Sprintf("bracket %d rate out of range", i+1))
		}
		last := i == len(brackets)-1
		if b.Unbounded() {
			if !last {
				return misconfigured("pit_brackets", fmt.Sprintf("bracket %d unbounded before the last", i+1))
			}
			continue
		}
		if last {
			return misconfigured("pit_brackets", "final bracket must be unbounded")
		}
		if !b.UpperBound.Decimal.GreaterThan(prev) {
			return misconfigured("pit_brackets", fmt.Sprintf("bracket %d not ascending", i+1))
		}
		prev = b.UpperBound.Decimal
	}
	return nil
}

func validRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
}
