package tax

import (
	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/money"
)

var monthsPerYear = decimal.NewFromInt(12)

// Reliefs are the statutory deductions allowed before PIT.
type Reliefs struct {
	Pension       decimal.Decimal `json:"pension"`
	NHF           decimal.Decimal `json:"nhf"`
	NHIS          decimal.Decimal `json:"nhis"`
	LifeAssurance decimal.Decimal `json:"life_assurance"`
	RentPaid      decimal.Decimal `json:"rent_paid"`
}

// ComputePIT applies the progressive brackets to taxable income.
func ComputePIT(taxableIncome decimal.Decimal, brackets []Bracket) (PITResult, error) {
	if err := checkAmount("taxable_income", taxableIncome, ErrInvalidIncome); err != nil {
		return PITResult{}, err
	}
	if err := validateBrackets(brackets); err != nil {
		return PITResult{}, err
	}
	lines, total := applyBrackets(taxableIncome, brackets)
	return PITResult{
		GrossIncome:   taxableIncome,
		Reliefs:       decimal.Zero,
		TaxableIncome: taxableIncome,
		Breakdown:     lines,
		TotalTax:      total,
	}, nil
}

// ComputeAnnualPIT derives taxable income from gross and reliefs, then applies
// the year's brackets.
func ComputeAnnualPIT(gross decimal.Decimal, reliefs Reliefs, tables RateTables) (PITResult, error) {
	taxable, err := TaxableIncome(gross, reliefs, tables)
	if err != nil {
		return PITResult{}, err
	}
	result, err := ComputePIT(taxable, tables.PITBrackets)
	if err != nil {
		return PITResult{}, err
	}
	result.GrossIncome = money.Round2(gross)
	result.Reliefs = money.ClampZero(result.GrossIncome.Sub(taxable))
	return result, nil
}

// TaxableIncome subtracts reliefs from gross income, floored at zero.
func TaxableIncome(gross decimal.Decimal, reliefs Reliefs, tables RateTables) (decimal.Decimal, error) {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"gross_income", gross},
		{"pension", reliefs.Pension},
		{"nhf", reliefs.NHF},
		{"nhis", reliefs.NHIS},
		{"life_assurance", reliefs.LifeAssurance},
		{"rent_paid", reliefs.RentPaid},
	}
	for _, f := range fields {
		if err := checkAmount(f.name, f.value, ErrNegativeAmount); err != nil {
			return decimal.Zero, err
		}
	}
	total := money.Sum(
		reliefs.Pension,
		reliefs.NHF,
		reliefs.NHIS,
		reliefs.LifeAssurance,
		ComputeRentRelief(reliefs.RentPaid, tables),
	)
	return money.ClampZero(money.Round2(gross.Sub(total))), nil
}

// ComputeRentRelief is the capped share of rent paid that reduces taxable income.
func ComputeRentRelief(rentPaid decimal.Decimal, tables RateTables) decimal.Decimal {
	if !rentPaid.IsPositive() {
		return decimal.Zero
	}
	return money.Min(money.Percent(rentPaid, tables.RentRelief.Rate), tables.RentRelief.Cap)
}

// ComputePAYE returns the monthly deduction for a monthly taxable pay by
// annualising it through the PIT brackets.
func ComputePAYE(monthlyPay decimal.Decimal, brackets []Bracket) (decimal.Decimal, error) {
	if err := checkAmount("amount", monthlyPay, ErrInvalidIncome); err != nil {
		return decimal.Zero, err
	}
	annual, err := ComputePIT(monthlyPay.Mul(monthsPerYear), brackets)
	if err != nil {
		return decimal.Zero, err
	}
	return money.Round2(annual.TotalTax.Div(monthsPerYear)), nil
}

func applyBrackets(income decimal.Decimal, brackets []Bracket) ([]BracketLine, decimal.Decimal) {
	lines := make([]BracketLine, 0, len(brackets))
	total := decimal.Zero
	prev := decimal.Zero
	for i, b := range brackets {
		upper := income
		if !b.Unbounded() {
			upper = money.Min(income, b.UpperBound.Decimal)
		}
		amount := money.ClampZero(upper.Sub(prev))
		tax := money.Percent(amount, b.Rate)
		lines = append(lines, BracketLine{
			Label:           bracketLabel(i, prev, b),
			Rate:            b.Rate,
			AmountInBracket: money.Round2(amount),
			TaxForBracket:   tax,
		})
		total = total.Add(tax)
		if b.Unbounded() || income.LessThanOrEqual(b.UpperBound.Decimal) {
			break
		}
		prev = b.UpperBound.Decimal
	}
	return lines, money.Round2(total)
}

func bracketLabel(i int, lower decimal.Decimal, b Bracket) string {
	switch {
	case b.Unbounded():
		return "Above " + money.FormatNaira(lower)
	case i == 0:
		return "First " + money.FormatNaira(b.UpperBound.Decimal)
	default:
		return "Next " + money.FormatNaira(b.UpperBound.Decimal.Sub(lower))
	}
}
