package tax

import (
	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/money"
)

// ComputeCIT applies the small-company exemption on turnover, then the flat
// large-company rate on taxable profit.
func ComputeCIT(turnover, taxableProfit decimal.Decimal, tables RateTables) (CITResult, error) {
	if err := checkAmount("turnover", turnover, ErrNegativeAmount); err != nil {
		return CITResult{}, err
	}
	if err := checkAmount("taxable_profit", taxableProfit, ErrInvalidIncome); err != nil {
		return CITResult{}, err
	}
	ceiling := tables.CITSmallCompanyTurnoverCeiling
	if !ceiling.IsPositive() {
		return CITResult{}, misconfigured("cit_small_company_turnover_ceiling", "must be positive")
	}
	result := CITResult{
		Turnover:      money.Round2(turnover),
		GrossIncome:   money.Round2(turnover),
		TaxableIncome: money.Round2(taxableProfit),
	}
	if turnover.LessThanOrEqual(ceiling) {
		result.SmallCompany = true
		result.Rate = decimal.Zero
		result.TotalTax = decimal.Zero
		result.Breakdown = []BracketLine{{
			Label:           "Small company (turnover up to " + money.FormatNaira(ceiling) + ")",
			Rate:            decimal.Zero,
			AmountInBracket: result.TaxableIncome,
			TaxForBracket:   decimal.Zero,
		}}
		return result, nil
	}
	if !validRate(tables.CITRates.Large) {
		return CITResult{}, misconfigured("cit_rates", "large rate out of range")
	}
	result.Rate = tables.CITRates.Large
	result.TotalTax = money.Percent(taxableProfit, result.Rate)
	result.Breakdown = []BracketLine{{
		Label:           "Large company (turnover above " + money.FormatNaira(ceiling) + ")",
		Rate:            result.Rate,
		AmountInBracket: result.TaxableIncome,
		TaxForBracket:   result.TotalTax,
	}}
	return result, nil
}
