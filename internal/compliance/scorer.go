package compliance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/filing"
	"github.com/ngtax/ngtax/internal/money"
	"github.com/ngtax/ngtax/internal/tax"
)

const maxScore = 100

type check struct {
	alert    AlertType
	severity Severity
	weight   int
	failed   func(filing.PeriodSummary, Filings) (string, bool)
}

// Scorer applies the fixed weighted checklist.
type Scorer struct {
	vatThreshold decimal.Decimal
	checks       []check
}

// NewScorer builds a scorer using the year's VAT registration threshold.
func NewScorer(tables tax.RateTables) Scorer {
	s := Scorer{vatThreshold: tables.VATRegistrationThreshold}
	s.checks = []check{
		{AlertMissingTIN, SeverityHigh, 25, missingTIN},
		{AlertVATRegistrationRequired, SeverityHigh, 20, s.vatRegistrationRequired},
		{AlertVATReturnMissing, SeverityMedium, 15, vatReturnMissing},
		{AlertWHTUnremitted, SeverityHigh, 15, whtUnremitted},
		{AlertPAYEUnremitted, SeverityHigh, 15, payeUnremitted},
		{AlertLateFiling, SeverityLow, 10, lateFiling},
	}
	return s
}

// Score evaluates every check in order. Each failure emits exactly one alert
// and subtracts its weight; the score never drops below zero.
func (s Scorer) Score(summary filing.PeriodSummary, f Filings) Result {
	result := Result{
		EntityID: summary.EntityID,
		TaxYear:  summary.TaxYear,
		Month:    summary.Month,
		Score:    maxScore,
		Alerts:   []Alert{},
	}
	for _, c := range s.checks {
		message, failed := c.failed(summary, f)
		if !failed {
			continue
		}
		result.Score -= c.weight
		result.Alerts = append(result.Alerts, Alert{Type: c.alert, Severity: c.severity, Message: message})
	}
	if result.Score < 0 {
		result.Score = 0
	}
	return result
}

func missingTIN(_ filing.PeriodSummary, f Filings) (string, bool) {
	if strings.TrimSpace(f.TIN) != "" {
		return "", false
	}
	return "No taxpayer identification number on record", true
}

func (s Scorer) vatRegistrationRequired(_ filing.PeriodSummary, f Filings) (string, bool) {
	if f.VATRegistered || !f.AnnualTurnover.GreaterThan(s.vatThreshold) {
		return "", false
	}
	return fmt.Sprintf("Annual turnover of %s exceeds the VAT registration threshold of %s",
		money.FormatNaira(f.AnnualTurnover), money.FormatNaira(s.vatThreshold)), true
}

func vatReturnMissing(summary filing.PeriodSummary, f Filings) (string, bool) {
	if summary.VATStatus != tax.VATPayable || f.Has(filing.TaxTypeVAT) {
		return "", false
	}
	return fmt.Sprintf("Net VAT of %s is payable for %s but no VAT return was filed",
		money.FormatNaira(summary.NetVAT), summary.Period()), true
}

func whtUnremitted(summary filing.PeriodSummary, f Filings) (string, bool) {
	remitted := f.Remitted(filing.TaxTypeWHT)
	if !summary.TotalWHTRemitted.GreaterThan(remitted) {
		return "", false
	}
	return fmt.Sprintf("WHT of %s was deducted but only %s was remitted",
		money.FormatNaira(summary.TotalWHTRemitted), money.FormatNaira(remitted)), true
}

func payeUnremitted(summary filing.PeriodSummary, f Filings) (string, bool) {
	remitted := f.Remitted(filing.TaxTypePAYE)
	if !summary.TotalPAYE.GreaterThan(remitted) {
		return "", false
	}
	return fmt.Sprintf("PAYE of %s was deducted but only %s was remitted",
		money.FormatNaira(summary.TotalPAYE), money.FormatNaira(remitted)), true
}

func lateFiling(_ filing.PeriodSummary, f Filings) (string, bool) {
	late := 0
	for _, r := range f.Records {
		if r.Late() {
			late++
		}
	}
	if late == 0 {
		return "", false
	}
	return fmt.Sprintf("%d filing(s) submitted after the due date", late), true
}
