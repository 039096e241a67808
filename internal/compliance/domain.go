package compliance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/filing"
	"github.com/ngtax/ngtax/internal/tax"
)

// Severity ranks how urgently an alert needs attention.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// AlertType identifies a checklist item.
type AlertType string

const (
	AlertMissingTIN              AlertType = "missing_tin"
	AlertVATRegistrationRequired AlertType = "vat_registration_required"
	AlertVATReturnMissing        AlertType = "vat_return_missing"
	AlertWHTUnremitted           AlertType = "wht_unremitted"
	AlertPAYEUnremitted          AlertType = "paye_unremitted"
	AlertLateFiling              AlertType = "late_filing"
)

// Alert is one failed checklist item.
type Alert struct {
	Type     AlertType `json:"type"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// Result is a compliance score for an entity and period.
type Result struct {
	EntityID    uuid.UUID   `json:"entity_id"`
	TaxYear     tax.TaxYear `json:"tax_year"`
	Month       *int        `json:"month"`
	Score       int         `json:"score"`
	Alerts      []Alert     `json:"alerts"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
}

// Filings is the registration and filing history the scorer checks against.
type Filings struct {
	TIN            string
	VATRegistered  bool
	AnnualTurnover decimal.Decimal
	Records        []filing.Filing
}

// Remitted totals the filed amounts of one tax type.
func (f Filings) Remitted(taxType filing.TaxType) decimal.Decimal {
	total := decimal.Zero
	for _, r := range f.Records {
		if r.TaxType == taxType {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// Has reports whether any record of the tax type exists.
func (f Filings) Has(taxType filing.TaxType) bool {
	for _, r := range f.Records {
		if r.TaxType == taxType {
			return true
		}
	}
	return false
}
