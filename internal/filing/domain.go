package filing

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/money"
	"github.com/ngtax/ngtax/internal/platform/httpx"
	"github.com/ngtax/ngtax/internal/tax"
)

var (
	// ErrEntityNotFound is returned when the taxpayer entity does not exist.
	ErrEntityNotFound = fmt.Errorf("filing: entity %w", httpx.ErrNotFound)
	// ErrTransactionNotFound is returned when amending an unknown transaction.
	ErrTransactionNotFound = fmt.Errorf("filing: transaction %w", httpx.ErrNotFound)
	// ErrDuplicateTransaction is returned when a transaction id is reused.
	ErrDuplicateTransaction = fmt.Errorf("filing: transaction %w", httpx.ErrDuplicate)
	// ErrDuplicateEntity is returned when an entity id is reused.
	ErrDuplicateEntity = fmt.Errorf("filing: entity %w", httpx.ErrDuplicate)
	// ErrDuplicateFiling is returned when a filing id is reused.
	ErrDuplicateFiling = fmt.Errorf("filing: return %w", httpx.ErrDuplicate)
)

// Entity is a taxpayer: an individual, a sole proprietorship or a company.
type Entity struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	TaxpayerClass tax.TaxpayerClass `json:"taxpayer_class"`
	TIN           string            `json:"tin"`
	VATRegistered bool              `json:"vat_registered"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Period is a tax year, optionally narrowed to one month.
type Period struct {
	TaxYear tax.TaxYear
	Month   *int
}

// NewPeriod validates year and month.
func NewPeriod(year int, month *int) (Period, error) {
	y, err := tax.ParseTaxYear(year)
	if err != nil {
		return Period{}, err
	}
	if month != nil && (*month < 1 || *month > 12) {
		return Period{}, tax.Invalid("month", tax.ErrInvalidMonth, strconv.Itoa(*month))
	}
	return Period{TaxYear: y, Month: month}, nil
}

// Bounds returns the half-open date range [from, to) covered by p.
func (p Period) Bounds() (time.Time, time.Time) {
	if p.Month == nil {
		from := time.Date(int(p.TaxYear), time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
	from := time.Date(int(p.TaxYear), time.Month(*p.Month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// Annual reports whether p covers the whole year.
func (p Period) Annual() bool {
	return p.Month == nil
}

func (p Period) String() string {
	if p.Month == nil {
		return p.TaxYear.String()
	}
	return fmt.Sprintf("%d-%02d", int(p.TaxYear), *p.Month)
}

// PeriodSummary aggregates every transaction of an entity within a period.
type PeriodSummary struct {
	EntityID         uuid.UUID       `json:"entity_id"`
	TaxYear          tax.TaxYear     `json:"tax_year"`
	Month            *int            `json:"month"`
	TotalOutputVAT   decimal.Decimal `json:"total_output_vat"`
	TotalInputVAT    decimal.Decimal `json:"total_input_vat"`
	NetVAT           decimal.Decimal `json:"net_vat"`
	VATStatus        tax.VATStatus   `json:"vat_status"`
	TotalPAYE        decimal.Decimal `json:"total_paye"`
	TotalWHTRemitted decimal.Decimal `json:"total_wht_remitted"`
	TotalWHTSuffered decimal.Decimal `json:"total_wht_suffered"`
	TotalTurnover    decimal.Decimal `json:"total_turnover"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	TotalPayroll     decimal.Decimal `json:"total_payroll"`
	TransactionCount int             `json:"transaction_count"`
}

// TaxableProfit is turnover less expenses and payroll, floored at zero.
func (s PeriodSummary) TaxableProfit() decimal.Decimal {
	return money.ClampZero(s.TotalTurnover.Sub(s.TotalExpenses).Sub(s.TotalPayroll))
}

// Period returns the summary's period.
func (s PeriodSummary) Period() Period {
	return Period{TaxYear: s.TaxYear, Month: s.Month}
}

func newSummary(entityID uuid.UUID, period Period) PeriodSummary {
	return PeriodSummary{
		EntityID:         entityID,
		TaxYear:          period.TaxYear,
		Month:            period.Month,
		TotalOutputVAT:   decimal.Zero,
		TotalInputVAT:    decimal.Zero,
		NetVAT:           decimal.Zero,
		VATStatus:        tax.VATNone,
		TotalPAYE:        decimal.Zero,
		TotalWHTRemitted: decimal.Zero,
		TotalWHTSuffered: decimal.Zero,
		TotalTurnover:    decimal.Zero,
		TotalExpenses:    decimal.Zero,
		TotalPayroll:     decimal.Zero,
	}
}

func (s *PeriodSummary) add(tx tax.Transaction, result tax.TransactionResult) {
	s.TransactionCount++
	switch tx.Kind {
	case tax.TransactionInvoice:
		s.TotalOutputVAT = s.TotalOutputVAT.Add(result.OutputVAT)
		s.TotalTurnover = s.TotalTurnover.Add(tx.Amount)
		if result.WHT != nil {
			s.TotalWHTSuffered = s.TotalWHTSuffered.Add(result.WHT.WHTAmount)
		}
	case tax.TransactionExpense:
		s.TotalInputVAT = s.TotalInputVAT.Add(result.InputVAT)
		s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
		if result.WHT != nil {
			s.TotalWHTRemitted = s.TotalWHTRemitted.Add(result.WHT.WHTAmount)
		}
	case tax.TransactionSalary:
		s.TotalPAYE = s.TotalPAYE.Add(result.PAYE)
		s.TotalPayroll = s.TotalPayroll.Add(tx.Amount)
	}
	settled := tax.SettleVAT(s.TotalOutputVAT, s.TotalInputVAT)
	s.NetVAT = settled.NetVAT
	s.VATStatus = settled.Status
}

// TaxType identifies the return a filing belongs to.
type TaxType string

const (
	TaxTypeVAT  TaxType = "vat"
	TaxTypeWHT  TaxType = "wht"
	TaxTypePAYE TaxType = "paye"
	TaxTypePIT  TaxType = "pit"
	TaxTypeCIT  TaxType = "cit"
)

// Valid reports membership in the closed set.
func (t TaxType) Valid() bool {
	switch t {
	case TaxTypeVAT, TaxTypeWHT, TaxTypePAYE, TaxTypePIT, TaxTypeCIT:
		return true
	}
	return false
}

// Monthly reports whether the return is filed per month.
func (t TaxType) Monthly() bool {
	return t == TaxTypeVAT || t == TaxTypeWHT || t == TaxTypePAYE
}

// Filing is a return or remittance submitted to the revenue service.
type Filing struct {
	ID       uuid.UUID       `json:"id"`
	EntityID uuid.UUID       `json:"entity_id"`
	TaxType  TaxType         `json:"tax_type"`
	TaxYear  tax.TaxYear     `json:"tax_year"`
	Month    *int            `json:"month,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	DueAt    time.Time       `json:"due_at"`
	FiledAt  time.Time       `json:"filed_at"`
}

// Late reports whether the filing was submitted after its due date.
func (f Filing) Late() bool {
	return f.FiledAt.After(f.DueAt)
}

// Validate checks the filing is complete and its period matches its type.
func (f Filing) Validate() error {
	if !f.TaxType.Valid() {
		return tax.Invalid("tax_type", tax.ErrRequired, string(f.TaxType))
	}
	if _, err := NewPeriod(int(f.TaxYear), f.Month); err != nil {
		return err
	}
	if f.TaxType.Monthly() && f.Month == nil {
		return tax.Invalid("month", tax.ErrRequired, string(f.TaxType)+" is filed monthly")
	}
	if err := tax.ValidateAmount("amount", f.Amount); err != nil {
		return err
	}
	if f.FiledAt.IsZero() {
		return tax.Invalid("filed_at", tax.ErrRequired, "")
	}
	return nil
}

// DueDate returns the statutory deadline for a return. Monthly returns are
// due in the following month (PAYE by the 10th, VAT and WHT by the 21st);
// CIT is due six months after year end and PIT by 31 March.
func DueDate(taxType TaxType, period Period) time.Time {
	year := int(period.TaxYear)
	switch taxType {
	case TaxTypePAYE, TaxTypeVAT, TaxTypeWHT:
		month := time.December
		if period.Month != nil {
			month = time.Month(*period.Month)
		}
		day := 21
		if taxType == TaxTypePAYE {
			day = 10
		}
		return time.Date(year, month+1, day, 23, 59, 59, 0, time.UTC)
	case TaxTypeCIT:
		return time.Date(year+1, time.June, 30, 23, 59, 59, 0, time.UTC)
	default:
		return time.Date(year+1, time.March, 31, 23, 59, 59, 0, time.UTC)
	}
}
