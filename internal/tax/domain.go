package tax

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Statutory year range. The 2025 Act applies from 2026 onward.
const (
	MinTaxYear TaxYear = 2026
	MaxTaxYear TaxYear = 2100
)

// TaxYear is a calendar year governed by the Nigeria Tax Act 2025.
type TaxYear int

func (y TaxYear) String() string {
	return strconv.Itoa(int(y))
}

// Validate checks the statutory range.
func (y TaxYear) Validate() error {
	if y < MinTaxYear || y > MaxTaxYear {
		return invalidf("tax_year", ErrUnsupportedTaxYear, "%d outside %d-%d", int(y), int(MinTaxYear), int(MaxTaxYear))
	}
	return nil
}

// TaxpayerClass determines WHT rate selection and CIT applicability.
type TaxpayerClass string

const (
	ClassIndividual     TaxpayerClass = "individual"
	ClassSoleProprietor TaxpayerClass = "sole_proprietor"
	ClassCompany        TaxpayerClass = "company"
)

// TaxpayerClasses lists the closed set in display order.
var TaxpayerClasses = []TaxpayerClass{ClassIndividual, ClassSoleProprietor, ClassCompany}

// Valid reports membership in the closed set.
func (c TaxpayerClass) Valid() bool {
	for _, known := range TaxpayerClasses {
		if c == known {
			return true
		}
	}
	return false
}

// ServiceCategory is the WHT schedule row a payment falls under.
type ServiceCategory string

const (
	CategoryProfessionalServices ServiceCategory = "professional_services"
	CategoryManagementServices   ServiceCategory = "management_services"
	CategoryTechnicalServices    ServiceCategory = "technical_services"
	CategoryConsultancy          ServiceCategory = "consultancy"
	CategoryCommission           ServiceCategory = "commission"
	CategoryConstruction         ServiceCategory = "construction"
	CategorySupplyOfGoods        ServiceCategory = "supply_of_goods"
	CategoryRent                 ServiceCategory = "rent"
	CategoryDirectorFees         ServiceCategory = "director_fees"
	CategoryTransport            ServiceCategory = "transport"
	CategoryDividends            ServiceCategory = "dividends"
	CategoryInterest             ServiceCategory = "interest"
	CategoryRoyalties            ServiceCategory = "royalties"
	CategoryOtherServices        ServiceCategory = "other_services"
)

// ServiceCategories lists the closed set in schedule order.
var ServiceCategories = []ServiceCategory{
	CategoryProfessionalServices,
	CategoryManagementServices,
	CategoryTechnicalServices,
	CategoryConsultancy,
	CategoryCommission,
	CategoryConstruction,
	CategorySupplyOfGoods,
	CategoryRent,
	CategoryDirectorFees,
	CategoryTransport,
	CategoryDividends,
	CategoryInterest,
	CategoryRoyalties,
	CategoryOtherServices,
}

// Valid reports membership in the closed set.
func (c ServiceCategory) Valid() bool {
	for _, known := range ServiceCategories {
		if c == known {
			return true
		}
	}
	return false
}

// TransactionKind separates sales, purchases and payroll lines.
type TransactionKind string

const (
	TransactionInvoice TransactionKind = "invoice"
	TransactionExpense TransactionKind = "expense"
	TransactionSalary  TransactionKind = "salary"
)

// Valid reports membership in the closed set.
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionInvoice, TransactionExpense, TransactionSalary:
		return true
	}
	return false
}

// Transaction is a recorded invoice, expense or salary line. Amount is net of VAT.
type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	EntityID        uuid.UUID       `json:"entity_id"`
	Kind            TransactionKind `json:"kind"`
	Amount          decimal.Decimal `json:"amount"`
	Date            time.Time       `json:"transaction_date"`
	ServiceCategory ServiceCategory `json:"service_category,omitempty"`
	VATExempt       bool            `json:"vat_exempt"`
	TaxYear         TaxYear         `json:"tax_year"`
	TaxpayerClass   TaxpayerClass   `json:"taxpayer_class"`
	AmendedAt       *time.Time      `json:"amended_at,omitempty"`
}

// Validate checks the rules every stored transaction must satisfy.
func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return invalid("kind", ErrUnknownTransactionKind, string(t.Kind))
	}
	if err := checkAmount("amount", t.Amount, ErrNegativeAmount); err != nil {
		return err
	}
	if !t.TaxpayerClass.Valid() {
		return invalid("taxpayer_class", ErrUnknownTaxpayerClass, string(t.TaxpayerClass))
	}
	if err := t.TaxYear.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return invalid("transaction_date", ErrRequired, "")
	}
	if t.Date.Year() != int(t.TaxYear) {
		return invalidf("transaction_date", ErrUnsupportedTaxYear, "date %s falls outside tax year %d", t.Date.Format(time.DateOnly), int(t.TaxYear))
	}
	if t.ServiceCategory != "" && !t.ServiceCategory.Valid() {
		return invalid("service_category", ErrUnknownServiceCategory, string(t.ServiceCategory))
	}
	return nil
}

// VATStatus is the sign of a VAT settlement.
type VATStatus string

const (
	VATPayable    VATStatus = "payable"
	VATRefundable VATStatus = "refundable"
	VATNone       VATStatus = "none"
)

// VATResult holds output, input and net VAT.
type VATResult struct {
	OutputVAT decimal.Decimal `json:"output_vat"`
	InputVAT  decimal.Decimal `json:"input_vat"`
	NetVAT    decimal.Decimal `json:"net_vat"`
	Status    VATStatus       `json:"status"`
}

// WHTResult holds a withholding computation on the VAT-exclusive base.
type WHTResult struct {
	Category    ServiceCategory `json:"service_category"`
	Class       TaxpayerClass   `json:"taxpayer_class"`
	Rate        decimal.Decimal `json:"rate"`
	DefaultRate bool            `json:"default_rate"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	WHTAmount   decimal.Decimal `json:"wht_amount"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	NetAfterWHT decimal.Decimal `json:"net_after_wht"`
}

// BracketLine is one row of a bracket breakdown.
type BracketLine struct {
	Label           string          `json:"bracket_label"`
	Rate            decimal.Decimal `json:"rate"`
	AmountInBracket decimal.Decimal `json:"amount_in_bracket"`
	TaxForBracket   decimal.Decimal `json:"tax_for_bracket"`
}

// PITResult is a progressive income tax computation.
type PITResult struct {
	GrossIncome   decimal.Decimal `json:"gross_income"`
	Reliefs       decimal.Decimal `json:"reliefs"`
	TaxableIncome decimal.Decimal `json:"taxable_income"`
	Breakdown     []BracketLine   `json:"bracket_breakdown"`
	TotalTax      decimal.Decimal `json:"total_tax"`
}

// CITResult is a company income tax computation.
type CITResult struct {
	Turnover      decimal.Decimal `json:"turnover"`
	GrossIncome   decimal.Decimal `json:"gross_income"`
	TaxableIncome decimal.Decimal `json:"taxable_income"`
	Rate          decimal.Decimal `json:"rate"`
	SmallCompany  bool            `json:"small_company"`
	Breakdown     []BracketLine   `json:"bracket_breakdown"`
	TotalTax      decimal.Decimal `json:"total_tax"`
}
