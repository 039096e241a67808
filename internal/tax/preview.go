package tax

import (
	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/money"
)

// PreviewInput describes an invoice before it is issued.
type PreviewInput struct {
	Subtotal        decimal.Decimal
	VATExempt       bool
	ServiceCategory ServiceCategory
	PayerClass      TaxpayerClass
}

// Preview is the authoritative VAT-then-WHT breakdown of an invoice.
type Preview struct {
	TaxYear     TaxYear         `json:"tax_year"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	VAT         VATResult       `json:"vat"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	WHT         *WHTResult      `json:"wht,omitempty"`
	NetPayable  decimal.Decimal `json:"net_payable"`
}

// ComputePreview computes VAT first, then WHT on the VAT-exclusive base when a
// service category is given.
func ComputePreview(in PreviewInput, tables RateTables) (Preview, error) {
	vat, err := ComputeVAT(in.Subtotal, in.VATExempt, tables)
	if err != nil {
		return Preview{}, err
	}
	gross := money.Round2(in.Subtotal.Add(vat.OutputVAT))
	out := Preview{
		TaxYear:     tables.TaxYear,
		Subtotal:    money.Round2(in.Subtotal),
		VAT:         vat,
		GrossAmount: gross,
		NetPayable:  gross,
	}
	if in.ServiceCategory == "" {
		return out, nil
	}
	wht, err := ComputeWHT(in.Subtotal, vat.OutputVAT, in.ServiceCategory, in.PayerClass, tables)
	if err != nil {
		return Preview{}, err
	}
	out.WHT = &wht
	out.NetPayable = wht.NetAfterWHT
	return out, nil
}
