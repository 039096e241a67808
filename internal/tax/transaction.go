package tax

import (
	"github.com/shopspring/decimal"
)

// TransactionResult holds the derived figures of a single transaction.
type TransactionResult struct {
	OutputVAT decimal.Decimal `json:"output_vat"`
	InputVAT  decimal.Decimal `json:"input_vat"`
	WHT       *WHTResult      `json:"wht,omitempty"`
	PAYE      decimal.Decimal `json:"paye"`
}

// ComputeTransaction derives VAT, WHT and PAYE for one transaction. tables
// must belong to the transaction's tax year.
func ComputeTransaction(tx Transaction, tables RateTables) (TransactionResult, error) {
	if err := tx.Validate(); err != nil {
		return TransactionResult{}, err
	}
	if tables.TaxYear != tx.TaxYear {
		return TransactionResult{}, misconfigured("tax_year", "rate table "+tables.TaxYear.String()+" used for "+tx.TaxYear.String())
	}
	result := TransactionResult{OutputVAT: decimal.Zero, InputVAT: decimal.Zero, PAYE: decimal.Zero}
	switch tx.Kind {
	case TransactionSalary:
		paye, err := ComputePAYE(tx.Amount, tables.PITBrackets)
		if err != nil {
			return TransactionResult{}, err
		}
		result.PAYE = paye
		return result, nil
	case TransactionInvoice, TransactionExpense:
		vat, err := ComputeVAT(tx.Amount, tx.VATExempt, tables)
		if err != nil {
			return TransactionResult{}, err
		}
		if tx.Kind == TransactionInvoice {
			result.OutputVAT = vat.OutputVAT
		} else {
			result.InputVAT = vat.OutputVAT
		}
		if tx.ServiceCategory != "" {
			wht, err := ComputeWHT(tx.Amount, vat.OutputVAT, tx.ServiceCategory, tx.TaxpayerClass, tables)
			if err != nil {
				return TransactionResult{}, err
			}
			result.WHT = &wht
		}
		return result, nil
	}
	return TransactionResult{}, invalid("kind", ErrUnknownTransactionKind, string(tx.Kind))
}
