package tax

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestComputePreviewCompanyProfessionalServices(t *testing.T) {
	got, err := ComputePreview(PreviewInput{
		Subtotal:        d("200000"),
		ServiceCategory: CategoryProfessionalServices,
		PayerClass:      ClassCompany,
	}, tables2026(t))
	require.NoError(t, err)

	requireDecimal(t, "15000", got.VAT.OutputVAT)
	requireDecimal(t, "215000", got.GrossAmount)
	require.NotNil(t, got.WHT)
	requireDecimal(t, "10", got.WHT.Rate)
	requireDecimal(t, "200000", got.WHT.BaseAmount)
	requireDecimal(t, "20000", got.WHT.WHTAmount)
	requireDecimal(t, "195000", got.NetPayable)
}

func TestComputePreviewWithoutCategory(t *testing.T) {
	got, err := ComputePreview(PreviewInput{Subtotal: d("1000"), VATExempt: true, PayerClass: ClassIndividual}, tables2026(t))
	require.NoError(t, err)
	require.Nil(t, got.WHT)
	requireDecimal(t, "1000", got.NetPayable)
}

func TestComputeTransaction(t *testing.T) {
	tables := tables2026(t)
	base := Transaction{
		ID:            uuid.New(),
		EntityID:      uuid.New(),
		Amount:        d("200000"),
		Date:          time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		TaxYear:       2026,
		TaxpayerClass: ClassCompany,
	}

	invoice := base
	invoice.Kind = TransactionInvoice
	invoice.ServiceCategory = CategoryProfessionalServices
	got, err := ComputeTransaction(invoice, tables)
	require.NoError(t, err)
	requireDecimal(t, "15000", got.OutputVAT)
	require.True(t, got.InputVAT.IsZero())
	require.NotNil(t, got.WHT)
	requireDecimal(t, "20000", got.WHT.WHTAmount)

	expense := base
	expense.Kind = TransactionExpense
	got, err = ComputeTransaction(expense, tables)
	require.NoError(t, err)
	requireDecimal(t, "15000", got.InputVAT)
	require.Nil(t, got.WHT)

	salary := base
	salary.Kind = TransactionSalary
	salary.Amount = d("250000")
	got, err = ComputeTransaction(salary, tables)
	require.NoError(t, err)
	requireDecimal(t, "27500", got.PAYE)
	require.True(t, got.OutputVAT.IsZero())
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Kind:          TransactionInvoice,
		Amount:        d("10"),
		Date:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		TaxYear:       2026,
		TaxpayerClass: ClassIndividual,
	}
	require.NoError(t, valid.Validate())

	cases := map[string]struct {
		mutate func(*Transaction)
		field  string
		err    error
	}{
		"kind":     {func(tx *Transaction) { tx.Kind = "refund" }, "kind", ErrUnknownTransactionKind},
		"amount":   {func(tx *Transaction) { tx.Amount = d("-1") }, "amount", ErrNegativeAmount},
		"kobo":     {func(tx *Transaction) { tx.Amount = d("100.005") }, "amount", ErrAmountPrecision},
		"class":    {func(tx *Transaction) { tx.TaxpayerClass = "" }, "taxpayer_class", ErrUnknownTaxpayerClass},
		"year":     {func(tx *Transaction) { tx.TaxYear = 2025 }, "tax_year", ErrUnsupportedTaxYear},
		"date":     {func(tx *Transaction) { tx.Date = time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC) }, "transaction_date", ErrUnsupportedTaxYear},
		"category": {func(tx *Transaction) { tx.ServiceCategory = "catering" }, "service_category", ErrUnknownServiceCategory},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			tx := valid
			tc.mutate(&tx)
			err := tx.Validate()
			require.ErrorIs(t, err, tc.err)
			var taxErr *Error
			require.ErrorAs(t, err, &taxErr)
			require.Equal(t, tc.field, taxErr.Field)
		})
	}
}
