package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestComputePITZeroBand(t *testing.T) {
	brackets := tables2026(t).PITBrackets

	atBound, err := ComputePIT(d("800000"), brackets)
	require.NoError(t, err)
	require.True(t, atBound.TotalTax.IsZero())
	require.Len(t, atBound.Breakdown, 1)
	require.Equal(t, "First ₦800,000", atBound.Breakdown[0].Label)

	above, err := ComputePIT(d("800001"), brackets)
	require.NoError(t, err)
	require.True(t, above.TotalTax.IsPositive())
	require.Len(t, above.Breakdown, 2)
	require.Equal(t, "Next ₦2,200,000", above.Breakdown[1].Label)
	requireDecimal(t, "1", above.Breakdown[1].AmountInBracket)
}

func TestComputePITFullBreakdown(t *testing.T) {
	got, err := ComputePIT(d("60000000"), tables2026(t).PITBrackets)
	require.NoError(t, err)
	require.Len(t, got.Breakdown, 6)

	// 330,000 + 1,620,000 + 2,730,000 + 5,750,000 + 2,500,000
	requireDecimal(t, "12930000", got.TotalTax)
	require.Equal(t, "Above ₦50,000,000", got.Breakdown[5].Label)
	requireDecimal(t, "10000000", got.Breakdown[5].AmountInBracket)

	sum := decimal.Zero
	for _, line := range got.Breakdown {
		sum = sum.Add(line.TaxForBracket)
	}
	require.True(t, sum.Equal(got.TotalTax))
}

func TestComputePITMonotonic(t *testing.T) {
	brackets := tables2026(t).PITBrackets
	prev := decimal.Zero
	for income := int64(0); income <= 70_000_000; income += 250_000 {
		got, err := ComputePIT(decimal.NewFromInt(income), brackets)
		require.NoError(t, err)
		require.Truef(t, got.TotalTax.GreaterThanOrEqual(prev), "income %d", income)
		prev = got.TotalTax
	}
}

func TestComputePITDeterministic(t *testing.T) {
	brackets := tables2026(t).PITBrackets
	first, err := ComputePIT(d("4567890.12"), brackets)
	require.NoError(t, err)
	second, err := ComputePIT(d("4567890.12"), brackets)
	require.NoError(t, err)
	require.Equal(t, first.TotalTax.String(), second.TotalTax.String())
	require.Equal(t, len(first.Breakdown), len(second.Breakdown))
}

func TestComputePITRejectsNegativeIncome(t *testing.T) {
	_, err := ComputePIT(d("-0.01"), tables2026(t).PITBrackets)
	require.ErrorIs(t, err, ErrInvalidIncome)
	require.True(t, IsValidation(err))
}

func TestComputePITMalformedBrackets(t *testing.T) {
	cases := map[string][]Bracket{
		"empty":           nil,
		"bounded last":    {{UpperBound: bound(100), Rate: pct(0)}},
		"not ascending":   {{UpperBound: bound(100), Rate: pct(0)}, {UpperBound: bound(50), Rate: pct(10)}, {Rate: pct(20)}},
		"negative rate":   {{UpperBound: bound(100), Rate: pct(-1)}, {Rate: pct(20)}},
		"unbounded early": {{Rate: pct(0)}, {Rate: pct(20)}},
	}
	for name, brackets := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ComputePIT(d("1000"), brackets)
			require.ErrorIs(t, err, ErrConfiguration)
			require.True(t, IsConfiguration(err))
		})
	}
}

func TestTaxableIncomeRentReliefCap(t *testing.T) {
	tables := tables2026(t)

	small, err := TaxableIncome(d("5000000"), Reliefs{RentPaid: d("1000000")}, tables)
	require.NoError(t, err)
	requireDecimal(t, "4800000", small)

	capped, err := TaxableIncome(d("5000000"), Reliefs{RentPaid: d("6000000")}, tables)
	require.NoError(t, err)
	requireDecimal(t, "4500000", capped)

	floored, err := TaxableIncome(d("100000"), Reliefs{Pension: d("80000"), NHF: d("50000")}, tables)
	require.NoError(t, err)
	require.True(t, floored.IsZero())

	_, err = TaxableIncome(d("100000"), Reliefs{NHIS: d("-1")}, tables)
	require.ErrorIs(t, err, ErrNegativeAmount)
	var taxErr *Error
	require.ErrorAs(t, err, &taxErr)
	require.Equal(t, "nhis", taxErr.Field)
}

func TestComputeAnnualPIT(t *testing.T) {
	got, err := ComputeAnnualPIT(d("3800000"), Reliefs{Pension: d("304000"), RentPaid: d("1200000")}, tables2026(t))
	require.NoError(t, err)
	requireDecimal(t, "3800000", got.GrossIncome)
	requireDecimal(t, "544000", got.Reliefs)
	requireDecimal(t, "3256000", got.TaxableIncome)
	// 2,200,000 * 15% + 256,000 * 18%
	requireDecimal(t, "376080", got.TotalTax)
}

func TestComputePAYE(t *testing.T) {
	brackets := tables2026(t).PITBrackets

	low, err := ComputePAYE(d("50000"), brackets)
	require.NoError(t, err)
	require.True(t, low.IsZero())

	// annual 3,000,000 => 330,000 tax => 27,500 a month
	got, err := ComputePAYE(d("250000"), brackets)
	require.NoError(t, err)
	requireDecimal(t, "27500", got)
}

func TestEngineRejectsSubKoboInputs(t *testing.T) {
	tables := tables2026(t)
	cases := map[string]struct {
		run   func() error
		field string
	}{
		"vat subtotal":   {func() error { _, err := ComputeVAT(d("10.001"), false, tables); return err }, "subtotal"},
		"taxable income": {func() error { _, err := ComputePIT(d("900000.123"), tables.PITBrackets); return err }, "taxable_income"},
		"relief":         {func() error { _, err := TaxableIncome(d("100000"), Reliefs{Pension: d("1.111")}, tables); return err }, "pension"},
		"paye":           {func() error { _, err := ComputePAYE(d("50000.001"), tables.PITBrackets); return err }, "amount"},
		"turnover":       {func() error { _, err := ComputeCIT(d("1.001"), d("0"), tables); return err }, "turnover"},
		"profit":         {func() error { _, err := ComputeCIT(d("1"), d("0.999"), tables); return err }, "taxable_profit"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.run()
			require.ErrorIs(t, err, ErrAmountPrecision)
			require.True(t, IsValidation(err))
			var taxErr *Error
			require.ErrorAs(t, err, &taxErr)
			require.Equal(t, tc.field, taxErr.Field)
		})
	}
}

func TestComputeRentRelief(t *testing.T) {
	tables := tables2026(t)
	require.True(t, ComputeRentRelief(d("0"), tables).IsZero())
	requireDecimal(t, "200000", ComputeRentRelief(d("1000000"), tables))
	requireDecimal(t, "500000", ComputeRentRelief(d("6000000"), tables))
}
