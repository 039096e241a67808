package tax

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeCITSmallCompanyBoundary(t *testing.T) {
	tables := tables2026(t)

	exempt, err := ComputeCIT(d("50000000"), d("20000000"), tables)
	require.NoError(t, err)
	require.True(t, exempt.SmallCompany)
	require.True(t, exempt.Rate.IsZero())
	require.True(t, exempt.TotalTax.IsZero())

	taxed, err := ComputeCIT(d("50000001"), d("20000000"), tables)
	require.NoError(t, err)
	require.False(t, taxed.SmallCompany)
	requireDecimal(t, "30", taxed.Rate)
	requireDecimal(t, "6000000", taxed.TotalTax)
	require.Len(t, taxed.Breakdown, 1)
	require.Equal(t, "Large company (turnover above ₦50,000,000)", taxed.Breakdown[0].Label)
}

func TestComputeCITExemptionKeyedOnTurnover(t *testing.T) {
	got, err := ComputeCIT(d("49000000"), d("45000000"), tables2026(t))
	require.NoError(t, err)
	require.True(t, got.TotalTax.IsZero())
}

func TestComputeCITRejectsNegativeInputs(t *testing.T) {
	tables := tables2026(t)
	var taxErr *Error

	_, err := ComputeCIT(d("-1"), d("0"), tables)
	require.ErrorAs(t, err, &taxErr)
	require.Equal(t, "turnover", taxErr.Field)

	_, err = ComputeCIT(d("60000000"), d("-5"), tables)
	require.ErrorAs(t, err, &taxErr)
	require.Equal(t, "taxable_profit", taxErr.Field)
	require.True(t, IsValidation(err))
}
