package tax

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ngtax/ngtax/internal/platform/httpx"
)

func TestComputeVAT(t *testing.T) {
	tables := tables2026(t)
	cases := []struct {
		name     string
		subtotal string
		exempt   bool
		output   string
		status   VATStatus
	}{
		{"standard", "200000", false, "15000", VATPayable},
		{"rounded half up", "333.33", false, "25", VATPayable},
		{"exempt", "1000000", true, "0", VATNone},
		{"zero subtotal", "0", false, "0", VATNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeVAT(d(tc.subtotal), tc.exempt, tables)
			require.NoError(t, err)
			requireDecimal(t, tc.output, got.OutputVAT)
			requireDecimal(t, tc.output, got.NetVAT)
			require.Equal(t, tc.status, got.Status)
		})
	}
}

func TestComputeVATExemptIgnoresSubtotal(t *testing.T) {
	tables := tables2026(t)
	for _, amount := range []string{"0", "0.01", "99999999.99", "25000000"} {
		got, err := ComputeVAT(d(amount), true, tables)
		require.NoError(t, err)
		require.True(t, got.OutputVAT.IsZero())
	}
}

func TestComputeVATRejectsNegativeSubtotal(t *testing.T) {
	_, err := ComputeVAT(d("-1"), false, tables2026(t))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNegativeAmount)
	require.True(t, errors.Is(err, httpx.ErrValidation))

	var taxErr *Error
	require.ErrorAs(t, err, &taxErr)
	require.Equal(t, "subtotal", taxErr.Field)
}

func TestComputeVATMissingRate(t *testing.T) {
	tables := tables2026(t)
	tables.VATRate = d("0")
	_, err := ComputeVAT(d("100"), false, tables)
	require.ErrorIs(t, err, ErrConfiguration)
	require.True(t, IsConfiguration(err))
}

func TestSettleVAT(t *testing.T) {
	payable := SettleVAT(d("15000"), d("4000"))
	requireDecimal(t, "11000", payable.NetVAT)
	require.Equal(t, VATPayable, payable.Status)

	refundable := SettleVAT(d("1000"), d("2500.50"))
	requireDecimal(t, "-1500.5", refundable.NetVAT)
	require.Equal(t, VATRefundable, refundable.Status)

	none := SettleVAT(d("10"), d("10"))
	require.Equal(t, VATNone, none.Status)
}
