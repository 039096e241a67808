package tax

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func tables2026(t *testing.T) RateTables {
	t.Helper()
	tables, err := StatutorySource{}.Fetch(context.Background(), 2026)
	require.NoError(t, err)
	require.NoError(t, tables.Validate())
	return tables
}
