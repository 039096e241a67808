package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ngtax/ngtax/internal/filing"
	"github.com/ngtax/ngtax/internal/tax"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int {
	return &v
}

func tables(t *testing.T) tax.RateTables {
	t.Helper()
	tables, err := tax.StatutorySource{}.Fetch(context.Background(), 2026)
	require.NoError(t, err)
	return tables
}

func summary(netVAT, whtRemitted, paye string) filing.PeriodSummary {
	s := filing.PeriodSummary{
		EntityID:         uuid.New(),
		TaxYear:          2026,
		Month:            intPtr(3),
		NetVAT:           d(netVAT),
		VATStatus:        tax.VATNone,
		TotalWHTRemitted: d(whtRemitted),
		TotalPAYE:        d(paye),
	}
	if s.NetVAT.IsPositive() {
		s.VATStatus = tax.VATPayable
	}
	return s
}

func alertTypes(alerts []Alert) []AlertType {
	out := make([]AlertType, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Type)
	}
	return out
}

func TestScoreCleanEntity(t *testing.T) {
	result := NewScorer(tables(t)).Score(summary("0", "0", "0"), Filings{TIN: "123", AnnualTurnover: d("1000")})
	require.Equal(t, 100, result.Score)
	require.Empty(t, result.Alerts)
}

func TestScoreEveryCheckFails(t *testing.T) {
	due := time.Date(2026, 4, 21, 0, 0, 0, 0, time.UTC)
	result := NewScorer(tables(t)).Score(summary("7500", "2000", "27500"), Filings{
		AnnualTurnover: d("25000000.01"),
		Records: []filing.Filing{
			{TaxType: filing.TaxTypeWHT, Amount: d("500"), DueAt: due, FiledAt: due.Add(24 * time.Hour)},
		},
	})
	require.Equal(t, 0, result.Score)
	require.Equal(t, []AlertType{
		AlertMissingTIN,
		AlertVATRegistrationRequired,
		AlertVATReturnMissing,
		AlertWHTUnremitted,
		AlertPAYEUnremitted,
		AlertLateFiling,
	}, alertTypes(result.Alerts))
	require.Equal(t, SeverityMedium, result.Alerts[2].Severity)
	require.Equal(t, SeverityLow, result.Alerts[5].Severity)
	require.Contains(t, result.Alerts[3].Message, "₦2,000")
}

func TestScoreWeights(t *testing.T) {
	scorer := NewScorer(tables(t))
	cases := []struct {
		name    string
		summary filing.PeriodSummary
		filings Filings
		score   int
		alert   AlertType
	}{
		{"missing tin", summary("0", "0", "0"), Filings{TIN: "  "}, 75, AlertMissingTIN},
		{"unregistered above threshold", summary("0", "0", "0"), Filings{TIN: "1", AnnualTurnover: d("30000000")}, 80, AlertVATRegistrationRequired},
		{"vat return missing", summary("10", "0", "0"), Filings{TIN: "1"}, 85, AlertVATReturnMissing},
		{"paye short", summary("0", "0", "100"), Filings{TIN: "1", Records: []filing.Filing{{TaxType: filing.TaxTypePAYE, Amount: d("99.99")}}}, 85, AlertPAYEUnremitted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := scorer.Score(tc.summary, tc.filings)
			require.Equal(t, tc.score, result.Score)
			require.Equal(t, []AlertType{tc.alert}, alertTypes(result.Alerts))
		})
	}
}

func TestScoreThresholdIsExclusive(t *testing.T) {
	result := NewScorer(tables(t)).Score(summary("0", "0", "0"), Filings{TIN: "1", AnnualTurnover: d("25000000")})
	require.Equal(t, 100, result.Score)

	registered := NewScorer(tables(t)).Score(summary("0", "0", "0"), Filings{TIN: "1", VATRegistered: true, AnnualTurnover: d("90000000")})
	require.Equal(t, 100, registered.Score)
}

func TestScoreVATReturnFiled(t *testing.T) {
	result := NewScorer(tables(t)).Score(summary("7500", "0", "0"), Filings{
		TIN:     "1",
		Records: []filing.Filing{{TaxType: filing.TaxTypeVAT, Amount: d("7500")}},
	})
	require.Equal(t, 100, result.Score)
}
