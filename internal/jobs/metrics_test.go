package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("compliance:scan").End(nil))
	failure := errors.New("boom")
	require.ErrorIs(t, m.Track("compliance:scan").End(failure), failure)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("compliance:scan", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("compliance:scan", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("compliance:scan")))
}

func TestAlertAndDocumentCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddAlerts("missing_tin", "high", 2)
	m.AddAlerts("missing_tin", "high", 0)
	m.DocumentRendered("pit")

	require.Equal(t, 2.0, testutil.ToFloat64(m.alerts.WithLabelValues("missing_tin", "high")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues("pit")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddAlerts("late_filing", "low", 1)
	m.DocumentRendered("cit")
	require.NoError(t, m.Track("x").End(nil))
}
