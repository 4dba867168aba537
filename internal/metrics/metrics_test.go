package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valueOf(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.GetCounter().GetValue()
	}
	return out.GetGauge().GetValue()
}

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func TestRecordPrediction(t *testing.T) {
	InitRegistry()

	before := valueOf(t, PredictionsTotal.WithLabelValues("MID"))
	blanksBefore := valueOf(t, BlankPeriodsTotal)

	RecordPrediction("MID", false, 0.001)
	RecordPrediction("MID", true, 0.001)

	assert.Equal(t, before+2, valueOf(t, PredictionsTotal.WithLabelValues("MID")))
	assert.Equal(t, blanksBefore+1, valueOf(t, BlankPeriodsTotal))
}

func TestRecordSimulation(t *testing.T) {
	InitRegistry()

	before := valueOf(t, SimulationSamplesTotal)
	RecordSimulation(1000, 0.02)
	assert.Equal(t, before+1000, valueOf(t, SimulationSamplesTotal))
}

func TestCalibrationMetrics(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name    string
		trigger string
		status  string
	}{
		{name: "cli success", trigger: "cli", status: "success"},
		{name: "scheduled failure", trigger: "scheduler", status: "failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordCalibrationRun(tt.trigger, tt.status, 1.5)
			})
		})
	}

	UpdateCalibrationErrors(2.1, 1.9)
	assert.Equal(t, 2.1, valueOf(t, CalibrationBaselineMAE))
	assert.Equal(t, 1.9, valueOf(t, CalibrationBestMAE))
}

func TestProviderCacheMetrics(t *testing.T) {
	InitRegistry()

	hits := valueOf(t, ProviderCacheRequestsTotal.WithLabelValues("history", "hit"))
	RecordCacheHit("history")
	RecordCacheMiss("history")
	assert.Equal(t, hits+1, valueOf(t, ProviderCacheRequestsTotal.WithLabelValues("history", "hit")))
}

func TestRecordScheduledJob(t *testing.T) {
	InitRegistry()

	ok := valueOf(t, ScheduledJobRunsTotal.WithLabelValues("sync", "success"))
	failed := valueOf(t, ScheduledJobRunsTotal.WithLabelValues("sync", "error"))
	RecordScheduledJob("sync", "success", 1.5)
	RecordScheduledJob("sync", "error", 0.2)
	RecordScheduledJob("sync", "success", 0.7)

	assert.Equal(t, ok+2, valueOf(t, ScheduledJobRunsTotal.WithLabelValues("sync", "success")))
	assert.Equal(t, failed+1, valueOf(t, ScheduledJobRunsTotal.WithLabelValues("sync", "error")))
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()
	RecordPrediction("FWD", false, 0.002)

	handler := Handler()
	require.NotNil(t, handler)
	assert.Implements(t, (*http.Handler)(nil), handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "fpl_insights_predictions_total"))
}

func BenchmarkRecordPrediction(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordPrediction("MID", false, 0.001)
	}
}
