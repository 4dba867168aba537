// Package metrics defines calibration and backtest metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Calibration counter vectors
var (
	CalibrationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calibration_runs_total",
		Help:      "Total number of calibration runs by trigger and status",
	}, []string{"trigger", "status"})
)

// Calibration histograms
var (
	CalibrationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "calibration_duration_seconds",
		Help:      "Duration of calibration runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// Calibration gauges
var (
	CalibrationBestMAE = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "calibration_best_mae",
		Help:      "Mean absolute error of the best grid cell in the last run",
	})
	CalibrationBaselineMAE = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "calibration_baseline_mae",
		Help:      "Mean absolute error of the default parameters in the last run",
	})
	BacktestMAE = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backtest_mae",
		Help:      "Mean absolute error of the last backtest by position",
	}, []string{"position"})
)

// RecordCalibrationRun records a calibration run.
// trigger should be one of: "cli", "scheduler"
// status should be one of: "success", "failure"
func RecordCalibrationRun(trigger, status string, durationSeconds float64) {
	CalibrationRunsTotal.WithLabelValues(trigger, status).Inc()
	CalibrationDuration.Observe(durationSeconds)
}

// UpdateCalibrationErrors sets the baseline and best error gauges.
func UpdateCalibrationErrors(baseline, best float64) {
	CalibrationBaselineMAE.Set(baseline)
	CalibrationBestMAE.Set(best)
}

// UpdateBacktestMAE sets the backtest error for a position ("ALL" for overall).
func UpdateBacktestMAE(position string, mae float64) {
	BacktestMAE.WithLabelValues(position).Set(mae)
}
