// Package metrics provides the centralized Prometheus metrics registry.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fpl_insights"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Total number of player predictions by position",
	}, []string{"position"})
	BlankPeriodsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blank_periods_total",
		Help:      "Total number of predictions short-circuited by a blank period",
	})
	PredictionErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prediction_errors_total",
		Help:      "Total number of failed predictions by reason",
	}, []string{"reason"})
	SimulationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulations_total",
		Help:      "Total number of team simulations",
	})
	SimulationSamplesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulation_samples_total",
		Help:      "Total number of Monte Carlo trials drawn",
	})
)

// Histogram metrics
var (
	PredictionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "prediction_latency_seconds",
		Help:      "Latency of single player predictions in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
	SimulationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "simulation_duration_seconds",
		Help:      "Duration of team simulations in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// Gauge metrics
var (
	ParameterVersion = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "parameter_version",
		Help:      "Number of times the default parameter set has been replaced",
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(BlankPeriodsTotal)
		registry.MustRegister(PredictionErrorsTotal)
		registry.MustRegister(SimulationsTotal)
		registry.MustRegister(SimulationSamplesTotal)

		registry.MustRegister(PredictionLatency)
		registry.MustRegister(SimulationDuration)

		registry.MustRegister(ParameterVersion)

		// calibration metrics
		registry.MustRegister(CalibrationRunsTotal)
		registry.MustRegister(CalibrationDuration)
		registry.MustRegister(CalibrationBestMAE)
		registry.MustRegister(CalibrationBaselineMAE)
		registry.MustRegister(BacktestMAE)

		// provider metrics
		registry.MustRegister(ProviderCacheRequestsTotal)
		registry.MustRegister(ProviderRequestDuration)

		// scheduler metrics
		registry.MustRegister(ScheduledJobRunsTotal)
		registry.MustRegister(ScheduledJobDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPrediction records a completed prediction.
func RecordPrediction(position string, blank bool, durationSeconds float64) {
	PredictionsTotal.WithLabelValues(position).Inc()
	if blank {
		BlankPeriodsTotal.Inc()
	}
	PredictionLatency.Observe(durationSeconds)
}

// RecordPredictionError records a failed prediction.
func RecordPredictionError(reason string) {
	PredictionErrorsTotal.WithLabelValues(reason).Inc()
}

// RecordSimulation records a completed team simulation.
func RecordSimulation(samples int, durationSeconds float64) {
	SimulationsTotal.Inc()
	SimulationSamplesTotal.Add(float64(samples))
	SimulationDuration.Observe(durationSeconds)
}

// UpdateParameterVersion sets the parameter version gauge.
func UpdateParameterVersion(version int) {
	ParameterVersion.Set(float64(version))
}
