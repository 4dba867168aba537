package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gojankovic/fpl-insights/internal/calibration"
	"github.com/gojankovic/fpl-insights/internal/forecast"
	"github.com/gojankovic/fpl-insights/internal/logger"
	"github.com/gojankovic/fpl-insights/internal/tracing"
)

// Calibrator runs one grid search
type Calibrator interface {
	Calibrate(ctx context.Context, req calibration.Request) (*calibration.Result, error)
}

// PeriodSource reports the newest period with observed scores
type PeriodSource interface {
	LatestPeriod(ctx context.Context) (int, error)
}

// JobConfig configures the recurring calibration
type JobConfig struct {
	WindowPeriods int
	SampleSize    int
	Seed          int64
	WriteBack     bool
	Policy        calibration.WriteBackPolicy
	Timeout       time.Duration
	// Tracer wraps each run in a segment; nil disables tracing
	Tracer *tracing.Tracer
}

// CalibrationJob calibrates over a trailing window and optionally writes back
type CalibrationJob struct {
	calibrator Calibrator
	periods    PeriodSource
	store      *forecast.ParamStore
	cfg        JobConfig
	audit      *logger.AuditLogger
	logger     *logrus.Logger

	// runs are serialised; an overlapping tick is skipped
	running sync.Mutex
}

// NewCalibrationJob creates a calibration job
func NewCalibrationJob(c Calibrator, periods PeriodSource, store *forecast.ParamStore, cfg JobConfig, log *logrus.Logger) *CalibrationJob {
	if cfg.WindowPeriods <= 0 {
		cfg.WindowPeriods = 6
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	if cfg.Policy.ChangedBy == "" {
		cfg.Policy.ChangedBy = "scheduler"
	}
	return &CalibrationJob{
		calibrator: c,
		periods:    periods,
		store:      store,
		cfg:        cfg,
		audit:      logger.NewAuditLogger(log),
		logger:     log,
	}
}

// Window returns the trailing [from, to] range ending at latest
func Window(latest, size int) (int, int) {
	from := latest - size + 1
	if from < 1 {
		from = 1
	}
	return from, latest
}

// Run performs one calibration. applied reports whether parameters were written back.
func (j *CalibrationJob) Run(ctx context.Context) (result *calibration.Result, applied bool, err error) {
	if !j.running.TryLock() {
		return nil, false, fmt.Errorf("calibration already running")
	}
	defer j.running.Unlock()

	ctx, cancel := context.WithTimeout(ctx, j.cfg.Timeout)
	defer cancel()

	ctx, finish := j.cfg.Tracer.Start(ctx, "scheduled-calibration")
	defer func() { finish(err) }()

	latest, err := j.periods.LatestPeriod(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("resolve latest period: %w", err)
	}
	if latest < 1 {
		return nil, false, fmt.Errorf("no completed periods to calibrate on")
	}

	from, to := Window(latest, j.cfg.WindowPeriods)
	result, err = j.calibrator.Calibrate(ctx, calibration.Request{
		From:       from,
		To:         to,
		SampleSize: j.cfg.SampleSize,
		Seed:       j.cfg.Seed,
	})
	if err != nil {
		return nil, false, err
	}
	tracing.AddAnnotation(ctx, "run_id", result.RunID.String())
	tracing.AddAnnotation(ctx, "improvement_pct", result.ImprovementPct)

	if !j.cfg.WriteBack {
		j.audit.LogWriteBackSkipped(result.RunID.String(), "write-back disabled", result.ImprovementPct)
		return result, false, nil
	}

	applied, err = calibration.WriteBack(result, j.store, j.cfg.Policy, j.audit)
	return result, applied, err
}

// Name implements Job
func (j *CalibrationJob) Name() string {
	return "calibration"
}

// Execute implements Job
func (j *CalibrationJob) Execute(ctx context.Context) error {
	result, applied, err := j.Run(ctx)
	if err != nil {
		return err
	}
	j.logger.WithFields(logrus.Fields{
		"run_id":          result.RunID.String(),
		"from":            result.From,
		"to":              result.To,
		"improvement_pct": result.ImprovementPct,
		"applied":         applied,
	}).Info("Calibration run finished")
	return nil
}
