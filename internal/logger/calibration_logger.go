// Package logger provides calibration-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// CalibrationLogger provides dedicated logging for calibration and backtests.
type CalibrationLogger struct {
	*logrus.Entry
}

// NewCalibrationLogger creates a new calibration logger.
func NewCalibrationLogger(baseLogger *logrus.Logger) *CalibrationLogger {
	return &CalibrationLogger{
		Entry: baseLogger.WithField("component", "calibration"),
	}
}

// LogCalibrationStart logs the start of a calibration run.
func (cl *CalibrationLogger) LogCalibrationStart(runID string, from, to, rows, cells int) {
	cl.WithFields(logrus.Fields{
		"run_id":      runID,
		"period_from": from,
		"period_to":   to,
		"rows":        rows,
		"grid_cells":  cells,
	}).Info("Calibration started")
}

// LogCellEvaluated logs one evaluated grid cell.
func (cl *CalibrationLogger) LogCellEvaluated(runID string, index int, mae float64, overrides map[string]float64) {
	cl.WithFields(logrus.Fields{
		"run_id":    runID,
		"cell":      index,
		"mae":       mae,
		"overrides": overrides,
	}).Debug("Grid cell evaluated")
}

// LogCalibrationComplete logs the outcome of a calibration run.
func (cl *CalibrationLogger) LogCalibrationComplete(runID string, baseline, best, improvementPct float64, durationMs float64) {
	cl.WithFields(logrus.Fields{
		"run_id":          runID,
		"baseline_mae":    baseline,
		"best_mae":        best,
		"improvement_pct": improvementPct,
		"duration_ms":     durationMs,
	}).Info("Calibration completed")
}

// LogBacktestComplete logs backtest summary errors.
func (cl *CalibrationLogger) LogBacktestComplete(from, to, rows int, mae, rmse, bias float64) {
	cl.WithFields(logrus.Fields{
		"period_from": from,
		"period_to":   to,
		"rows":        rows,
		"mae":         mae,
		"rmse":        rmse,
		"bias":        bias,
	}).Info("Backtest completed")
}
