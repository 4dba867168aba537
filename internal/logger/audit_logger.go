// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging for parameter changes.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogParameterWriteBack logs calibrated parameters being persisted.
func (al *AuditLogger) LogParameterWriteBack(runID, path string, changed map[string]float64, improvementPct float64, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"run_id":          runID,
		"path":            path,
		"changed":         changed,
		"improvement_pct": improvementPct,
		"timestamp":       timestamp.Unix(),
	}).Info("Model parameters written back")
}

// LogParameterReplace logs the default parameter snapshot being swapped.
func (al *AuditLogger) LogParameterReplace(version int, changedBy string) {
	al.WithFields(logrus.Fields{
		"version":    version,
		"changed_by": changedBy,
	}).Info("Default parameter set replaced")
}

// LogWriteBackSkipped logs a calibration result that was not applied.
func (al *AuditLogger) LogWriteBackSkipped(runID, reason string, improvementPct float64) {
	al.WithFields(logrus.Fields{
		"run_id":          runID,
		"reason":          reason,
		"improvement_pct": improvementPct,
	}).Info("Parameter write-back skipped")
}
