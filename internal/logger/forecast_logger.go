// Package logger provides forecast-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// ForecastLogger provides dedicated logging for prediction and simulation.
type ForecastLogger struct {
	*logrus.Entry
}

// NewForecastLogger creates a new forecast logger.
func NewForecastLogger(baseLogger *logrus.Logger) *ForecastLogger {
	return &ForecastLogger{
		Entry: baseLogger.WithField("component", "forecast"),
	}
}

// LogPrediction logs a completed player prediction.
func (fl *ForecastLogger) LogPrediction(playerID, period int, position string, mean, std, expMinutes float64, fixtures int) {
	fl.WithFields(logrus.Fields{
		"player_id":        playerID,
		"period":           period,
		"position":         position,
		"mean":             mean,
		"std":              std,
		"expected_minutes": expMinutes,
		"fixtures":         fixtures,
	}).Debug("Player prediction computed")
}

// LogBlankPeriod logs a prediction short-circuited by a blank period.
func (fl *ForecastLogger) LogBlankPeriod(playerID, period int) {
	fl.WithFields(logrus.Fields{
		"player_id": playerID,
		"period":    period,
	}).Debug("Blank period, returning zero prediction")
}

// LogSimulation logs a completed team simulation.
func (fl *ForecastLogger) LogSimulation(period, players, samples int, expected, p90 float64, durationMs float64) {
	fl.WithFields(logrus.Fields{
		"period":      period,
		"players":     players,
		"samples":     samples,
		"expected":    expected,
		"p90":         p90,
		"duration_ms": durationMs,
	}).Info("Team simulation completed")
}

// LogRanking logs a completed ranking over a period range.
func (fl *ForecastLogger) LogRanking(from, to, pool, returned int, durationMs float64) {
	fl.WithFields(logrus.Fields{
		"period_from": from,
		"period_to":   to,
		"pool":        pool,
		"returned":    returned,
		"duration_ms": durationMs,
	}).Info("Players ranked")
}
