package models

import (
	"encoding/json"
	"math"
)

// PredictionResult is the expected-points model output for one player and period
type PredictionResult struct {
	PlayerID int      `json:"player_id"`
	Period   int      `json:"period"`
	Position Position `json:"position"`
	Mean     float64  `json:"mean"`
	Std      float64  `json:"std"`
	Blank    bool     `json:"blank"`
}

// IsZero reports whether the result is the blank-period (0,0) pair
func (p PredictionResult) IsZero() bool {
	return p.Mean == 0 && p.Std == 0
}

// ToJSON exports the prediction to JSON
func (p PredictionResult) ToJSON() string {
	data, _ := json.Marshal(p)
	return string(data)
}

// AbsError returns the absolute error against an observed score
func (p PredictionResult) AbsError(actual float64) float64 {
	return math.Abs(p.Mean - actual)
}
