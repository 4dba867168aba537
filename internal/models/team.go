package models

import (
	"encoding/json"
	"fmt"
)

// TeamComposition represents a roster configuration for one simulated period
type TeamComposition struct {
	Starting      []int `json:"starting" validate:"required,min=1"`
	Bench         []int `json:"bench"`
	CaptainID     *int  `json:"captain_id,omitempty"`
	ViceCaptainID *int  `json:"vice_captain_id,omitempty"`
	TripleCaptain bool  `json:"triple_captain"`
	BenchBoost    bool  `json:"bench_boost"`
}

// Contributors returns every player whose score counts toward the team total,
// the starting XI followed by the bench only under bench boost
func (t TeamComposition) Contributors() []int {
	out := make([]int, 0, len(t.Starting)+len(t.Bench))
	out = append(out, t.Starting...)
	if t.BenchBoost {
		out = append(out, t.Bench...)
	}
	return out
}

// CaptainMultiplier returns 3 under triple captain, otherwise 2
func (t TeamComposition) CaptainMultiplier() float64 {
	if t.TripleCaptain {
		return 3
	}
	return 2
}

// Validate checks the roster for empty or duplicated ids
func (t TeamComposition) Validate() error {
	if len(t.Starting) == 0 {
		return NewValidationError("starting", "at least one starting player is required", ErrInvalidRoster)
	}
	seen := make(map[int]bool, len(t.Starting)+len(t.Bench))
	for _, id := range append(append([]int{}, t.Starting...), t.Bench...) {
		if id <= 0 {
			return NewValidationError("player_id", fmt.Sprintf("invalid player id %d", id), ErrInvalidRoster)
		}
		if seen[id] {
			return NewValidationError("player_id", fmt.Sprintf("player %d listed twice", id), ErrInvalidRoster)
		}
		seen[id] = true
	}
	return nil
}

// SimulationOutcome represents the Monte Carlo distribution of a team total
type SimulationOutcome struct {
	Samples  []float64 `json:"samples,omitempty"`
	Expected float64   `json:"expected"`
	Median   float64   `json:"median"`
	P25      float64   `json:"p25"`
	P75      float64   `json:"p75"`
	P90      float64   `json:"p90"`
}

// Summary returns the summary statistics without the raw samples
func (s SimulationOutcome) Summary() map[string]float64 {
	return map[string]float64{
		"expected": s.Expected,
		"median":   s.Median,
		"p25":      s.P25,
		"p75":      s.P75,
		"p90":      s.P90,
	}
}

// ToJSON exports the outcome to JSON
func (s SimulationOutcome) ToJSON() string {
	data, _ := json.Marshal(s)
	return string(data)
}
