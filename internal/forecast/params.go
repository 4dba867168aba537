// Package forecast implements the expected-points model.
package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gojankovic/fpl-insights/internal/models"
)

// Parameters holds every coefficient of the expected-points model.
// Values are flat so the whole set round-trips through a name -> float map.
type Parameters struct {
	// history windows
	HistoryRecentN float64 `json:"history_recent_n"`
	HistoryLongN   float64 `json:"history_long_n"`

	// baseline blend
	RecentDecay float64 `json:"recent_decay"`
	WSeason     float64 `json:"w_season"`
	WRecent     float64 `json:"w_recent"`
	WAnchor     float64 `json:"w_anchor"`
	ShrinkK     float64 `json:"shrink_k"`

	// attacking output
	XGIWeightGK  float64 `json:"xgi_weight_gk"`
	XGIWeightDEF float64 `json:"xgi_weight_def"`
	XGIWeightMID float64 `json:"xgi_weight_mid"`
	XGIWeightFWD float64 `json:"xgi_weight_fwd"`
	XGITrustN    float64 `json:"xgi_trust_n"`

	// fixtures
	FixtureWGK       float64 `json:"fixture_w_gk"`
	FixtureWDEF      float64 `json:"fixture_w_def"`
	FixtureWMID      float64 `json:"fixture_w_mid"`
	FixtureWFWD      float64 `json:"fixture_w_fwd"`
	DGWMinutesFactor float64 `json:"dgw_minutes_factor"`
	RoleFloor        float64 `json:"role_floor"`
	RoleXGIRef       float64 `json:"role_xgi_ref"`
	RoleCap          float64 `json:"role_cap"`

	// uncertainty
	StdFloor        float64 `json:"std_floor"`
	StdFallbackMult float64 `json:"std_fallback_mult"`

	// expected minutes
	MinutesFallbackStarter  float64 `json:"minutes_fallback_starter"`
	MinutesFallbackOther    float64 `json:"minutes_fallback_other"`
	MinutesStarterStarts    float64 `json:"minutes_starter_starts"`
	StarterFloorMinutes     float64 `json:"starter_floor_minutes"`
	StarterFloorStarts      float64 `json:"starter_floor_starts"`
	StarterFloorChance      float64 `json:"starter_floor_chance"`
	StarterFloorGameMinutes float64 `json:"starter_floor_game_minutes"`
	StarterFloorGames       float64 `json:"starter_floor_games"`
	StartRateFloor          float64 `json:"start_rate_floor"`
	StartRateCap            float64 `json:"start_rate_cap"`

	// ceiling uplift (MID/FWD)
	CeilingMax       float64 `json:"ceiling_max"`
	CeilingXGIFloor  float64 `json:"ceiling_xgi_floor"`
	CeilingXGIRef    float64 `json:"ceiling_xgi_ref"`
	CeilingPPGFloor  float64 `json:"ceiling_ppg_floor"`
	CeilingPPGRef    float64 `json:"ceiling_ppg_ref"`
	CeilingTrustN    float64 `json:"ceiling_trust_n"`
	CeilingStartsRef float64 `json:"ceiling_starts_ref"`

	// creator uplift (MID)
	CreatorMax             float64 `json:"creator_max"`
	CreatorXAFloor         float64 `json:"creator_xa_floor"`
	CreatorXARef           float64 `json:"creator_xa_ref"`
	CreatorCreativityFloor float64 `json:"creator_creativity_floor"`
	CreatorCreativityRef   float64 `json:"creator_creativity_ref"`
	CreatorMinStarts       float64 `json:"creator_min_starts"`

	// market signals
	MarketTransferScale  float64 `json:"market_transfer_scale"`
	MarketTransferCap    float64 `json:"market_transfer_cap"`
	MarketSelectionScale float64 `json:"market_selection_scale"`
	MarketSelectionCap   float64 `json:"market_selection_cap"`
	MarketValueScale     float64 `json:"market_value_scale"`
	MarketValueCap       float64 `json:"market_value_cap"`

	// forward-looking blend
	ForwardBlendWeight float64 `json:"forward_blend_weight"`
}

// Fixed per-position tables. Not calibrated.
var (
	positionPriors  = models.PerPosition{3.4, 3.8, 4.9, 5.2}
	positionStdMult = models.PerPosition{0.75, 0.85, 1.0, 1.1}
)

// PositionPrior returns the fixed prior scoring rate for a position
func PositionPrior(p models.Position) float64 {
	return positionPriors.Get(p)
}

// DefaultParameters returns the hard-coded model defaults
func DefaultParameters() *Parameters {
	return &Parameters{
		HistoryRecentN: 6,
		HistoryLongN:   60,

		RecentDecay: 0.83,
		WSeason:     0.55,
		WRecent:     0.30,
		WAnchor:     0.15,
		ShrinkK:     10,

		XGIWeightGK:  0.00,
		XGIWeightDEF: 0.02,
		XGIWeightMID: 0.05,
		XGIWeightFWD: 0.08,
		XGITrustN:    8,

		FixtureWGK:       0.12,
		FixtureWDEF:      0.16,
		FixtureWMID:      0.20,
		FixtureWFWD:      0.24,
		DGWMinutesFactor: 0.82,
		RoleFloor:        0.60,
		RoleXGIRef:       0.45,
		RoleCap:          1.0,

		StdFloor:        0.50,
		StdFallbackMult: 0.35,

		MinutesFallbackStarter:  80,
		MinutesFallbackOther:    60,
		MinutesStarterStarts:    3,
		StarterFloorMinutes:     75,
		StarterFloorStarts:      10,
		StarterFloorChance:      75,
		StarterFloorGameMinutes: 70,
		StarterFloorGames:       3,
		StartRateFloor:          0.70,
		StartRateCap:            1.0,

		CeilingMax:       0.08,
		CeilingXGIFloor:  0.30,
		CeilingXGIRef:    0.70,
		CeilingPPGFloor:  4.5,
		CeilingPPGRef:    7.0,
		CeilingTrustN:    8,
		CeilingStartsRef: 10,

		CreatorMax:             0.04,
		CreatorXAFloor:         0.12,
		CreatorXARef:           0.30,
		CreatorCreativityFloor: 20,
		CreatorCreativityRef:   45,
		CreatorMinStarts:       8,

		MarketTransferScale:  0.50,
		MarketTransferCap:    0.03,
		MarketSelectionScale: 0.25,
		MarketSelectionCap:   0.02,
		MarketValueScale:     0.50,
		MarketValueCap:       0.02,

		ForwardBlendWeight: 0.10,
	}
}

// Clone returns an independent copy
func (p *Parameters) Clone() *Parameters {
	c := *p
	return &c
}

// XGIWeight returns the attacking-output weight for a position
func (p *Parameters) XGIWeight(pos models.Position) float64 {
	return models.PerPosition{p.XGIWeightGK, p.XGIWeightDEF, p.XGIWeightMID, p.XGIWeightFWD}.Get(pos)
}

// FixtureWeight returns the fixture sensitivity for a position
func (p *Parameters) FixtureWeight(pos models.Position) float64 {
	return models.PerPosition{p.FixtureWGK, p.FixtureWDEF, p.FixtureWMID, p.FixtureWFWD}.Get(pos)
}

// ScaleFixtureWeights multiplies all four fixture weights in place
func (p *Parameters) ScaleFixtureWeights(scale float64) {
	p.FixtureWGK *= scale
	p.FixtureWDEF *= scale
	p.FixtureWMID *= scale
	p.FixtureWFWD *= scale
}

// RecentN returns the short history window as a count
func (p *Parameters) RecentN() int {
	return int(p.HistoryRecentN)
}

// LongN returns the long history window as a count
func (p *Parameters) LongN() int {
	return int(p.HistoryLongN)
}

// ToMap flattens the parameters into a name -> value mapping
func (p *Parameters) ToMap() map[string]float64 {
	data, err := json.Marshal(p)
	if err != nil {
		return map[string]float64{}
	}
	out := make(map[string]float64)
	_ = json.Unmarshal(data, &out)
	return out
}

// WithOverrides returns a copy with known keys replaced.
// Unknown keys are ignored and missing keys keep the receiver's values.
func (p *Parameters) WithOverrides(overrides map[string]float64) *Parameters {
	merged := p.ToMap()
	for k, v := range overrides {
		if _, known := merged[k]; known {
			merged[k] = v
		}
	}

	out := p.Clone()
	data, err := json.Marshal(merged)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(data, out); err != nil {
		return p.Clone()
	}
	return out
}

// Validate checks the invariants the model relies on
func (p *Parameters) Validate() error {
	switch {
	case p.RecentN() < 1 || p.LongN() < p.RecentN():
		return models.NewValidationError("history_recent_n", "windows must satisfy 1 <= recent <= long", nil)
	case p.RecentDecay <= 0 || p.RecentDecay >= 1:
		return models.NewValidationError("recent_decay", "must lie in (0,1)", nil)
	case p.ShrinkK <= 0:
		return models.NewValidationError("shrink_k", "must be positive", nil)
	case p.StdFloor < 0:
		return models.NewValidationError("std_floor", "must not be negative", nil)
	case p.StartRateFloor > p.StartRateCap:
		return models.NewValidationError("start_rate_floor", "must not exceed start_rate_cap", nil)
	}
	return nil
}

// LoadParameters reads a flat JSON object over the defaults.
// A missing file yields the defaults.
func LoadParameters(path string) (*Parameters, error) {
	defaults := DefaultParameters()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters %s: %w", path, err)
	}

	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse parameters %s: %w", path, err)
	}

	params := defaults.WithOverrides(raw)
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters in %s: %w", path, err)
	}
	return params, nil
}

// SaveParameters writes the flat JSON object, replacing the file atomically
func SaveParameters(path string, p *Parameters) error {
	data, err := json.MarshalIndent(p.ToMap(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write parameters: %w", err)
	}
	return os.Rename(tmp, path)
}
