package forecast

import (
	"math"

	"github.com/gojankovic/fpl-insights/internal/models"
)

// CeilingUplift rewards MID/FWD players combining high xGI with a high
// season scoring rate. Returns a multiplier >= 1.
func CeilingUplift(player *models.PlayerAttributes, seasonPPG float64, samples int, p *Parameters) float64 {
	if !player.Position.IsAttacking() {
		return 1
	}
	score := lerp01(player.XGIRate(), p.CeilingXGIFloor, p.CeilingXGIRef) *
		lerp01(seasonPPG, p.CeilingPPGFloor, p.CeilingPPGRef)
	trust := math.Min(1, safeDiv(float64(samples), p.CeilingTrustN)) *
		math.Min(1, safeDiv(float64(player.Starts), p.CeilingStartsRef))
	return 1 + p.CeilingMax*score*trust
}

// CreatorUplift rewards heavily featured midfielders with high assist
// expectation and creativity. Returns a multiplier >= 1.
func CreatorUplift(player *models.PlayerAttributes, samples int, p *Parameters) float64 {
	if player.Position != models.PositionMID || float64(player.Starts) < p.CreatorMinStarts {
		return 1
	}
	score := 0.5 * (lerp01(player.XAPer90, p.CreatorXAFloor, p.CreatorXARef) +
		lerp01(player.CreativityPer90(), p.CreatorCreativityFloor, p.CreatorCreativityRef))
	trust := math.Min(1, safeDiv(float64(samples), p.CeilingTrustN))
	return 1 + p.CreatorMax*score*trust
}

// MarketNudges are the three clamped market-signal adjustments
type MarketNudges struct {
	Transfer  float64 `json:"transfer"`
	Selection float64 `json:"selection"`
	Value     float64 `json:"value"`
}

// Multiplier combines the nudges into one factor
func (m MarketNudges) Multiplier() float64 {
	return (1 + m.Transfer) * (1 + m.Selection) * (1 + m.Value)
}

// ComputeMarketNudges derives nudges from the recent window (newest first)
func ComputeMarketNudges(recent []models.GameweekRecord, p *Parameters) MarketNudges {
	var n MarketNudges
	if len(recent) == 0 {
		return n
	}

	// recency-weighted transfer balance relative to ownership
	ratios := make([]float64, 0, len(recent))
	for _, r := range recent {
		if r.Selected > 0 {
			ratios = append(ratios, float64(r.TransfersBalance)/float64(r.Selected))
		}
	}
	if len(ratios) > 0 {
		ratio := decayedMean(ratios, p.RecentDecay)
		n.Transfer = clamp(p.MarketTransferScale*ratio, -p.MarketTransferCap, p.MarketTransferCap)
	}

	if len(recent) < 2 {
		return n
	}
	newest, oldest := recent[0], recent[len(recent)-1]

	if oldest.Selected > 0 {
		trend := safeDiv(float64(newest.Selected-oldest.Selected), float64(oldest.Selected))
		n.Selection = clamp(p.MarketSelectionScale*trend, -p.MarketSelectionCap, p.MarketSelectionCap)
	}

	if oldest.Value.IsPositive() && newest.Value.IsPositive() {
		trend := newest.Value.Sub(oldest.Value).Div(oldest.Value).InexactFloat64()
		n.Value = clamp(p.MarketValueScale*trend, -p.MarketValueCap, p.MarketValueCap)
	}
	return n
}

// ForwardBlend mixes in the published near-term forecast when the target
// period lies beyond every known historical period. rate is per fixture while
// the published figure covers the whole period, so it is split evenly across
// the period's fixtures first.
func ForwardBlend(rate float64, player *models.PlayerAttributes, period, latestKnown, fixtures int, p *Parameters) (float64, bool) {
	if period <= latestKnown || player.EPNext == nil || *player.EPNext <= 0 || fixtures == 0 {
		return rate, false
	}
	w := clamp(p.ForwardBlendWeight, 0, 1)
	perFixture := *player.EPNext / float64(fixtures)
	return (1-w)*rate + w*perFixture, true
}

// RoleMultiplier scales fixture sensitivity down for low-output MID/FWD players
func RoleMultiplier(player *models.PlayerAttributes, p *Parameters) float64 {
	if !player.Position.IsAttacking() {
		return 1
	}
	m := p.RoleFloor + (1-p.RoleFloor)*math.Min(1, safeDiv(player.XGIRate(), p.RoleXGIRef))
	return math.Min(m, p.RoleCap)
}

// FixtureContributions returns the expected points of each fixture in the
// period. Empty difficulties means a blank period and yields nil.
func FixtureContributions(rate, expMinutes float64, difficulties []int, player *models.PlayerAttributes, p *Parameters) []float64 {
	if len(difficulties) == 0 {
		return nil
	}

	perFixture := expMinutes
	if len(difficulties) > 1 {
		perFixture *= p.DGWMinutesFactor
	}
	minutesFactor := math.Min(perFixture, FullPeriodMinutes) / FullPeriodMinutes
	weight := p.FixtureWeight(player.Position) * RoleMultiplier(player, p)

	out := make([]float64, len(difficulties))
	for i, d := range difficulties {
		d = int(clamp(float64(d), 1, 5))
		adj := 1 + float64(3-d)*weight
		out[i] = rate * minutesFactor * adj
	}
	return out
}

// StdFromHistory returns the raw spread before the position multiplier and floor
func StdFromHistory(recentPoints []float64, mean float64, p *Parameters) float64 {
	if len(recentPoints) >= 3 {
		return populationStd(recentPoints)
	}
	return mean * p.StdFallbackMult
}

// PositionStdMultiplier returns the fixed variance scale for a position
func PositionStdMultiplier(pos models.Position) float64 {
	return positionStdMult.Get(pos)
}
