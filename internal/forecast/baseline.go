package forecast

import (
	"math"

	"github.com/gojankovic/fpl-insights/internal/models"
)

// Baseline is the per-fixture scoring rate before market and fixture effects
type Baseline struct {
	SeasonPPG float64 `json:"season_ppg"`
	RecentPPG float64 `json:"recent_ppg"`
	AnchorPPG float64 `json:"anchor_ppg"`
	Blended   float64 `json:"blended"`
	Samples   int     `json:"samples"`
	Shrink    float64 `json:"shrink"`
	Prior     float64 `json:"prior"`
	XGIBonus  float64 `json:"xgi_bonus"`
	Rate      float64 `json:"rate"`
}

func pointsOf(records []models.GameweekRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Points
	}
	return out
}

// ComputeBaseline blends season, recent and anchor rates, shrinks toward
// the position prior and adds the attacking-output bonus
func ComputeBaseline(player *models.PlayerAttributes, long, recent []models.GameweekRecord, p *Parameters) Baseline {
	seasonPoints := pointsOf(long)
	recentPoints := pointsOf(recent)

	b := Baseline{Samples: len(seasonPoints), Prior: PositionPrior(player.Position)}

	b.SeasonPPG = player.PointsPerGame
	if len(seasonPoints) > 0 {
		b.SeasonPPG = mean(seasonPoints)
	}
	b.RecentPPG = b.SeasonPPG
	if len(recentPoints) > 0 {
		b.RecentPPG = decayedMean(recentPoints, p.RecentDecay)
	}
	b.AnchorPPG = player.PointsPerGame
	if b.AnchorPPG == 0 {
		b.AnchorPPG = b.SeasonPPG
	}

	b.Blended = p.WSeason*b.SeasonPPG + p.WRecent*b.RecentPPG + p.WAnchor*b.AnchorPPG
	b.Shrink = ShrinkFactor(b.Samples, p.ShrinkK)

	trust := math.Min(1, safeDiv(float64(b.Samples), p.XGITrustN))
	b.XGIBonus = player.XGIRate() * p.XGIWeight(player.Position) * trust

	b.Rate = b.Shrink*b.Blended + (1-b.Shrink)*b.Prior + b.XGIBonus
	return b
}
