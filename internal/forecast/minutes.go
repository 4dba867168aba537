package forecast

import (
	"github.com/gojankovic/fpl-insights/internal/models"
)

// FullPeriodMinutes is the length of one fixture
const FullPeriodMinutes = 90.0

// ExpectedMinutes estimates minutes for the next fixture from the recent window
func ExpectedMinutes(player *models.PlayerAttributes, recent []models.GameweekRecord, p *Parameters) float64 {
	if player.IsUnavailable() {
		return 0
	}

	minutes := make([]float64, 0, len(recent))
	for _, r := range recent {
		minutes = append(minutes, float64(r.Minutes))
	}

	var base float64
	if len(minutes) > 0 {
		base = median(minutes)
	} else if float64(player.Starts) >= p.MinutesStarterStarts {
		base = p.MinutesFallbackStarter
	} else {
		base = p.MinutesFallbackOther
	}

	chance := 100.0
	if player.ChanceOfPlaying != nil {
		chance = clamp(*player.ChanceOfPlaying, 0, 100)
		base *= chance / 100
	}

	if float64(player.Starts) >= p.StarterFloorStarts && chance >= p.StarterFloorChance {
		var full int
		for _, m := range minutes {
			if m >= p.StarterFloorGameMinutes {
				full++
			}
		}
		if float64(full) >= p.StarterFloorGames && base < p.StarterFloorMinutes {
			base = p.StarterFloorMinutes
		}
	}

	if rate, ok := StartRate(recent); ok {
		base *= clamp(rate, p.StartRateFloor, p.StartRateCap)
	}

	if base > FullPeriodMinutes {
		base = FullPeriodMinutes
	}
	return base
}

// StartRate is the fraction of recent appearances that were starts.
// Periods with no minutes are not appearances; ok is false when there are none.
func StartRate(recent []models.GameweekRecord) (rate float64, ok bool) {
	var apps, starts int
	for _, r := range recent {
		if r.Minutes <= 0 {
			continue
		}
		apps++
		if r.Started {
			starts++
		}
	}
	if apps == 0 {
		return 0, false
	}
	return float64(starts) / float64(apps), true
}
