package models

import (
	"github.com/shopspring/decimal"
)

// GameweekRecord represents one finalized scoring period for one player
type GameweekRecord struct {
	Period           int             `db:"gameweek" json:"period" validate:"required,gt=0"`
	Points           float64         `db:"total_points" json:"points"`
	Minutes          int             `db:"minutes" json:"minutes"`
	Goals            int             `db:"goals_scored" json:"goals"`
	Assists          int             `db:"assists" json:"assists"`
	CleanSheets      int             `db:"clean_sheets" json:"clean_sheets"`
	Bonus            int             `db:"bonus_points" json:"bonus"`
	Started          bool            `db:"starts" json:"started"`
	Selected         int             `db:"selected" json:"selected"`
	TransfersBalance int             `db:"transfers_balance" json:"transfers_balance"`
	Value            decimal.Decimal `db:"value" json:"value"`
}

// ActualOutcome is one observed (player, period, points) triple used for calibration
type ActualOutcome struct {
	PlayerID int      `db:"player_id" json:"player_id"`
	Period   int      `db:"gameweek" json:"period"`
	Points   float64  `db:"total_points" json:"points"`
	Position Position `db:"element_type" json:"position"`
}

// FilterBefore keeps only records strictly before period, preserving order
func FilterBefore(records []GameweekRecord, period int) []GameweekRecord {
	out := make([]GameweekRecord, 0, len(records))
	for _, r := range records {
		if r.Period < period {
			out = append(out, r)
		}
	}
	return out
}
