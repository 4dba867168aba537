package models

import (
	"github.com/shopspring/decimal"
)

// Availability statuses published by the feed
const (
	StatusAvailable   = "a"
	StatusDoubtful    = "d"
	StatusInjured     = "i"
	StatusSuspended   = "s"
	StatusUnavailable = "u"
	StatusNotInSquad  = "n"
	StatusLeftClub    = "o"
)

// PlayerAttributes represents a player's season-to-date static profile
type PlayerAttributes struct {
	ID                int             `db:"id" json:"id" validate:"required,gt=0"`
	WebName           string          `db:"web_name" json:"web_name"`
	TeamID            int             `db:"team_id" json:"team_id"`
	Position          Position        `db:"element_type" json:"position"`
	Status            string          `db:"status" json:"status"`
	ChanceOfPlaying   *float64        `db:"chance_of_playing_next_round" json:"chance_of_playing,omitempty"`
	PointsPerGame     float64         `db:"points_per_game" json:"points_per_game"`
	XGIPer90          float64         `db:"expected_goal_involvements_per_90" json:"xgi_per_90"`
	XAPer90           float64         `db:"expected_assists_per_90" json:"xa_per_90"`
	ExpectedGoals     float64         `db:"expected_goals" json:"expected_goals"`
	ExpectedAssists   float64         `db:"expected_assists" json:"expected_assists"`
	Creativity        float64         `db:"creativity" json:"creativity"`
	Starts            int             `db:"starts" json:"starts"`
	Minutes           int             `db:"minutes" json:"minutes"`
	SelectedByPercent float64         `db:"selected_by_percent" json:"selected_by_percent"`
	TransfersInEvent  int             `db:"transfers_in_event" json:"transfers_in_event"`
	TransfersOutEvent int             `db:"transfers_out_event" json:"transfers_out_event"`
	Price             decimal.Decimal `db:"now_cost" json:"price"`
	EPNext            *float64        `db:"ep_next" json:"ep_next,omitempty"`
}

// IsUnavailable reports whether the status rules the player out of the next period
func (p *PlayerAttributes) IsUnavailable() bool {
	switch p.Status {
	case StatusInjured, StatusSuspended, StatusUnavailable, StatusLeftClub:
		return true
	default:
		return false
	}
}

// XGIRate returns the per-90 expected goal involvement, deriving it from
// season totals when the feed omits the per-90 figure
func (p *PlayerAttributes) XGIRate() float64 {
	if p.XGIPer90 > 0 {
		return p.XGIPer90
	}
	if p.Minutes <= 0 {
		return 0
	}
	return (p.ExpectedGoals + p.ExpectedAssists) / float64(p.Minutes) * 90.0
}

// CreativityPer90 normalizes the season creativity index to a per-90 rate
func (p *PlayerAttributes) CreativityPer90() float64 {
	if p.Minutes <= 0 {
		return 0
	}
	return p.Creativity / float64(p.Minutes) * 90.0
}
