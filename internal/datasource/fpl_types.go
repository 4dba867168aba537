package datasource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/gojankovic/fpl-insights/internal/models"
	"github.com/gojankovic/fpl-insights/internal/provider"
)

// flexFloat decodes numbers the API sends either bare or quoted ("5.2")
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidData, s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type bootstrapElement struct {
	ID                int        `json:"id"`
	WebName           string     `json:"web_name"`
	Team              int        `json:"team"`
	ElementType       int        `json:"element_type"`
	Status            string     `json:"status"`
	ChanceOfPlaying   *int       `json:"chance_of_playing_next_round"`
	PointsPerGame     flexFloat  `json:"points_per_game"`
	XGIPer90          flexFloat  `json:"expected_goal_involvements_per_90"`
	XAPer90           flexFloat  `json:"expected_assists_per_90"`
	ExpectedGoals     flexFloat  `json:"expected_goals"`
	ExpectedAssists   flexFloat  `json:"expected_assists"`
	Creativity        flexFloat  `json:"creativity"`
	Starts            int        `json:"starts"`
	Minutes           int        `json:"minutes"`
	SelectedByPercent flexFloat  `json:"selected_by_percent"`
	TransfersInEvent  int        `json:"transfers_in_event"`
	TransfersOutEvent int        `json:"transfers_out_event"`
	NowCost           int        `json:"now_cost"`
	EPNext            *flexFloat `json:"ep_next"`
}

type bootstrapEvent struct {
	ID        int  `json:"id"`
	Finished  bool `json:"finished"`
	IsCurrent bool `json:"is_current"`
}

type bootstrapStatic struct {
	Elements []bootstrapElement `json:"elements"`
	Events   []bootstrapEvent   `json:"events"`
}

type historyEntry struct {
	Round            int `json:"round"`
	TotalPoints      int `json:"total_points"`
	Minutes          int `json:"minutes"`
	GoalsScored      int `json:"goals_scored"`
	Assists          int `json:"assists"`
	CleanSheets      int `json:"clean_sheets"`
	Bonus            int `json:"bonus"`
	Starts           int `json:"starts"`
	Selected         int `json:"selected"`
	TransfersBalance int `json:"transfers_balance"`
	Value            int `json:"value"`
}

type elementSummary struct {
	History []historyEntry `json:"history"`
}

// tenths converts the API's integer tenths-of-a-million price to a decimal
func tenths(v int) decimal.Decimal {
	return decimal.New(int64(v), -1)
}

func (e bootstrapElement) toModel() (models.PlayerAttributes, error) {
	pos, err := models.PositionFromElementType(e.ElementType)
	if err != nil {
		return models.PlayerAttributes{}, err
	}

	p := models.PlayerAttributes{
		ID:                e.ID,
		WebName:           e.WebName,
		TeamID:            e.Team,
		Position:          pos,
		Status:            e.Status,
		PointsPerGame:     float64(e.PointsPerGame),
		XGIPer90:          float64(e.XGIPer90),
		XAPer90:           float64(e.XAPer90),
		ExpectedGoals:     float64(e.ExpectedGoals),
		ExpectedAssists:   float64(e.ExpectedAssists),
		Creativity:        float64(e.Creativity),
		Starts:            e.Starts,
		Minutes:           e.Minutes,
		SelectedByPercent: float64(e.SelectedByPercent),
		TransfersInEvent:  e.TransfersInEvent,
		TransfersOutEvent: e.TransfersOutEvent,
		Price:             tenths(e.NowCost),
	}
	if e.ChanceOfPlaying != nil {
		c := float64(*e.ChanceOfPlaying)
		p.ChanceOfPlaying = &c
	}
	if e.EPNext != nil {
		ep := float64(*e.EPNext)
		p.EPNext = &ep
	}
	return p, nil
}

// aggregateHistory folds per-fixture rows into one record per round, newest first.
// Counting stats are summed across a double round; snapshot stats come from the last fixture.
func aggregateHistory(entries []historyEntry) []models.GameweekRecord {
	byRound := make(map[int]*models.GameweekRecord)
	rounds := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.Round <= 0 {
			continue
		}
		rec, ok := byRound[e.Round]
		if !ok {
			rec = &models.GameweekRecord{Period: e.Round}
			byRound[e.Round] = rec
			rounds = append(rounds, e.Round)
		}
		rec.Points += float64(e.TotalPoints)
		rec.Minutes += e.Minutes
		rec.Goals += e.GoalsScored
		rec.Assists += e.Assists
		rec.CleanSheets += e.CleanSheets
		rec.Bonus += e.Bonus
		rec.Started = rec.Started || e.Starts > 0
		rec.Selected = e.Selected
		rec.TransfersBalance = e.TransfersBalance
		rec.Value = tenths(e.Value)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(rounds)))
	out := make([]models.GameweekRecord, 0, len(rounds))
	for _, r := range rounds {
		out = append(out, *byRound[r])
	}
	return out
}

// latestFinished returns the highest finished event id, 0 if none
func latestFinished(events []bootstrapEvent) int {
	latest := 0
	for _, e := range events {
		if e.Finished && e.ID > latest {
			latest = e.ID
		}
	}
	return latest
}

// filterHistory applies the provider cutoff and limit to newest-first records
func filterHistory(records []models.GameweekRecord, maxCount, beforePeriod int) []models.GameweekRecord {
	out := make([]models.GameweekRecord, 0, len(records))
	for _, r := range records {
		if beforePeriod > 0 && r.Period >= beforePeriod {
			continue
		}
		if maxCount > 0 && len(out) >= maxCount {
			break
		}
		out = append(out, r)
	}
	return out
}

// difficultiesFor returns the ratings teamID faces in period, in fixture id order
func difficultiesFor(fixtures []provider.Fixture, teamID, period int) []int {
	matches := make([]provider.Fixture, 0, 2)
	for _, f := range fixtures {
		if f.Period != period {
			continue
		}
		if _, plays := f.DifficultyFor(teamID); plays {
			matches = append(matches, f)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	out := make([]int, 0, len(matches))
	for _, f := range matches {
		d, _ := f.DifficultyFor(teamID)
		out = append(out, d)
	}
	return out
}
