package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    Position
		wantErr bool
	}{
		{"GK", PositionGK, false},
		{" def ", PositionDEF, false},
		{"Mid", PositionMID, false},
		{"FWD", PositionFWD, false},
		{"ST", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePosition(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPosition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPositionFromElementType(t *testing.T) {
	p, err := PositionFromElementType(4)
	require.NoError(t, err)
	assert.Equal(t, PositionFWD, p)

	_, err = PositionFromElementType(5)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestPositionJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		P Position `json:"p"`
	}{PositionMID})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"MID"}`, string(data))

	var out struct {
		P Position `json:"p"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"p":"gk"}`), &out))
	assert.Equal(t, PositionGK, out.P)

	_, err = json.Marshal(struct{ P Position }{Position(7)})
	assert.Error(t, err)
}

func TestTeamComposition(t *testing.T) {
	team := TeamComposition{Starting: []int{1, 2}, Bench: []int{3}}
	assert.Equal(t, []int{1, 2}, team.Contributors())
	assert.Equal(t, 2.0, team.CaptainMultiplier())

	team.BenchBoost = true
	team.TripleCaptain = true
	assert.Equal(t, []int{1, 2, 3}, team.Contributors())
	assert.Equal(t, 3.0, team.CaptainMultiplier())
	assert.NoError(t, team.Validate())
}

func TestTeamCompositionValidate(t *testing.T) {
	tests := []struct {
		name string
		team TeamComposition
	}{
		{"empty starting", TeamComposition{Bench: []int{1}}},
		{"duplicate across bench", TeamComposition{Starting: []int{1, 2}, Bench: []int{2}}},
		{"non-positive id", TeamComposition{Starting: []int{0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.team.Validate()
			assert.ErrorIs(t, err, ErrInvalidRoster)
			var ve ValidationError
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestValidatePeriodRange(t *testing.T) {
	assert.NoError(t, ValidatePeriodRange(3, 3))
	assert.ErrorIs(t, ValidatePeriodRange(5, 4), ErrInvalidPeriodRange)
	assert.ErrorIs(t, ValidatePeriodRange(0, 4), ErrInvalidPeriodRange)
}

func TestPlayerAttributesHelpers(t *testing.T) {
	p := PlayerAttributes{Status: StatusUnavailable, Minutes: 900, ExpectedGoals: 3, ExpectedAssists: 2, Creativity: 300}
	assert.True(t, p.IsUnavailable())
	assert.InDelta(t, 0.5, p.XGIRate(), 1e-9)
	assert.InDelta(t, 30.0, p.CreativityPer90(), 1e-9)

	p.XGIPer90 = 0.8
	p.Status = StatusDoubtful
	assert.False(t, p.IsUnavailable())
	assert.Equal(t, 0.8, p.XGIRate())

	var empty PlayerAttributes
	assert.Zero(t, empty.XGIRate())
}

func TestFilterBefore(t *testing.T) {
	records := []GameweekRecord{{Period: 5}, {Period: 4}, {Period: 3}}
	got := FilterBefore(records, 5)
	require.Len(t, got, 2)
	assert.Equal(t, 4, got[0].Period)
}

func TestSimulationOutcomeSummary(t *testing.T) {
	s := SimulationOutcome{Samples: []float64{1, 2}, Expected: 1.5, Median: 1.5, P90: 2}
	sum := s.Summary()
	assert.Len(t, sum, 5)
	assert.Equal(t, 2.0, sum["p90"])
	assert.NotContains(t, s.ToJSON(), `"samples":null`)
}
