package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gojankovic/fpl-insights/internal/forecast"
)

func TestParseOverrides(t *testing.T) {
	got, err := parseOverrides(map[string]string{"shrink_k": "12", "minutes_cap": "85.5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"shrink_k": 12, "minutes_cap": 85.5}, got)

	_, err = parseOverrides(map[string]string{"shrink_k": "lots"})
	assert.Error(t, err)
}

func TestRankRange(t *testing.T) {
	tests := []struct {
		name     string
		players  []int
		period   int
		from, to int
		rank     bool
		wantFrom int
		wantTo   int
		wantErr  bool
	}{
		{name: "single prediction", players: []int{1}, period: 5},
		{name: "range", from: 5, to: 8, rank: true, wantFrom: 5, wantTo: 8},
		{name: "from only ranks one period", from: 6, rank: true, wantFrom: 6, wantTo: 6},
		{name: "explicit pool", players: []int{1, 2}, from: 3, to: 4, rank: true, wantFrom: 3, wantTo: 4},
		{name: "nothing given", wantErr: true},
		{name: "players without period", players: []int{1}, wantErr: true},
		{name: "to without from", to: 4, wantErr: true},
		{name: "period and range", period: 3, from: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rank, from, to, err := rankRange(tt.players, tt.period, tt.from, tt.to)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.rank, rank)
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantTo, to)
		})
	}
}

func TestPeriodCell(t *testing.T) {
	assert.Equal(t, "0.0 BLANK", periodCell(forecast.PeriodPoints{Period: 3}))
	assert.Equal(t, "9.4 d2/d4", periodCell(forecast.PeriodPoints{Period: 4, Points: 9.42, Difficulties: []int{2, 4}}))
}

func TestLoadTeam_FromFlags(t *testing.T) {
	simTeamFile = ""
	simStarting = []int{1, 2, 3}
	simBench = []int{4}
	simCaptain, simVice = 2, 0
	t.Cleanup(func() { simStarting, simBench, simCaptain = nil, nil, 0 })

	team, err := loadTeam()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, team.Starting)
	require.NotNil(t, team.CaptainID)
	assert.Equal(t, 2, *team.CaptainID)
	assert.Nil(t, team.ViceCaptainID)
}

func TestLoadTeam_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"starting":[7,8],"bench":[9],"captain_id":8,"bench_boost":true}`), 0o600))
	simTeamFile = path
	t.Cleanup(func() { simTeamFile = "" })

	team, err := loadTeam()
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, team.Starting)
	assert.True(t, team.BenchBoost)
	require.NotNil(t, team.CaptainID)
	assert.Equal(t, 8, *team.CaptainID)
}
