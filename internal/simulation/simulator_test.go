package simulation

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gojankovic/fpl-insights/internal/forecast"
	"github.com/gojankovic/fpl-insights/internal/models"
)

type mockForecaster struct {
	mock.Mock
}

func (m *mockForecaster) Predict(ctx context.Context, playerID, period int, opts ...forecast.Option) (models.PredictionResult, error) {
	args := m.Called(ctx, playerID, period)
	return args.Get(0).(models.PredictionResult), args.Error(1)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func intPtr(v int) *int { return &v }

func fixedForecaster(preds map[int]models.PredictionResult) *mockForecaster {
	f := &mockForecaster{}
	for id, p := range preds {
		f.On("Predict", mock.Anything, id, mock.Anything).Return(p, nil)
	}
	return f
}

func squad() (models.TeamComposition, map[int]models.PredictionResult) {
	preds := map[int]models.PredictionResult{
		1:  {PlayerID: 1, Position: models.PositionGK, Mean: 3.5, Std: 1.5},
		2:  {PlayerID: 2, Position: models.PositionDEF, Mean: 4.0, Std: 2.0},
		3:  {PlayerID: 3, Position: models.PositionDEF, Mean: 3.8, Std: 2.0},
		4:  {PlayerID: 4, Position: models.PositionMID, Mean: 6.2, Std: 3.1},
		5:  {PlayerID: 5, Position: models.PositionMID, Mean: 5.0, Std: 2.6},
		6:  {PlayerID: 6, Position: models.PositionFWD, Mean: 7.1, Std: 3.8},
		12: {PlayerID: 12, Position: models.PositionMID, Mean: 2.1, Std: 1.2},
	}
	team := models.TeamComposition{
		Starting:      []int{1, 2, 3, 4, 5, 6},
		Bench:         []int{12},
		CaptainID:     intPtr(6),
		ViceCaptainID: intPtr(4),
	}
	return team, preds
}

func TestSimulateIsDeterministicForSeed(t *testing.T) {
	team, preds := squad()
	sim := NewSimulator(fixedForecaster(preds), DefaultConfig(), testLogger())
	req := Request{Team: team, Period: 10, Samples: 2000, Seed: 1234}

	first, err := sim.Simulate(context.Background(), req)
	require.NoError(t, err)
	second, err := sim.Simulate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Samples, second.Samples)
	assert.Equal(t, first, second)

	other, err := sim.Simulate(context.Background(), Request{Team: team, Period: 10, Samples: 2000, Seed: 99})
	require.NoError(t, err)
	assert.NotEqual(t, first.Samples, other.Samples)
}

func TestSimulateCaptaincyArithmetic(t *testing.T) {
	tests := []struct {
		name       string
		triple     bool
		multiplier float64
	}{
		{name: "captain doubles", multiplier: 2},
		{name: "triple captain", triple: true, multiplier: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			team, preds := squad()
			team.TripleCaptain = tt.triple
			sim := NewSimulator(fixedForecaster(preds), DefaultConfig(), testLogger())

			d, err := sim.SimulateDetailed(context.Background(), Request{Team: team, Period: 10, Samples: 500, Seed: 7})
			require.NoError(t, err)

			captain, vice := d.PlayerSamples[6], d.PlayerSamples[4]
			for i, got := range d.Outcome.Samples {
				var want float64
				for _, id := range team.Starting {
					want += d.PlayerSamples[id][i]
				}
				effective := captain[i]
				if captain[i] == 0 {
					effective = vice[i]
				}
				want += (tt.multiplier - 1) * effective
				require.Equal(t, want, got, "trial %d", i)
			}
		})
	}
}

func TestAggregateViceOnlyOnExactZero(t *testing.T) {
	team := models.TeamComposition{
		Starting:      []int{1, 2},
		CaptainID:     intPtr(1),
		ViceCaptainID: intPtr(2),
	}
	samples := map[int][]float64{
		1: {0, 1e-12, 4},
		2: {5, 5, 5},
	}

	total := Aggregate(team, samples, 3)

	// an exact zero hands the armband to the vice; a tiny positive draw does not
	require.Len(t, total, 3)
	assert.Equal(t, 10.0, total[0])
	assert.InDelta(t, 5.0, total[1], 1e-9)
	assert.Equal(t, 13.0, total[2])
}

func TestAggregateCaptainOutsideContributors(t *testing.T) {
	team := models.TeamComposition{
		Starting:  []int{1},
		Bench:     []int{2},
		CaptainID: intPtr(2),
	}
	samples := map[int][]float64{1: {3, 3}}
	assert.Equal(t, []float64{3, 3}, Aggregate(team, samples, 2))
}

func TestSimulateBenchBoost(t *testing.T) {
	team, preds := squad()
	team.CaptainID, team.ViceCaptainID = nil, nil
	sim := NewSimulator(fixedForecaster(preds), DefaultConfig(), testLogger())

	without, err := sim.SimulateDetailed(context.Background(), Request{Team: team, Period: 10, Samples: 300, Seed: 5})
	require.NoError(t, err)
	assert.NotContains(t, without.PlayerSamples, 12)

	team.BenchBoost = true
	with, err := sim.SimulateDetailed(context.Background(), Request{Team: team, Period: 10, Samples: 300, Seed: 5})
	require.NoError(t, err)
	require.Contains(t, with.PlayerSamples, 12)

	// starters draw identically because the bench player is simulated last
	for i := range with.Outcome.Samples {
		assert.InDelta(t, without.Outcome.Samples[i]+with.PlayerSamples[12][i], with.Outcome.Samples[i], 1e-9)
	}
}

func covariance(a, b []float64) float64 {
	var ma, mb float64
	for i := range a {
		ma += a[i]
		mb += b[i]
	}
	ma /= float64(len(a))
	mb /= float64(len(b))
	var c float64
	for i := range a {
		c += (a[i] - ma) * (b[i] - mb)
	}
	return c / float64(len(a))
}

func TestSimulatePositionCorrelatedNoise(t *testing.T) {
	const std, weight = 4.0, 0.6
	preds := map[int]models.PredictionResult{
		1: {PlayerID: 1, Position: models.PositionMID, Mean: 50, Std: std},
		2: {PlayerID: 2, Position: models.PositionMID, Mean: 50, Std: std},
		3: {PlayerID: 3, Position: models.PositionFWD, Mean: 50, Std: std},
		4: {PlayerID: 4, Position: models.PositionGK, Mean: 50, Std: std},
		5: {PlayerID: 5, Position: models.PositionGK, Mean: 50, Std: std},
	}
	cfg := DefaultConfig()
	cfg.CorrelationWeights = models.PerPosition{0, 0, weight, weight}
	sim := NewSimulator(fixedForecaster(preds), cfg, testLogger())

	team := models.TeamComposition{Starting: []int{1, 2, 3, 4, 5}}
	d, err := sim.SimulateDetailed(context.Background(), Request{Team: team, Period: 5, Samples: 100_000, Seed: 31})
	require.NoError(t, err)

	mid1, mid2, fwd := d.PlayerSamples[1], d.PlayerSamples[2], d.PlayerSamples[3]
	shared := (std * weight) * (std * weight)

	// same position shares the per-trial vector
	assert.InDelta(t, shared, covariance(mid1, mid2), 0.3)
	// different positions draw independent vectors
	assert.InDelta(t, 0, covariance(mid1, fwd), 0.3)
	// zero weight leaves same-position players independent
	assert.InDelta(t, 0, covariance(d.PlayerSamples[4], d.PlayerSamples[5]), 0.3)

	// idiosyncratic and shared parts add back up to the forecast spread
	for _, id := range []int{1, 2, 3, 4} {
		assert.InDelta(t, std*std, covariance(d.PlayerSamples[id], d.PlayerSamples[id]), 0.5, "player %d", id)
	}
}

func TestSimulateZeroMeanPlayerContributesNothing(t *testing.T) {
	preds := map[int]models.PredictionResult{
		1: {PlayerID: 1, Position: models.PositionFWD, Mean: 0, Std: 0.5},
		2: {PlayerID: 2, Position: models.PositionFWD, Mean: 6, Std: 2},
	}
	team := models.TeamComposition{Starting: []int{1, 2}, CaptainID: intPtr(1), ViceCaptainID: intPtr(2)}
	sim := NewSimulator(fixedForecaster(preds), DefaultConfig(), testLogger())

	d, err := sim.SimulateDetailed(context.Background(), Request{Team: team, Period: 3, Samples: 200, Seed: 11})
	require.NoError(t, err)
	for i, v := range d.PlayerSamples[1] {
		require.Equal(t, 0.0, v)
		// blanked captain: vice counts twice
		require.Equal(t, 2*d.PlayerSamples[2][i], d.Outcome.Samples[i])
	}
}

func TestSimulateValidation(t *testing.T) {
	team, preds := squad()
	sim := NewSimulator(fixedForecaster(preds), DefaultConfig(), testLogger())

	tests := []struct {
		name   string
		req    Request
		target error
	}{
		{name: "zero samples", req: Request{Team: team, Period: 1, Samples: 0}, target: models.ErrInvalidSampleCount},
		{name: "negative samples", req: Request{Team: team, Period: 1, Samples: -5}, target: models.ErrInvalidSampleCount},
		{name: "bad period", req: Request{Team: team, Period: 0, Samples: 10}, target: models.ErrInvalidPeriodRange},
		{name: "empty roster", req: Request{Period: 1, Samples: 10}, target: models.ErrInvalidRoster},
		{name: "duplicate player", req: Request{Team: models.TeamComposition{Starting: []int{1, 1}}, Period: 1, Samples: 10}, target: models.ErrInvalidRoster},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Simulate(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))
		})
	}
}

func TestSimulatePropagatesNotFound(t *testing.T) {
	f := &mockForecaster{}
	f.On("Predict", mock.Anything, 1, 4).Return(models.PredictionResult{}, models.PlayerNotFound(1))
	sim := NewSimulator(f, DefaultConfig(), testLogger())

	_, err := sim.Simulate(context.Background(), Request{Team: models.TeamComposition{Starting: []int{1}}, Period: 4, Samples: 10, Seed: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	f.AssertExpectations(t)
}

func TestSampleNormalConverges(t *testing.T) {
	const mean, std = 10.0, 2.0
	samples := SampleNormal(mean, std, 50_000, 2024)

	var sum float64
	for _, v := range samples {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, mean, sum/float64(len(samples)), 0.05)
}

func TestPercentileLinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.Equal(t, 2.5, Percentile(sorted, 50))
	assert.Equal(t, 1.75, Percentile(sorted, 25))
	assert.InDelta(t, 3.7, Percentile(sorted, 90), 1e-12)
	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Equal(t, 4.0, Percentile(sorted, 100))
	assert.Equal(t, 0.0, Percentile(nil, 50))
}

func TestSummarize(t *testing.T) {
	out := Summarize([]float64{4, 1, 3, 2})
	assert.Equal(t, 2.5, out.Expected)
	assert.Equal(t, 2.5, out.Median)
	assert.Equal(t, []float64{4, 1, 3, 2}, out.Samples)
}
