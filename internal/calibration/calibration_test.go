package calibration

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gojankovic/fpl-insights/internal/forecast"
	"github.com/gojankovic/fpl-insights/internal/models"
	"github.com/gojankovic/fpl-insights/internal/provider"
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

// buildLeague creates two teams playing every period 1..12 with a double in
// period 6 and eight players with deterministic, varied histories
func buildLeague() *provider.Memory {
	mem := provider.NewMemory()
	for gw := 1; gw <= 12; gw++ {
		mem.AddFixture(provider.Fixture{Period: gw, HomeTeam: 1, AwayTeam: 2, HomeDifficulty: 2 + gw%3, AwayDifficulty: 4 - gw%3})
	}
	mem.AddFixture(provider.Fixture{Period: 6, HomeTeam: 2, AwayTeam: 1, HomeDifficulty: 3, AwayDifficulty: 4})

	positions := []models.Position{models.PositionGK, models.PositionDEF, models.PositionDEF, models.PositionMID, models.PositionMID, models.PositionMID, models.PositionFWD, models.PositionFWD}
	for i, pos := range positions {
		id := i + 1
		mem.AddPlayer(models.PlayerAttributes{
			ID:            id,
			TeamID:        1 + i%2,
			Position:      pos,
			Status:        models.StatusAvailable,
			Starts:        8 + i,
			Minutes:       900 + 60*i,
			PointsPerGame: 3 + 0.4*float64(i),
			XGIPer90:      0.1 * float64(i),
			Price:         decimal.NewFromFloat(4.5 + 0.5*float64(i)),
		})
		for gw := 1; gw <= 12; gw++ {
			minutes := 90
			if (gw+i)%5 == 0 {
				minutes = 20
			}
			mem.AddHistory(id, models.GameweekRecord{
				Period:   gw,
				Points:   float64((gw*7+i*3)%11) + 1,
				Minutes:  minutes,
				Started:  minutes == 90,
				Selected: 50000 + 1000*gw,
				Value:    decimal.NewFromFloat(4.5 + 0.5*float64(i)),
			})
		}
	}
	return mem
}

func newLeagueHarness(store *forecast.ParamStore) *Harness {
	mem := buildLeague()
	predictor := forecast.NewPredictor(mem, store, testLogger())
	return NewHarness(predictor, mem, store, Config{Workers: 4}, testLogger())
}

func TestDefaultGrid(t *testing.T) {
	grid := DefaultGrid()
	base := forecast.DefaultParameters()
	snapshot := base.Clone()

	cells := grid.Cells(base)
	require.Len(t, cells, 32)
	assert.Equal(t, 32, grid.Size())
	assert.Equal(t, snapshot, base)

	first, last := cells[0], cells[31]
	assert.Equal(t, 0.80, first.Params.RecentDecay)
	assert.Equal(t, 0.22, first.Params.WRecent)
	assert.InDelta(t, 0.63, first.Params.WSeason, 1e-12)
	assert.Equal(t, 8.0, first.Params.ShrinkK)
	assert.InDelta(t, 0.20*0.90, first.Params.FixtureWMID, 1e-12)
	assert.Equal(t, 0.78, first.Params.DGWMinutesFactor)

	assert.Equal(t, 0.86, last.Params.RecentDecay)
	assert.InDelta(t, 0.55, last.Params.WSeason, 1e-12)
	assert.InDelta(t, 0.24*1.10, last.Params.FixtureWFWD, 1e-12)
	assert.Equal(t, 0.84, last.Params.DGWMinutesFactor)

	// last dimension varies fastest
	assert.Equal(t, 0.84, cells[1].Values["dgw_minutes_factor"])
	assert.Equal(t, 0.80, cells[1].Values["recent_decay"])

	for _, c := range cells {
		assert.InDelta(t, 1.0, c.Params.WSeason+c.Params.WRecent+c.Params.WAnchor, 1e-12)
	}
}

func TestEmptyGrid(t *testing.T) {
	assert.Equal(t, 0, Grid{}.Size())
	assert.Empty(t, Grid{}.Cells(forecast.DefaultParameters()))
}

func TestCalibrateRanksGrid(t *testing.T) {
	store := forecast.NewParamStore(nil)
	before := store.Current().Clone()
	harness := newLeagueHarness(store)

	result, err := harness.Calibrate(context.Background(), Request{From: 4, To: 12, SampleSize: 0, Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, 8*9, result.NRows)
	require.Len(t, result.Cells, 32)
	require.Len(t, result.Top5, 5)

	for i := 1; i < len(result.Top5); i++ {
		assert.LessOrEqual(t, result.Top5[i-1].MAE, result.Top5[i].MAE)
	}
	for _, c := range result.Cells {
		assert.LessOrEqual(t, result.BestError, c.MAE)
	}
	assert.Equal(t, result.Top5[0].MAE, result.BestError)
	assert.Equal(t, result.Top5[0].Params, result.BestParams)
	assert.Greater(t, result.BaselineError, 0.0)
	assert.InDelta(t, (result.BaselineError-result.BestError)/result.BaselineError*100, result.ImprovementPct, 1e-9)

	// defaults untouched
	assert.Equal(t, before, store.Current())
	assert.Equal(t, 0, store.Version())
}

func TestCalibrateAfterWriteBackStaysAnchored(t *testing.T) {
	store := forecast.NewParamStore(nil)
	defaults := forecast.DefaultParameters()
	harness := newLeagueHarness(store)
	req := Request{From: 4, To: 12, Seed: 3}

	first, err := harness.Calibrate(context.Background(), req)
	require.NoError(t, err)

	for round := 1; round <= 3; round++ {
		// the first cell scales fixture weights down
		require.NoError(t, store.Replace(first.Cells[0].Params))

		next, err := harness.Calibrate(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, first.BaselineError, next.BaselineError, "round %d", round)
		assert.Equal(t, first.BestError, next.BestError, "round %d", round)
		assert.InDelta(t, defaults.FixtureWMID*0.9, next.Cells[0].Params.FixtureWMID, 1e-12, "round %d", round)
		assert.InDelta(t, defaults.FixtureWMID*1.1, next.Cells[2].Params.FixtureWMID, 1e-12, "round %d", round)
	}
	assert.Equal(t, 3, store.Version())
	assert.InDelta(t, defaults.FixtureWMID*0.9, store.Current().FixtureWMID, 1e-12)
}

func TestCalibrateIsReproducible(t *testing.T) {
	harness := newLeagueHarness(forecast.NewParamStore(nil))
	req := Request{From: 2, To: 12, SampleSize: 30, Seed: 7}

	first, err := harness.Calibrate(context.Background(), req)
	require.NoError(t, err)
	second, err := harness.Calibrate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 30, first.NRows)
	assert.Equal(t, first.BaselineError, second.BaselineError)
	assert.Equal(t, first.BestError, second.BestError)
	assert.Equal(t, first.BestValues, second.BestValues)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestCalibrateTieBreakFirstSeen(t *testing.T) {
	f := &mockForecaster{}
	f.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(models.PredictionResult{Mean: 2}, nil)
	harness := NewHarness(f, buildLeague(), nil, Config{Workers: 8}, testLogger())

	result, err := harness.Calibrate(context.Background(), Request{From: 1, To: 3, Seed: 1})
	require.NoError(t, err)

	require.Len(t, result.Top5, 5)
	for i, c := range result.Top5 {
		assert.Equal(t, i, c.Index)
	}
	assert.Equal(t, result.Cells[0].Params, result.BestParams)
	assert.Equal(t, 0.0, result.ImprovementPct)
}

func TestCalibrateValidation(t *testing.T) {
	f := &mockForecaster{}
	harness := NewHarness(f, buildLeague(), nil, Config{}, testLogger())

	tests := []struct {
		name   string
		req    Request
		target error
	}{
		{name: "reversed range", req: Request{From: 10, To: 5}, target: models.ErrInvalidPeriodRange},
		{name: "non-positive start", req: Request{From: 0, To: 5}, target: models.ErrInvalidPeriodRange},
		{name: "negative sample size", req: Request{From: 1, To: 5, SampleSize: -1}, target: models.ErrInvalidSampleCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := harness.Calibrate(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))
		})
	}
	f.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything, mock.Anything)
}

func TestCalibratePropagatesPredictionErrors(t *testing.T) {
	f := &mockForecaster{}
	f.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(models.PredictionResult{}, models.PlayerNotFound(3))
	harness := NewHarness(f, buildLeague(), nil, Config{Workers: 2}, testLogger())

	_, err := harness.Calibrate(context.Background(), Request{From: 1, To: 2, Seed: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestSampleRows(t *testing.T) {
	rows := make([]models.ActualOutcome, 50)
	for i := range rows {
		rows[i] = models.ActualOutcome{PlayerID: i + 1, Period: 1}
	}

	assert.Len(t, SampleRows(rows, 0, 1), 50)
	assert.Len(t, SampleRows(rows, 80, 1), 50)

	a := SampleRows(rows, 10, 99)
	b := SampleRows(rows, 10, 99)
	require.Len(t, a, 10)
	assert.Equal(t, a, b)

	seen := map[int]bool{}
	for _, r := range a {
		assert.False(t, seen[r.PlayerID])
		seen[r.PlayerID] = true
	}
	// input order preserved
	assert.Equal(t, 1, rows[0].PlayerID)
}

func TestBacktestErrorStats(t *testing.T) {
	mem := provider.NewMemory()
	mem.AddPlayer(models.PlayerAttributes{ID: 1, Position: models.PositionMID})
	mem.AddPlayer(models.PlayerAttributes{ID: 2, Position: models.PositionGK})
	mem.AddHistory(1, models.GameweekRecord{Period: 1, Points: 0}, models.GameweekRecord{Period: 2, Points: 4})
	mem.AddHistory(2, models.GameweekRecord{Period: 1, Points: 5})

	f := &mockForecaster{}
	f.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(models.PredictionResult{Mean: 2}, nil)
	harness := NewHarness(f, mem, nil, Config{}, testLogger())

	result, err := harness.Backtest(context.Background(), 1, 2)
	require.NoError(t, err)

	// errors: +2, -2, -3
	assert.Equal(t, 3, result.N)
	assert.InDelta(t, 7.0/3.0, result.Overall.MAE, 1e-12)
	assert.InDelta(t, 2.3804761428, result.Overall.RMSE, 1e-9)
	assert.InDelta(t, -1.0, result.Overall.Bias, 1e-12)

	gk := result.ByPosition[models.PositionGK.Index()]
	assert.Equal(t, 1, gk.N)
	assert.InDelta(t, 3.0, gk.MAE, 1e-12)
	assert.Equal(t, 0, result.ByPosition[models.PositionFWD.Index()].N)

	require.Len(t, result.Worst, 3)
	assert.Equal(t, 2, result.Worst[0].PlayerID)
	assert.Equal(t, 3.0, result.Worst[0].AbsError)
}

func TestBacktestRejectsReversedRange(t *testing.T) {
	harness := NewHarness(&mockForecaster{}, provider.NewMemory(), nil, Config{}, testLogger())
	_, err := harness.Backtest(context.Background(), 5, 4)
	assert.True(t, errors.Is(err, models.ErrInvalidPeriodRange))
}

func TestReports(t *testing.T) {
	harness := newLeagueHarness(forecast.NewParamStore(nil))
	result, err := harness.Calibrate(context.Background(), Request{From: 8, To: 12, Seed: 3})
	require.NoError(t, err)

	console := GenerateCalibrationReport(result)
	assert.Contains(t, console, "Baseline MAE")
	assert.Contains(t, console, "Top 5 Parameter Sets")

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out", "calibration.csv")
	require.NoError(t, GenerateCalibrationCSV(result, csvPath))
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	// header + baseline + 32 cells
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 34)

	bt, err := harness.Backtest(context.Background(), 8, 12)
	require.NoError(t, err)
	assert.Contains(t, GenerateBacktestReport(bt), "Worst 15 Misses")
	require.NoError(t, GenerateBacktestCSV(bt, filepath.Join(dir, "backtest.csv")))
}
