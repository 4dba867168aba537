package scheduler

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gojankovic/fpl-insights/internal/calibration"
	"github.com/gojankovic/fpl-insights/internal/forecast"
	"github.com/gojankovic/fpl-insights/internal/service"
)

type mockCalibrator struct {
	mock.Mock
}

func (m *mockCalibrator) Calibrate(ctx context.Context, req calibration.Request) (*calibration.Result, error) {
	args := m.Called(ctx, req)
	if r, ok := args.Get(0).(*calibration.Result); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type fixedPeriod int

func (p fixedPeriod) LatestPeriod(ctx context.Context) (int, error) {
	return int(p), nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func betterResult() *calibration.Result {
	best := forecast.DefaultParameters()
	best.ShrinkK = 6
	return &calibration.Result{
		RunID:          uuid.New(),
		BaselineError:  2.0,
		BestError:      1.8,
		ImprovementPct: 10,
		BestParams:     best,
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		latest, size, from, to int
	}{
		{20, 6, 15, 20},
		{3, 6, 1, 3},
		{6, 6, 1, 6},
	}
	for _, tt := range tests {
		from, to := Window(tt.latest, tt.size)
		assert.Equal(t, tt.from, from)
		assert.Equal(t, tt.to, to)
	}
}

func TestCalibrationJobWritesBack(t *testing.T) {
	cal := &mockCalibrator{}
	cal.On("Calibrate", mock.Anything, calibration.Request{From: 7, To: 12, SampleSize: 500, Seed: 9}).
		Return(betterResult(), nil).Once()

	store := forecast.NewParamStore(nil)
	path := filepath.Join(t.TempDir(), "model_params.json")
	job := NewCalibrationJob(cal, fixedPeriod(12), store, JobConfig{
		WindowPeriods: 6,
		SampleSize:    500,
		Seed:          9,
		WriteBack:     true,
		Policy:        calibration.WriteBackPolicy{Path: path, MinImprovementPct: 1},
	}, quietLogger())

	result, applied, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NotNil(t, result)
	assert.Equal(t, 6.0, store.Current().ShrinkK)
	assert.FileExists(t, path)
	cal.AssertExpectations(t)
}

func TestCalibrationJobWriteBackDisabled(t *testing.T) {
	cal := &mockCalibrator{}
	cal.On("Calibrate", mock.Anything, mock.Anything).Return(betterResult(), nil).Once()

	store := forecast.NewParamStore(nil)
	job := NewCalibrationJob(cal, fixedPeriod(4), store, JobConfig{WindowPeriods: 6}, quietLogger())

	_, applied, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 0, store.Version())
}

func TestCalibrationJobErrors(t *testing.T) {
	job := NewCalibrationJob(&mockCalibrator{}, fixedPeriod(0), nil, JobConfig{}, quietLogger())
	_, _, err := job.Run(context.Background())
	assert.Error(t, err)

	cal := &mockCalibrator{}
	cal.On("Calibrate", mock.Anything, mock.Anything).Return(nil, errors.New("provider down")).Once()
	job = NewCalibrationJob(cal, fixedPeriod(5), forecast.NewParamStore(nil), JobConfig{}, quietLogger())
	_, _, err = job.Run(context.Background())
	assert.ErrorContains(t, err, "provider down")
}

func TestSchedulerLifecycle(t *testing.T) {
	s := NewScheduler(quietLogger())
	assert.Error(t, s.Start(), "no jobs scheduled")

	job := NewCalibrationJob(&mockCalibrator{}, fixedPeriod(1), forecast.NewParamStore(nil), JobConfig{}, quietLogger())
	_, err := s.Schedule("not a cron", job)
	assert.Error(t, err)

	_, err = s.Schedule("0 6 * * 2", job)
	require.NoError(t, err)
	_, err = s.Schedule("0 7 * * 2", job)
	assert.ErrorContains(t, err, "already scheduled")

	syncJob := NewSyncJob(func(ctx context.Context) (*service.SyncStats, error) {
		return service.NewSyncStats(), nil
	}, 0, nil, quietLogger())
	_, err = s.Schedule("@hourly", syncJob)
	require.NoError(t, err)

	assert.True(t, s.NextRun("calibration").IsZero(), "no next run before start")
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.NextRun("calibration").IsZero())
	assert.True(t, s.NextRun("unknown").IsZero())
	assert.ElementsMatch(t, []string{"calibration", "sync"}, s.Jobs())

	_, err = s.Schedule("@daily", NewSyncJob(nil, 0, nil, quietLogger()))
	assert.Error(t, err, "cannot schedule while running")

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestCalibrationJobExecute(t *testing.T) {
	cal := &mockCalibrator{}
	cal.On("Calibrate", mock.Anything, mock.Anything).Return(betterResult(), nil).Once()
	job := NewCalibrationJob(cal, fixedPeriod(8), forecast.NewParamStore(nil), JobConfig{}, quietLogger())

	assert.Equal(t, "calibration", job.Name())
	assert.NoError(t, job.Execute(context.Background()))
	cal.AssertExpectations(t)
}

func TestSyncJob(t *testing.T) {
	calls := 0
	job := NewSyncJob(func(ctx context.Context) (*service.SyncStats, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("upstream down")
		}
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		st := service.NewSyncStats()
		st.Players = 3
		return st, nil
	}, time.Minute, nil, quietLogger())

	assert.Nil(t, job.LastStats())
	require.NoError(t, job.Execute(context.Background()))
	require.NotNil(t, job.LastStats())
	assert.Equal(t, 3, job.LastStats().Players)

	assert.ErrorContains(t, job.Execute(context.Background()), "upstream down")
	assert.Equal(t, 3, job.LastStats().Players)
}
