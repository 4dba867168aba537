package provider

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gojankovic/fpl-insights/internal/models"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) PlayerAttributes(ctx context.Context, playerID int) (*models.PlayerAttributes, error) {
	args := m.Called(ctx, playerID)
	if p, ok := args.Get(0).(*models.PlayerAttributes); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) History(ctx context.Context, playerID, maxCount, beforePeriod int) ([]models.GameweekRecord, error) {
	args := m.Called(ctx, playerID, maxCount, beforePeriod)
	return args.Get(0).([]models.GameweekRecord), args.Error(1)
}

func (m *mockProvider) FixtureDifficulties(ctx context.Context, playerID, period int) ([]int, error) {
	args := m.Called(ctx, playerID, period)
	return args.Get(0).([]int), args.Error(1)
}

func (m *mockProvider) Actuals(ctx context.Context, from, to int) ([]models.ActualOutcome, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]models.ActualOutcome), args.Error(1)
}

func (m *mockProvider) LatestPeriod(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func seededMemory() *Memory {
	mem := NewMemory()
	mem.AddPlayer(models.PlayerAttributes{ID: 10, TeamID: 3, Position: models.PositionFWD, Price: decimal.NewFromFloat(7.5)})
	mem.AddPlayer(models.PlayerAttributes{ID: 11, TeamID: 4, Position: models.PositionGK})
	mem.AddHistory(10,
		models.GameweekRecord{Period: 1, Points: 2},
		models.GameweekRecord{Period: 3, Points: 8},
		models.GameweekRecord{Period: 2, Points: 5},
	)
	mem.AddHistory(11, models.GameweekRecord{Period: 2, Points: 6})
	mem.AddFixture(Fixture{Period: 4, HomeTeam: 3, AwayTeam: 4, HomeDifficulty: 2, AwayDifficulty: 5})
	mem.AddFixture(Fixture{Period: 4, HomeTeam: 6, AwayTeam: 3, HomeDifficulty: 3, AwayDifficulty: 4})
	return mem
}

func TestMemoryHistoryOrderingAndCutoff(t *testing.T) {
	mem := seededMemory()
	ctx := context.Background()

	all, err := mem.History(ctx, 10, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{3, 2, 1}, []int{all[0].Period, all[1].Period, all[2].Period})

	before, err := mem.History(ctx, 10, 10, 3)
	require.NoError(t, err)
	require.Len(t, before, 2)
	assert.Equal(t, 2, before[0].Period)

	limited, err := mem.History(ctx, 10, 1, 0)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := mem.History(ctx, 99, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryFixtureDifficulties(t *testing.T) {
	mem := seededMemory()
	ctx := context.Background()

	double, err := mem.FixtureDifficulties(ctx, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, double)

	single, err := mem.FixtureDifficulties(ctx, 11, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, single)

	blank, err := mem.FixtureDifficulties(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, blank)
}

func TestMemoryPlayerNotFound(t *testing.T) {
	_, err := seededMemory().PlayerAttributes(context.Background(), 404)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestMemoryActualsAndLatest(t *testing.T) {
	mem := seededMemory()
	ctx := context.Background()

	rows, err := mem.Actuals(ctx, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []models.ActualOutcome{
		{PlayerID: 10, Period: 2, Points: 5, Position: models.PositionFWD},
		{PlayerID: 10, Period: 3, Points: 8, Position: models.PositionFWD},
		{PlayerID: 11, Period: 2, Points: 6, Position: models.PositionGK},
	}, rows)

	_, err = mem.Actuals(ctx, 3, 2)
	assert.True(t, errors.Is(err, models.ErrInvalidPeriodRange))

	latest, err := mem.LatestPeriod(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, latest)
}

func TestLoadSnapshot(t *testing.T) {
	snapshot := Snapshot{
		Players:  []models.PlayerAttributes{{ID: 1, TeamID: 2, Position: models.PositionMID, Price: decimal.RequireFromString("6.5")}},
		History:  map[int][]models.GameweekRecord{1: {{Period: 1, Points: 7, Minutes: 90}}},
		Fixtures: []Fixture{{Period: 2, HomeTeam: 2, AwayTeam: 5, HomeDifficulty: 3, AwayDifficulty: 3}},
	}
	path := filepath.Join(t.TempDir(), "nested", "snapshot.json")
	require.NoError(t, WriteSnapshot(path, &snapshot))

	mem, err := LoadSnapshot(path)
	require.NoError(t, err)

	p, err := mem.PlayerAttributes(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.PositionMID, p.Position)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("6.5")))

	fx, err := mem.FixtureDifficulties(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, fx)

	_, err = LoadSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestCachedServesRepeatedReads(t *testing.T) {
	backing := &mockProvider{}
	backing.On("History", mock.Anything, 10, 60, 5).Return([]models.GameweekRecord{{Period: 4, Points: 3}}, nil).Once()
	backing.On("PlayerAttributes", mock.Anything, 10).Return(&models.PlayerAttributes{ID: 10}, nil).Once()
	backing.On("LatestPeriod", mock.Anything).Return(12, nil).Once()

	cached := NewCached(backing, time.Minute, 100, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		records, err := cached.History(ctx, 10, 60, 5)
		require.NoError(t, err)
		assert.Len(t, records, 1)

		p, err := cached.PlayerAttributes(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 10, p.ID)

		latest, err := cached.LatestPeriod(ctx)
		require.NoError(t, err)
		assert.Equal(t, 12, latest)
	}

	backing.AssertExpectations(t)
	hits, misses, ratio := cached.Cache().Stats()
	assert.Equal(t, uint64(6), hits)
	assert.Equal(t, uint64(3), misses)
	assert.InDelta(t, 6.0/9.0, ratio, 1e-12)
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	backing := &mockProvider{}
	backing.On("PlayerAttributes", mock.Anything, 5).Return(nil, models.PlayerNotFound(5)).Twice()

	cached := NewCached(backing, time.Minute, 100, testLogger())
	for i := 0; i < 2; i++ {
		_, err := cached.PlayerAttributes(context.Background(), 5)
		assert.True(t, errors.Is(err, models.ErrNotFound))
	}
	backing.AssertExpectations(t)
}

func TestCachedReturnsCopies(t *testing.T) {
	backing := &mockProvider{}
	backing.On("FixtureDifficulties", mock.Anything, 1, 2).Return([]int{3, 4}, nil).Once()
	cached := NewCached(backing, time.Minute, 100, testLogger())

	first, err := cached.FixtureDifficulties(context.Background(), 1, 2)
	require.NoError(t, err)
	first[0] = 1

	second, err := cached.FixtureDifficulties(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, second)
}

func TestReadCacheSizeLimit(t *testing.T) {
	rc := NewReadCache(time.Minute, 2)
	rc.Set(CacheKey{Method: "a"}, 1)
	rc.Set(CacheKey{Method: "b"}, 2)
	rc.Set(CacheKey{Method: "c"}, 3)
	assert.Equal(t, 2, rc.ItemCount())

	rc.Clear()
	assert.Equal(t, 0, rc.ItemCount())
}

func TestCachedRefreshReloadsMemory(t *testing.T) {
	mem := seededMemory()
	cached := NewCached(mem, time.Minute, 100, testLogger())
	ctx := context.Background()

	p, err := cached.PlayerAttributes(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, p.TeamID)

	cached.Refresh(&Snapshot{
		Players: []models.PlayerAttributes{{ID: 10, TeamID: 9, Position: models.PositionFWD}},
		History: map[int][]models.GameweekRecord{10: {{Period: 5, Points: 11}}},
	})
	assert.Equal(t, 0, cached.Cache().ItemCount())

	p, err = cached.PlayerAttributes(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 9, p.TeamID)

	_, err = cached.PlayerAttributes(ctx, 11)
	assert.ErrorIs(t, err, models.ErrNotFound)

	latest, err := mem.LatestPeriod(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, latest)
}

func TestCachedRefreshClearsNonRefreshable(t *testing.T) {
	backing := &mockProvider{}
	backing.On("LatestPeriod", mock.Anything).Return(7, nil).Twice()
	cached := NewCached(backing, time.Minute, 100, testLogger())
	assert.Same(t, Provider(backing), cached.Next())

	_, err := cached.LatestPeriod(context.Background())
	require.NoError(t, err)
	cached.Refresh(&Snapshot{})
	_, err = cached.LatestPeriod(context.Background())
	require.NoError(t, err)

	backing.AssertExpectations(t)
}

func TestPlayersListing(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	for _, id := range []int{30, 10, 20} {
		mem.AddPlayer(models.PlayerAttributes{ID: id, Position: models.PositionDEF})
	}

	players, err := mem.Players(ctx)
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, []int{10, 20, 30}, []int{players[0].ID, players[1].ID, players[2].ID})

	cached := NewCached(mem, time.Minute, 100, testLogger())
	first, err := cached.Players(ctx)
	require.NoError(t, err)
	first[0].ID = 999

	// the cached list is a copy, not the caller's slice
	second, err := cached.Players(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, second[0].ID)
	hits, _, _ := cached.Cache().Stats()
	assert.Equal(t, uint64(1), hits)

	cached.Refresh(&Snapshot{Players: []models.PlayerAttributes{{ID: 5, Position: models.PositionGK}}})
	refreshed, err := cached.Players(ctx)
	require.NoError(t, err)
	require.Len(t, refreshed, 1)
	assert.Equal(t, 5, refreshed[0].ID)

	_, err = NewCached(&mockProvider{}, time.Minute, 100, testLogger()).Players(ctx)
	assert.ErrorIs(t, err, ErrCannotList)
}
