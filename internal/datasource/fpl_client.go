package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/gojankovic/fpl-insights/internal/metrics"
	"github.com/gojankovic/fpl-insights/internal/models"
	"github.com/gojankovic/fpl-insights/internal/provider"
)

const (
	sourceFPLAPI = "fpl_api"

	// DefaultBaseURL is the public FPL API root
	DefaultBaseURL = "https://fantasy.premierleague.com/api"

	defaultBootstrapTTL = 10 * time.Minute
	summaryConcurrency  = 4
)

// FPLClient reads players, fixtures and history from the public FPL API and implements provider.Provider
type FPLClient struct {
	http    *RateLimitedHTTPClient
	baseURL string
	logger  *logrus.Logger

	mu           sync.RWMutex
	players      map[int]models.PlayerAttributes
	playerIDs    []int
	fixtures     []provider.Fixture
	latest       int
	loadedAt     time.Time
	bootstrapTTL time.Duration
}

// NewFPLClient creates a new FPL API client
func NewFPLClient(httpClient *RateLimitedHTTPClient, baseURL string, logger *logrus.Logger) *FPLClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FPLClient{
		http:         httpClient,
		baseURL:      strings.TrimRight(baseURL, "/"),
		logger:       logger,
		bootstrapTTL: defaultBootstrapTTL,
	}
}

// Close releases idle connections
func (c *FPLClient) Close() error {
	return c.http.Close()
}

func (c *FPLClient) getJSON(ctx context.Context, method, path string, out interface{}, notFound error) error {
	start := time.Now()
	defer func() {
		metrics.RecordProviderRequest(sourceFPLAPI, method, time.Since(start).Seconds())
	}()

	resp, err := c.http.Get(ctx, c.baseURL+path)
	if err != nil {
		return NewDataSourceError(sourceFPLAPI, ErrCodeNetworkError, "failed to fetch "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(sourceFPLAPI, resp.StatusCode, notFound)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewDataSourceError(sourceFPLAPI, ErrCodeInvalidData, "failed to parse "+path, err)
	}
	return nil
}

// Refresh reloads bootstrap-static and the fixture list
func (c *FPLClient) Refresh(ctx context.Context) error {
	var static bootstrapStatic
	if err := c.getJSON(ctx, "bootstrap", "/bootstrap-static/", &static, models.ErrNotFound); err != nil {
		return err
	}
	var fixtures []provider.Fixture
	if err := c.getJSON(ctx, "fixtures", "/fixtures/", &fixtures, models.ErrNotFound); err != nil {
		return err
	}

	players := make(map[int]models.PlayerAttributes, len(static.Elements))
	ids := make([]int, 0, len(static.Elements))
	for _, e := range static.Elements {
		p, err := e.toModel()
		if err != nil {
			c.logger.WithError(err).WithField("player_id", e.ID).Warn("Skipping element with unknown position")
			continue
		}
		players[p.ID] = p
		ids = append(ids, p.ID)
	}
	sort.Ints(ids)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.players = players
	c.playerIDs = ids
	c.fixtures = fixtures
	c.latest = latestFinished(static.Events)
	c.loadedAt = time.Now()

	c.logger.WithFields(logrus.Fields{
		"players":  len(players),
		"fixtures": len(fixtures),
		"latest":   c.latest,
	}).Info("Loaded FPL bootstrap data")
	return nil
}

func (c *FPLClient) ensureLoaded(ctx context.Context) error {
	c.mu.RLock()
	fresh := c.players != nil && time.Since(c.loadedAt) < c.bootstrapTTL
	c.mu.RUnlock()
	if fresh {
		return nil
	}
	return c.Refresh(ctx)
}

// PlayerAttributes implements provider.Provider
func (c *FPLClient) PlayerAttributes(ctx context.Context, playerID int) (*models.PlayerAttributes, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.players[playerID]
	if !ok {
		return nil, models.PlayerNotFound(playerID)
	}
	return &p, nil
}

// Players implements provider.PlayerLister from the cached bootstrap
func (c *FPLClient) Players(ctx context.Context) ([]models.PlayerAttributes, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.PlayerAttributes, 0, len(c.playerIDs))
	for _, id := range c.playerIDs {
		out = append(out, c.players[id])
	}
	return out, nil
}

func (c *FPLClient) summary(ctx context.Context, playerID int) ([]models.GameweekRecord, error) {
	var s elementSummary
	path := fmt.Sprintf("/element-summary/%d/", playerID)
	if err := c.getJSON(ctx, "element_summary", path, &s, models.PlayerNotFound(playerID)); err != nil {
		return nil, err
	}
	return aggregateHistory(s.History), nil
}

// History implements provider.Provider
func (c *FPLClient) History(ctx context.Context, playerID, maxCount, beforePeriod int) ([]models.GameweekRecord, error) {
	records, err := c.summary(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return filterHistory(records, maxCount, beforePeriod), nil
}

// FixtureDifficulties implements provider.Provider
func (c *FPLClient) FixtureDifficulties(ctx context.Context, playerID, period int) ([]int, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.players[playerID]
	if !ok {
		return []int{}, nil
	}
	return difficultiesFor(c.fixtures, p.TeamID, period), nil
}

// LatestPeriod implements provider.Provider
func (c *FPLClient) LatestPeriod(ctx context.Context) (int, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, nil
}

// allHistory fetches every player's summary with bounded concurrency
func (c *FPLClient) allHistory(ctx context.Context) ([]int, map[int][]models.GameweekRecord, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, nil, err
	}
	c.mu.RLock()
	ids := append([]int(nil), c.playerIDs...)
	c.mu.RUnlock()

	histories := make([][]models.GameweekRecord, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			records, err := c.summary(gctx, id)
			if err != nil {
				return fmt.Errorf("history for player %d: %w", id, err)
			}
			histories[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := make(map[int][]models.GameweekRecord, len(ids))
	for i, id := range ids {
		out[id] = histories[i]
	}
	return ids, out, nil
}

// Actuals implements provider.Provider. It fetches one summary per player.
func (c *FPLClient) Actuals(ctx context.Context, from, to int) ([]models.ActualOutcome, error) {
	if err := models.ValidatePeriodRange(from, to); err != nil {
		return nil, err
	}
	ids, histories, err := c.allHistory(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ActualOutcome, 0)
	for _, id := range ids {
		records := histories[id]
		for i := len(records) - 1; i >= 0; i-- {
			r := records[i]
			if r.Period < from || r.Period > to {
				continue
			}
			out = append(out, models.ActualOutcome{
				PlayerID: id,
				Period:   r.Period,
				Points:   r.Points,
				Position: c.players[id].Position,
			})
		}
	}
	return out, nil
}

// Snapshot captures players, fixtures and full history for offline use
func (c *FPLClient) Snapshot(ctx context.Context) (*provider.Snapshot, error) {
	ids, histories, err := c.allHistory(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := &provider.Snapshot{
		Players:  make([]models.PlayerAttributes, 0, len(ids)),
		History:  histories,
		Fixtures: append([]provider.Fixture(nil), c.fixtures...),
	}
	for _, id := range ids {
		snap.Players = append(snap.Players, c.players[id])
	}
	return snap, nil
}

var (
	_ provider.Provider     = (*FPLClient)(nil)
	_ provider.PlayerLister = (*FPLClient)(nil)
)
