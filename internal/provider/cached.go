package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gojankovic/fpl-insights/internal/models"
)

// Cached wraps a Provider with a read-through cache. Errors are never cached.
type Cached struct {
	next   Provider
	cache  *ReadCache
	logger *logrus.Logger
}

// NewCached creates a new cached provider
func NewCached(next Provider, ttl time.Duration, maxSize int, logger *logrus.Logger) *Cached {
	return &Cached{
		next:   next,
		cache:  NewReadCache(ttl, maxSize),
		logger: logger,
	}
}

// Cache exposes the underlying cache for stats and invalidation
func (c *Cached) Cache() *ReadCache {
	return c.cache
}

// Next returns the wrapped provider
func (c *Cached) Next() Provider {
	return c.next
}

// Refresh forwards s to the wrapped provider when it can take it, then drops every cached read
func (c *Cached) Refresh(s *Snapshot) {
	if r, ok := c.next.(Refresher); ok {
		r.Refresh(s)
	}
	c.cache.Clear()
	c.logger.WithField("players", len(s.Players)).Debug("Provider cache cleared after refresh")
}

// PlayerAttributes implements Provider
func (c *Cached) PlayerAttributes(ctx context.Context, playerID int) (*models.PlayerAttributes, error) {
	key := CacheKey{Method: "player_attributes", Args: []int{playerID}}
	if v, ok := c.cache.Get(key); ok {
		p := *v.(*models.PlayerAttributes)
		return &p, nil
	}

	c.logger.WithField("cache_key", key.String()).Debug("Cache miss, reading from provider")
	p, err := c.next.PlayerAttributes(ctx, playerID)
	if err != nil {
		return nil, err
	}
	stored := *p
	c.cache.Set(key, &stored)
	return p, nil
}

// Players implements PlayerLister when the wrapped provider does
func (c *Cached) Players(ctx context.Context) ([]models.PlayerAttributes, error) {
	lister, ok := c.next.(PlayerLister)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrCannotList, c.next)
	}
	key := CacheKey{Method: "players"}
	if v, ok := c.cache.Get(key); ok {
		return append([]models.PlayerAttributes(nil), v.([]models.PlayerAttributes)...), nil
	}

	players, err := lister.Players(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, append([]models.PlayerAttributes(nil), players...))
	return players, nil
}

// History implements Provider
func (c *Cached) History(ctx context.Context, playerID, maxCount, beforePeriod int) ([]models.GameweekRecord, error) {
	key := CacheKey{Method: "history", Args: []int{playerID, maxCount, beforePeriod}}
	if v, ok := c.cache.Get(key); ok {
		return append([]models.GameweekRecord(nil), v.([]models.GameweekRecord)...), nil
	}

	records, err := c.next.History(ctx, playerID, maxCount, beforePeriod)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, append([]models.GameweekRecord(nil), records...))
	return records, nil
}

// FixtureDifficulties implements Provider
func (c *Cached) FixtureDifficulties(ctx context.Context, playerID, period int) ([]int, error) {
	key := CacheKey{Method: "fixtures", Args: []int{playerID, period}}
	if v, ok := c.cache.Get(key); ok {
		return append([]int{}, v.([]int)...), nil
	}

	difficulties, err := c.next.FixtureDifficulties(ctx, playerID, period)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, append([]int{}, difficulties...))
	return difficulties, nil
}

// Actuals implements Provider
func (c *Cached) Actuals(ctx context.Context, from, to int) ([]models.ActualOutcome, error) {
	key := CacheKey{Method: "actuals", Args: []int{from, to}}
	if v, ok := c.cache.Get(key); ok {
		return append([]models.ActualOutcome(nil), v.([]models.ActualOutcome)...), nil
	}

	rows, err := c.next.Actuals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, append([]models.ActualOutcome(nil), rows...))
	return rows, nil
}

// LatestPeriod implements Provider
func (c *Cached) LatestPeriod(ctx context.Context) (int, error) {
	key := CacheKey{Method: "latest_period"}
	if v, ok := c.cache.Get(key); ok {
		return v.(int), nil
	}

	latest, err := c.next.LatestPeriod(ctx)
	if err != nil {
		return 0, err
	}
	c.cache.Set(key, latest)
	return latest, nil
}

var (
	_ Provider  = (*Cached)(nil)
	_ Refresher = (*Cached)(nil)
	_ Refresher = (*Memory)(nil)

	_ PlayerLister = (*Cached)(nil)
	_ PlayerLister = (*Memory)(nil)
)
