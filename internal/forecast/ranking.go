package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gojankovic/fpl-insights/internal/models"
	"github.com/gojankovic/fpl-insights/internal/provider"
)

const (
	DefaultRankTopN     = 10
	DefaultRankPoolSize = 250
	rankConcurrency     = 4
)

// RankRequest selects the players and period range to rank
type RankRequest struct {
	From int
	To   int
	// TopN <= 0 keeps every ranked player
	TopN int
	// PlayerIDs fixes the pool. When empty the provider's player list is used,
	// ordered by points per game and cut to PoolSize (0 keeps all).
	PlayerIDs          []int
	PoolSize           int
	IncludeUnavailable bool
}

// Validate rejects a request before any data is read
func (r RankRequest) Validate() error {
	if err := models.ValidatePeriodRange(r.From, r.To); err != nil {
		return err
	}
	if r.PoolSize < 0 {
		return models.NewValidationError("pool_size", fmt.Sprintf("pool size must not be negative, got %d", r.PoolSize), models.ErrInvalidSampleCount)
	}
	return nil
}

// PeriodPoints is one period of a ranked player's outlook
type PeriodPoints struct {
	Period       int     `json:"period"`
	Points       float64 `json:"points"`
	Difficulties []int   `json:"difficulties"`
}

// RankedPlayer is a player's predicted total over the requested range
type RankedPlayer struct {
	PlayerID  int             `json:"player_id"`
	WebName   string          `json:"web_name"`
	TeamID    int             `json:"team_id"`
	Position  models.Position `json:"position"`
	Status    string          `json:"status"`
	Total     float64         `json:"predicted_total"`
	PerPeriod []PeriodPoints  `json:"per_period"`
}

// RankPlayers predicts every pool player for each period in [From, To] and
// returns them by descending total, ties broken by player ID
func (p *Predictor) RankPlayers(ctx context.Context, req RankRequest, opts ...Option) ([]RankedPlayer, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pool, err := p.rankPool(ctx, req)
	if err != nil {
		return nil, err
	}

	o := predictOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.latestKnown == nil {
		latest, err := p.LatestKnownPeriod(ctx)
		if err != nil {
			return nil, err
		}
		// caller options still win
		opts = append([]Option{WithLatestKnownPeriod(latest)}, opts...)
	}

	ranked := make([]RankedPlayer, len(pool))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rankConcurrency)
	for i := range pool {
		i := i
		g.Go(func() error {
			player := pool[i]
			r := RankedPlayer{
				PlayerID:  player.ID,
				WebName:   player.WebName,
				TeamID:    player.TeamID,
				Position:  player.Position,
				Status:    player.Status,
				PerPeriod: make([]PeriodPoints, 0, req.To-req.From+1),
			}
			for period := req.From; period <= req.To; period++ {
				b, err := p.PredictDetailed(gctx, player.ID, period, opts...)
				if err != nil {
					return err
				}
				r.PerPeriod = append(r.PerPeriod, PeriodPoints{Period: period, Points: b.Mean, Difficulties: b.Difficulties})
				r.Total += b.Mean
			}
			ranked[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].Total != ranked[b].Total {
			return ranked[a].Total > ranked[b].Total
		}
		return ranked[a].PlayerID < ranked[b].PlayerID
	})
	if req.TopN > 0 && len(ranked) > req.TopN {
		ranked = ranked[:req.TopN]
	}

	p.log.LogRanking(req.From, req.To, len(pool), len(ranked), float64(time.Since(start).Milliseconds()))
	return ranked, nil
}

func (p *Predictor) rankPool(ctx context.Context, req RankRequest) ([]models.PlayerAttributes, error) {
	var pool []models.PlayerAttributes
	if len(req.PlayerIDs) > 0 {
		seen := make(map[int]bool, len(req.PlayerIDs))
		for _, id := range req.PlayerIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			player, err := p.provider.PlayerAttributes(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("rank player %d: %w", id, err)
			}
			pool = append(pool, *player)
		}
	} else {
		lister, ok := p.provider.(provider.PlayerLister)
		if !ok {
			return nil, fmt.Errorf("%w: %T", provider.ErrCannotList, p.provider)
		}
		players, err := lister.Players(ctx)
		if err != nil {
			return nil, fmt.Errorf("list players: %w", err)
		}
		pool = players
	}

	out := pool[:0:0]
	for _, player := range pool {
		if !req.IncludeUnavailable && player.IsUnavailable() {
			continue
		}
		out = append(out, player)
	}

	if len(req.PlayerIDs) == 0 {
		sort.SliceStable(out, func(a, b int) bool { return out[a].PointsPerGame > out[b].PointsPerGame })
		if req.PoolSize > 0 && len(out) > req.PoolSize {
			out = out[:req.PoolSize]
		}
	}
	return out, nil
}
