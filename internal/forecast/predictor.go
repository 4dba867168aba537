package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gojankovic/fpl-insights/internal/logger"
	"github.com/gojankovic/fpl-insights/internal/metrics"
	"github.com/gojankovic/fpl-insights/internal/models"
	"github.com/gojankovic/fpl-insights/internal/provider"
)

// Predictor computes (mean, std) expected points for one player and period
type Predictor struct {
	provider provider.Provider
	store    *ParamStore
	log      *logger.ForecastLogger
}

// NewPredictor creates a predictor reading defaults from store
func NewPredictor(p provider.Provider, store *ParamStore, log *logrus.Logger) *Predictor {
	if store == nil {
		store = NewParamStore(nil)
	}
	return &Predictor{
		provider: p,
		store:    store,
		log:      logger.NewForecastLogger(log),
	}
}

type predictOptions struct {
	params      *Parameters
	latestKnown *int
}

// Option customizes a single prediction call
type Option func(*predictOptions)

// WithParameters overrides the default parameter snapshot for one call
func WithParameters(p *Parameters) Option {
	return func(o *predictOptions) {
		o.params = p
	}
}

// WithLatestKnownPeriod supplies the session's latest finalized period so
// the provider is not asked for it on every call
func WithLatestKnownPeriod(period int) Option {
	return func(o *predictOptions) {
		o.latestKnown = &period
	}
}

// Breakdown exposes every intermediate of a prediction
type Breakdown struct {
	PlayerID        int             `json:"player_id"`
	Period          int             `json:"period"`
	Position        models.Position `json:"position"`
	Blank           bool            `json:"blank"`
	ExpectedMinutes float64         `json:"expected_minutes"`
	Baseline        Baseline        `json:"baseline"`
	CeilingUplift   float64         `json:"ceiling_uplift"`
	CreatorUplift   float64         `json:"creator_uplift"`
	Market          MarketNudges    `json:"market"`
	ForwardBlended  bool            `json:"forward_blended"`
	Rate            float64         `json:"rate"`
	RoleMultiplier  float64         `json:"role_multiplier"`
	Difficulties    []int           `json:"difficulties"`
	Contributions   []float64       `json:"contributions"`
	RawStd          float64         `json:"raw_std"`
	Mean            float64         `json:"mean"`
	Std             float64         `json:"std"`
}

// Result converts the breakdown into the public prediction pair
func (b *Breakdown) Result() models.PredictionResult {
	return models.PredictionResult{
		PlayerID: b.PlayerID,
		Period:   b.Period,
		Position: b.Position,
		Mean:     b.Mean,
		Std:      b.Std,
		Blank:    b.Blank,
	}
}

// Parameters returns the current default snapshot
func (p *Predictor) Parameters() *Parameters {
	return p.store.Current()
}

// LatestKnownPeriod asks the provider once for the latest finalized period
func (p *Predictor) LatestKnownPeriod(ctx context.Context) (int, error) {
	latest, err := p.provider.LatestPeriod(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve latest period: %w", err)
	}
	return latest, nil
}

// Predict returns (mean, std) for playerID in period.
// Blank periods yield (0,0) without error; unknown players yield models.ErrNotFound.
func (p *Predictor) Predict(ctx context.Context, playerID, period int, opts ...Option) (models.PredictionResult, error) {
	b, err := p.PredictDetailed(ctx, playerID, period, opts...)
	if err != nil {
		return models.PredictionResult{}, err
	}
	return b.Result(), nil
}

// PredictDetailed is Predict with every intermediate value exposed
func (p *Predictor) PredictDetailed(ctx context.Context, playerID, period int, opts ...Option) (*Breakdown, error) {
	start := time.Now()

	o := predictOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	// one snapshot per call
	params := o.params
	if params == nil {
		params = p.store.Current()
	}

	if period < 1 {
		return nil, models.NewValidationError("period", fmt.Sprintf("period %d must be positive", period), models.ErrInvalidPeriodRange)
	}

	player, err := p.provider.PlayerAttributes(ctx, playerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			metrics.RecordPredictionError("not_found")
		} else {
			metrics.RecordPredictionError("provider")
		}
		return nil, fmt.Errorf("predict player %d period %d: %w", playerID, period, err)
	}

	b := &Breakdown{PlayerID: playerID, Period: period, Position: player.Position}

	difficulties, err := p.provider.FixtureDifficulties(ctx, playerID, period)
	if err != nil {
		metrics.RecordPredictionError("provider")
		return nil, fmt.Errorf("fixtures for player %d period %d: %w", playerID, period, err)
	}
	b.Difficulties = difficulties
	if len(difficulties) == 0 {
		b.Blank = true
		p.log.LogBlankPeriod(playerID, period)
		metrics.RecordPrediction(player.Position.String(), true, time.Since(start).Seconds())
		return b, nil
	}

	long, err := p.provider.History(ctx, playerID, params.LongN(), period)
	if err != nil {
		metrics.RecordPredictionError("provider")
		return nil, fmt.Errorf("history for player %d before period %d: %w", playerID, period, err)
	}
	// providers should already enforce the cutoff
	long = models.FilterBefore(long, period)
	recent := long
	if len(recent) > params.RecentN() {
		recent = long[:params.RecentN()]
	}

	b.ExpectedMinutes = ExpectedMinutes(player, recent, params)
	b.Baseline = ComputeBaseline(player, long, recent, params)

	b.CeilingUplift = CeilingUplift(player, b.Baseline.SeasonPPG, b.Baseline.Samples, params)
	b.CreatorUplift = CreatorUplift(player, b.Baseline.Samples, params)
	b.Market = ComputeMarketNudges(recent, params)
	b.Rate = b.Baseline.Rate * b.CeilingUplift * b.CreatorUplift * b.Market.Multiplier()

	if player.EPNext != nil && *player.EPNext > 0 {
		latest := 0
		if o.latestKnown != nil {
			latest = *o.latestKnown
		} else if latest, err = p.LatestKnownPeriod(ctx); err != nil {
			return nil, err
		}
		b.Rate, b.ForwardBlended = ForwardBlend(b.Rate, player, period, latest, len(difficulties), params)
	}

	b.RoleMultiplier = RoleMultiplier(player, params)
	b.Contributions = FixtureContributions(b.Rate, b.ExpectedMinutes, difficulties, player, params)
	var total float64
	for _, c := range b.Contributions {
		total += c
	}

	b.RawStd = StdFromHistory(pointsOf(recent), total, params)
	b.Mean = math.Max(total, 0)
	b.Std = math.Max(b.RawStd*PositionStdMultiplier(player.Position), params.StdFloor)

	p.log.LogPrediction(playerID, period, player.Position.String(), b.Mean, b.Std, b.ExpectedMinutes, len(difficulties))
	metrics.RecordPrediction(player.Position.String(), false, time.Since(start).Seconds())
	return b, nil
}
