// Package simulation aggregates player forecasts into a team score distribution.
package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gojankovic/fpl-insights/internal/forecast"
	"github.com/gojankovic/fpl-insights/internal/logger"
	"github.com/gojankovic/fpl-insights/internal/metrics"
	"github.com/gojankovic/fpl-insights/internal/models"
)

// DefaultCorrelationWeights is the share of each position's spread driven by
// noise common to every player of that position
var DefaultCorrelationWeights = models.PerPosition{0.15, 0.12, 0.08, 0.08}

// Forecaster produces per-player predictions
type Forecaster interface {
	Predict(ctx context.Context, playerID, period int, opts ...forecast.Option) (models.PredictionResult, error)
}

// Config configures the simulator
type Config struct {
	CorrelationWeights models.PerPosition
	MaxSamples         int
}

// DefaultConfig returns the standard simulator configuration
func DefaultConfig() Config {
	return Config{
		CorrelationWeights: DefaultCorrelationWeights,
		MaxSamples:         1_000_000,
	}
}

// Request describes one simulation call
type Request struct {
	Team    models.TeamComposition
	Period  int
	Samples int
	// Seed 0 draws a time-based seed
	Seed int64
	// Options are forwarded to every player prediction
	Options []forecast.Option
}

// Detail carries the per-player inputs and draws behind an outcome
type Detail struct {
	Outcome       *models.SimulationOutcome
	Predictions   map[int]models.PredictionResult
	PlayerSamples map[int][]float64
	Seed          int64
}

// Simulator runs Monte Carlo team simulations
type Simulator struct {
	forecaster Forecaster
	cfg        Config
	log        *logger.ForecastLogger
}

// NewSimulator creates a simulator
func NewSimulator(f Forecaster, cfg Config, log *logrus.Logger) *Simulator {
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = DefaultConfig().MaxSamples
	}
	return &Simulator{
		forecaster: f,
		cfg:        cfg,
		log:        logger.NewForecastLogger(log),
	}
}

// Simulate returns the team-total distribution for req
func (s *Simulator) Simulate(ctx context.Context, req Request) (*models.SimulationOutcome, error) {
	d, err := s.SimulateDetailed(ctx, req)
	if err != nil {
		return nil, err
	}
	return d.Outcome, nil
}

// SimulateDetailed is Simulate with the per-player draws retained
func (s *Simulator) SimulateDetailed(ctx context.Context, req Request) (*Detail, error) {
	start := time.Now()
	if err := s.validate(req); err != nil {
		return nil, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	n := req.Samples

	// one shared standard-normal vector per position, drawn before any player
	var shared [models.NumPositions][]float64
	for _, pos := range models.AllPositions {
		shared[pos.Index()] = standardNormals(rng, n)
	}

	contributors := req.Team.Contributors()
	predictions := make(map[int]models.PredictionResult, len(contributors))
	playerSamples := make(map[int][]float64, len(contributors))
	for _, id := range contributors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pred, err := s.forecaster.Predict(ctx, id, req.Period, req.Options...)
		if err != nil {
			return nil, fmt.Errorf("simulate period %d: %w", req.Period, err)
		}
		predictions[id] = pred

		w := s.cfg.CorrelationWeights.Get(pred.Position)
		playerSamples[id] = correlatedSamples(rng, pred.Mean, pred.Std, w, shared[pred.Position.Index()])
	}

	total := Aggregate(req.Team, playerSamples, n)
	outcome := Summarize(total)

	durationMs := float64(time.Since(start).Microseconds()) / 1000
	s.log.LogSimulation(req.Period, len(contributors), n, outcome.Expected, outcome.P90, durationMs)
	metrics.RecordSimulation(n, time.Since(start).Seconds())

	return &Detail{
		Outcome:       outcome,
		Predictions:   predictions,
		PlayerSamples: playerSamples,
		Seed:          seed,
	}, nil
}

func (s *Simulator) validate(req Request) error {
	if req.Samples <= 0 {
		return models.NewValidationError("samples", fmt.Sprintf("sample count must be positive, got %d", req.Samples), models.ErrInvalidSampleCount)
	}
	if req.Samples > s.cfg.MaxSamples {
		return models.NewValidationError("samples", fmt.Sprintf("sample count %d exceeds limit %d", req.Samples, s.cfg.MaxSamples), models.ErrInvalidSampleCount)
	}
	if req.Period < 1 {
		return models.NewValidationError("period", fmt.Sprintf("period %d must be positive", req.Period), models.ErrInvalidPeriodRange)
	}
	return req.Team.Validate()
}

func standardNormals(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

// correlatedSamples draws mean + idiosyncratic + shared noise, clipped at 0.
// Non-positive means yield zeros without consuming draws.
func correlatedSamples(rng *rand.Rand, mean, std, weight float64, shared []float64) []float64 {
	out := make([]float64, len(shared))
	if mean <= 0 {
		return out
	}
	sharedStd := std * weight
	idioStd := math.Sqrt(math.Max(std*std-sharedStd*sharedStd, 0))
	for i, z := range shared {
		v := mean + idioStd*rng.NormFloat64() + z*sharedStd
		out[i] = math.Max(v, 0)
	}
	return out
}

// Aggregate sums contributor samples and applies captaincy. The vice's draw
// replaces the captain's only where the captain's draw is exactly 0.
func Aggregate(team models.TeamComposition, playerSamples map[int][]float64, n int) []float64 {
	total := make([]float64, n)
	for _, id := range team.Contributors() {
		for i, v := range playerSamples[id] {
			total[i] += v
		}
	}

	if team.CaptainID == nil {
		return total
	}
	captain, ok := playerSamples[*team.CaptainID]
	if !ok {
		return total
	}
	var vice []float64
	if team.ViceCaptainID != nil {
		vice = playerSamples[*team.ViceCaptainID]
	}

	extra := team.CaptainMultiplier() - 1
	for i, c := range captain {
		effective := c
		if c == 0 && vice != nil {
			effective = vice[i]
		}
		total[i] += extra * effective
	}
	return total
}

// Summarize computes the outcome statistics, keeping samples in draw order
func Summarize(samples []float64) *models.SimulationOutcome {
	out := &models.SimulationOutcome{Samples: samples}
	if len(samples) == 0 {
		return out
	}

	var sum float64
	for _, v := range samples {
		sum += v
	}
	out.Expected = sum / float64(len(samples))

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	out.Median = Percentile(sorted, 50)
	out.P25 = Percentile(sorted, 25)
	out.P75 = Percentile(sorted, 75)
	out.P90 = Percentile(sorted, 90)
	return out
}

// Percentile returns the q-th percentile (0-100) of sorted data using
// linear interpolation between closest ranks
func Percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi >= len(sorted) {
		hi = len(sorted) - 1
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// SampleNormal draws n samples of a single player's score, clipped at 0
func SampleNormal(mean, std float64, n int, seed int64) []float64 {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Max(mean+std*rng.NormFloat64(), 0)
	}
	return out
}
