package calibration

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/gojankovic/fpl-insights/internal/forecast"
	"github.com/gojankovic/fpl-insights/internal/logger"
	"github.com/gojankovic/fpl-insights/internal/metrics"
	"github.com/gojankovic/fpl-insights/internal/models"
)

// Forecaster produces per-player predictions
type Forecaster interface {
	Predict(ctx context.Context, playerID, period int, opts ...forecast.Option) (models.PredictionResult, error)
}

// OutcomeSource supplies observed scores
type OutcomeSource interface {
	Actuals(ctx context.Context, from, to int) ([]models.ActualOutcome, error)
	LatestPeriod(ctx context.Context) (int, error)
}

// Config configures the harness
type Config struct {
	Workers int
	Grid    Grid
	// Trigger labels metrics, e.g. "cli" or "scheduler"
	Trigger string
}

// Request describes one calibration run
type Request struct {
	From       int
	To         int
	SampleSize int
	// Seed 0 draws a time-based seed
	Seed int64
}

// CellResult is the error of one evaluated parameter set
type CellResult struct {
	Index  int                  `json:"index"`
	Values map[string]float64   `json:"values"`
	Params *forecast.Parameters `json:"params"`
	MAE    float64              `json:"mae"`
}

// Result is the outcome of a calibration run
type Result struct {
	RunID          uuid.UUID            `json:"run_id"`
	From           int                  `json:"period_from"`
	To             int                  `json:"period_to"`
	SampleSize     int                  `json:"sample_size"`
	Seed           int64                `json:"seed"`
	NRows          int                  `json:"n_rows"`
	BaselineError  float64              `json:"baseline_error"`
	BestError      float64              `json:"best_error"`
	ImprovementPct float64              `json:"improvement_pct"`
	BestParams     *forecast.Parameters `json:"best_params"`
	BestValues     map[string]float64   `json:"best_values"`
	Top5           []CellResult         `json:"top5"`
	Cells          []CellResult         `json:"-"`
	Duration       time.Duration        `json:"duration"`
}

// Harness evaluates parameter grids against observed scores
type Harness struct {
	forecaster Forecaster
	outcomes   OutcomeSource
	store      *forecast.ParamStore
	cfg        Config
	log        *logger.CalibrationLogger
}

// NewHarness creates a harness. The store's base snapshot, not the latest
// write-back, is both the baseline and the origin of every grid cell.
func NewHarness(f Forecaster, outcomes OutcomeSource, store *forecast.ParamStore, cfg Config, log *logrus.Logger) *Harness {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if len(cfg.Grid.Dimensions) == 0 {
		cfg.Grid = DefaultGrid()
	}
	if cfg.Trigger == "" {
		cfg.Trigger = "cli"
	}
	if store == nil {
		store = forecast.NewParamStore(nil)
	}
	return &Harness{
		forecaster: f,
		outcomes:   outcomes,
		store:      store,
		cfg:        cfg,
		log:        logger.NewCalibrationLogger(log),
	}
}

// Validate rejects a request before any data is read
func (r Request) Validate() error {
	if err := models.ValidatePeriodRange(r.From, r.To); err != nil {
		return err
	}
	if r.SampleSize < 0 {
		return models.NewValidationError("sample_size", fmt.Sprintf("sample size must not be negative, got %d", r.SampleSize), models.ErrInvalidSampleCount)
	}
	return nil
}

// Calibrate scores the baseline and every grid cell on the same rows
func (h *Harness) Calibrate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := h.calibrate(ctx, req, start)
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.RecordCalibrationRun(h.cfg.Trigger, status, time.Since(start).Seconds())
	return result, err
}

func (h *Harness) calibrate(ctx context.Context, req Request, start time.Time) (*Result, error) {
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rows, err := h.outcomes.Actuals(ctx, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("load actuals %d-%d: %w", req.From, req.To, err)
	}
	rows = SampleRows(rows, req.SampleSize, seed)

	latest, err := h.outcomes.LatestPeriod(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve latest period: %w", err)
	}

	baseline := h.store.Base()
	cells := h.cfg.Grid.Cells(baseline)

	result := &Result{
		RunID:      uuid.New(),
		From:       req.From,
		To:         req.To,
		SampleSize: req.SampleSize,
		Seed:       seed,
		NRows:      len(rows),
	}
	h.log.LogCalibrationStart(result.RunID.String(), req.From, req.To, len(rows), len(cells))

	// slot 0 is the baseline, slots 1..n the grid cells
	errs := make([]float64, len(cells)+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.Workers)
	for i := 0; i <= len(cells); i++ {
		i := i
		params := baseline
		if i > 0 {
			params = cells[i-1].Params
		}
		g.Go(func() error {
			mae, err := h.meanAbsoluteError(gctx, params, rows, latest)
			if err != nil {
				return err
			}
			errs[i] = mae
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scored := make([]CellResult, len(cells))
	for i, c := range cells {
		scored[i] = CellResult{Index: c.Index, Values: c.Values, Params: c.Params, MAE: errs[i+1]}
		h.log.LogCellEvaluated(result.RunID.String(), c.Index, errs[i+1], c.Values)
	}
	result.Cells = scored

	ranked := append([]CellResult(nil), scored...)
	// stable: on equal error the earlier cell wins
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].MAE < ranked[b].MAE })

	result.BaselineError = errs[0]
	result.BestError = result.BaselineError
	result.BestParams = baseline.Clone()
	if len(ranked) > 0 {
		result.BestError = ranked[0].MAE
		result.BestParams = ranked[0].Params
		result.BestValues = ranked[0].Values
	}
	if result.BaselineError > 0 {
		result.ImprovementPct = (result.BaselineError - result.BestError) / result.BaselineError * 100
	}
	top := 5
	if len(ranked) < top {
		top = len(ranked)
	}
	result.Top5 = ranked[:top]
	result.Duration = time.Since(start)

	metrics.UpdateCalibrationErrors(result.BaselineError, result.BestError)
	h.log.LogCalibrationComplete(result.RunID.String(), result.BaselineError, result.BestError, result.ImprovementPct, float64(result.Duration.Milliseconds()))
	return result, nil
}

func (h *Harness) meanAbsoluteError(ctx context.Context, params *forecast.Parameters, rows []models.ActualOutcome, latest int) (float64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	var sum float64
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		pred, err := h.forecaster.Predict(ctx, row.PlayerID, row.Period,
			forecast.WithParameters(params), forecast.WithLatestKnownPeriod(latest))
		if err != nil {
			return 0, err
		}
		sum += math.Abs(pred.Mean - row.Points)
	}
	return sum / float64(len(rows)), nil
}

// SampleRows returns a seeded random subset of size n, or rows unchanged
// when n is 0 or not smaller than len(rows)
func SampleRows(rows []models.ActualOutcome, n int, seed int64) []models.ActualOutcome {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	rng := rand.New(rand.NewSource(seed))
	pool := append([]models.ActualOutcome(nil), rows...)
	// partial Fisher-Yates
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
