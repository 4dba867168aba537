package calibration

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/gojankovic/fpl-insights/internal/forecast"
	"github.com/gojankovic/fpl-insights/internal/metrics"
	"github.com/gojankovic/fpl-insights/internal/models"
)

// WorstMissCount is how many of the largest errors a backtest reports
const WorstMissCount = 15

// ErrorStats summarizes prediction errors (predicted - actual)
type ErrorStats struct {
	N    int     `json:"n"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	Bias float64 `json:"bias"`
}

// Miss is one evaluated row
type Miss struct {
	PlayerID  int             `json:"player_id"`
	Period    int             `json:"period"`
	Position  models.Position `json:"position"`
	Predicted float64         `json:"predicted"`
	Actual    float64         `json:"actual"`
	AbsError  float64         `json:"abs_error"`
}

// BacktestResult reports the default parameters' accuracy over a range
type BacktestResult struct {
	From       int                             `json:"period_from"`
	To         int                             `json:"period_to"`
	N          int                             `json:"n"`
	Overall    ErrorStats                      `json:"overall"`
	ByPosition [models.NumPositions]ErrorStats `json:"by_position"`
	Worst      []Miss                          `json:"worst"`
}

type errorAccumulator struct {
	n                  int
	sumAbs, sumSq, sum float64
}

func (a *errorAccumulator) add(e float64) {
	a.n++
	a.sumAbs += math.Abs(e)
	a.sumSq += e * e
	a.sum += e
}

func (a *errorAccumulator) stats() ErrorStats {
	if a.n == 0 {
		return ErrorStats{}
	}
	n := float64(a.n)
	return ErrorStats{
		N:    a.n,
		MAE:  a.sumAbs / n,
		RMSE: math.Sqrt(a.sumSq / n),
		Bias: a.sum / n,
	}
}

// Backtest predicts every observed row in [from, to] with the current
// defaults and reports error statistics
func (h *Harness) Backtest(ctx context.Context, from, to int) (*BacktestResult, error) {
	if err := models.ValidatePeriodRange(from, to); err != nil {
		return nil, err
	}

	rows, err := h.outcomes.Actuals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load actuals %d-%d: %w", from, to, err)
	}
	latest, err := h.outcomes.LatestPeriod(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve latest period: %w", err)
	}
	params := h.store.Current()

	var overall errorAccumulator
	var byPos [models.NumPositions]errorAccumulator
	misses := make([]Miss, 0, len(rows))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pred, err := h.forecaster.Predict(ctx, row.PlayerID, row.Period,
			forecast.WithParameters(params), forecast.WithLatestKnownPeriod(latest))
		if err != nil {
			return nil, err
		}
		e := pred.Mean - row.Points
		overall.add(e)
		if row.Position.Valid() {
			byPos[row.Position.Index()].add(e)
		}
		misses = append(misses, Miss{
			PlayerID:  row.PlayerID,
			Period:    row.Period,
			Position:  row.Position,
			Predicted: pred.Mean,
			Actual:    row.Points,
			AbsError:  math.Abs(e),
		})
	}

	sort.SliceStable(misses, func(a, b int) bool { return misses[a].AbsError > misses[b].AbsError })
	if len(misses) > WorstMissCount {
		misses = misses[:WorstMissCount]
	}

	result := &BacktestResult{
		From:    from,
		To:      to,
		N:       overall.n,
		Overall: overall.stats(),
		Worst:   misses,
	}
	for _, pos := range models.AllPositions {
		result.ByPosition[pos.Index()] = byPos[pos.Index()].stats()
		metrics.UpdateBacktestMAE(pos.String(), result.ByPosition[pos.Index()].MAE)
	}
	metrics.UpdateBacktestMAE("ALL", result.Overall.MAE)

	h.log.LogBacktestComplete(from, to, result.N, result.Overall.MAE, result.Overall.RMSE, result.Overall.Bias)
	return result, nil
}
