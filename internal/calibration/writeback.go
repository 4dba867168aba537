package calibration

import (
	"fmt"
	"time"

	"github.com/gojankovic/fpl-insights/internal/forecast"
	"github.com/gojankovic/fpl-insights/internal/logger"
	"github.com/gojankovic/fpl-insights/internal/metrics"
)

// WriteBackPolicy controls when a calibration result replaces the defaults
type WriteBackPolicy struct {
	Path string
	// MinImprovementPct is the smallest improvement over baseline that is applied
	MinImprovementPct float64
	ChangedBy         string
}

// ChangedValues lists the parameters whose value differs between base and next
func ChangedValues(base, next *forecast.Parameters) map[string]float64 {
	before := base.ToMap()
	changed := make(map[string]float64)
	for k, v := range next.ToMap() {
		if before[k] != v {
			changed[k] = v
		}
	}
	return changed
}

// WriteBack persists the best parameters and swaps them into the store when
// the run beat the baseline by at least the policy threshold. It reports
// whether the parameters were applied.
func WriteBack(result *Result, store *forecast.ParamStore, policy WriteBackPolicy, audit *logger.AuditLogger) (bool, error) {
	runID := result.RunID.String()
	switch {
	case result.BestParams == nil:
		audit.LogWriteBackSkipped(runID, "no best parameters", result.ImprovementPct)
		return false, nil
	case result.BestError >= result.BaselineError:
		audit.LogWriteBackSkipped(runID, "baseline not beaten", result.ImprovementPct)
		return false, nil
	case result.ImprovementPct < policy.MinImprovementPct:
		audit.LogWriteBackSkipped(runID, fmt.Sprintf("improvement below %.2f%%", policy.MinImprovementPct), result.ImprovementPct)
		return false, nil
	}

	changed := ChangedValues(store.Current(), result.BestParams)
	if err := forecast.SaveParameters(policy.Path, result.BestParams); err != nil {
		return false, fmt.Errorf("write back run %s: %w", runID, err)
	}
	audit.LogParameterWriteBack(runID, policy.Path, changed, result.ImprovementPct, time.Now())

	if err := store.Replace(result.BestParams); err != nil {
		return false, fmt.Errorf("replace parameters for run %s: %w", runID, err)
	}
	metrics.UpdateParameterVersion(store.Version())
	audit.LogParameterReplace(store.Version(), policy.ChangedBy)
	return true, nil
}
