package calibration

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/gojankovic/fpl-insights/internal/models"
)

// GenerateCalibrationReport formats a calibration result for terminal output
func GenerateCalibrationReport(r *Result) string {
	var builder strings.Builder
	builder.WriteString("Player Model Calibration\n")
	builder.WriteString("========================\n")
	builder.WriteString(fmt.Sprintf("Run:          %s\n", r.RunID))
	builder.WriteString(fmt.Sprintf("Period range: %d-%d\n", r.From, r.To))
	builder.WriteString(fmt.Sprintf("Rows used:    %d\n", r.NRows))
	builder.WriteString(fmt.Sprintf("Baseline MAE: %.4f\n", r.BaselineError))
	builder.WriteString(fmt.Sprintf("Best MAE:     %.4f\n", r.BestError))
	builder.WriteString(fmt.Sprintf("Improvement:  %.2f%%\n\n", r.ImprovementPct))

	builder.WriteString("Top 5 Parameter Sets\n")
	tw := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tMAE\tw_season\tw_recent\tdecay\tshrink_k\tfix_mid\tdgw\t")
	for i, c := range r.Top5 {
		p := c.Params
		fmt.Fprintf(tw, "%d\t%.4f\t%.2f\t%.2f\t%.2f\t%.1f\t%.3f\t%.2f\t\n",
			i+1, c.MAE, p.WSeason, p.WRecent, p.RecentDecay, p.ShrinkK, p.FixtureWMID, p.DGWMinutesFactor)
	}
	tw.Flush()
	return builder.String()
}

// GenerateBacktestReport formats a backtest result for terminal output
func GenerateBacktestReport(r *BacktestResult) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Player Model Backtest GW%d-GW%d (n=%d)\n", r.From, r.To, r.N))

	tw := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Scope\tMAE\tRMSE\tBias\t")
	fmt.Fprintf(tw, "ALL\t%.3f\t%.3f\t%.3f\t\n", r.Overall.MAE, r.Overall.RMSE, r.Overall.Bias)
	for _, pos := range models.AllPositions {
		s := r.ByPosition[pos.Index()]
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t\n", pos, s.MAE, s.RMSE, s.Bias)
	}
	tw.Flush()

	builder.WriteString(fmt.Sprintf("\nWorst %d Misses\n", len(r.Worst)))
	tw = tabwriter.NewWriter(&builder, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "GW\tPlayer\tPos\tPred\tActual\tAbsErr\t")
	for _, m := range r.Worst {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.2f\t%.2f\t%.2f\t\n", m.Period, m.PlayerID, m.Position, m.Predicted, m.Actual, m.AbsError)
	}
	tw.Flush()
	return builder.String()
}

// GenerateCalibrationCSV exports every evaluated grid cell
func GenerateCalibrationCSV(r *Result, outputPath string) error {
	rows := [][]string{{"index", "mae", "recent_decay", "w_season", "w_recent", "w_anchor", "shrink_k", "fixture_w_mid", "dgw_minutes_factor"}}
	rows = append(rows, []string{"baseline", formatFloat(r.BaselineError), "", "", "", "", "", "", ""})
	for _, c := range r.Cells {
		p := c.Params
		rows = append(rows, []string{
			strconv.Itoa(c.Index),
			formatFloat(c.MAE),
			formatFloat(p.RecentDecay),
			formatFloat(p.WSeason),
			formatFloat(p.WRecent),
			formatFloat(p.WAnchor),
			formatFloat(p.ShrinkK),
			formatFloat(p.FixtureWMID),
			formatFloat(p.DGWMinutesFactor),
		})
	}
	return writeCSV(outputPath, rows)
}

// GenerateBacktestCSV exports the per-scope error table
func GenerateBacktestCSV(r *BacktestResult, outputPath string) error {
	rows := [][]string{{"scope", "n", "mae", "rmse", "bias"}}
	rows = append(rows, statsRow("ALL", r.Overall))
	for _, pos := range models.AllPositions {
		rows = append(rows, statsRow(pos.String(), r.ByPosition[pos.Index()]))
	}
	return writeCSV(outputPath, rows)
}

func statsRow(scope string, s ErrorStats) []string {
	return []string{scope, strconv.Itoa(s.N), formatFloat(s.MAE), formatFloat(s.RMSE), formatFloat(s.Bias)}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func writeCSV(outputPath string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return nil
}
