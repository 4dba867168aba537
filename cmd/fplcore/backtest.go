package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gojankovic/fpl-insights/internal/calibration"
)

var (
	btFrom int
	btTo   int
	btCSV  string
)

func init() {
	backtestCmd.Flags().IntVar(&btFrom, "from", 0, "First period (default: start of the trailing window)")
	backtestCmd.Flags().IntVar(&btTo, "to", 0, "Last period (default: latest observed)")
	backtestCmd.Flags().StringVar(&btCSV, "csv", "", "Write error statistics to a CSV file")
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Score current parameters against observed points",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, finish := tracer.Start(cmd.Context(), "backtest")
		defer func() { finish(err) }()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		from, to, err := a.trailingWindow(ctx, btFrom, btTo)
		if err != nil {
			return err
		}
		result, err := a.harness("cli", 0).Backtest(ctx, from, to)
		if err != nil {
			return err
		}

		if btCSV != "" {
			if err := calibration.GenerateBacktestCSV(result, btCSV); err != nil {
				return err
			}
		}
		if outputFormat == "json" {
			return writeJSON(os.Stdout, result)
		}
		fmt.Print(calibration.GenerateBacktestReport(result))
		return nil
	},
}
