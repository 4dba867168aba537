package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gojankovic/fpl-insights/internal/calibration"
	"github.com/gojankovic/fpl-insights/internal/logger"
)

var (
	calFrom           int
	calTo             int
	calSampleSize     int
	calSeed           int64
	calWorkers        int
	calWrite          bool
	calMinImprovement float64
	calCSV            string
)

func init() {
	f := calibrateCmd.Flags()
	f.IntVar(&calFrom, "from", 0, "First period (default: start of the trailing window)")
	f.IntVar(&calTo, "to", 0, "Last period (default: latest observed)")
	f.IntVar(&calSampleSize, "sample-size", -1, "Rows to sample, 0 for all (default from config)")
	f.Int64Var(&calSeed, "seed", 0, "Sampling seed (default from config)")
	f.IntVar(&calWorkers, "workers", 0, "Parallel grid workers (default from config)")
	f.BoolVar(&calWrite, "write", false, "Write the best parameters back to the model parameter file")
	f.Float64Var(&calMinImprovement, "min-improvement", -1, "Minimum improvement percent to write back (default from config)")
	f.StringVar(&calCSV, "csv", "", "Write every evaluated cell to a CSV file")
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Grid-search model parameters against observed scores",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, finish := tracer.Start(cmd.Context(), "calibrate")
		defer func() { finish(err) }()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		from, to, err := a.trailingWindow(ctx, calFrom, calTo)
		if err != nil {
			return err
		}
		req := calibration.Request{
			From:       from,
			To:         to,
			SampleSize: cfg.Calibration.SampleSize,
			Seed:       cfg.Calibration.Seed,
		}
		if calSampleSize >= 0 {
			req.SampleSize = calSampleSize
		}
		if cmd.Flags().Changed("seed") {
			req.Seed = calSeed
		}

		result, err := a.harness("cli", calWorkers).Calibrate(ctx, req)
		if err != nil {
			return err
		}

		if calCSV != "" {
			if err := calibration.GenerateCalibrationCSV(result, calCSV); err != nil {
				return err
			}
			log.WithField("path", calCSV).Info("Calibration CSV written")
		}

		if calWrite {
			policy := calibration.WriteBackPolicy{
				Path:              cfg.Model.ParamsPath,
				MinImprovementPct: cfg.Scheduler.ImprovementThresholdPct,
				ChangedBy:         "cli",
			}
			if calMinImprovement >= 0 {
				policy.MinImprovementPct = calMinImprovement
			}
			applied, err := calibration.WriteBack(result, a.store, policy, logger.NewAuditLogger(log))
			if err != nil {
				return err
			}
			log.WithField("applied", applied).Info("Write-back evaluated")
		}

		if outputFormat == "json" {
			return writeJSON(os.Stdout, result)
		}
		fmt.Print(calibration.GenerateCalibrationReport(result))
		return nil
	},
}
