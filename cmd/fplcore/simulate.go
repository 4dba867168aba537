package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gojankovic/fpl-insights/internal/forecast"
	"github.com/gojankovic/fpl-insights/internal/models"
	"github.com/gojankovic/fpl-insights/internal/simulation"
)

var (
	simTeamFile      string
	simStarting      []int
	simBench         []int
	simCaptain       int
	simVice          int
	simTripleCaptain bool
	simBenchBoost    bool
	simPeriod        int
	simSamples       int
	simSeed          int64
)

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simTeamFile, "team", "", "JSON file with the team composition")
	f.IntSliceVar(&simStarting, "starting", nil, "Starting player ids")
	f.IntSliceVar(&simBench, "bench", nil, "Bench player ids")
	f.IntVar(&simCaptain, "captain", 0, "Captain player id")
	f.IntVar(&simVice, "vice", 0, "Vice-captain player id")
	f.BoolVar(&simTripleCaptain, "triple-captain", false, "Play the triple captain chip")
	f.BoolVar(&simBenchBoost, "bench-boost", false, "Play the bench boost chip")
	f.IntVar(&simPeriod, "period", 0, "Target period (gameweek)")
	f.IntVar(&simSamples, "samples", 0, "Number of Monte Carlo samples (default from config)")
	f.Int64Var(&simSeed, "seed", 0, "Random seed (0 for time-based)")
	_ = simulateCmd.MarkFlagRequired("period")
}

func loadTeam() (models.TeamComposition, error) {
	var team models.TeamComposition
	if simTeamFile != "" {
		data, err := os.ReadFile(simTeamFile)
		if err != nil {
			return team, fmt.Errorf("failed to read team file: %w", err)
		}
		if err := json.Unmarshal(data, &team); err != nil {
			return team, fmt.Errorf("failed to parse team file: %w", err)
		}
		return team, nil
	}

	team = models.TeamComposition{
		Starting:      simStarting,
		Bench:         simBench,
		TripleCaptain: simTripleCaptain,
		BenchBoost:    simBenchBoost,
	}
	if simCaptain > 0 {
		c := simCaptain
		team.CaptainID = &c
	}
	if simVice > 0 {
		v := simVice
		team.ViceCaptainID = &v
	}
	return team, nil
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate a team's score distribution for a period",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, finish := tracer.Start(cmd.Context(), "simulate")
		defer func() { finish(err) }()

		team, err := loadTeam()
		if err != nil {
			return err
		}

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		latest, err := a.predictor.LatestKnownPeriod(ctx)
		if err != nil {
			return err
		}
		samples := simSamples
		if samples == 0 {
			samples = cfg.Simulation.DefaultSamples
		}

		outcome, err := a.simulator().Simulate(ctx, simulation.Request{
			Team:    team,
			Period:  simPeriod,
			Samples: samples,
			Seed:    simSeed,
			Options: []forecast.Option{forecast.WithLatestKnownPeriod(latest)},
		})
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			return writeJSON(os.Stdout, outcome.Summary())
		}
		fmt.Printf("GW%d team simulation (%d samples)\n", simPeriod, samples)
		fmt.Printf("  Expected: %.2f\n  Median:   %.2f\n  P25:      %.2f\n  P75:      %.2f\n  P90:      %.2f\n",
			outcome.Expected, outcome.Median, outcome.P25, outcome.P75, outcome.P90)
		return nil
	},
}
