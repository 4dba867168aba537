// Package main provides the fplcore CLI: player predictions, team simulation,
// calibration, backtesting and the long-running serve mode.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gojankovic/fpl-insights/internal/calibration"
	"github.com/gojankovic/fpl-insights/internal/config"
	"github.com/gojankovic/fpl-insights/internal/datasource"
	"github.com/gojankovic/fpl-insights/internal/forecast"
	"github.com/gojankovic/fpl-insights/internal/logger"
	"github.com/gojankovic/fpl-insights/internal/metrics"
	"github.com/gojankovic/fpl-insights/internal/models"
	"github.com/gojankovic/fpl-insights/internal/provider"
	"github.com/gojankovic/fpl-insights/internal/scheduler"
	"github.com/gojankovic/fpl-insights/internal/simulation"
	"github.com/gojankovic/fpl-insights/internal/tracing"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile   string
	outputFormat string
	cfg          *config.Config
	log          *logrus.Logger
	tracer       *tracing.Tracer
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text or json")

	rootCmd.AddCommand(predictCmd, simulateCmd, calibrateCmd, backtestCmd, serveCmd, syncCmd)
}

var rootCmd = &cobra.Command{
	Use:           "fplcore",
	Short:         "Expected points, team simulation and model calibration for FPL",
	Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat != "text" && outputFormat != "json" {
			return fmt.Errorf("unsupported output format %q", outputFormat)
		}

		var err error
		cfg, err = config.LoadAndValidate(cmd.Context(), configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		log.SetOutput(os.Stderr)
		metrics.InitRegistry()

		tracer, err = tracing.Initialize(tracing.Config{
			ServiceName:  cfg.App.Name,
			Enabled:      cfg.Tracing.Enabled,
			SamplingRate: cfg.Tracing.SamplingRate,
			DaemonAddr:   cfg.Tracing.DaemonAddr,
		}, log)
		return err
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the dependencies shared by subcommands
type app struct {
	provider  provider.Provider
	closeFn   func()
	store     *forecast.ParamStore
	predictor *forecast.Predictor
}

func buildApp(ctx context.Context) (*app, error) {
	params, err := forecast.LoadParameters(cfg.Model.ParamsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model parameters: %w", err)
	}
	store := forecast.NewParamStore(params)
	metrics.UpdateParameterVersion(store.Version())

	p, closeFn, err := datasource.NewFactory(cfg, log).NewProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	return &app{
		provider:  p,
		closeFn:   closeFn,
		store:     store,
		predictor: forecast.NewPredictor(p, store, log),
	}, nil
}

func (a *app) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func (a *app) simulator() *simulation.Simulator {
	return simulation.NewSimulator(a.predictor, simulation.Config{
		CorrelationWeights: models.PerPosition(cfg.CorrelationWeights()),
		MaxSamples:         cfg.Simulation.MaxSamples,
	}, log)
}

func (a *app) harness(trigger string, workers int) *calibration.Harness {
	if workers <= 0 {
		workers = cfg.Calibration.Workers
	}
	return calibration.NewHarness(a.predictor, a.provider, a.store, calibration.Config{
		Workers: workers,
		Trigger: trigger,
	}, log)
}

// trailingWindow fills an unset bound from the configured window ending at the latest observed period
func (a *app) trailingWindow(ctx context.Context, from, to int) (int, int, error) {
	if from > 0 && to > 0 {
		return from, to, nil
	}
	if to <= 0 {
		latest, err := a.provider.LatestPeriod(ctx)
		if err != nil {
			return 0, 0, err
		}
		to = latest
	}
	if from <= 0 {
		from, _ = scheduler.Window(to, cfg.Calibration.WindowPeriods)
	}
	return from, to, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
