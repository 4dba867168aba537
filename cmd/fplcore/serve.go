package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gojankovic/fpl-insights/internal/calibration"
	"github.com/gojankovic/fpl-insights/internal/config"
	"github.com/gojankovic/fpl-insights/internal/datasource"
	"github.com/gojankovic/fpl-insights/internal/health"
	"github.com/gojankovic/fpl-insights/internal/provider"
	"github.com/gojankovic/fpl-insights/internal/repository"
	"github.com/gojankovic/fpl-insights/internal/scheduler"
	"github.com/gojankovic/fpl-insights/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run health and metrics endpoints and the scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := health.NewServer(health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Port:        cfg.Metrics.Port,
			MetricsPath: cfg.Metrics.Path,
			Logger:      log,
			Checks: map[string]health.Checker{
				"provider": health.CheckFunc(func(ctx context.Context) error {
					_, err := a.provider.LatestPeriod(ctx)
					return err
				}),
				"parameters": health.CheckFunc(func(ctx context.Context) error {
					return a.store.Current().Validate()
				}),
			},
		})
		if cfg.Metrics.Enabled {
			if err := srv.Start(ctx); err != nil {
				return err
			}
		}

		if !cfg.Scheduler.Enabled {
			srv.SetReady(true)
			log.Info("Scheduler disabled, serving health endpoints only")
			<-ctx.Done()
			return nil
		}

		sched := scheduler.NewScheduler(log)
		if cfg.Scheduler.CalibrationCron != "" {
			job := scheduler.NewCalibrationJob(a.harness("scheduler", 0), a.provider, a.store, scheduler.JobConfig{
				WindowPeriods: cfg.Calibration.WindowPeriods,
				SampleSize:    cfg.Calibration.SampleSize,
				Seed:          cfg.Calibration.Seed,
				WriteBack:     cfg.Scheduler.WriteBack,
				Policy: calibration.WriteBackPolicy{
					Path:              cfg.Model.ParamsPath,
					MinImprovementPct: cfg.Scheduler.ImprovementThresholdPct,
				},
				Timeout: time.Duration(cfg.Scheduler.TimeoutMinutes) * time.Minute,
				Tracer:  tracer,
			}, log)
			if _, err := sched.Schedule(cfg.Scheduler.CalibrationCron, job); err != nil {
				return err
			}
		}
		if cfg.Scheduler.SyncCron != "" {
			job, closeFn, err := a.syncJob()
			if err != nil {
				return err
			}
			defer closeFn()
			if _, err := sched.Schedule(cfg.Scheduler.SyncCron, job); err != nil {
				return err
			}
		}

		srv.SetReady(true)
		return sched.RunUntil(ctx)
	},
}

// syncJob builds a job that pulls the API into the configured store and
// refreshes the live provider afterwards
func (a *app) syncJob() (*scheduler.SyncJob, func(), error) {
	client := datasource.NewFactory(cfg, log).NewFPLClient()
	svc := service.NewSyncService(client, service.NewDataValidator(log), log)
	if r, ok := a.provider.(provider.Refresher); ok {
		svc.SetRefresher(r)
	}

	backing := a.provider
	if c, ok := backing.(*provider.Cached); ok {
		backing = c.Next()
	}

	var fn scheduler.SyncFunc
	switch cfg.Provider.Kind {
	case config.ProviderPostgres:
		w, ok := backing.(repository.PlayerWriter)
		if !ok {
			return nil, nil, fmt.Errorf("postgres provider is not writable")
		}
		fn = func(ctx context.Context) (*service.SyncStats, error) {
			return svc.SyncToStore(ctx, w)
		}
	case config.ProviderMemory:
		path := cfg.Provider.SnapshotPath
		fn = func(ctx context.Context) (*service.SyncStats, error) {
			return svc.SyncToFile(ctx, path)
		}
	default:
		return nil, nil, fmt.Errorf("sync is not supported for provider %s", cfg.Provider.Kind)
	}

	timeout := time.Duration(cfg.Scheduler.TimeoutMinutes) * time.Minute
	return scheduler.NewSyncJob(fn, timeout, tracer, log), func() { _ = client.Close() }, nil
}
