package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gojankovic/fpl-insights/internal/service"
	"github.com/gojankovic/fpl-insights/internal/tracing"
)

// SyncFunc persists one fresh snapshot, e.g. SyncService.SyncToFile bound to a path
type SyncFunc func(ctx context.Context) (*service.SyncStats, error)

// SyncJob refreshes the player data store from the upstream feed
type SyncJob struct {
	sync    SyncFunc
	timeout time.Duration
	tracer  *tracing.Tracer
	logger  *logrus.Logger

	mu        sync.Mutex
	lastStats *service.SyncStats
}

// NewSyncJob creates a sync job; timeout <= 0 means 15 minutes
func NewSyncJob(fn SyncFunc, timeout time.Duration, tracer *tracing.Tracer, log *logrus.Logger) *SyncJob {
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	return &SyncJob{sync: fn, timeout: timeout, tracer: tracer, logger: log}
}

// Name implements Job
func (j *SyncJob) Name() string {
	return "sync"
}

// Execute implements Job
func (j *SyncJob) Execute(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	ctx, finish := j.tracer.Start(ctx, "scheduled-sync")
	defer func() { finish(err) }()

	stats, err := j.sync(ctx)
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.lastStats = stats
	j.mu.Unlock()

	tracing.AddAnnotation(ctx, "players", stats.Players)
	j.logger.WithField("stats", stats.String()).Info("Snapshot sync finished")
	return nil
}

// LastStats returns the counters of the last successful sync, nil before the first
func (j *SyncJob) LastStats() *service.SyncStats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastStats
}
