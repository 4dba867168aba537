// Package scheduler runs recurring calibration and data sync on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/gojankovic/fpl-insights/internal/metrics"
)

// Job is one unit of recurring work
type Job interface {
	Name() string
	Execute(ctx context.Context) error
}

// Scheduler runs jobs on cron expressions in UTC. A tick that arrives while
// the previous run of the same job is still going is skipped.
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Logger
	mu              sync.RWMutex
	running         bool
	entries         map[string]cron.EntryID
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(logger *logrus.Logger) *Scheduler {
	cronLog := cron.PrintfLogger(logger)
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger:          logger,
		entries:         make(map[string]cron.EntryID),
		gracefulTimeout: 30 * time.Second,
	}
}

// Schedule registers job under a standard five-field cron expression.
// Job names must be unique.
func (s *Scheduler) Schedule(cronExpression string, job Job) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return 0, fmt.Errorf("cannot schedule %s while scheduler is running", job.Name())
	}
	if _, dup := s.entries[job.Name()]; dup {
		return 0, fmt.Errorf("job %s is already scheduled", job.Name())
	}

	id, err := s.cron.AddFunc(cronExpression, func() { s.run(job) })
	if err != nil {
		return 0, fmt.Errorf("failed to schedule %s: %w", job.Name(), err)
	}

	s.entries[job.Name()] = id
	s.logger.WithFields(logrus.Fields{"job": job.Name(), "cron": cronExpression}).Info("Job scheduled")
	return id, nil
}

func (s *Scheduler) run(job Job) {
	start := time.Now()
	err := job.Execute(context.Background())
	elapsed := time.Since(start)

	status := "success"
	entry := s.logger.WithFields(logrus.Fields{"job": job.Name(), "duration": elapsed.String()})
	if err != nil {
		status = "failure"
		entry.WithError(err).Error("Scheduled job failed")
	} else {
		entry.Info("Scheduled job completed")
	}
	metrics.RecordScheduledJob(job.Name(), status, elapsed.Seconds())
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.entries) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.running = true
	s.logger.WithField("jobs", len(s.entries)).Info("Scheduler started")
	return nil
}

// Stop waits for in-flight jobs, up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// NextRun returns the next fire time of the named job, zero if unknown or stopped
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.entries[name]
	if !s.running || !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Jobs lists the scheduled job names
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// RunUntil starts the scheduler and blocks until ctx is done
func (s *Scheduler) RunUntil(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}
