// Package service holds workflows that move data between providers and stores.
package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gojankovic/fpl-insights/internal/models"
	"github.com/gojankovic/fpl-insights/internal/provider"
	"github.com/gojankovic/fpl-insights/internal/repository"
)

// SnapshotSource captures a full offline copy of the upstream feed
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*provider.Snapshot, error)
}

// SyncService pulls a snapshot, drops invalid rows and persists the rest
type SyncService struct {
	source    SnapshotSource
	validator *DataValidator
	refresher provider.Refresher
	stats     *SyncStats
	logger    *logrus.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(source SnapshotSource, validator *DataValidator, logger *logrus.Logger) *SyncService {
	return &SyncService{
		source:    source,
		validator: validator,
		stats:     NewSyncStats(),
		logger:    logger,
	}
}

// SetRefresher registers a provider to receive every persisted snapshot
func (s *SyncService) SetRefresher(r provider.Refresher) {
	s.refresher = r
}

func (s *SyncService) notify(snap *provider.Snapshot) {
	if s.refresher != nil {
		s.refresher.Refresh(snap)
	}
}

// Fetch pulls and cleans a snapshot without persisting it
func (s *SyncService) Fetch(ctx context.Context) (*provider.Snapshot, error) {
	s.stats.Reset()

	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		s.stats.RecordError()
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	clean := s.clean(snap)
	s.logger.WithFields(logrus.Fields{
		"players":  len(clean.Players),
		"fixtures": len(clean.Fixtures),
	}).Info("Snapshot fetched")
	return clean, nil
}

// clean drops players, records and fixtures that fail validation
func (s *SyncService) clean(snap *provider.Snapshot) *provider.Snapshot {
	out := &provider.Snapshot{
		Players:  make([]models.PlayerAttributes, 0, len(snap.Players)),
		History:  make(map[int][]models.GameweekRecord, len(snap.History)),
		Fixtures: make([]provider.Fixture, 0, len(snap.Fixtures)),
	}
	invalid, records := 0, 0

	for i := range snap.Players {
		p := &snap.Players[i]
		if errs := s.validator.ValidatePlayer(p); len(errs) > 0 {
			invalid++
			s.logger.WithFields(logrus.Fields{"player_id": p.ID, "errors": errs}).Warn("Player failed validation")
			continue
		}
		out.Players = append(out.Players, *p)

		history := snap.History[p.ID]
		kept := make([]models.GameweekRecord, 0, len(history))
		for j := range history {
			if errs := s.validator.ValidateRecord(&history[j]); len(errs) > 0 {
				invalid++
				s.logger.WithFields(logrus.Fields{
					"player_id": p.ID,
					"period":    history[j].Period,
					"errors":    errs,
				}).Warn("History record failed validation")
				continue
			}
			kept = append(kept, history[j])
		}
		out.History[p.ID] = kept
		records += len(kept)
	}

	for i := range snap.Fixtures {
		f := &snap.Fixtures[i]
		if errs := s.validator.ValidateFixture(f); len(errs) > 0 {
			invalid++
			s.logger.WithFields(logrus.Fields{"fixture_id": f.ID, "errors": errs}).Warn("Fixture failed validation")
			continue
		}
		out.Fixtures = append(out.Fixtures, *f)
	}

	s.stats.add(len(out.Players), records, len(out.Fixtures), invalid)
	return out
}

// SyncToStore persists a cleaned snapshot into a writable store
func (s *SyncService) SyncToStore(ctx context.Context, store repository.PlayerWriter) (*SyncStats, error) {
	snap, err := s.Fetch(ctx)
	if err != nil {
		return s.stats, err
	}

	if err := store.UpsertPlayers(ctx, snap.Players); err != nil {
		s.stats.RecordError()
		return s.stats, err
	}
	for _, p := range snap.Players {
		if err := ctx.Err(); err != nil {
			return s.stats, err
		}
		if err := store.UpsertHistory(ctx, p.ID, snap.History[p.ID]); err != nil {
			s.stats.RecordError()
			s.logger.WithError(err).WithField("player_id", p.ID).Error("Failed to store history")
			continue
		}
	}
	if err := store.UpsertFixtures(ctx, snap.Fixtures); err != nil {
		s.stats.RecordError()
		return s.stats, err
	}

	s.notify(snap)
	s.stats.finish()
	s.logger.WithField("stats", s.stats.String()).Info("Sync to store complete")
	return s.stats, nil
}

// SyncToFile writes a cleaned snapshot for the memory provider
func (s *SyncService) SyncToFile(ctx context.Context, path string) (*SyncStats, error) {
	snap, err := s.Fetch(ctx)
	if err != nil {
		return s.stats, err
	}
	if err := provider.WriteSnapshot(path, snap); err != nil {
		s.stats.RecordError()
		return s.stats, err
	}

	s.notify(snap)
	s.stats.finish()
	s.logger.WithFields(logrus.Fields{"path": path, "stats": s.stats.String()}).Info("Sync to file complete")
	return s.stats, nil
}

// Stats returns the counters of the last sync
func (s *SyncService) Stats() *SyncStats {
	return s.stats
}
