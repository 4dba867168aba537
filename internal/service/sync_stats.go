package service

import (
	"fmt"
	"sync"
	"time"
)

// SyncStats tracks statistics about one snapshot sync
type SyncStats struct {
	mu               sync.RWMutex
	StartTime        time.Time
	Duration         time.Duration
	Players          int
	Records          int
	Fixtures         int
	ValidationErrors int
	Errors           int
}

// NewSyncStats creates a new stats tracker
func NewSyncStats() *SyncStats {
	return &SyncStats{StartTime: time.Now()}
}

// Reset resets all counters
func (m *SyncStats) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartTime = time.Now()
	m.Duration = 0
	m.Players = 0
	m.Records = 0
	m.Fixtures = 0
	m.ValidationErrors = 0
	m.Errors = 0
}

func (m *SyncStats) add(players, records, fixtures, invalid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Players += players
	m.Records += records
	m.Fixtures += fixtures
	m.ValidationErrors += invalid
}

// RecordError increments error count
func (m *SyncStats) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

func (m *SyncStats) finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duration = time.Since(m.StartTime)
}

// String returns a formatted string representation of the stats
func (m *SyncStats) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return fmt.Sprintf(
		"SyncStats{Players=%d, Records=%d, Fixtures=%d, ValidationErrors=%d, Errors=%d, Duration=%v}",
		m.Players, m.Records, m.Fixtures, m.ValidationErrors, m.Errors, m.Duration,
	)
}
