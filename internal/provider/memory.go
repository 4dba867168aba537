package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gojankovic/fpl-insights/internal/models"
)

// Fixture is one scheduled match with per-side difficulty ratings
type Fixture struct {
	ID             int `json:"id"`
	Period         int `json:"event"`
	HomeTeam       int `json:"team_h"`
	AwayTeam       int `json:"team_a"`
	HomeDifficulty int `json:"team_h_difficulty"`
	AwayDifficulty int `json:"team_a_difficulty"`
}

// DifficultyFor returns the rating faced by teamID, ok false if it does not play
func (f Fixture) DifficultyFor(teamID int) (int, bool) {
	switch teamID {
	case f.HomeTeam:
		return f.HomeDifficulty, true
	case f.AwayTeam:
		return f.AwayDifficulty, true
	default:
		return 0, false
	}
}

// Snapshot is the on-disk form of a Memory provider
type Snapshot struct {
	Players  []models.PlayerAttributes       `json:"players"`
	History  map[int][]models.GameweekRecord `json:"history"`
	Fixtures []Fixture                       `json:"fixtures"`
}

// Memory is an in-process provider backed by a snapshot
type Memory struct {
	mu       sync.RWMutex
	players  map[int]*models.PlayerAttributes
	history  map[int][]models.GameweekRecord
	fixtures map[int][]Fixture
}

// NewMemory creates an empty in-memory provider
func NewMemory() *Memory {
	return &Memory{
		players:  make(map[int]*models.PlayerAttributes),
		history:  make(map[int][]models.GameweekRecord),
		fixtures: make(map[int][]Fixture),
	}
}

// NewMemoryFromSnapshot builds a provider from a decoded snapshot
func NewMemoryFromSnapshot(s *Snapshot) *Memory {
	m := NewMemory()
	m.Refresh(s)
	return m
}

// Refresh replaces every player, record and fixture with the contents of s
func (m *Memory) Refresh(s *Snapshot) {
	fresh := NewMemory()
	for i := range s.Players {
		fresh.AddPlayer(s.Players[i])
	}
	for id, records := range s.History {
		fresh.AddHistory(id, records...)
	}
	for _, f := range s.Fixtures {
		fresh.AddFixture(f)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.players = fresh.players
	m.history = fresh.history
	m.fixtures = fresh.fixtures
}

// LoadSnapshot reads a JSON snapshot file
func LoadSnapshot(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return NewMemoryFromSnapshot(&s), nil
}

// WriteSnapshot writes s as indented JSON, replacing path atomically
func WriteSnapshot(path string, s *Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// AddPlayer stores or replaces a player profile
func (m *Memory) AddPlayer(p models.PlayerAttributes) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player := p
	m.players[p.ID] = &player
}

// AddHistory appends records for a player, keeping them ordered newest first
func (m *Memory) AddHistory(playerID int, records ...models.GameweekRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := append(m.history[playerID], records...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Period > all[j].Period })
	m.history[playerID] = all
}

// AddFixture registers a fixture
func (m *Memory) AddFixture(f Fixture) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixtures[f.Period] = append(m.fixtures[f.Period], f)
}

// PlayerAttributes implements Provider
func (m *Memory) PlayerAttributes(ctx context.Context, playerID int) (*models.PlayerAttributes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[playerID]
	if !ok {
		return nil, models.PlayerNotFound(playerID)
	}
	out := *p
	return &out, nil
}

// Players implements PlayerLister
func (m *Memory) Players(ctx context.Context) ([]models.PlayerAttributes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.PlayerAttributes, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// History implements Provider
func (m *Memory) History(ctx context.Context, playerID, maxCount, beforePeriod int) ([]models.GameweekRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.GameweekRecord, 0)
	for _, r := range m.history[playerID] {
		if beforePeriod > 0 && r.Period >= beforePeriod {
			continue
		}
		if maxCount > 0 && len(out) >= maxCount {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

// FixtureDifficulties implements Provider
func (m *Memory) FixtureDifficulties(ctx context.Context, playerID, period int) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.players[playerID]
	if !ok {
		return []int{}, nil
	}
	out := make([]int, 0, 2)
	for _, f := range m.fixtures[period] {
		if d, plays := f.DifficultyFor(p.TeamID); plays {
			out = append(out, d)
		}
	}
	return out, nil
}

// Actuals implements Provider
func (m *Memory) Actuals(ctx context.Context, from, to int) ([]models.ActualOutcome, error) {
	if err := models.ValidatePeriodRange(from, to); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int, 0, len(m.history))
	for id := range m.history {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]models.ActualOutcome, 0)
	for _, id := range ids {
		player, ok := m.players[id]
		if !ok {
			continue
		}
		records := m.history[id]
		// ascending period order within a player
		for i := len(records) - 1; i >= 0; i-- {
			r := records[i]
			if r.Period < from || r.Period > to {
				continue
			}
			out = append(out, models.ActualOutcome{
				PlayerID: id,
				Period:   r.Period,
				Points:   r.Points,
				Position: player.Position,
			})
		}
	}
	return out, nil
}

// LatestPeriod implements Provider
func (m *Memory) LatestPeriod(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	latest := 0
	for _, records := range m.history {
		if len(records) > 0 && records[0].Period > latest {
			latest = records[0].Period
		}
	}
	return latest, nil
}
