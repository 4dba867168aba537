package repository

import (
	"context"

	"github.com/gojankovic/fpl-insights/internal/models"
	"github.com/gojankovic/fpl-insights/internal/provider"
)

// PlayerWriter persists synced player data
type PlayerWriter interface {
	UpsertPlayers(ctx context.Context, players []models.PlayerAttributes) error
	UpsertHistory(ctx context.Context, playerID int, records []models.GameweekRecord) error
	UpsertFixtures(ctx context.Context, fixtures []provider.Fixture) error
}

// PlayerStore is a readable and writable player store
type PlayerStore interface {
	provider.Provider
	provider.PlayerLister
	PlayerWriter
}

var _ PlayerStore = (*PostgresPlayerRepository)(nil)
