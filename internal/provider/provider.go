// Package provider defines read access to historical player data.
package provider

import (
	"context"
	"errors"

	"github.com/gojankovic/fpl-insights/internal/models"
)

// Provider supplies the data the forecasting core reads
type Provider interface {
	// PlayerAttributes returns the season-to-date profile or models.ErrNotFound
	PlayerAttributes(ctx context.Context, playerID int) (*models.PlayerAttributes, error)

	// History returns up to maxCount records newest first. When beforePeriod is
	// positive only records with a period strictly below it are returned.
	History(ctx context.Context, playerID, maxCount, beforePeriod int) ([]models.GameweekRecord, error)

	// FixtureDifficulties returns one difficulty per fixture of the player's
	// team in period; empty for a blank period
	FixtureDifficulties(ctx context.Context, playerID, period int) ([]int, error)

	// Actuals returns observed scores for the closed period range
	Actuals(ctx context.Context, from, to int) ([]models.ActualOutcome, error)

	// LatestPeriod returns the highest period with finalized history
	LatestPeriod(ctx context.Context) (int, error)
}

// ErrCannotList is returned when the backing provider cannot enumerate players
var ErrCannotList = errors.New("provider cannot list players")

// PlayerLister enumerates every known player, ordered by ID
type PlayerLister interface {
	Players(ctx context.Context) ([]models.PlayerAttributes, error)
}

// Refresher takes a freshly synced snapshot in place of stale data
type Refresher interface {
	Refresh(s *Snapshot)
}
