package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gojankovic/fpl-insights/internal/config"
)

// schemaStatements creates the player store tables. Numeric columns use
// NUMERIC so prices and values round-trip through decimal.Decimal.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS players (
		id                  INTEGER PRIMARY KEY,
		web_name            TEXT NOT NULL DEFAULT '',
		team_id             INTEGER NOT NULL,
		element_type        SMALLINT NOT NULL CHECK (element_type BETWEEN 1 AND 4),
		status              TEXT NOT NULL DEFAULT 'a',
		chance_of_playing   NUMERIC,
		points_per_game     NUMERIC NOT NULL DEFAULT 0,
		xgi_per_90          NUMERIC NOT NULL DEFAULT 0,
		xa_per_90           NUMERIC NOT NULL DEFAULT 0,
		expected_goals      NUMERIC NOT NULL DEFAULT 0,
		expected_assists    NUMERIC NOT NULL DEFAULT 0,
		creativity          NUMERIC NOT NULL DEFAULT 0,
		starts              INTEGER NOT NULL DEFAULT 0,
		minutes             INTEGER NOT NULL DEFAULT 0,
		selected_by_percent NUMERIC NOT NULL DEFAULT 0,
		transfers_in_event  INTEGER NOT NULL DEFAULT 0,
		transfers_out_event INTEGER NOT NULL DEFAULT 0,
		price               NUMERIC(5,1) NOT NULL DEFAULT 0,
		ep_next             NUMERIC,
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS player_history (
		player_id         INTEGER NOT NULL REFERENCES players(id) ON DELETE CASCADE,
		period            INTEGER NOT NULL CHECK (period >= 1),
		points            NUMERIC NOT NULL,
		minutes           INTEGER NOT NULL DEFAULT 0,
		goals             INTEGER NOT NULL DEFAULT 0,
		assists           INTEGER NOT NULL DEFAULT 0,
		clean_sheets      INTEGER NOT NULL DEFAULT 0,
		bonus             INTEGER NOT NULL DEFAULT 0,
		started           BOOLEAN NOT NULL DEFAULT false,
		selected          INTEGER NOT NULL DEFAULT 0,
		transfers_balance INTEGER NOT NULL DEFAULT 0,
		value             NUMERIC(5,1) NOT NULL DEFAULT 0,
		PRIMARY KEY (player_id, period)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_player_history_period ON player_history (period)`,
	`CREATE TABLE IF NOT EXISTS fixtures (
		id              INTEGER PRIMARY KEY,
		period          INTEGER NOT NULL,
		team_h          INTEGER NOT NULL,
		team_a          INTEGER NOT NULL,
		team_h_difficulty SMALLINT NOT NULL,
		team_a_difficulty SMALLINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fixtures_period ON fixtures (period)`,
}

// Initialize creates a connection pool and ensures the schema exists
func Initialize(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, db.pool); err != nil {
		db.Close()
		return nil, err
	}

	var players int
	if err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM players").Scan(&players); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to count players: %w", err)
	}
	if players == 0 {
		log.Warn("Player store is empty; run the sync command to load data")
	}

	return db, nil
}

// EnsureSchema applies the idempotent schema statements
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range schemaStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
