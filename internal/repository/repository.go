// Package repository implements the PostgreSQL-backed player store.
package repository

import (
	"fmt"

	"github.com/gojankovic/fpl-insights/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Players PlayerStore
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Players: NewPostgresPlayerRepository(db.GetPool()),
	}, nil
}
