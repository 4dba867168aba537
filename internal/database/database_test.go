package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gojankovic/fpl-insights/internal/config"
)

func TestPoolConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:               "localhost",
		Port:               5432,
		Name:               "fpl",
		User:               "fpl",
		Password:           "pw",
		SSLMode:            "disable",
		MaxConnections:     6,
		MaxIdleConnections: 2,
	}

	pc, err := PoolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(6), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, "localhost", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5432), pc.ConnConfig.Port)
	assert.Equal(t, "fpl", pc.ConnConfig.Database)
}

func TestPoolConfigClampsIdle(t *testing.T) {
	pc, err := PoolConfig(&config.DatabaseConfig{
		Host: "localhost", Port: 5432, Name: "fpl", User: "fpl", SSLMode: "disable",
		MaxConnections: 1, MaxIdleConnections: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), pc.MinConns)
}

func TestEnsureSchemaIntegration(t *testing.T) {
	db := SetupTestDB(t)

	// idempotent
	require.NoError(t, EnsureSchema(context.Background(), db.GetPool()))
	require.NoError(t, db.HealthCheck(context.Background()))
}
