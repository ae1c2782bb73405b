package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_SQLiteInMemory(t *testing.T) {
	database, err := Init(Config{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 10})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, database.Ping(context.Background()))

	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestInit_UnsupportedDriver(t *testing.T) {
	_, err := Init(Config{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}
