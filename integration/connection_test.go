//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexilight/dbmigrate/internal/database"
)

func TestNewPool_validConnection_succeeds(t *testing.T) {
	t.Parallel()

	dsn := SetupPostgresDSN(t)
	ctx := context.Background()

	pool, err := database.NewPool(ctx, dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
	})

	var appName string

	err = pool.QueryRow(ctx, "SHOW application_name").Scan(&appName)
	require.NoError(t, err)
	assert.Equal(t, "dbmigrate", appName)
}

func TestNewPool_invalidURL_returnsError(t *testing.T) {
	t.Parallel()

	_, err := database.NewPool(context.Background(), "not-valid")

	require.ErrorIs(t, err, database.ErrInvalidDatabaseURL)
}

func TestNewPool_unreachable_returnsConnectionFailed(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := database.NewPool(ctx, "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=2")

	require.ErrorIs(t, err, database.ErrConnectionFailed)
}
