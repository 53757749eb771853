package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexilight/dbmigrate/internal/database"
)

func TestNewPool_invalidURL_returnsInvalidURLError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, err := database.NewPool(ctx, "not-a-valid-url")

	require.ErrorIs(t, err, database.ErrInvalidDatabaseURL)
}

func TestNewPool_emptyURL_returnsError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, err := database.NewPool(ctx, "")

	require.Error(t, err)
}

func TestNewPool_unreachableHost_returnsConnectionFailed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, err := database.NewPool(ctx, "postgres://user:pw@127.0.0.1:1/db?sslmode=disable&connect_timeout=1")

	require.ErrorIs(t, err, database.ErrConnectionFailed)
	assert.NotErrorIs(t, err, database.ErrInvalidDatabaseURL)
}
