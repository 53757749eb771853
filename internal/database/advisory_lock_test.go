package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexilight/dbmigrate/internal/database"
)

func TestLockKey_deterministicAndNonNegative(t *testing.T) {
	t.Parallel()

	a := database.LockKey(database.MigrationLockName)
	b := database.LockKey(database.MigrationLockName)

	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a, int64(0))
	assert.NotEqual(t, a, database.LockKey("dbmigrate:other"))
}

func TestLockHandle_nilHandle_isSafe(t *testing.T) {
	t.Parallel()

	var handle *database.LockHandle

	require.NoError(t, handle.Release(context.Background()))
	assert.Nil(t, handle.Conn())
}
