package cli

import (
	"errors"

	"github.com/lexilight/dbmigrate/internal/config"
	"github.com/lexilight/dbmigrate/internal/database"
	"github.com/lexilight/dbmigrate/internal/executor"
	"github.com/lexilight/dbmigrate/internal/history"
	"github.com/lexilight/dbmigrate/internal/migration"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1 // a migration failed, or any other error
	ExitEnvironment = 2 // discovery, connection or history read failure; nothing was attempted
	ExitLockBusy    = 3 // another apply holds the migration lock; safe to retry
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var discoveryErr *migration.DiscoveryError

	switch {
	case errors.Is(err, executor.ErrExecutionFailed):
		return ExitFailure
	case errors.Is(err, database.ErrLockNotAcquired):
		return ExitLockBusy
	case errors.As(err, &discoveryErr),
		errors.Is(err, database.ErrConnectionFailed),
		errors.Is(err, database.ErrInvalidDatabaseURL),
		errors.Is(err, history.ErrRead),
		errors.Is(err, config.ErrMissingDatabaseURL):
		return ExitEnvironment
	default:
		return ExitFailure
	}
}
