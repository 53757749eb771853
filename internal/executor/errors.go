package executor

import (
	"errors"
	"fmt"

	"github.com/lexilight/dbmigrate/internal/migration"
)

// ErrExecutionFailed matches every *ApplyError via errors.Is.
var ErrExecutionFailed = errors.New("migration execution failed")

// ApplyError identifies the migration that stopped an apply run. Migrations
// before it stay applied and recorded; it and every later file stay pending.
type ApplyError struct {
	Filename string
	Key      migration.Key
	Err      error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("applying %s: %v", e.Filename, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Is reports ErrExecutionFailed as a match so callers can branch without
// unwrapping the database error.
func (e *ApplyError) Is(target error) bool { return target == ErrExecutionFailed }
