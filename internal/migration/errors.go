package migration

import (
	"errors"
	"fmt"
)

// ErrDirNotFound indicates the migrations directory does not exist.
var ErrDirNotFound = errors.New("migrations directory not found")

// ErrDuplicateKey indicates two migration files share a sort key.
var ErrDuplicateKey = errors.New("duplicate migration sort key")

// ErrUnreadable indicates a migration file or directory could not be read.
var ErrUnreadable = errors.New("migration file unreadable")

// ErrInvalidKey indicates a filename matched the convention but its sort key
// could not be parsed.
var ErrInvalidKey = errors.New("invalid migration sort key")

// DiscoveryError reports why the migrations directory could not be turned into
// an ordered migration set. No partial result accompanies it.
type DiscoveryError struct {
	Dir  string
	File string // empty when the failure concerns the directory itself
	Err  error
}

func (e *DiscoveryError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("discovering migrations in %s: %v", e.Dir, e.Err)
	}

	return fmt.Sprintf("discovering migrations in %s: %s: %v", e.Dir, e.File, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }
