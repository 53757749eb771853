package history

import "errors"

// ErrBootstrap indicates the applied_migrations table could not be created or upgraded.
var ErrBootstrap = errors.New("bootstrapping applied_migrations")

// ErrDuplicateRecord indicates a migration already has a history row.
var ErrDuplicateRecord = errors.New("migration already recorded in applied_migrations")

// ErrRead indicates applied_migrations could not be inspected or read.
var ErrRead = errors.New("reading applied_migrations")
