package scaffold

import "errors"

var (
	// ErrEmptyName means the requested name has no usable characters.
	ErrEmptyName = errors.New("migration name is empty after slugifying")
	// ErrNameCollision means the target file already exists.
	ErrNameCollision = errors.New("migration file already exists")
	// ErrKeyExhausted means the next key would exceed the maximum key width.
	ErrKeyExhausted = errors.New("no migration key left above the current maximum")
)
