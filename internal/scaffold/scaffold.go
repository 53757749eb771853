// Package scaffold creates new, empty migration files whose key sorts after
// every existing one.
package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexilight/dbmigrate/internal/migration"
)

// timestampLayout is the 14-digit UTC key style used by new directories.
const timestampLayout = "20060102150405"

// maxKeyDigits mirrors the key width accepted by migration.ParseKey.
const maxKeyDigits = 18

// NextKey returns a key strictly greater than every key in existing.
//
// An empty directory, or one whose highest key is a 14-digit timestamp, gets
// a timestamp derived from now (bumped to max+1 if the clock is behind).
// Otherwise the directory uses sequence numbers and gets max+1, zero-padded
// to the widest existing key.
func NextKey(existing []migration.Key, now time.Time) (migration.Key, error) {
	if len(existing) == 0 {
		return migration.ParseKey(now.UTC().Format(timestampLayout))
	}

	highest := existing[0]
	width := 0

	for _, k := range existing {
		if k.Compare(highest) > 0 {
			highest = k
		}

		width = max(width, len(k.Raw))
	}

	if len(highest.Raw) == len(timestampLayout) {
		ts, err := migration.ParseKey(now.UTC().Format(timestampLayout))
		if err != nil {
			return migration.Key{}, err
		}

		if ts.Compare(highest) > 0 {
			return ts, nil
		}

		return increment(highest, len(timestampLayout))
	}

	return increment(highest, width)
}

func increment(k migration.Key, width int) (migration.Key, error) {
	raw := fmt.Sprintf("%0*d", width, k.Value+1)
	if len(raw) > maxKeyDigits {
		return migration.Key{}, fmt.Errorf("%w: %s", ErrKeyExhausted, k)
	}

	return migration.ParseKey(raw)
}

// Create writes a new migration file for name into dir and returns its path.
// The directory is created if missing. An existing file with the same name
// is never overwritten.
func Create(dir, name string, now time.Time) (string, error) {
	slug := Slugify(name)
	if slug == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptyName, name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating migrations directory %s: %w", dir, err)
	}

	existing, err := existingKeys(dir)
	if err != nil {
		return "", err
	}

	key, err := NextKey(existing, now)
	if err != nil {
		return "", err
	}

	content, err := render(strings.TrimSpace(name), now)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, key.Raw+"_"+slug+".sql")

	if err := writeExclusive(path, content); err != nil {
		return "", err
	}

	return path, nil
}

// existingKeys collects keys of files following the naming contract. Names
// with unusable keys are ignored here; discovery reports them.
func existingKeys(dir string) ([]migration.Key, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory %s: %w", dir, err)
	}

	var keys []migration.Key

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		key, _, ok, err := migration.ParseFilename(e.Name())
		if ok && err == nil {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

func writeExclusive(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrNameCollision, path)
		}

		return fmt.Errorf("creating %s: %w", path, err)
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return fmt.Errorf("writing %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)

		return fmt.Errorf("closing %s: %w", path, err)
	}

	return nil
}
