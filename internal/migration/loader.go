package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// filenamePattern is the migration naming contract:
//
//	{key}_{slug}.sql       (e.g., 20240101120000_create_words.sql)
//	V{key}_{slug}.sql      (e.g., V001_create_words.sql)
//	{key}_{slug}.up.sql    (accepted for tooling that emits .up.sql)
//
// The key is 1-18 digits and is compared numerically. The slug may not
// contain dots, so down-migrations (*.down.sql) never match.
var filenamePattern = regexp.MustCompile( //nolint:gochecknoglobals // compiled once, used by ParseFilename
	`^V?(\d+)_([^.]+?)(?:\.up)?\.sql$`,
)

// ParseFilename applies the naming contract to a base filename. ok is false
// when the name does not follow the convention at all; err is set when it
// does but the key is unusable.
func ParseFilename(name string) (key Key, slug string, ok bool, err error) {
	matches := filenamePattern.FindStringSubmatch(name)
	if matches == nil {
		return Key{}, "", false, nil
	}

	key, err = ParseKey(matches[1])
	if err != nil {
		return Key{}, "", true, err
	}

	return key, matches[2], true, nil
}

// LoadFromDir scans a directory for migration files and returns them sorted
// ascending by key. Files that do not match the naming contract are skipped.
// Every failure is a *DiscoveryError.
func LoadFromDir(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &DiscoveryError{Dir: dir, Err: fmt.Errorf("%w: %w", ErrDirNotFound, err)}
		}

		return nil, &DiscoveryError{Dir: dir, Err: fmt.Errorf("%w: %w", ErrUnreadable, err)}
	}

	files, err := scanEntries(dir, entries)
	if err != nil {
		return nil, err
	}

	migrations := make([]Migration, 0, len(files))

	for _, f := range files {
		m, err := readMigration(dir, f)
		if err != nil {
			return nil, err
		}

		migrations = append(migrations, m)
	}

	return Sort(migrations), nil
}

// migrationFile is a directory entry that matched the naming contract.
type migrationFile struct {
	filename string
	key      Key
	slug     string
}

// scanEntries filters entries by the naming contract and rejects duplicate keys.
func scanEntries(dir string, entries []os.DirEntry) ([]migrationFile, error) {
	var files []migrationFile

	seen := make(map[uint64]string, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		key, slug, ok, err := ParseFilename(entry.Name())
		if !ok {
			continue
		}

		if err != nil {
			return nil, &DiscoveryError{Dir: dir, File: entry.Name(), Err: err}
		}

		if prev, dup := seen[key.Value]; dup {
			return nil, &DiscoveryError{
				Dir:  dir,
				File: entry.Name(),
				Err:  fmt.Errorf("%w: %s conflicts with %s", ErrDuplicateKey, key, prev),
			}
		}

		seen[key.Value] = entry.Name()
		files = append(files, migrationFile{filename: entry.Name(), key: key, slug: slug})
	}

	return files, nil
}

func readMigration(dir string, f migrationFile) (Migration, error) {
	path := filepath.Join(dir, f.filename)

	data, err := os.ReadFile(path)
	if err != nil {
		return Migration{}, &DiscoveryError{Dir: dir, File: f.filename, Err: fmt.Errorf("%w: %w", ErrUnreadable, err)}
	}

	sql := strings.TrimSpace(string(data))

	return Migration{
		Key:      f.key,
		Name:     f.slug,
		Filename: f.filename,
		SQL:      sql,
		Checksum: ComputeChecksum(sql),
		FilePath: path,
	}, nil
}
