package migration

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// maxKeyDigits bounds a sort key so its numeric value fits in a uint64.
const maxKeyDigits = 18

// Key is the parsed sort key of a migration filename. Ordering uses the
// numeric value, so "2" sorts before "10" regardless of zero padding.
type Key struct {
	Raw   string // digits exactly as written in the filename
	Value uint64 // parsed numeric value
}

// ParseKey validates and parses the digit prefix of a migration filename.
func ParseKey(raw string) (Key, error) {
	if raw == "" || len(raw) > maxKeyDigits {
		return Key{}, fmt.Errorf("%w: %q must be 1-%d digits", ErrInvalidKey, raw, maxKeyDigits)
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q: %w", ErrInvalidKey, raw, err)
	}

	return Key{Raw: raw, Value: v}, nil
}

// Compare returns -1, 0 or +1 depending on whether k sorts before, equal to,
// or after other.
func (k Key) Compare(other Key) int {
	return cmp.Compare(k.Value, other.Value)
}

func (k Key) String() string { return k.Raw }

// Migration is a single forward-only SQL change-script discovered on disk.
type Migration struct {
	Key      Key
	Name     string // slug, e.g. "add_audio_url"
	Filename string // base name; the identity recorded in applied_migrations
	SQL      string // trimmed file contents
	Checksum string // SHA-256 hex digest of SQL
	FilePath string
}

// ComputeChecksum returns the SHA-256 hex digest of the given SQL string.
func ComputeChecksum(sql string) string {
	h := sha256.Sum256([]byte(sql))

	return hex.EncodeToString(h[:])
}
