package scaffold

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify turns a free-form name into the slug part of a migration filename:
// lowercase ASCII letters, digits and single underscores. Accents are
// stripped ("Añadir índice" becomes "anadir_indice"); anything else becomes
// a separator.
func Slugify(name string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err != nil {
		folded = name
	}

	var b strings.Builder

	pendingSep := false

	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}

			b.WriteRune(r)

			pendingSep = false

			continue
		}

		pendingSep = true
	}

	return b.String()
}
