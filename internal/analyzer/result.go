package analyzer

import "github.com/lexilight/dbmigrate/internal/migration"

// Finding is a statement that is not safe to run twice.
type Finding struct {
	Rule       string // e.g. "create-without-if-not-exists"
	Severity   Severity
	Object     string // affected table, index, type or function
	Statement  string // statement text, truncated for display
	Message    string
	Suggestion string // guarded form
	StmtIndex  int    // 0-based position in the file
}

// AnalysisResult holds all findings for a single migration.
type AnalysisResult struct {
	Migration   *migration.Migration
	Findings    []Finding
	MaxSeverity Severity
	// ParseError is set when the file could not be parsed; no rules ran.
	ParseError error
}

// AtLeast reports whether any finding reaches minSeverity. A parse failure always
// counts, since nothing about the file could be checked.
func (r *AnalysisResult) AtLeast(minSeverity Severity) bool {
	if r.ParseError != nil {
		return true
	}

	return len(r.Findings) > 0 && r.MaxSeverity >= minSeverity
}

// TruncateSQL shortens sql to maxLen bytes for display, collapsing runs of
// whitespace first. maxLen below 4 disables truncation.
func TruncateSQL(sql string, maxLen int) string {
	sql = collapseSpace(sql)

	if maxLen < 4 || len(sql) <= maxLen { //nolint:mnd // room for "..."
		return sql
	}

	return sql[:maxLen-3] + "..."
}

func collapseSpace(s string) string {
	out := make([]byte, 0, len(s))
	space := false

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			space = true
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}

			space = false

			out = append(out, s[i])
		}
	}

	return string(out)
}
