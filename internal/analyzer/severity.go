package analyzer

import (
	"fmt"
	"strings"
)

// Severity is how likely an unguarded statement is to break a re-run.
type Severity int

const (
	// Safe indicates no finding.
	Safe Severity = iota
	// Low: re-running fails only in unusual states.
	Low
	// Medium: re-running fails, but nothing is left half-done.
	Medium
	// High: re-running fails on a common path, or the statement cannot run
	// inside the migration transaction at all.
	High
)

// String returns the uppercase label for the severity level.
func (s Severity) String() string {
	switch s {
	case Safe:
		return "SAFE"
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity accepts the labels produced by String, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SAFE":
		return Safe, nil
	case "LOW":
		return Low, nil
	case "MEDIUM":
		return Medium, nil
	case "HIGH":
		return High, nil
	default:
		return Safe, fmt.Errorf("unknown severity %q (want low, medium or high)", s)
	}
}
