package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexilight/dbmigrate/internal/analyzer"
)

func TestSeverity_String_allLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity analyzer.Severity
		expected string
	}{
		{analyzer.Safe, "SAFE"},
		{analyzer.Low, "LOW"},
		{analyzer.Medium, "MEDIUM"},
		{analyzer.High, "HIGH"},
		{analyzer.Severity(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.severity.String())
		})
	}
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	for _, s := range []analyzer.Severity{analyzer.Safe, analyzer.Low, analyzer.Medium, analyzer.High} {
		got, err := analyzer.ParseSeverity(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := analyzer.ParseSeverity(" medium ")
	require.NoError(t, err)
	assert.Equal(t, analyzer.Medium, got)

	_, err = analyzer.ParseSeverity("critical")
	require.Error(t, err)
}
