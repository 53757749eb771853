package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsConcurrentIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sql  string
		want bool
	}{
		{"create concurrently", "CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_words_word ON words (word);", true},
		{"unique concurrently", "CREATE UNIQUE INDEX CONCURRENTLY idx_words_word ON words (word);", true},
		{"drop concurrently", "DROP INDEX CONCURRENTLY IF EXISTS idx_words_word;", true},
		{"plain index", "CREATE INDEX IF NOT EXISTS idx_words_word ON words (word);", false},
		{"no index", "ALTER TABLE words ADD COLUMN IF NOT EXISTS ipa TEXT;", false},
		{"empty", "", false},
		{
			name: "among other statements",
			sql: `ALTER TABLE words ADD COLUMN IF NOT EXISTS lemma TEXT;
CREATE INDEX CONCURRENTLY idx_words_lemma ON words (lemma);`,
			want: true,
		},
		{
			name: "mentioned only in a DO body",
			sql:  `DO $$ BEGIN RAISE NOTICE 'CREATE INDEX CONCURRENTLY later'; END $$;`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := containsConcurrentIndex(tt.sql)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContainsConcurrentIndex_invalidSQL_returnsError(t *testing.T) {
	t.Parallel()

	_, err := containsConcurrentIndex("NOT VALID SQL ;;; @@@ !!!")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing SQL")
}
