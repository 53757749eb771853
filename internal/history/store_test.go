package history_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexilight/dbmigrate/internal/history"
)

// fakeRow scans fixed values into bool destinations.
type fakeRow struct {
	values []bool
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	for i, d := range dest {
		*(d.(*bool)) = r.values[i]
	}

	return nil
}

// fakeQuerier answers QueryRow by matching a SQL fragment and records Exec calls.
type fakeQuerier struct {
	rows    map[string]fakeRow
	execErr error
	execs   []string
	args    [][]any
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	f.args = append(f.args, args)

	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeQuerier) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	for fragment, row := range f.rows {
		if strings.Contains(sql, fragment) {
			return row
		}
	}

	return fakeRow{err: errors.New("unexpected query: " + sql)}
}

func TestNew_returnsNonNil(t *testing.T) {
	t.Parallel()

	// nil session is accepted at construction time; errors surface on use.
	assert.NotNil(t, history.New(nil))
}

func TestEnsureBootstrapped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		q         *fakeQuerier
		wantErr   bool
		wantExecs []string
	}{
		{
			name:      "absent table is created",
			q:         &fakeQuerier{rows: map[string]fakeRow{"to_regclass": {values: []bool{false}}}},
			wantExecs: []string{"CREATE TABLE IF NOT EXISTS applied_migrations"},
		},
		{
			name: "existing complete table is a no-op",
			q: &fakeQuerier{rows: map[string]fakeRow{
				"to_regclass":         {values: []bool{true}},
				"information_schema": {values: []bool{true, true}},
			}},
		},
		{
			name: "legacy table gains optional columns",
			q: &fakeQuerier{rows: map[string]fakeRow{
				"to_regclass":         {values: []bool{true}},
				"information_schema": {values: []bool{false, false}},
			}},
			wantExecs: []string{"ADD COLUMN IF NOT EXISTS checksum", "ADD COLUMN IF NOT EXISTS duration_ms"},
		},
		{
			name: "losing the create race counts as success",
			q: &fakeQuerier{
				rows:    map[string]fakeRow{"to_regclass": {values: []bool{false}}},
				execErr: &pgconn.PgError{Code: "23505"},
			},
			wantExecs: []string{"CREATE TABLE IF NOT EXISTS applied_migrations"},
		},
		{
			name: "other create failures are surfaced",
			q: &fakeQuerier{
				rows:    map[string]fakeRow{"to_regclass": {values: []bool{false}}},
				execErr: &pgconn.PgError{Code: "42501", Message: "permission denied"},
			},
			wantErr:   true,
			wantExecs: []string{"CREATE TABLE IF NOT EXISTS applied_migrations"},
		},
		{
			name:    "existence check failure is surfaced",
			q:       &fakeQuerier{rows: map[string]fakeRow{"to_regclass": {err: errors.New("conn closed")}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := history.New(tt.q).EnsureBootstrapped(context.Background())

			if tt.wantErr {
				require.ErrorIs(t, err, history.ErrBootstrap)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, tt.q.execs, len(tt.wantExecs))

			for i, want := range tt.wantExecs {
				assert.Contains(t, tt.q.execs[i], want)
			}
		})
	}
}

func TestRecordApplied(t *testing.T) {
	t.Parallel()

	t.Run("inserts one row on the given querier", func(t *testing.T) {
		t.Parallel()

		session := &fakeQuerier{}
		tx := &fakeQuerier{}

		err := history.New(session).RecordApplied(context.Background(), tx, history.RecordParams{
			Filename:   "001_init.sql",
			Checksum:   "abc",
			DurationMs: 12,
		})

		require.NoError(t, err)
		assert.Empty(t, session.execs)
		require.Len(t, tx.execs, 1)
		assert.Contains(t, tx.execs[0], "INSERT INTO applied_migrations")
		assert.Equal(t, "001_init.sql", tx.args[0][0])
	})

	t.Run("empty checksum is stored as NULL", func(t *testing.T) {
		t.Parallel()

		tx := &fakeQuerier{}

		err := history.New(nil).RecordApplied(context.Background(), tx, history.RecordParams{Filename: "001_init.sql"})

		require.NoError(t, err)
		assert.Nil(t, tx.args[0][1])
	})

	t.Run("unique violation maps to ErrDuplicateRecord", func(t *testing.T) {
		t.Parallel()

		tx := &fakeQuerier{execErr: &pgconn.PgError{Code: "23505"}}

		err := history.New(nil).RecordApplied(context.Background(), tx, history.RecordParams{Filename: "001_init.sql"})

		require.ErrorIs(t, err, history.ErrDuplicateRecord)
		assert.Contains(t, err.Error(), "001_init.sql")
	})

	t.Run("other errors keep the filename", func(t *testing.T) {
		t.Parallel()

		tx := &fakeQuerier{execErr: errors.New("boom")}

		err := history.New(nil).RecordApplied(context.Background(), tx, history.RecordParams{Filename: "002_x.sql"})

		require.Error(t, err)
		assert.NotErrorIs(t, err, history.ErrDuplicateRecord)
		assert.Contains(t, err.Error(), "recording migration 002_x.sql")
	})
}

func TestExists(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		row     fakeRow
		want    bool
		wantErr error
	}{
		{name: "table present", row: fakeRow{values: []bool{true}}, want: true},
		{name: "table absent", row: fakeRow{values: []bool{false}}},
		{name: "connection dropped", row: fakeRow{err: errors.New("conn closed")}, wantErr: history.ErrRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := &fakeQuerier{rows: map[string]fakeRow{"to_regclass": tt.row}}

			exists, err := history.New(q).Exists(context.Background())

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "conn closed")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, exists)
		})
	}
}

func TestListApplied_queryFailureIsReadError(t *testing.T) {
	t.Parallel()

	_, err := history.New(&fakeQuerier{}).ListApplied(context.Background())

	require.ErrorIs(t, err, history.ErrRead)
	assert.NotErrorIs(t, err, history.ErrBootstrap)
}
