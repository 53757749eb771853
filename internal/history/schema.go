package history

// TableName is the durable contract with external tooling: one append-only
// row per applied migration.
const TableName = "applied_migrations"

// createTableSQL is the bootstrap DDL. The id column carries insertion order.
const createTableSQL = `CREATE TABLE IF NOT EXISTS applied_migrations (
    id          BIGSERIAL PRIMARY KEY,
    filename    TEXT NOT NULL UNIQUE,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    checksum    TEXT,
    duration_ms INTEGER
)`

// columnsSQL reports which optional columns exist. Tables created by older
// tooling only have id, filename and applied_at.
const columnsSQL = `SELECT
    COALESCE(bool_or(column_name = 'checksum'), false),
    COALESCE(bool_or(column_name = 'duration_ms'), false)
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1`

const (
	addChecksumSQL   = `ALTER TABLE applied_migrations ADD COLUMN IF NOT EXISTS checksum TEXT`
	addDurationMsSQL = `ALTER TABLE applied_migrations ADD COLUMN IF NOT EXISTS duration_ms INTEGER`
)
