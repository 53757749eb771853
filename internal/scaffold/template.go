package scaffold

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

var fileTemplate = template.Must(template.New("migration").Parse( //nolint:gochecknoglobals // parsed once
	`-- Migration: {{ .Name }}
-- Created: {{ .Created.Format "2006-01-02 15:04:05" }} UTC
--
-- Write your SQL statements below. The file runs in one transaction together
-- with its applied_migrations row. Keep every statement safe to re-run: use
-- IF NOT EXISTS / IF EXISTS, or guard with DO $$ BEGIN ... END $$;

-- Example safe operation (add column if not exists):
-- DO $$ BEGIN
--     IF NOT EXISTS (
--         SELECT 1 FROM information_schema.columns
--         WHERE table_name = 'words' AND column_name = 'example_col'
--     ) THEN
--         ALTER TABLE words ADD COLUMN example_col TEXT;
--     END IF;
-- END $$;
`))

type templateData struct {
	Name    string
	Created time.Time
}

func render(name string, created time.Time) ([]byte, error) {
	var buf bytes.Buffer

	if err := fileTemplate.Execute(&buf, templateData{Name: name, Created: created.UTC()}); err != nil {
		return nil, fmt.Errorf("rendering migration template: %w", err)
	}

	return buf.Bytes(), nil
}
