// Package report renders a reconciliation result for operators (text) and
// for tooling (JSON). Rendering is a pure function of the result, so two
// status runs against unchanged state print identical output.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/lexilight/dbmigrate/internal/reconcile"
)

// TextOptions tunes the human-readable rendering.
type TextOptions struct {
	// Verbose adds the recorded checksum prefix and duration of applied rows.
	Verbose bool
}

// Status is the serialisable view of a reconciliation result.
type Status struct {
	Migrations []Row     `json:"migrations"`
	Anomalies  []Warning `json:"anomalies"`
	Summary    Summary   `json:"summary"`
}

// Row describes one migration file.
type Row struct {
	Key        string     `json:"key"`
	Filename   string     `json:"filename"`
	State      string     `json:"state"`
	AppliedAt  *time.Time `json:"applied_at,omitempty"`
	Checksum   string     `json:"checksum,omitempty"`
	DurationMs int        `json:"duration_ms,omitempty"`
}

// Warning is a drift anomaly.
type Warning struct {
	Kind     string `json:"kind"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

// Summary counts rows by state.
type Summary struct {
	Total    int `json:"total"`
	Applied  int `json:"applied"`
	Pending  int `json:"pending"`
	Warnings int `json:"warnings"`
}

// FromResult builds the view model.
func FromResult(res *reconcile.Result) Status {
	s := Status{
		Migrations: make([]Row, 0, len(res.Entries)),
		Anomalies:  make([]Warning, 0, len(res.Anomalies)),
	}

	for _, e := range res.Entries {
		row := Row{
			Key:      e.Migration.Key.Raw,
			Filename: e.Migration.Filename,
			State:    string(e.State),
		}

		if e.Record != nil {
			at := e.Record.AppliedAt.UTC()
			row.AppliedAt = &at
			row.Checksum = e.Record.Checksum
			row.DurationMs = e.Record.DurationMs
			s.Summary.Applied++
		} else {
			s.Summary.Pending++
		}

		s.Migrations = append(s.Migrations, row)
	}

	for _, a := range res.Anomalies {
		s.Anomalies = append(s.Anomalies, Warning{Kind: string(a.Kind), Filename: a.Filename, Message: a.Message})
	}

	s.Summary.Total = len(s.Migrations)
	s.Summary.Warnings = len(s.Anomalies)

	return s
}

// Text writes the status table, then warnings, then a summary line.
func Text(w io.Writer, res *reconcile.Result, opts TextOptions) error {
	s := FromResult(res)
	p := &printer{w: w}

	if s.Summary.Total == 0 {
		p.line("No migration files found.")
	} else {
		p.line("Migrations status:")

		for _, r := range s.Migrations {
			p.row(r, opts)
		}
	}

	if len(s.Anomalies) > 0 {
		p.line("")
		p.line("Warnings:")

		for _, a := range s.Anomalies {
			p.printf("  [%s] %s: %s\n", a.Kind, a.Filename, a.Message)
		}
	}

	p.line("")

	if s.Summary.Pending == 0 && s.Summary.Total > 0 {
		p.line("No pending migrations.")
	}

	p.printf("%d migration(s): %d applied, %d pending, %d warning(s).\n",
		s.Summary.Total, s.Summary.Applied, s.Summary.Pending, s.Summary.Warnings)

	return p.err
}

// JSON writes the status as a single indented JSON document.
func JSON(w io.Writer, res *reconcile.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(FromResult(res)); err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}

	return nil
}

// printer remembers the first write error so callers check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}

	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) {
	p.printf("%s\n", s)
}

func (p *printer) row(r Row, opts TextOptions) {
	state := "PENDING"
	if r.State == string(reconcile.StateApplied) {
		state = "APPLIED"
	}

	if r.AppliedAt == nil {
		p.printf("  %-40s %s\n", r.Filename, state)
		return
	}

	at := r.AppliedAt.Format(time.RFC3339)

	if !opts.Verbose {
		p.printf("  %-40s %s  %s\n", r.Filename, state, at)
		return
	}

	checksum := "-"
	if len(r.Checksum) >= 12 {
		checksum = r.Checksum[:12]
	}

	p.printf("  %-40s %s  %s  %s  %dms\n", r.Filename, state, at, checksum, r.DurationMs)
}
