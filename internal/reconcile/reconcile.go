// Package reconcile compares the migration files on disk with the history
// recorded in the database. It performs no I/O.
package reconcile

import (
	"fmt"

	"github.com/lexilight/dbmigrate/internal/history"
	"github.com/lexilight/dbmigrate/internal/migration"
)

// State is the reconciliation outcome for one migration file.
type State string

// Reconciliation states.
const (
	StateApplied State = "applied"
	StatePending State = "pending"
)

// AnomalyKind classifies a drift warning.
type AnomalyKind string

// Drift warnings. None of them stop status or apply.
const (
	// MissingFile: a history row references a file that is not on disk.
	MissingFile AnomalyKind = "missing-file"
	// OutOfOrder: a pending file sorts before the newest applied key.
	OutOfOrder AnomalyKind = "out-of-order"
	// ChecksumMismatch: an applied file changed since it was recorded.
	ChecksumMismatch AnomalyKind = "checksum-mismatch"
	// HistoryOrder: history rows were inserted in a different order than
	// their keys sort.
	HistoryOrder AnomalyKind = "history-order"
)

// Anomaly is a drift warning between the file set and the history.
type Anomaly struct {
	Kind     AnomalyKind
	Filename string
	Message  string
}

// Entry pairs a migration file with its state and, when applied, its
// history row.
type Entry struct {
	Migration migration.Migration
	State     State
	Record    *history.AppliedMigration
}

// Result is the reconciled view in ascending key order plus any anomalies.
type Result struct {
	Entries   []Entry
	Anomalies []Anomaly
}

// Pending returns the migrations still to apply, in key order.
func (r *Result) Pending() []migration.Migration {
	var pending []migration.Migration

	for _, e := range r.Entries {
		if e.State == StatePending {
			pending = append(pending, e.Migration)
		}
	}

	return pending
}

// Applied returns the entries already recorded in history, in key order.
func (r *Result) Applied() []Entry {
	var applied []Entry

	for _, e := range r.Entries {
		if e.State == StateApplied {
			applied = append(applied, e)
		}
	}

	return applied
}

// Reconcile partitions files into applied and pending by filename and
// collects drift anomalies. applied must be in insertion order, as returned
// by history.Store.ListApplied.
func Reconcile(files []migration.Migration, applied []history.AppliedMigration) *Result {
	sorted := migration.Sort(files)

	records := make(map[string]*history.AppliedMigration, len(applied))
	for i := range applied {
		records[applied[i].Filename] = &applied[i]
	}

	onDisk := make(map[string]bool, len(sorted))
	for _, m := range sorted {
		onDisk[m.Filename] = true
	}

	res := &Result{Entries: make([]Entry, 0, len(sorted))}
	newest, haveNewest := newestAppliedKey(applied)

	for _, m := range sorted {
		rec, ok := records[m.Filename]
		if !ok {
			res.Entries = append(res.Entries, Entry{Migration: m, State: StatePending})

			if haveNewest && m.Key.Compare(newest.key) < 0 {
				res.Anomalies = append(res.Anomalies, Anomaly{
					Kind:     OutOfOrder,
					Filename: m.Filename,
					Message: fmt.Sprintf("pending %s sorts before already-applied %s; it will be applied out of order",
						m.Filename, newest.filename),
				})
			}

			continue
		}

		res.Entries = append(res.Entries, Entry{Migration: m, State: StateApplied, Record: rec})

		if rec.Checksum != "" && rec.Checksum != m.Checksum {
			res.Anomalies = append(res.Anomalies, Anomaly{
				Kind:     ChecksumMismatch,
				Filename: m.Filename,
				Message:  fmt.Sprintf("%s was modified after it was applied", m.Filename),
			})
		}
	}

	for _, rec := range applied {
		if !onDisk[rec.Filename] {
			res.Anomalies = append(res.Anomalies, Anomaly{
				Kind:     MissingFile,
				Filename: rec.Filename,
				Message:  fmt.Sprintf("%s is recorded as applied but no such file exists", rec.Filename),
			})
		}
	}

	res.Anomalies = append(res.Anomalies, historyOrderAnomalies(applied)...)

	return res
}

type keyedRecord struct {
	key      migration.Key
	filename string
}

// newestAppliedKey returns the highest key among history rows whose
// filename follows the naming contract.
func newestAppliedKey(applied []history.AppliedMigration) (keyedRecord, bool) {
	var (
		best  keyedRecord
		found bool
	)

	for _, rec := range applied {
		key, _, ok, err := migration.ParseFilename(rec.Filename)
		if !ok || err != nil {
			continue
		}

		if !found || key.Compare(best.key) > 0 {
			best = keyedRecord{key: key, filename: rec.Filename}
			found = true
		}
	}

	return best, found
}

// historyOrderAnomalies walks history in insertion order and flags rows that
// were recorded after a row with a higher key.
func historyOrderAnomalies(applied []history.AppliedMigration) []Anomaly {
	var (
		anomalies []Anomaly
		highest   keyedRecord
		seen      bool
	)

	for _, rec := range applied {
		key, _, ok, err := migration.ParseFilename(rec.Filename)
		if !ok || err != nil {
			continue
		}

		if seen && key.Compare(highest.key) < 0 {
			anomalies = append(anomalies, Anomaly{
				Kind:     HistoryOrder,
				Filename: rec.Filename,
				Message:  fmt.Sprintf("%s was applied after %s although it sorts before it", rec.Filename, highest.filename),
			})

			continue
		}

		highest = keyedRecord{key: key, filename: rec.Filename}
		seen = true
	}

	return anomalies
}
