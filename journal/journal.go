// Package journal persists a record of executed upgrade steps in SQLite.
//
// The journal is observability, not control flow: the pipeline consults
// the store descriptor to decide what to run, and keeps running when the
// journal is unavailable. What the journal buys is an audit trail of which
// ladder rungs ran against which dataset, when, and with what outcome.
package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS upgrade_steps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	dataset_path TEXT NOT NULL,
	run_id TEXT NOT NULL,
	step TEXT NOT NULL,
	from_version TEXT NOT NULL,
	to_version TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_upgrade_steps_dataset ON upgrade_steps(dataset_path);
CREATE INDEX IF NOT EXISTS idx_upgrade_steps_run ON upgrade_steps(run_id);
`

// Step outcome status values.
const (
	StatusApplied = "applied"
	StatusFailed  = "failed"
)

// Entry is one journaled step execution.
type Entry struct {
	DatasetPath string
	RunID       string
	Step        string
	FromVersion string
	ToVersion   string
	Status      string
	Error       string
	AppliedAt   time.Time
}

// Journal records upgrade-step executions. It satisfies upgrade.Recorder.
type Journal struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// Open opens (creating if needed) a journal database at path and ensures
// its schema. Use ":memory:" for an ephemeral journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open journal %s", path)
	}
	j, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// New wraps an existing database handle and ensures the journal schema.
func New(db *sql.DB) (*Journal, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "ensure journal schema")
	}
	return &Journal{db: db, log: logger.Logger}, nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordStep journals one step execution. A nil stepErr records a
// successful application.
func (j *Journal) RecordStep(datasetPath, runID, step, fromVersion, toVersion string, stepErr error) error {
	status := StatusApplied
	var errText sql.NullString
	if stepErr != nil {
		status = StatusFailed
		errText = sql.NullString{String: stepErr.Error(), Valid: true}
	}

	_, err := j.db.Exec(
		`INSERT INTO upgrade_steps (dataset_path, run_id, step, from_version, to_version, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		datasetPath, runID, step, fromVersion, toVersion, status, errText,
	)
	if err != nil {
		return errors.Wrapf(err, "journal step %s", step)
	}

	j.log.Debugw("Journaled upgrade step",
		"dataset", datasetPath,
		"run_id", runID,
		"step", step,
		"status", status,
	)
	return nil
}

// Entries returns the journaled executions for a dataset, oldest first.
func (j *Journal) Entries(datasetPath string) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT dataset_path, run_id, step, from_version, to_version, status, COALESCE(error, ''), applied_at
		 FROM upgrade_steps WHERE dataset_path = ? ORDER BY id`,
		datasetPath,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query journal entries")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.DatasetPath, &e.RunID, &e.Step, &e.FromVersion, &e.ToVersion, &e.Status, &e.Error, &e.AppliedAt); err != nil {
			return nil, errors.Wrap(err, "scan journal entry")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastRun returns the most recent run ID journaled for a dataset, or ""
// when the dataset has never been upgraded.
func (j *Journal) LastRun(datasetPath string) (string, error) {
	var runID string
	err := j.db.QueryRow(
		`SELECT run_id FROM upgrade_steps WHERE dataset_path = ? ORDER BY id DESC LIMIT 1`,
		datasetPath,
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "query last run")
	}
	return runID, nil
}
