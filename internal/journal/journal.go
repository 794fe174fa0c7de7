// Package journal keeps a SQLite record of cipher runs: which files went in,
// where the output went, and the digests needed to verify it later.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/playfair/core/errors"
	"github.com/FocuswithJustin/playfair/core/sqlite"
)

// Status is the state of a run or of one file within it.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Run is one invocation of the batch runner.
type Run struct {
	ID          string    `json:"id"`
	Direction   string    `json:"direction"`
	KeyDigest   string    `json:"key_digest"`
	Status      Status    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
	FilesOK     int       `json:"files_ok"`
	FilesFailed int       `json:"files_failed"`
}

// File is the outcome of processing one input file.
type File struct {
	RunID        string    `json:"run_id"`
	Input        string    `json:"input"`
	Output       string    `json:"output,omitempty"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
	Letters      int64     `json:"letters"`
	Digraphs     int64     `json:"digraphs"`
	BytesIn      int64     `json:"bytes_in"`
	InputBLAKE3  string    `json:"input_blake3,omitempty"`
	OutputBLAKE3 string    `json:"output_blake3,omitempty"`
	OutputSHA256 string    `json:"output_sha256,omitempty"`
	OutputSize   int64     `json:"output_size"`
	Compression  string    `json:"compression,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

var migrations = []string{
	`CREATE TABLE runs (
		id           TEXT PRIMARY KEY,
		direction    TEXT NOT NULL,
		key_digest   TEXT NOT NULL,
		status       TEXT NOT NULL,
		started_at   TEXT NOT NULL,
		finished_at  TEXT NOT NULL DEFAULT '',
		files_ok     INTEGER NOT NULL DEFAULT 0,
		files_failed INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE files (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		input         TEXT NOT NULL,
		output        TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		error         TEXT NOT NULL DEFAULT '',
		letters       INTEGER NOT NULL DEFAULT 0,
		digraphs      INTEGER NOT NULL DEFAULT 0,
		bytes_in      INTEGER NOT NULL DEFAULT 0,
		input_blake3  TEXT NOT NULL DEFAULT '',
		output_blake3 TEXT NOT NULL DEFAULT '',
		output_sha256 TEXT NOT NULL DEFAULT '',
		output_size   INTEGER NOT NULL DEFAULT 0,
		compression   TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL
	);
	CREATE INDEX files_run ON files(run_id);
	CREATE INDEX files_output ON files(output);`,
}

// Journal is safe for concurrent use.
type Journal struct {
	db  *sql.DB
	now func() time.Time
	id  func() string
}

// Open opens or creates the journal database at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db, migrations); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to prepare journal %s", path)
	}
	return &Journal{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
		id:  func() string { return uuid.New().String() },
	}, nil
}

// OpenReadOnly opens an existing journal for history and verification.
func OpenReadOnly(ctx context.Context, path string) (*Journal, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("journal", path)
		}
		return nil, errors.NewIO("stat", path, err)
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		db.Close()
		return nil, errors.NewIO("read journal", path, err)
	}
	if version != len(migrations) {
		db.Close()
		return nil, errors.NewUnsupported("journal schema", fmt.Sprintf("version %d, want %d", version, len(migrations)))
	}
	return &Journal{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
		id:  func() string { return uuid.New().String() },
	}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// StartRun records a new running run and returns it.
func (j *Journal) StartRun(ctx context.Context, direction, keyDigest string) (*Run, error) {
	run := &Run{
		ID:        j.id(),
		Direction: direction,
		KeyDigest: keyDigest,
		Status:    StatusRunning,
		StartedAt: j.now(),
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, direction, key_digest, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Direction, run.KeyDigest, string(run.Status), formatTime(run.StartedAt))
	if err != nil {
		return nil, errors.Wrap(err, "failed to record run")
	}
	return run, nil
}

// RecordFile stores the outcome of one file of a run.
func (j *Journal) RecordFile(ctx context.Context, f File) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = j.now()
	}
	_, err := j.db.ExecContext(ctx, `INSERT INTO files (
		run_id, input, output, status, error, letters, digraphs, bytes_in,
		input_blake3, output_blake3, output_sha256, output_size, compression, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.RunID, f.Input, f.Output, string(f.Status), f.Error, f.Letters, f.Digraphs, f.BytesIn,
		f.InputBLAKE3, f.OutputBLAKE3, f.OutputSHA256, f.OutputSize, f.Compression, formatTime(f.CreatedAt))
	if err != nil {
		return errors.Wrapf(err, "failed to record %s", f.Input)
	}
	return nil
}

// FinishRun sets the final status of a run and its per-file tallies.
func (j *Journal) FinishRun(ctx context.Context, runID string, status Status) error {
	res, err := j.db.ExecContext(ctx, `UPDATE runs SET
		status = ?,
		finished_at = ?,
		files_ok = (SELECT COUNT(*) FROM files WHERE run_id = ? AND status = ?),
		files_failed = (SELECT COUNT(*) FROM files WHERE run_id = ? AND status = ?)
		WHERE id = ?`,
		string(status), formatTime(j.now()),
		runID, string(StatusCompleted), runID, string(StatusFailed), runID)
	if err != nil {
		return errors.Wrap(err, "failed to finish run")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("run", runID)
	}
	return nil
}

// Runs returns the most recent runs first. limit <= 0 returns all of them.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `SELECT id, direction, key_digest, status, started_at, finished_at, files_ok, files_failed
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var status, started, finished string
		if err := rows.Scan(&r.ID, &r.Direction, &r.KeyDigest, &status, &started, &finished, &r.FilesOK, &r.FilesFailed); err != nil {
			return nil, errors.Wrap(err, "failed to read run")
		}
		r.Status = Status(status)
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run returns one run by ID or prefix of its ID.
func (j *Journal) Run(ctx context.Context, id string) (*Run, error) {
	runs, err := j.Runs(ctx, 0)
	if err != nil {
		return nil, err
	}
	var found *Run
	for i := range runs {
		if runs[i].ID == id {
			return &runs[i], nil
		}
		if len(id) >= 4 && strings.HasPrefix(runs[i].ID, id) {
			if found != nil {
				return nil, errors.NewValidation("run", "ambiguous run id prefix "+id)
			}
			found = &runs[i]
		}
	}
	if found == nil {
		return nil, errors.NewNotFound("run", id)
	}
	return found, nil
}

const fileColumns = `run_id, input, output, status, error, letters, digraphs, bytes_in,
	input_blake3, output_blake3, output_sha256, output_size, compression, created_at`

// Files returns the files of a run in processing order.
func (j *Journal) Files(ctx context.Context, runID string) ([]File, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list files")
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// LatestOutput returns the most recent successful record that wrote output.
func (j *Journal) LatestOutput(ctx context.Context, output string) (*File, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files
		WHERE output = ? AND status = ? ORDER BY id DESC LIMIT 1`, output, string(StatusCompleted))
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("journal entry", output)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (File, error) {
	var f File
	var status, created string
	err := s.Scan(&f.RunID, &f.Input, &f.Output, &status, &f.Error, &f.Letters, &f.Digraphs, &f.BytesIn,
		&f.InputBLAKE3, &f.OutputBLAKE3, &f.OutputSHA256, &f.OutputSize, &f.Compression, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return File{}, err
	}
	if err != nil {
		return File{}, errors.Wrap(err, "failed to read file record")
	}
	f.Status = Status(status)
	f.CreatedAt = parseTime(created)
	return f, nil
}

// timeLayout has a fixed width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
