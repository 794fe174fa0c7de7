// Package sqlite opens the SQLite databases behind the run journal.
//
// Build modes:
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite
//   - CGO (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3 via contrib/sqlite-external
//
// Use Open instead of sql.Open so the driver and its connection options
// match the build.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FocuswithJustin/playfair/core/errors"
)

// busyTimeoutMS is how long a writer waits on a locked database.
const busyTimeoutMS = 5000

// IsCGO reports whether the CGO implementation is linked in.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens the database file at path with a busy timeout and foreign keys
// enabled. ":memory:" opens a private in-memory database limited to a single
// connection.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn(path, false))
	if err != nil {
		return nil, errors.NewIO("open database", path, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// OpenReadOnly opens path without write access.
func OpenReadOnly(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn(path, true))
	if err != nil {
		return nil, errors.NewIO("open database", path, err)
	}
	return db, nil
}

// Migrate brings db up to len(steps) using PRAGMA user_version. Step i moves
// the schema from version i to i+1 and runs in its own transaction.
func Migrate(ctx context.Context, db *sql.DB, steps []string) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}
	if version > len(steps) {
		return errors.NewUnsupported("schema version", fmt.Sprintf("%d is newer than this build (%d)", version, len(steps)))
	}
	for i := version; i < len(steps); i++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "failed to begin migration")
		}
		if _, err := tx.ExecContext(ctx, steps[i]); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "migration %d failed", i+1)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "failed to record schema version %d", i+1)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "failed to commit migration %d", i+1)
		}
	}
	return nil
}

// Info describes the linked driver. DriverType is "cgo" for mattn/go-sqlite3
// and "purego" for modernc.org/sqlite.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
