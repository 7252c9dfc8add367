// Package db opens and migrates the SQLite database backing the task
// audit log (see package tasks). It is the only component that touches a
// real database; everything else in this module keeps its working state
// in memory or in the hosts.ini / general.json files.
package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/logger"
)

// SQLiteBusyTimeoutMS is how long a statement waits on a lock before
// returning SQLITE_BUSY. Audit writes race audit reads from the control
// API, so a short wait beats an immediate busy error.
const SQLiteBusyTimeoutMS = 5000

// startupPragmas are applied to every fresh connection, in order. WAL
// keeps audit reads from blocking behind task-completion writes.
var startupPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

// Open opens (creating if needed) the SQLite database at path and applies
// the startup pragmas. A nil log keeps it silent.
func Open(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	// SQLite creates a missing file, but not missing directories.
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create database directory %s", dir)
		}
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open database at %s", path)
	}

	for _, pragma := range startupPragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "apply %q to %s", pragma, path)
		}
	}

	if log != nil {
		logger.AddDBSymbol(log).Debugw("database opened", "path", path)
	}
	return conn, nil
}

// OpenWithMigrations opens the database and brings its schema up to
// date. Migrations are idempotent, so calling this on every start is
// cheap.
func OpenWithMigrations(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	conn, err := Open(path, log)
	if err != nil {
		return nil, err
	}

	if err := Migrate(conn, log); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "migrate %s", path)
	}
	return conn, nil
}

// ErrDatabaseClosed marks operations attempted after shutdown closed
// the connection; task workers draining past shutdown hit this.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err means the connection is gone.
// The sql driver returns its own unexported error for this, so a
// message check backs up the sentinel comparison.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
