package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/errors"
)

//go:embed sqlite/migrations/*.sql
var migrationFS embed.FS

const migrationDir = "sqlite/migrations"

// Migrate applies every pending migration in filename order. Files are
// named NNN_description.sql; the NNN prefix is the recorded version. A
// nil log keeps it silent.
func Migrate(conn *sql.DB, log *zap.SugaredLogger) error {
	if _, err := conn.Exec(
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	); err != nil {
		return errors.Wrap(err, "ensure schema_migrations table")
	}

	applied, err := appliedVersions(conn)
	if err != nil {
		return err
	}

	names, err := migrationNames()
	if err != nil {
		return err
	}

	var ran int
	for _, name := range names {
		version, _, _ := strings.Cut(name, "_")
		if applied[version] {
			continue
		}

		body, err := migrationFS.ReadFile(path.Join(migrationDir, name))
		if err != nil {
			return errors.Wrapf(err, "read migration %s", name)
		}

		tx, err := conn.Begin()
		if err != nil {
			return errors.Wrapf(err, "begin %s", name)
		}
		if _, err := tx.Exec(string(body)); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "apply %s", name)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "record %s", name)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "commit %s", name)
		}

		ran++
		if log != nil {
			log.Infow("applied migration", "migration", name)
		}
	}

	if log != nil && ran > 0 {
		log.Infow("schema up to date", "applied", ran, "total", len(names))
	}
	return nil
}

func appliedVersions(conn *sql.DB) (map[string]bool, error) {
	rows, err := conn.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "read applied migrations")
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan migration version")
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func migrationNames() ([]string, error) {
	entries, err := migrationFS.ReadDir(migrationDir)
	if err != nil {
		return nil, errors.Wrap(err, "list migrations")
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
