package tasks

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/db"
	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/logger"
)

// AuditLog persists a durable record of completed tasks across restarts:
// the in-memory task tables and
// hosts.ini's currentgame field are otherwise the only trace of what
// happened, and neither survives a process restart.
type AuditLog struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// NewAuditLog wraps an already-migrated *sql.DB (see package db;
// db.OpenWithMigrations applies 001_create_task_audit.sql).
func NewAuditLog(db *sql.DB, log *zap.SugaredLogger) *AuditLog {
	return &AuditLog{db: db, log: logger.AddTaskSymbol(log)}
}

// AuditEntry is one row of the task_audit table.
type AuditEntry struct {
	ID           string
	Kind         string
	HostUUID     string
	Outcome      string
	ErrorMessage string
	CreatedAt    time.Time
	CompletedAt  time.Time
}

// Record inserts one completed task's outcome. Failures are logged, not
// propagated — an audit-log write failure must never affect the task's
// own result, which has already been published to the caller by the time
// this runs.
func (a *AuditLog) Record(kind Kind, hostUUID string, r Result) {
	now := time.Now().UTC()
	outcome := "failed"
	if r.Succeeded {
		outcome = "succeeded"
	}

	_, err := a.db.Exec(
		`INSERT INTO task_audit (id, kind, host_uuid, target, outcome, error_message, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), string(kind), hostUUID, "", outcome, r.ErrorString, now, now,
	)
	if err != nil {
		if db.IsDatabaseClosed(err) {
			// A task draining after shutdown closed the database; the
			// outcome is already published, losing the audit row is fine.
			a.log.Debugw("audit entry dropped, database closed", "kind", kind, "host", hostUUID)
			return
		}
		a.log.Warnw("failed to record task audit entry", "kind", kind, "host", hostUUID, "error", err)
	}
}

// Recent returns the most recently completed tasks for hostUUID, newest
// first.
func (a *AuditLog) Recent(hostUUID string, limit int) ([]AuditEntry, error) {
	rows, err := a.db.Query(
		`SELECT id, kind, host_uuid, outcome, error_message, created_at, completed_at
		 FROM task_audit WHERE host_uuid = ? ORDER BY completed_at DESC LIMIT ?`,
		hostUUID, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query task audit")
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.HostUUID, &e.Outcome, &e.ErrorMessage, &e.CreatedAt, &e.CompletedAt); err != nil {
			return nil, errors.Wrap(err, "scan task audit row")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
