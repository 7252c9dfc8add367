package tasks

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	assertSentinelErr = errors.New("disk full")
	fixedTime         = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
)

func TestAuditLog_Record_InsertsExpectedRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO task_audit").
		WithArgs(sqlmock.AnyArg(), "pair", "host-1", "", "succeeded", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	audit := NewAuditLog(db, zaptest.NewLogger(t).Sugar())
	audit.Record(KindPair, "host-1", Result{Completed: true, Succeeded: true})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLog_Record_FailedOutcomeCarriesErrorString(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO task_audit").
		WithArgs(sqlmock.AnyArg(), "add", "", "", "failed", "no route to host", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	audit := NewAuditLog(db, zaptest.NewLogger(t).Sugar())
	audit.Record(KindAdd, "", Result{Completed: true, Succeeded: false, ErrorString: "no route to host"})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLog_Record_SwallowsWriteFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO task_audit").WillReturnError(assertSentinelErr)

	audit := NewAuditLog(db, zaptest.NewLogger(t).Sugar())
	assert.NotPanics(t, func() {
		audit.Record(KindDelete, "host-2", Result{Completed: true, Succeeded: true})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLog_Recent_ScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "kind", "host_uuid", "outcome", "error_message", "created_at", "completed_at"}).
		AddRow("audit-1", "pair", "host-1", "succeeded", "", fixedTime, fixedTime)
	mock.ExpectQuery("SELECT id, kind, host_uuid, outcome, error_message, created_at, completed_at").
		WithArgs("host-1", 10).
		WillReturnRows(rows)

	audit := NewAuditLog(db, zaptest.NewLogger(t).Sugar())
	entries, err := audit.Recent("host-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "audit-1", entries[0].ID)
	assert.Equal(t, "succeeded", entries[0].Outcome)

	require.NoError(t, mock.ExpectationsWereMet())
}
