package db

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vireo-stream/hostcore/errors"
)

func TestOpenAppliesPragmas(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "audit.db"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var journalMode string
	require.NoError(t, conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var foreignKeys int
	require.NoError(t, conn.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)

	var busyTimeout int
	require.NoError(t, conn.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, SQLiteBusyTimeoutMS, busyTimeout)
}

func TestOpenCreatesMissingDirectories(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "deeper", "audit.db")

	conn, err := Open(dbPath, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer conn.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestOpenErrorCarriesStack(t *testing.T) {
	// An unwritable parent makes directory creation fail.
	conn, err := Open("/proc/no-such-dir/audit.db", nil)
	require.Error(t, err)
	assert.Nil(t, conn)
	assert.NotNil(t, errors.GetStack(err))
}

func TestOpenPragmaFailure(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "audit.db")

	first, err := Open(dbPath, nil)
	require.NoError(t, err)
	first.Close()

	// A read-only directory blocks the -wal/-shm side files, so the WAL
	// pragma fails even though the main file opens.
	require.NoError(t, os.Chmod(dir, 0o555))
	defer os.Chmod(dir, 0o755)

	conn, err := Open(dbPath, nil)
	require.Error(t, err)
	require.Nil(t, conn)

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "journal_mode")
	assert.Contains(t, detailed, "connection.go")
}
