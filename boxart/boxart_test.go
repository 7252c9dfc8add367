package boxart

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCachePath_IsHostAppTree(t *testing.T) {
	f := New(t.TempDir(), zaptest.NewLogger(t).Sugar())
	defer f.Close()

	got := f.CachePath("host-uuid", 42)
	assert.Equal(t, filepath.Join(f.cacheDir, "host-uuid", "42.png"), got)
}

func TestExists_FalseUntilFileWritten(t *testing.T) {
	dir := t.TempDir()
	f := New(dir, zaptest.NewLogger(t).Sugar())
	defer f.Close()

	assert.False(t, f.Exists("host-uuid", 1))

	path := f.CachePath("host-uuid", 1)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("fake-png"), 0o644))

	assert.True(t, f.Exists("host-uuid", 1))
}

func TestEnqueue_FailedFetchCallsOnDoneWithEmptyPath(t *testing.T) {
	f := New(t.TempDir(), zaptest.NewLogger(t).Sugar())
	defer f.Close()

	done := make(chan string, 1)
	f.Enqueue(Request{HostUUID: "host-uuid", AppID: 1, URL: "not-a-real-scheme://nowhere"}, func(path string) {
		done <- path
	})

	select {
	case path := <-done:
		assert.Empty(t, path)
	case <-time.After(5 * time.Second):
		t.Fatal("onDone was never called")
	}
}

func TestDeleteHost_RemovesCachedTree(t *testing.T) {
	dir := t.TempDir()
	f := New(dir, zaptest.NewLogger(t).Sugar())
	defer f.Close()

	path := f.CachePath("host-uuid", 1)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("fake-png"), 0o644))

	require.NoError(t, f.DeleteHost("host-uuid"))
	assert.False(t, f.Exists("host-uuid", 1))
	_, err := os.Stat(filepath.Join(dir, "host-uuid"))
	assert.True(t, os.IsNotExist(err))
}

func TestEnqueue_ClosedFetcherDoesNotBlockForever(t *testing.T) {
	f := New(t.TempDir(), zaptest.NewLogger(t).Sugar())
	f.Close()

	doneCh := make(chan struct{})
	go func() {
		f.Enqueue(Request{HostUUID: "h", AppID: 1, URL: fmt.Sprintf("file://%s", t.TempDir())}, func(string) {})
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked after Close")
	}
}
