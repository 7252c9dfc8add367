package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/hostrecord"
)

type stubIdentity struct{}

func (stubIdentity) CertPEM() []byte { return []byte("cert") }
func (stubIdentity) KeyPEM() []byte  { return []byte("key") }

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts.ini")
	reg, err := New(path, stubIdentity{}, func(*hostrecord.Record) {}, zap.NewNop().Sugar())
	require.NoError(t, err)
	return reg, path
}

func TestNew_MissingFile_EmptyRegistry(t *testing.T) {
	reg, _ := newTestRegistry(t)
	assert.Empty(t, reg.All())
	reg.Shutdown()
}

func TestAddGetRemove(t *testing.T) {
	reg, _ := newTestRegistry(t)
	defer reg.Shutdown()

	rec := hostrecord.New("uuid-1")
	assert.True(t, reg.Add(rec))
	assert.False(t, reg.Add(rec), "re-adding the same uuid must fail")

	got, ok := reg.Get("uuid-1")
	require.True(t, ok)
	assert.Equal(t, rec, got)

	removed := reg.Remove("uuid-1")
	require.NotNil(t, removed)
	_, ok = reg.Get("uuid-1")
	assert.False(t, ok)

	assert.Nil(t, reg.Remove("uuid-1"), "removing an already-removed uuid returns nil")
}

func TestSaveHost_SkipsUnchangedPersistedFields(t *testing.T) {
	reg, path := newTestRegistry(t)
	defer reg.Shutdown()

	rec := hostrecord.New("uuid-1")
	rec.SetCustomName("living room PC")
	reg.Add(rec)

	reg.SaveHost(rec) // first call always persists (not yet in Last-Serialized)
	waitForFile(t, path)

	info1, err := os.Stat(path)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	reg.SaveHost(rec) // nothing persisted changed; must not rewrite

	time.Sleep(50 * time.Millisecond)
	info2, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())
}

func TestSaveHosts_PersistsAndReloads(t *testing.T) {
	reg, path := newTestRegistry(t)

	rec := hostrecord.New("uuid-1")
	rec.SetCustomName("office PC")
	rec.SetManualAddress(hostrecord.Address{Host: "10.0.0.5", Port: 47989})
	reg.Add(rec)
	reg.SaveHosts()
	waitForFile(t, path)
	reg.Shutdown()

	reloaded, err := New(path, stubIdentity{}, func(*hostrecord.Record) {}, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer reloaded.Shutdown()

	got, ok := reloaded.Get("uuid-1")
	require.True(t, ok)
	assert.Equal(t, "office PC", got.Name())
	assert.True(t, got.CustomName())
}

func TestShutdown_StopsPollersAndDiscovery(t *testing.T) {
	reg, _ := newTestRegistry(t)

	rec := hostrecord.New("uuid-1")
	reg.Add(rec)
	reg.StartPolling("uuid-1")
	reg.StartDiscovery()

	done := make(chan struct{})
	go func() {
		reg.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Shutdown did not complete")
	}
}

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("file %s was never written", path)
}
