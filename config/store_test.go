package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "general.json")
	s, err := NewStore(path, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return s, path
}

func TestNewStore_FreshInstallWritesDefaults(t *testing.T) {
	s, path := newTestStore(t)

	// The file exists on disk and round-trips the defaults.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &onDisk))

	assert.Equal(t, float64(51343), onDisk["uihttpport"])
	assert.Equal(t, true, s.All()["hostquery"])
}

func TestNewStore_BackfillsMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "general.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"streamfps": 120}`), 0o644))

	s, err := NewStore(path, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	all := s.All()
	assert.Equal(t, float64(120), all["streamfps"], "existing keys survive")
	assert.NotNil(t, all["uihttpport"], "missing keys backfilled")

	// The backfilled result was re-saved.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.NotNil(t, onDisk["uihttpport"])
}

func TestReplaceAndReset(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Replace(map[string]interface{}{"custom": "value"}))
	assert.Equal(t, "value", s.All()["custom"])
	assert.Nil(t, s.All()["uihttpport"], "Replace is wholesale, not a merge")

	require.NoError(t, s.Reset())
	assert.Nil(t, s.All()["custom"])
	assert.NotNil(t, s.All()["uihttpport"])
}

func TestIntValue(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Replace(map[string]interface{}{
		"fromJSON": float64(51345),
		"asInt":    51346,
		"notANum":  "hello",
	}))

	assert.Equal(t, 51345, s.IntValue("fromJSON", 1))
	assert.Equal(t, 51346, s.IntValue("asInt", 1))
	assert.Equal(t, 1, s.IntValue("notANum", 1))
	assert.Equal(t, 1, s.IntValue("absent", 1))
}

func TestSave_RotatesBackups(t *testing.T) {
	s, path := newTestStore(t)

	require.NoError(t, s.Replace(map[string]interface{}{"gen": 1}))
	require.NoError(t, s.Replace(map[string]interface{}{"gen": 2}))

	_, err := os.Stat(path + ".back1")
	assert.NoError(t, err, "previous generation kept as .back1")
}

func TestLoadBootstrap_DefaultsAndEnv(t *testing.T) {
	b, err := LoadBootstrap("")
	require.NoError(t, err)
	assert.Equal(t, 51343, b.ControlAPIPort)
	assert.Equal(t, 60, b.DiscoveryInterval)

	t.Setenv("HOSTCORE_CONTROL_API_PORT", "51999")
	b, err = LoadBootstrap("")
	require.NoError(t, err)
	assert.Equal(t, 51999, b.ControlAPIPort)
}

func TestLoadBootstrap_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostcore.toml")
	require.NoError(t, os.WriteFile(path, []byte("control_api_port = 52001\nwatchdog_process = \"remoteplay.exe\"\n"), 0o644))

	b, err := LoadBootstrap(path)
	require.NoError(t, err)
	assert.Equal(t, 52001, b.ControlAPIPort)
	assert.Equal(t, "remoteplay.exe", b.WatchdogProcess)
}
