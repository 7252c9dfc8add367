package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/logger"
)

// defaultSettings backfills any key missing from a loaded general.json:
// a flat map of typed values the UI owns the meaning of, not this process.
func defaultSettings() map[string]interface{} {
	return map[string]interface{}{
		"uihttpport":        51343,
		"streamfps":         60,
		"streambitrate":     20000,
		"streamresolution":  "1920x1080",
		"hostquery":         true,
		"absoluteMouseMode": false,
		"optimizegames":     true,
	}
}

// Store is the opaque, UI-owned JSON blob backing general.json. hostcore
// never interprets its keys beyond load/backfill/save; the HTTP API hands
// the whole map to the UI and accepts a whole map back.
type Store struct {
	mu      sync.RWMutex
	path    string
	data    map[string]interface{}
	log     *zap.SugaredLogger
	watcher *Watcher
}

// NewStore loads path, backfilling missing keys against defaultSettings and
// rewriting the file if anything was backfilled, so a fresh install ends up
// with a complete settings file on first run.
func NewStore(path string, log *zap.SugaredLogger) (*Store, error) {
	s := &Store{path: path, log: logger.WithSymbol(log, "cfg")}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		s.data = defaultSettings()
		if err := s.saveLocked(); err != nil {
			return nil, errors.Wrap(err, "initialize general.json")
		}
		return s, nil
	case err != nil:
		return nil, errors.Wrapf(err, "read %s", path)
	}

	var loaded map[string]interface{}
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}

	backfilled := false
	for k, v := range defaultSettings() {
		if _, ok := loaded[k]; !ok {
			loaded[k] = v
			backfilled = true
		}
	}
	s.data = loaded

	if backfilled {
		s.log.Infow("backfilled missing settings keys", "path", path)
		if err := s.saveLocked(); err != nil {
			return nil, errors.Wrap(err, "resave backfilled settings")
		}
	}
	return s, nil
}

// IntValue reads key as an integer, tolerating the float64 that
// encoding/json produces for numbers, falling back when the key is
// absent or not numeric.
func (s *Store) IntValue(key string, fallback int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch v := s.data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// All returns a copy of the full settings map, for the /settings GET endpoint.
func (s *Store) All() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]interface{}, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Replace overwrites the entire settings map and persists it, for the
// /settings PUT endpoint.
func (s *Store) Replace(next map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = next
	return s.saveLocked()
}

// Reset restores the built-in defaults and persists them, for /settings/reset.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = defaultSettings()
	return s.saveLocked()
}

// saveLocked writes the current map to disk, rotating up to three
// generations of backup (general.json.back1/.back2/.back3). Caller must
// hold s.mu.
func (s *Store) saveLocked() error {
	if s.watcher != nil {
		s.watcher.markOwnWrite()
	}
	rotateBackups(s.path)

	out, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal settings")
	}
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create settings dir %s", dir)
		}
	}
	if err := os.WriteFile(s.path, out, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", s.path)
	}
	return nil
}

func rotateBackups(path string) {
	back3 := path + ".back3"
	back2 := path + ".back2"
	back1 := path + ".back1"
	os.Remove(back3)
	if _, err := os.Stat(back2); err == nil {
		os.Rename(back2, back3)
	}
	if _, err := os.Stat(back1); err == nil {
		os.Rename(back1, back2)
	}
	if _, err := os.Stat(path); err == nil {
		os.Rename(path, back1)
	}
}
