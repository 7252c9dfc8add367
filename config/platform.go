package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// defaultDataDir locates the per-user application-data tree:
// LOCALAPPDATA on Windows, XDG_DATA_HOME/~/.local/share
// elsewhere, falling back to the current directory if neither resolves.
func defaultDataDir() string {
	if v := os.Getenv("LOCALAPPDATA"); v != "" {
		return filepath.Join(v, "hostcore")
	}
	if runtime.GOOS == "windows" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "AppData", "Local", "hostcore")
		}
	}
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, "hostcore")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "hostcore")
	}
	return ".hostcore"
}
