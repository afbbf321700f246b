// Package paths resolves where projsync keeps its files.
//
// Resolution order:
// 1. PROJSYNC_HOME (portable root) → $PROJSYNC_HOME/{config,state,cache,run}
// 2. XDG env vars → $XDG_*_HOME/projsync
// 3. Platform defaults → ~/.config/projsync, ~/.local/state/projsync, etc.
package paths

import (
	"os"
	"path/filepath"
)

const appName = "projsync"

func home(sub string) (string, bool) {
	if root := os.Getenv("PROJSYNC_HOME"); root != "" {
		return filepath.Join(root, sub), true
	}
	return "", false
}

// xdgBase returns $env, or ~/fallback when env is unset.
func xdgBase(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append([]string{homeDir}, fallback...)...)
	}
	return ""
}

func resolve(sub, env string, fallback ...string) string {
	if dir, ok := home(sub); ok {
		return dir
	}
	base := xdgBase(env, fallback...)
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// ConfigDir holds the global projsync.yml.
func ConfigDir() string {
	return resolve("config", "XDG_CONFIG_HOME", ".config")
}

// StateDir holds runtime state: the pid file, the hash index, logs.
func StateDir() string {
	return resolve("state", "XDG_STATE_HOME", ".local", "state")
}

// CacheDir holds regenerable data.
func CacheDir() string {
	return resolve("cache", "XDG_CACHE_HOME", ".cache")
}

// RuntimeDir returns the directory for the daemon socket.
// Uses XDG_RUNTIME_DIR when available (Linux), falls back to StateDir (macOS).
func RuntimeDir() string {
	if dir, ok := home("run"); ok {
		return dir
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return StateDir()
}

// SocketPath returns the path to the daemon unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "projsyncd.sock")
}

// PidFilePath returns the path to the daemon PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "projsyncd.pid")
}

// IndexPath returns the default location of the daemon's hash index.
func IndexPath() string {
	return filepath.Join(CacheDir(), "hashindex.db")
}

// EnsureDirs creates all projsync directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), StateDir(), CacheDir(), RuntimeDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
