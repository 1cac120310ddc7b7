// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/anisan-cli/finplay/constant"
	"github.com/anisan-cli/finplay/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "FINPLAY_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The path can be overridden with the FINPLAY_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Finplay))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Finplay))
}

// State resolves the directory for volatile runtime state shared with other processes.
func State() string {
	return ensureDir(filepath.Join(Cache(), "state"))
}

// Logs resolves the absolute path to the directory used for application diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// History resolves the path to the local resume position registry.
func History() string {
	return filepath.Join(Config(), "history.json")
}

// Preferences resolves the path to the last display preferences received from the server.
func Preferences() string {
	return filepath.Join(Cache(), "preferences.json")
}

// NowPlaying resolves the path of the now-playing snapshot published by the active session.
func NowPlaying() string {
	return filepath.Join(State(), "nowplaying.json")
}

// Temp resolves a volatile directory for transient artifacts such as engine IPC sockets.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Finplay))
}
