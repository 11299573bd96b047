// Package storage persists engine preferences and self-play statistics.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chesstree"

// HomeEnv overrides the data directory when set.
const HomeEnv = "CHESSTREE_HOME"

// GetDataDir returns the data directory, creating it if needed:
//   - $CHESSTREE_HOME when set
//   - macOS: ~/Library/Application Support/chesstree/
//   - Windows: %APPDATA%/chesstree/
//   - otherwise: $XDG_DATA_HOME/chesstree/ or ~/.local/share/chesstree/
func GetDataDir() (string, error) {
	dir := os.Getenv(HomeEnv)
	if dir == "" {
		base, err := platformDataHome()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, appName)
	}
	return dir, os.MkdirAll(dir, 0o755)
}

func platformDataHome() (string, error) {
	var env string
	var fallback []string
	switch runtime.GOOS {
	case "darwin":
		fallback = []string{"Library", "Application Support"}
	case "windows":
		env, fallback = "APPDATA", []string{"AppData", "Roaming"}
	default:
		env, fallback = "XDG_DATA_HOME", []string{".local", "share"}
	}

	if env != "" {
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

// GetDatabaseDir returns the badger directory inside the data directory.
func GetDatabaseDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	dbDir := filepath.Join(dataDir, "db")
	return dbDir, os.MkdirAll(dbDir, 0o755)
}
