// Package paths provides centralized path resolution for obslog's data directories.
//
// obslog supports the XDG Base Directory Specification for organizing files:
//
//   - Data (XDG_DATA_HOME): sessions/ — persisted observation protocols
//   - State (XDG_STATE_HOME): logs/ — transient log files
//
// Resolution order:
//  1. If ~/.obslog/ exists → use legacy flat layout (all paths under ~/.obslog/)
//  2. If XDG env vars are set → use XDG layout with proper separation
//  3. Fresh install, no XDG vars → default to ~/.obslog/
package paths

import (
	"os"
	"path/filepath"
	"sync"
)

var (
	mu       sync.Mutex
	resolved *resolvedPaths
)

type resolvedPaths struct {
	dataDir  string
	stateDir string
	legacy   bool
}

// resolve computes the path layout once and caches it.
func resolve() (*resolvedPaths, error) {
	mu.Lock()
	defer mu.Unlock()

	if resolved != nil {
		return resolved, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	legacyDir := filepath.Join(home, ".obslog")

	// 1. If ~/.obslog/ exists, use legacy layout
	if info, err := os.Stat(legacyDir); err == nil && info.IsDir() {
		resolved = &resolvedPaths{
			dataDir:  legacyDir,
			stateDir: legacyDir,
			legacy:   true,
		}
		return resolved, nil
	}

	// 2. Check XDG env vars
	xdgData := os.Getenv("XDG_DATA_HOME")
	xdgState := os.Getenv("XDG_STATE_HOME")

	if xdgData != "" || xdgState != "" {
		// Use XDG layout — fill in defaults for unset vars
		if xdgData == "" {
			xdgData = filepath.Join(home, ".local", "share")
		}
		if xdgState == "" {
			xdgState = filepath.Join(home, ".local", "state")
		}
		resolved = &resolvedPaths{
			dataDir:  filepath.Join(xdgData, "obslog"),
			stateDir: filepath.Join(xdgState, "obslog"),
			legacy:   false,
		}
		return resolved, nil
	}

	// 3. Fresh install, no XDG — default to legacy
	resolved = &resolvedPaths{
		dataDir:  legacyDir,
		stateDir: legacyDir,
		legacy:   true,
	}
	return resolved, nil
}

// DataDir returns the directory for persistent data files.
func DataDir() (string, error) {
	r, err := resolve()
	if err != nil {
		return "", err
	}
	return r.dataDir, nil
}

// StateDir returns the directory for runtime state and logs.
func StateDir() (string, error) {
	r, err := resolve()
	if err != nil {
		return "", err
	}
	return r.stateDir, nil
}

// SessionsDir returns the default storage root for session directories.
// Each started session creates one subdirectory named after its session ID.
func SessionsDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions"), nil
}

// LogsDir returns the directory for log files.
func LogsDir() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// IsLegacyLayout returns true if using the ~/.obslog/ flat layout.
func IsLegacyLayout() bool {
	r, err := resolve()
	if err != nil {
		return true // assume legacy on error
	}
	return r.legacy
}

// Reset clears the cached path resolution. This is intended for testing only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	resolved = nil
}
