package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func setup(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	Reset()
	t.Cleanup(Reset)
	return home
}

func TestFreshInstallDefaultsToLegacy(t *testing.T) {
	home := setup(t)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}
	want := filepath.Join(home, ".obslog")
	if dir != want {
		t.Errorf("DataDir = %s, want %s", dir, want)
	}
	if !IsLegacyLayout() {
		t.Error("fresh install without XDG vars should use legacy layout")
	}
}

func TestExistingLegacyDirWins(t *testing.T) {
	home := setup(t)
	legacy := filepath.Join(home, ".obslog")
	if err := os.MkdirAll(legacy, 0755); err != nil {
		t.Fatal(err)
	}
	// XDG vars are set, but the legacy dir takes precedence.
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "xdg-data"))
	Reset()

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}
	if dir != legacy {
		t.Errorf("DataDir = %s, want %s", dir, legacy)
	}
	state, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir failed: %v", err)
	}
	if state != legacy {
		t.Errorf("StateDir = %s, want %s", state, legacy)
	}
}

func TestXDGLayout(t *testing.T) {
	home := setup(t)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "xdg-data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, "xdg-state"))
	Reset()

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}
	if want := filepath.Join(home, "xdg-data", "obslog"); dir != want {
		t.Errorf("DataDir = %s, want %s", dir, want)
	}
	state, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir failed: %v", err)
	}
	if want := filepath.Join(home, "xdg-state", "obslog"); state != want {
		t.Errorf("StateDir = %s, want %s", state, want)
	}
	if IsLegacyLayout() {
		t.Error("XDG layout reported as legacy")
	}
}

func TestPartialXDGFillsDefaults(t *testing.T) {
	home := setup(t)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "xdg-data"))
	Reset()

	state, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir failed: %v", err)
	}
	if want := filepath.Join(home, ".local", "state", "obslog"); state != want {
		t.Errorf("StateDir = %s, want %s", state, want)
	}
}

func TestDerivedDirs(t *testing.T) {
	home := setup(t)

	sessions, err := SessionsDir()
	if err != nil {
		t.Fatalf("SessionsDir failed: %v", err)
	}
	if want := filepath.Join(home, ".obslog", "sessions"); sessions != want {
		t.Errorf("SessionsDir = %s, want %s", sessions, want)
	}

	logs, err := LogsDir()
	if err != nil {
		t.Fatalf("LogsDir failed: %v", err)
	}
	if want := filepath.Join(home, ".obslog", "logs"); logs != want {
		t.Errorf("LogsDir = %s, want %s", logs, want)
	}
}
