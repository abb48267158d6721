package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quietskies/obslog/paths"
)

func setup(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	paths.Reset()
	Reset()
	t.Cleanup(func() {
		Reset()
		paths.Reset()
	})
	return home
}

func TestInitWritesToCustomPath(t *testing.T) {
	setup(t)
	path := filepath.Join(t.TempDir(), "nested", "test.log")

	if err := Init(path); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	Get().Info("hello from test")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file missing message:\n%s", data)
	}
}

func TestLazyInitUsesDefaultPath(t *testing.T) {
	setup(t)

	Get().Info("lazy message")
	Close()

	path, err := DefaultLogPath()
	if err != nil {
		t.Fatalf("DefaultLogPath failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading default log file: %v", err)
	}
	if !strings.Contains(string(data), "lazy message") {
		t.Errorf("default log file missing message:\n%s", data)
	}
}

func TestWithSessionAttachesField(t *testing.T) {
	setup(t)
	path := filepath.Join(t.TempDir(), "session.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	WithSession("2024-03-05-21-30-00-abcdef0123").Info("entry appended")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "sessionID=2024-03-05-21-30-00-abcdef0123") {
		t.Errorf("log line missing sessionID field:\n%s", data)
	}
}

func TestSetDebug(t *testing.T) {
	setup(t)
	path := filepath.Join(t.TempDir(), "debug.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Get().Debug("hidden")
	SetDebug(true)
	Get().Debug("visible")
	SetDebug(false)
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Error("debug message logged while debug disabled")
	}
	if !strings.Contains(out, "visible") {
		t.Error("debug message missing while debug enabled")
	}
}

func TestClearLogs(t *testing.T) {
	setup(t)

	Get().Info("something to clear")
	Reset()

	n, err := ClearLogs()
	if err != nil {
		t.Fatalf("ClearLogs failed: %v", err)
	}
	if n != 1 {
		t.Errorf("ClearLogs removed %d files, want 1", n)
	}
	if n, err = ClearLogs(); err != nil || n != 0 {
		t.Errorf("second ClearLogs = %d, %v; want 0, nil", n, err)
	}
}
