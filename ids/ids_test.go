package ids

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/quietskies/obslog/jd"
)

var (
	sessionIDPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2}-[0-9a-f]{10}$`)
	entryIDPattern   = regexp.MustCompile(`^\d{20}-[0-9a-f]{30}$`)
)

func TestNewSessionIDFormat(t *testing.T) {
	id := NewSessionID()
	if !sessionIDPattern.MatchString(id) {
		t.Errorf("session ID %q does not match expected format", id)
	}
}

func TestNewEntryIDFormat(t *testing.T) {
	id, err := NewEntryID(jd.Now)
	if err != nil {
		t.Fatalf("NewEntryID failed: %v", err)
	}
	if !entryIDPattern.MatchString(id) {
		t.Errorf("entry ID %q does not match expected format", id)
	}
}

func TestNewEntryIDTimestampOverride(t *testing.T) {
	id, err := NewEntryID("2024-03-05T21:30:00.123456")
	if err != nil {
		t.Fatalf("NewEntryID failed: %v", err)
	}
	const wantPrefix = "20240305213000123456-"
	if !strings.HasPrefix(id, wantPrefix) {
		t.Errorf("entry ID %q does not start with %q", id, wantPrefix)
	}
}

func TestNewEntryIDInvalidTimestamp(t *testing.T) {
	if _, err := NewEntryID("05.03.2024"); !errors.Is(err, jd.ErrInvalidTimeFormat) {
		t.Errorf("NewEntryID error = %v, want jd.ErrInvalidTimeFormat", err)
	}
}

func TestSessionIDUniqueness(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id := NewSessionID()
		if seen[id] {
			t.Fatalf("duplicate session ID after %d generations: %s", i, id)
		}
		seen[id] = true
	}
}

func TestEntryIDUniqueness(t *testing.T) {
	// Entry IDs for the same explicit timestamp must still differ.
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id, err := NewEntryID("2024-03-05T21:30:00")
		if err != nil {
			t.Fatalf("NewEntryID failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate entry ID after %d generations: %s", i, id)
		}
		seen[id] = true
	}
}
