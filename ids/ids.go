// Package ids generates collision-resistant identifiers for sessions and
// protocol entries.
//
// Identifiers combine a UTC timestamp prefix (so they sort roughly by
// creation time) with a random hexadecimal suffix. They are not
// cryptographically unique, but collisions are negligible for the
// document's purpose.
package ids

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quietskies/obslog/jd"
)

const (
	// SessionSuffixLen is the random hex suffix length for session IDs.
	SessionSuffixLen = 10
	// EntrySuffixLen is the random hex suffix length for entry IDs.
	// Entry IDs are unique even across sessions, so the suffix is longer.
	EntrySuffixLen = 30
)

// randomHex returns n random hexadecimal characters.
func randomHex(n int) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	for len(hex) < n {
		hex += strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	return hex[:n]
}

// NewSessionID generates a unique session identifier of the form
// YYYY-MM-DD-HH-MM-SS-<suffix>, using the current UTC time at second
// resolution and a SessionSuffixLen-long random hex suffix.
func NewSessionID() string {
	now := time.Now().UTC()
	return fmt.Sprintf("%s-%s", now.Format("2006-01-02-15-04-05"), randomHex(SessionSuffixLen))
}

// NewEntryID generates a unique entry identifier of the form
// YYYYMMDDhhmmssffffff-<suffix>, with microsecond resolution and an
// EntrySuffixLen-long random hex suffix.
//
// Pass jd.Now (or an empty string) to use the current UTC time, or an
// ISO-8601 conform string to back-date the entry. Fails with
// jd.ErrInvalidTimeFormat on an unparsable override.
func NewEntryID(timestamp string) (string, error) {
	var t time.Time
	if timestamp == "" || timestamp == jd.Now {
		t = time.Now().UTC()
	} else {
		var err error
		t, err = jd.Parse(timestamp)
		if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s%06d-%s", t.Format("20060102150405"), t.Nanosecond()/1000, randomHex(EntrySuffixLen)), nil
}
