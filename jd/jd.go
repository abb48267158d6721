// Package jd converts UTC datetimes to Julian Date serial timestamps.
//
// The Julian Date is the continuous floating-point time representation
// used throughout the persisted protocol documents. All conversions
// assume UTC; explicit timestamps must be ISO-8601 conform.
package jd

import (
	"errors"
	"fmt"
	"time"
)

// Now is the timestamp value that selects the current UTC time.
// An empty string is treated the same way.
const Now = "now"

// ErrInvalidTimeFormat is returned when an explicit timestamp cannot be
// parsed as an ISO-8601 UTC datetime.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// unixEpochJD is the Julian Date of 1970-01-01T00:00:00 UTC.
const unixEpochJD = 2440587.5

// isoLayouts are the accepted ISO-8601 shapes, tried in order.
// Timestamps without an explicit offset are interpreted as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Parse interprets an ISO-8601 UTC timestamp string.
// It fails with ErrInvalidTimeFormat if the string matches no accepted shape.
func Parse(timestamp string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, timestamp); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, timestamp)
}

// FromTime returns the Julian Date corresponding to t.
func FromTime(t time.Time) float64 {
	return float64(t.UnixMicro())/86400e6 + unixEpochJD
}

// ToSerial returns the Julian Date for the given timestamp.
// Pass Now (or an empty string) for the current UTC time, or an ISO-8601
// conform string for a custom datetime. Fails with ErrInvalidTimeFormat
// if the string is not interpretable as a time.
func ToSerial(timestamp string) (float64, error) {
	if timestamp == "" || timestamp == Now {
		return FromTime(time.Now().UTC()), nil
	}
	t, err := Parse(timestamp)
	if err != nil {
		return 0, err
	}
	return FromTime(t), nil
}
