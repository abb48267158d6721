package jd

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestFromTimeKnownValues(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want float64
	}{
		{
			name: "unix epoch",
			in:   time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			want: 2440587.5,
		},
		{
			name: "J2000",
			in:   time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			want: 2451545.0,
		},
		{
			name: "half day past epoch",
			in:   time.Date(1970, 1, 1, 12, 0, 0, 0, time.UTC),
			want: 2440588.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromTime(tt.in)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("FromTime(%v) = %.10f, want %.10f", tt.in, got, tt.want)
			}
		})
	}
}

func TestToSerialExplicitTimestamps(t *testing.T) {
	tests := []struct {
		name      string
		timestamp string
		want      float64
	}{
		{"date only", "1970-01-01", 2440587.5},
		{"seconds", "2000-01-01T12:00:00", 2451545.0},
		{"fractional seconds", "1970-01-02T00:00:00.000000", 2440588.5},
		{"with offset", "2000-01-01T12:00:00Z", 2451545.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToSerial(tt.timestamp)
			if err != nil {
				t.Fatalf("ToSerial(%q) failed: %v", tt.timestamp, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ToSerial(%q) = %.10f, want %.10f", tt.timestamp, got, tt.want)
			}
		})
	}
}

func TestToSerialNow(t *testing.T) {
	for _, timestamp := range []string{Now, ""} {
		before := FromTime(time.Now().UTC())
		got, err := ToSerial(timestamp)
		if err != nil {
			t.Fatalf("ToSerial(%q) failed: %v", timestamp, err)
		}
		after := FromTime(time.Now().UTC())
		if got < before || got > after {
			t.Errorf("ToSerial(%q) = %.10f, want between %.10f and %.10f", timestamp, got, before, after)
		}
	}
}

func TestToSerialInvalid(t *testing.T) {
	invalid := []string{
		"31-12-2020",
		"2020/01/01",
		"yesterday",
		"2020-01-01 12:00:00 UTC",
	}
	for _, timestamp := range invalid {
		if _, err := ToSerial(timestamp); !errors.Is(err, ErrInvalidTimeFormat) {
			t.Errorf("ToSerial(%q) error = %v, want ErrInvalidTimeFormat", timestamp, err)
		}
	}
}

func TestParseAssumesUTC(t *testing.T) {
	got, err := Parse("2024-06-15T22:30:00")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := time.Date(2024, 6, 15, 22, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Parse = %v, want %v", got, want)
	}
}
