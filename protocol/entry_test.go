package protocol

import "testing"

func TestPayloadArguments(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		opcode  string
		want    string
	}{
		{
			name:    "session started",
			payload: SessionEvent{Kind: KindSessionStarted, SessionID: "2024-03-05-21-30-00-abcdef0123"},
			opcode:  "SEEV",
			want:    "SESSION 2024-03-05-21-30-00-abcdef0123 STARTED",
		},
		{
			name:    "session interrupted",
			payload: SessionEvent{Kind: KindSessionInterrupted},
			opcode:  "SEEV",
			want:    "SESSION INTERRUPTED",
		},
		{
			name:    "session resumed",
			payload: SessionEvent{Kind: KindSessionResumed},
			opcode:  "SEEV",
			want:    "SESSION RESUMED",
		},
		{
			name:    "session aborted",
			payload: SessionEvent{Kind: KindSessionAborted, SessionID: "x", Reason: "clouds rolled in"},
			opcode:  "SEEV",
			want:    "clouds rolled in: SESSION x ABORTED",
		},
		{
			name:    "session ended",
			payload: SessionEvent{Kind: KindSessionEnded, SessionID: "x"},
			opcode:  "SEEV",
			want:    "SESSION x ENDED",
		},
		{
			name:    "comment",
			payload: Comment{Text: "first light through the new eyepiece"},
			opcode:  "OBSC",
			want:    "first light through the new eyepiece",
		},
		{
			name:    "issue",
			payload: Issue{Severity: SeverityMajor, Message: "mount stopped tracking"},
			opcode:  "ISSU",
			want:    "Major Issue: mount stopped tracking",
		},
		{
			name:    "pointing by name",
			payload: PointingNames{Targets: []string{"M81", "M82"}},
			opcode:  "POIN",
			want:    "Pointing at target(s): M81, M82",
		},
		{
			name:    "pointing by coordinates",
			payload: PointingCoords{RA: 5.5, Dec: -5.25},
			opcode:  "POIN",
			want:    "Pointing at coordinates: R.A.: 5.5 Dec.: -5.25",
		},
		{
			name:    "frame",
			payload: Frame{Count: 20, Type: FrameScience, ISO: 800, ExposureTime: 30, Aperture: 6.3},
			opcode:  "FRAM",
			want:    "20 science frame(s) taken with settings: Exp.t.: 30s, Ap.: f/6.3, ISO: 800",
		},
		{
			name:    "condition description",
			payload: ConditionDescription{Description: "thin cirrus, steady air"},
			opcode:  "CDES",
			want:    "thin cirrus, steady air",
		},
		{
			name:    "temperature measurement",
			payload: ConditionMeasurement{Quantity: QuantityTemperature, Value: -3.5},
			opcode:  "CMES",
			want:    "Temperature: -3.5°C",
		},
		{
			name:    "pressure measurement",
			payload: ConditionMeasurement{Quantity: QuantityPressure, Value: 1013.25},
			opcode:  "CMES",
			want:    "Air Pressure: 1013.25 hPa",
		},
		{
			name:    "humidity measurement",
			payload: ConditionMeasurement{Quantity: QuantityHumidity, Value: 65},
			opcode:  "CMES",
			want:    "Air Humidity: 65%",
		},
		{
			name:    "variable star minimal",
			payload: VariableStar{StarID: "SS Cyg", ChartID: "X16224DJ", Magnitude: 8.4, Comp1: "82"},
			opcode:  "VSOB",
			want:    "Magnitude estimate for SS Cyg: 8.4 using comp 82 (chart X16224DJ)",
		},
		{
			name: "variable star full",
			payload: VariableStar{
				StarID: "SS Cyg", ChartID: "X16224DJ", Magnitude: 8.4,
				Comp1: "82", Comp2: "88", Codes: []string{"Z", "B"},
			},
			opcode: "VSOB",
			want:   "Magnitude estimate for SS Cyg: 8.4 using comp 82 and 88 (chart X16224DJ, codes: Z,B)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.payload.Argument(); got != tt.want {
				t.Errorf("Argument() = %q, want %q", got, tt.want)
			}
			if got := tt.payload.EntryKind().Opcode(); got != tt.opcode {
				t.Errorf("Opcode() = %q, want %q", got, tt.opcode)
			}
		})
	}
}

func TestEntryLine(t *testing.T) {
	e := NewEntry("20240305213000123456-abc", 2440587.5, Comment{Text: "clear skies"})
	want := "(20240305213000123456-abc) 2440587.5000000000 -> OBSC clear skies\n"
	if got := e.Line(); got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
		ok   bool
	}{
		{"potential", SeverityPotential, true},
		{"p", SeverityPotential, true},
		{"normal", SeverityNormal, true},
		{"n", SeverityNormal, true},
		{"major", SeverityMajor, true},
		{"m", SeverityMajor, true},
		{"critical", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSeverity(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseSeverity(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseFrameType(t *testing.T) {
	tests := []struct {
		in   string
		want FrameType
		ok   bool
	}{
		{"science", FrameScience, true},
		{"science frame", FrameScience, true},
		{"s", FrameScience, true},
		{"sc", FrameScience, true},
		{"sf", FrameScience, true},
		{"dark", FrameDark, true},
		{"df", FrameDark, true},
		{"flat", FrameFlat, true},
		{"ff", FrameFlat, true},
		{"bias", FrameBias, true},
		{"b", FrameBias, true},
		{"pointing", FramePointing, true},
		{"pf", FramePointing, true},
		{"luminance", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFrameType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseFrameType(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
