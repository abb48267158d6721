// Package protocol defines the entry model of an observation protocol and
// the two persistence backends that write it: the line-oriented document
// (one opcode line per entry plus a metadata preamble and a JSON snapshot
// sidecar) and the tree-structured YAML document that embeds the metadata
// snapshot alongside the ordered entries.
package protocol

import (
	"fmt"
	"strings"
)

// Kind identifies the type of a protocol entry.
type Kind string

const (
	KindSessionStarted       Kind = "session-started"
	KindSessionInterrupted   Kind = "session-interrupted"
	KindSessionResumed       Kind = "session-resumed"
	KindSessionAborted       Kind = "session-aborted"
	KindSessionEnded         Kind = "session-ended"
	KindComment              Kind = "comment"
	KindIssue                Kind = "issue"
	KindPointing             Kind = "pointing"
	KindFrame                Kind = "frame"
	KindConditionDescription Kind = "condition-description"
	KindConditionMeasurement Kind = "condition-measurement"
	KindVariableStar         Kind = "variable-star-observation"
)

// Opcode returns the fixed four-letter code used in the line document.
// All five session lifecycle events share the SEEV opcode; the event
// itself is encoded in the argument text.
func (k Kind) Opcode() string {
	switch k {
	case KindSessionStarted, KindSessionInterrupted, KindSessionResumed,
		KindSessionAborted, KindSessionEnded:
		return "SEEV"
	case KindComment:
		return "OBSC"
	case KindIssue:
		return "ISSU"
	case KindPointing:
		return "POIN"
	case KindFrame:
		return "FRAM"
	case KindConditionDescription:
		return "CDES"
	case KindConditionMeasurement:
		return "CMES"
	case KindVariableStar:
		return "VSOB"
	}
	return "????"
}

// Entry is one immutable, timestamped record of a session's event log.
type Entry struct {
	ID      string  // unique across all sessions
	Time    float64 // Julian Date serial timestamp
	Kind    Kind
	Payload Payload
}

// Line renders the entry as one line of the line-oriented document.
func (e Entry) Line() string {
	return fmt.Sprintf("(%s) %.10f -> %s %s\n", e.ID, e.Time, e.Kind.Opcode(), e.Payload.Argument())
}

// Payload carries the kind-specific fields of an entry.
type Payload interface {
	// EntryKind returns the Kind this payload belongs to.
	EntryKind() Kind
	// Argument renders the free-text argument of the line document.
	Argument() string
	// fields lists the kind-specific fields for the tree document, in order.
	fields() []field
}

// field is one named value of a payload in the tree document.
type field struct {
	name  string
	value any
}

// NewEntry builds an Entry for a payload, deriving the Kind.
func NewEntry(id string, time float64, p Payload) Entry {
	return Entry{ID: id, Time: time, Kind: p.EntryKind(), Payload: p}
}

// Severity grades an issue report.
type Severity string

const (
	SeverityPotential Severity = "potential"
	SeverityNormal    Severity = "normal"
	SeverityMajor     Severity = "major"
)

// Label returns the capitalized severity used in the line document.
func (s Severity) Label() string {
	switch s {
	case SeverityPotential:
		return "Potential"
	case SeverityNormal:
		return "Normal"
	case SeverityMajor:
		return "Major"
	}
	return string(s)
}

// ParseSeverity resolves a severity name or its single-letter alias.
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "potential", "p":
		return SeverityPotential, true
	case "normal", "n":
		return SeverityNormal, true
	case "major", "m":
		return SeverityMajor, true
	}
	return "", false
}

// FrameType identifies the kind of camera frame taken.
type FrameType string

const (
	FrameScience  FrameType = "science"
	FrameDark     FrameType = "dark"
	FrameFlat     FrameType = "flat"
	FrameBias     FrameType = "bias"
	FramePointing FrameType = "pointing"
)

// ParseFrameType resolves a frame type name or one of its aliases
// (e.g., "science frame", "sf", "s").
func ParseFrameType(s string) (FrameType, bool) {
	switch s {
	case "science", "science frame", "s", "sc", "sf":
		return FrameScience, true
	case "dark", "dark frame", "d", "df":
		return FrameDark, true
	case "flat", "flat frame", "f", "ff":
		return FrameFlat, true
	case "bias", "bias frame", "b", "bf":
		return FrameBias, true
	case "pointing", "pointing frame", "p", "pf":
		return FramePointing, true
	}
	return "", false
}

// Quantity names a measured observing condition.
type Quantity string

const (
	QuantityTemperature Quantity = "temperature"
	QuantityPressure    Quantity = "pressure"
	QuantityHumidity    Quantity = "humidity"
)

// SessionEvent is the payload of the five lifecycle entries.
type SessionEvent struct {
	Kind      Kind   // one of the session-* kinds
	SessionID string // rendered for started/aborted/ended
	Reason    string // abort only
}

func (p SessionEvent) EntryKind() Kind { return p.Kind }

func (p SessionEvent) Argument() string {
	switch p.Kind {
	case KindSessionStarted:
		return fmt.Sprintf("SESSION %s STARTED", p.SessionID)
	case KindSessionInterrupted:
		return "SESSION INTERRUPTED"
	case KindSessionResumed:
		return "SESSION RESUMED"
	case KindSessionAborted:
		return fmt.Sprintf("%s: SESSION %s ABORTED", p.Reason, p.SessionID)
	case KindSessionEnded:
		return fmt.Sprintf("SESSION %s ENDED", p.SessionID)
	}
	return ""
}

func (p SessionEvent) fields() []field {
	fs := []field{{"event", strings.TrimPrefix(string(p.Kind), "session-")}}
	if p.Reason != "" {
		fs = append(fs, field{"reason", p.Reason})
	}
	return fs
}

// Comment is an observer's freeform comment.
type Comment struct {
	Text string
}

func (p Comment) EntryKind() Kind  { return KindComment }
func (p Comment) Argument() string { return p.Text }
func (p Comment) fields() []field  { return []field{{"text", p.Text}} }

// Issue reports a problem of a given severity.
type Issue struct {
	Severity Severity
	Message  string
}

func (p Issue) EntryKind() Kind { return KindIssue }

func (p Issue) Argument() string {
	return fmt.Sprintf("%s Issue: %s", p.Severity.Label(), p.Message)
}

func (p Issue) fields() []field {
	return []field{{"severity", string(p.Severity)}, {"message", p.Message}}
}

// PointingNames records pointing at one or more targets identified by name.
type PointingNames struct {
	Targets []string
}

func (p PointingNames) EntryKind() Kind { return KindPointing }

func (p PointingNames) Argument() string {
	return "Pointing at target(s): " + strings.Join(p.Targets, ", ")
}

func (p PointingNames) fields() []field {
	return []field{{"targets", p.Targets}}
}

// PointingCoords records pointing at ICRS coordinates, R.A. in hours and
// declination in degrees.
type PointingCoords struct {
	RA  float64
	Dec float64
}

func (p PointingCoords) EntryKind() Kind { return KindPointing }

func (p PointingCoords) Argument() string {
	return fmt.Sprintf("Pointing at coordinates: R.A.: %v Dec.: %v", p.RA, p.Dec)
}

func (p PointingCoords) fields() []field {
	return []field{{"ra", p.RA}, {"dec", p.Dec}}
}

// Frame records the capturing of one or more frames and the camera
// settings used.
type Frame struct {
	Count        int
	Type         FrameType
	ISO          int
	ExposureTime float64 // seconds
	Aperture     float64 // f-stop denominator
}

func (p Frame) EntryKind() Kind { return KindFrame }

func (p Frame) Argument() string {
	return fmt.Sprintf("%d %s frame(s) taken with settings: Exp.t.: %vs, Ap.: f/%v, ISO: %d",
		p.Count, p.Type, p.ExposureTime, p.Aperture, p.ISO)
}

func (p Frame) fields() []field {
	return []field{
		{"count", p.Count},
		{"frameType", string(p.Type)},
		{"iso", p.ISO},
		{"exposureTime", p.ExposureTime},
		{"aperture", p.Aperture},
	}
}

// ConditionDescription is a freeform description of the observing conditions.
type ConditionDescription struct {
	Description string
}

func (p ConditionDescription) EntryKind() Kind  { return KindConditionDescription }
func (p ConditionDescription) Argument() string { return p.Description }
func (p ConditionDescription) fields() []field {
	return []field{{"description", p.Description}}
}

// ConditionMeasurement is one measured condition value.
type ConditionMeasurement struct {
	Quantity Quantity
	Value    float64
}

func (p ConditionMeasurement) EntryKind() Kind { return KindConditionMeasurement }

func (p ConditionMeasurement) Argument() string {
	switch p.Quantity {
	case QuantityTemperature:
		return fmt.Sprintf("Temperature: %v°C", p.Value)
	case QuantityPressure:
		return fmt.Sprintf("Air Pressure: %v hPa", p.Value)
	case QuantityHumidity:
		return fmt.Sprintf("Air Humidity: %v%%", p.Value)
	}
	return fmt.Sprintf("%s: %v", p.Quantity, p.Value)
}

func (p ConditionMeasurement) fields() []field {
	return []field{{"quantity", string(p.Quantity)}, {"value", p.Value}}
}

// VariableStar records a visual magnitude estimate of a variable star
// against one or two comparison stars.
type VariableStar struct {
	StarID    string
	ChartID   string
	Magnitude float64
	Comp1     string
	Comp2     string   // optional
	Codes     []string // optional observation codes
}

func (p VariableStar) EntryKind() Kind { return KindVariableStar }

func (p VariableStar) Argument() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Magnitude estimate for %s: %v using comp %s", p.StarID, p.Magnitude, p.Comp1)
	if p.Comp2 != "" {
		fmt.Fprintf(&b, " and %s", p.Comp2)
	}
	fmt.Fprintf(&b, " (chart %s", p.ChartID)
	if len(p.Codes) > 0 {
		fmt.Fprintf(&b, ", codes: %s", strings.Join(p.Codes, ","))
	}
	b.WriteString(")")
	return b.String()
}

func (p VariableStar) fields() []field {
	fs := []field{
		{"starID", p.StarID},
		{"chartID", p.ChartID},
		{"magnitude", p.Magnitude},
		{"comp1", p.Comp1},
	}
	if p.Comp2 != "" {
		fs = append(fs, field{"comp2", p.Comp2})
	}
	if len(p.Codes) > 0 {
		fs = append(fs, field{"codes", p.Codes})
	}
	return fs
}
