package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/quietskies/obslog/ids"
	"github.com/quietskies/obslog/jd"
	"github.com/quietskies/obslog/logger"
	"github.com/quietskies/obslog/params"
	"github.com/quietskies/obslog/protocol"
)

// State is the lifecycle state of a session.
type State int

const (
	// Unstarted is the state of a freshly constructed session.
	Unstarted State = iota
	// Running is the only state in which entries may be appended.
	Running
	// Aborted is terminal; the session was cut short with a reason.
	Aborted
	// Ended is terminal; the session completed normally.
	Ended
)

func (s State) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Running:
		return "running"
	case Aborted:
		return "aborted"
	case Ended:
		return "ended"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func parseState(s string) (State, bool) {
	switch s {
	case "running":
		return Running, true
	case "aborted":
		return Aborted, true
	case "ended":
		return Ended, true
	}
	return Unstarted, false
}

// TimeConverter converts a timestamp argument (jd.Now or an ISO-8601 UTC
// string) to the serial timestamp written into the protocol.
type TimeConverter func(timestamp string) (float64, error)

// Session is one observation run: an append-only event log plus a mutable
// metadata snapshot, both persisted under storageRoot/<sessionID>/.
//
// A Session is constructed Unstarted; Start assigns the session ID,
// creates the session directory and the initial documents, and moves the
// session to Running. All other mutating operations require Running.
// Abort and End are terminal.
//
// Every operation takes a timestamp argument: pass jd.Now (or "") for the
// current UTC time, or an ISO-8601 conform string to back-date the entry.
//
// Sessions are not safe for concurrent use; at most one in-process handle
// should mutate a given session directory at a time.
type Session struct {
	root        string
	id          string
	state       State
	interrupted bool

	store  *params.Store
	format protocol.Format
	logs   []protocol.Log
	serial TimeConverter
}

// Option configures a Session at construction or load time.
type Option func(*Session)

// WithFormats selects the persistence backends. The default is the line
// format; pass protocol.FormatLine|protocol.FormatTree to keep both
// documents in step.
func WithFormats(f protocol.Format) Option {
	return func(s *Session) { s.format = f }
}

// WithTimeConverter replaces the serial-time collaborator. Intended for
// tests that need deterministic timestamps.
func WithTimeConverter(fn TimeConverter) Option {
	return func(s *Session) { s.serial = fn }
}

// New constructs an Unstarted session that will persist under
// storageRoot. The store carries the session's initial metadata; pass nil
// for an empty one. Fails with ErrNotADirectory if storageRoot is not a
// directory.
func New(storageRoot string, store *params.Store, opts ...Option) (*Session, error) {
	info, err := os.Stat(storageRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, storageRoot)
	}
	if store == nil {
		store = params.New()
	}
	s := &Session{
		root:   storageRoot,
		store:  store,
		format: protocol.FormatLine,
		serial: jd.ToSerial,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ID returns the session identifier, empty until Start.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Interrupted reports whether the session is currently interrupted.
func (s *Session) Interrupted() bool { return s.interrupted }

// Params returns the session's metadata store.
func (s *Session) Params() *params.Store { return s.store }

// Dir returns the session directory, empty until Start.
func (s *Session) Dir() string {
	if s.id == "" {
		return ""
	}
	return filepath.Join(s.root, s.id)
}

// Start begins the observation session: it assigns the session ID,
// creates the session directory, writes the initial documents containing
// the metadata snapshot and the SessionStarted entry, and moves the
// session to Running.
//
// Fails with ErrInvalidState after Abort or End, and with
// ErrAlreadyExists if session documents are already present — starting a
// loaded or already started session leaves the existing documents
// untouched.
func (s *Session) Start(timestamp string) error {
	if s.state == Aborted || s.state == Ended {
		return &StateError{Op: "start session", State: s.state.String()}
	}

	serial, err := s.serial(timestamp)
	if err != nil {
		return err
	}
	entryID, err := ids.NewEntryID(timestamp)
	if err != nil {
		return err
	}

	// The ID is assigned exactly once; a second Start reuses it and
	// trips over the existing documents below.
	if s.id == "" {
		s.id = ids.NewSessionID()
	}
	dir := filepath.Join(s.root, s.id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	prevState, prevInterrupted := s.store.State, s.store.Interrupted
	s.store.SessionID = s.id
	s.store.State = Running.String()
	s.store.Interrupted = false

	s.logs = protocol.Backends(s.format, dir, s.id)
	first := protocol.NewEntry(entryID, serial, protocol.SessionEvent{
		Kind:      protocol.KindSessionStarted,
		SessionID: s.id,
	})
	for _, l := range s.logs {
		if err := l.Create(first, s.store); err != nil {
			s.store.State, s.store.Interrupted = prevState, prevInterrupted
			if errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("%w: %s", ErrAlreadyExists, dir)
			}
			return err
		}
	}

	s.state = Running
	logger.WithSession(s.id).Info("session started", "dir", dir, "backends", len(s.logs))
	return nil
}

// Interrupt marks the running session as interrupted and appends a
// SessionInterrupted entry. Fails with ErrInvalidState unless the session
// is Running and not already interrupted.
func (s *Session) Interrupt(timestamp string) error {
	if err := s.requireRunning("interrupt session"); err != nil {
		return err
	}
	if s.interrupted {
		return &StateError{Op: "interrupt session", State: "interrupted"}
	}
	e, err := s.makeEntry(timestamp, protocol.SessionEvent{Kind: protocol.KindSessionInterrupted})
	if err != nil {
		return err
	}

	s.interrupted = true
	s.store.Interrupted = true
	if err := s.persist(e); err != nil {
		return err
	}
	logger.WithSession(s.id).Info("session interrupted")
	return nil
}

// Resume clears the interrupted flag and appends a SessionResumed entry.
// Fails with ErrInvalidState unless the session is Running and
// interrupted.
func (s *Session) Resume(timestamp string) error {
	if err := s.requireRunning("resume session"); err != nil {
		return err
	}
	if !s.interrupted {
		return &StateError{Op: "resume session", State: "not interrupted"}
	}
	e, err := s.makeEntry(timestamp, protocol.SessionEvent{Kind: protocol.KindSessionResumed})
	if err != nil {
		return err
	}

	s.interrupted = false
	s.store.Interrupted = false
	if err := s.persist(e); err != nil {
		return err
	}
	logger.WithSession(s.id).Info("session resumed")
	return nil
}

// Abort terminates the session with a reason, appending a SessionAborted
// entry. The session is terminal afterwards.
func (s *Session) Abort(reason, timestamp string) error {
	if err := s.requireRunning("abort session"); err != nil {
		return err
	}
	e, err := s.makeEntry(timestamp, protocol.SessionEvent{
		Kind:      protocol.KindSessionAborted,
		SessionID: s.id,
		Reason:    reason,
	})
	if err != nil {
		return err
	}

	s.state = Aborted
	s.store.State = Aborted.String()
	if err := s.persist(e); err != nil {
		return err
	}
	logger.WithSession(s.id).Info("session aborted", "reason", reason)
	return nil
}

// End completes the session normally, appending a SessionEnded entry.
// The session is terminal afterwards.
func (s *Session) End(timestamp string) error {
	if err := s.requireRunning("end session"); err != nil {
		return err
	}
	e, err := s.makeEntry(timestamp, protocol.SessionEvent{
		Kind:      protocol.KindSessionEnded,
		SessionID: s.id,
	})
	if err != nil {
		return err
	}

	s.state = Ended
	s.store.State = Ended.String()
	if err := s.persist(e); err != nil {
		return err
	}
	logger.WithSession(s.id).Info("session ended")
	return nil
}

// Comment appends an observer's comment.
func (s *Session) Comment(text, timestamp string) error {
	if err := s.requireRunning("log comment"); err != nil {
		return err
	}
	return s.appendEntry(timestamp, protocol.Comment{Text: text})
}

// Issue appends an issue report. The severity is one of "potential",
// "normal" or "major", or their single-letter aliases. Fails with
// ErrInvalidArgument on an unknown severity.
func (s *Session) Issue(severity, message, timestamp string) error {
	if err := s.requireRunning("report issue"); err != nil {
		return err
	}
	sev, ok := protocol.ParseSeverity(severity)
	if !ok {
		return argErr("unknown issue severity %q", severity)
	}
	return s.appendEntry(timestamp, protocol.Issue{Severity: sev, Message: message})
}

// PointToName appends a pointing at one or more targets identified by
// name. Fails with ErrInvalidArgument on an empty target list.
func (s *Session) PointToName(targets []string, timestamp string) error {
	if err := s.requireRunning("log pointing"); err != nil {
		return err
	}
	if len(targets) == 0 {
		return argErr("pointing requires at least one target")
	}
	return s.appendEntry(timestamp, protocol.PointingNames{Targets: targets})
}

// PointToCoords appends a pointing at ICRS coordinates. Right ascension
// is in hours, 0 <= ra < 24; declination in degrees, -90 <= dec <= 90.
// Out-of-range values fail with ErrInvalidArgument.
func (s *Session) PointToCoords(ra, dec float64, timestamp string) error {
	if err := s.requireRunning("log pointing"); err != nil {
		return err
	}
	if ra < 0 || ra >= 24 {
		return argErr("R.A. value %v out of range, must be 0 <= ra < 24 hours", ra)
	}
	if dec < -90 || dec > 90 {
		return argErr("Dec. value %v out of range, must be -90 <= dec <= 90 degrees", dec)
	}
	return s.appendEntry(timestamp, protocol.PointingCoords{RA: ra, Dec: dec})
}

// TakeFrame appends the capturing of n frames of the given type and the
// camera settings used. The frame type accepts the full names and their
// aliases (e.g., "science frame", "sf", "s"). Fails with
// ErrInvalidArgument on a non-positive count or an unknown type.
func (s *Session) TakeFrame(n int, ftype string, iso int, expTime, aperture float64, timestamp string) error {
	if err := s.requireRunning("log frame"); err != nil {
		return err
	}
	if n <= 0 {
		return argErr("frame count must be positive, got %d", n)
	}
	ft, ok := protocol.ParseFrameType(ftype)
	if !ok {
		return argErr("unknown frame type %q", ftype)
	}
	return s.appendEntry(timestamp, protocol.Frame{
		Count:        n,
		Type:         ft,
		ISO:          iso,
		ExposureTime: expTime,
		Aperture:     aperture,
	})
}

// Conditions carries the optional fields of a condition report. Nil
// fields are not reported.
type Conditions struct {
	Description *string
	Temp        *float64 // °C
	Pressure    *float64 // hPa
	Humidity    *float64 // percent
}

// ConditionReport logs a condition description and/or measurements. Each
// provided field is processed independently: it updates the metadata
// snapshot and appends its own entry, so the call writes between zero
// (all fields nil — a no-op) and four entries.
//
// Interruption does not block condition reporting; only Running is
// required.
func (s *Session) ConditionReport(c Conditions, timestamp string) error {
	if err := s.requireRunning("report conditions"); err != nil {
		return err
	}

	if c.Description != nil {
		e, err := s.makeEntry(timestamp, protocol.ConditionDescription{Description: *c.Description})
		if err != nil {
			return err
		}
		s.store.Known.ConditionDescription = c.Description
		if err := s.persist(e); err != nil {
			return err
		}
	}

	measurements := []struct {
		quantity protocol.Quantity
		value    *float64
		field    **float64
	}{
		{protocol.QuantityTemperature, c.Temp, &s.store.Known.Temp},
		{protocol.QuantityPressure, c.Pressure, &s.store.Known.Pressure},
		{protocol.QuantityHumidity, c.Humidity, &s.store.Known.Humidity},
	}
	for _, m := range measurements {
		if m.value == nil {
			continue
		}
		e, err := s.makeEntry(timestamp, protocol.ConditionMeasurement{Quantity: m.quantity, Value: *m.value})
		if err != nil {
			return err
		}
		*m.field = m.value
		if err := s.persist(e); err != nil {
			return err
		}
	}
	return nil
}

// VariableStar appends a variable-star magnitude estimate.
func (s *Session) VariableStar(obs protocol.VariableStar, timestamp string) error {
	if err := s.requireRunning("log variable-star observation"); err != nil {
		return err
	}
	return s.appendEntry(timestamp, obs)
}

func (s *Session) requireRunning(op string) error {
	if s.state != Running {
		return &StateError{Op: op, State: s.state.String()}
	}
	return nil
}

// makeEntry resolves the timestamp and builds the entry before any state
// is mutated, so a bad explicit time leaves no side effect.
func (s *Session) makeEntry(timestamp string, p protocol.Payload) (protocol.Entry, error) {
	serial, err := s.serial(timestamp)
	if err != nil {
		return protocol.Entry{}, err
	}
	id, err := ids.NewEntryID(timestamp)
	if err != nil {
		return protocol.Entry{}, err
	}
	return protocol.NewEntry(id, serial, p), nil
}

// persist appends the entry to every configured backend, each refreshing
// its copy of the metadata snapshot.
func (s *Session) persist(e protocol.Entry) error {
	for _, l := range s.logs {
		if err := l.Append(e, s.store); err != nil {
			return err
		}
	}
	logger.WithSession(s.id).Debug("entry appended", "kind", string(e.Kind), "entryID", e.ID)
	return nil
}

func (s *Session) appendEntry(timestamp string, p protocol.Payload) error {
	e, err := s.makeEntry(timestamp, p)
	if err != nil {
		return err
	}
	return s.persist(e)
}
