package protocol

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/quietskies/obslog/params"
)

// LineLog persists the event log as a line-oriented protocol document
// (<sessionID>.aop) plus a JSON metadata snapshot (<sessionID>.aol).
//
// The protocol document starts with a metadata preamble — one
// "key: value" line per field, excluding the mutable lifecycle flags —
// followed by a blank line and the entries in append order.
type LineLog struct {
	dir       string
	sessionID string
}

// NewLineLog returns a LineLog writing into dir (storageRoot/sessionID).
func NewLineLog(dir, sessionID string) *LineLog {
	return &LineLog{dir: dir, sessionID: sessionID}
}

// Create writes the initial protocol document and snapshot.
// Fails with an error matching fs.ErrExist if either file is present.
func (l *LineLog) Create(first Entry, snap *params.Store) error {
	aop := protocolPath(l.dir, l.sessionID)
	aol := snapshotPath(l.dir, l.sessionID)

	// Check the snapshot sidecar up front so a stale .aol without a
	// matching .aop still refuses the start instead of being clobbered.
	if _, err := os.Stat(aol); err == nil {
		return fmt.Errorf("snapshot document %s: %w", aol, fs.ErrExist)
	}

	f, err := os.OpenFile(aop, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create protocol document: %w", err)
	}

	var b strings.Builder
	for _, kv := range snap.Snapshot() {
		// The preamble holds only the static parameters; the mutable
		// flags live in the snapshot sidecar.
		if kv.Key == params.KeyState || kv.Key == params.KeyInterrupted {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", kv.Key, preambleValue(kv.Value))
	}
	b.WriteString("\n")
	b.WriteString(first.Line())

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("write protocol document: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write protocol document: %w", err)
	}

	return l.writeSnapshot(snap)
}

// Append adds one entry line to the protocol document and refreshes the
// snapshot sidecar.
func (l *LineLog) Append(e Entry, snap *params.Store) error {
	f, err := os.OpenFile(protocolPath(l.dir, l.sessionID), os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open protocol document: %w", err)
	}
	if _, err := f.WriteString(e.Line()); err != nil {
		f.Close()
		return fmt.Errorf("append to protocol document: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("append to protocol document: %w", err)
	}

	return l.writeSnapshot(snap)
}

// writeSnapshot rewrites the .aol sidecar atomically, replacing the prior
// snapshot in one rename.
func (l *LineLog) writeSnapshot(snap *params.Store) error {
	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := writeFileAtomic(snapshotPath(l.dir, l.sessionID), data); err != nil {
		return fmt.Errorf("write snapshot document: %w", err)
	}
	return nil
}

// preambleValue renders a metadata value for the preamble: strings are
// written verbatim, everything else as JSON.
func preambleValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
