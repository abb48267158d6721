package protocol

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/quietskies/obslog/params"
)

// Format selects the persistence backends of a session. Formats combine
// as a bitmask, so a session can keep both documents in step.
type Format int

const (
	// FormatLine is the line-oriented protocol document plus the JSON
	// snapshot sidecar.
	FormatLine Format = 1 << iota
	// FormatTree is the single tree-structured YAML document embedding
	// the metadata snapshot.
	FormatTree
)

// Has reports whether f includes the given format.
func (f Format) Has(other Format) bool { return f&other != 0 }

// Log is one persistence backend of a session's event log.
//
// Append must be all-or-nothing with respect to the previously persisted
// entries: a failed write surfaces an error and leaves the prior document
// usable. Both methods also persist the current metadata snapshot so the
// stored documents never diverge from memory.
type Log interface {
	// Create writes the initial document(s) containing the snapshot and
	// the first entry. It fails with an error matching fs.ErrExist if a
	// document is already present, leaving it untouched.
	Create(first Entry, snap *params.Store) error
	// Append writes one entry in call order and refreshes the persisted
	// snapshot.
	Append(e Entry, snap *params.Store) error
}

// Backends returns the Log implementations selected by the format mask,
// for the session directory dir (storageRoot/sessionID).
func Backends(f Format, dir, sessionID string) []Log {
	var logs []Log
	if f.Has(FormatLine) {
		logs = append(logs, NewLineLog(dir, sessionID))
	}
	if f.Has(FormatTree) {
		logs = append(logs, NewTreeLog(dir, sessionID))
	}
	return logs
}

// DetectFormats reports which persisted documents exist for a session.
func DetectFormats(dir, sessionID string) Format {
	var f Format
	if _, err := os.Stat(snapshotPath(dir, sessionID)); err == nil {
		f |= FormatLine
	} else if _, err := os.Stat(protocolPath(dir, sessionID)); err == nil {
		f |= FormatLine
	}
	if _, err := os.Stat(treePath(dir, sessionID)); err == nil {
		f |= FormatTree
	}
	return f
}

// ReadSnapshot loads the persisted metadata snapshot of a session,
// preferring the JSON sidecar and falling back to the tree document.
// A missing snapshot surfaces as an error matching fs.ErrNotExist.
func ReadSnapshot(dir, sessionID string) (*params.Store, error) {
	data, err := os.ReadFile(snapshotPath(dir, sessionID))
	if err == nil {
		store, err := params.FromJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot: %w", err)
		}
		return store, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	return readTreeSnapshot(treePath(dir, sessionID))
}

func protocolPath(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+".aop")
}

func snapshotPath(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+".aol")
}

func treePath(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+".aoy")
}

// writeFileAtomic replaces path with data via a temp file and rename, so
// a failed write cannot tear the previously persisted document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
