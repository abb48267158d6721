package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/quietskies/obslog/jd"
	"github.com/quietskies/obslog/logger"
	"github.com/quietskies/obslog/protocol"
)

// Load restores a previously persisted session from
// storageRoot/<sessionID>/. The metadata snapshot determines the restored
// state and interrupted flag; appends continue the existing documents,
// and only the formats actually found on disk are kept in step.
//
// Fails with ErrNotADirectory if storageRoot is not a directory,
// ErrSessionNotFound if no session directory exists for the ID, and
// ErrSnapshotNotFound if the directory holds no readable snapshot.
func Load(storageRoot, sessionID string, opts ...Option) (*Session, error) {
	info, err := os.Stat(storageRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, storageRoot)
	}
	dir := filepath.Join(storageRoot, sessionID)
	info, err = os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	store, err := protocol.ReadSnapshot(dir, sessionID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, dir)
		}
		return nil, fmt.Errorf("%w: %v", ErrSnapshotNotFound, err)
	}
	if store.SessionID == "" {
		store.SessionID = sessionID
	}

	state, ok := parseState(store.State)
	if !ok {
		return nil, fmt.Errorf("%w: unknown state %q", ErrSnapshotNotFound, store.State)
	}

	format := protocol.DetectFormats(dir, sessionID)
	if format == 0 {
		format = protocol.FormatLine
	}

	s := &Session{
		root:        storageRoot,
		id:          sessionID,
		state:       state,
		interrupted: store.Interrupted,
		store:       store,
		format:      format,
		serial:      jd.ToSerial,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logs = protocol.Backends(s.format, dir, sessionID)

	logger.WithSession(sessionID).Info("session loaded",
		"state", state.String(), "interrupted", store.Interrupted)
	return s, nil
}
