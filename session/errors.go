package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an operation is not legal in the
	// session's current lifecycle state.
	ErrInvalidState = errors.New("invalid session state")
	// ErrInvalidArgument is returned when an operation's argument fails
	// validation before anything is persisted.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyExists is returned by Start when session documents are
	// already present on disk.
	ErrAlreadyExists = errors.New("session already exists")
	// ErrNotADirectory is returned when the storage root is missing or
	// not a directory.
	ErrNotADirectory = errors.New("not a directory")
	// ErrSessionNotFound is returned by Load when no session directory
	// exists for the given ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSnapshotNotFound is returned by Load when the session directory
	// holds no readable metadata snapshot.
	ErrSnapshotNotFound = errors.New("session snapshot not found")
)

// StateError reports an operation refused because of the session's
// lifecycle state. It unwraps to ErrInvalidState.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("not able to %s: session currently %s", e.Op, e.State)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

func argErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
