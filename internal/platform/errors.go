package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the requested ref, directory or file does
	// not exist on the platform.
	ErrNotFound = errors.New("not found on platform")
	// ErrBranchExists indicates that a branch with the requested name is
	// already taken.
	ErrBranchExists = errors.New("branch already exists")
	// ErrConflict indicates that a conditional write or delete lost a race
	// against a concurrent change (stale content token).
	ErrConflict = errors.New("content changed concurrently")
)

// TransientError wraps a network or availability failure of the platform.
// It carries the operation and target so the caller can decide whether to
// retry the whole submission.
type TransientError struct {
	// Op is the platform operation that failed (e.g. "create branch").
	Op string
	// Target is the object the operation addressed (branch name, path, ...).
	Target string
	// Err is the underlying failure.
	Err error
}

func (e *TransientError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("platform unavailable during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("platform unavailable during %s %q: %v", e.Op, e.Target, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}
