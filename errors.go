package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrLockPoisoned is returned by every RowStore operation after a writer
// panicked while holding the lock.
var ErrLockPoisoned = errors.New("rows: lock poisoned")

var (
	errEmptyPath    = errors.New("remove: empty path")
	errRelativePath = errors.New("remove: relative paths are not allowed")
	errRefuseRoot   = errors.New("remove: refusing to delete root")
)

// RemovalError reports a failed deletion of one artifact directory.
type RemovalError struct {
	Path  string
	Cause error
}

func (e *RemovalError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("failed to remove %s", e.Path)
	}
	return fmt.Sprintf("failed to remove %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *RemovalError) Unwrap() error {
	return e.Cause
}
