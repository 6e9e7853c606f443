package docsync

import "fmt"

// SyncError reports a failed load or save against the remote document store.
// By the time a save fails the in-memory mutation has already been applied,
// so the caller must treat persistence as possibly stale until the next
// successful save.
type SyncError struct {
	Op   string
	Path string
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
