// Package docstore defines the outbound port for the remote per-user
// document store. Documents are addressed by slash-separated paths and
// written with merge semantics: top-level fields of the written document
// replace their remote counterparts, fields absent from the write are
// preserved.
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound signals that no document exists at the requested path.
// Callers treat it as a seeding trigger, not a failure.
var ErrNotFound = errors.New("document not found")

// Store is the port implemented by remote document backends.
type Store interface {
	// Get decodes the document at path into out. Returns ErrNotFound when
	// the document does not exist.
	Get(ctx context.Context, path string, out any) error

	// Set merge-writes doc at path, creating the document if absent.
	Set(ctx context.Context, path string, doc any) error
}

// MetaPath is the per-user meta document path.
func MetaPath(uid string) string {
	return "users/" + uid + "/cashbook-meta/meta"
}

// YearPath is the per-user, per-year transactions document path.
func YearPath(uid, year string) string {
	return "users/" + uid + "/cashbook/" + year
}
