package backend

import (
	"context"

	"cashbook/internal/amqp"
	"cashbook/internal/docstore"
	"cashbook/internal/prefs"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result bundles the concrete adapters a running application needs.
// Events is nil when no AMQP URL is configured.
type Result struct {
	Docs    docstore.Store
	Prefs   prefs.Store
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type DocstoreType

	// GCS specific
	GCSBucket string
	GCSPrefix string

	// Preference store
	PrefsDBPath string

	// Change events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// DocstoreType selects the document store adapter.
type DocstoreType string

const (
	MemoryDocstore DocstoreType = "memory"
	GCSDocstore    DocstoreType = "gcs"
)

// String implements fmt.Stringer
func (dt DocstoreType) String() string {
	return string(dt)
}

// IsValid returns true if the docstore type is valid
func (dt DocstoreType) IsValid() bool {
	switch dt {
	case MemoryDocstore, GCSDocstore:
		return true
	default:
		return false
	}
}
