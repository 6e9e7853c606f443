// Package prefs is the device-local preference store. It remembers the last
// category and month used on an entry form so the next form can be
// prepopulated. Preferences are scoped to the device, not the user account,
// and never travel through the remote document store.
package prefs

import (
	"context"
	"sync"
)

const (
	KeyLastEntryCategory = "lastEntryCategory"
	KeyLastEntryMonth    = "lastEntryMonth"
)

// Store is a simple key to string persistence surviving across sessions.
type Store interface {
	// Get returns the stored value, or "" when the key was never set.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Memory is the in-process Store used in tests and as a fallback.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Close() error { return nil }
