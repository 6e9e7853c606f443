// Package memory is the in-memory document store adapter. It is the default
// backend and the one the tests run against.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"cashbook/internal/docstore"
)

type Store struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, path string, out any) error {
	s.mu.Lock()
	raw, ok := s.docs[path]
	s.mu.Unlock()
	if !ok {
		return docstore.ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (s *Store) Set(_ context.Context, path string, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, err := docstore.MergeJSON(s.docs[path], doc)
	if err != nil {
		return err
	}
	s.docs[path] = merged
	return nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
