// Package gcs stores cashbook documents as JSON objects in a Google Cloud
// Storage bucket, one object per document path. Merge-write is implemented
// client side as read-modify-write; the cashbook is single-user per session
// so the window between read and write carries the same last-write-wins
// semantics as the rest of the sync layer.
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"cashbook/internal/docstore"
)

type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a GCS-backed document store. Credentials come from Application
// Default Credentials unless overridden through opts.
func New(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) objectName(docPath string) string {
	return path.Join(s.prefix, docPath) + ".json"
}

func (s *Store) Get(ctx context.Context, docPath string, out any) error {
	raw, err := s.read(ctx, docPath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document %q: %w", docPath, err)
	}
	return nil
}

func (s *Store) Set(ctx context.Context, docPath string, doc any) error {
	existing, err := s.read(ctx, docPath)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return err
	}
	merged, err := docstore.MergeJSON(existing, doc)
	if err != nil {
		return fmt.Errorf("merge document %q: %w", docPath, err)
	}

	obj := s.client.Bucket(s.bucket).Object(s.objectName(docPath))
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(merged); err != nil {
		_ = w.Close()
		return fmt.Errorf("write document %q: %w", docPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize document %q: %w", docPath, err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, docPath string) ([]byte, error) {
	rc, err := s.client.Bucket(s.bucket).Object(s.objectName(docPath)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("open document %q: %w", docPath, err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read document %q: %w", docPath, err)
	}
	return raw, nil
}
