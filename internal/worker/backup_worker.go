// Package worker mirrors persisted cashbook documents into dated backup
// copies. It consumes change messages and re-reads the touched document
// itself, so a lost message costs at most one backup, never data.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"cashbook/internal/amqp"
	"cashbook/internal/docstore"
)

// BackupWorker copies changed documents to a timestamped backup path in the
// same document store.
type BackupWorker struct {
	docs   docstore.Store
	userID string
	log    *slog.Logger
}

func NewBackupWorker(docs docstore.Store, userID string, logger *slog.Logger) *BackupWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupWorker{docs: docs, userID: userID, log: logger}
}

// backupPath places copies under the user's backup collection, keyed by the
// document name and the change timestamp.
func (w *BackupWorker) backupPath(name string, msg *amqp.ChangeMessage) string {
	return "users/" + w.userID + "/cashbook-backups/" + name + "/" + msg.Timestamp.UTC().Format("20060102T150405Z")
}

// HandleChange backs up the document named by a change message.
func (w *BackupWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	var srcPath, name string
	switch msg.Kind {
	case amqp.KindMeta:
		srcPath = docstore.MetaPath(w.userID)
		name = "meta"
	case amqp.KindYear:
		name = strconv.Itoa(msg.Year)
		srcPath = docstore.YearPath(w.userID, name)
	default:
		return fmt.Errorf("unknown change kind: %s", msg.Kind)
	}

	var doc json.RawMessage
	if err := w.docs.Get(ctx, srcPath, &doc); err != nil {
		return fmt.Errorf("read %s: %w", srcPath, err)
	}

	dstPath := w.backupPath(name, msg)
	if err := w.docs.Set(ctx, dstPath, doc); err != nil {
		return fmt.Errorf("write backup %s: %w", dstPath, err)
	}

	w.log.InfoContext(ctx, "document backed up",
		"kind", msg.Kind,
		"source", srcPath,
		"backup", dstPath)
	return nil
}
