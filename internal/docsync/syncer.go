// Package docsync moves ledger state to and from the remote document store:
// one meta document per user, one transactions document per year. Writes are
// whole-document merge-writes; the in-memory state is always authoritative
// and there is no read-back verification.
//
// Every operation is inert while nobody is signed in: it returns zero values
// and no error. Store failures surface as *SyncError; there is no retry and
// the caller's in-memory mutation is never rolled back.
package docsync

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/docstore"
	"cashbook/internal/identity"
)

type Syncer struct {
	store docstore.Store
	ids   identity.Provider
	log   *slog.Logger

	now func() time.Time
}

// yearDocument is the wire shape of a per-year transactions document.
type yearDocument struct {
	Transactions []core.Transaction `json:"transactions"`
}

func New(store docstore.Store, ids identity.Provider, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{store: store, ids: ids, log: logger, now: time.Now}
}

// SignedIn reports whether a user is currently authenticated.
func (s *Syncer) SignedIn() bool {
	_, ok := s.ids.CurrentUser()
	return ok
}

// InitializeIfAbsent loads the user's meta document, seeding and persisting
// the defaults when none exists yet. The bool is false when nobody is signed
// in and nothing was done.
func (s *Syncer) InitializeIfAbsent(ctx context.Context) (core.Meta, bool, error) {
	user, ok := s.ids.CurrentUser()
	if !ok {
		return core.Meta{}, false, nil
	}
	path := docstore.MetaPath(user.ID)

	var meta core.Meta
	err := s.store.Get(ctx, path, &meta)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		meta = core.DefaultMeta(s.now())
		s.log.InfoContext(ctx, "seeding default meta document", "user", user.ID)
		if err := s.store.Set(ctx, path, meta); err != nil {
			return core.Meta{}, false, &SyncError{Op: "saveMeta", Path: path, Err: err}
		}
	case err != nil:
		return core.Meta{}, false, &SyncError{Op: "loadMeta", Path: path, Err: err}
	}
	return meta, true, nil
}

// SaveMeta merge-writes the meta document.
func (s *Syncer) SaveMeta(ctx context.Context, meta core.Meta) error {
	user, ok := s.ids.CurrentUser()
	if !ok {
		return nil
	}
	path := docstore.MetaPath(user.ID)
	if err := s.store.Set(ctx, path, meta); err != nil {
		return &SyncError{Op: "saveMeta", Path: path, Err: err}
	}
	return nil
}

// LoadYear returns the transactions for a year. A missing document is seeded
// as an empty year and persisted immediately, so this read can trigger a
// write.
func (s *Syncer) LoadYear(ctx context.Context, year int) ([]core.Transaction, error) {
	user, ok := s.ids.CurrentUser()
	if !ok {
		return nil, nil
	}
	path := docstore.YearPath(user.ID, strconv.Itoa(year))

	var doc yearDocument
	err := s.store.Get(ctx, path, &doc)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		s.log.InfoContext(ctx, "seeding empty year document", "user", user.ID, "year", year)
		if err := s.SaveYear(ctx, year, nil); err != nil {
			return nil, err
		}
		return []core.Transaction{}, nil
	case err != nil:
		return nil, &SyncError{Op: "loadYear", Path: path, Err: err}
	}
	if doc.Transactions == nil {
		doc.Transactions = []core.Transaction{}
	}
	return doc.Transactions, nil
}

// SaveYear replaces the year's transaction array wholesale. Other fields of
// the remote document are preserved by the merge-write.
func (s *Syncer) SaveYear(ctx context.Context, year int, txns []core.Transaction) error {
	user, ok := s.ids.CurrentUser()
	if !ok {
		return nil
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	path := docstore.YearPath(user.ID, strconv.Itoa(year))
	if err := s.store.Set(ctx, path, yearDocument{Transactions: txns}); err != nil {
		return &SyncError{Op: "saveYear", Path: path, Err: err}
	}
	return nil
}
