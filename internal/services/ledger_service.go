// Package services hosts the mutation operations of the cashbook. Every
// operation validates its input first, applies the change to the in-memory
// ledger, then write-through persists the affected document. The in-memory
// mutation is not rolled back when persistence fails; the error is returned
// so the host can warn that the remote copy may be stale.
package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"cashbook/internal/amqp"
	"cashbook/internal/core"
	"cashbook/internal/docsync"
	"cashbook/internal/identity"
	"cashbook/internal/ledger"
	"cashbook/internal/prefs"
	"cashbook/internal/view"
)

// Publisher announces successful persists to interested consumers.
// A nil Publisher disables publication.
type Publisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// TransactionInput carries the raw entry form fields. Amount arrives as the
// string the user typed; parsing is part of validation.
type TransactionInput struct {
	Date        string
	Description string
	Amount      string
	Type        string
	Category    string
	Month       string
}

// LedgerService orchestrates ledger mutations across the in-memory store,
// the remote document sync, and the local preference store. While nobody is
// signed in every mutation is a no-op; the state stays empty until the next
// login bootstraps it.
type LedgerService struct {
	store  *ledger.Store
	sync   *docsync.Syncer
	prefs  prefs.Store
	events Publisher
	log    *slog.Logger
}

func NewLedgerService(store *ledger.Store, sync *docsync.Syncer, prefStore prefs.Store, events Publisher, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		store:  store,
		sync:   sync,
		prefs:  prefStore,
		events: events,
		log:    logger,
	}
}

// Project computes the current filtered, paginated, summarized view.
func (s *LedgerService) Project(page int) view.Projection {
	return view.Project(s.store.Snapshot(), page)
}

// Store exposes the underlying ledger store for raw state reads
// (year list, category list, selection) by the presentation adapter.
func (s *LedgerService) Store() *ledger.Store {
	return s.store
}

// Bootstrap loads (seeding if absent) the meta document and the current
// year's transactions. A no-op while logged out.
func (s *LedgerService) Bootstrap(ctx context.Context) error {
	meta, ok, err := s.sync.InitializeIfAbsent(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.store.ApplyMeta(meta)
	txns, err := s.sync.LoadYear(ctx, s.store.CurrentYear())
	if err != nil {
		return err
	}
	s.store.SetTransactions(txns)
	return nil
}

// HandleAuth is the identity subscription callback: login bootstraps, logout
// wipes all in-memory state. Sync errors during the login bootstrap are
// logged, not propagated; the subscriber interface has no error channel.
func (s *LedgerService) HandleAuth(ctx context.Context) func(identity.User, bool) {
	return func(u identity.User, ok bool) {
		if !ok {
			s.store.Reset()
			s.log.InfoContext(ctx, "signed out, ledger state cleared")
			return
		}
		if err := s.Bootstrap(ctx); err != nil {
			s.log.ErrorContext(ctx, "bootstrap after sign-in failed", "user", u.ID, "error", err)
		}
	}
}

// AddYear inserts a 4-digit year, makes it current, persists the meta
// document, then loads (seeding empty) and thereby persists the new year.
func (s *LedgerService) AddYear(ctx context.Context, year int) error {
	if !s.sync.SignedIn() {
		return nil
	}
	if err := s.store.AddYear(year); err != nil {
		return err
	}
	if err := s.sync.SaveMeta(ctx, s.store.Meta()); err != nil {
		return err
	}
	s.publishMeta(ctx)
	txns, err := s.sync.LoadYear(ctx, year)
	if err != nil {
		return err
	}
	s.store.SetTransactions(txns)
	s.publishYear(ctx, year)
	return nil
}

// SelectYear switches the resident year, discarding the previous year's
// in-memory transactions (every prior mutation already persisted them).
func (s *LedgerService) SelectYear(ctx context.Context, year int) error {
	if !s.sync.SignedIn() {
		return nil
	}
	if !s.store.HasYear(year) {
		return core.ErrUnknownYear
	}
	s.store.SetCurrentYear(year)
	if err := s.sync.SaveMeta(ctx, s.store.Meta()); err != nil {
		return err
	}
	txns, err := s.sync.LoadYear(ctx, year)
	if err != nil {
		return err
	}
	s.store.SetTransactions(txns)
	return nil
}

func (s *LedgerService) SetMonthFilter(ctx context.Context, month string) error {
	if !s.sync.SignedIn() {
		return nil
	}
	if month != "" && !core.IsMonth(month) {
		return core.ErrUnknownMonth
	}
	s.store.SetFilterMonth(month)
	if err := s.sync.SaveMeta(ctx, s.store.Meta()); err != nil {
		return err
	}
	s.publishMeta(ctx)
	return nil
}

func (s *LedgerService) SetCategoryFilter(ctx context.Context, category string) error {
	if !s.sync.SignedIn() {
		return nil
	}
	s.store.SetFilterCategory(category)
	if err := s.sync.SaveMeta(ctx, s.store.Meta()); err != nil {
		return err
	}
	s.publishMeta(ctx)
	return nil
}

func (s *LedgerService) ClearFilters(ctx context.Context) error {
	if !s.sync.SignedIn() {
		return nil
	}
	s.store.ClearFilters()
	if err := s.sync.SaveMeta(ctx, s.store.Meta()); err != nil {
		return err
	}
	s.publishMeta(ctx)
	return nil
}

func (s *LedgerService) AddCategory(ctx context.Context, name string) error {
	if !s.sync.SignedIn() {
		return nil
	}
	if err := s.store.AddCategory(strings.TrimSpace(name)); err != nil {
		return err
	}
	if err := s.sync.SaveMeta(ctx, s.store.Meta()); err != nil {
		return err
	}
	s.publishMeta(ctx)
	return nil
}

// RenameCategory replaces the taxonomy entry only. Historic transactions
// keep the old name by value; there is no cascade.
func (s *LedgerService) RenameCategory(ctx context.Context, index int, newName string) error {
	if !s.sync.SignedIn() {
		return nil
	}
	if err := s.store.RenameCategory(index, strings.TrimSpace(newName)); err != nil {
		return err
	}
	if err := s.sync.SaveMeta(ctx, s.store.Meta()); err != nil {
		return err
	}
	s.publishMeta(ctx)
	return nil
}

// DeleteCategory removes the taxonomy entry and blanks the category of every
// resident transaction that referenced it, persisting both documents.
// Persisted years that are not loaded keep the stale category string until
// they are next loaded.
func (s *LedgerService) DeleteCategory(ctx context.Context, index int) error {
	if !s.sync.SignedIn() {
		return nil
	}
	name, err := s.store.DeleteCategory(index)
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "category deleted", "category", name)
	if err := s.sync.SaveMeta(ctx, s.store.Meta()); err != nil {
		return err
	}
	s.publishMeta(ctx)
	if err := s.saveCurrentYear(ctx); err != nil {
		return err
	}
	return nil
}

// AddTransaction validates and appends a new entry to the resident year and
// persists the year. The chosen category and month are remembered as local
// preferences to prepopulate the next entry form.
func (s *LedgerService) AddTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	if !s.sync.SignedIn() {
		return core.Transaction{}, nil
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	month, err := core.ResolveMonth(in.Month, s.store.CurrentMonth(), in.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	txn := core.Transaction{
		ID:          uuid.NewString(),
		Date:        in.Date,
		Description: strings.TrimSpace(in.Description),
		Amount:      amount,
		Type:        core.EntryType(in.Type),
		Category:    in.Category,
		Month:       month,
	}
	if err := txn.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.store.AppendTransaction(txn)
	s.rememberEntryDefaults(ctx, txn.Category, txn.Month)
	if err := s.saveCurrentYear(ctx); err != nil {
		return txn, err
	}
	return txn, nil
}

// EditTransaction replaces the entry at index with the merged field set and
// marks it edited. The surrogate ID is preserved.
func (s *LedgerService) EditTransaction(ctx context.Context, index int, in TransactionInput) (core.Transaction, error) {
	if !s.sync.SignedIn() {
		return core.Transaction{}, nil
	}
	existing, err := s.store.TransactionAt(index)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	txn := core.Transaction{
		ID:          existing.ID,
		Date:        in.Date,
		Description: strings.TrimSpace(in.Description),
		Amount:      amount,
		Type:        core.EntryType(in.Type),
		Category:    in.Category,
		Month:       in.Month,
		Edited:      true,
	}
	if err := txn.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.ReplaceTransaction(index, txn); err != nil {
		return core.Transaction{}, err
	}
	if err := s.saveCurrentYear(ctx); err != nil {
		return txn, err
	}
	return txn, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, index int) error {
	if !s.sync.SignedIn() {
		return nil
	}
	if err := s.store.RemoveTransaction(index); err != nil {
		return err
	}
	return s.saveCurrentYear(ctx)
}

// DeleteTransactions removes every entry whose index is in the set. Indexes
// refer to the pre-deletion list.
func (s *LedgerService) DeleteTransactions(ctx context.Context, indexes []int) error {
	if !s.sync.SignedIn() {
		return nil
	}
	s.store.RemoveTransactions(indexes)
	return s.saveCurrentYear(ctx)
}

func (s *LedgerService) DeleteAllTransactions(ctx context.Context) error {
	if !s.sync.SignedIn() {
		return nil
	}
	s.store.SetTransactions(nil)
	return s.saveCurrentYear(ctx)
}

// EntryDefaults returns the remembered category and month for prepopulating
// the entry form. A remembered category that no longer exists in the
// taxonomy is dropped; a missing month falls back to the session's current
// month.
func (s *LedgerService) EntryDefaults(ctx context.Context) (category, month string) {
	category, err := s.prefs.Get(ctx, prefs.KeyLastEntryCategory)
	if err != nil {
		s.log.WarnContext(ctx, "read last entry category failed", "error", err)
		category = ""
	}
	if category != "" {
		found := false
		for _, c := range s.store.Categories() {
			if c == category {
				found = true
				break
			}
		}
		if !found {
			category = ""
		}
	}

	month, err = s.prefs.Get(ctx, prefs.KeyLastEntryMonth)
	if err != nil {
		s.log.WarnContext(ctx, "read last entry month failed", "error", err)
		month = ""
	}
	if !core.IsMonth(month) {
		month = s.store.CurrentMonth()
	}
	return category, month
}

// SetSelection records the page-relative rows chosen for bulk actions.
func (s *LedgerService) SetSelection(indexes []int) {
	s.store.SetSelection(indexes)
}

func (s *LedgerService) saveCurrentYear(ctx context.Context) error {
	year := s.store.CurrentYear()
	if err := s.sync.SaveYear(ctx, year, s.store.Transactions()); err != nil {
		return err
	}
	s.publishYear(ctx, year)
	return nil
}

func (s *LedgerService) rememberEntryDefaults(ctx context.Context, category, month string) {
	if err := s.prefs.Set(ctx, prefs.KeyLastEntryCategory, category); err != nil {
		s.log.WarnContext(ctx, "remember last entry category failed", "error", err)
	}
	if err := s.prefs.Set(ctx, prefs.KeyLastEntryMonth, month); err != nil {
		s.log.WarnContext(ctx, "remember last entry month failed", "error", err)
	}
}

func (s *LedgerService) publishMeta(ctx context.Context) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishChange(ctx, amqp.NewMetaChange()); err != nil {
		s.log.WarnContext(ctx, "publish meta change failed", "error", err)
	}
}

func (s *LedgerService) publishYear(ctx context.Context, year int) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishChange(ctx, amqp.NewYearChange(year)); err != nil {
		s.log.WarnContext(ctx, "publish year change failed", "error", err, "year", year)
	}
}
