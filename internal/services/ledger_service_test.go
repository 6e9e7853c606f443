package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashbook/internal/amqp"
	"cashbook/internal/core"
	"cashbook/internal/docstore/memory"
	"cashbook/internal/docsync"
	"cashbook/internal/identity"
	"cashbook/internal/ledger"
	"cashbook/internal/prefs"
)

// flakyStore wraps the memory store and can be told to start rejecting
// writes, for exercising the no-rollback policy.
type flakyStore struct {
	inner   *memory.Store
	failSet bool
}

func (f *flakyStore) Get(ctx context.Context, path string, out any) error {
	return f.inner.Get(ctx, path, out)
}

func (f *flakyStore) Set(ctx context.Context, path string, doc any) error {
	if f.failSet {
		return errors.New("write rejected")
	}
	return f.inner.Set(ctx, path, doc)
}

type env struct {
	svc   *LedgerService
	store *ledger.Store
	docs  *flakyStore
	prefs *prefs.Memory
	sync  *docsync.Syncer
}

// newEnv builds a service bootstrapped from a pre-stored meta document with
// years=[2024] and categories=[Food].
func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	docs := &flakyStore{inner: memory.New()}
	require.NoError(t, docs.inner.Set(ctx, "users/u1/cashbook-meta/meta", core.Meta{
		Years:       []int{2024},
		Categories:  []string{"Food"},
		CurrentYear: 2024,
	}))

	store := ledger.New()
	syncer := docsync.New(docs, identity.NewStatic("u1"), slog.Default())
	pm := prefs.NewMemory()
	svc := NewLedgerService(store, syncer, pm, nil, slog.Default())
	require.NoError(t, svc.Bootstrap(ctx))
	return &env{svc: svc, store: store, docs: docs, prefs: pm, sync: syncer}
}

func addTxn(t *testing.T, e *env, desc, amount, typ, category, month string) core.Transaction {
	t.Helper()
	txn, err := e.svc.AddTransaction(context.Background(), TransactionInput{
		Date:        "2024-03-01",
		Description: desc,
		Amount:      amount,
		Type:        typ,
		Category:    category,
		Month:       month,
	})
	require.NoError(t, err)
	return txn
}

func TestBootstrapSeedsDefaultsOnFirstAccess(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()
	store := ledger.New()
	syncer := docsync.New(docs, identity.NewStatic("fresh"), slog.Default())
	svc := NewLedgerService(store, syncer, prefs.NewMemory(), nil, slog.Default())

	require.NoError(t, svc.Bootstrap(ctx))

	thisYear := time.Now().Year()
	assert.Equal(t, []int{thisYear}, store.Years())
	assert.Equal(t, []string{"Food", "Transport", "Salary"}, store.Categories())
	assert.Equal(t, thisYear, store.CurrentYear())
	assert.Empty(t, store.Transactions())
	// Meta and the seeded empty year document are both persisted.
	assert.Equal(t, 2, docs.Len())
}

func TestBootstrapInertWhenLoggedOut(t *testing.T) {
	docs := memory.New()
	store := ledger.New()
	syncer := docsync.New(docs, identity.NewStatic(""), slog.Default())
	svc := NewLedgerService(store, syncer, prefs.NewMemory(), nil, slog.Default())

	require.NoError(t, svc.Bootstrap(context.Background()))
	assert.Equal(t, 0, docs.Len())
	assert.Empty(t, store.Years())
}

func TestAddYear(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	addTxn(t, e, "lunch", "12.5", "expense", "Food", "March")

	require.NoError(t, e.svc.AddYear(ctx, 2025))

	assert.Equal(t, []int{2024, 2025}, e.store.Years())
	assert.Equal(t, 2025, e.store.CurrentYear())
	// The new year's document does not exist yet: resident list is empty.
	assert.Empty(t, e.store.Transactions())

	// 2024's entries are still persisted and reload intact.
	require.NoError(t, e.svc.SelectYear(ctx, 2024))
	require.Len(t, e.store.Transactions(), 1)
	assert.Equal(t, "lunch", e.store.Transactions()[0].Description)

	assert.ErrorIs(t, e.svc.AddYear(ctx, 2025), core.ErrDuplicateYear)
	assert.ErrorIs(t, e.svc.AddYear(ctx, 99), core.ErrInvalidYear)
}

func TestSelectYearUnknown(t *testing.T) {
	e := newEnv(t)
	assert.ErrorIs(t, e.svc.SelectYear(context.Background(), 1999), core.ErrUnknownYear)
}

func TestAddTransactionScenario(t *testing.T) {
	e := newEnv(t)
	txn := addTxn(t, e, "lunch", "12.5", "expense", "Food", "March")
	assert.NotEmpty(t, txn.ID)
	assert.False(t, txn.Edited)

	p := e.svc.Project(1)
	assert.Equal(t, 1, p.TotalEntries)
	assert.True(t, p.Summary.Income.IsZero())
	assert.Equal(t, "12.5", p.Summary.Expense.String())
	assert.Equal(t, "-12.5", p.Summary.Balance.String())

	// Last-used values are remembered for the next entry form.
	cat, month := e.svc.EntryDefaults(context.Background())
	assert.Equal(t, "Food", cat)
	assert.Equal(t, "March", month)
}

func TestAddTransactionValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.AddTransaction(ctx, TransactionInput{
		Date: "2024-03-01", Description: "  ", Amount: "1", Type: "expense", Month: "March",
	})
	assert.ErrorIs(t, err, core.ErrEmptyDescription)

	_, err = e.svc.AddTransaction(ctx, TransactionInput{
		Date: "2024-03-01", Description: "x", Amount: "-3", Type: "expense", Month: "March",
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = e.svc.AddTransaction(ctx, TransactionInput{
		Date: "2024-03-01", Description: "x", Amount: "1", Type: "transfer", Month: "March",
	})
	assert.ErrorIs(t, err, core.ErrUnknownType)

	// No explicit month, no current month, unparsable date.
	_, err = e.svc.AddTransaction(ctx, TransactionInput{
		Date: "bad", Description: "x", Amount: "1", Type: "expense",
	})
	assert.ErrorIs(t, err, core.ErrUnresolvedMonth)

	// Nothing was appended by the rejected inputs.
	assert.Empty(t, e.store.Transactions())
}

func TestAddTransactionResolvesMonthFromDate(t *testing.T) {
	e := newEnv(t)
	txn := addTxn(t, e, "lunch", "1", "expense", "Food", "")
	assert.Equal(t, "March", txn.Month)
}

func TestEditTransaction(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	created := addTxn(t, e, "lunch", "12.5", "expense", "Food", "March")

	edited, err := e.svc.EditTransaction(ctx, 0, TransactionInput{
		Date:        "2024-03-02",
		Description: "long lunch",
		Amount:      "15",
		Type:        "expense",
		Category:    "Food",
		Month:       "March",
	})
	require.NoError(t, err)
	assert.True(t, edited.Edited)
	assert.Equal(t, created.ID, edited.ID, "surrogate id survives edits")
	assert.Equal(t, "long lunch", e.store.Transactions()[0].Description)

	_, err = e.svc.EditTransaction(ctx, 5, TransactionInput{})
	assert.ErrorIs(t, err, core.ErrIndexOutOfRange)
}

func TestBulkDeleteByMembership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	addTxn(t, e, "A", "1", "expense", "", "March")
	addTxn(t, e, "B", "1", "expense", "", "March")
	addTxn(t, e, "C", "1", "expense", "", "March")
	e.svc.SetSelection([]int{0, 2})

	require.NoError(t, e.svc.DeleteTransactions(ctx, []int{0, 2}))

	txns := e.store.Transactions()
	require.Len(t, txns, 1)
	assert.Equal(t, "B", txns[0].Description)
	assert.Empty(t, e.store.Selection(), "selection cleared after delete")

	// The persisted year matches memory.
	reloaded, err := e.sync.LoadYear(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.Equal(t, "B", reloaded[0].Description)
}

func TestDeleteAllTransactions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	addTxn(t, e, "A", "1", "expense", "", "March")
	require.NoError(t, e.svc.DeleteAllTransactions(ctx))
	assert.Empty(t, e.store.Transactions())
	reloaded, err := e.sync.LoadYear(ctx, 2024)
	require.NoError(t, err)
	assert.Empty(t, reloaded)
}

func TestDeleteCategoryCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	addTxn(t, e, "lunch", "1", "expense", "Food", "March")
	addTxn(t, e, "dinner", "2", "expense", "Food", "March")

	require.NoError(t, e.svc.DeleteCategory(ctx, 0))

	assert.NotContains(t, e.store.Categories(), "Food")
	for _, txn := range e.store.Transactions() {
		assert.NotEqual(t, "Food", txn.Category)
		assert.Equal(t, "", txn.Category)
	}
	// Cascade reached the persisted year document too.
	reloaded, err := e.sync.LoadYear(ctx, 2024)
	require.NoError(t, err)
	for _, txn := range reloaded {
		assert.Equal(t, "", txn.Category)
	}
}

func TestRenameCategoryDoesNotCascade(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	addTxn(t, e, "lunch", "1", "expense", "Food", "March")

	require.NoError(t, e.svc.RenameCategory(ctx, 0, "Groceries"))
	// A new entry can use the new name while the old row keeps the old one.
	addTxn(t, e, "veg", "2", "expense", "Groceries", "March")

	txns := e.store.Transactions()
	assert.Equal(t, "Food", txns[0].Category)
	assert.Equal(t, "Groceries", txns[1].Category)

	assert.ErrorIs(t, e.svc.RenameCategory(ctx, 0, ""), core.ErrEmptyCategory)
	assert.ErrorIs(t, e.svc.AddCategory(ctx, "Groceries"), core.ErrDuplicateCategory)
}

func TestFiltersPersistAndClearIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.svc.SetMonthFilter(ctx, "March"))
	require.NoError(t, e.svc.SetCategoryFilter(ctx, "Food"))
	meta := e.store.Meta()
	assert.Equal(t, "March", meta.FilterMonth)
	assert.Equal(t, "Food", meta.FilterCategory)

	assert.ErrorIs(t, e.svc.SetMonthFilter(ctx, "Marzo"), core.ErrUnknownMonth)

	require.NoError(t, e.svc.ClearFilters(ctx))
	once := e.store.Meta()
	require.NoError(t, e.svc.ClearFilters(ctx))
	twice := e.store.Meta()
	assert.Equal(t, once, twice)
	assert.Equal(t, "", twice.FilterMonth)
	assert.Equal(t, "", twice.FilterCategory)
}

func TestFailedPersistKeepsOptimisticState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.docs.failSet = true

	_, err := e.svc.AddTransaction(ctx, TransactionInput{
		Date: "2024-03-01", Description: "lunch", Amount: "1", Type: "expense", Month: "March",
	})
	var syncErr *docsync.SyncError
	require.ErrorAs(t, err, &syncErr)

	// The in-memory mutation stands: memory is ahead of the store until the
	// next successful save.
	require.Len(t, e.store.Transactions(), 1)

	e.docs.failSet = false
	require.NoError(t, e.svc.DeleteAllTransactions(ctx))
	assert.Empty(t, e.store.Transactions())
}

func TestHandleAuthLogoutResetsState(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()
	ids := identity.NewSwitchable()
	store := ledger.New()
	syncer := docsync.New(docs, ids, slog.Default())
	svc := NewLedgerService(store, syncer, prefs.NewMemory(), nil, slog.Default())
	ids.Subscribe(svc.HandleAuth(ctx))

	ids.Login("u1")
	assert.NotEmpty(t, store.Years())

	ids.Logout()
	assert.Empty(t, store.Years())
	assert.Empty(t, store.Categories())
	assert.Equal(t, 0, store.CurrentYear())

	// While logged out every persistence call is a silent no-op.
	before := docs.Len()
	require.NoError(t, svc.ClearFilters(ctx))
	assert.Equal(t, before, docs.Len())
}

func TestMutationsInertWhileLoggedOut(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()
	ids := identity.NewSwitchable()
	store := ledger.New()
	syncer := docsync.New(docs, ids, slog.Default())
	svc := NewLedgerService(store, syncer, prefs.NewMemory(), nil, slog.Default())
	ids.Subscribe(svc.HandleAuth(ctx))

	ids.Login("u1")
	require.NotEmpty(t, store.Years())
	ids.Logout()
	persisted := docs.Len()

	// Mutations succeed but touch neither the store nor a document.
	require.NoError(t, svc.AddYear(ctx, 2031))
	assert.Empty(t, store.Years())

	txn, err := svc.AddTransaction(ctx, TransactionInput{
		Date:        "2026-03-14",
		Description: "ghost",
		Amount:      "5",
		Type:        "expense",
		Month:       "March",
	})
	require.NoError(t, err)
	assert.Empty(t, txn.ID)
	assert.Empty(t, store.Transactions())

	require.NoError(t, svc.AddCategory(ctx, "Rent"))
	assert.Empty(t, store.Categories())
	require.NoError(t, svc.SetMonthFilter(ctx, "March"))
	assert.Empty(t, store.Snapshot().FilterMonth)
	require.NoError(t, svc.DeleteAllTransactions(ctx))
	assert.Equal(t, persisted, docs.Len())

	// The next login sees none of it.
	ids.Login("u1")
	assert.Equal(t, []int{time.Now().Year()}, store.Years())
	assert.Empty(t, store.Transactions())
}

func TestEntryDefaultsDropStaleCategory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	addTxn(t, e, "lunch", "1", "expense", "Food", "March")

	// Deleting the remembered category invalidates the prefill.
	require.NoError(t, e.svc.DeleteCategory(ctx, 0))
	cat, month := e.svc.EntryDefaults(ctx)
	assert.Equal(t, "", cat)
	assert.Equal(t, "March", month)
}

type recordingPublisher struct {
	kinds []amqp.ChangeKind
	years []int
}

func (r *recordingPublisher) PublishChange(_ context.Context, msg *amqp.ChangeMessage) error {
	r.kinds = append(r.kinds, msg.Kind)
	r.years = append(r.years, msg.Year)
	return nil
}

func TestChangeEventsPublishedAfterPersist(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()
	require.NoError(t, docs.Set(ctx, "users/u1/cashbook-meta/meta", core.Meta{
		Years: []int{2024}, Categories: []string{"Food"}, CurrentYear: 2024,
	}))
	store := ledger.New()
	syncer := docsync.New(docs, identity.NewStatic("u1"), slog.Default())
	pub := &recordingPublisher{}
	svc := NewLedgerService(store, syncer, prefs.NewMemory(), pub, slog.Default())
	require.NoError(t, svc.Bootstrap(ctx))

	_, err := svc.AddTransaction(ctx, TransactionInput{
		Date: "2024-03-01", Description: "lunch", Amount: "1", Type: "expense", Month: "March",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pub.kinds)
	assert.Equal(t, amqp.KindYear, pub.kinds[len(pub.kinds)-1])
	assert.Equal(t, 2024, pub.years[len(pub.years)-1])

	before := len(pub.kinds)
	require.NoError(t, svc.AddCategory(ctx, "Rent"))
	require.Len(t, pub.kinds, before+1)
	assert.Equal(t, amqp.KindMeta, pub.kinds[before])
}
