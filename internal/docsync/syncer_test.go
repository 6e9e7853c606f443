package docsync

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashbook/internal/core"
	"cashbook/internal/docstore/memory"
	"cashbook/internal/identity"
)

func newSyncer(t *testing.T) (*Syncer, *memory.Store) {
	t.Helper()
	store := memory.New()
	s := New(store, identity.NewStatic("u1"), slog.Default())
	s.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return s, store
}

func TestInitializeIfAbsentSeedsAndPersists(t *testing.T) {
	s, store := newSyncer(t)
	ctx := context.Background()

	meta, ok, err := s.InitializeIfAbsent(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int{2024}, meta.Years)
	assert.Equal(t, 2024, meta.CurrentYear)
	assert.Equal(t, []string{"Food", "Transport", "Salary"}, meta.Categories)
	// The seeding read triggers a write.
	assert.Equal(t, 1, store.Len())

	// A second call finds the stored document and does not reseed.
	meta2, ok, err := s.InitializeIfAbsent(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, meta, meta2)
	assert.Equal(t, 1, store.Len())
}

func TestInitializeIfAbsentReturnsStoredMeta(t *testing.T) {
	s, store := newSyncer(t)
	ctx := context.Background()
	stored := core.Meta{
		Years:          []int{2023, 2024},
		Categories:     []string{"Rent"},
		CurrentYear:    2023,
		FilterMonth:    "March",
		FilterCategory: "Rent",
	}
	require.NoError(t, store.Set(ctx, "users/u1/cashbook-meta/meta", stored))

	meta, ok, err := s.InitializeIfAbsent(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stored, meta)
}

func TestYearRoundTrip(t *testing.T) {
	s, _ := newSyncer(t)
	ctx := context.Background()

	txns := []core.Transaction{
		{
			ID:          "a-1",
			Date:        "2024-03-01",
			Description: "lunch",
			Amount:      decimal.RequireFromString("12.5"),
			Type:        core.Expense,
			Category:    "Food",
			Month:       "March",
		},
		{
			Date:        "2024-03-02",
			Description: "salary",
			Amount:      decimal.RequireFromString("1000.01"),
			Type:        core.Income,
			Category:    "Salary",
			Month:       "March",
			Edited:      true,
		},
	}
	require.NoError(t, s.SaveYear(ctx, 2024, txns))

	got, err := s.LoadYear(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range txns {
		assert.Equal(t, txns[i].ID, got[i].ID)
		assert.Equal(t, txns[i].Date, got[i].Date)
		assert.Equal(t, txns[i].Description, got[i].Description)
		assert.True(t, txns[i].Amount.Equal(got[i].Amount), "amount %s != %s", txns[i].Amount, got[i].Amount)
		assert.Equal(t, txns[i].Type, got[i].Type)
		assert.Equal(t, txns[i].Category, got[i].Category)
		assert.Equal(t, txns[i].Month, got[i].Month)
		assert.Equal(t, txns[i].Edited, got[i].Edited)
	}
}

func TestLoadYearSeedsEmptyDocument(t *testing.T) {
	s, store := newSyncer(t)
	ctx := context.Background()

	got, err := s.LoadYear(ctx, 2025)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 1, store.Len())
}

func TestInertWhenLoggedOut(t *testing.T) {
	store := memory.New()
	s := New(store, identity.NewStatic(""), slog.Default())
	ctx := context.Background()

	meta, ok, err := s.InitializeIfAbsent(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, core.Meta{}, meta)

	require.NoError(t, s.SaveMeta(ctx, core.Meta{Years: []int{2024}}))
	require.NoError(t, s.SaveYear(ctx, 2024, []core.Transaction{{Description: "x"}}))

	txns, err := s.LoadYear(ctx, 2024)
	require.NoError(t, err)
	assert.Nil(t, txns)
	assert.Equal(t, 0, store.Len(), "logged-out calls must not touch the store")
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string, any) error { return f.err }
func (f failingStore) Set(context.Context, string, any) error { return f.err }

func TestFailuresWrapAsSyncError(t *testing.T) {
	cause := errors.New("store unreachable")
	s := New(failingStore{err: cause}, identity.NewStatic("u1"), slog.Default())
	ctx := context.Background()

	err := s.SaveMeta(ctx, core.Meta{})
	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "saveMeta", syncErr.Op)
	assert.Equal(t, "users/u1/cashbook-meta/meta", syncErr.Path)
	assert.ErrorIs(t, err, cause)

	err = s.SaveYear(ctx, 2024, nil)
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "saveYear", syncErr.Op)

	_, err = s.LoadYear(ctx, 2024)
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "loadYear", syncErr.Op)

	_, _, err = s.InitializeIfAbsent(ctx)
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "loadMeta", syncErr.Op)
}
