// Package ledger owns the canonical in-memory cashbook state: the year set,
// the category taxonomy, the resident year's transactions, and the active
// filters. Only one year's transactions are resident at a time; loading a
// year replaces the previous list.
//
// The store never talks to persistence itself. Mutation boundaries enforce
// two invariants: years stay sorted ascending without duplicates, and
// categories stay duplicate-free (case-sensitive).
package ledger

import (
	"sort"
	"sync"

	"cashbook/internal/core"
)

type Store struct {
	mu             sync.Mutex
	years          []int
	categories     []string
	transactions   []core.Transaction
	currentYear    int
	currentMonth   string
	filterMonth    string
	filterCategory string

	// Page-relative row selection for bulk actions. Transient: cleared on
	// any reload, filter change, or delete.
	selection []int
}

// Snapshot is an immutable copy of the state the view projection needs.
type Snapshot struct {
	Transactions   []core.Transaction
	FilterMonth    string
	FilterCategory string
	CurrentYear    int
}

func New() *Store {
	return &Store{}
}

// ApplyMeta replaces the cross-year settings from a loaded meta document,
// normalizing them to the store invariants.
func (s *Store) ApplyMeta(m core.Meta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.years = sortedUniqueYears(m.Years)
	s.categories = dedupe(m.Categories)
	s.currentYear = m.CurrentYear
	if len(s.years) > 0 && !containsInt(s.years, s.currentYear) {
		s.currentYear = s.years[0]
	}
	s.currentMonth = m.CurrentMonth
	s.filterMonth = m.FilterMonth
	s.filterCategory = m.FilterCategory
}

// Meta snapshots the cross-year settings for persistence.
func (s *Store) Meta() core.Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Meta{
		Years:          append([]int(nil), s.years...),
		Categories:     append([]string(nil), s.categories...),
		CurrentYear:    s.currentYear,
		CurrentMonth:   s.currentMonth,
		FilterMonth:    s.filterMonth,
		FilterCategory: s.filterCategory,
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Transactions:   append([]core.Transaction(nil), s.transactions...),
		FilterMonth:    s.filterMonth,
		FilterCategory: s.filterCategory,
		CurrentYear:    s.currentYear,
	}
}

// Reset discards all state. Called on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.years = nil
	s.categories = nil
	s.transactions = nil
	s.currentYear = 0
	s.currentMonth = ""
	s.filterMonth = ""
	s.filterCategory = ""
	s.selection = nil
}

func (s *Store) Years() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.years...)
}

func (s *Store) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.categories...)
}

func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...)
}

func (s *Store) CurrentYear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentYear
}

func (s *Store) CurrentMonth() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentMonth
}

// AddYear inserts a new 4-digit year, keeps the set sorted, and makes it
// current.
func (s *Store) AddYear(y int) error {
	if !core.ValidYear(y) {
		return core.ErrInvalidYear
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsInt(s.years, y) {
		return core.ErrDuplicateYear
	}
	s.years = append(s.years, y)
	sort.Ints(s.years)
	s.currentYear = y
	return nil
}

func (s *Store) HasYear(y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return containsInt(s.years, y)
}

func (s *Store) SetCurrentYear(y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentYear = y
}

func (s *Store) SetFilterMonth(m string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterMonth = m
	s.selection = nil
}

func (s *Store) SetFilterCategory(c string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterCategory = c
	s.selection = nil
}

func (s *Store) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterMonth = ""
	s.filterCategory = ""
	s.selection = nil
}

func (s *Store) AddCategory(name string) error {
	if name == "" {
		return core.ErrEmptyCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsString(s.categories, name) {
		return core.ErrDuplicateCategory
	}
	s.categories = append(s.categories, name)
	return nil
}

// RenameCategory replaces the category at index in place. Transactions that
// reference the old name keep it: renames do not cascade into history.
func (s *Store) RenameCategory(index int, newName string) error {
	if newName == "" {
		return core.ErrEmptyCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.categories) {
		return core.ErrIndexOutOfRange
	}
	for i, c := range s.categories {
		if c == newName && i != index {
			return core.ErrDuplicateCategory
		}
	}
	s.categories[index] = newName
	return nil
}

// DeleteCategory removes the category at index and blanks the category field
// of every resident transaction that references it. Returns the removed
// name. Transactions of years not currently loaded are untouched.
func (s *Store) DeleteCategory(index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.categories) {
		return "", core.ErrIndexOutOfRange
	}
	name := s.categories[index]
	s.categories = append(s.categories[:index], s.categories[index+1:]...)
	for i := range s.transactions {
		if s.transactions[i].Category == name {
			s.transactions[i].Category = ""
		}
	}
	return name, nil
}

// SetTransactions replaces the resident year's transaction list wholesale.
func (s *Store) SetTransactions(txns []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]core.Transaction(nil), txns...)
	s.selection = nil
}

func (s *Store) AppendTransaction(t core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, t)
}

func (s *Store) ReplaceTransaction(index int, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.transactions) {
		return core.ErrIndexOutOfRange
	}
	s.transactions[index] = t
	return nil
}

func (s *Store) TransactionAt(index int) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.transactions) {
		return core.Transaction{}, core.ErrIndexOutOfRange
	}
	return s.transactions[index], nil
}

func (s *Store) RemoveTransaction(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.transactions) {
		return core.ErrIndexOutOfRange
	}
	s.transactions = append(s.transactions[:index], s.transactions[index+1:]...)
	s.selection = nil
	return nil
}

// RemoveTransactions removes all entries whose index is in the given set.
// Indexes refer to the pre-deletion list: removal filters by membership
// instead of splicing one by one, so index shift cannot skip rows.
func (s *Store) RemoveTransactions(indexes []int) {
	member := make(map[int]struct{}, len(indexes))
	for _, i := range indexes {
		member[i] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.transactions[:0]
	for i, t := range s.transactions {
		if _, drop := member[i]; !drop {
			kept = append(kept, t)
		}
	}
	s.transactions = kept
	s.selection = nil
}

func (s *Store) SetSelection(indexes []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = append([]int(nil), indexes...)
}

func (s *Store) Selection() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.selection...)
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
}

func sortedUniqueYears(in []int) []int {
	seen := map[int]struct{}{}
	out := make([]int, 0, len(in))
	for _, y := range in {
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
