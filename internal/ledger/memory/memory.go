// Package memory is an in-process Ledger used by tests and by the
// server when no database path is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"kannadi/internal/core"
	"kannadi/internal/ledger"
)

type Store struct {
	mu        sync.Mutex
	cats      []core.Category
	expenses  []core.Expense
	incomes   []core.IncomeEntry
	recurring []core.RecurringTransaction
	snapshots map[core.Month]core.MonthlyData
	blobs     map[string][]byte
	settings  core.Settings
}

var _ ledger.Ledger = (*Store)(nil)

func New(categories []core.Category) *Store {
	return &Store{
		cats:      dedupe(categories),
		snapshots: map[core.Month]core.MonthlyData{},
		blobs:     map[string][]byte{},
	}
}

// NewWithDefaults seeds the store with the embedded default categories.
func NewWithDefaults() (*Store, error) {
	cats, err := core.DefaultCategories()
	if err != nil {
		return nil, err
	}
	return New(cats), nil
}

func (s *Store) AppendExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) AppendIncome(_ context.Context, in core.IncomeEntry) (core.IncomeEntry, error) {
	if err := in.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes = append(s.incomes, in)
	return in, nil
}

// ListExpenses returns matching expenses ordered by date.
func (s *Store) ListExpenses(_ context.Context, from, to core.Month) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.Month().Within(from, to) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *Store) ListIncomes(_ context.Context, from, to core.Month) ([]core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.IncomeEntry
	for _, in := range s.incomes {
		if in.Month().Within(from, to) {
			out = append(out, in)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("expense %s: %w", id, ledger.ErrNotFound)
}

func (s *Store) DeleteIncome(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, in := range s.incomes {
		if in.ID == id {
			s.incomes = append(s.incomes[:i], s.incomes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("income %s: %w", id, ledger.ErrNotFound)
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.cats...), nil
}

// SaveCategory inserts c or replaces the category with the same ID.
func (s *Store) SaveCategory(_ context.Context, c core.Category) error {
	if c.ID == "" || !c.Type.IsValid() {
		return core.ErrInvalidCategoryType
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cats {
		if s.cats[i].ID == c.ID {
			s.cats[i] = c
			return nil
		}
	}
	s.cats = append(s.cats, c)
	return nil
}

func (s *Store) ListRecurring(_ context.Context) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RecurringTransaction(nil), s.recurring...), nil
}

func (s *Store) SaveRecurring(_ context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	for i := range s.recurring {
		if s.recurring[i].ID == rt.ID {
			s.recurring[i] = rt
			return rt, nil
		}
	}
	s.recurring = append(s.recurring, rt)
	return rt, nil
}

func (s *Store) MarkRecurringRun(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurring {
		if s.recurring[i].ID == id {
			s.recurring[i].LastRun = at
			return nil
		}
	}
	return fmt.Errorf("recurring %s: %w", id, ledger.ErrNotFound)
}

func (s *Store) DeleteRecurring(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurring {
		if s.recurring[i].ID == id {
			s.recurring = append(s.recurring[:i], s.recurring[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("recurring %s: %w", id, ledger.ErrNotFound)
}

func (s *Store) LoadSettings(_ context.Context) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, st core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = st
	return nil
}

func (s *Store) SaveSnapshot(_ context.Context, md core.MonthlyData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[md.Month] = md
	return nil
}

// ListSnapshots returns snapshots oldest first.
func (s *Store) ListSnapshots(_ context.Context) ([]core.MonthlyData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.MonthlyData, 0, len(s.snapshots))
	for _, md := range s.snapshots {
		out = append(out, md)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

func (s *Store) GetBlob(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", key, ledger.ErrNotFound)
	}
	return append([]byte(nil), b...), nil
}

func (s *Store) PutBlob(_ context.Context, key string, b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), b...)
	return nil
}

func (s *Store) DeleteBlob(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Reset drops everything except blobs, which have their own lifecycle.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats = nil
	s.expenses = nil
	s.incomes = nil
	s.recurring = nil
	s.snapshots = map[core.Month]core.MonthlyData{}
	s.settings = core.Settings{}
	return nil
}

// dedupe keeps the first category for each ID, preserving order.
func dedupe(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		if c.ID == "" {
			continue
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
