package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"kannadi/internal/core"
	"kannadi/internal/ledger"
)

func TestStoreAppendAndList(t *testing.T) {
	ctx := context.Background()
	s := New([]core.Category{{ID: "a", Name: "A", Type: core.Needs}, {ID: "a", Name: "dup", Type: core.Needs}})

	cats, err := s.ListCategories(ctx)
	if err != nil || len(cats) != 1 || cats[0].Name != "A" {
		t.Fatalf("unexpected categories: %v err=%v", cats, err)
	}

	saved, err := s.AppendExpense(ctx, core.Expense{
		Date:         core.NewDate(2024, 2, 10),
		Amount:       core.Money{Cents: 123},
		CategoryID:   "a",
		CategoryType: core.Needs,
	})
	if err != nil || saved.ID == "" {
		t.Fatalf("unexpected append: %+v err=%v", saved, err)
	}
	if _, err := s.AppendExpense(ctx, core.Expense{Date: core.NewDate(2024, 1, 1)}); err == nil {
		t.Fatalf("invalid expense should be rejected")
	}
	if _, err := s.AppendExpense(ctx, core.Expense{
		Date: core.NewDate(2024, 1, 5), Amount: core.Money{Cents: 1}, CategoryID: "a", CategoryType: core.Needs,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	feb, _ := core.ParseMonth("2024-02")
	got, err := s.ListExpenses(ctx, feb, feb)
	if err != nil || len(got) != 1 || got[0].ID != saved.ID {
		t.Fatalf("month filter failed: %v err=%v", got, err)
	}
	all, _ := s.ListExpenses(ctx, core.Month{}, core.Month{})
	if len(all) != 2 || all[0].Date.Day() != 5 {
		t.Fatalf("expected both expenses ordered by date, got %v", all)
	}

	if err := s.DeleteExpense(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteExpense(ctx, saved.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreRecurring(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	rt, err := s.SaveRecurring(ctx, core.RecurringTransaction{
		Kind: core.KindIncome, Source: "Salary", Amount: core.Money{Cents: 100},
		Frequency: core.Monthly, DayOfMonth: 1, IsActive: true,
	})
	if err != nil || rt.ID == "" {
		t.Fatalf("save: %+v %v", rt, err)
	}
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := s.MarkRecurringRun(ctx, rt.ID, at); err != nil {
		t.Fatalf("mark: %v", err)
	}
	list, _ := s.ListRecurring(ctx)
	if len(list) != 1 || !list[0].LastRun.Equal(at) {
		t.Fatalf("last run not stored: %+v", list)
	}
	if err := s.MarkRecurringRun(ctx, "nope", at); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreBlobsSurviveReset(t *testing.T) {
	ctx := context.Background()
	s, err := NewWithDefaults()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if err := s.PutBlob(ctx, ledger.StateKey, []byte("{}")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if cats, _ := s.ListCategories(ctx); len(cats) != 0 {
		t.Fatalf("reset should drop categories")
	}
	if b, err := s.GetBlob(ctx, ledger.StateKey); err != nil || string(b) != "{}" {
		t.Fatalf("blob lost: %q %v", b, err)
	}
	if _, err := s.GetBlob(ctx, ledger.LegacyStateKey); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
