package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"kannadi/internal/core"
	"kannadi/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ ledger.Ledger = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable; used by readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SeedCategories stores cats when the category table is empty.
func (r *SQLiteRepository) SeedCategories(ctx context.Context, cats []core.Category) (bool, error) {
	n, err := r.queries.CountCategories(ctx)
	if err != nil {
		return false, fmt.Errorf("count categories: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	err = r.inTx(ctx, func(q *Queries) error {
		for _, c := range cats {
			if err := q.UpsertCategory(ctx, categoryRow(c)); err != nil {
				return fmt.Errorf("seed category %s: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	slog.InfoContext(ctx, "Seeded default categories", "count", len(cats))
	return true, nil
}

func (r *SQLiteRepository) AppendExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := r.queries.CreateExpense(ctx, Expense{
		ID:            e.ID,
		Date:          e.Date.String(),
		Month:         e.Month().String(),
		Description:   e.Description,
		AmountCents:   e.Amount.Cents,
		CategoryID:    e.CategoryID,
		SubcategoryID: e.SubcategoryID,
		CategoryType:  string(e.CategoryType),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"amount_cents", e.Amount.Cents,
		"category", e.CategoryID,
		"date", e.Date.String())
	return e, nil
}

func (r *SQLiteRepository) AppendIncome(ctx context.Context, in core.IncomeEntry) (core.IncomeEntry, error) {
	if err := in.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	err := r.queries.CreateIncome(ctx, Income{
		ID:          in.ID,
		Date:        in.Date.String(),
		Month:       in.Month().String(),
		Source:      in.Source,
		CategoryID:  in.CategoryID,
		AmountCents: in.Amount.Cents,
	})
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("create income: %w", err)
	}
	slog.DebugContext(ctx, "Income saved to SQLite", "id", in.ID, "amount_cents", in.Amount.Cents)
	return in, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, from, to core.Month) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx, monthArg(from), monthArg(to))
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", row.ID, err)
		}
		out = append(out, core.Expense{
			ID:            row.ID,
			Date:          d,
			Description:   row.Description,
			Amount:        core.Money{Cents: row.AmountCents},
			CategoryID:    row.CategoryID,
			SubcategoryID: row.SubcategoryID,
			CategoryType:  core.CategoryType(row.CategoryType),
		})
	}
	return out, nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, from, to core.Month) ([]core.IncomeEntry, error) {
	rows, err := r.queries.ListIncomes(ctx, monthArg(from), monthArg(to))
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	out := make([]core.IncomeEntry, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("income %s: %w", row.ID, err)
		}
		out = append(out, core.IncomeEntry{
			ID:         row.ID,
			Date:       d,
			Source:     row.Source,
			CategoryID: row.CategoryID,
			Amount:     core.Money{Cents: row.AmountCents},
		})
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	n, err := r.queries.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", id, ledger.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id string) error {
	n, err := r.queries.DeleteIncome(ctx, id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("income %s: %w", id, ledger.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Category{
			ID:            row.ID,
			Name:          row.Name,
			Type:          core.CategoryType(row.Type),
			Icon:          row.Icon,
			Color:         row.Color,
			ParentID:      row.ParentID,
			IsSubcategory: row.IsSubcategory,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) SaveCategory(ctx context.Context, c core.Category) error {
	if c.ID == "" || !c.Type.IsValid() {
		return core.ErrInvalidCategoryType
	}
	if err := r.queries.UpsertCategory(ctx, categoryRow(c)); err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

func categoryRow(c core.Category) Category {
	return Category{
		ID:            c.ID,
		Name:          c.Name,
		Type:          string(c.Type),
		Icon:          c.Icon,
		Color:         c.Color,
		ParentID:      c.ParentID,
		IsSubcategory: c.IsSubcategory,
	}
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	rows, err := r.queries.ListRecurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring: %w", err)
	}
	out := make([]core.RecurringTransaction, 0, len(rows))
	for _, row := range rows {
		rt := core.RecurringTransaction{
			ID:            row.ID,
			Kind:          core.TransactionKind(row.Kind),
			Amount:        core.Money{Cents: row.AmountCents},
			Description:   row.Description,
			Source:        row.Source,
			CategoryID:    row.CategoryID,
			SubcategoryID: row.SubcategoryID,
			Frequency:     core.Frequency(row.Frequency),
			DayOfMonth:    int(row.DayOfMonth),
			IsActive:      row.IsActive,
		}
		if row.StartDate != "" {
			if rt.StartDate, err = core.ParseDate(row.StartDate); err != nil {
				return nil, fmt.Errorf("recurring %s: %w", row.ID, err)
			}
		}
		if row.LastRun != "" {
			if rt.LastRun, err = time.Parse(time.RFC3339, row.LastRun); err != nil {
				return nil, fmt.Errorf("recurring %s: %w", row.ID, err)
			}
		}
		out = append(out, rt)
	}
	return out, nil
}

func (r *SQLiteRepository) SaveRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	row := Recurring{
		ID:            rt.ID,
		Kind:          string(rt.Kind),
		AmountCents:   rt.Amount.Cents,
		Description:   rt.Description,
		Source:        rt.Source,
		CategoryID:    rt.CategoryID,
		SubcategoryID: rt.SubcategoryID,
		Frequency:     string(rt.Frequency),
		DayOfMonth:    int64(rt.DayOfMonth),
		IsActive:      rt.IsActive,
	}
	if !rt.StartDate.IsZero() {
		row.StartDate = rt.StartDate.String()
	}
	if !rt.LastRun.IsZero() {
		row.LastRun = rt.LastRun.UTC().Format(time.RFC3339)
	}
	if err := r.queries.UpsertRecurring(ctx, row); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("save recurring: %w", err)
	}
	return rt, nil
}

func (r *SQLiteRepository) MarkRecurringRun(ctx context.Context, id string, at time.Time) error {
	n, err := r.queries.SetRecurringLastRun(ctx, id, at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("mark recurring run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recurring %s: %w", id, ledger.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id string) error {
	n, err := r.queries.DeleteRecurring(ctx, id)
	if err != nil {
		return fmt.Errorf("delete recurring: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recurring %s: %w", id, ledger.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) LoadSettings(ctx context.Context) (core.Settings, error) {
	s, err := r.queries.GetSettings(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return core.Settings{Currency: s.Currency, IsOnboarded: s.IsOnboarded}, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	if err := r.queries.UpsertSettings(ctx, Settings{Currency: s.Currency, IsOnboarded: s.IsOnboarded}); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, md core.MonthlyData) error {
	err := r.queries.UpsertSnapshot(ctx, Snapshot{
		Month:     md.Month.String(),
		Income:    md.Income,
		Expenses:  md.Expenses,
		Savings:   md.Savings,
		Needs:     md.Needs,
		Wants:     md.Wants,
		Allocated: md.Allocated,
	})
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", md.Month, err)
	}
	return nil
}

func (r *SQLiteRepository) ListSnapshots(ctx context.Context) ([]core.MonthlyData, error) {
	rows, err := r.queries.ListSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]core.MonthlyData, 0, len(rows))
	for _, row := range rows {
		m, err := core.ParseMonth(row.Month)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", row.Month, err)
		}
		out = append(out, core.MonthlyData{
			Month:     m,
			Income:    row.Income,
			Expenses:  row.Expenses,
			Savings:   row.Savings,
			Needs:     row.Needs,
			Wants:     row.Wants,
			Allocated: row.Allocated,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) GetBlob(ctx context.Context, key string) ([]byte, error) {
	b, err := r.queries.GetAppState(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blob %s: %w", key, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	return b, nil
}

func (r *SQLiteRepository) PutBlob(ctx context.Context, key string, b []byte) error {
	if err := r.queries.PutAppState(ctx, key, b); err != nil {
		return fmt.Errorf("put blob %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBlob(ctx context.Context, key string) error {
	if err := r.queries.DeleteAppState(ctx, key); err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Reset(ctx context.Context) error {
	if err := r.inTx(ctx, func(q *Queries) error { return q.Reset(ctx) }); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	slog.WarnContext(ctx, "All ledger data removed")
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func monthArg(m core.Month) string {
	if m.IsZero() {
		return ""
	}
	return m.String()
}
