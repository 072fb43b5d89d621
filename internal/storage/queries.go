package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Expense struct {
	ID            string
	Date          string
	Month         string
	Description   string
	AmountCents   int64
	CategoryID    string
	SubcategoryID string
	CategoryType  string
}

type Income struct {
	ID          string
	Date        string
	Month       string
	Source      string
	CategoryID  string
	AmountCents int64
}

type Category struct {
	ID            string
	Name          string
	Type          string
	Icon          string
	Color         string
	ParentID      string
	IsSubcategory bool
	Position      int64
}

type Recurring struct {
	ID            string
	Kind          string
	AmountCents   int64
	Description   string
	Source        string
	CategoryID    string
	SubcategoryID string
	Frequency     string
	DayOfMonth    int64
	StartDate     string
	IsActive      bool
	LastRun       string
}

type Snapshot struct {
	Month     string
	Income    float64
	Expenses  float64
	Savings   float64
	Needs     float64
	Wants     float64
	Allocated float64
}

type Settings struct {
	Currency    string
	IsOnboarded bool
}

const createExpense = `
INSERT INTO expenses (id, date, month, description, amount_cents, category_id, subcategory_id, category_type)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateExpense(ctx context.Context, e Expense) error {
	_, err := q.db.ExecContext(ctx, createExpense,
		e.ID, e.Date, e.Month, e.Description, e.AmountCents, e.CategoryID, e.SubcategoryID, e.CategoryType)
	return err
}

const listExpenses = `
SELECT id, date, month, description, amount_cents, category_id, subcategory_id, category_type
FROM expenses
WHERE (?1 = '' OR month >= ?1) AND (?2 = '' OR month <= ?2)
ORDER BY date, created_at, id`

func (q *Queries) ListExpenses(ctx context.Context, from, to string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(&i.ID, &i.Date, &i.Month, &i.Description, &i.AmountCents,
			&i.CategoryID, &i.SubcategoryID, &i.CategoryType); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteExpense(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createIncome = `
INSERT INTO incomes (id, date, month, source, category_id, amount_cents)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateIncome(ctx context.Context, i Income) error {
	_, err := q.db.ExecContext(ctx, createIncome, i.ID, i.Date, i.Month, i.Source, i.CategoryID, i.AmountCents)
	return err
}

const listIncomes = `
SELECT id, date, month, source, category_id, amount_cents
FROM incomes
WHERE (?1 = '' OR month >= ?1) AND (?2 = '' OR month <= ?2)
ORDER BY date, created_at, id`

func (q *Queries) ListIncomes(ctx context.Context, from, to string) ([]Income, error) {
	rows, err := q.db.QueryContext(ctx, listIncomes, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Income
	for rows.Next() {
		var i Income
		if err := rows.Scan(&i.ID, &i.Date, &i.Month, &i.Source, &i.CategoryID, &i.AmountCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteIncome(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM incomes WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const upsertCategory = `
INSERT INTO categories (id, name, type, icon, color, parent_id, is_subcategory, position)
VALUES (?, ?, ?, ?, ?, ?, ?, COALESCE((SELECT MAX(position) + 1 FROM categories), 0))
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    type = excluded.type,
    icon = excluded.icon,
    color = excluded.color,
    parent_id = excluded.parent_id,
    is_subcategory = excluded.is_subcategory`

func (q *Queries) UpsertCategory(ctx context.Context, c Category) error {
	_, err := q.db.ExecContext(ctx, upsertCategory,
		c.ID, c.Name, c.Type, c.Icon, c.Color, c.ParentID, c.IsSubcategory)
	return err
}

const listCategories = `
SELECT id, name, type, icon, color, parent_id, is_subcategory, position
FROM categories
ORDER BY position, id`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.Type, &i.Icon, &i.Color, &i.ParentID, &i.IsSubcategory, &i.Position); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countCategories = `SELECT COUNT(*) FROM categories`

func (q *Queries) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCategories).Scan(&n)
	return n, err
}

const upsertRecurring = `
INSERT INTO recurring_transactions
    (id, kind, amount_cents, description, source, category_id, subcategory_id, frequency, day_of_month, start_date, is_active, last_run)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    kind = excluded.kind,
    amount_cents = excluded.amount_cents,
    description = excluded.description,
    source = excluded.source,
    category_id = excluded.category_id,
    subcategory_id = excluded.subcategory_id,
    frequency = excluded.frequency,
    day_of_month = excluded.day_of_month,
    start_date = excluded.start_date,
    is_active = excluded.is_active,
    last_run = excluded.last_run`

func (q *Queries) UpsertRecurring(ctx context.Context, r Recurring) error {
	_, err := q.db.ExecContext(ctx, upsertRecurring,
		r.ID, r.Kind, r.AmountCents, r.Description, r.Source, r.CategoryID, r.SubcategoryID,
		r.Frequency, r.DayOfMonth, r.StartDate, r.IsActive, r.LastRun)
	return err
}

const listRecurring = `
SELECT id, kind, amount_cents, description, source, category_id, subcategory_id,
       frequency, day_of_month, start_date, is_active, last_run
FROM recurring_transactions
ORDER BY created_at, id`

func (q *Queries) ListRecurring(ctx context.Context) ([]Recurring, error) {
	rows, err := q.db.QueryContext(ctx, listRecurring)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Recurring
	for rows.Next() {
		var i Recurring
		if err := rows.Scan(&i.ID, &i.Kind, &i.AmountCents, &i.Description, &i.Source, &i.CategoryID,
			&i.SubcategoryID, &i.Frequency, &i.DayOfMonth, &i.StartDate, &i.IsActive, &i.LastRun); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) SetRecurringLastRun(ctx context.Context, id, lastRun string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE recurring_transactions SET last_run = ? WHERE id = ?`, lastRun, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteRecurring(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const upsertSnapshot = `
INSERT INTO monthly_snapshots (month, income, expenses, savings, needs, wants, allocated, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (month) DO UPDATE SET
    income = excluded.income,
    expenses = excluded.expenses,
    savings = excluded.savings,
    needs = excluded.needs,
    wants = excluded.wants,
    allocated = excluded.allocated,
    updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertSnapshot(ctx context.Context, s Snapshot) error {
	_, err := q.db.ExecContext(ctx, upsertSnapshot,
		s.Month, s.Income, s.Expenses, s.Savings, s.Needs, s.Wants, s.Allocated)
	return err
}

const listSnapshots = `
SELECT month, income, expenses, savings, needs, wants, allocated
FROM monthly_snapshots
ORDER BY month`

func (q *Queries) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshots)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Snapshot
	for rows.Next() {
		var i Snapshot
		if err := rows.Scan(&i.Month, &i.Income, &i.Expenses, &i.Savings, &i.Needs, &i.Wants, &i.Allocated); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) GetSettings(ctx context.Context) (Settings, error) {
	var s Settings
	err := q.db.QueryRowContext(ctx, `SELECT currency, is_onboarded FROM settings WHERE id = 1`).
		Scan(&s.Currency, &s.IsOnboarded)
	return s, err
}

const upsertSettings = `
INSERT INTO settings (id, currency, is_onboarded) VALUES (1, ?, ?)
ON CONFLICT (id) DO UPDATE SET currency = excluded.currency, is_onboarded = excluded.is_onboarded`

func (q *Queries) UpsertSettings(ctx context.Context, s Settings) error {
	_, err := q.db.ExecContext(ctx, upsertSettings, s.Currency, s.IsOnboarded)
	return err
}

func (q *Queries) GetAppState(ctx context.Context, key string) ([]byte, error) {
	var b []byte
	err := q.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key).Scan(&b)
	return b, err
}

const putAppState = `
INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

func (q *Queries) PutAppState(ctx context.Context, key string, value []byte) error {
	_, err := q.db.ExecContext(ctx, putAppState, key, value)
	return err
}

func (q *Queries) DeleteAppState(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM app_state WHERE key = ?`, key)
	return err
}

// resetTables lists every table Reset empties; app_state is kept.
var resetTables = []string{"expenses", "incomes", "categories", "recurring_transactions", "monthly_snapshots", "settings"}

func (q *Queries) Reset(ctx context.Context) error {
	for _, t := range resetTables {
		if _, err := q.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return err
		}
	}
	return nil
}
