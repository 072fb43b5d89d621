// Package ledger defines the storage ports the services depend on. The
// SQLite repository and the in-memory store both implement them.
package ledger

import (
	"context"
	"errors"
	"time"

	"kannadi/internal/core"
)

// Keys of the whole-app state blob. Data found under LegacyStateKey is moved
// to StateKey on load.
const (
	StateKey       = "kannadi-data"
	LegacyStateKey = "simple-finance-data"
)

var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	// ExpenseWriter stores an expense, assigning an ID when it has none.
	ExpenseWriter interface {
		AppendExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	}

	IncomeWriter interface {
		AppendIncome(ctx context.Context, in core.IncomeEntry) (core.IncomeEntry, error)
	}

	// TransactionLister returns records whose month falls in [from, to].
	// Zero bounds are open.
	TransactionLister interface {
		ListExpenses(ctx context.Context, from, to core.Month) ([]core.Expense, error)
		ListIncomes(ctx context.Context, from, to core.Month) ([]core.IncomeEntry, error)
	}

	TransactionDeleter interface {
		DeleteExpense(ctx context.Context, id string) error
		DeleteIncome(ctx context.Context, id string) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		SaveCategory(ctx context.Context, c core.Category) error
	}

	RecurringStore interface {
		ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error)
		SaveRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error)
		MarkRecurringRun(ctx context.Context, id string, at time.Time) error
		DeleteRecurring(ctx context.Context, id string) error
	}

	SettingsStore interface {
		LoadSettings(ctx context.Context) (core.Settings, error)
		SaveSettings(ctx context.Context, s core.Settings) error
	}

	// SnapshotStore keeps the precomputed MonthlyData the worker maintains.
	SnapshotStore interface {
		SaveSnapshot(ctx context.Context, md core.MonthlyData) error
		ListSnapshots(ctx context.Context) ([]core.MonthlyData, error)
	}

	// BlobStore is a small key/value area for the exported state blob.
	BlobStore interface {
		GetBlob(ctx context.Context, key string) ([]byte, error)
		PutBlob(ctx context.Context, key string, b []byte) error
		DeleteBlob(ctx context.Context, key string) error
	}

	// Ledger is everything a backend provides.
	Ledger interface {
		ExpenseWriter
		IncomeWriter
		TransactionLister
		TransactionDeleter
		CategoryStore
		RecurringStore
		SettingsStore
		SnapshotStore
		BlobStore
		// Reset removes every record, category, snapshot and setting.
		Reset(ctx context.Context) error
	}
)
