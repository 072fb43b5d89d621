package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"kannadi/internal/amqp"
	"kannadi/internal/core"
	"kannadi/internal/ledger"
	applog "kannadi/internal/log"
	"kannadi/internal/metrics"
)

// TransactionStore is the part of the ledger TransactionService writes to.
type TransactionStore interface {
	ledger.ExpenseWriter
	ledger.IncomeWriter
	ledger.TransactionLister
	ledger.TransactionDeleter
	ledger.CategoryStore
}

// TransactionService validates and stores incomes, expenses and custom
// categories, then tells the rest of the system which months changed.
type TransactionService struct {
	store TransactionStore
	notifier
	events *applog.StructuredLogger
}

func NewTransactionService(store TransactionStore, publisher EventPublisher, invalidator Invalidator, logger *applog.Logger) *TransactionService {
	logger = logger.WithComponent(applog.ComponentLedger)
	return &TransactionService{
		store:    store,
		notifier: notifier{publisher: publisher, invalidator: invalidator, logger: logger},
		events:   applog.NewStructuredLogger(logger),
	}
}

// CreateExpense resolves the category bucket, checks the subcategory
// belongs to the category and stores the expense.
func (s *TransactionService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return core.Expense{}, fmt.Errorf("list categories: %w", err)
	}
	idx := core.NewCategoryIndex(cats)

	cat, ok := idx[e.CategoryID]
	if !ok {
		return core.Expense{}, invalid(fmt.Errorf("%w: %s", ErrUnknownCategory, e.CategoryID))
	}
	if e.SubcategoryID != "" {
		sub, ok := idx[e.SubcategoryID]
		if !ok || sub.ParentID != cat.ID {
			return core.Expense{}, invalid(fmt.Errorf("%w: subcategory %s of %s", ErrUnknownCategory, e.SubcategoryID, cat.ID))
		}
	}
	e.CategoryType = cat.Type
	e.Description = strings.TrimSpace(e.Description)
	if err := e.Validate(); err != nil {
		return core.Expense{}, invalid(err)
	}

	saved, err := s.store.AppendExpense(ctx, e)
	if err != nil {
		s.events.LogError(ctx, "Failed to save expense", err, applog.OpCreate, nil)
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	metrics.TransactionsSavedTotal.WithLabelValues(string(core.KindExpense)).Inc()
	s.events.LogTransactionSaved(ctx, string(core.KindExpense), saved.ID, saved.Amount.Cents, saved.Month().String(), saved.CategoryID)

	s.changed(ctx, amqp.ReasonExpenseSaved, saved.Month())
	return saved, nil
}

func (s *TransactionService) CreateIncome(ctx context.Context, in core.IncomeEntry) (core.IncomeEntry, error) {
	in.Source = strings.TrimSpace(in.Source)
	if in.CategoryID != "" {
		cats, err := s.store.ListCategories(ctx)
		if err != nil {
			return core.IncomeEntry{}, fmt.Errorf("list categories: %w", err)
		}
		if c, ok := core.NewCategoryIndex(cats)[in.CategoryID]; !ok || c.Type != core.Income {
			return core.IncomeEntry{}, invalid(fmt.Errorf("%w: income category %s", ErrUnknownCategory, in.CategoryID))
		}
	}
	if err := in.Validate(); err != nil {
		return core.IncomeEntry{}, invalid(err)
	}

	saved, err := s.store.AppendIncome(ctx, in)
	if err != nil {
		s.events.LogError(ctx, "Failed to save income", err, applog.OpCreate, nil)
		return core.IncomeEntry{}, fmt.Errorf("save income: %w", err)
	}
	metrics.TransactionsSavedTotal.WithLabelValues(string(core.KindIncome)).Inc()
	s.events.LogTransactionSaved(ctx, string(core.KindIncome), saved.ID, saved.Amount.Cents, saved.Month().String(), saved.CategoryID)

	s.changed(ctx, amqp.ReasonIncomeSaved, saved.Month())
	return saved, nil
}

func (s *TransactionService) ListExpenses(ctx context.Context, from, to core.Month) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, from, to)
}

func (s *TransactionService) ListIncomes(ctx context.Context, from, to core.Month) ([]core.IncomeEntry, error) {
	return s.store.ListIncomes(ctx, from, to)
}

// DeleteExpense removes the expense and marks its month stale. Unknown IDs
// return ledger.ErrNotFound.
func (s *TransactionService) DeleteExpense(ctx context.Context, id string) error {
	expenses, err := s.store.ListExpenses(ctx, core.Month{}, core.Month{})
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	var month core.Month
	for _, e := range expenses {
		if e.ID == id {
			month = e.Month()
			break
		}
	}
	if month.IsZero() {
		return fmt.Errorf("expense %s: %w", id, ledger.ErrNotFound)
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.logger.InfoContext(ctx, "Expense deleted", applog.FieldRecordID, id, applog.FieldMonth, month.String(), applog.FieldOperation, applog.OpDelete)
	s.changed(ctx, amqp.ReasonDeleted, month)
	return nil
}

func (s *TransactionService) DeleteIncome(ctx context.Context, id string) error {
	incomes, err := s.store.ListIncomes(ctx, core.Month{}, core.Month{})
	if err != nil {
		return fmt.Errorf("list incomes: %w", err)
	}
	var month core.Month
	for _, in := range incomes {
		if in.ID == id {
			month = in.Month()
			break
		}
	}
	if month.IsZero() {
		return fmt.Errorf("income %s: %w", id, ledger.ErrNotFound)
	}
	if err := s.store.DeleteIncome(ctx, id); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	s.logger.InfoContext(ctx, "Income deleted", applog.FieldRecordID, id, applog.FieldMonth, month.String(), applog.FieldOperation, applog.OpDelete)
	s.changed(ctx, amqp.ReasonDeleted, month)
	return nil
}

func (s *TransactionService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

// AddCategory stores a custom category. A subcategory inherits its
// parent's type.
func (s *TransactionService) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return core.Category{}, invalid(fmt.Errorf("category name is required"))
	}
	if c.ParentID != "" {
		cats, err := s.store.ListCategories(ctx)
		if err != nil {
			return core.Category{}, fmt.Errorf("list categories: %w", err)
		}
		parent, ok := core.NewCategoryIndex(cats)[c.ParentID]
		if !ok || parent.IsSubcategory {
			return core.Category{}, invalid(fmt.Errorf("%w: parent %s", ErrUnknownCategory, c.ParentID))
		}
		c.Type = parent.Type
		c.IsSubcategory = true
	}
	if !c.Type.IsValid() {
		return core.Category{}, invalid(core.ErrInvalidCategoryType)
	}
	if c.ID == "" {
		c.ID = "custom-" + uuid.NewString()
	}
	if err := s.store.SaveCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category saved", applog.FieldCategory, c.ID, "type", c.Type)
	// Category changes alter breakdowns but no month totals.
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
	return c, nil
}
