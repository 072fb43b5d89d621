package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kannadi/internal/amqp"
	"kannadi/internal/core"
	"kannadi/internal/currency"
	"kannadi/internal/ledger"
	applog "kannadi/internal/log"
)

// StateService moves the whole ledger in and out as one FinancialData
// document and keeps a copy of the last imported or exported state in the
// blob store.
type StateService struct {
	store ledger.Ledger
	notifier
	defaultCurrency string
}

func NewStateService(store ledger.Ledger, publisher EventPublisher, invalidator Invalidator, defaultCurrency string, logger *applog.Logger) *StateService {
	if defaultCurrency == "" {
		defaultCurrency = currency.DefaultCode
	}
	return &StateService{
		store:           store,
		notifier:        notifier{publisher: publisher, invalidator: invalidator, logger: logger.WithComponent(applog.ComponentLedger)},
		defaultCurrency: defaultCurrency,
	}
}

// Export snapshots the ledger. Only categories outside the default set are
// listed; defaults are restored on import.
func (s *StateService) Export(ctx context.Context) (core.FinancialData, error) {
	incomes, err := s.store.ListIncomes(ctx, core.Month{}, core.Month{})
	if err != nil {
		return core.FinancialData{}, fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx, core.Month{}, core.Month{})
	if err != nil {
		return core.FinancialData{}, fmt.Errorf("list expenses: %w", err)
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return core.FinancialData{}, fmt.Errorf("list categories: %w", err)
	}
	recurring, err := s.store.ListRecurring(ctx)
	if err != nil {
		return core.FinancialData{}, fmt.Errorf("list recurring: %w", err)
	}
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return core.FinancialData{}, fmt.Errorf("load settings: %w", err)
	}
	defaults, err := core.DefaultCategories()
	if err != nil {
		return core.FinancialData{}, err
	}
	builtin := core.NewCategoryIndex(defaults)

	fd := core.FinancialData{
		Version:     core.StateVersion,
		IsOnboarded: settings.IsOnboarded,
		Currency:    settings.Currency,
		Incomes:     make([]core.IncomeRecord, 0, len(incomes)),
		Expenses:    make([]core.ExpenseRecord, 0, len(expenses)),
	}
	if fd.Currency == "" {
		fd.Currency = s.defaultCurrency
	}
	fd.CustomCategories = []core.Category{}
	for _, c := range cats {
		if _, ok := builtin[c.ID]; !ok {
			fd.CustomCategories = append(fd.CustomCategories, c)
		}
	}
	for _, in := range incomes {
		fd.Incomes = append(fd.Incomes, in.Record())
	}
	for _, e := range expenses {
		fd.Expenses = append(fd.Expenses, e.Record())
	}
	for _, rt := range recurring {
		fd.RecurringTransactions = append(fd.RecurringTransactions, rt.Record())
	}

	if b, err := fd.Encode(); err == nil {
		if err := s.store.PutBlob(ctx, ledger.StateKey, b); err != nil {
			s.logger.WarnContext(ctx, "Failed to keep exported state", applog.FieldError, err)
		}
	}
	s.logger.InfoContext(ctx, "State exported",
		applog.FieldOperation, applog.OpExport,
		"incomes", len(fd.Incomes), "expenses", len(fd.Expenses))
	return fd, nil
}

// ImportResult counts what an import wrote.
type ImportResult struct {
	Incomes    int `json:"incomes"`
	Expenses   int `json:"expenses"`
	Categories int `json:"categories"`
	Recurring  int `json:"recurring"`
}

// Import replaces the ledger with the document in b. Nothing is touched
// unless every record in b converts cleanly.
func (s *StateService) Import(ctx context.Context, b []byte) (ImportResult, error) {
	fd, err := core.DecodeFinancialData(b)
	if err != nil {
		return ImportResult{}, invalid(err)
	}
	if !currency.Known(fd.Currency) {
		return ImportResult{}, invalid(fmt.Errorf("unknown currency %q", fd.Currency))
	}

	incomes := make([]core.IncomeEntry, 0, len(fd.Incomes))
	for _, r := range fd.Incomes {
		in, err := r.Income()
		if err != nil {
			return ImportResult{}, invalid(err)
		}
		if err := in.Validate(); err != nil {
			return ImportResult{}, invalid(fmt.Errorf("income %s: %w", in.ID, err))
		}
		incomes = append(incomes, in)
	}
	defaults, err := core.DefaultCategories()
	if err != nil {
		return ImportResult{}, err
	}
	all := append(defaults, fd.CustomCategories...)
	idx := core.NewCategoryIndex(all)
	if err := checkCategories(fd.CustomCategories, idx); err != nil {
		return ImportResult{}, invalid(err)
	}
	expenses := make([]core.Expense, 0, len(fd.Expenses))
	for _, r := range fd.Expenses {
		e, err := r.Expense()
		if err != nil {
			return ImportResult{}, invalid(err)
		}
		if e.CategoryType == "" {
			e.CategoryType = idx.Root(e.CategoryID).Type
		}
		if err := e.Validate(); err != nil {
			return ImportResult{}, invalid(fmt.Errorf("expense %s: %w", e.ID, err))
		}
		expenses = append(expenses, e)
	}
	recurring := make([]core.RecurringTransaction, 0, len(fd.RecurringTransactions))
	for _, r := range fd.RecurringTransactions {
		rt, err := r.Recurring()
		if err != nil {
			return ImportResult{}, invalid(err)
		}
		if err := rt.Validate(); err != nil {
			return ImportResult{}, invalid(fmt.Errorf("recurring %s: %w", rt.ID, err))
		}
		recurring = append(recurring, rt)
	}

	if err := s.store.Reset(ctx); err != nil {
		return ImportResult{}, fmt.Errorf("reset ledger: %w", err)
	}
	n, err := s.saveCategories(ctx, all)
	if err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{Categories: n}

	months := map[core.Month]bool{}
	for _, in := range incomes {
		if _, err := s.store.AppendIncome(ctx, in); err != nil {
			return res, fmt.Errorf("import income %s: %w", in.ID, err)
		}
		months[in.Month()] = true
		res.Incomes++
	}
	for _, e := range expenses {
		if _, err := s.store.AppendExpense(ctx, e); err != nil {
			return res, fmt.Errorf("import expense %s: %w", e.ID, err)
		}
		months[e.Month()] = true
		res.Expenses++
	}
	for _, rt := range recurring {
		if _, err := s.store.SaveRecurring(ctx, rt); err != nil {
			return res, fmt.Errorf("import recurring %s: %w", rt.ID, err)
		}
		res.Recurring++
	}
	if err := s.store.SaveSettings(ctx, core.Settings{Currency: fd.Currency, IsOnboarded: fd.IsOnboarded}); err != nil {
		return res, fmt.Errorf("save settings: %w", err)
	}
	if err := s.store.PutBlob(ctx, ledger.StateKey, b); err != nil {
		return res, fmt.Errorf("keep imported state: %w", err)
	}

	s.logger.InfoContext(ctx, "State imported",
		applog.FieldOperation, applog.OpImport,
		"incomes", res.Incomes, "expenses", res.Expenses, "recurring", res.Recurring)

	changed := make([]core.Month, 0, len(months))
	for m := range months {
		changed = append(changed, m)
	}
	s.changed(ctx, amqp.ReasonImported, changed...)
	return res, nil
}

// checkCategories rejects custom categories that could not be saved: an
// empty id, an unknown type, or a parent missing from idx.
func checkCategories(custom []core.Category, idx core.CategoryIndex) error {
	for _, c := range custom {
		if c.ID == "" {
			return fmt.Errorf("category %q: id is required", c.Name)
		}
		if !c.Type.IsValid() {
			return fmt.Errorf("category %s: %w", c.ID, core.ErrInvalidCategoryType)
		}
		if c.ParentID == "" {
			continue
		}
		if _, ok := idx[c.ParentID]; !ok {
			return fmt.Errorf("category %s: %w: parent %s", c.ID, ErrUnknownCategory, c.ParentID)
		}
	}
	return nil
}

func (s *StateService) saveCategories(ctx context.Context, all []core.Category) (int, error) {
	for _, c := range all {
		if !c.Type.IsValid() {
			return 0, invalid(fmt.Errorf("category %s: %w", c.ID, core.ErrInvalidCategoryType))
		}
		if err := s.store.SaveCategory(ctx, c); err != nil {
			return 0, fmt.Errorf("save category %s: %w", c.ID, err)
		}
	}
	return len(all), nil
}

// Clear wipes the ledger and both stored state blobs, then restores the
// default categories.
func (s *StateService) Clear(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	for _, key := range []string{ledger.StateKey, ledger.LegacyStateKey} {
		if err := s.store.DeleteBlob(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	defaults, err := core.DefaultCategories()
	if err != nil {
		return err
	}
	if _, err := s.saveCategories(ctx, defaults); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "State cleared", applog.FieldOperation, applog.OpClear)
	s.changed(ctx, amqp.ReasonCleared)
	return nil
}

// Restore imports the stored state blob into an empty ledger. Data under
// the legacy key is moved to the current key first. It reports false when
// no blob exists or the ledger already holds transactions.
func (s *StateService) Restore(ctx context.Context) (bool, error) {
	if err := s.migrateLegacyBlob(ctx); err != nil {
		return false, err
	}
	b, err := s.store.GetBlob(ctx, ledger.StateKey)
	if errors.Is(err, ledger.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read stored state: %w", err)
	}

	incomes, err := s.store.ListIncomes(ctx, core.Month{}, core.Month{})
	if err != nil {
		return false, err
	}
	expenses, err := s.store.ListExpenses(ctx, core.Month{}, core.Month{})
	if err != nil {
		return false, err
	}
	if len(incomes)+len(expenses) > 0 {
		return false, nil
	}
	if _, err := s.Import(ctx, b); err != nil {
		return false, fmt.Errorf("restore stored state: %w", err)
	}
	return true, nil
}

func (s *StateService) migrateLegacyBlob(ctx context.Context) error {
	legacy, err := s.store.GetBlob(ctx, ledger.LegacyStateKey)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read legacy state: %w", err)
	}
	if _, err := s.store.GetBlob(ctx, ledger.StateKey); errors.Is(err, ledger.ErrNotFound) {
		if err := s.store.PutBlob(ctx, ledger.StateKey, legacy); err != nil {
			return fmt.Errorf("move legacy state: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("read stored state: %w", err)
	}
	if err := s.store.DeleteBlob(ctx, ledger.LegacyStateKey); err != nil {
		return fmt.Errorf("drop legacy state: %w", err)
	}
	s.logger.InfoContext(ctx, "Moved stored state to current key", "from", ledger.LegacyStateKey, "to", ledger.StateKey)
	return nil
}

func (s *StateService) Settings(ctx context.Context) (core.Settings, error) {
	st, err := s.store.LoadSettings(ctx)
	if err != nil {
		return core.Settings{}, err
	}
	if st.Currency == "" {
		st.Currency = s.defaultCurrency
	}
	return st, nil
}

// Onboard records the chosen currency and marks setup as done.
func (s *StateService) Onboard(ctx context.Context, code string) (core.Settings, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !currency.Known(code) {
		return core.Settings{}, invalid(fmt.Errorf("unknown currency %q", code))
	}
	st := core.Settings{Currency: code, IsOnboarded: true}
	if err := s.store.SaveSettings(ctx, st); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
	s.logger.InfoContext(ctx, "Onboarding complete", "currency", code)
	return st, nil
}
