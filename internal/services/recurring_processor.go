package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kannadi/internal/core"
	"kannadi/internal/ledger"
	applog "kannadi/internal/log"
	"kannadi/internal/metrics"
)

// RecurringProcessor manages recurring templates and turns the due ones
// into real incomes and expenses.
type RecurringProcessor struct {
	store        ledger.RecurringStore
	transactions *TransactionService
	logger       *applog.Logger
}

func NewRecurringProcessor(store ledger.RecurringStore, transactions *TransactionService, logger *applog.Logger) *RecurringProcessor {
	return &RecurringProcessor{
		store:        store,
		transactions: transactions,
		logger:       logger.WithComponent(applog.ComponentRecurring),
	}
}

func (p *RecurringProcessor) List(ctx context.Context) ([]core.RecurringTransaction, error) {
	return p.store.ListRecurring(ctx)
}

// Save creates or updates a template. New templates start active.
func (p *RecurringProcessor) Save(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	rt.Description = strings.TrimSpace(rt.Description)
	rt.Source = strings.TrimSpace(rt.Source)
	if rt.ID == "" {
		rt.IsActive = true
	}
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, invalid(err)
	}
	if rt.ID != "" && rt.LastRun.IsZero() {
		lastRun, err := p.lastRun(ctx, rt.ID)
		if err != nil {
			return core.RecurringTransaction{}, err
		}
		rt.LastRun = lastRun
	}
	saved, err := p.store.SaveRecurring(ctx, rt)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("save recurring: %w", err)
	}
	p.logger.InfoContext(ctx, "Recurring template saved",
		applog.FieldRecurringID, saved.ID, applog.FieldKind, saved.Kind, "frequency", saved.Frequency)
	return saved, nil
}

// lastRun returns when the stored template id last ran. Edits arrive
// without it and must not make an already paid period due again.
func (p *RecurringProcessor) lastRun(ctx context.Context, id string) (time.Time, error) {
	list, err := p.store.ListRecurring(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("list recurring: %w", err)
	}
	for _, existing := range list {
		if existing.ID == id {
			return existing.LastRun, nil
		}
	}
	return time.Time{}, nil
}

func (p *RecurringProcessor) Delete(ctx context.Context, id string) error {
	if err := p.store.DeleteRecurring(ctx, id); err != nil {
		return fmt.Errorf("delete recurring %s: %w", id, err)
	}
	p.logger.InfoContext(ctx, "Recurring template deleted", applog.FieldRecurringID, id)
	return nil
}

// RecurringSummary is the monthly-equivalent of all active templates.
type RecurringSummary struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// Summary normalizes weekly amounts by 52/12 and yearly ones by 1/12.
func (p *RecurringProcessor) Summary(ctx context.Context) (RecurringSummary, error) {
	list, err := p.store.ListRecurring(ctx)
	if err != nil {
		return RecurringSummary{}, err
	}
	var s RecurringSummary
	for _, rt := range list {
		if !rt.IsActive {
			continue
		}
		v := rt.Amount.Value()
		switch rt.Frequency {
		case core.Weekly:
			v = v * 52 / 12
		case core.Yearly:
			v /= 12
		}
		if rt.Kind == core.KindIncome {
			s.Income += v
		} else {
			s.Expenses += v
		}
	}
	s.Net = s.Income - s.Expenses
	return s, nil
}

// Pending lists the active templates that would run at now.
func (p *RecurringProcessor) Pending(ctx context.Context, now time.Time) ([]core.RecurringTransaction, error) {
	list, err := p.store.ListRecurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring: %w", err)
	}
	var due []core.RecurringTransaction
	for _, rt := range list {
		ok, err := isDue(rt, now)
		if err != nil {
			p.logger.WarnContext(ctx, "Skipping recurring template", applog.FieldRecurringID, rt.ID, applog.FieldError, err)
			continue
		}
		if ok {
			due = append(due, rt)
		}
	}
	return due, nil
}

func isDue(rt core.RecurringTransaction, now time.Time) (bool, error) {
	if !rt.IsActive {
		return false, nil
	}
	if !rt.StartDate.IsZero() && now.Before(rt.StartDate.Time) {
		return false, nil
	}
	checker, err := GetDuenessChecker(rt.Frequency)
	if err != nil {
		return false, err
	}
	return checker.IsDue(rt.LastRun, now, rt), nil
}

// ProcessDue materializes every pending template and returns how many
// transactions were created. A failing template is logged and skipped.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.transactions == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	due, err := p.Pending(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, rt := range due {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if err := p.materialize(ctx, rt, now); err != nil {
			p.logger.ErrorContext(ctx, "Failed to materialize recurring template",
				applog.FieldRecurringID, rt.ID, applog.FieldError, err)
			continue
		}
		if err := p.store.MarkRecurringRun(ctx, rt.ID, now); err != nil {
			// The transaction exists; a stale LastRun only risks a duplicate.
			p.logger.ErrorContext(ctx, "Failed to record recurring run",
				applog.FieldRecurringID, rt.ID, applog.FieldError, err)
		}
		metrics.RecurringMaterializedTotal.WithLabelValues(string(rt.Kind)).Inc()
		processed++
	}

	p.logger.InfoContext(ctx, "Recurring processing complete",
		"processed", processed, "due", len(due), "run_date", now.Format("2006-01-02"))
	return processed, nil
}

func (p *RecurringProcessor) materialize(ctx context.Context, rt core.RecurringTransaction, now time.Time) error {
	checker, err := GetDuenessChecker(rt.Frequency)
	if err != nil {
		return err
	}
	date := checker.Occurrence(now, rt)

	switch rt.Kind {
	case core.KindIncome:
		_, err = p.transactions.CreateIncome(ctx, core.IncomeEntry{
			Date:       date,
			Source:     rt.Source,
			CategoryID: rt.CategoryID,
			Amount:     rt.Amount,
		})
	case core.KindExpense:
		_, err = p.transactions.CreateExpense(ctx, core.Expense{
			Date:          date,
			Description:   rt.Description,
			Amount:        rt.Amount,
			CategoryID:    rt.CategoryID,
			SubcategoryID: rt.SubcategoryID,
		})
	default:
		err = core.ErrInvalidKind
	}
	return err
}
