package worker

import (
	"context"
	"errors"
	"fmt"

	"kannadi/internal/amqp"
	"kannadi/internal/budget"
	"kannadi/internal/core"
	"kannadi/internal/ledger"
	applog "kannadi/internal/log"
	"kannadi/internal/metrics"
	"kannadi/internal/sheets"
)

// Store is what the worker reads transactions from and writes snapshots to.
type Store interface {
	ledger.TransactionLister
	ledger.SnapshotStore
}

// SnapshotWorker keeps the per-month snapshots in step with the ledger and
// mirrors each recomputed month to the spreadsheet when one is configured.
type SnapshotWorker struct {
	store    Store
	exporter sheets.SnapshotExporter
	logger   *applog.Logger
}

// NewSnapshotWorker builds a worker. exporter may be nil.
func NewSnapshotWorker(store Store, exporter sheets.SnapshotExporter, logger *applog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		store:    store,
		exporter: exporter,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleMonthChanged processes one month-changed message from AMQP. A
// message without months asks for a full rebuild.
func (w *SnapshotWorker) HandleMonthChanged(ctx context.Context, msg *amqp.MonthChangedMessage) error {
	months, err := msg.ParsedMonths()
	if err != nil {
		return fmt.Errorf("parse months: %w", err)
	}
	w.logger.InfoContext(ctx, "Processing month changed message",
		"reason", msg.Reason, "months", msg.Months)

	if len(months) == 0 {
		_, err := w.RecomputeAll(ctx)
		return err
	}
	return w.Recompute(ctx, months...)
}

// Recompute rebuilds the snapshot of each month. A month with no records
// gets a zero snapshot so deletions are reflected. Every month is tried;
// the errors are joined.
func (w *SnapshotWorker) Recompute(ctx context.Context, months ...core.Month) error {
	var errs []error
	for _, m := range months {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := w.recomputeMonth(ctx, m)
		metrics.SnapshotsRecomputedTotal.WithLabelValues(metrics.Outcome(err)).Inc()
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to recompute month",
				applog.FieldMonth, m.String(), applog.FieldError, err)
			errs = append(errs, fmt.Errorf("month %s: %w", m, err))
		}
	}
	return errors.Join(errs...)
}

func (w *SnapshotWorker) recomputeMonth(ctx context.Context, m core.Month) error {
	incomes, err := w.store.ListIncomes(ctx, m, m)
	if err != nil {
		return fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := w.store.ListExpenses(ctx, m, m)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	md := core.MonthlyData{Month: m}
	for _, row := range budget.MonthlyTrends(incomes, expenses) {
		if row.Month == m {
			md = row
		}
	}
	if err := w.store.SaveSnapshot(ctx, md); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	w.logger.DebugContext(ctx, "Snapshot saved",
		applog.FieldMonth, m.String(), "income", md.Income, "expenses", md.Expenses)

	if w.exporter == nil {
		return nil
	}
	if err := w.exporter.ExportSnapshot(ctx, md); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	return nil
}

// RecomputeAll rebuilds every month that has records or an existing
// snapshot, and returns how many months it touched. It runs at startup and
// on a timer to recover from lost messages.
func (w *SnapshotWorker) RecomputeAll(ctx context.Context) (int, error) {
	incomes, err := w.store.ListIncomes(ctx, core.Month{}, core.Month{})
	if err != nil {
		return 0, fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := w.store.ListExpenses(ctx, core.Month{}, core.Month{})
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}
	existing, err := w.store.ListSnapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("list snapshots: %w", err)
	}

	seen := make(map[core.Month]bool)
	var months []core.Month
	add := func(m core.Month) {
		if !seen[m] {
			seen[m] = true
			months = append(months, m)
		}
	}
	for _, md := range budget.MonthlyTrends(incomes, expenses) {
		add(md.Month)
	}
	for _, md := range existing {
		add(md.Month)
	}

	if len(months) == 0 {
		w.logger.InfoContext(ctx, "No months to recompute")
		return 0, nil
	}
	w.logger.InfoContext(ctx, "Recomputing all months", applog.FieldCount, len(months),
		applog.FieldOperation, applog.OpRecompute)
	return len(months), w.Recompute(ctx, months...)
}
