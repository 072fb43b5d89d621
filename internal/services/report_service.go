package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"kannadi/internal/budget"
	"kannadi/internal/cache"
	"kannadi/internal/core"
	"kannadi/internal/currency"
	"kannadi/internal/ledger"
	applog "kannadi/internal/log"
	"kannadi/internal/metrics"
)

// ReportStore is the read side of the ledger.
type ReportStore interface {
	ledger.TransactionLister
	ledger.CategoryStore
	ledger.SettingsStore
}

// ReportService loads the ledger and runs the budget engine over it.
// Results are cached until the next write invalidates them.
type ReportService struct {
	store           ReportStore
	cache           cache.Cache[any]
	defaultCurrency string
	analysisLimit   int
	logger          *applog.Logger

	// generation counts invalidations so a result loaded before a write
	// is never stored after it.
	mu         sync.Mutex
	generation uint64
}

type ReportOptions struct {
	DefaultCurrency string
	AnalysisLimit   int
}

func NewReportService(store ReportStore, c cache.Cache[any], opts ReportOptions, logger *applog.Logger) *ReportService {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = currency.DefaultCode
	}
	if opts.AnalysisLimit <= 0 {
		opts.AnalysisLimit = budget.DefaultAnalysisLimit
	}
	return &ReportService{
		store:           store,
		cache:           c,
		defaultCurrency: opts.DefaultCurrency,
		analysisLimit:   opts.AnalysisLimit,
		logger:          logger.WithComponent(applog.ComponentReport),
	}
}

// dataset is one consistent read of everything the engine needs.
type dataset struct {
	incomes    []core.IncomeEntry
	expenses   []core.Expense
	categories []core.Category
	settings   core.Settings
}

func (d dataset) history() []core.MonthlyData {
	return budget.MonthlyTrends(d.incomes, d.expenses)
}

func (s *ReportService) load(ctx context.Context) (dataset, error) {
	var d dataset
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.incomes, err = s.store.ListIncomes(ctx, core.Month{}, core.Month{})
		return err
	})
	g.Go(func() (err error) {
		d.expenses, err = s.store.ListExpenses(ctx, core.Month{}, core.Month{})
		return err
	})
	g.Go(func() (err error) {
		d.categories, err = s.store.ListCategories(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.settings, err = s.store.LoadSettings(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return dataset{}, fmt.Errorf("load ledger: %w", err)
	}
	return d, nil
}

func (s *ReportService) currencyOf(d dataset) string {
	if d.settings.Currency != "" {
		return d.settings.Currency
	}
	return s.defaultCurrency
}

// cached returns the value under key, computing and storing it on a miss.
func cached[T any](ctx context.Context, s *ReportService, key string, compute func(dataset) (T, error)) (T, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if t, ok := v.(T); ok {
				metrics.ReportCacheTotal.WithLabelValues("hit").Inc()
				return t, nil
			}
		}
		metrics.ReportCacheTotal.WithLabelValues("miss").Inc()
	}
	var zero T
	gen := s.currentGeneration()
	d, err := s.load(ctx)
	if err != nil {
		return zero, err
	}
	v, err := compute(d)
	if err != nil {
		return zero, err
	}
	if s.cache != nil {
		s.mu.Lock()
		if s.generation == gen {
			s.cache.Set(key, v)
		}
		s.mu.Unlock()
	}
	return v, nil
}

func (s *ReportService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Invalidate drops cached reports. Any month can feed an analysis window,
// so every entry goes regardless of which months changed.
func (s *ReportService) Invalidate(months ...core.Month) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	s.generation++
	s.cache.Purge()
	s.mu.Unlock()
	s.logger.Debug("Report cache invalidated", applog.FieldCount, len(months))
}

// Currency is the chosen display currency, or the configured default.
func (s *ReportService) Currency(ctx context.Context) (string, error) {
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return "", err
	}
	if settings.Currency != "" {
		return settings.Currency, nil
	}
	return s.defaultCurrency, nil
}

// Period is either a single month or a whole year (YYYY-ALL).
type Period struct {
	Month core.Month
	Year  int
}

func (p Period) IsYear() bool { return p.Year != 0 }

func (p Period) String() string {
	if p.IsYear() {
		return fmt.Sprintf("%04d-ALL", p.Year)
	}
	return p.Month.String()
}

// ParsePeriod accepts YYYY-MM or YYYY-ALL.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if year, ok := strings.CutSuffix(strings.ToUpper(s), "-ALL"); ok {
		y, err := strconv.Atoi(year)
		if err != nil || y < 1900 || y > 9999 {
			return Period{}, invalid(fmt.Errorf("invalid year %q", year))
		}
		return Period{Year: y}, nil
	}
	m, err := core.ParseMonth(s)
	if err != nil {
		return Period{}, invalid(err)
	}
	return Period{Month: m}, nil
}

// PeriodSummary is a month or year summary with the figures formatted.
type PeriodSummary struct {
	Period   string             `json:"period"`
	Currency string             `json:"currency"`
	Summary  budget.Summary     `json:"summary"`
	Months   []core.MonthlyData `json:"months,omitempty"`
	Display  map[string]string  `json:"display"`
}

func (s *ReportService) Summary(ctx context.Context, p Period) (PeriodSummary, error) {
	return cached(ctx, s, "summary:"+p.String(), func(d dataset) (PeriodSummary, error) {
		code := s.currencyOf(d)
		out := PeriodSummary{Period: p.String(), Currency: code}
		if p.IsYear() {
			ys := budget.SummarizeYear(p.Year, d.incomes, d.expenses)
			out.Summary = ys.Totals
			out.Months = ys.Months
		} else {
			out.Summary = budget.Summarize(p.Month, d.incomes, d.expenses)
		}
		out.Display = map[string]string{
			"income":    currency.Format(out.Summary.Income, code),
			"expenses":  currency.Format(out.Summary.Expenses, code),
			"allocated": currency.Format(out.Summary.Allocated, code),
			"remaining": currency.Format(out.Summary.Remaining, code),
		}
		return out, nil
	})
}

// Trends is the gap-filled monthly series between from and to. Zero
// bounds default to the first and last month with data.
func (s *ReportService) Trends(ctx context.Context, from, to core.Month) ([]core.MonthlyData, error) {
	key := fmt.Sprintf("trends:%s:%s", from, to)
	return cached(ctx, s, key, func(d dataset) ([]core.MonthlyData, error) {
		return budget.TrendSeries(d.history(), from, to), nil
	})
}

// RollingSavings is the trailing average of monthly savings.
func (s *ReportService) RollingSavings(ctx context.Context, window int) ([]budget.TrendPoint, error) {
	if window < 1 || window > 24 {
		return nil, invalid(fmt.Errorf("window %d outside 1..24", window))
	}
	return cached(ctx, s, fmt.Sprintf("rolling:%d", window), func(d dataset) ([]budget.TrendPoint, error) {
		return budget.RollingAverage(budget.TrendSeries(d.history(), core.Month{}, core.Month{}), window), nil
	})
}

func (s *ReportService) Breakdown(ctx context.Context, from, to core.Month) ([]budget.CategoryTotal, error) {
	key := fmt.Sprintf("breakdown:%s:%s", from, to)
	return cached(ctx, s, key, func(d dataset) ([]budget.CategoryTotal, error) {
		return budget.CategoryBreakdown(d.expenses, d.categories, from, to), nil
	})
}

// ProjectionReport is the "if this continues" view. Ready is false until
// enough completed months exist; the other fields are then empty.
type ProjectionReport struct {
	Ready      bool               `json:"ready"`
	Needed     int                `json:"monthsNeeded"`
	Currency   string             `json:"currency"`
	Projection *budget.Projection `json:"projection,omitempty"`
	Headline   string             `json:"headline,omitempty"`
	Coverage   *budget.Coverage   `json:"coverage,omitempty"`
}

func (s *ReportService) Projection(ctx context.Context, current core.Month) (ProjectionReport, error) {
	return cached(ctx, s, "projection:"+current.String(), func(d dataset) (ProjectionReport, error) {
		code := s.currencyOf(d)
		analysis := budget.AnalysisMonths(d.history(), current, s.analysisLimit)
		p, ok := budget.Project(analysis)
		if !ok {
			return ProjectionReport{Needed: budget.MinAnalysisMonths - len(analysis), Currency: code}, nil
		}
		cov := budget.CoverageFor(p, analysis, d.expenses, d.categories)
		return ProjectionReport{
			Ready:      true,
			Currency:   code,
			Projection: &p,
			Headline:   p.Headline(code),
			Coverage:   &cov,
		}, nil
	})
}

// Goal is not cached; targets are free-form.
func (s *ReportService) Goal(ctx context.Context, target float64, months int, current core.Month) (budget.GoalResult, error) {
	d, err := s.load(ctx)
	if err != nil {
		return budget.GoalResult{}, err
	}
	analysis := budget.AnalysisMonths(d.history(), current, s.analysisLimit)
	res, err := budget.EvaluateGoal(target, months, analysis, d.expenses, s.currencyOf(d))
	if err != nil {
		return budget.GoalResult{}, invalid(err)
	}
	return res, nil
}

// JourneyReport is the cumulative persona view over completed months.
type JourneyReport struct {
	Ready   bool            `json:"ready"`
	Journey *budget.Journey `json:"journey,omitempty"`
	Persona *budget.Persona `json:"persona,omitempty"`
}

func (s *ReportService) Journey(ctx context.Context, current core.Month) (JourneyReport, error) {
	return cached(ctx, s, "journey:"+current.String(), func(d dataset) (JourneyReport, error) {
		var completed []core.MonthlyData
		for _, md := range d.history() {
			if md.Month.Before(current) {
				completed = append(completed, md)
			}
		}
		j, ok := budget.JourneyStats(completed)
		if !ok {
			return JourneyReport{}, nil
		}
		p := budget.ClassifyPersona(j)
		return JourneyReport{Ready: true, Journey: &j, Persona: &p}, nil
	})
}

func (s *ReportService) Insights(ctx context.Context, month core.Month) ([]budget.Insight, error) {
	return cached(ctx, s, "insights:"+month.String(), func(d dataset) ([]budget.Insight, error) {
		lines := budget.MonthlyInsights(budget.InsightInput{
			Month:      month,
			Summary:    budget.Summarize(month, d.incomes, d.expenses),
			Expenses:   d.expenses,
			Categories: d.categories,
			History:    d.history(),
			Currency:   s.currencyOf(d),
		})
		out := make([]budget.Insight, len(lines))
		for i, l := range lines {
			out[i] = budget.ClassifyInsight(l)
		}
		return out, nil
	})
}
