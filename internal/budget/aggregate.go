// Package budget turns raw incomes and expenses into monthly aggregates,
// projections, goal feasibility and narrative insights. Every function is
// pure: callers pass the records and an explicit reference month.
package budget

import (
	"sort"

	"kannadi/internal/core"
)

// Target ratios of income for the 50/30/20 rule, in percent.
const (
	NeedsTarget   = 50.0
	WantsTarget   = 30.0
	SavingsTarget = 20.0
)

// Bucket compares one 50/30/20 bucket against its target.
type Bucket struct {
	Type          core.CategoryType `json:"type"`
	Actual        float64           `json:"actual"`
	Planned       float64           `json:"planned"`
	Percent       float64           `json:"percent"`
	TargetPercent float64           `json:"targetPercent"`
}

// Variance is Actual minus Planned; positive means over plan.
func (b Bucket) Variance() float64 { return b.Actual - b.Planned }

type Summary struct {
	Month     core.Month `json:"month"`
	Income    float64    `json:"income"`
	Expenses  float64    `json:"expenses"`
	Allocated float64    `json:"allocated"`
	Remaining float64    `json:"remaining"`
	Needs     Bucket     `json:"needs"`
	Wants     Bucket     `json:"wants"`
	Savings   Bucket     `json:"savings"`
}

type YearSummary struct {
	Year   int                `json:"year"`
	Totals Summary            `json:"totals"`
	Months []core.MonthlyData `json:"months"`
}

type CategoryTotal struct {
	Category core.Category `json:"category"`
	Amount   float64       `json:"amount"`
	Share    float64       `json:"share"`
	Count    int           `json:"count"`
}

// MonthlyTrends groups records by month, oldest first. Months that only
// carry income or only carry expenses are included.
func MonthlyTrends(incomes []core.IncomeEntry, expenses []core.Expense) []core.MonthlyData {
	byMonth := map[core.Month]*core.MonthlyData{}
	get := func(m core.Month) *core.MonthlyData {
		md, ok := byMonth[m]
		if !ok {
			md = &core.MonthlyData{Month: m}
			byMonth[m] = md
		}
		return md
	}

	for _, in := range incomes {
		get(in.Month()).Income += in.Amount.Value()
	}
	for _, e := range expenses {
		md := get(e.Month())
		switch e.CategoryType {
		case core.Needs:
			md.Needs += e.Amount.Value()
		case core.Wants:
			md.Wants += e.Amount.Value()
		case core.Savings:
			md.Allocated += e.Amount.Value()
		}
	}

	out := make([]core.MonthlyData, 0, len(byMonth))
	for _, md := range byMonth {
		md.Expenses = md.Needs + md.Wants
		md.Savings = md.Income - md.Expenses
		out = append(out, *md)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// Summarize computes the 50/30/20 picture for a single month.
func Summarize(month core.Month, incomes []core.IncomeEntry, expenses []core.Expense) Summary {
	s := summarize(func(m core.Month) bool { return m == month }, incomes, expenses)
	s.Month = month
	return s
}

// SummarizeYear aggregates a calendar year and keeps the per-month series.
func SummarizeYear(year int, incomes []core.IncomeEntry, expenses []core.Expense) YearSummary {
	inYear := func(m core.Month) bool { return m.Year() == year }

	var months []core.MonthlyData
	for _, md := range MonthlyTrends(incomes, expenses) {
		if inYear(md.Month) {
			months = append(months, md)
		}
	}
	return YearSummary{
		Year:   year,
		Totals: summarize(inYear, incomes, expenses),
		Months: months,
	}
}

func summarize(keep func(core.Month) bool, incomes []core.IncomeEntry, expenses []core.Expense) Summary {
	var s Summary
	var needs, wants float64
	for _, in := range incomes {
		if keep(in.Month()) {
			s.Income += in.Amount.Value()
		}
	}
	for _, e := range expenses {
		if !keep(e.Month()) {
			continue
		}
		switch e.CategoryType {
		case core.Needs:
			needs += e.Amount.Value()
		case core.Wants:
			wants += e.Amount.Value()
		case core.Savings:
			s.Allocated += e.Amount.Value()
		}
	}
	s.Expenses = needs + wants
	s.Remaining = s.Income - s.Expenses - s.Allocated
	s.Needs = bucket(core.Needs, needs, s.Income, NeedsTarget)
	s.Wants = bucket(core.Wants, wants, s.Income, WantsTarget)
	s.Savings = bucket(core.Savings, s.Income-s.Expenses, s.Income, SavingsTarget)
	return s
}

func bucket(t core.CategoryType, actual, income, target float64) Bucket {
	return Bucket{
		Type:          t,
		Actual:        actual,
		Planned:       income * target / 100,
		Percent:       percentOf(actual, income),
		TargetPercent: target,
	}
}

// percentOf returns part/whole as a percentage, or 0 when whole is not positive.
func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}

// CategoryBreakdown totals expenses in [from, to] by top-level category.
// Zero bounds are open. Results are sorted by amount, then name.
func CategoryBreakdown(expenses []core.Expense, categories []core.Category, from, to core.Month) []CategoryTotal {
	idx := core.NewCategoryIndex(categories)
	totals := map[string]*CategoryTotal{}
	var sum float64
	for _, e := range expenses {
		if !e.Month().Within(from, to) {
			continue
		}
		root := idx.Root(e.CategoryID)
		ct, ok := totals[root.ID]
		if !ok {
			if root.Type == "" {
				root.Type = e.CategoryType
			}
			ct = &CategoryTotal{Category: root}
			totals[root.ID] = ct
		}
		ct.Amount += e.Amount.Value()
		ct.Count++
		sum += e.Amount.Value()
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		ct.Share = percentOf(ct.Amount, sum)
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category.Name < out[j].Category.Name
	})
	return out
}
