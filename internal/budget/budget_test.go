package budget

import (
	"math"
	"testing"
	"time"

	"kannadi/internal/core"
)

func month(s string) core.Month {
	m, err := core.ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

func income(date string, amount float64) core.IncomeEntry {
	d, _ := core.ParseDate(date)
	return core.IncomeEntry{Date: d, Source: "Salary", Amount: core.FromValue(amount)}
}

func expense(date, category string, t core.CategoryType, amount float64) core.Expense {
	d, _ := core.ParseDate(date)
	return core.Expense{Date: d, CategoryID: category, CategoryType: t, Amount: core.FromValue(amount)}
}

func flat(months []string, income, needs, wants float64) []core.MonthlyData {
	var out []core.MonthlyData
	for _, m := range months {
		out = append(out, core.MonthlyData{
			Month:    month(m),
			Income:   income,
			Needs:    needs,
			Wants:    wants,
			Expenses: needs + wants,
			Savings:  income - needs - wants,
		})
	}
	return out
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestMonthlyTrends(t *testing.T) {
	incomes := []core.IncomeEntry{
		income("2024-02-01", 3000),
		income("2024-01-01", 2500),
		income("2024-01-15", 500),
	}
	expenses := []core.Expense{
		expense("2024-01-03", "cat-1", core.Needs, 1200),
		expense("2024-01-09", "cat-9", core.Wants, 300),
		expense("2024-01-20", "cat-15", core.Savings, 400),
		expense("2024-03-02", "cat-1", core.Needs, 100),
	}

	got := MonthlyTrends(incomes, expenses)
	if len(got) != 3 {
		t.Fatalf("expected 3 months, got %d", len(got))
	}
	if got[0].Month != month("2024-01") || got[2].Month != month("2024-03") {
		t.Fatalf("months not ordered oldest first: %v %v", got[0].Month, got[2].Month)
	}
	jan := got[0]
	if jan.Income != 3000 || jan.Needs != 1200 || jan.Wants != 300 || jan.Expenses != 1500 {
		t.Fatalf("unexpected January totals: %+v", jan)
	}
	if jan.Savings != 1500 || jan.Allocated != 400 {
		t.Fatalf("savings=%v allocated=%v", jan.Savings, jan.Allocated)
	}
	if mar := got[2]; mar.Income != 0 || mar.Savings != -100 {
		t.Fatalf("expense-only month should be present with negative savings: %+v", mar)
	}
}

func TestSummarize(t *testing.T) {
	incomes := []core.IncomeEntry{income("2024-05-01", 4000)}
	expenses := []core.Expense{
		expense("2024-05-02", "cat-1", core.Needs, 2200),
		expense("2024-05-10", "cat-9", core.Wants, 1000),
		expense("2024-05-11", "cat-15", core.Savings, 300),
		expense("2024-06-01", "cat-1", core.Needs, 999),
	}

	s := Summarize(month("2024-05"), incomes, expenses)
	if s.Income != 4000 || s.Expenses != 3200 || s.Allocated != 300 || s.Remaining != 500 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	tests := []struct {
		name          string
		b             Bucket
		actual, pct   float64
		planned, diff float64
	}{
		{"needs", s.Needs, 2200, 55, 2000, 200},
		{"wants", s.Wants, 1000, 25, 1200, -200},
		{"savings", s.Savings, 800, 20, 800, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !approx(tt.b.Actual, tt.actual) || !approx(tt.b.Percent, tt.pct) {
				t.Errorf("actual=%v pct=%v", tt.b.Actual, tt.b.Percent)
			}
			if !approx(tt.b.Planned, tt.planned) || !approx(tt.b.Variance(), tt.diff) {
				t.Errorf("planned=%v variance=%v", tt.b.Planned, tt.b.Variance())
			}
		})
	}
}

func TestSummarizeZeroIncome(t *testing.T) {
	s := Summarize(month("2024-05"), nil, []core.Expense{expense("2024-05-02", "cat-1", core.Needs, 50)})
	for _, p := range []float64{s.Needs.Percent, s.Wants.Percent, s.Savings.Percent} {
		if p != 0 || math.IsNaN(p) {
			t.Fatalf("zero income must give zero percentages, got %v", p)
		}
	}
}

func TestSummarizeYear(t *testing.T) {
	incomes := []core.IncomeEntry{
		income("2023-12-01", 1000),
		income("2024-01-01", 2000),
		income("2024-07-01", 2000),
	}
	expenses := []core.Expense{expense("2024-07-04", "cat-9", core.Wants, 600)}

	y := SummarizeYear(2024, incomes, expenses)
	if y.Totals.Income != 4000 || y.Totals.Wants.Actual != 600 {
		t.Fatalf("unexpected year totals: %+v", y.Totals)
	}
	if len(y.Months) != 2 {
		t.Fatalf("expected 2 months in 2024, got %d", len(y.Months))
	}
	if !approx(y.Totals.Savings.Percent, 85) {
		t.Fatalf("savings percent = %v", y.Totals.Savings.Percent)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	cats := []core.Category{
		{ID: "food", Name: "Food", Type: core.Needs},
		{ID: "groceries", Name: "Groceries", Type: core.Needs, ParentID: "food", IsSubcategory: true},
		{ID: "fun", Name: "Fun", Type: core.Wants},
		{ID: "bills", Name: "Bills", Type: core.Needs},
	}
	expenses := []core.Expense{
		expense("2024-01-02", "groceries", core.Needs, 60),
		expense("2024-01-03", "food", core.Needs, 40),
		expense("2024-01-04", "fun", core.Wants, 50),
		expense("2024-01-05", "bills", core.Needs, 50),
		expense("2024-03-05", "bills", core.Needs, 500),
	}

	got := CategoryBreakdown(expenses, cats, month("2024-01"), month("2024-02"))
	if len(got) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(got))
	}
	if got[0].Category.ID != "food" || got[0].Amount != 100 || got[0].Count != 2 {
		t.Fatalf("subcategories should roll up to their parent: %+v", got[0])
	}
	if got[1].Category.Name != "Bills" || got[2].Category.Name != "Fun" {
		t.Fatalf("ties should sort by name: %s, %s", got[1].Category.Name, got[2].Category.Name)
	}
	if !approx(got[0].Share, 50) {
		t.Fatalf("share = %v", got[0].Share)
	}
}

func TestTrendSeries(t *testing.T) {
	history := flat([]string{"2024-01", "2024-04"}, 100, 50, 0)

	got := TrendSeries(history, core.Month{}, core.Month{})
	if len(got) != 4 {
		t.Fatalf("expected gap-filled 4 months, got %d", len(got))
	}
	if got[1].Month != month("2024-02") || got[1].Income != 0 {
		t.Fatalf("missing month should be zero-filled: %+v", got[1])
	}

	got = TrendSeries(history, month("2023-12"), month("2024-02"))
	if len(got) != 3 || got[0].Month != month("2023-12") || got[1].Income != 100 {
		t.Fatalf("explicit bounds not honoured: %+v", got)
	}

	if TrendSeries(nil, core.Month{}, core.Month{}) != nil {
		t.Fatalf("empty history with open bounds should be nil")
	}
}

func TestRollingAverage(t *testing.T) {
	history := []core.MonthlyData{
		{Month: month("2024-01"), Savings: 100},
		{Month: month("2024-02"), Savings: 200},
		{Month: month("2024-03"), Savings: 300},
		{Month: month("2024-04"), Savings: 400},
	}
	got := RollingAverage(history, 3)
	want := []float64{100, 150, 200, 300}
	for i, w := range want {
		if !approx(got[i].Savings, w) {
			t.Errorf("point %d = %v, want %v", i, got[i].Savings, w)
		}
	}
}

func TestAnalysisMonths(t *testing.T) {
	history := flat([]string{"2023-06", "2023-07", "2023-08", "2023-09", "2023-10", "2023-11", "2023-12", "2024-01"}, 1000, 500, 100)
	history = append(history, core.MonthlyData{Month: month("2023-05"), Needs: 200, Expenses: 200, Savings: -200})

	got := AnalysisMonths(history, month("2024-01"), 0)
	if len(got) != DefaultAnalysisLimit {
		t.Fatalf("expected %d months, got %d", DefaultAnalysisLimit, len(got))
	}
	if got[0].Month != month("2023-12") {
		t.Fatalf("current month must be excluded and newest first, got %v", got[0].Month)
	}
	if got[len(got)-1].Month != month("2023-07") {
		t.Fatalf("oldest month in window = %v", got[len(got)-1].Month)
	}

	got = AnalysisMonths(history, month("2023-07"), 6)
	if len(got) != 1 || got[0].Month != month("2023-06") {
		t.Fatalf("months without income must be skipped: %+v", got)
	}
}

func TestProject(t *testing.T) {
	tests := []struct {
		name     string
		income   float64
		needs    float64
		headline string
	}{
		{"surplus", 1000, 800, "Savings grow by ~$2,400.00."},
		{"deficit", 1000, 1100, "Spending exceeds income by ~$1,200.00."},
		{"flat", 1000, 1000, "Savings remain unchanged."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := flat([]string{"2022-12", "2022-11", "2022-10"}, tt.income, tt.needs, 0)
			p, ok := Project(analysis)
			if !ok {
				t.Fatalf("three months should be enough")
			}
			if p.MonthsAnalyzed != 3 || p.AverageIncome != tt.income {
				t.Fatalf("unexpected projection %+v", p)
			}
			if !approx(p.YearlyProjection, (tt.income-tt.needs)*12) {
				t.Fatalf("yearly = %v", p.YearlyProjection)
			}
			if got := p.Headline("USD"); got != tt.headline {
				t.Errorf("Headline() = %q, want %q", got, tt.headline)
			}
		})
	}

	if _, ok := Project(flat([]string{"2022-12", "2022-11"}, 1000, 0, 0)); ok {
		t.Fatalf("two months should not project")
	}
}

func TestCoverage(t *testing.T) {
	analysis := flat([]string{"2022-12", "2022-11", "2022-10"}, 1000, 500, 300)
	p, _ := Project(analysis)

	c := CoverageFor(p, analysis, nil, nil)
	if c.LivingExpenses.String() != "3 months" {
		t.Fatalf("living expenses = %s", c.LivingExpenses)
	}
	if c.EmergencyBuffer != BufferHealthy {
		t.Fatalf("buffer = %s", c.EmergencyBuffer)
	}
}

func TestCoverageInYears(t *testing.T) {
	analysis := flat([]string{"2022-12", "2022-11", "2022-10"}, 4000, 1000, 1000)
	p, _ := Project(analysis)
	cats := []core.Category{{ID: "c1", Name: "Coffee", Icon: "☕"}}
	expenses := []core.Expense{
		expense("2022-10-05", "c1", core.Wants, 50),
		expense("2021-10-05", "c1", core.Wants, 5000),
	}

	c := CoverageFor(p, analysis, expenses, cats)
	if len(c.Categories) != 1 {
		t.Fatalf("expected one category, got %d", len(c.Categories))
	}
	cc := c.Categories[0]
	if cc.Category.Name != "Coffee" || cc.Covers.String() != "120 years" {
		t.Fatalf("unexpected coverage %s %s", cc.Category.Name, cc.Covers)
	}
}

func TestBufferFor(t *testing.T) {
	tests := []struct {
		months float64
		want   BufferStatus
	}{
		{6, BufferHealthy},
		{3, BufferHealthy},
		{1.5, BufferBuilding},
		{0.2, BufferThin},
		{0, BufferNone},
		{-4, BufferNone},
	}
	for _, tt := range tests {
		if got := BufferFor(tt.months); got != tt.want {
			t.Errorf("BufferFor(%v) = %s, want %s", tt.months, got, tt.want)
		}
	}
	if got := NewDuration(1).String(); got != "1 month" {
		t.Errorf("singular duration = %q", got)
	}
	if got := NewDuration(math.Inf(1)).String(); got != "0 months" {
		t.Errorf("infinite duration = %q", got)
	}
}

func TestEvaluateGoal(t *testing.T) {
	months := []string{"2023-03", "2023-02", "2023-01"}
	tests := []struct {
		name     string
		analysis []core.MonthlyData
		expenses []core.Expense
		status   GoalStatus
		message  string
	}{
		{
			name:     "achievable",
			analysis: flat(months, 5000, 3000, 0),
			status:   Achievable,
			message:  "Based on your current income and spending, this goal is achievable!",
		},
		{
			name:     "partially achievable",
			analysis: flat(months, 4000, 3000, 0),
			status:   PartiallyAchievable,
			message:  "At your current saving rate ($1,000.00/mo), you would need 6 months.",
		},
		{
			name:     "allocated savings are not available",
			analysis: flat(months, 5000, 3000, 0),
			expenses: []core.Expense{
				expense("2023-01-10", "cat-15", core.Savings, 1500),
				expense("2023-02-10", "cat-15", core.Savings, 1500),
				expense("2022-12-10", "cat-15", core.Savings, 9000),
			},
			status:  PartiallyAchievable,
			message: "At your current saving rate ($1,000.00/mo), you would need 6 months.",
		},
		{
			name:     "not achievable",
			analysis: flat(months, 3000, 3000, 500),
			status:   NotAchievable,
			message:  "With your current spending matching or exceeding income, this goal is not achievable without changes.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := EvaluateGoal(6000, 3, tt.analysis, tt.expenses, "USD")
			if err != nil {
				t.Fatalf("EvaluateGoal: %v", err)
			}
			if r.Status != tt.status || r.Message != tt.message {
				t.Errorf("got %s %q, want %s %q", r.Status, r.Message, tt.status, tt.message)
			}
			if r.RequiredMonthly != 2000 || r.MonthCount != 3 {
				t.Errorf("required=%v count=%d", r.RequiredMonthly, r.MonthCount)
			}
		})
	}
}

func TestEvaluateGoalRejects(t *testing.T) {
	enough := flat([]string{"2023-03", "2023-02", "2023-01"}, 5000, 3000, 0)
	tests := []struct {
		name     string
		target   float64
		months   int
		analysis []core.MonthlyData
		want     error
	}{
		{"zero target", 0, 6, enough, ErrInvalidTarget},
		{"NaN target", math.NaN(), 6, enough, ErrInvalidTarget},
		{"infinite target", math.Inf(1), 6, enough, ErrInvalidTarget},
		{"too short", 1000, 2, enough, ErrInvalidTimeframe},
		{"too long", 1000, 37, enough, ErrInvalidTimeframe},
		{"not enough history", 1000, 12, enough[:2], ErrInsufficientHistory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EvaluateGoal(tt.target, tt.months, tt.analysis, nil, "USD"); err != tt.want {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestJourneyAndPersona(t *testing.T) {
	tests := []struct {
		name        string
		needs       float64
		wants       float64
		persona     string
		wantSavings float64
	}{
		{"balanced", 500, 300, "balanced", 20},
		{"super saver", 400, 200, "super_saver", 40},
		{"lifestyle", 450, 400, "lifestyle", 15},
		{"essentials", 600, 250, "essentials", 15},
		{"steady", 560, 200, "steady", 24},
		{"overextended", 700, 400, "overextended", -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, ok := JourneyStats(flat([]string{"2024-01", "2024-02", "2024-03"}, 1000, tt.needs, tt.wants))
			if !ok {
				t.Fatalf("three months should qualify")
			}
			if !approx(j.SavingsPercentage, tt.wantSavings) {
				t.Fatalf("savings percentage = %v", j.SavingsPercentage)
			}
			p := ClassifyPersona(j)
			if p.Key != tt.persona {
				t.Errorf("persona = %s, want %s", p.Key, tt.persona)
			}
			if p.Momentum != "steady" {
				t.Errorf("flat history should be steady, got %s", p.Momentum)
			}
		})
	}

	if _, ok := JourneyStats(flat([]string{"2024-01", "2024-02"}, 1000, 500, 300)); ok {
		t.Fatalf("two months should not qualify")
	}
}

func TestJourneyTrend(t *testing.T) {
	history := append(
		flat([]string{"2024-01", "2024-02"}, 1000, 900, 0),
		flat([]string{"2024-03", "2024-04"}, 1000, 600, 0)...,
	)
	j, ok := JourneyStats(history)
	if !ok {
		t.Fatalf("expected stats")
	}
	if !approx(j.SavingsTrend, 30) {
		t.Fatalf("trend = %v", j.SavingsTrend)
	}
	if p := ClassifyPersona(j); p.Momentum != "improving" {
		t.Fatalf("momentum = %s", p.Momentum)
	}
}

func TestJourneySingleActiveMonthIsSteady(t *testing.T) {
	history := append(
		flat([]string{"2024-01", "2024-02"}, 0, 0, 0),
		flat([]string{"2024-03"}, 1000, 300, 0)...,
	)
	j, ok := JourneyStats(history)
	if !ok {
		t.Fatalf("expected stats")
	}
	if j.SavingsTrend != 0 {
		t.Fatalf("trend = %v, want 0", j.SavingsTrend)
	}
	if p := ClassifyPersona(j); p.Momentum != "steady" {
		t.Fatalf("momentum = %s", p.Momentum)
	}
}

func TestClassifyInsight(t *testing.T) {
	tests := []struct {
		text      string
		sentiment Sentiment
		kind      InsightKind
	}{
		{"Your spending of $10.00 was below your income of $20.00, a surplus of $10.00.", Positive, KindSpending},
		{"Your spending of $30.00 was above your income of $20.00 by $10.00.", Warning, KindSpending},
		{"Your savings rate fell from 30% to 10%.", Warning, KindSavings},
		{"Your savings rate increased from 10% to 30%.", Positive, KindSavings},
		{"Needs came to $500.00, $20.00 more than planned.", Warning, KindAlert},
		{"Wants came to $100.00, $20.00 less than planned.", Positive, KindInfo},
		{"Expenses have exceeded income for 3 consecutive months.", Warning, KindAlert},
		{"Your largest category was Rent at $900.00 (60% of spending).", Neutral, KindSpending},
	}
	for _, tt := range tests {
		got := ClassifyInsight(tt.text)
		if got.Sentiment != tt.sentiment || got.Kind != tt.kind {
			t.Errorf("%q: got %s/%s, want %s/%s", tt.text, got.Sentiment, got.Kind, tt.sentiment, tt.kind)
		}
	}
}

func TestMonthlyInsights(t *testing.T) {
	cats := []core.Category{
		{ID: "rent", Name: "Rent", Type: core.Needs},
		{ID: "fun", Name: "Fun", Type: core.Wants},
	}
	incomes := []core.IncomeEntry{
		income("2024-01-01", 2000),
		income("2024-02-01", 2000),
		income("2024-03-01", 2000),
	}
	expenses := []core.Expense{
		expense("2024-01-05", "rent", core.Needs, 2100),
		expense("2024-02-05", "rent", core.Needs, 1500),
		expense("2024-02-09", "fun", core.Wants, 700),
		expense("2024-03-05", "rent", core.Needs, 1000),
		expense("2024-03-09", "fun", core.Wants, 200),
	}
	history := MonthlyTrends(incomes, expenses)

	t.Run("deficit streak", func(t *testing.T) {
		m := month("2024-02")
		got := MonthlyInsights(InsightInput{
			Month:      m,
			Summary:    Summarize(m, incomes, expenses),
			Expenses:   expenses,
			Categories: cats,
			History:    history,
			Currency:   "USD",
		})
		want := []string{
			"Your spending of $2,200.00 was above your income of $2,000.00 by $200.00.",
			"Needs came to $1,500.00, $500.00 more than planned.",
			"Wants came to $700.00, $100.00 more than planned.",
			"Your savings rate of -10% is less than target of 20%.",
			"Your savings rate fell from -5% to -10%.",
			"Your largest category was Rent at $1,500.00 (68% of spending).",
			"Expenses have exceeded income for 2 consecutive months.",
			"Spending on Rent dropped by $600.00 compared to last month.",
		}
		assertLines(t, got, want)
	})

	t.Run("recovery", func(t *testing.T) {
		m := month("2024-03")
		got := MonthlyInsights(InsightInput{
			Month:      m,
			Summary:    Summarize(m, incomes, expenses),
			Expenses:   expenses,
			Categories: cats,
			History:    history,
			Currency:   "USD",
		})
		want := []string{
			"Your spending of $1,200.00 was below your income of $2,000.00, a surplus of $800.00.",
			"Needs came to $1,000.00, $0.00 less than planned.",
			"Wants came to $200.00, $400.00 less than planned.",
			"Your savings of $800.00 (40% of income) exceeded plan of 20%.",
			"Your savings rate increased from -10% to 40%.",
			"Your largest category was Rent at $1,000.00 (83% of spending).",
			"Spending on Rent dropped by $500.00 compared to last month.",
		}
		assertLines(t, got, want)
	})

	t.Run("empty month", func(t *testing.T) {
		m := core.NewMonth(2030, time.January)
		if got := MonthlyInsights(InsightInput{Month: m, Summary: Summarize(m, incomes, expenses)}); got != nil {
			t.Fatalf("expected no bullets, got %v", got)
		}
	})
}

func assertLines(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d bullets, want %d:\n%q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bullet %d:\n got %q\nwant %q", i, got[i], want[i])
		}
	}
}
