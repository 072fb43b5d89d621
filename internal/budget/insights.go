package budget

import (
	"fmt"
	"math"
	"strings"

	"kannadi/internal/core"
	"kannadi/internal/currency"
)

type Sentiment string

const (
	Positive Sentiment = "positive"
	Warning  Sentiment = "warning"
	Neutral  Sentiment = "info"
)

type InsightKind string

const (
	KindSpending InsightKind = "spending"
	KindSavings  InsightKind = "savings"
	KindAlert    InsightKind = "alert"
	KindInfo     InsightKind = "info"
)

type Insight struct {
	Text      string      `json:"text"`
	Sentiment Sentiment   `json:"sentiment"`
	Kind      InsightKind `json:"kind"`
}

// InsightInput carries everything MonthlyInsights looks at. History is the
// full MonthlyTrends series; Expenses may span any range.
type InsightInput struct {
	Month      core.Month
	Summary    Summary
	Expenses   []core.Expense
	Categories []core.Category
	History    []core.MonthlyData
	Currency   string
}

// minCategoryChange filters out noise when comparing a category month to month.
const minCategoryChange = 0.10

var (
	positivePhrases = []string{"below your income", "less than planned", "exceeded plan", "increased from", "surplus"}
	warningPhrases  = []string{"above your income", "more than planned", "fell from", "less than target", "consecutive", "decreased"}
)

// ClassifyInsight tags a bullet by its wording. Warnings win over positives.
func ClassifyInsight(text string) Insight {
	lower := strings.ToLower(text)
	warning := containsAny(lower, warningPhrases)
	positive := containsAny(lower, positivePhrases)

	in := Insight{Text: text, Sentiment: Neutral, Kind: KindInfo}
	switch {
	case strings.Contains(lower, "saving"):
		in.Kind = KindSavings
	case strings.Contains(lower, "spending"), strings.Contains(lower, "spent"):
		in.Kind = KindSpending
	case warning:
		in.Kind = KindAlert
	}
	switch {
	case warning:
		in.Sentiment = Warning
	case positive:
		in.Sentiment = Positive
	}
	return in
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// MonthlyInsights writes the narrative bullets for one month. A month with
// neither income nor spending yields no bullets.
func MonthlyInsights(in InsightInput) []string {
	s := in.Summary
	if s.Income == 0 && s.Expenses == 0 && s.Allocated == 0 {
		return nil
	}
	money := func(v float64) string { return currency.Format(v, in.Currency) }
	var out []string

	switch {
	case s.Income == 0:
		out = append(out, fmt.Sprintf("You spent %s this month with no income recorded.", money(s.Expenses)))
	case s.Expenses <= s.Income:
		out = append(out, fmt.Sprintf("Your spending of %s was below your income of %s, a surplus of %s.",
			money(s.Expenses), money(s.Income), money(s.Income-s.Expenses)))
	default:
		out = append(out, fmt.Sprintf("Your spending of %s was above your income of %s by %s.",
			money(s.Expenses), money(s.Income), money(s.Expenses-s.Income)))
	}

	if s.Income > 0 {
		out = append(out, planBullet("Needs", s.Needs, money), planBullet("Wants", s.Wants, money))

		rate := s.Savings.Percent
		if rate >= SavingsTarget {
			out = append(out, fmt.Sprintf("Your savings of %s (%.0f%% of income) exceeded plan of %.0f%%.",
				money(s.Savings.Actual), rate, SavingsTarget))
		} else {
			out = append(out, fmt.Sprintf("Your savings rate of %.0f%% is less than target of %.0f%%.", rate, SavingsTarget))
		}
	}

	if prev, ok := previousMonth(in.History, in.Month); ok && s.Income > 0 {
		before := percentOf(prev.Savings, prev.Income)
		now := s.Savings.Percent
		switch {
		case math.Round(now) > math.Round(before):
			out = append(out, fmt.Sprintf("Your savings rate increased from %.0f%% to %.0f%%.", before, now))
		case math.Round(now) < math.Round(before):
			out = append(out, fmt.Sprintf("Your savings rate fell from %.0f%% to %.0f%%.", before, now))
		}
	}

	current := spendingByCategory(in.Expenses, in.Categories, in.Month)
	if len(current) > 0 && s.Expenses > 0 {
		top := current[0]
		out = append(out, fmt.Sprintf("Your largest category was %s at %s (%.0f%% of spending).",
			top.Category.Name, money(top.Amount), percentOf(top.Amount, s.Expenses)))
	}

	if n := deficitStreak(in.History, in.Month); n >= 2 {
		out = append(out, fmt.Sprintf("Expenses have exceeded income for %d consecutive months.", n))
	}

	if line, ok := biggestCategoryChange(current, spendingByCategory(in.Expenses, in.Categories, in.Month.Prev()), money); ok {
		out = append(out, line)
	}
	return out
}

func planBullet(label string, b Bucket, money func(float64) string) string {
	diff := b.Actual - b.Planned
	if diff <= 0 {
		return fmt.Sprintf("%s came to %s, %s less than planned.", label, money(b.Actual), money(-diff))
	}
	return fmt.Sprintf("%s came to %s, %s more than planned.", label, money(b.Actual), money(diff))
}

// previousMonth returns the calendar month before m if it had income.
func previousMonth(history []core.MonthlyData, m core.Month) (core.MonthlyData, bool) {
	want := m.Prev()
	for _, md := range history {
		if md.Month == want && md.Income > 0 {
			return md, true
		}
	}
	return core.MonthlyData{}, false
}

// deficitStreak counts consecutive months ending at m where expenses beat income.
func deficitStreak(history []core.MonthlyData, m core.Month) int {
	byMonth := make(map[core.Month]core.MonthlyData, len(history))
	for _, md := range history {
		byMonth[md.Month] = md
	}
	n := 0
	for cur := m; ; cur = cur.Prev() {
		md, ok := byMonth[cur]
		if !ok || md.Expenses <= md.Income {
			return n
		}
		n++
	}
}

func spendingByCategory(expenses []core.Expense, categories []core.Category, m core.Month) []CategoryTotal {
	var month []core.Expense
	for _, e := range expenses {
		if e.Month() == m && e.CategoryType != core.Savings {
			month = append(month, e)
		}
	}
	return CategoryBreakdown(month, categories, m, m)
}

// biggestCategoryChange describes the category whose spending moved the
// most against the previous month, ignoring moves under minCategoryChange.
func biggestCategoryChange(current, previous []CategoryTotal, money func(float64) string) (string, bool) {
	type change struct {
		name      string
		now, then float64
	}
	changes := map[string]*change{}
	var order []string
	add := func(totals []CategoryTotal, isNow bool) {
		for _, ct := range totals {
			c, ok := changes[ct.Category.ID]
			if !ok {
				c = &change{name: ct.Category.Name}
				changes[ct.Category.ID] = c
				order = append(order, ct.Category.ID)
			}
			if isNow {
				c.now = ct.Amount
			} else {
				c.then = ct.Amount
			}
		}
	}
	add(current, true)
	add(previous, false)

	var best *change
	for _, id := range order {
		c := changes[id]
		diff := math.Abs(c.now - c.then)
		if c.then == 0 || diff == 0 || diff < minCategoryChange*math.Max(c.now, c.then) {
			continue
		}
		if best == nil || diff > math.Abs(best.now-best.then) {
			best = c
		}
	}
	if best == nil {
		return "", false
	}
	if best.now > best.then {
		return fmt.Sprintf("Spending on %s rose by %s compared to last month.", best.name, money(best.now-best.then)), true
	}
	return fmt.Sprintf("Spending on %s dropped by %s compared to last month.", best.name, money(best.then-best.now)), true
}
