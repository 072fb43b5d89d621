package budget

import (
	"sort"
	"strings"

	"kannadi/internal/core"
	"kannadi/internal/currency"
)

const (
	// DefaultAnalysisLimit is how many completed months feed a projection.
	DefaultAnalysisLimit = 6
	// MinAnalysisMonths is the least history any projection will use.
	MinAnalysisMonths = 3

	// AmountPlaceholder marks where Headline inserts the yearly amount.
	AmountPlaceholder = "##AMOUNT##"
)

type Projection struct {
	MonthsAnalyzed   int     `json:"monthsAnalyzed"`
	AverageIncome    float64 `json:"averageIncome"`
	AverageExpenses  float64 `json:"averageExpenses"`
	AverageSavings   float64 `json:"averageSavings"`
	YearlyProjection float64 `json:"yearlyProjection"`
	Template         string  `json:"-"`
}

// AnalysisMonths picks completed months (strictly before current) that had
// income, newest first, at most limit of them. A non-positive limit uses
// DefaultAnalysisLimit.
func AnalysisMonths(history []core.MonthlyData, current core.Month, limit int) []core.MonthlyData {
	if limit <= 0 {
		limit = DefaultAnalysisLimit
	}
	var out []core.MonthlyData
	for _, md := range history {
		if md.Month.Before(current) && md.Income > 0 {
			out = append(out, md)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.After(out[j].Month) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Project averages the analysis window and extrapolates savings over a year.
// It reports false when fewer than MinAnalysisMonths are available.
func Project(analysis []core.MonthlyData) (Projection, bool) {
	if len(analysis) < MinAnalysisMonths {
		return Projection{}, false
	}
	var income, expenses, savings float64
	for _, md := range analysis {
		income += md.Income
		expenses += md.Expenses
		savings += md.Savings
	}
	n := float64(len(analysis))
	p := Projection{
		MonthsAnalyzed:  len(analysis),
		AverageIncome:   income / n,
		AverageExpenses: expenses / n,
		AverageSavings:  savings / n,
	}
	p.YearlyProjection = p.AverageSavings * 12

	switch {
	case p.YearlyProjection > 0:
		p.Template = "Savings grow by ~" + AmountPlaceholder + "."
	case p.YearlyProjection < 0:
		p.Template = "Spending exceeds income by ~" + AmountPlaceholder + "."
	default:
		p.Template = "Savings remain unchanged."
	}
	return p, true
}

// Headline renders the template with the absolute yearly amount.
func (p Projection) Headline(code string) string {
	amount := p.YearlyProjection
	if amount < 0 {
		amount = -amount
	}
	return strings.ReplaceAll(p.Template, AmountPlaceholder, currency.Format(amount, code))
}
