package budget

import (
	"errors"
	"fmt"
	"math"

	"kannadi/internal/core"
	"kannadi/internal/currency"
)

const (
	MinGoalMonths = 3
	MaxGoalMonths = 36
)

var (
	ErrInvalidTarget       = errors.New("target must be a positive amount")
	ErrInvalidTimeframe    = errors.New("timeframe must be between 3 and 36 months")
	ErrInsufficientHistory = errors.New("at least 3 completed months with income are required")
)

type GoalStatus string

const (
	Achievable          GoalStatus = "achievable"
	PartiallyAchievable GoalStatus = "partial"
	NotAchievable       GoalStatus = "not_achievable"
)

// Title is the short label shown next to a result.
func (s GoalStatus) Title() string {
	switch s {
	case Achievable:
		return "Goal Achievable"
	case PartiallyAchievable:
		return "Partially Achievable"
	default:
		return "Changes Required"
	}
}

type GoalResult struct {
	Status                GoalStatus `json:"status"`
	Title                 string     `json:"title"`
	Target                float64    `json:"target"`
	Months                int        `json:"months"`
	RequiredMonthly       float64    `json:"requiredMonthly"`
	CurrentAverageSavings float64    `json:"currentAverageSavings"`
	MonthsToGoal          float64    `json:"monthsToGoal,omitempty"`
	MonthCount            int        `json:"monthCount"`
	Message               string     `json:"message"`
}

// EvaluateGoal checks whether saving target within months is realistic given
// the cash left over in the analysis window. Money already moved into
// savings-type categories is not available for a new goal.
func EvaluateGoal(target float64, months int, analysis []core.MonthlyData, expenses []core.Expense, code string) (GoalResult, error) {
	if math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		return GoalResult{}, ErrInvalidTarget
	}
	if months < MinGoalMonths || months > MaxGoalMonths {
		return GoalResult{}, ErrInvalidTimeframe
	}
	if len(analysis) < MinAnalysisMonths {
		return GoalResult{}, ErrInsufficientHistory
	}

	window := make(map[core.Month]bool, len(analysis))
	var income, spent float64
	for _, md := range analysis {
		window[md.Month] = true
		income += md.Income
		spent += md.Expenses
	}
	var allocated float64
	for _, e := range expenses {
		if e.CategoryType == core.Savings && window[e.Month()] {
			allocated += e.Amount.Value()
		}
	}

	avg := math.Max(0, (income-spent-allocated)/float64(len(analysis)))
	r := GoalResult{
		Target:                target,
		Months:                months,
		RequiredMonthly:       target / float64(months),
		CurrentAverageSavings: avg,
		MonthCount:            len(analysis),
	}

	switch {
	case avg >= r.RequiredMonthly:
		r.Status = Achievable
		r.Message = "Based on your current income and spending, this goal is achievable!"
	case avg > 0:
		r.Status = PartiallyAchievable
		r.MonthsToGoal = target / avg
		r.Message = fmt.Sprintf("At your current saving rate (%s/mo), you would need %d months.",
			currency.Format(avg, code), int(math.Ceil(r.MonthsToGoal)))
	default:
		r.Status = NotAchievable
		r.Message = "With your current spending matching or exceeding income, this goal is not achievable without changes."
	}
	r.Title = r.Status.Title()
	return r, nil
}
