package budget

import (
	"fmt"
	"math"

	"kannadi/internal/core"
)

type BufferStatus string

const (
	BufferHealthy  BufferStatus = "Healthy"
	BufferBuilding BufferStatus = "Building"
	BufferThin     BufferStatus = "Thin"
	BufferNone     BufferStatus = "None"
)

// yearsAbove is the point past which durations are shown in years.
const yearsAbove = 18

// maxCoverageCategories caps how many categories Coverage reports.
const maxCoverageCategories = 5

// Duration is a span of months with a human rendering.
type Duration struct {
	Months float64 `json:"months"`
	Value  int     `json:"value"`
	Unit   string  `json:"unit"`
}

func NewDuration(months float64) Duration {
	if math.IsNaN(months) || math.IsInf(months, 0) || months < 0 {
		months = 0
	}
	if months > yearsAbove {
		return Duration{Months: months, Value: int(math.Round(months / 12)), Unit: "years"}
	}
	return Duration{Months: months, Value: int(math.Round(months)), Unit: "months"}
}

func (d Duration) String() string {
	unit := d.Unit
	if d.Value == 1 {
		unit = unit[:len(unit)-1]
	}
	return fmt.Sprintf("%d %s", d.Value, unit)
}

type CategoryCoverage struct {
	Category       core.Category `json:"category"`
	MonthlyAverage float64       `json:"monthlyAverage"`
	Covers         Duration      `json:"covers"`
}

type Coverage struct {
	LivingExpenses  Duration           `json:"livingExpenses"`
	EmergencyBuffer BufferStatus       `json:"emergencyBuffer"`
	Categories      []CategoryCoverage `json:"categories"`
}

// BufferFor grades how many months of expenses a projection would cover.
func BufferFor(months float64) BufferStatus {
	switch {
	case months >= 3:
		return BufferHealthy
	case months >= 1:
		return BufferBuilding
	case months > 0:
		return BufferThin
	default:
		return BufferNone
	}
}

// CoverageFor translates a yearly projection into what it would pay for:
// months of living expenses, and how long it would fund each of the
// largest categories over the analysis window.
func CoverageFor(p Projection, analysis []core.MonthlyData, expenses []core.Expense, categories []core.Category) Coverage {
	var living float64
	if p.AverageExpenses > 0 && p.YearlyProjection > 0 {
		living = p.YearlyProjection / p.AverageExpenses
	}
	c := Coverage{
		LivingExpenses:  NewDuration(living),
		EmergencyBuffer: BufferFor(living),
	}
	if p.YearlyProjection <= 0 || len(analysis) == 0 {
		return c
	}

	window := make(map[core.Month]bool, len(analysis))
	for _, md := range analysis {
		window[md.Month] = true
	}
	var inWindow []core.Expense
	for _, e := range expenses {
		if window[e.Month()] && e.CategoryType != core.Savings {
			inWindow = append(inWindow, e)
		}
	}

	totals := CategoryBreakdown(inWindow, categories, core.Month{}, core.Month{})
	n := float64(len(analysis))
	for _, ct := range totals {
		avg := ct.Amount / n
		if avg <= 0 {
			continue
		}
		c.Categories = append(c.Categories, CategoryCoverage{
			Category:       ct.Category,
			MonthlyAverage: avg,
			Covers:         NewDuration(p.YearlyProjection / avg),
		})
		if len(c.Categories) == maxCoverageCategories {
			break
		}
	}
	return c
}
