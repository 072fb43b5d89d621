package budget

import "kannadi/internal/core"

// momentumThreshold is the savings-rate swing, in points, that counts as a trend.
const momentumThreshold = 5.0

type Journey struct {
	Months            int     `json:"months"`
	TotalIncome       float64 `json:"totalIncome"`
	NeedsPercentage   float64 `json:"needsPercentage"`
	WantsPercentage   float64 `json:"wantsPercentage"`
	SavingsPercentage float64 `json:"savingsPercentage"`
	SavingsTrend      float64 `json:"savingsTrend"`
}

type Persona struct {
	Key            string `json:"key"`
	Title          string `json:"title"`
	Icon           string `json:"icon"`
	Color          string `json:"color"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
	Momentum       string `json:"momentum"`
}

// JourneyStats returns cumulative 50/30/20 shares over the whole history
// and how the savings rate moved between its older and newer halves.
// It reports false with fewer than MinAnalysisMonths months or no income.
func JourneyStats(history []core.MonthlyData) (Journey, bool) {
	if len(history) < MinAnalysisMonths {
		return Journey{}, false
	}
	var income, needs, wants float64
	for _, md := range history {
		income += md.Income
		needs += md.Needs
		wants += md.Wants
	}
	if income <= 0 {
		return Journey{}, false
	}

	ordered := TrendSeries(history, core.Month{}, core.Month{})
	var active []core.MonthlyData
	for _, md := range ordered {
		if md.Income > 0 || md.Expenses > 0 {
			active = append(active, md)
		}
	}
	// A trend needs a month on each side.
	var trend float64
	if len(active) >= 2 {
		half := len(active) / 2
		trend = savingsRate(active[half:]) - savingsRate(active[:half])
	}

	return Journey{
		Months:            len(history),
		TotalIncome:       income,
		NeedsPercentage:   percentOf(needs, income),
		WantsPercentage:   percentOf(wants, income),
		SavingsPercentage: percentOf(income-needs-wants, income),
		SavingsTrend:      trend,
	}, true
}

func savingsRate(months []core.MonthlyData) float64 {
	var income, spent float64
	for _, md := range months {
		income += md.Income
		spent += md.Expenses
	}
	return percentOf(income-spent, income)
}

// ClassifyPersona maps journey stats onto a persona. Rules are checked in
// order and the first match wins.
func ClassifyPersona(j Journey) Persona {
	var p Persona
	switch {
	case j.SavingsPercentage < 0:
		p = Persona{
			Key:            "overextended",
			Title:          "The Overextended",
			Icon:           "🔥",
			Color:          "#EF4444",
			Description:    "Over this period your spending has outpaced your income.",
			Recommendation: "Pick one wants category and cap it for the next month to get back above zero.",
		}
	case j.SavingsPercentage >= 30:
		p = Persona{
			Key:            "super_saver",
			Title:          "The Super Saver",
			Icon:           "🏆",
			Color:          "#10B981",
			Description:    "You consistently keep well over a fifth of your income.",
			Recommendation: "Put the surplus to work in long-term investments or a pension top-up.",
		}
	case j.SavingsPercentage >= SavingsTarget && j.NeedsPercentage <= NeedsTarget && j.WantsPercentage <= WantsTarget:
		p = Persona{
			Key:            "balanced",
			Title:          "The Balanced Planner",
			Icon:           "⚖️",
			Color:          "#3B82F6",
			Description:    "Your spending tracks the 50/30/20 rule closely.",
			Recommendation: "Keep going and review your targets once a quarter.",
		}
	case j.SavingsPercentage >= SavingsTarget:
		p = Persona{
			Key:            "steady",
			Title:          "The Steady Builder",
			Icon:           "🌱",
			Color:          "#22C55E",
			Description:    "You save at least a fifth of your income while one bucket runs past its guideline.",
			Recommendation: "Trim the bucket that runs over to lock in your progress.",
		}
	case j.WantsPercentage > WantsTarget:
		p = Persona{
			Key:            "lifestyle",
			Title:          "The Lifestyle Enthusiast",
			Icon:           "🎉",
			Color:          "#A855F7",
			Description:    "Wants take a larger share of income than the 30% guideline.",
			Recommendation: "Review subscriptions and dining out, then move the difference to savings.",
		}
	default:
		p = Persona{
			Key:            "essentials",
			Title:          "The Essentials Stretched",
			Icon:           "🏠",
			Color:          "#F59E0B",
			Description:    "Fixed costs take more than half of your income.",
			Recommendation: "Compare utility, insurance and phone contracts for cheaper deals.",
		}
	}

	switch {
	case j.SavingsTrend >= momentumThreshold:
		p.Momentum = "improving"
	case j.SavingsTrend <= -momentumThreshold:
		p.Momentum = "declining"
	default:
		p.Momentum = "steady"
	}
	return p
}
