package budget

import "kannadi/internal/core"

// TrendPoint is a smoothed savings value for one month.
type TrendPoint struct {
	Month   core.Month `json:"month"`
	Savings float64    `json:"savings"`
}

// TrendSeries returns one entry per month from from to to inclusive, with
// zero-valued entries for months missing in history. Zero bounds default to
// the first and last month present in history.
func TrendSeries(history []core.MonthlyData, from, to core.Month) []core.MonthlyData {
	if len(history) == 0 && (from.IsZero() || to.IsZero()) {
		return nil
	}
	byMonth := make(map[core.Month]core.MonthlyData, len(history))
	first, last := from, to
	for _, md := range history {
		byMonth[md.Month] = md
		if from.IsZero() && (first.IsZero() || md.Month.Before(first)) {
			first = md.Month
		}
		if to.IsZero() && (last.IsZero() || md.Month.After(last)) {
			last = md.Month
		}
	}
	if last.Before(first) {
		return nil
	}

	var out []core.MonthlyData
	for m := first; !m.After(last); m = m.Next() {
		md, ok := byMonth[m]
		if !ok {
			md = core.MonthlyData{Month: m}
		}
		out = append(out, md)
	}
	return out
}

// RollingAverage smooths savings with a trailing window. The first entries
// average over however many months are available so far.
func RollingAverage(history []core.MonthlyData, window int) []TrendPoint {
	if window < 1 {
		window = 1
	}
	out := make([]TrendPoint, 0, len(history))
	var sum float64
	for i, md := range history {
		sum += md.Savings
		if i >= window {
			sum -= history[i-window].Savings
		}
		n := min(i+1, window)
		out = append(out, TrendPoint{Month: md.Month, Savings: sum / float64(n)})
	}
	return out
}
