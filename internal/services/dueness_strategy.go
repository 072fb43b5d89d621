package services

import (
	"fmt"
	"time"

	"kannadi/internal/core"
)

// DuenessChecker decides whether a recurring template should run at now,
// given when it last ran.
type DuenessChecker interface {
	IsDue(lastRun, now time.Time, rt core.RecurringTransaction) bool
	// Occurrence is the date the materialized transaction carries.
	Occurrence(now time.Time, rt core.RecurringTransaction) core.Date
}

// WeeklyChecker runs once seven days have passed.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastRun, now time.Time, _ core.RecurringTransaction) bool {
	if lastRun.IsZero() {
		return true
	}
	return now.Sub(lastRun) >= 7*24*time.Hour
}

func (WeeklyChecker) Occurrence(now time.Time, _ core.RecurringTransaction) core.Date {
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}

// MonthlyChecker runs once per calendar month, on or after DayOfMonth.
// Days past the end of a short month fall on its last day.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastRun, now time.Time, rt core.RecurringTransaction) bool {
	if !lastRun.IsZero() && lastRun.Year() == now.Year() && lastRun.Month() == now.Month() {
		return false
	}
	return now.Day() >= clampDay(now.Year(), now.Month(), rt.DayOfMonth)
}

func (MonthlyChecker) Occurrence(now time.Time, rt core.RecurringTransaction) core.Date {
	return core.NewDate(now.Year(), int(now.Month()), clampDay(now.Year(), now.Month(), rt.DayOfMonth))
}

// YearlyChecker runs once per calendar year, in the start date's month on
// or after DayOfMonth. Templates without a start date use January.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastRun, now time.Time, rt core.RecurringTransaction) bool {
	if !lastRun.IsZero() && lastRun.Year() == now.Year() {
		return false
	}
	target := anniversaryMonth(rt)
	switch {
	case now.Month() < target:
		return false
	case now.Month() == target:
		return now.Day() >= clampDay(now.Year(), target, rt.DayOfMonth)
	default:
		return true
	}
}

func (YearlyChecker) Occurrence(now time.Time, rt core.RecurringTransaction) core.Date {
	target := anniversaryMonth(rt)
	return core.NewDate(now.Year(), int(target), clampDay(now.Year(), target, rt.DayOfMonth))
}

func anniversaryMonth(rt core.RecurringTransaction) time.Month {
	if rt.StartDate.IsZero() {
		return time.January
	}
	return rt.StartDate.Time.Month()
}

// clampDay limits day to the length of the given month.
func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	if day < 1 {
		return 1
	}
	return day
}

var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return checker, nil
}
