package services

import (
	"testing"
	"time"

	"kannadi/internal/core"
)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestWeeklyChecker(t *testing.T) {
	now := at(2024, time.January, 15)
	tests := []struct {
		name    string
		lastRun time.Time
		want    bool
	}{
		{"never run", time.Time{}, true},
		{"ran six days ago", at(2024, time.January, 9), false},
		{"ran exactly a week ago", at(2024, time.January, 8), true},
		{"ran a month ago", at(2023, time.December, 15), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (WeeklyChecker{}).IsDue(tt.lastRun, now, core.RecurringTransaction{}); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker(t *testing.T) {
	tests := []struct {
		name    string
		day     int
		lastRun time.Time
		now     time.Time
		want    bool
	}{
		{"never run, before target day", 20, time.Time{}, at(2024, time.March, 10), false},
		{"never run, on target day", 10, time.Time{}, at(2024, time.March, 10), true},
		{"already ran this month", 1, at(2024, time.March, 1), at(2024, time.March, 28), false},
		{"ran last month, target reached", 5, at(2024, time.February, 5), at(2024, time.March, 5), true},
		{"day 31 clamps to leap february", 31, at(2024, time.January, 31), at(2024, time.February, 29), true},
		{"day 31 not yet in february", 31, at(2024, time.January, 31), at(2024, time.February, 28), false},
		{"day 30 clamps in common february", 30, at(2023, time.January, 30), at(2023, time.February, 28), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := core.RecurringTransaction{DayOfMonth: tt.day}
			if got := (MonthlyChecker{}).IsDue(tt.lastRun, tt.now, rt); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker(t *testing.T) {
	rt := core.RecurringTransaction{DayOfMonth: 29, StartDate: core.NewDate(2020, 2, 29)}
	tests := []struct {
		name    string
		lastRun time.Time
		now     time.Time
		want    bool
	}{
		{"ran this year", at(2023, time.February, 28), at(2023, time.December, 1), false},
		{"before anniversary month", at(2022, time.February, 28), at(2023, time.January, 30), false},
		{"anniversary clamps to 28th", at(2022, time.February, 28), at(2023, time.February, 28), true},
		{"past anniversary month", at(2022, time.February, 28), at(2023, time.June, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (YearlyChecker{}).IsDue(tt.lastRun, tt.now, rt); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOccurrence(t *testing.T) {
	now := at(2023, time.February, 28)
	tests := []struct {
		freq core.Frequency
		rt   core.RecurringTransaction
		want string
	}{
		{core.Weekly, core.RecurringTransaction{}, "2023-02-28"},
		{core.Monthly, core.RecurringTransaction{DayOfMonth: 31}, "2023-02-28"},
		{core.Monthly, core.RecurringTransaction{DayOfMonth: 3}, "2023-02-03"},
		{core.Yearly, core.RecurringTransaction{DayOfMonth: 15, StartDate: core.NewDate(2021, 11, 15)}, "2023-11-15"},
		{core.Yearly, core.RecurringTransaction{DayOfMonth: 2}, "2023-01-02"},
	}
	for _, tt := range tests {
		checker, err := GetDuenessChecker(tt.freq)
		if err != nil {
			t.Fatal(err)
		}
		if got := checker.Occurrence(now, tt.rt).String(); got != tt.want {
			t.Errorf("%s Occurrence = %s, want %s", tt.freq, got, tt.want)
		}
	}
}

func TestGetDuenessCheckerUnknown(t *testing.T) {
	if _, err := GetDuenessChecker("daily"); err == nil {
		t.Error("expected error for unsupported frequency")
	}
}
