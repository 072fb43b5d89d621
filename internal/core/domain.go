package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Needs   CategoryType = "needs"
	Wants   CategoryType = "wants"
	Savings CategoryType = "savings"
	Income  CategoryType = "income"
)

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

type (
	// CategoryType is the 50/30/20 bucket a category belongs to.
	CategoryType string

	Frequency string

	TransactionKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Category struct {
		ID            string       `json:"id" toml:"id"`
		Name          string       `json:"name" toml:"name"`
		Type          CategoryType `json:"type" toml:"type"`
		Icon          string       `json:"icon,omitempty" toml:"icon"`
		Color         string       `json:"color,omitempty" toml:"color"`
		ParentID      string       `json:"parentId,omitempty" toml:"parent_id"`
		IsSubcategory bool         `json:"isSubcategory,omitempty" toml:"is_subcategory"`
	}

	Expense struct {
		ID            string
		Date          Date
		Description   string
		Amount        Money
		CategoryID    string
		SubcategoryID string
		CategoryType  CategoryType
	}

	IncomeEntry struct {
		ID         string
		Date       Date
		Source     string
		CategoryID string
		Amount     Money
	}

	RecurringTransaction struct {
		ID            string
		Kind          TransactionKind
		Amount        Money
		Description   string
		Source        string
		CategoryID    string
		SubcategoryID string
		Frequency     Frequency
		DayOfMonth    int
		StartDate     Date
		IsActive      bool
		LastRun       time.Time
	}
)

var (
	ErrInvalidDay          = errors.New("invalid day")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptySource         = errors.New("empty income source")
	ErrEmptyCategory       = errors.New("empty category")
	ErrInvalidCategoryType = errors.New("invalid category type")
	ErrInvalidFrequency    = errors.New("invalid frequency")
	ErrInvalidKind         = errors.New("invalid transaction kind")
)

const maxTextLength = 200

// IsValid reports whether t is one of the four known buckets.
func (t CategoryType) IsValid() bool {
	switch t {
	case Needs, Wants, Savings, Income:
		return true
	}
	return false
}

// IsSpending reports whether money in this bucket leaves the income pool.
func (t CategoryType) IsSpending() bool {
	return t == Needs || t == Wants || t == Savings
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the calendar month key the date falls in.
func (d Date) Month() Month {
	return MonthOf(d.Time)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Month returns the month key of the expense date.
func (e Expense) Month() Month {
	return e.Date.Month()
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(e.Description) > maxTextLength {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if !e.CategoryType.IsSpending() {
		return ErrInvalidCategoryType
	}
	return nil
}

// Month returns the month key of the income date.
func (i IncomeEntry) Month() Month {
	return i.Date.Month()
}

func (i IncomeEntry) Validate() error {
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(i.Source) == "" {
		return ErrEmptySource
	}
	if len(i.Source) > maxTextLength {
		return errors.New("source too long (max 200 characters)")
	}
	return i.Amount.Validate()
}

func (rt RecurringTransaction) Validate() error {
	switch rt.Kind {
	case KindIncome:
		if strings.TrimSpace(rt.Source) == "" {
			return ErrEmptySource
		}
	case KindExpense:
		if strings.TrimSpace(rt.CategoryID) == "" {
			return ErrEmptyCategory
		}
		if len(strings.TrimSpace(rt.Description)) == 0 {
			return ErrEmptyDescription
		}
	default:
		return ErrInvalidKind
	}

	if len(rt.Description) > maxTextLength {
		return errors.New("description too long (max 200 characters)")
	}

	switch rt.Frequency {
	case Weekly, Monthly, Yearly:
	default:
		return ErrInvalidFrequency
	}

	if rt.DayOfMonth < 1 || rt.DayOfMonth > 31 {
		return ErrInvalidDay
	}

	if err := rt.Amount.Validate(); err != nil {
		return err
	}

	if !rt.StartDate.IsZero() {
		if err := rt.StartDate.Validate(); err != nil {
			return errors.New("invalid start date: " + err.Error())
		}
	}
	return nil
}
