package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// StateVersion is the current layout of the FinancialData blob.
const StateVersion = 4

// MonthlyData is the per-month aggregate every projection works from.
// Expenses is needs+wants; Savings is income minus Expenses; Allocated is
// money moved into savings-type categories during the month.
type MonthlyData struct {
	Month     Month   `json:"month"`
	Income    float64 `json:"income"`
	Expenses  float64 `json:"expenses"`
	Savings   float64 `json:"savings"`
	Needs     float64 `json:"needs"`
	Wants     float64 `json:"wants"`
	Allocated float64 `json:"allocated"`
}

// FinancialData is the whole-app snapshot used for import and export.
type FinancialData struct {
	Version               int               `json:"version"`
	IsOnboarded           bool              `json:"isOnboarded"`
	Currency              string            `json:"currency"`
	CurrentMonth          string            `json:"currentMonth,omitempty"`
	Incomes               []IncomeRecord    `json:"incomes"`
	Expenses              []ExpenseRecord   `json:"expenses"`
	CustomCategories      []Category        `json:"customCategories"`
	RecurringTransactions []RecurringRecord `json:"recurringTransactions,omitempty"`
}

type ExpenseRecord struct {
	ID            string       `json:"id"`
	Amount        float64      `json:"amount"`
	CategoryID    string       `json:"categoryId"`
	SubcategoryID string       `json:"subcategoryId,omitempty"`
	CategoryType  CategoryType `json:"categoryType"`
	Description   string       `json:"description,omitempty"`
	Date          string       `json:"date"`
	Month         string       `json:"month"`
}

type IncomeRecord struct {
	ID         string  `json:"id"`
	Amount     float64 `json:"amount"`
	Source     string  `json:"source"`
	CategoryID string  `json:"categoryId,omitempty"`
	Date       string  `json:"date"`
	Month      string  `json:"month"`
}

type RecurringRecord struct {
	ID            string          `json:"id"`
	Type          TransactionKind `json:"type"`
	Amount        float64         `json:"amount"`
	Description   string          `json:"description,omitempty"`
	Source        string          `json:"source,omitempty"`
	CategoryID    string          `json:"categoryId,omitempty"`
	SubcategoryID string          `json:"subcategoryId,omitempty"`
	Frequency     Frequency       `json:"frequency"`
	DayOfMonth    int             `json:"dayOfMonth"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     string          `json:"createdAt,omitempty"`
	LastRun       string          `json:"lastRun,omitempty"`
}

func (e Expense) Record() ExpenseRecord {
	return ExpenseRecord{
		ID:            e.ID,
		Amount:        e.Amount.Value(),
		CategoryID:    e.CategoryID,
		SubcategoryID: e.SubcategoryID,
		CategoryType:  e.CategoryType,
		Description:   e.Description,
		Date:          e.Date.String(),
		Month:         e.Month().String(),
	}
}

// Expense converts the record back, preferring Date and falling back to
// the first day of Month for records that only carry a month.
func (r ExpenseRecord) Expense() (Expense, error) {
	d, err := recordDate(r.Date, r.Month)
	if err != nil {
		return Expense{}, fmt.Errorf("expense %s: %w", r.ID, err)
	}
	return Expense{
		ID:            r.ID,
		Date:          d,
		Description:   r.Description,
		Amount:        FromValue(r.Amount),
		CategoryID:    r.CategoryID,
		SubcategoryID: r.SubcategoryID,
		CategoryType:  r.CategoryType,
	}, nil
}

func (i IncomeEntry) Record() IncomeRecord {
	return IncomeRecord{
		ID:         i.ID,
		Amount:     i.Amount.Value(),
		Source:     i.Source,
		CategoryID: i.CategoryID,
		Date:       i.Date.String(),
		Month:      i.Month().String(),
	}
}

func (r IncomeRecord) Income() (IncomeEntry, error) {
	d, err := recordDate(r.Date, r.Month)
	if err != nil {
		return IncomeEntry{}, fmt.Errorf("income %s: %w", r.ID, err)
	}
	return IncomeEntry{
		ID:         r.ID,
		Date:       d,
		Source:     r.Source,
		CategoryID: r.CategoryID,
		Amount:     FromValue(r.Amount),
	}, nil
}

func (rt RecurringTransaction) Record() RecurringRecord {
	rec := RecurringRecord{
		ID:            rt.ID,
		Type:          rt.Kind,
		Amount:        rt.Amount.Value(),
		Description:   rt.Description,
		Source:        rt.Source,
		CategoryID:    rt.CategoryID,
		SubcategoryID: rt.SubcategoryID,
		Frequency:     rt.Frequency,
		DayOfMonth:    rt.DayOfMonth,
		IsActive:      rt.IsActive,
	}
	if !rt.StartDate.IsZero() {
		rec.CreatedAt = rt.StartDate.String()
	}
	if !rt.LastRun.IsZero() {
		rec.LastRun = rt.LastRun.UTC().Format(time.RFC3339)
	}
	return rec
}

func (r RecurringRecord) Recurring() (RecurringTransaction, error) {
	rt := RecurringTransaction{
		ID:            r.ID,
		Kind:          r.Type,
		Amount:        FromValue(r.Amount),
		Description:   r.Description,
		Source:        r.Source,
		CategoryID:    r.CategoryID,
		SubcategoryID: r.SubcategoryID,
		Frequency:     r.Frequency,
		DayOfMonth:    r.DayOfMonth,
		IsActive:      r.IsActive,
	}
	if r.CreatedAt != "" {
		d, err := ParseDate(r.CreatedAt)
		if err != nil {
			return RecurringTransaction{}, fmt.Errorf("recurring %s: %w", r.ID, err)
		}
		rt.StartDate = d
	}
	if r.LastRun != "" {
		t, err := time.Parse(time.RFC3339, r.LastRun)
		if err != nil {
			return RecurringTransaction{}, fmt.Errorf("recurring %s: %w", r.ID, err)
		}
		rt.LastRun = t
	}
	return rt, nil
}

func recordDate(date, month string) (Date, error) {
	if date != "" {
		// Tolerate full timestamps written by older exports.
		if len(date) > 10 {
			date = date[:10]
		}
		return ParseDate(date)
	}
	m, err := ParseMonth(month)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: m.Start()}, nil
}

// DecodeFinancialData parses a JSON blob, upgrading older versions in place.
func DecodeFinancialData(b []byte) (FinancialData, error) {
	var fd FinancialData
	if err := json.Unmarshal(b, &fd); err != nil {
		return FinancialData{}, fmt.Errorf("decode financial data: %w", err)
	}
	if fd.Version < StateVersion {
		fd.Version = StateVersion
	}
	if fd.Currency == "" {
		fd.Currency = "USD"
	}
	return fd, nil
}

func (fd FinancialData) Encode() ([]byte, error) {
	return json.Marshal(fd)
}

// Settings are the per-installation preferences chosen at onboarding.
type Settings struct {
	Currency    string `json:"currency"`
	IsOnboarded bool   `json:"isOnboarded"`
}
