package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Month identifies a calendar month. The zero value means "unset".
type Month struct {
	year  int
	month time.Month
}

// NewMonth builds a month key, normalizing out-of-range months.
func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{year: t.Year(), month: t.Month()}
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{year: t.Year(), month: t.Month()}
}

// ParseMonth parses the YYYY-MM form.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return Month{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	if m < 1 || m > 12 {
		return Month{}, ErrInvalidMonth
	}
	return Month{year: y, month: time.Month(m)}, nil
}

func (m Month) Year() int               { return m.year }
func (m Month) MonthOfYear() time.Month { return m.month }
func (m Month) IsZero() bool            { return m.year == 0 && m.month == 0 }

// String renders the YYYY-MM form used as the grouping key.
func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.year, int(m.month))
}

// Label renders a human label such as "Jan 2024".
func (m Month) Label() string {
	return m.Start().Format("Jan 2006")
}

// Start returns midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.year, m.month, 1, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return time.Date(m.year, m.month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (m Month) AddMonths(n int) Month {
	return NewMonth(m.year, m.month+time.Month(n))
}

func (m Month) Prev() Month { return m.AddMonths(-1) }
func (m Month) Next() Month { return m.AddMonths(1) }

func (m Month) Before(o Month) bool {
	if m.year != o.year {
		return m.year < o.year
	}
	return m.month < o.month
}

func (m Month) After(o Month) bool { return o.Before(m) }

// Within reports whether m lies in [from, to]; zero bounds are open.
func (m Month) Within(from, to Month) bool {
	if !from.IsZero() && m.Before(from) {
		return false
	}
	if !to.IsZero() && m.After(to) {
		return false
	}
	return true
}

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Month) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
