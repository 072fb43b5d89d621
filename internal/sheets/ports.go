// Package sheets lays monthly snapshots out as spreadsheet rows, one tab
// per year with one fixed row per month.
package sheets

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"kannadi/internal/core"
)

// SnapshotExporter writes a month's aggregates to a spreadsheet.
// Exporting the same month twice overwrites its row.
type SnapshotExporter interface {
	ExportSnapshot(ctx context.Context, md core.MonthlyData) error
}

// Columns is the header row of every year tab.
var Columns = []string{"Month", "Income", "Needs", "Wants", "Expenses", "Savings", "Allocated", "Savings rate"}

// LastColumn is the letter of the final column in Columns.
const LastColumn = "H"

// SheetName returns "<year> <base>" unless base already starts with a year.
func SheetName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return strconv.Itoa(year)
	}
	if len(base) >= 5 && base[4] == ' ' {
		if y, err := strconv.Atoi(base[:4]); err == nil && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// RowFor is the 1-based row holding m. Row 1 is the header.
func RowFor(m core.Month) int {
	return int(m.MonthOfYear()) + 1
}

// RowRange is the A1 range covering m's row in sheet.
func RowRange(sheet string, m core.Month) string {
	r := RowFor(m)
	return fmt.Sprintf("%s!A%d:%s%d", sheet, r, LastColumn, r)
}

// HeaderRange is the A1 range of the header row.
func HeaderRange(sheet string) string {
	return fmt.Sprintf("%s!A1:%s1", sheet, LastColumn)
}

// Row renders md in column order. Amounts are rounded to cents; the
// savings rate is a percentage of income with one decimal.
func Row(md core.MonthlyData) []any {
	rate := 0.0
	if md.Income > 0 {
		rate = round(md.Savings/md.Income*100, 1)
	}
	return []any{
		md.Month.String(),
		round(md.Income, 2),
		round(md.Needs, 2),
		round(md.Wants, 2),
		round(md.Expenses, 2),
		round(md.Savings, 2),
		round(md.Allocated, 2),
		rate,
	}
}

func HeaderRow() []any {
	out := make([]any, len(Columns))
	for i, c := range Columns {
		out[i] = c
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
