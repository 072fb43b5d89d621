// Package memory is a SnapshotExporter that keeps rows in process. The
// worker uses it when no spreadsheet is configured, and tests inspect it.
package memory

import (
	"context"
	"sort"
	"sync"

	"kannadi/internal/core"
	"kannadi/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	base string
	tabs map[string]map[int][]any
}

var _ sheets.SnapshotExporter = (*Exporter)(nil)

func New(base string) *Exporter {
	return &Exporter{base: base, tabs: map[string]map[int][]any{}}
}

func (e *Exporter) ExportSnapshot(_ context.Context, md core.MonthlyData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	name := sheets.SheetName(e.base, md.Month.Year())
	tab, ok := e.tabs[name]
	if !ok {
		tab = map[int][]any{1: sheets.HeaderRow()}
		e.tabs[name] = tab
	}
	tab[sheets.RowFor(md.Month)] = sheets.Row(md)
	return nil
}

// Rows returns the tab's rows ordered by row number, header first.
func (e *Exporter) Rows(sheet string) [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	tab := e.tabs[sheet]
	nums := make([]int, 0, len(tab))
	for n := range tab {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	out := make([][]any, 0, len(nums))
	for _, n := range nums {
		out = append(out, append([]any(nil), tab[n]...))
	}
	return out
}

// Sheets lists the tab names written so far.
func (e *Exporter) Sheets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.tabs))
	for name := range e.tabs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
