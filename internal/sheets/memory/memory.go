// Package memory keeps exported schedules in process, for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
	"github.com/incari/credit-tractor-app-sub000/internal/ports"
	"github.com/incari/credit-tractor-app-sub000/internal/sheets"
)

type Exporter struct {
	mu      sync.Mutex
	base    string
	tabs    map[string][][]any
	exports int
}

var _ ports.ScheduleExporter = (*Exporter)(nil)

func New(base string) *Exporter {
	if base == "" {
		base = "Installments"
	}
	return &Exporter{base: base, tabs: map[string][][]any{}}
}

// ExportSchedule replaces the user's tab with freshly rendered rows.
func (e *Exporter) ExportSchedule(ctx context.Context, userID string, installments []core.Installment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := sheets.Rows(installments)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tabs[sheets.TabName(e.base, userID)] = rows
	e.exports++
	return nil
}

// Rows returns the rows last written for userID, header included.
func (e *Exporter) Rows(userID string) ([][]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, ok := e.tabs[sheets.TabName(e.base, userID)]
	if !ok {
		return nil, false
	}
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = append([]any(nil), r...)
	}
	return out, true
}

// Tabs lists the tab titles written so far.
func (e *Exporter) Tabs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.tabs))
	for t := range e.tabs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Exports counts successful ExportSchedule calls.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
