// Package memory is the in-memory ReportWriter used in tests and when
// no spreadsheet is configured.
package memory

import (
	"context"
	"strconv"
	"sync"

	"tesoreria/internal/export"
	"tesoreria/internal/services"
)

type Writer struct {
	mu      sync.Mutex
	reports []services.Report
}

var _ export.ReportWriter = (*Writer)(nil)

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) AppendReport(_ context.Context, report services.Report) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reports = append(w.reports, report)
	return strconv.Itoa(len(w.reports)), nil
}

// Reports returns a copy of everything appended so far.
func (w *Writer) Reports() []services.Report {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]services.Report, len(w.reports))
	copy(out, w.reports)
	return out
}
