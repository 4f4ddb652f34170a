// Package worker consumes report-export requests and writes the built
// reports to the configured destination.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tesoreria/internal/amqp"
	"tesoreria/internal/core"
	"tesoreria/internal/export"
	"tesoreria/internal/services"
)

// ExportWorker handles report export requests from AMQP: build the
// requested period report, append it to the board spreadsheet.
type ExportWorker struct {
	reports *services.ReportService
	writer  export.ReportWriter
	now     func() time.Time
}

func NewExportWorker(reports *services.ReportService, writer export.ReportWriter) *ExportWorker {
	return &ExportWorker{
		reports: reports,
		writer:  writer,
		now:     time.Now,
	}
}

// HandleExportMessage processes a single report export request.
// Validation failures are permanent; the caller should drop the message
// rather than requeue it.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ReportExportMessage) error {
	slog.InfoContext(ctx, "Processing report export request",
		"kind", msg.Kind,
		"number", msg.Number,
		"year", msg.Year,
		"requested_by", msg.RequestedBy)

	report, err := w.reports.Build(ctx, core.Cycle(msg.Kind), msg.Number, msg.Year, w.now())
	if err != nil {
		return fmt.Errorf("build report %s %d/%d: %w", msg.Kind, msg.Number, msg.Year, err)
	}

	ref, err := w.writer.AppendReport(ctx, report)
	if err != nil {
		return fmt.Errorf("append report: %w", err)
	}

	slog.InfoContext(ctx, "Report export completed",
		"period", report.Period.String(),
		"ref", ref)
	return nil
}
