// Package export defines where finished period reports go: the board
// spreadsheet in production, an in-memory sink in tests and local runs.
package export

import (
	"context"

	"tesoreria/internal/services"
)

// ReportWriter appends one period report to its destination and returns
// an opaque reference to the written row set.
type ReportWriter interface {
	AppendReport(ctx context.Context, report services.Report) (string, error)
}
