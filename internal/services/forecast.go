package services

import (
	"context"
	"fmt"
	"log/slog"

	"tesoreria/internal/core"
)

// ForecastService derives forward-looking forecasts from the prior
// period's actuals.
type ForecastService struct {
	ledger Ledger
}

func NewForecastService(ledger Ledger) *ForecastService {
	return &ForecastService{ledger: ledger}
}

// Generate builds one forecast per active category for the target
// period, using the adjacent prior period's total verbatim as the
// forecasted amount. Confidence reflects how much of the prior period
// saw activity: every month covered is high, some months medium, none
// low (with a zero estimate). Regenerating for the same target and
// data set upserts the same rows, so the operation is idempotent, and
// forecasts for other periods are left alone.
func (s *ForecastService) Generate(ctx context.Context, target core.Period, actor string) ([]core.Forecast, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	active := true
	categories, err := s.ledger.ListCategories(ctx, core.Filter{Active: &active})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	prior := target.Previous()
	forecasts := make([]core.Forecast, 0, len(categories))
	for _, cat := range categories {
		total, monthsActive, err := s.priorActivity(ctx, cat, prior)
		if err != nil {
			return nil, err
		}

		fc := core.Forecast{
			CategoryID: cat.ID,
			Period:     target,
			Amount:     total,
			Basis:      core.BasisHistorical,
			Notes:      fmt.Sprintf("derived from %s actuals", prior),
			CreatedBy:  actor,
		}
		switch {
		case monthsActive == prior.Kind.Months():
			fc.Confidence = core.ConfidenceHigh
		case monthsActive > 0:
			fc.Confidence = core.ConfidenceMedium
		default:
			fc.Confidence = core.ConfidenceLow
			fc.Basis = core.BasisEstimate
			fc.Amount = core.Money{}
			fc.Notes = fmt.Sprintf("no activity in %s", prior)
		}

		saved, err := s.ledger.UpsertForecast(ctx, fc)
		if err != nil {
			return nil, fmt.Errorf("upsert forecast for category %d: %w", cat.ID, err)
		}
		forecasts = append(forecasts, saved)
	}

	slog.InfoContext(ctx, "Forecasts generated",
		"period", target.String(),
		"categories", len(categories),
		"actor", actor)
	return forecasts, nil
}

// priorActivity totals the category's rows in the prior period and
// counts how many distinct months of it saw any activity. Expense
// categories read the expense ledger, income categories the revenue
// ledger.
func (s *ForecastService) priorActivity(ctx context.Context, cat core.Category, prior core.Period) (core.Money, int, error) {
	var total core.Money
	months := make(map[int]struct{})

	f := core.Filter{Period: &prior, CategoryID: cat.ID}
	if cat.Type == core.CategoryExpense {
		rows, err := s.ledger.ListExpenses(ctx, f)
		if err != nil {
			return core.Money{}, 0, fmt.Errorf("list expenses for category %d: %w", cat.ID, err)
		}
		for _, e := range rows {
			total = total.Add(e.Amount)
			months[int(e.Date.Month())] = struct{}{}
		}
	} else {
		rows, err := s.ledger.ListRevenues(ctx, f)
		if err != nil {
			return core.Money{}, 0, fmt.Errorf("list revenues for category %d: %w", cat.ID, err)
		}
		for _, r := range rows {
			total = total.Add(r.Amount)
			months[int(r.ReceivedAt.Month())] = struct{}{}
		}
	}

	return total, len(months), nil
}
