package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"tesoreria/internal/core"
)

// ReportService composes the aggregation engine across period pairs
// (comparisons) and into full period snapshots (reports).
type ReportService struct {
	stats *StatsService
}

func NewReportService(stats *StatsService) *ReportService {
	return &ReportService{stats: stats}
}

// PeriodStats pairs a period with its expense aggregate.
type PeriodStats struct {
	Period   core.Period  `json:"period"`
	Expenses ExpenseStats `json:"expenses"`
}

// Comparison holds both sides plus their delta. DeltaPercent is 0 when
// the first period's total is 0; comparing a period to itself yields
// zero delta on both axes.
type Comparison struct {
	A             PeriodStats `json:"a"`
	B             PeriodStats `json:"b"`
	DeltaAbsolute core.Money  `json:"delta_absolute"`
	DeltaPercent  float64     `json:"delta_percent"`
}

func (s *ReportService) Compare(ctx context.Context, a, b core.Period) (Comparison, error) {
	if err := a.Validate(); err != nil {
		return Comparison{}, err
	}
	if err := b.Validate(); err != nil {
		return Comparison{}, err
	}

	cmp := Comparison{A: PeriodStats{Period: a}, B: PeriodStats{Period: b}}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.stats.ExpenseStats(ctx, core.Filter{Period: &a})
		cmp.A.Expenses = stats
		return err
	})
	g.Go(func() error {
		stats, err := s.stats.ExpenseStats(ctx, core.Filter{Period: &b})
		cmp.B.Expenses = stats
		return err
	})
	if err := g.Wait(); err != nil {
		return Comparison{}, err
	}

	cmp.DeltaAbsolute = cmp.B.Expenses.Total.Sub(cmp.A.Expenses.Total)
	cmp.DeltaPercent = cmp.DeltaAbsolute.PercentOf(cmp.A.Expenses.Total)
	return cmp, nil
}

// Report is the full snapshot for one period: plans, actuals, income,
// membership and the blended KPIs.
type Report struct {
	Period        core.Period       `json:"period"`
	Budgets       BudgetStats       `json:"budgets"`
	Expenses      ExpenseStats      `json:"expenses"`
	Revenues      RevenueStats      `json:"revenues"`
	Subscriptions SubscriptionStats `json:"subscriptions"`
	KPIs          KPIs              `json:"kpis"`
}

// Build assembles a report for the given period. The period number must
// be in range for the kind (1-12 monthly, 1-4 quarterly, ignored for
// yearly); out-of-range values are the caller's error, never clamped.
// The five aggregates are fetched concurrently, each bounded by the
// period-range filter.
func (s *ReportService) Build(ctx context.Context, kind core.Cycle, number, year int, now time.Time) (Report, error) {
	period := core.Period{Kind: kind, Year: year, Number: number}
	if kind == core.Yearly {
		period.Number = 0
	}
	if err := period.Validate(); err != nil {
		return Report{}, err
	}

	report := Report{Period: period}
	f := core.Filter{Period: &period}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.stats.BudgetStats(ctx, f)
		report.Budgets = stats
		return err
	})
	g.Go(func() error {
		stats, err := s.stats.ExpenseStats(ctx, f)
		report.Expenses = stats
		return err
	})
	g.Go(func() error {
		stats, err := s.stats.RevenueStats(ctx, period.Year)
		report.Revenues = stats
		return err
	})
	g.Go(func() error {
		stats, err := s.stats.SubscriptionStats(ctx, period.Year, now)
		report.Subscriptions = stats
		return err
	})
	g.Go(func() error {
		kpis, err := s.stats.ExtendedKPIs(ctx, f)
		report.KPIs = kpis
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	return report, nil
}
