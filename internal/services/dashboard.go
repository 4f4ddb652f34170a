package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"tesoreria/internal/core"
)

// Trend is the year-over-year direction of the treasury balance.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// DashboardService assembles the single-screen overview the board sees
// on login.
type DashboardService struct {
	stats *StatsService
}

func NewDashboardService(stats *StatsService) *DashboardService {
	return &DashboardService{stats: stats}
}

// Overview is the composed year snapshot. Balance nets everything that
// came in against everything that went out:
// subscriptions + revenues - expenses.
type Overview struct {
	Year          int               `json:"year"`
	KPIs          KPIs              `json:"kpis"`
	Expenses      ExpenseStats      `json:"expenses"`
	Revenues      RevenueStats      `json:"revenues"`
	Subscriptions SubscriptionStats `json:"subscriptions"`
	Balance       core.Money        `json:"balance"`
	Trend         Trend             `json:"trend"`
}

// Overview builds the dashboard for one calendar year. The aggregates
// for the year and the prior year are fetched concurrently; the prior
// year's figures only feed the trend arrow, computed by comparing the
// two balances under the same rule.
func (s *DashboardService) Overview(ctx context.Context, year int, now time.Time) (Overview, error) {
	period := core.Year(year)
	if err := period.Validate(); err != nil {
		return Overview{}, err
	}

	ov := Overview{Year: year}
	f := core.Filter{Period: &period}

	var priorExpenses ExpenseStats
	var priorRevenues RevenueStats
	var priorSubscriptions SubscriptionStats

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		kpis, err := s.stats.ExtendedKPIs(ctx, f)
		ov.KPIs = kpis
		return err
	})
	g.Go(func() error {
		stats, err := s.stats.ExpenseStats(ctx, f)
		ov.Expenses = stats
		return err
	})
	g.Go(func() error {
		stats, err := s.stats.RevenueStats(ctx, year)
		ov.Revenues = stats
		return err
	})
	g.Go(func() error {
		stats, err := s.stats.SubscriptionStats(ctx, year, now)
		ov.Subscriptions = stats
		return err
	})
	g.Go(func() error {
		prior := period.Previous()
		stats, err := s.stats.ExpenseStats(ctx, core.Filter{Period: &prior})
		priorExpenses = stats
		return err
	})
	g.Go(func() error {
		stats, err := s.stats.RevenueStats(ctx, year-1)
		priorRevenues = stats
		return err
	})
	g.Go(func() error {
		stats, err := s.stats.SubscriptionStats(ctx, year-1, now)
		priorSubscriptions = stats
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	ov.Balance = balance(ov.Subscriptions, ov.Revenues, ov.Expenses)
	ov.Trend = balanceTrend(ov.Balance, balance(priorSubscriptions, priorRevenues, priorExpenses))
	return ov, nil
}

func balance(subs SubscriptionStats, revs RevenueStats, exps ExpenseStats) core.Money {
	return subs.TotalAmount.Add(revs.TotalAmount).Sub(exps.Total)
}

// balanceTrend compares this year's balance to last year's: higher is
// up, lower is down, equal is stable.
func balanceTrend(current, prior core.Money) Trend {
	switch {
	case current.Cents > prior.Cents:
		return TrendUp
	case current.Cents < prior.Cents:
		return TrendDown
	default:
		return TrendStable
	}
}
