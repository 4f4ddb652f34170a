package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tesoreria/internal/core"
)

// expiringWindow is how far ahead of now a subscription's end date may
// sit before the member counts as "expiring soon".
const expiringWindow = 30 * 24 * time.Hour

// StatsService computes totals, averages, utilization rates and
// groupings over ledger rows. Every method is a pure function of the
// repository snapshot plus its filter parameters.
type StatsService struct {
	ledger Ledger
}

func NewStatsService(ledger Ledger) *StatsService {
	return &StatsService{ledger: ledger}
}

// BudgetStats summarizes planned versus actual spend for the budgets
// matching the filter. TotalSpent sums only expenses linked to one of
// the matching budgets.
type BudgetStats struct {
	TotalAllocated core.Money `json:"total_allocated"`
	TotalSpent     core.Money `json:"total_spent"`
	Balance        core.Money `json:"balance"`
	Count          int        `json:"count"`
}

func (s *StatsService) BudgetStats(ctx context.Context, f core.Filter) (BudgetStats, error) {
	budgets, err := s.ledger.ListBudgets(ctx, f)
	if err != nil {
		return BudgetStats{}, fmt.Errorf("list budgets: %w", err)
	}

	stats := BudgetStats{Count: len(budgets)}
	ids := make([]int64, 0, len(budgets))
	for _, b := range budgets {
		stats.TotalAllocated = stats.TotalAllocated.Add(b.Amount)
		ids = append(ids, b.ID)
	}

	if len(ids) > 0 {
		expenses, err := s.ledger.ListExpenses(ctx, core.Filter{BudgetIDs: ids})
		if err != nil {
			return BudgetStats{}, fmt.Errorf("list budget expenses: %w", err)
		}
		for _, e := range expenses {
			stats.TotalSpent = stats.TotalSpent.Add(e.Amount)
		}
	}

	stats.Balance = stats.TotalAllocated.Sub(stats.TotalSpent)
	return stats, nil
}

// ExpenseStats summarizes the expenses matching the filter. Average is
// integer cents and 0 when there are no rows.
type ExpenseStats struct {
	Total           core.Money `json:"total"`
	Average         core.Money `json:"average"`
	Count           int        `json:"count"`
	CategoriesCount int        `json:"categories_count"`
}

func (s *StatsService) ExpenseStats(ctx context.Context, f core.Filter) (ExpenseStats, error) {
	expenses, err := s.ledger.ListExpenses(ctx, f)
	if err != nil {
		return ExpenseStats{}, fmt.Errorf("list expenses: %w", err)
	}

	stats := ExpenseStats{Count: len(expenses)}
	categories := make(map[int64]struct{})
	for _, e := range expenses {
		stats.Total = stats.Total.Add(e.Amount)
		categories[e.CategoryID] = struct{}{}
	}
	stats.CategoriesCount = len(categories)
	if stats.Count > 0 {
		stats.Average = core.Money{Cents: stats.Total.Cents / int64(stats.Count)}
	}
	return stats, nil
}

// KPIs blends budget and expense totals into the utilization view.
// UtilizationRate is 0 when no budget is allocated.
type KPIs struct {
	TotalBudget     core.Money `json:"total_budget"`
	TotalExpenses   core.Money `json:"total_expenses"`
	Balance         core.Money `json:"balance"`
	UtilizationRate float64    `json:"utilization_rate"`
}

func (s *StatsService) ExtendedKPIs(ctx context.Context, f core.Filter) (KPIs, error) {
	budgets, err := s.ledger.ListBudgets(ctx, f)
	if err != nil {
		return KPIs{}, fmt.Errorf("list budgets: %w", err)
	}
	expenses, err := s.ledger.ListExpenses(ctx, f)
	if err != nil {
		return KPIs{}, fmt.Errorf("list expenses: %w", err)
	}

	var kpis KPIs
	for _, b := range budgets {
		kpis.TotalBudget = kpis.TotalBudget.Add(b.Amount)
	}
	for _, e := range expenses {
		kpis.TotalExpenses = kpis.TotalExpenses.Add(e.Amount)
	}
	kpis.Balance = kpis.TotalBudget.Sub(kpis.TotalExpenses)
	kpis.UtilizationRate = kpis.TotalExpenses.PercentOf(kpis.TotalBudget)
	return kpis, nil
}

// RevenueTypeCount is one revenue-type bucket.
type RevenueTypeCount struct {
	Type  core.RevenueType `json:"type"`
	Count int              `json:"count"`
	Total core.Money       `json:"total"`
}

// DonorTotal is one donor's summed contributions.
type DonorTotal struct {
	Source string     `json:"source"`
	Total  core.Money `json:"total"`
}

// RevenueStats groups revenues by type and ranks donors by summed
// amount. TopDonors is the full ranking; callers truncate as needed.
type RevenueStats struct {
	TotalAmount core.Money         `json:"total_amount"`
	ByType      []RevenueTypeCount `json:"by_type"`
	TopDonors   []DonorTotal       `json:"top_donors"`
}

func (s *StatsService) RevenueStats(ctx context.Context, year int) (RevenueStats, error) {
	revenues, err := s.ledger.ListRevenues(ctx, core.Filter{Year: year})
	if err != nil {
		return RevenueStats{}, fmt.Errorf("list revenues: %w", err)
	}

	stats := RevenueStats{}
	byType := make(map[core.RevenueType]*RevenueTypeCount)
	donorIndex := make(map[string]int)

	for _, r := range revenues {
		stats.TotalAmount = stats.TotalAmount.Add(r.Amount)

		bucket, ok := byType[r.Type]
		if !ok {
			bucket = &RevenueTypeCount{Type: r.Type}
			byType[r.Type] = bucket
		}
		bucket.Count++
		bucket.Total = bucket.Total.Add(r.Amount)

		// Donor order follows first occurrence so equal totals rank in
		// insertion order after the stable sort below.
		i, ok := donorIndex[r.Source]
		if !ok {
			i = len(stats.TopDonors)
			donorIndex[r.Source] = i
			stats.TopDonors = append(stats.TopDonors, DonorTotal{Source: r.Source})
		}
		stats.TopDonors[i].Total = stats.TopDonors[i].Total.Add(r.Amount)
	}

	for _, t := range []core.RevenueType{core.RevenueDonation, core.RevenueGrant, core.RevenueSponsorship, core.RevenueOther} {
		if bucket, ok := byType[t]; ok {
			stats.ByType = append(stats.ByType, *bucket)
		}
	}

	sort.SliceStable(stats.TopDonors, func(i, j int) bool {
		return stats.TopDonors[i].Total.Cents > stats.TopDonors[j].Total.Cents
	})

	return stats, nil
}

// SubscriptionStats summarizes the membership base. Statuses are
// derived with core.Classify, never read from the stored column, so a
// stale cache cannot skew the counts.
type SubscriptionStats struct {
	TotalAmount   core.Money `json:"total_amount"`
	ActiveMembers int        `json:"active_members"`
	ExpiringSoon  int        `json:"expiring_soon"`
	RenewalRate   float64    `json:"renewal_rate"`
}

func (s *StatsService) SubscriptionStats(ctx context.Context, year int, now time.Time) (SubscriptionStats, error) {
	subs, err := s.ledger.ListSubscriptions(ctx, core.Filter{Year: year})
	if err != nil {
		return SubscriptionStats{}, fmt.Errorf("list subscriptions: %w", err)
	}

	var stats SubscriptionStats
	var renewed, lapsed int
	for _, sub := range subs {
		stats.TotalAmount = stats.TotalAmount.Add(sub.Plan.Amount)

		switch core.Classify(sub, now) {
		case core.StatusActive:
			stats.ActiveMembers++
			if sub.EndDate.Sub(now) <= expiringWindow {
				stats.ExpiringSoon++
			}
		case core.StatusExpired:
			if sub.Renewals == 0 {
				lapsed++
			}
		}
		if sub.Renewals > 0 {
			renewed++
		}
	}

	if renewed+lapsed > 0 {
		stats.RenewalRate = float64(renewed) / float64(renewed+lapsed) * 100
	}
	return stats, nil
}
