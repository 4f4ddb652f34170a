package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tesoreria/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedCategory(t *testing.T, repo *SQLiteRepository, name string, typ core.CategoryType) core.Category {
	t.Helper()
	cat, err := repo.CreateCategory(context.Background(), core.Category{Name: name, Type: typ, Active: true})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return cat
}

func TestCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedCategory(t, repo, "events", core.CategoryExpense)
	inactive, err := repo.CreateCategory(ctx, core.Category{Name: "archived", Type: core.CategoryExpense})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	all, err := repo.ListCategories(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("categories = %d, want 2", len(all))
	}

	active := true
	onlyActive, err := repo.ListCategories(ctx, core.Filter{Active: &active})
	if err != nil {
		t.Fatalf("ListCategories active: %v", err)
	}
	if len(onlyActive) != 1 || onlyActive[0].Name != "events" {
		t.Errorf("active categories = %+v, want only events", onlyActive)
	}
	_ = inactive
}

func TestExpensesFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	cat := seedCategory(t, repo, "events", core.CategoryExpense)

	budget, err := repo.CreateBudget(ctx, core.Budget{
		Name: "events Q1", CategoryID: cat.ID,
		Period: core.Quarter(2026, 1), Amount: core.Money{Cents: 100000},
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	for _, e := range []core.Expense{
		{CategoryID: cat.ID, Description: "venue", Amount: core.Money{Cents: 30000}, Date: date(2026, 2, 10), BudgetID: &budget.ID},
		{CategoryID: cat.ID, Description: "catering", Amount: core.Money{Cents: 20000}, Date: date(2026, 3, 5)},
		{CategoryID: cat.ID, Description: "out of range", Amount: core.Money{Cents: 5000}, Date: date(2026, 4, 1)},
	} {
		if _, err := repo.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}

	q1 := core.Quarter(2026, 1)
	expenses, err := repo.ListExpenses(ctx, core.Filter{Period: &q1})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 2 {
		t.Errorf("Q1 expenses = %d, want 2", len(expenses))
	}

	linked, err := repo.ListExpenses(ctx, core.Filter{BudgetIDs: []int64{budget.ID}})
	if err != nil {
		t.Fatalf("ListExpenses by budget: %v", err)
	}
	if len(linked) != 1 || linked[0].Description != "venue" {
		t.Errorf("budget-linked expenses = %+v, want only venue", linked)
	}
}

func TestBudgetYearlyFilterCoversNarrowerPeriods(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	cat := seedCategory(t, repo, "events", core.CategoryExpense)

	for _, p := range []core.Period{core.Month(2026, 1), core.Quarter(2026, 2), core.Year(2025)} {
		if _, err := repo.CreateBudget(ctx, core.Budget{
			Name: "b " + p.String(), CategoryID: cat.ID, Period: p, Amount: core.Money{Cents: 1000},
		}); err != nil {
			t.Fatalf("CreateBudget: %v", err)
		}
	}

	year := core.Year(2026)
	budgets, err := repo.ListBudgets(ctx, core.Filter{Period: &year})
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if len(budgets) != 2 {
		t.Errorf("2026 budgets = %d, want 2", len(budgets))
	}
}

func TestRevenues(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateRevenue(ctx, core.Revenue{
		Type: core.RevenueGrant, Source: "City Council",
		Amount: core.Money{Cents: 500000}, ReceivedAt: date(2026, 2, 1),
	}); err != nil {
		t.Fatalf("CreateRevenue: %v", err)
	}

	revenues, err := repo.ListRevenues(ctx, core.Filter{Year: 2026})
	if err != nil {
		t.Fatalf("ListRevenues: %v", err)
	}
	if len(revenues) != 1 || revenues[0].Source != "City Council" {
		t.Fatalf("revenues = %+v, want one from City Council", revenues)
	}
	if revenues[0].Amount.Cents != 500000 {
		t.Errorf("amount = %d, want 500000", revenues[0].Amount.Cents)
	}
}

func TestUpsertForecastIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	cat := seedCategory(t, repo, "events", core.CategoryExpense)

	fc := core.Forecast{
		CategoryID: cat.ID, Period: core.Quarter(2026, 2),
		Amount: core.Money{Cents: 80000}, Confidence: core.ConfidenceHigh, Basis: core.BasisHistorical,
	}

	first, err := repo.UpsertForecast(ctx, fc)
	if err != nil {
		t.Fatalf("first UpsertForecast: %v", err)
	}

	fc.Amount = core.Money{Cents: 90000}
	second, err := repo.UpsertForecast(ctx, fc)
	if err != nil {
		t.Fatalf("second UpsertForecast: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("upsert created new row: ids %d and %d", first.ID, second.ID)
	}

	q2 := core.Quarter(2026, 2)
	forecasts, err := repo.ListForecasts(ctx, core.Filter{Period: &q2})
	if err != nil {
		t.Fatalf("ListForecasts: %v", err)
	}
	if len(forecasts) != 1 {
		t.Fatalf("forecasts = %d, want 1", len(forecasts))
	}
	if forecasts[0].Amount.Cents != 90000 {
		t.Errorf("amount = %d, want updated 90000", forecasts[0].Amount.Cents)
	}
}

func seedSubscription(t *testing.T, repo *SQLiteRepository, typeID *int64) core.Subscription {
	t.Helper()
	sub, err := repo.UpsertSubscription(context.Background(), core.Subscription{
		TypeID:      typeID,
		MemberName:  "Mario Rossi",
		Plan:        core.Plan{Label: "standard", Amount: core.Money{Cents: 1500}, Cycle: core.Monthly},
		PaymentDate: date(2026, 1, 15),
		StartDate:   date(2026, 1, 15),
		EndDate:     date(2026, 2, 15),
		Status:      core.StatusActive,
	})
	if err != nil {
		t.Fatalf("UpsertSubscription: %v", err)
	}
	return sub
}

func TestSubscriptionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sub := seedSubscription(t, repo, nil)
	got, err := repo.GetSubscription(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}

	if got.MemberName != "Mario Rossi" {
		t.Errorf("MemberName = %q", got.MemberName)
	}
	if got.Plan != sub.Plan {
		t.Errorf("Plan = %+v, want %+v", got.Plan, sub.Plan)
	}
	if !got.EndDate.Equal(sub.EndDate) {
		t.Errorf("EndDate = %v, want %v", got.EndDate, sub.EndDate)
	}
	if got.LastRenewedAt != nil {
		t.Errorf("LastRenewedAt = %v, want nil", got.LastRenewedAt)
	}
}

func TestRenewSubscriptionCAS(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	sub := seedSubscription(t, repo, nil)

	renewedAt := date(2026, 2, 1)
	renewed, err := repo.RenewSubscription(ctx, sub.ID, sub.EndDate, date(2026, 3, 15), renewedAt)
	if err != nil {
		t.Fatalf("RenewSubscription: %v", err)
	}

	if !renewed.EndDate.Equal(date(2026, 3, 15)) {
		t.Errorf("EndDate = %v, want 2026-03-15", renewed.EndDate)
	}
	if renewed.Renewals != 1 {
		t.Errorf("Renewals = %d, want 1", renewed.Renewals)
	}
	if renewed.LastRenewedAt == nil || !renewed.LastRenewedAt.Equal(renewedAt) {
		t.Errorf("LastRenewedAt = %v, want %v", renewed.LastRenewedAt, renewedAt)
	}

	// Retrying with the stale end date loses the race.
	if _, err := repo.RenewSubscription(ctx, sub.ID, sub.EndDate, date(2026, 4, 15), renewedAt); !errors.Is(err, core.ErrConflict) {
		t.Errorf("stale renew err = %v, want ErrConflict", err)
	}

	if _, err := repo.RenewSubscription(ctx, 999, sub.EndDate, date(2026, 4, 15), renewedAt); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing renew err = %v, want ErrNotFound", err)
	}
}

func TestMarkSubscriptionExpiredGuardsEndDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	sub := seedSubscription(t, repo, nil)

	// A renewal lands after another process captured the old end date.
	renewed, err := repo.RenewSubscription(ctx, sub.ID, sub.EndDate, date(2026, 3, 15), date(2026, 2, 1))
	if err != nil {
		t.Fatalf("RenewSubscription: %v", err)
	}

	if err := repo.MarkSubscriptionExpired(ctx, sub.ID, sub.EndDate); !errors.Is(err, core.ErrConflict) {
		t.Errorf("stale mark err = %v, want ErrConflict", err)
	}
	got, err := repo.GetSubscription(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if got.Status != core.StatusActive {
		t.Errorf("status = %q, want renewal kept active", got.Status)
	}
	if !got.EndDate.Equal(renewed.EndDate) {
		t.Errorf("end date = %v, want renewed %v", got.EndDate, renewed.EndDate)
	}

	// With the current end date the transition applies, status only.
	if err := repo.MarkSubscriptionExpired(ctx, sub.ID, renewed.EndDate); err != nil {
		t.Fatalf("MarkSubscriptionExpired: %v", err)
	}
	got, err = repo.GetSubscription(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if got.Status != core.StatusExpired {
		t.Errorf("status = %q, want expired", got.Status)
	}
	if !got.EndDate.Equal(renewed.EndDate) {
		t.Errorf("end date = %v, want untouched %v", got.EndDate, renewed.EndDate)
	}

	// Already expired counts as moved, missing as not found.
	if err := repo.MarkSubscriptionExpired(ctx, sub.ID, renewed.EndDate); !errors.Is(err, core.ErrConflict) {
		t.Errorf("repeat mark err = %v, want ErrConflict", err)
	}
	if err := repo.MarkSubscriptionExpired(ctx, 999, renewed.EndDate); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing mark err = %v, want ErrNotFound", err)
	}
}

func TestSubscriptionTypeDeleteConflict(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	typ, err := repo.CreateSubscriptionType(ctx, core.SubscriptionType{
		Name: "sostenitore", Amount: core.Money{Cents: 5000}, Cycle: core.Yearly, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateSubscriptionType: %v", err)
	}

	sub := seedSubscription(t, repo, &typ.ID)

	got, err := repo.GetSubscriptionType(ctx, typ.ID)
	if err != nil {
		t.Fatalf("GetSubscriptionType: %v", err)
	}
	if got.SubscriberCount != 1 {
		t.Errorf("SubscriberCount = %d, want 1", got.SubscriberCount)
	}

	if err := repo.DeleteSubscriptionType(ctx, typ.ID); !errors.Is(err, core.ErrConflict) {
		t.Errorf("delete referenced type err = %v, want ErrConflict", err)
	}

	if err := repo.DeleteSubscription(ctx, sub.ID); err != nil {
		t.Fatalf("DeleteSubscription: %v", err)
	}
	if err := repo.DeleteSubscriptionType(ctx, typ.ID); err != nil {
		t.Errorf("delete unreferenced type: %v", err)
	}
}

func TestSubscriptionTypeNameUnique(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	typ := core.SubscriptionType{Name: "standard", Amount: core.Money{Cents: 1500}, Cycle: core.Monthly, Active: true}
	if _, err := repo.CreateSubscriptionType(ctx, typ); err != nil {
		t.Fatalf("CreateSubscriptionType: %v", err)
	}
	if _, err := repo.CreateSubscriptionType(ctx, typ); !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate name err = %v, want ErrConflict", err)
	}
}

func TestListSubscriptionsByStoredStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	active := seedSubscription(t, repo, nil)
	expired := seedSubscription(t, repo, nil)
	expired.Status = core.StatusExpired
	if _, err := repo.UpsertSubscription(ctx, expired); err != nil {
		t.Fatalf("UpsertSubscription: %v", err)
	}

	subs, err := repo.ListSubscriptions(ctx, core.Filter{Status: core.StatusActive})
	if err != nil {
		t.Fatalf("ListSubscriptions: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != active.ID {
		t.Errorf("active subscriptions = %+v, want only id %d", subs, active.ID)
	}
}

func TestNotFoundMapping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSubscription(ctx, 42); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetSubscription err = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetSubscriptionType(ctx, 42); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetSubscriptionType err = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteSubscription(ctx, 42); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteSubscription err = %v, want ErrNotFound", err)
	}
	if err := repo.SetSubscriptionTypeActive(ctx, 42, false); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("SetSubscriptionTypeActive err = %v, want ErrNotFound", err)
	}
}
