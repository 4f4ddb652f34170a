// Package services implements the treasury engine: aggregation,
// forecasting, period comparison, the subscription lifecycle and the
// dashboard composition. Services are stateless transformers over
// repository-returned snapshots; the repository is the only shared
// resource.
package services

import (
	"context"
	"time"

	"tesoreria/internal/amqp"
	"tesoreria/internal/core"
)

// Ledger is the persistence boundary. Implementations must provide
// per-operation atomicity for writes; RenewSubscription in particular
// is a compare-and-swap on the previous end date so two concurrent
// renewals of the same subscription cannot both apply.
type Ledger interface {
	ListCategories(ctx context.Context, f core.Filter) ([]core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)

	ListBudgets(ctx context.Context, f core.Filter) ([]core.Budget, error)
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	ListExpenses(ctx context.Context, f core.Filter) ([]core.Expense, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	ListRevenues(ctx context.Context, f core.Filter) ([]core.Revenue, error)
	CreateRevenue(ctx context.Context, r core.Revenue) (core.Revenue, error)

	ListForecasts(ctx context.Context, f core.Filter) ([]core.Forecast, error)
	UpsertForecast(ctx context.Context, fc core.Forecast) (core.Forecast, error)

	ListSubscriptionTypes(ctx context.Context, f core.Filter) ([]core.SubscriptionType, error)
	GetSubscriptionType(ctx context.Context, id int64) (core.SubscriptionType, error)
	CreateSubscriptionType(ctx context.Context, t core.SubscriptionType) (core.SubscriptionType, error)
	SetSubscriptionTypeActive(ctx context.Context, id int64, active bool) error
	// DeleteSubscriptionType fails with core.ErrConflict while any
	// subscription still references the type.
	DeleteSubscriptionType(ctx context.Context, id int64) error

	ListSubscriptions(ctx context.Context, f core.Filter) ([]core.Subscription, error)
	GetSubscription(ctx context.Context, id int64) (core.Subscription, error)
	UpsertSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
	// RenewSubscription extends the end date only if the stored end date
	// still equals expectedEnd, returning core.ErrConflict otherwise.
	RenewSubscription(ctx context.Context, id int64, expectedEnd, newEnd, renewedAt time.Time) (core.Subscription, error)
	// MarkSubscriptionExpired flips a stored-active row to expired only
	// while its end date still equals expectedEnd, returning
	// core.ErrConflict once a renewal has moved it. The end date itself
	// is never written.
	MarkSubscriptionExpired(ctx context.Context, id int64, expectedEnd time.Time) error
	DeleteSubscription(ctx context.Context, id int64) error
}

// SubscriptionEvents publishes lifecycle notifications for the
// external mailer. A nil publisher is valid; publishing is best-effort
// and never fails the originating operation.
type SubscriptionEvents interface {
	PublishSubscriptionEvent(ctx context.Context, msg *amqp.SubscriptionEventMessage) error
}
