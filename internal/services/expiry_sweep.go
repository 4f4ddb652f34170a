package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tesoreria/internal/amqp"
	"tesoreria/internal/core"
)

// Sweeper persists the expired transition for subscriptions whose end
// date has passed. Read paths already derive expiry on the fly; the
// sweep only keeps the stored column honest and fires the expiry
// notification once per lapse.
type Sweeper struct {
	ledger   Ledger
	events   SubscriptionEvents
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(ledger Ledger, events SubscriptionEvents, interval time.Duration) *Sweeper {
	return &Sweeper{
		ledger:   ledger,
		events:   events,
		interval: interval,
		now:      time.Now,
	}
}

// Run sweeps once immediately, then on every tick until the context is
// cancelled. A failed sweep is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	slog.InfoContext(ctx, "Expiry sweeper started", "interval", s.interval)

	if _, err := s.RunOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Expiry sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "Expiry sweep failed", "error", err)
			}
		}
	}
}

// RunOnce marks every stored-active subscription whose end date has
// passed as expired and publishes an expiry event for each. Returns how
// many rows were transitioned. The write is guarded by the end date
// from the listing, so a subscription renewed or revoked after the read
// is skipped untouched.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	subs, err := s.ledger.ListSubscriptions(ctx, core.Filter{Status: core.StatusActive})
	if err != nil {
		return 0, fmt.Errorf("list active subscriptions: %w", err)
	}

	now := s.now()
	expired := 0
	for _, sub := range subs {
		if core.Classify(sub, now) != core.StatusExpired {
			continue
		}

		err := s.ledger.MarkSubscriptionExpired(ctx, sub.ID, sub.EndDate)
		if errors.Is(err, core.ErrConflict) || errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return expired, fmt.Errorf("mark subscription %d expired: %w", sub.ID, err)
		}
		expired++

		sub.Status = core.StatusExpired
		s.publishExpiry(ctx, sub)
		slog.InfoContext(ctx, "Subscription expired",
			"id", sub.ID,
			"member", sub.MemberName,
			"end_date", sub.EndDate.Format("2006-01-02"))
	}

	if expired > 0 {
		slog.InfoContext(ctx, "Expiry sweep completed", "expired", expired, "checked", len(subs))
	}
	return expired, nil
}

func (s *Sweeper) publishExpiry(ctx context.Context, sub core.Subscription) {
	if s.events == nil {
		return
	}

	msg := amqp.NewSubscriptionEventMessage(amqp.EventSubscriptionExpired, sub.ID)
	msg.MemberName = sub.MemberName
	msg.MemberEmail = sub.MemberEmail
	msg.PlanLabel = sub.Plan.Label
	msg.EndDate = sub.EndDate

	if err := s.events.PublishSubscriptionEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expiry event",
			"subscription_id", sub.ID,
			"error", err)
	}
}
