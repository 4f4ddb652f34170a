package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tesoreria/internal/amqp"
	"tesoreria/internal/core"
)

// SubscriptionService owns the membership state machine: creation,
// assignment from a type template, renewal, revocation and read-time
// expiry classification. Lifecycle events are published for the mailer
// on a best-effort basis; a failed publish never fails the operation.
type SubscriptionService struct {
	ledger Ledger
	events SubscriptionEvents
	now    func() time.Time
}

func NewSubscriptionService(ledger Ledger, events SubscriptionEvents) *SubscriptionService {
	return &SubscriptionService{
		ledger: ledger,
		events: events,
		now:    time.Now,
	}
}

// NewSubscription carries the caller-supplied fields for a direct
// subscription creation. The plan is spelled out by the caller;
// Assign fills it from a SubscriptionType instead.
type NewSubscription struct {
	MemberName    string    `json:"member_name"`
	MemberEmail   string    `json:"member_email"`
	Plan          core.Plan `json:"plan"`
	PaymentDate   time.Time `json:"payment_date"`
	PaymentMethod string    `json:"payment_method"`
	Notes         string    `json:"notes"`
}

// Create starts a membership period: startDate is the payment date,
// endDate one plan cycle later, and the initial status is whatever
// classification says at creation time.
func (s *SubscriptionService) Create(ctx context.Context, in NewSubscription, actor string) (core.Subscription, error) {
	return s.create(ctx, in, nil, actor)
}

func (s *SubscriptionService) create(ctx context.Context, in NewSubscription, typeID *int64, actor string) (core.Subscription, error) {
	sub := core.Subscription{
		TypeID:        typeID,
		MemberName:    in.MemberName,
		MemberEmail:   in.MemberEmail,
		Plan:          in.Plan,
		PaymentDate:   in.PaymentDate,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		CreatedBy:     actor,
	}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}

	sub.StartDate = in.PaymentDate
	sub.EndDate = in.Plan.Cycle.Advance(in.PaymentDate)
	sub.Status = core.Classify(sub, s.now())

	saved, err := s.ledger.UpsertSubscription(ctx, sub)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription created",
		"id", saved.ID,
		"member", saved.MemberName,
		"plan", saved.Plan.Label,
		"end_date", saved.EndDate.Format("2006-01-02"),
		"status", saved.Status,
		"actor", actor)
	return saved, nil
}

// Assign creates a subscription from a SubscriptionType template,
// snapshotting the type's label, amount and cycle at assignment time.
// An unknown or inactive type is a NotFound error.
func (s *SubscriptionService) Assign(ctx context.Context, typeID int64, in NewSubscription, actor string) (core.Subscription, error) {
	st, err := s.ledger.GetSubscriptionType(ctx, typeID)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("subscription type %d: %w", typeID, err)
	}
	if !st.Active {
		return core.Subscription{}, fmt.Errorf("subscription type %d is inactive: %w", typeID, core.ErrNotFound)
	}

	in.Plan = core.Plan{Label: st.Name, Amount: st.Amount, Cycle: st.Cycle}
	return s.create(ctx, in, &st.ID, actor)
}

// Renew extends the membership by one plan cycle and reverts the status
// to active. A renewal while the subscription is still running extends
// from the current end date; a lapsed renewal restarts from the renewal
// payment date so dead time is not billed. The start date never
// changes. The repository applies the new end date with a
// compare-and-swap on the old one, so a concurrent renewal of the same
// subscription surfaces as core.ErrConflict.
func (s *SubscriptionService) Renew(ctx context.Context, id int64, actor string) (core.Subscription, error) {
	sub, err := s.ledger.GetSubscription(ctx, id)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("subscription %d: %w", id, err)
	}

	now := s.now()
	base := sub.EndDate
	if now.After(sub.EndDate) {
		base = now
	}
	newEnd := sub.Plan.Cycle.Advance(base)

	renewed, err := s.ledger.RenewSubscription(ctx, id, sub.EndDate, newEnd, now)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("renew subscription %d: %w", id, err)
	}

	s.publishEvent(ctx, amqp.EventSubscriptionRenewed, renewed, actor)
	slog.InfoContext(ctx, "Subscription renewed",
		"id", renewed.ID,
		"member", renewed.MemberName,
		"new_end_date", renewed.EndDate.Format("2006-01-02"),
		"renewals", renewed.Renewals,
		"actor", actor)
	return renewed, nil
}

// Revoke removes the subscription. Terminal and irreversible from the
// engine's perspective.
func (s *SubscriptionService) Revoke(ctx context.Context, id int64, actor string) error {
	sub, err := s.ledger.GetSubscription(ctx, id)
	if err != nil {
		return fmt.Errorf("subscription %d: %w", id, err)
	}

	if err := s.ledger.DeleteSubscription(ctx, id); err != nil {
		return fmt.Errorf("revoke subscription %d: %w", id, err)
	}

	s.publishEvent(ctx, amqp.EventSubscriptionRevoked, sub, actor)
	slog.InfoContext(ctx, "Subscription revoked",
		"id", id,
		"member", sub.MemberName,
		"actor", actor)
	return nil
}

// List returns subscriptions with their status derived at read time.
// Nothing is written back; persistence of the expired transition is the
// sweep job's business.
func (s *SubscriptionService) List(ctx context.Context, f core.Filter) ([]core.Subscription, error) {
	subs, err := s.ledger.ListSubscriptions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	now := s.now()
	for i := range subs {
		subs[i].Status = core.Classify(subs[i], now)
	}
	if f.Status != "" {
		filtered := subs[:0]
		for _, sub := range subs {
			if sub.Status == f.Status {
				filtered = append(filtered, sub)
			}
		}
		subs = filtered
	}
	return subs, nil
}

// CreateType registers a new subscription-type template.
func (s *SubscriptionService) CreateType(ctx context.Context, t core.SubscriptionType, actor string) (core.SubscriptionType, error) {
	if err := t.Validate(); err != nil {
		return core.SubscriptionType{}, err
	}
	t.Active = true
	t.CreatedBy = actor

	saved, err := s.ledger.CreateSubscriptionType(ctx, t)
	if err != nil {
		return core.SubscriptionType{}, fmt.Errorf("create subscription type: %w", err)
	}

	slog.InfoContext(ctx, "Subscription type created",
		"id", saved.ID,
		"name", saved.Name,
		"cycle", saved.Cycle,
		"actor", actor)
	return saved, nil
}

// ListTypes returns the type templates with their derived subscriber
// counts.
func (s *SubscriptionService) ListTypes(ctx context.Context, f core.Filter) ([]core.SubscriptionType, error) {
	types, err := s.ledger.ListSubscriptionTypes(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list subscription types: %w", err)
	}
	return types, nil
}

// DeactivateType retires a template from the assignment flow without
// touching subscriptions already created from it.
func (s *SubscriptionService) DeactivateType(ctx context.Context, id int64, actor string) error {
	if err := s.ledger.SetSubscriptionTypeActive(ctx, id, false); err != nil {
		return fmt.Errorf("deactivate subscription type %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Subscription type deactivated", "id", id, "actor", actor)
	return nil
}

// DeleteType removes a template. The repository refuses with
// core.ErrConflict while subscriptions still reference the type.
func (s *SubscriptionService) DeleteType(ctx context.Context, id int64, actor string) error {
	if err := s.ledger.DeleteSubscriptionType(ctx, id); err != nil {
		return fmt.Errorf("delete subscription type %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Subscription type deleted", "id", id, "actor", actor)
	return nil
}

func (s *SubscriptionService) publishEvent(ctx context.Context, event string, sub core.Subscription, actor string) {
	if s.events == nil {
		return
	}

	msg := amqp.NewSubscriptionEventMessage(event, sub.ID)
	msg.MemberName = sub.MemberName
	msg.MemberEmail = sub.MemberEmail
	msg.PlanLabel = sub.Plan.Label
	msg.EndDate = sub.EndDate
	msg.Actor = actor

	if err := s.events.PublishSubscriptionEvent(ctx, msg); err != nil {
		// The write already succeeded; notification delivery is
		// best-effort.
		slog.ErrorContext(ctx, "Failed to publish subscription event",
			"event", event,
			"subscription_id", sub.ID,
			"error", err)
	}
}
