package services

import (
	"context"
	"time"

	"tesoreria/internal/amqp"
	"tesoreria/internal/core"
)

// fakeLedger is an in-memory Ledger for service tests. Filters are
// applied the way the repository applies them: date ranges against the
// row's date column, status against the stored column.
type fakeLedger struct {
	categories    []core.Category
	budgets       []core.Budget
	expenses      []core.Expense
	revenues      []core.Revenue
	forecasts     []core.Forecast
	types         []core.SubscriptionType
	subscriptions []core.Subscription

	// typeRefs counts subscriptions per type id, driving the
	// DeleteSubscriptionType conflict check and SubscriberCount.
	typeRefs map[int64]int

	nextID int64

	err error // when set, every call fails with it
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{typeRefs: make(map[int64]int)}
}

func (l *fakeLedger) id() int64 {
	l.nextID++
	return l.nextID
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func (l *fakeLedger) ListCategories(_ context.Context, f core.Filter) ([]core.Category, error) {
	if l.err != nil {
		return nil, l.err
	}
	var out []core.Category
	for _, c := range l.categories {
		if f.Active != nil && c.Active != *f.Active {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (l *fakeLedger) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if l.err != nil {
		return core.Category{}, l.err
	}
	c.ID = l.id()
	l.categories = append(l.categories, c)
	return c, nil
}

func (l *fakeLedger) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if l.err != nil {
		return core.Budget{}, l.err
	}
	b.ID = l.id()
	b.CreatedAt = time.Now()
	l.budgets = append(l.budgets, b)
	return b, nil
}

func (l *fakeLedger) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if l.err != nil {
		return core.Expense{}, l.err
	}
	e.ID = l.id()
	e.CreatedAt = time.Now()
	l.expenses = append(l.expenses, e)
	return e, nil
}

func (l *fakeLedger) CreateRevenue(_ context.Context, r core.Revenue) (core.Revenue, error) {
	if l.err != nil {
		return core.Revenue{}, l.err
	}
	r.ID = l.id()
	r.CreatedAt = time.Now()
	l.revenues = append(l.revenues, r)
	return r, nil
}

func (l *fakeLedger) ListBudgets(_ context.Context, f core.Filter) ([]core.Budget, error) {
	if l.err != nil {
		return nil, l.err
	}
	var out []core.Budget
	for _, b := range l.budgets {
		if f.Period != nil && *f.Period != b.Period && !containsPeriod(*f.Period, b.Period) {
			continue
		}
		if f.Year != 0 && b.Period.Year != f.Year {
			continue
		}
		if f.CategoryID != 0 && b.CategoryID != f.CategoryID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// containsPeriod reports whether outer fully covers inner, so a yearly
// filter matches the year's monthly budgets.
func containsPeriod(outer, inner core.Period) bool {
	os, oe := outer.DateRange()
	is, ie := inner.DateRange()
	return !is.Before(os) && !ie.After(oe)
}

func (l *fakeLedger) ListExpenses(_ context.Context, f core.Filter) ([]core.Expense, error) {
	if l.err != nil {
		return nil, l.err
	}
	var out []core.Expense
	for _, e := range l.expenses {
		if start, end, ok := f.DateRange(); ok && !inRange(e.Date, start, end) {
			continue
		}
		if f.CategoryID != 0 && e.CategoryID != f.CategoryID {
			continue
		}
		if len(f.BudgetIDs) > 0 {
			if e.BudgetID == nil {
				continue
			}
			found := false
			for _, id := range f.BudgetIDs {
				if *e.BudgetID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (l *fakeLedger) ListRevenues(_ context.Context, f core.Filter) ([]core.Revenue, error) {
	if l.err != nil {
		return nil, l.err
	}
	var out []core.Revenue
	for _, r := range l.revenues {
		if start, end, ok := f.DateRange(); ok && !inRange(r.ReceivedAt, start, end) {
			continue
		}
		if f.CategoryID != 0 && (r.CategoryID == nil || *r.CategoryID != f.CategoryID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (l *fakeLedger) ListForecasts(_ context.Context, f core.Filter) ([]core.Forecast, error) {
	if l.err != nil {
		return nil, l.err
	}
	var out []core.Forecast
	for _, fc := range l.forecasts {
		if f.Period != nil && *f.Period != fc.Period {
			continue
		}
		if f.CategoryID != 0 && fc.CategoryID != f.CategoryID {
			continue
		}
		out = append(out, fc)
	}
	return out, nil
}

func (l *fakeLedger) UpsertForecast(_ context.Context, fc core.Forecast) (core.Forecast, error) {
	if l.err != nil {
		return core.Forecast{}, l.err
	}
	for i, existing := range l.forecasts {
		if existing.CategoryID == fc.CategoryID && existing.Period == fc.Period {
			fc.ID = existing.ID
			l.forecasts[i] = fc
			return fc, nil
		}
	}
	fc.ID = l.id()
	l.forecasts = append(l.forecasts, fc)
	return fc, nil
}

func (l *fakeLedger) ListSubscriptionTypes(_ context.Context, f core.Filter) ([]core.SubscriptionType, error) {
	if l.err != nil {
		return nil, l.err
	}
	var out []core.SubscriptionType
	for _, t := range l.types {
		if f.Active != nil && t.Active != *f.Active {
			continue
		}
		t.SubscriberCount = int64(l.typeRefs[t.ID])
		out = append(out, t)
	}
	return out, nil
}

func (l *fakeLedger) GetSubscriptionType(_ context.Context, id int64) (core.SubscriptionType, error) {
	if l.err != nil {
		return core.SubscriptionType{}, l.err
	}
	for _, t := range l.types {
		if t.ID == id {
			t.SubscriberCount = int64(l.typeRefs[t.ID])
			return t, nil
		}
	}
	return core.SubscriptionType{}, core.ErrNotFound
}

func (l *fakeLedger) CreateSubscriptionType(_ context.Context, t core.SubscriptionType) (core.SubscriptionType, error) {
	if l.err != nil {
		return core.SubscriptionType{}, l.err
	}
	t.ID = l.id()
	t.CreatedAt = time.Now()
	l.types = append(l.types, t)
	return t, nil
}

func (l *fakeLedger) SetSubscriptionTypeActive(_ context.Context, id int64, active bool) error {
	if l.err != nil {
		return l.err
	}
	for i := range l.types {
		if l.types[i].ID == id {
			l.types[i].Active = active
			return nil
		}
	}
	return core.ErrNotFound
}

func (l *fakeLedger) DeleteSubscriptionType(_ context.Context, id int64) error {
	if l.err != nil {
		return l.err
	}
	if l.typeRefs[id] > 0 {
		return core.ErrConflict
	}
	for i := range l.types {
		if l.types[i].ID == id {
			l.types = append(l.types[:i], l.types[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (l *fakeLedger) ListSubscriptions(_ context.Context, f core.Filter) ([]core.Subscription, error) {
	if l.err != nil {
		return nil, l.err
	}
	var out []core.Subscription
	for _, s := range l.subscriptions {
		if start, end, ok := f.DateRange(); ok && !inRange(s.PaymentDate, start, end) {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (l *fakeLedger) GetSubscription(_ context.Context, id int64) (core.Subscription, error) {
	if l.err != nil {
		return core.Subscription{}, l.err
	}
	for _, s := range l.subscriptions {
		if s.ID == id {
			return s, nil
		}
	}
	return core.Subscription{}, core.ErrNotFound
}

func (l *fakeLedger) UpsertSubscription(_ context.Context, s core.Subscription) (core.Subscription, error) {
	if l.err != nil {
		return core.Subscription{}, l.err
	}
	if s.ID == 0 {
		s.ID = l.id()
		s.CreatedAt = time.Now()
		if s.TypeID != nil {
			l.typeRefs[*s.TypeID]++
		}
		l.subscriptions = append(l.subscriptions, s)
		return s, nil
	}
	for i := range l.subscriptions {
		if l.subscriptions[i].ID == s.ID {
			s.UpdatedAt = time.Now()
			l.subscriptions[i] = s
			return s, nil
		}
	}
	return core.Subscription{}, core.ErrNotFound
}

func (l *fakeLedger) RenewSubscription(_ context.Context, id int64, expectedEnd, newEnd, renewedAt time.Time) (core.Subscription, error) {
	if l.err != nil {
		return core.Subscription{}, l.err
	}
	for i := range l.subscriptions {
		if l.subscriptions[i].ID != id {
			continue
		}
		if !l.subscriptions[i].EndDate.Equal(expectedEnd) {
			return core.Subscription{}, core.ErrConflict
		}
		l.subscriptions[i].EndDate = newEnd
		l.subscriptions[i].Status = core.StatusActive
		l.subscriptions[i].Renewals++
		t := renewedAt
		l.subscriptions[i].LastRenewedAt = &t
		l.subscriptions[i].UpdatedAt = renewedAt
		return l.subscriptions[i], nil
	}
	return core.Subscription{}, core.ErrNotFound
}

func (l *fakeLedger) MarkSubscriptionExpired(_ context.Context, id int64, expectedEnd time.Time) error {
	if l.err != nil {
		return l.err
	}
	for i := range l.subscriptions {
		if l.subscriptions[i].ID != id {
			continue
		}
		if !l.subscriptions[i].EndDate.Equal(expectedEnd) || l.subscriptions[i].Status != core.StatusActive {
			return core.ErrConflict
		}
		l.subscriptions[i].Status = core.StatusExpired
		l.subscriptions[i].UpdatedAt = time.Now()
		return nil
	}
	return core.ErrNotFound
}

func (l *fakeLedger) DeleteSubscription(_ context.Context, id int64) error {
	if l.err != nil {
		return l.err
	}
	for i := range l.subscriptions {
		if l.subscriptions[i].ID == id {
			if tid := l.subscriptions[i].TypeID; tid != nil {
				l.typeRefs[*tid]--
			}
			l.subscriptions = append(l.subscriptions[:i], l.subscriptions[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

// fakeEvents captures published lifecycle events.
type fakeEvents struct {
	published []*amqp.SubscriptionEventMessage
	err       error
}

func (e *fakeEvents) PublishSubscriptionEvent(_ context.Context, msg *amqp.SubscriptionEventMessage) error {
	if e.err != nil {
		return e.err
	}
	e.published = append(e.published, msg)
	return nil
}
