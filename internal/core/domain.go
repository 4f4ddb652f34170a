package core

import (
	"strings"
	"time"
)

type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

// Category is a single-level hierarchy node for classifying budgets,
// expenses and revenues. A category's type must not change once records
// reference it; aggregation correctness depends on it.
type Category struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Type     CategoryType `json:"type"`
	ParentID *int64       `json:"parent_id,omitempty"`
	Active   bool         `json:"active"`
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("name", "empty category name")
	}
	if c.Type != CategoryIncome && c.Type != CategoryExpense {
		return Invalid("type", "must be income or expense")
	}
	return nil
}

// Budget is the planned spend for a category over one period.
type Budget struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	CategoryID int64     `json:"category_id"`
	Period     Period    `json:"period"`
	Amount     Money     `json:"amount"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return Invalid("name", "empty budget name")
	}
	if b.CategoryID == 0 {
		return Invalid("category_id", "missing category")
	}
	if b.Amount.IsNegative() {
		return Invalid("amount", "budget amount cannot be negative")
	}
	return b.Period.Validate()
}

// Expense is actual spend, optionally linked to the budget it draws on.
type Expense struct {
	ID            int64     `json:"id"`
	CategoryID    int64     `json:"category_id"`
	Description   string    `json:"description"`
	Amount        Money     `json:"amount"`
	Date          time.Time `json:"date"`
	BudgetID      *int64    `json:"budget_id,omitempty"`
	Vendor        string    `json:"vendor,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

func (e Expense) Validate() error {
	if e.CategoryID == 0 {
		return Invalid("category_id", "missing category")
	}
	if strings.TrimSpace(e.Description) == "" {
		return Invalid("description", "empty description")
	}
	if len(e.Description) > 200 {
		return Invalid("description", "too long (max 200 characters)")
	}
	if e.Amount.IsNegative() {
		return Invalid("amount", "expense amount cannot be negative")
	}
	if e.Date.IsZero() {
		return Invalid("date", "missing expense date")
	}
	return nil
}

type RevenueType string

const (
	RevenueDonation    RevenueType = "donation"
	RevenueGrant       RevenueType = "grant"
	RevenueSponsorship RevenueType = "sponsorship"
	RevenueOther       RevenueType = "other"
)

func (t RevenueType) Valid() bool {
	switch t {
	case RevenueDonation, RevenueGrant, RevenueSponsorship, RevenueOther:
		return true
	}
	return false
}

// Revenue is incoming money: donations, grants, sponsorships and the rest.
type Revenue struct {
	ID            int64       `json:"id"`
	Type          RevenueType `json:"type"`
	Source        string      `json:"source"`
	Contact       string      `json:"contact,omitempty"`
	Amount        Money       `json:"amount"`
	ReceivedAt    time.Time   `json:"received_at"`
	CategoryID    *int64      `json:"category_id,omitempty"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	ReceiptRef    string      `json:"receipt_ref,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	CreatedBy     string      `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
}

func (r Revenue) Validate() error {
	if !r.Type.Valid() {
		return Invalid("type", "unknown revenue type")
	}
	if strings.TrimSpace(r.Source) == "" {
		return Invalid("source", "empty source name")
	}
	if r.Amount.IsNegative() {
		return Invalid("amount", "revenue amount cannot be negative")
	}
	if r.ReceivedAt.IsZero() {
		return Invalid("received_at", "missing received date")
	}
	return nil
}

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

type ForecastBasis string

const (
	BasisHistorical ForecastBasis = "historical"
	BasisEstimate   ForecastBasis = "estimate"
)

// Forecast is a predicted amount for a category and period. The amount
// is signed; a negative forecast represents a planned adjustment.
type Forecast struct {
	ID         int64         `json:"id"`
	CategoryID int64         `json:"category_id"`
	Period     Period        `json:"period"`
	Amount     Money         `json:"amount"`
	Confidence Confidence    `json:"confidence"`
	Basis      ForecastBasis `json:"basis"`
	Notes      string        `json:"notes,omitempty"`
	CreatedBy  string        `json:"created_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

func (f Forecast) Validate() error {
	if f.CategoryID == 0 {
		return Invalid("category_id", "missing category")
	}
	switch f.Confidence {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
	default:
		return Invalid("confidence", "must be low, medium or high")
	}
	if f.Basis != BasisHistorical && f.Basis != BasisEstimate {
		return Invalid("basis", "must be historical or estimate")
	}
	return f.Period.Validate()
}

// SubscriptionType is the administrator-defined template a membership
// subscription is assigned from. SubscriberCount is derived at read
// time and never written.
type SubscriptionType struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Amount          Money     `json:"amount"`
	Cycle           Cycle     `json:"cycle"`
	Active          bool      `json:"active"`
	SubscriberCount int64     `json:"subscriber_count"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

func (t SubscriptionType) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return Invalid("name", "empty type name")
	}
	if t.Amount.IsNegative() {
		return Invalid("amount", "type amount cannot be negative")
	}
	if !t.Cycle.Valid() {
		return Invalid("cycle", "must be monthly, quarterly or yearly")
	}
	return nil
}

// Plan is the value-object snapshot of a SubscriptionType taken when a
// subscription is created. Later edits to the type template must not
// retroactively alter past subscriptions, so the subscription carries a
// copy, not a live reference.
type Plan struct {
	Label  string `json:"label"`
	Amount Money  `json:"amount"`
	Cycle  Cycle  `json:"cycle"`
}

func (p Plan) Validate() error {
	if strings.TrimSpace(p.Label) == "" {
		return Invalid("plan.label", "empty plan label")
	}
	if p.Amount.IsNegative() {
		return Invalid("plan.amount", "plan amount cannot be negative")
	}
	if !p.Cycle.Valid() {
		return Invalid("plan.cycle", "must be monthly, quarterly or yearly")
	}
	return nil
}

type SubscriptionStatus string

const (
	StatusActive  SubscriptionStatus = "active"
	StatusExpired SubscriptionStatus = "expired"
	StatusPending SubscriptionStatus = "pending"
)

// Subscription is one member's paid membership period. TypeID records
// which template the plan was snapshotted from, nil for ad-hoc plans;
// the snapshot itself never follows later edits to the template.
type Subscription struct {
	ID            int64              `json:"id"`
	TypeID        *int64             `json:"type_id,omitempty"`
	MemberName    string             `json:"member_name"`
	MemberEmail   string             `json:"member_email,omitempty"`
	Plan          Plan               `json:"plan"`
	PaymentDate   time.Time          `json:"payment_date"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       time.Time          `json:"end_date"`
	Status        SubscriptionStatus `json:"status"`
	Renewals      int                `json:"renewals"`
	LastRenewedAt *time.Time         `json:"last_renewed_at,omitempty"`
	PaymentMethod string             `json:"payment_method,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	CreatedBy     string             `json:"created_by"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func (s Subscription) Validate() error {
	if strings.TrimSpace(s.MemberName) == "" {
		return Invalid("member_name", "empty member name")
	}
	if s.PaymentDate.IsZero() {
		return Invalid("payment_date", "missing payment date")
	}
	return s.Plan.Validate()
}

// Classify derives the subscription status from elapsed time alone: a
// subscription is expired exactly when now >= endDate, regardless of
// what status is stored. The stored column is only a cache of this
// function; the read path and the expiry sweep both call it so the two
// can never disagree.
func Classify(s Subscription, now time.Time) SubscriptionStatus {
	if !now.Before(s.EndDate) {
		return StatusExpired
	}
	return StatusActive
}

// Filter narrows a repository listing. Zero values mean "no constraint".
type Filter struct {
	Period     *Period
	Year       int
	CategoryID int64
	Status     SubscriptionStatus
	BudgetIDs  []int64
	Active     *bool
}

// DateRange resolves the filter's time constraint, preferring the
// explicit period over the bare year. ok is false when the filter has
// no time constraint at all.
func (f Filter) DateRange() (start, end time.Time, ok bool) {
	if f.Period != nil {
		start, end = f.Period.DateRange()
		return start, end, true
	}
	if f.Year != 0 {
		start, end = Year(f.Year).DateRange()
		return start, end, true
	}
	return time.Time{}, time.Time{}, false
}
