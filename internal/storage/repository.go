// Package storage is the SQLite persistence layer behind the
// services.Ledger port.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tesoreria/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// where collects SQL conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, f core.Filter) ([]core.Category, error) {
	var w where
	if f.Active != nil {
		w.add("active = ?", boolToInt(*f.Active))
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, type, parent_id, active FROM categories"+w.clause()+" ORDER BY name", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		var parentID sql.NullInt64
		var active int
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &parentID, &active); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if parentID.Valid {
			c.ParentID = &parentID.Int64
		}
		c.Active = active != 0
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (name, type, parent_id, active) VALUES (?, ?, ?, ?)",
		c.Name, c.Type, c.ParentID, boolToInt(c.Active))
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, f core.Filter) ([]core.Budget, error) {
	var w where
	if f.Period != nil {
		// A yearly filter covers the year's narrower budget periods too.
		if f.Period.Kind == core.Yearly {
			w.add("period_year = ?", f.Period.Year)
		} else {
			w.add("period_kind = ? AND period_year = ? AND period_number = ?",
				string(f.Period.Kind), f.Period.Year, f.Period.Number)
		}
	} else if f.Year != 0 {
		w.add("period_year = ?", f.Year)
	}
	if f.CategoryID != 0 {
		w.add("category_id = ?", f.CategoryID)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category_id, period_kind, period_year, period_number,
		        amount_cents, created_by, created_at, updated_at
		 FROM budgets`+w.clause()+" ORDER BY id", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var b core.Budget
		var kind string
		if err := rows.Scan(&b.ID, &b.Name, &b.CategoryID, &kind, &b.Period.Year, &b.Period.Number,
			&b.Amount.Cents, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Period.Kind = core.Cycle(kind)
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (name, category_id, period_kind, period_year, period_number,
		                      amount_cents, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Name, b.CategoryID, string(b.Period.Kind), b.Period.Year, b.Period.Number,
		b.Amount.Cents, b.CreatedBy, now, now)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	return b, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	var w where
	if start, end, ok := f.DateRange(); ok {
		w.add("date >= ? AND date < ?", start, end)
	}
	if f.CategoryID != 0 {
		w.add("category_id = ?", f.CategoryID)
	}
	if len(f.BudgetIDs) > 0 {
		placeholders := strings.Repeat("?,", len(f.BudgetIDs))
		args := make([]any, len(f.BudgetIDs))
		for i, id := range f.BudgetIDs {
			args[i] = id
		}
		w.add("budget_id IN ("+placeholders[:len(placeholders)-1]+")", args...)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, description, amount_cents, date, budget_id,
		        vendor, payment_method, created_by, created_at
		 FROM expenses`+w.clause()+" ORDER BY date, id", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		var budgetID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.CategoryID, &e.Description, &e.Amount.Cents, &e.Date, &budgetID,
			&e.Vendor, &e.PaymentMethod, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if budgetID.Valid {
			e.BudgetID = &budgetID.Int64
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (category_id, description, amount_cents, date, budget_id,
		                       vendor, payment_method, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CategoryID, e.Description, e.Amount.Cents, e.Date.UTC(), e.BudgetID,
		e.Vendor, e.PaymentMethod, e.CreatedBy, now)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}
	e.CreatedAt = now

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"description", e.Description,
		"amount_cents", e.Amount.Cents)
	return e, nil
}

func (r *SQLiteRepository) ListRevenues(ctx context.Context, f core.Filter) ([]core.Revenue, error) {
	var w where
	if start, end, ok := f.DateRange(); ok {
		w.add("received_at >= ? AND received_at < ?", start, end)
	}
	if f.CategoryID != 0 {
		w.add("category_id = ?", f.CategoryID)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, source, contact, amount_cents, received_at, category_id,
		        payment_method, receipt_ref, notes, created_by, created_at
		 FROM revenues`+w.clause()+" ORDER BY received_at, id", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list revenues: %w", err)
	}
	defer rows.Close()

	var revenues []core.Revenue
	for rows.Next() {
		var rev core.Revenue
		var categoryID sql.NullInt64
		if err := rows.Scan(&rev.ID, &rev.Type, &rev.Source, &rev.Contact, &rev.Amount.Cents,
			&rev.ReceivedAt, &categoryID, &rev.PaymentMethod, &rev.ReceiptRef,
			&rev.Notes, &rev.CreatedBy, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revenue: %w", err)
		}
		if categoryID.Valid {
			rev.CategoryID = &categoryID.Int64
		}
		revenues = append(revenues, rev)
	}
	return revenues, rows.Err()
}

func (r *SQLiteRepository) CreateRevenue(ctx context.Context, rev core.Revenue) (core.Revenue, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO revenues (type, source, contact, amount_cents, received_at, category_id,
		                       payment_method, receipt_ref, notes, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rev.Type, rev.Source, rev.Contact, rev.Amount.Cents, rev.ReceivedAt.UTC(), rev.CategoryID,
		rev.PaymentMethod, rev.ReceiptRef, rev.Notes, rev.CreatedBy, now)
	if err != nil {
		return core.Revenue{}, fmt.Errorf("create revenue: %w", err)
	}
	rev.ID, err = res.LastInsertId()
	if err != nil {
		return core.Revenue{}, fmt.Errorf("revenue id: %w", err)
	}
	rev.CreatedAt = now
	return rev, nil
}

func (r *SQLiteRepository) ListForecasts(ctx context.Context, f core.Filter) ([]core.Forecast, error) {
	var w where
	if f.Period != nil {
		w.add("period_kind = ? AND period_year = ? AND period_number = ?",
			string(f.Period.Kind), f.Period.Year, f.Period.Number)
	} else if f.Year != 0 {
		w.add("period_year = ?", f.Year)
	}
	if f.CategoryID != 0 {
		w.add("category_id = ?", f.CategoryID)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, period_kind, period_year, period_number, amount_cents,
		        confidence, basis, notes, created_by, created_at
		 FROM forecasts`+w.clause()+" ORDER BY category_id", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}
	defer rows.Close()

	var forecasts []core.Forecast
	for rows.Next() {
		var fc core.Forecast
		var kind string
		if err := rows.Scan(&fc.ID, &fc.CategoryID, &kind, &fc.Period.Year, &fc.Period.Number,
			&fc.Amount.Cents, &fc.Confidence, &fc.Basis, &fc.Notes, &fc.CreatedBy, &fc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		fc.Period.Kind = core.Cycle(kind)
		forecasts = append(forecasts, fc)
	}
	return forecasts, rows.Err()
}

func (r *SQLiteRepository) UpsertForecast(ctx context.Context, fc core.Forecast) (core.Forecast, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO forecasts (category_id, period_kind, period_year, period_number,
		                        amount_cents, confidence, basis, notes, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (category_id, period_kind, period_year, period_number) DO UPDATE SET
		   amount_cents = excluded.amount_cents,
		   confidence = excluded.confidence,
		   basis = excluded.basis,
		   notes = excluded.notes,
		   created_by = excluded.created_by`,
		fc.CategoryID, string(fc.Period.Kind), fc.Period.Year, fc.Period.Number,
		fc.Amount.Cents, fc.Confidence, fc.Basis, fc.Notes, fc.CreatedBy, now)
	if err != nil {
		return core.Forecast{}, fmt.Errorf("upsert forecast: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM forecasts
		 WHERE category_id = ? AND period_kind = ? AND period_year = ? AND period_number = ?`,
		fc.CategoryID, string(fc.Period.Kind), fc.Period.Year, fc.Period.Number).
		Scan(&fc.ID, &fc.CreatedAt)
	if err != nil {
		return core.Forecast{}, fmt.Errorf("read back forecast: %w", err)
	}
	return fc, nil
}

func (r *SQLiteRepository) ListSubscriptionTypes(ctx context.Context, f core.Filter) ([]core.SubscriptionType, error) {
	var w where
	if f.Active != nil {
		w.add("t.active = ?", boolToInt(*f.Active))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.description, t.amount_cents, t.cycle, t.active,
		        t.created_by, t.created_at,
		        (SELECT COUNT(*) FROM subscriptions s WHERE s.type_id = t.id) AS subscriber_count
		 FROM subscription_types t`+w.clause()+" ORDER BY t.name", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list subscription types: %w", err)
	}
	defer rows.Close()

	var types []core.SubscriptionType
	for rows.Next() {
		t, err := scanSubscriptionType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *SQLiteRepository) GetSubscriptionType(ctx context.Context, id int64) (core.SubscriptionType, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.name, t.description, t.amount_cents, t.cycle, t.active,
		        t.created_by, t.created_at,
		        (SELECT COUNT(*) FROM subscriptions s WHERE s.type_id = t.id) AS subscriber_count
		 FROM subscription_types t WHERE t.id = ?`, id)

	t, err := scanSubscriptionType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SubscriptionType{}, core.ErrNotFound
	}
	return t, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscriptionType(row scanner) (core.SubscriptionType, error) {
	var t core.SubscriptionType
	var cycle string
	var active int
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Amount.Cents, &cycle, &active,
		&t.CreatedBy, &t.CreatedAt, &t.SubscriberCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.SubscriptionType{}, err
		}
		return core.SubscriptionType{}, fmt.Errorf("scan subscription type: %w", err)
	}
	t.Cycle = core.Cycle(cycle)
	t.Active = active != 0
	return t, nil
}

func (r *SQLiteRepository) CreateSubscriptionType(ctx context.Context, t core.SubscriptionType) (core.SubscriptionType, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO subscription_types (name, description, amount_cents, cycle, active, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Description, t.Amount.Cents, string(t.Cycle), boolToInt(t.Active), t.CreatedBy, now)
	if err != nil {
		if isUniqueViolation(err) {
			return core.SubscriptionType{}, fmt.Errorf("type name %q taken: %w", t.Name, core.ErrConflict)
		}
		return core.SubscriptionType{}, fmt.Errorf("create subscription type: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return core.SubscriptionType{}, fmt.Errorf("subscription type id: %w", err)
	}
	t.CreatedAt = now
	return t, nil
}

func (r *SQLiteRepository) SetSubscriptionTypeActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE subscription_types SET active = ? WHERE id = ?", boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("set subscription type active: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteSubscriptionType(ctx context.Context, id int64) error {
	var refs int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM subscriptions WHERE type_id = ?", id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("count type references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("type %d referenced by %d subscriptions: %w", id, refs, core.ErrConflict)
	}

	res, err := r.db.ExecContext(ctx, "DELETE FROM subscription_types WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete subscription type: %w", err)
	}
	return requireRow(res)
}

const subscriptionColumns = `id, type_id, member_name, member_email, plan_label, plan_amount_cents,
	plan_cycle, payment_date, start_date, end_date, status, renewals, last_renewed_at,
	payment_method, notes, created_by, created_at, updated_at`

func (r *SQLiteRepository) ListSubscriptions(ctx context.Context, f core.Filter) ([]core.Subscription, error) {
	var w where
	if start, end, ok := f.DateRange(); ok {
		w.add("payment_date >= ? AND payment_date < ?", start, end)
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions"+w.clause()+" ORDER BY id", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []core.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *SQLiteRepository) GetSubscription(ctx context.Context, id int64) (core.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE id = ?", id)

	s, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, core.ErrNotFound
	}
	return s, err
}

func scanSubscription(row scanner) (core.Subscription, error) {
	var s core.Subscription
	var typeID sql.NullInt64
	var cycle string
	var lastRenewed sql.NullTime
	err := row.Scan(&s.ID, &typeID, &s.MemberName, &s.MemberEmail, &s.Plan.Label, &s.Plan.Amount.Cents,
		&cycle, &s.PaymentDate, &s.StartDate, &s.EndDate, &s.Status, &s.Renewals, &lastRenewed,
		&s.PaymentMethod, &s.Notes, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Subscription{}, err
		}
		return core.Subscription{}, fmt.Errorf("scan subscription: %w", err)
	}
	if typeID.Valid {
		s.TypeID = &typeID.Int64
	}
	if lastRenewed.Valid {
		t := lastRenewed.Time
		s.LastRenewedAt = &t
	}
	s.Plan.Cycle = core.Cycle(cycle)
	return s, nil
}

func (r *SQLiteRepository) UpsertSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	now := time.Now().UTC()

	if s.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO subscriptions (type_id, member_name, member_email, plan_label,
			    plan_amount_cents, plan_cycle, payment_date, start_date, end_date, status,
			    renewals, last_renewed_at, payment_method, notes, created_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.TypeID, s.MemberName, s.MemberEmail, s.Plan.Label,
			s.Plan.Amount.Cents, string(s.Plan.Cycle), s.PaymentDate.UTC(), s.StartDate.UTC(),
			s.EndDate.UTC(), string(s.Status), s.Renewals, s.LastRenewedAt,
			s.PaymentMethod, s.Notes, s.CreatedBy, now, now)
		if err != nil {
			return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
		}
		s.ID, err = res.LastInsertId()
		if err != nil {
			return core.Subscription{}, fmt.Errorf("subscription id: %w", err)
		}
		s.CreatedAt = now
		s.UpdatedAt = now
		return s, nil
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET member_name = ?, member_email = ?, end_date = ?, status = ?,
		    payment_method = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		s.MemberName, s.MemberEmail, s.EndDate.UTC(), string(s.Status),
		s.PaymentMethod, s.Notes, now, s.ID)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("update subscription: %w", err)
	}
	if err := requireRow(res); err != nil {
		return core.Subscription{}, err
	}
	s.UpdatedAt = now
	return s, nil
}

func (r *SQLiteRepository) RenewSubscription(ctx context.Context, id int64, expectedEnd, newEnd, renewedAt time.Time) (core.Subscription, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET end_date = ?, status = ?, renewals = renewals + 1, last_renewed_at = ?, updated_at = ?
		 WHERE id = ? AND end_date = ?`,
		newEnd.UTC(), string(core.StatusActive), renewedAt.UTC(), time.Now().UTC(),
		id, expectedEnd.UTC())
	if err != nil {
		return core.Subscription{}, fmt.Errorf("renew subscription: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return core.Subscription{}, fmt.Errorf("renew rows affected: %w", err)
	}
	if n == 0 {
		// Distinguish a lost race from a missing row.
		if _, err := r.GetSubscription(ctx, id); err != nil {
			return core.Subscription{}, err
		}
		return core.Subscription{}, fmt.Errorf("end date moved since read: %w", core.ErrConflict)
	}

	return r.GetSubscription(ctx, id)
}

// MarkSubscriptionExpired is the sweep's write: status only, guarded by
// the end date the sweep read, so a renewal committed in between is
// never undone.
func (r *SQLiteRepository) MarkSubscriptionExpired(ctx context.Context, id int64, expectedEnd time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = ?, updated_at = ?
		 WHERE id = ? AND end_date = ? AND status = ?`,
		string(core.StatusExpired), time.Now().UTC(),
		id, expectedEnd.UTC(), string(core.StatusActive))
	if err != nil {
		return fmt.Errorf("mark subscription expired: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark expired rows affected: %w", err)
	}
	if n == 0 {
		// Distinguish a moved row from a missing one.
		if _, err := r.GetSubscription(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("subscription changed since read: %w", core.ErrConflict)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
