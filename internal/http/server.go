// Package http exposes the treasury engine as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tesoreria/internal/amqp"
	"tesoreria/internal/services"
)

// ExportPublisher queues a report export request for the worker. A nil
// publisher disables the export endpoint.
type ExportPublisher interface {
	PublishReportExport(ctx context.Context, msg *amqp.ReportExportMessage) error
}

// Deps are the collaborators the server exposes over HTTP.
type Deps struct {
	Ledger        services.Ledger
	Stats         *services.StatsService
	Dashboards    *services.DashboardService
	Reports       *services.ReportService
	Forecasts     *services.ForecastService
	Subscriptions *services.SubscriptionService
	Exports       ExportPublisher
}

type Server struct {
	http.Server
	deps        Deps
	rateLimiter *rateLimiter
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		deps:        deps,
		rateLimiter: newRateLimiter(),
		now:         time.Now,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/dashboard", s.guard(s.handleDashboard))

	mux.HandleFunc("GET /api/reports", s.guard(s.handleReport))
	mux.HandleFunc("GET /api/reports/compare", s.guard(s.handleCompare))
	mux.HandleFunc("POST /api/reports/export", s.guard(s.handleExportReport))

	mux.HandleFunc("GET /api/forecasts", s.guard(s.handleListForecasts))
	mux.HandleFunc("POST /api/forecasts/generate", s.guard(s.handleGenerateForecasts))

	mux.HandleFunc("GET /api/stats/budgets", s.guard(s.handleBudgetStats))
	mux.HandleFunc("GET /api/stats/expenses", s.guard(s.handleExpenseStats))
	mux.HandleFunc("GET /api/stats/revenues", s.guard(s.handleRevenueStats))
	mux.HandleFunc("GET /api/stats/subscriptions", s.guard(s.handleSubscriptionStats))
	mux.HandleFunc("GET /api/kpis", s.guard(s.handleKPIs))

	mux.HandleFunc("GET /api/categories", s.guard(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.guard(s.handleCreateCategory))
	mux.HandleFunc("GET /api/budgets", s.guard(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.guard(s.handleCreateBudget))
	mux.HandleFunc("GET /api/expenses", s.guard(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.guard(s.handleCreateExpense))
	mux.HandleFunc("GET /api/revenues", s.guard(s.handleListRevenues))
	mux.HandleFunc("POST /api/revenues", s.guard(s.handleCreateRevenue))

	mux.HandleFunc("GET /api/subscriptions", s.guard(s.handleListSubscriptions))
	mux.HandleFunc("POST /api/subscriptions", s.guard(s.handleCreateSubscription))
	mux.HandleFunc("POST /api/subscriptions/{id}/renew", s.guard(s.handleRenewSubscription))
	mux.HandleFunc("DELETE /api/subscriptions/{id}", s.guard(s.handleRevokeSubscription))

	mux.HandleFunc("GET /api/subscription-types", s.guard(s.handleListSubscriptionTypes))
	mux.HandleFunc("POST /api/subscription-types", s.guard(s.handleCreateSubscriptionType))
	mux.HandleFunc("POST /api/subscription-types/{id}/assign", s.guard(s.handleAssignSubscription))
	mux.HandleFunc("POST /api/subscription-types/{id}/deactivate", s.guard(s.handleDeactivateSubscriptionType))
	mux.HandleFunc("DELETE /api/subscription-types/{id}", s.guard(s.handleDeleteSubscriptionType))

	return s
}

// guard applies rate limiting to mutating requests and sets the
// security headers every response carries.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
