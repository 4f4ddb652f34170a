package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tesoreria/internal/amqp"
	"tesoreria/internal/core"
	"tesoreria/internal/services"
)

// topDonorsLimit caps the donor ranking in API responses; the
// aggregation keeps the full ordering.
const topDonorsLimit = 5

func capTopDonors(stats *services.RevenueStats) {
	if len(stats.TopDonors) > topDonorsLimit {
		stats.TopDonors = stats.TopDonors[:topDonorsLimit]
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	overview, err := s.deps.Dashboards.Overview(r.Context(), year, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	capTopDonors(&overview.Revenues)
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.deps.Reports.Build(r.Context(), period.Kind, period.Number, period.Year, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	capTopDonors(&report.Revenues)
	writeJSON(w, http.StatusOK, report)
}

// handleCompare expects two periods of the same kind:
// ?kind=monthly&a=2026-02&b=2026-03 where each side is year-number
// (bare year for yearly).
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	kind := core.Cycle(strings.TrimSpace(query.Get("kind")))
	if kind == "" {
		kind = core.Monthly
	}

	a, err := parsePeriodArg(kind, query.Get("a"), "a")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := parsePeriodArg(kind, query.Get("b"), "b")
	if err != nil {
		writeError(w, r, err)
		return
	}

	cmp, err := s.deps.Reports.Compare(r.Context(), a, b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// parsePeriodArg parses "2026-3" (or "2026" for yearly) into a Period
// of the given kind.
func parsePeriodArg(kind core.Cycle, raw, field string) (core.Period, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return core.Period{}, core.Invalid(field, "missing period")
	}

	period := core.Period{Kind: kind}
	var err error
	if kind == core.Yearly {
		_, err = fmt.Sscanf(raw, "%d", &period.Year)
	} else {
		_, err = fmt.Sscanf(raw, "%d-%d", &period.Year, &period.Number)
	}
	if err != nil {
		return core.Period{}, core.Invalid(field, fmt.Sprintf("cannot parse period %q", raw))
	}

	if err := period.Validate(); err != nil {
		return core.Period{}, err
	}
	return period, nil
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exports == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "export queue not configured"})
		return
	}

	period, err := parsePeriod(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := amqp.NewReportExportMessage(string(period.Kind), period.Number, period.Year, actor(r))
	if err := s.deps.Exports.PublishReportExport(r.Context(), msg); err != nil {
		writeError(w, r, errors.New("queue export request: "+err.Error()))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "period": period.String()})
}

func (s *Server) handleBudgetStats(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := s.deps.Stats.BudgetStats(r.Context(), core.Filter{Period: &period})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleExpenseStats(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := s.deps.Stats.ExpenseStats(r.Context(), core.Filter{Period: &period})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSubscriptionStats(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := s.deps.Stats.SubscriptionStats(r.Context(), year, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	kpis, err := s.deps.Stats.ExtendedKPIs(r.Context(), core.Filter{Period: &period})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kpis)
}

func (s *Server) handleRevenueStats(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := s.deps.Stats.RevenueStats(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	capTopDonors(&stats)
	writeJSON(w, http.StatusOK, stats)
}
