package http

import (
	"net/http"

	"tesoreria/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var f core.Filter
	if v := r.URL.Query().Get("active"); v == "true" || v == "false" {
		active := v == "true"
		f.Active = &active
	}

	categories, err := s.deps.Ledger.ListCategories(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := decodeBody(r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	c.ID = 0
	c.Active = true
	if err := c.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.deps.Ledger.CreateCategory(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	budgets, err := s.deps.Ledger.ListBudgets(r.Context(), core.Filter{Period: &period})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := decodeBody(r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	b.ID = 0
	b.CreatedBy = actor(r)
	if err := b.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.deps.Ledger.CreateBudget(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	expenses, err := s.deps.Ledger.ListExpenses(r.Context(), core.Filter{Period: &period})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeBody(r, &e); err != nil {
		writeError(w, r, err)
		return
	}
	e.ID = 0
	e.CreatedBy = actor(r)
	if err := e.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.deps.Ledger.CreateExpense(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListRevenues(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	revenues, err := s.deps.Ledger.ListRevenues(r.Context(), core.Filter{Year: year})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, revenues)
}

func (s *Server) handleCreateRevenue(w http.ResponseWriter, r *http.Request) {
	var rev core.Revenue
	if err := decodeBody(r, &rev); err != nil {
		writeError(w, r, err)
		return
	}
	rev.ID = 0
	rev.CreatedBy = actor(r)
	if err := rev.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.deps.Ledger.CreateRevenue(r.Context(), rev)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
