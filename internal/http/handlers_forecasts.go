package http

import (
	"net/http"

	"tesoreria/internal/core"
)

func (s *Server) handleListForecasts(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	forecasts, err := s.deps.Ledger.ListForecasts(r.Context(), core.Filter{Period: &period})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forecasts)
}

func (s *Server) handleGenerateForecasts(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	forecasts, err := s.deps.Forecasts.Generate(r.Context(), period, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, forecasts)
}
