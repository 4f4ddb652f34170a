package http

import (
	"net/http"

	"tesoreria/internal/core"
	"tesoreria/internal/services"
)

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	var f core.Filter
	if status := r.URL.Query().Get("status"); status != "" {
		f.Status = core.SubscriptionStatus(status)
	}
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := parseYear(r.URL.Query(), s.now())
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Year = year
	}

	subs, err := s.deps.Subscriptions.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var in services.NewSubscription
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	sub, err := s.deps.Subscriptions.Create(r.Context(), in, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleRenewSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sub, err := s.deps.Subscriptions.Renew(r.Context(), id, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleRevokeSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.deps.Subscriptions.Revoke(r.Context(), id, actor(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSubscriptionTypes(w http.ResponseWriter, r *http.Request) {
	var f core.Filter
	if v := r.URL.Query().Get("active"); v == "true" || v == "false" {
		active := v == "true"
		f.Active = &active
	}

	types, err := s.deps.Subscriptions.ListTypes(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleCreateSubscriptionType(w http.ResponseWriter, r *http.Request) {
	var t core.SubscriptionType
	if err := decodeBody(r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = 0

	saved, err := s.deps.Subscriptions.CreateType(r.Context(), t, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleAssignSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in services.NewSubscription
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	sub, err := s.deps.Subscriptions.Assign(r.Context(), id, in, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleDeactivateSubscriptionType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.deps.Subscriptions.DeactivateType(r.Context(), id, actor(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSubscriptionType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.deps.Subscriptions.DeleteType(r.Context(), id, actor(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
