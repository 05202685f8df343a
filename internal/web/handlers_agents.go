package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/agentstats/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// maxJSONBody bounds agent and stats request bodies.
const maxJSONBody = 64 << 10

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.service.ListAgents(r.Context(), teamID(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, agents)
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var in core.AgentInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	agent, err := s.service.CreateAgent(r.Context(), teamID(r), in)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusCreated, agent)
}

func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	if err := s.service.DeleteAgent(r.Context(), teamID(r), agentID); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	rec, err := s.service.GetStats(r.Context(), teamID(r), agentID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// handleReplaceStats is the manual edit path: the body replaces the whole
// record, so omitted metrics are cleared.
func (s *Server) handleReplaceStats(w http.ResponseWriter, r *http.Request) {
	var in core.StatsInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	agentID := chi.URLParam(r, "agentID")
	rec, err := s.service.ReplaceStats(r.Context(), teamID(r), agentID, in)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", core.ErrValidation, err)
	}
	return nil
}
