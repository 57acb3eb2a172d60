package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"passenger-rights-bot/internal/catalog"
	"passenger-rights-bot/internal/logger"
	"passenger-rights-bot/internal/types"
)

// GET /api/templates
func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"version":   s.catalog.Version(),
		"templates": s.catalog.Keys(),
	})
}

// GET /api/templates/{key}?hours=N
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var p catalog.Params
	if h := r.URL.Query().Get("hours"); h != "" {
		n, err := strconv.Atoi(h)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "hours must be a non-negative integer")
			return
		}
		p.Hours = n
	}
	text, err := s.catalog.Render(key, p)
	if errors.Is(err, catalog.ErrUnknownTemplate) {
		s.writeError(w, http.StatusNotFound, "template not found")
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Error("failed to render template")
		s.writeError(w, http.StatusInternalServerError, "failed to render template")
		return
	}
	s.writeJSON(w, http.StatusOK, types.TemplateResponse{Key: key, Text: text})
}

// GET /api/rules
// The active rule table in evaluation order.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	res := s.chat.Resolver()
	s.writeJSON(w, http.StatusOK, types.RulesResponse{
		Version: s.catalog.Version(),
		Policy:  string(res.Policy()),
		Rules:   res.Rules(),
	})
}

// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	hits, err := s.chat.Stats(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Error("failed to load resolution stats")
		s.writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}
