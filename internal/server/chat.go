package server

import (
	"encoding/json"
	"net/http"

	"passenger-rights-bot/internal/rights"
	"passenger-rights-bot/internal/store"
	"passenger-rights-bot/internal/types"
)

// POST /api/chat
// Body { message }. Blank messages are rejected without touching the transcript.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sid := s.getOrCreateSessionID(w, r)

	turn, ok := s.chat.Submit(r.Context(), sid, req.Message)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	s.writeJSON(w, http.StatusOK, types.ChatResponse{
		SessionID:  sid,
		Reply:      turn.Reply.Text,
		Messages:   s.chat.History(sid),
		Resolution: &turn.Resolution,
	})
}

// GET /api/chat/history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sid := getSessionID(r)
	resp := types.HistoryResponse{SessionID: sid, Messages: []store.Message{}}
	if sid != "" {
		resp.Messages = s.chat.History(sid)
		resp.ShowRights = s.chat.RightsVisible(sid)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// DELETE /api/chat/history
// Ends the session: transcript and panel state are dropped and the cookie cleared.
func (s *Server) handleResetChat(w http.ResponseWriter, r *http.Request) {
	if sid := getSessionID(r); sid != "" {
		s.chat.Reset(sid)
	}
	ClearSessionCookie(w, s.cfg.SecureCookies)
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/rights
// Returns the charter while the session's panel is visible; ?format=text always
// returns the plain charter.
func (s *Server) handleRights(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(rights.Charter()))
		return
	}
	sid := getSessionID(r)
	s.writeJSON(w, http.StatusOK, rightsResponse(sid != "" && s.chat.RightsVisible(sid)))
}

// POST /api/rights/toggle
func (s *Server) handleToggleRights(w http.ResponseWriter, r *http.Request) {
	sid := s.getOrCreateSessionID(w, r)
	s.writeJSON(w, http.StatusOK, rightsResponse(s.chat.ToggleRights(sid)))
}

func rightsResponse(visible bool) types.RightsResponse {
	if !visible {
		return types.RightsResponse{Visible: false}
	}
	return types.RightsResponse{Visible: true, Title: rights.Title(), Sections: rights.Sections()}
}
