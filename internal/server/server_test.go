package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passenger-rights-bot/internal/catalog"
	"passenger-rights-bot/internal/chat"
	"passenger-rights-bot/internal/config"
	"passenger-rights-bot/internal/logger"
	"passenger-rights-bot/internal/resolver"
	"passenger-rights-bot/internal/store"
	"passenger-rights-bot/internal/types"
)

func newTestServer(t *testing.T, policy resolver.Policy) (*Server, *catalog.Catalog) {
	t.Helper()
	logger.SetOutput(io.Discard)

	cat, err := catalog.Default()
	require.NoError(t, err)
	sessions := store.NewMemoryStore(time.Minute)
	svc := chat.NewService(resolver.New(cat, policy), sessions, store.NewMemoryStats())
	cfg := config.Config{AllowedOrigin: "*", SessionTTL: 15 * time.Minute}
	return New(cfg, cat, svc, sessions), cat
}

func postChat(t *testing.T, s *Server, sid, message string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(types.ChatRequest{Message: message})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.Header.Set("X-Session-Id", sid)
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, s *Server, path, sid string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.Header.Set("X-Session-Id", sid)
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, cat := newTestServer(t, resolver.PolicyLenient)

	rr := get(t, s, "/api/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]string](t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, cat.Version(), body["catalog"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestChat_CreatesSessionAndReplies(t *testing.T) {
	s, cat := newTestServer(t, resolver.PolicyLenient)

	rr := postChat(t, s, "", "My flight has a delay of 5 hours")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	sid := rr.Header().Get("X-Session-Id")
	require.True(t, strings.HasPrefix(sid, "s_"), sid)

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, sid, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	resp := decode[types.ChatResponse](t, rr)
	want, err := cat.Render("flightDelay", catalog.Params{Hours: 5})
	require.NoError(t, err)
	assert.Equal(t, sid, resp.SessionID)
	assert.Equal(t, want, resp.Reply)
	require.NotNil(t, resp.Resolution)
	assert.Equal(t, "flight_delay", resp.Resolution.Rule)
	assert.Equal(t, 5, resp.Resolution.Hours)
	require.Len(t, resp.Messages, 2)
	assert.True(t, resp.Messages[0].IsUser)
}

func TestChat_TranscriptOrderAcrossTurns(t *testing.T) {
	s, cat := newTestServer(t, resolver.PolicyLenient)

	rr := postChat(t, s, "sess-1", "cancel my flight")
	require.Equal(t, http.StatusOK, rr.Code)
	rr = postChat(t, s, "sess-1", "asdf random text")
	require.Equal(t, http.StatusOK, rr.Code)

	hist := decode[types.HistoryResponse](t, get(t, s, "/api/chat/history", "sess-1"))
	require.Len(t, hist.Messages, 4)
	assert.Equal(t, "cancel my flight", hist.Messages[0].Text)
	assert.True(t, hist.Messages[0].IsUser)
	assert.False(t, hist.Messages[1].IsUser)
	assert.Equal(t, "asdf random text", hist.Messages[2].Text)
	assert.Equal(t, cat.Fallback(), hist.Messages[3].Text)
}

func TestChat_BlankMessageRejected(t *testing.T) {
	s, _ := newTestServer(t, resolver.PolicyLenient)

	for _, msg := range []string{"", "    "} {
		rr := postChat(t, s, "sess-1", msg)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "message is required", decode[types.ErrorResponse](t, rr).Error)
	}

	hist := decode[types.HistoryResponse](t, get(t, s, "/api/chat/history", "sess-1"))
	assert.Empty(t, hist.Messages)

	stats := decode[map[string][]store.Hit](t, get(t, s, "/api/stats", ""))
	assert.Empty(t, stats["hits"])
}

func TestChat_InvalidJSON(t *testing.T) {
	s, _ := newTestServer(t, resolver.PolicyLenient)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestChat_BaggagePolicy(t *testing.T) {
	lenient, cat := newTestServer(t, resolver.PolicyLenient)
	strict, _ := newTestServer(t, resolver.PolicyStrict)

	long, err := cat.Render("baggageDamageLong", catalog.Params{})
	require.NoError(t, err)

	assert.Equal(t, long, decode[types.ChatResponse](t, postChat(t, lenient, "a", "where is my luggage")).Reply)
	assert.Equal(t, cat.Fallback(), decode[types.ChatResponse](t, postChat(t, strict, "a", "where is my luggage")).Reply)
}

func TestHistory_NoSession(t *testing.T) {
	s, _ := newTestServer(t, resolver.PolicyLenient)

	hist := decode[types.HistoryResponse](t, get(t, s, "/api/chat/history", ""))
	assert.NotNil(t, hist.Messages)
	assert.Empty(t, hist.Messages)
}

func TestResetChat(t *testing.T) {
	s, _ := newTestServer(t, resolver.PolicyLenient)
	postChat(t, s, "sess-1", "hello")

	req := httptest.NewRequest(http.MethodDelete, "/api/chat/history", nil)
	req.Header.Set("X-Session-Id", "sess-1")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	hist := decode[types.HistoryResponse](t, get(t, s, "/api/chat/history", "sess-1"))
	assert.Empty(t, hist.Messages)
}

func TestRightsToggle(t *testing.T) {
	s, _ := newTestServer(t, resolver.PolicyLenient)

	hidden := decode[types.RightsResponse](t, get(t, s, "/api/rights", "sess-1"))
	assert.False(t, hidden.Visible)
	assert.Empty(t, hidden.Sections)

	req := httptest.NewRequest(http.MethodPost, "/api/rights/toggle", nil)
	req.Header.Set("X-Session-Id", "sess-1")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	shown := decode[types.RightsResponse](t, rr)
	assert.True(t, shown.Visible)
	assert.Equal(t, "Fly Informed, Reach Relaxed", shown.Title)
	assert.NotEmpty(t, shown.Sections)

	again := decode[types.RightsResponse](t, get(t, s, "/api/rights", "sess-1"))
	assert.True(t, again.Visible)

	// Other sessions keep their own flag.
	other := decode[types.RightsResponse](t, get(t, s, "/api/rights", "sess-2"))
	assert.False(t, other.Visible)
}

func TestRights_PlainText(t *testing.T) {
	s, _ := newTestServer(t, resolver.PolicyLenient)

	rr := get(t, s, "/api/rights?format=text", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	assert.True(t, strings.HasPrefix(rr.Body.String(), "Fly Informed, Reach Relaxed"))
}

func TestTemplates(t *testing.T) {
	s, cat := newTestServer(t, resolver.PolicyLenient)

	list := decode[map[string]any](t, get(t, s, "/api/templates", ""))
	assert.Len(t, list["templates"], len(cat.Keys()))

	rr := get(t, s, "/api/templates/flightDelay?hours=8", "")
	require.Equal(t, http.StatusOK, rr.Code)
	tmpl := decode[types.TemplateResponse](t, rr)
	assert.Contains(t, tmpl.Text, "delay of 8 hours")

	rr = get(t, s, "/api/templates/rightToInformation", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, decode[types.TemplateResponse](t, rr).Text, "DGCA portal")

	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/templates/nope", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/templates/flightDelay?hours=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/templates/flightDelay?hours=x", "").Code)
}

func TestRules(t *testing.T) {
	s, cat := newTestServer(t, resolver.PolicyStrict)

	resp := decode[types.RulesResponse](t, get(t, s, "/api/rules", ""))
	assert.Equal(t, cat.Version(), resp.Version)
	assert.Equal(t, "strict", resp.Policy)
	require.Len(t, resp.Rules, 5)
	assert.Equal(t, "flight_delay", resp.Rules[0].Name)
	assert.Equal(t, "medical_emergency", resp.Rules[4].Name)
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t, resolver.PolicyLenient)
	postChat(t, s, "a", "cancel")
	postChat(t, s, "b", "cancelled again")
	postChat(t, s, "b", "hmm")

	stats := decode[map[string][]store.Hit](t, get(t, s, "/api/stats", ""))
	hits := stats["hits"]
	require.Len(t, hits, 2)
	assert.Equal(t, "cancelled_flight", hits[0].Rule)
	assert.Equal(t, int64(2), hits[0].Count)
	assert.Equal(t, store.OutcomeFallback, hits[1].Outcome)
}
