package chat

import (
	"context"
	"strings"

	"passenger-rights-bot/internal/logger"
	"passenger-rights-bot/internal/resolver"
	"passenger-rights-bot/internal/store"
)

// Turn is one user message together with the reply it produced.
type Turn struct {
	User       store.Message       `json:"user"`
	Reply      store.Message       `json:"reply"`
	Resolution resolver.Resolution `json:"resolution"`
}

// Service owns per-session chat state and feeds messages to the resolver.
type Service struct {
	resolver *resolver.Resolver
	sessions *store.MemoryStore
	stats    store.StatsStore
}

// NewService wires a service. stats may be nil.
func NewService(r *resolver.Resolver, sessions *store.MemoryStore, stats store.StatsStore) *Service {
	return &Service{resolver: r, sessions: sessions, stats: stats}
}

func (s *Service) Resolver() *resolver.Resolver { return s.resolver }

// Submit trims message and, unless it is empty, appends it and its reply to
// the session transcript. Empty input is ignored: nothing is appended and ok
// is false.
func (s *Service) Submit(ctx context.Context, sessionID, message string) (turn Turn, ok bool) {
	text := strings.TrimSpace(message)
	if text == "" {
		return Turn{}, false
	}

	var res resolver.Resolution
	user := store.Message{Text: text, IsUser: true}
	user, reply := s.sessions.AppendExchange(sessionID, user, func() store.Message {
		res = s.resolver.ResolveDetailed(text)
		return store.Message{Text: res.Text}
	})
	s.record(ctx, res)

	logger.FromContext(ctx).WithFields(logger.Fields{
		"session":  sessionID,
		"rule":     res.Rule,
		"template": res.Template,
	}).Debug("resolved chat message")

	return Turn{User: user, Reply: reply, Resolution: res}, true
}

func (s *Service) record(ctx context.Context, res resolver.Resolution) {
	if s.stats == nil {
		return
	}
	outcome := store.OutcomeMatched
	if res.Fallback {
		outcome = store.OutcomeFallback
	}
	if err := s.stats.RecordHit(ctx, res.Rule, res.Template, outcome); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to record resolution hit")
	}
}

func (s *Service) History(sessionID string) []store.Message {
	return s.sessions.Get(sessionID)
}

// Reset starts the session over with an empty transcript and a hidden panel.
func (s *Service) Reset(sessionID string) {
	s.sessions.Delete(sessionID)
}

func (s *Service) RightsVisible(sessionID string) bool {
	return s.sessions.ShowRights(sessionID)
}

func (s *Service) ToggleRights(sessionID string) bool {
	return s.sessions.ToggleRights(sessionID)
}

// Stats lists resolution counters, or nothing when stats are disabled.
func (s *Service) Stats(ctx context.Context) ([]store.Hit, error) {
	if s.stats == nil {
		return []store.Hit{}, nil
	}
	return s.stats.Hits(ctx)
}
