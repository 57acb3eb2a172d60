package store

import (
	"sync"
	"time"
)

// Message is one transcript entry. Entries are only ever appended.
type Message struct {
	Text   string    `json:"text"`
	IsUser bool      `json:"isUser"`
	SentAt time.Time `json:"sentAt"`
}

type session struct {
	// turn serializes submissions so a user message is always followed by its reply
	turn       sync.Mutex
	mu         sync.RWMutex
	messages   []Message
	showRights bool
	lastSeen   time.Time
}

// MemoryStore keeps per-session chat state in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	idleTTL  time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a store whose sessions expire after idleTTL without
// activity. A zero idleTTL keeps sessions until the process exits.
func NewMemoryStore(idleTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*session),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

func (m *MemoryStore) session(sessionID string) *session {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.sessions[sessionID]; ok {
		return s
	}
	s = &session{lastSeen: m.now()}
	m.sessions[sessionID] = s
	return s
}

func (m *MemoryStore) Append(sessionID string, msg Message) {
	s := m.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	m.appendLocked(s, msg)
}

func (m *MemoryStore) appendLocked(s *session, msg Message) {
	if msg.SentAt.IsZero() {
		msg.SentAt = m.now()
	}
	s.messages = append(s.messages, msg)
	s.lastSeen = m.now()
}

// AppendExchange appends user, then the reply built by respond. Exchanges on
// the same session are serialized, so turns never interleave.
func (m *MemoryStore) AppendExchange(sessionID string, user Message, respond func() Message) (Message, Message) {
	s := m.session(sessionID)
	s.turn.Lock()
	defer s.turn.Unlock()

	s.mu.Lock()
	m.appendLocked(s, user)
	user = s.messages[len(s.messages)-1]
	s.mu.Unlock()

	reply := respond()

	s.mu.Lock()
	m.appendLocked(s, reply)
	reply = s.messages[len(s.messages)-1]
	s.mu.Unlock()
	return user, reply
}

// Get returns a copy of the session transcript.
func (m *MemoryStore) Get(sessionID string) []Message {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return []Message{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	copyMsgs := make([]Message, len(s.messages))
	copy(copyMsgs, s.messages)
	return copyMsgs
}

// Delete drops all state for a session.
func (m *MemoryStore) Delete(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Rights panel visibility

func (m *MemoryStore) ShowRights(sessionID string) bool {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.showRights
}

// ToggleRights flips the panel flag and returns the new value.
func (m *MemoryStore) ToggleRights(sessionID string) bool {
	s := m.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showRights = !s.showRights
	s.lastSeen = m.now()
	return s.showRights
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle removes sessions idle for longer than the TTL and returns how many
// were dropped.
func (m *MemoryStore) EvictIdle() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		s.mu.RLock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.RUnlock()
		if idle {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
