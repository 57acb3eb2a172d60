package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Resolution outcome constants
const (
	OutcomeMatched  = "matched"
	OutcomeFallback = "fallback"
)

// Hit is a per-rule count of resolutions by outcome. Message text is never kept.
type Hit struct {
	Rule       string    `json:"rule"`
	Template   string    `json:"template"`
	Outcome    string    `json:"outcome"`
	Count      int64     `json:"count"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// StatsStore records which rules answer chat messages.
type StatsStore interface {
	RecordHit(ctx context.Context, rule, template, outcome string) error
	Hits(ctx context.Context) ([]Hit, error)
}

type hitKey struct {
	rule, template, outcome string
}

// MemoryStats is the StatsStore used when no database is configured.
type MemoryStats struct {
	mu   sync.Mutex
	hits map[hitKey]*Hit
	now  func() time.Time
}

func NewMemoryStats() *MemoryStats {
	return &MemoryStats{hits: make(map[hitKey]*Hit), now: time.Now}
}

func (m *MemoryStats) RecordHit(_ context.Context, rule, template, outcome string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := hitKey{rule, template, outcome}
	h, ok := m.hits[k]
	if !ok {
		h = &Hit{Rule: rule, Template: template, Outcome: outcome}
		m.hits[k] = h
	}
	h.Count++
	h.LastSeenAt = m.now()
	return nil
}

// Hits returns counts ordered by count descending, then rule name.
func (m *MemoryStats) Hits(_ context.Context) ([]Hit, error) {
	m.mu.Lock()
	out := make([]Hit, 0, len(m.hits))
	for _, h := range m.hits {
		out = append(out, *h)
	}
	m.mu.Unlock()
	sortHits(out)
	return out, nil
}

func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Count != hits[j].Count {
			return hits[i].Count > hits[j].Count
		}
		if hits[i].Rule != hits[j].Rule {
			return hits[i].Rule < hits[j].Rule
		}
		return hits[i].Outcome < hits[j].Outcome
	})
}
