package store

import (
	"context"
	"fmt"

	"passenger-rights-bot/internal/db"
)

// DatabaseStore stores resolution counts in PostgreSQL
type DatabaseStore struct {
	db *db.DB
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.DB) *DatabaseStore {
	return &DatabaseStore{db: database}
}

// RecordHit increments the counter for a rule/template/outcome triple
func (ds *DatabaseStore) RecordHit(ctx context.Context, rule, template, outcome string) error {
	if template == "" || outcome == "" {
		return fmt.Errorf("template and outcome are required")
	}

	query := `
		INSERT INTO resolution_hits (rule_name, template_key, outcome, hit_count, last_seen_at)
		VALUES ($1, $2, $3, 1, NOW())
		ON CONFLICT (rule_name, template_key, outcome)
		DO UPDATE SET
			hit_count = resolution_hits.hit_count + 1,
			last_seen_at = NOW()
	`

	if _, err := ds.db.ExecContext(ctx, query, rule, template, outcome); err != nil {
		return fmt.Errorf("failed to record resolution hit: %w", err)
	}
	return nil
}

// Hits lists all counters, most used first
func (ds *DatabaseStore) Hits(ctx context.Context) ([]Hit, error) {
	query := `
		SELECT rule_name, template_key, outcome, hit_count, last_seen_at
		FROM resolution_hits
		ORDER BY hit_count DESC, rule_name ASC, outcome ASC
	`

	rows, err := ds.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolution hits: %w", err)
	}
	defer rows.Close()

	hits := []Hit{}
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Rule, &h.Template, &h.Outcome, &h.Count, &h.LastSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan resolution hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list resolution hits: %w", err)
	}
	return hits, nil
}
