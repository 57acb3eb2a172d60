package types

import (
	"passenger-rights-bot/internal/catalog"
	"passenger-rights-bot/internal/resolver"
	"passenger-rights-bot/internal/rights"
	"passenger-rights-bot/internal/store"
)

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	SessionID  string               `json:"sessionId"`
	Reply      string               `json:"reply"`
	Messages   []store.Message      `json:"messages"`
	Resolution *resolver.Resolution `json:"resolution,omitempty"`
}

type HistoryResponse struct {
	SessionID  string          `json:"sessionId"`
	Messages   []store.Message `json:"messages"`
	ShowRights bool            `json:"showRights"`
}

// RightsResponse carries the charter only while the panel is visible.
type RightsResponse struct {
	Visible  bool             `json:"visible"`
	Title    string           `json:"title,omitempty"`
	Sections []rights.Section `json:"sections,omitempty"`
}

type TemplateResponse struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type RulesResponse struct {
	Version string         `json:"version"`
	Policy  string         `json:"policy"`
	Rules   []catalog.Rule `json:"rules"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
