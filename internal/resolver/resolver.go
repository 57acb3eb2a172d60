package resolver

import (
	"fmt"
	"strings"

	"passenger-rights-bot/internal/catalog"
)

// Policy decides whether a baggage keyword alone is enough to match.
type Policy string

const (
	// PolicyLenient answers any baggage question with the lost/damaged baggage text.
	PolicyLenient Policy = catalog.PolicyLenient
	// PolicyStrict only answers when the message also mentions damage.
	PolicyStrict Policy = catalog.PolicyStrict

	DefaultPolicy = PolicyLenient
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyLenient:
		return PolicyLenient, nil
	case PolicyStrict:
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("unknown baggage policy %q", s)
}

// Resolution describes which rule produced a reply.
type Resolution struct {
	Rule     string `json:"rule,omitempty"`
	Template string `json:"template"`
	Hours    int    `json:"hours,omitempty"`
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// Resolver maps a chat message to exactly one canned reply. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	cat    *catalog.Catalog
	policy Policy
	rules  []catalog.Rule
}

// New builds a resolver over the rules of cat that are active under policy.
func New(cat *catalog.Catalog, policy Policy) *Resolver {
	var active []catalog.Rule
	for _, r := range cat.Rules() {
		if r.Policy == "" || Policy(r.Policy) == policy {
			active = append(active, r)
		}
	}
	return &Resolver{cat: cat, policy: policy, rules: active}
}

func (r *Resolver) Policy() Policy { return r.policy }

// Rules returns the active rules in evaluation order.
func (r *Resolver) Rules() []catalog.Rule {
	return append([]catalog.Rule(nil), r.rules...)
}

// Resolve returns the reply text for input.
func (r *Resolver) Resolve(input string) string {
	return r.ResolveDetailed(input).Text
}

// ResolveDetailed runs the rule table against input. The first matching rule
// wins; later rules are never consulted.
func (r *Resolver) ResolveDetailed(input string) Resolution {
	m := strings.ToLower(input)
	for _, rule := range r.rules {
		if !matches(m, rule.Match) {
			continue
		}
		var p catalog.Params
		if rule.ExtractHours {
			p.Hours = rule.DefaultHours
			if n, ok := FirstNumber(input); ok {
				p.Hours = n
			}
		}
		text, err := r.cat.Render(rule.Template, p)
		if err != nil {
			break
		}
		return Resolution{Rule: rule.Name, Template: rule.Template, Hours: p.Hours, Text: text}
	}
	return Resolution{Template: r.cat.FallbackKey(), Text: r.cat.Fallback(), Fallback: true}
}

func matches(m string, groups [][]string) bool {
	for _, g := range groups {
		if !containsAny(m, g) {
			return false
		}
	}
	return true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
