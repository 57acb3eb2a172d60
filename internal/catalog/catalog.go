package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

var (
	ErrUnknownTemplate = errors.New("unknown template")
	ErrInvalidCatalog  = errors.New("invalid catalog")
)

// Policy tags a rule as active only under one baggage-matching policy.
const (
	PolicyLenient = "lenient"
	PolicyStrict  = "strict"
)

// Rule is one entry of the ordered rule table. Match is a conjunction of
// keyword groups: every group needs at least one keyword present.
type Rule struct {
	Name         string     `yaml:"name" json:"name"`
	Policy       string     `yaml:"policy,omitempty" json:"policy,omitempty"`
	Match        [][]string `yaml:"match" json:"match"`
	Template     string     `yaml:"template" json:"template"`
	ExtractHours bool       `yaml:"extract_hours,omitempty" json:"extractHours,omitempty"`
	DefaultHours int        `yaml:"default_hours,omitempty" json:"defaultHours,omitempty"`
}

// Params is the data a template is rendered with.
type Params struct {
	Hours int
}

type document struct {
	Version   string            `yaml:"version"`
	Fallback  string            `yaml:"fallback"`
	Rules     []Rule            `yaml:"rules"`
	Templates map[string]string `yaml:"templates"`
}

// Catalog is a validated, immutable rule table plus its templates.
type Catalog struct {
	version   string
	fallback  string
	rules     []Rule
	sources   map[string]string
	templates map[string]*template.Template
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

// LoadFile reads a catalog from path. An empty path yields the bundled catalog.
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML catalog. Every template is compiled and
// executed once here so rendering cannot fail later.
func Parse(b []byte) (*Catalog, error) {
	var s document
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if strings.TrimSpace(s.Version) == "" {
		return nil, fmt.Errorf("%w: version is required", ErrInvalidCatalog)
	}
	if len(s.Templates) == 0 {
		return nil, fmt.Errorf("%w: no templates", ErrInvalidCatalog)
	}

	c := &Catalog{
		version:   s.Version,
		fallback:  s.Fallback,
		sources:   make(map[string]string, len(s.Templates)),
		templates: make(map[string]*template.Template, len(s.Templates)),
	}
	for key, src := range s.Templates {
		tmpl, err := template.New(key).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("%w: template %s: %v", ErrInvalidCatalog, key, err)
		}
		if err := tmpl.Execute(&bytes.Buffer{}, Params{Hours: 1}); err != nil {
			return nil, fmt.Errorf("%w: template %s: %v", ErrInvalidCatalog, key, err)
		}
		c.sources[key] = src
		c.templates[key] = tmpl
	}
	if _, ok := c.templates[c.fallback]; !ok {
		return nil, fmt.Errorf("%w: fallback template %q not defined", ErrInvalidCatalog, s.Fallback)
	}

	seen := make(map[string]bool, len(s.Rules))
	for i, r := range s.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: rule %d has no name", ErrInvalidCatalog, i)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: duplicate rule %s", ErrInvalidCatalog, r.Name)
		}
		seen[r.Name] = true
		switch r.Policy {
		case "", PolicyLenient, PolicyStrict:
		default:
			return nil, fmt.Errorf("%w: rule %s: unknown policy %q", ErrInvalidCatalog, r.Name, r.Policy)
		}
		if _, ok := c.templates[r.Template]; !ok {
			return nil, fmt.Errorf("%w: rule %s: template %q not defined", ErrInvalidCatalog, r.Name, r.Template)
		}
		groups, err := normalizeGroups(r.Match)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %s: %v", ErrInvalidCatalog, r.Name, err)
		}
		r.Match = groups
		if r.ExtractHours && r.DefaultHours < 0 {
			return nil, fmt.Errorf("%w: rule %s: default_hours must not be negative", ErrInvalidCatalog, r.Name)
		}
		c.rules = append(c.rules, r)
	}
	return c, nil
}

// Keywords are matched against lowercased input, so they are stored lowercased.
func normalizeGroups(match [][]string) ([][]string, error) {
	if len(match) == 0 {
		return nil, errors.New("match is empty")
	}
	out := make([][]string, 0, len(match))
	for _, g := range match {
		group := make([]string, 0, len(g))
		for _, k := range g {
			k = strings.ToLower(k)
			if strings.TrimSpace(k) == "" {
				continue
			}
			group = append(group, k)
		}
		if len(group) == 0 {
			return nil, errors.New("match group is empty")
		}
		out = append(out, group)
	}
	return out, nil
}

func (c *Catalog) Version() string     { return c.version }
func (c *Catalog) FallbackKey() string { return c.fallback }

// Rules returns a copy of the ordered rule table.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		groups := make([][]string, len(r.Match))
		for j, g := range r.Match {
			groups[j] = append([]string(nil), g...)
		}
		r.Match = groups
		out[i] = r
	}
	return out
}

// Keys lists every template key in lexical order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.templates))
	for k := range c.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Source returns the unrendered template text for key.
func (c *Catalog) Source(key string) (string, bool) {
	s, ok := c.sources[key]
	return s, ok
}

// Render executes the template for key and trims surrounding whitespace.
func (c *Catalog) Render(key string, p Params) (string, error) {
	tmpl, ok := c.templates[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, key)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render %s: %w", key, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Fallback renders the fallback template.
func (c *Catalog) Fallback() string {
	text, _ := c.Render(c.fallback, Params{})
	return text
}
