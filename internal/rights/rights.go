// Package rights holds the static Passenger Charter shown in the rights panel.
package rights

import (
	_ "embed"
	"strings"
)

//go:embed charter.txt
var charter string

// Section is a top-level heading of the charter and the text under it.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Charter returns the full reference text.
func Charter() string {
	return strings.TrimSpace(charter)
}

// Title is the first line of the charter.
func Title() string {
	title, _, _ := strings.Cut(Charter(), "\n")
	return strings.TrimSpace(title)
}

// Sections splits the charter on "## " headings. Text before the first
// heading is returned under the charter title.
func Sections() []Section {
	var (
		out     []Section
		heading = Title()
		body    strings.Builder
	)
	flush := func() {
		out = append(out, Section{Heading: heading, Body: strings.TrimSpace(body.String())})
		body.Reset()
	}

	lines := strings.Split(Charter(), "\n")
	for _, line := range lines[1:] {
		if h, ok := strings.CutPrefix(line, "## "); ok {
			flush()
			heading = strings.TrimSpace(h)
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()
	return out
}
