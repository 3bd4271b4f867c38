// Package intents loads the mood category table used to steer the swipe queue.
package intents

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tofixx/mymovieflip/internal/domain"
)

//go:embed default.yaml
var defaultTable []byte

// Table is the loaded category table plus the audience choices.
type Table struct {
	Keywords  domain.KeywordTable
	Audiences []string
}

// Categories returns the category tags sorted by name.
func (t Table) Categories() []string {
	out := make([]string, 0, len(t.Keywords))
	for tag := range t.Keywords {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// Loader reads the embedded table and an optional override file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader. An empty path serves the embedded table only.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load parses the embedded table, then merges the override file on top:
// a category present in the override replaces the default one, and a
// non-empty audience list replaces the default list.
func (l *Loader) Load() (Table, error) {
	base, err := parse(defaultTable)
	if err != nil {
		return Table{}, fmt.Errorf("failed to parse embedded intents: %w", err)
	}
	if l.filePath == "" {
		return base, nil
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read intents file: %w", err)
	}
	override, err := parse(data)
	if err != nil {
		return Table{}, fmt.Errorf("failed to parse intents yaml: %w", err)
	}

	for tag, words := range override.Keywords {
		base.Keywords[tag] = words
	}
	if len(override.Audiences) > 0 {
		base.Audiences = override.Audiences
	}
	return base, nil
}

func parse(data []byte) (Table, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Table{}, err
	}

	t := Table{Keywords: domain.KeywordTable{}, Audiences: []string{}}
	for tag, words := range f.Categories {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		kw := domain.NormalizeKeywords(words)
		if len(kw) == 0 {
			return Table{}, fmt.Errorf("category %q has no keywords", tag)
		}
		t.Keywords[tag] = kw
	}
	for _, who := range f.Audiences {
		who = strings.ToLower(strings.TrimSpace(who))
		if who != "" && !slices.Contains(t.Audiences, who) {
			t.Audiences = append(t.Audiences, who)
		}
	}
	return t, nil
}
