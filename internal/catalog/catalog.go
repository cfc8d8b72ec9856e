// Package catalog models the UI component library the generator may draw
// from: component docs with import/use/example snippets, plus an icon set.
package catalog

import (
	"fmt"
	"strings"
)

// Snippet is one documented code fragment with its origin file.
type Snippet struct {
	Source string `json:"source"`
	Code   string `json:"code"`
}

// ComponentDoc describes one library component the way the docs dump does.
type ComponentDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Docs        struct {
		Import   Snippet   `json:"import"`
		Use      []Snippet `json:"use"`
		Examples []Snippet `json:"examples"`
	} `json:"docs"`
}

type IconDoc struct {
	Source     string   `json:"source"`
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
}

// Library is the loaded catalog. Components keeps dump order; lookups are
// case-insensitive because model output rarely matches casing exactly.
type Library struct {
	Components []ComponentDoc
	Icons      []IconDoc

	byName map[string]int
}

func New(components []ComponentDoc, icons []IconDoc) (*Library, error) {
	lib := &Library{
		Components: components,
		Icons:      icons,
		byName:     make(map[string]int, len(components)),
	}
	for i, c := range components {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if key == "" {
			return nil, fmt.Errorf("component %d has no name", i)
		}
		if prev, ok := lib.byName[key]; ok {
			return nil, fmt.Errorf("duplicate component name %q (entries %d and %d)", c.Name, prev, i)
		}
		lib.byName[key] = i
	}
	return lib, nil
}

// Lookup finds a component by name, ignoring case.
func (l *Library) Lookup(name string) (ComponentDoc, bool) {
	i, ok := l.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ComponentDoc{}, false
	}
	return l.Components[i], true
}

// Names returns component names in catalog order.
func (l *Library) Names() []string {
	names := make([]string, len(l.Components))
	for i, c := range l.Components {
		names[i] = c.Name
	}
	return names
}
