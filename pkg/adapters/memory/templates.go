package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aretw0/lattice/pkg/domain"
)

// Templates implements ports.TemplateLibrary using an in-memory map.
type Templates struct {
	templates map[string]*domain.Node
}

// NewTemplates creates a library from raw JSON subtrees keyed by name.
func NewTemplates(data map[string]string) (*Templates, error) {
	templates := make(map[string]*domain.Node, len(data))
	for name, raw := range data {
		var n domain.Node
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			return nil, fmt.Errorf("failed to unmarshal template %s: %w", name, err)
		}
		templates[name] = &n
	}
	return &Templates{templates: templates}, nil
}

// NewFromNodes creates a library from domain objects, keyed by root id.
// This improves DX for tests.
func NewFromNodes(nodes ...*domain.Node) (*Templates, error) {
	templates := make(map[string]*domain.Node, len(nodes))
	for _, n := range nodes {
		if n == nil || n.ID == "" {
			return nil, fmt.Errorf("template missing ID")
		}
		templates[n.ID] = n.Clone()
	}
	return &Templates{templates: templates}, nil
}

// Template returns a copy of the named template.
func (l *Templates) Template(ctx context.Context, name string) (*domain.Node, error) {
	n, ok := l.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, name)
	}
	return n.Clone(), nil
}

// Templates returns all available template names.
func (l *Templates) Templates(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(l.templates))
	for k := range l.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
