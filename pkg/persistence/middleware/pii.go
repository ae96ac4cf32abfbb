package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Mask replaces redacted prop values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks the values of props whose
// key matches one of the patterns, at any depth of the prop bag.
// Masked values are lost: Load returns the mask.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.DocumentStore) Store {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

// redact works on a deep copy so the editor's in-memory revisions stay intact.
func (m *piiMiddleware) redact(doc domain.Document) domain.Document {
	cloned := doc.Clone()
	var visit func(nodes []*domain.Node)
	visit = func(nodes []*domain.Node) {
		for _, n := range nodes {
			maskMap(n.Props, m.patterns)
			visit(n.Children)
		}
	}
	visit(cloned)
	return cloned
}

func (m *piiMiddleware) Save(ctx context.Context, pageID string, doc domain.Document) error {
	return m.next.Save(ctx, pageID, m.redact(doc))
}

func (m *piiMiddleware) Publish(ctx context.Context, pageID string, doc domain.Document) error {
	return publish(ctx, m.next, pageID, m.redact(doc))
}

func (m *piiMiddleware) Load(ctx context.Context, pageID string) (domain.Document, error) {
	return m.next.Load(ctx, pageID)
}

func (m *piiMiddleware) Delete(ctx context.Context, pageID string) error {
	return m.next.Delete(ctx, pageID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if masked {
			continue
		}

		switch val := v.(type) {
		case map[string]any:
			maskMap(val, patterns)
		case []any:
			for _, item := range val {
				if sub, ok := item.(map[string]any); ok {
					maskMap(sub, patterns)
				}
			}
		}
	}
}
