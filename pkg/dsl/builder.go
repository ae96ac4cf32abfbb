package dsl

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/placement"
)

// ErrDuplicateID is returned by Build when two components share an id.
var ErrDuplicateID = domain.ErrDuplicateID

// Builder manages the document construction.
type Builder struct {
	roots        []*NodeBuilder
	sectionsOnly bool
}

// New creates a new document builder.
func New() *Builder {
	return &Builder{}
}

// SectionsOnly makes Build apply the sections-only root rule.
func (b *Builder) SectionsOnly() *Builder {
	b.sectionsOnly = true
	return b
}

// Add appends a new root component.
func (b *Builder) Add(id string, typ domain.ComponentType) *NodeBuilder {
	nb := newNodeBuilder(id, typ, nil)
	b.roots = append(b.roots, nb)
	return nb
}

// Build assembles the document. It fails on duplicate ids and on
// placement violations; the placement error wraps domain.ErrPlacementRejected.
func (b *Builder) Build() (domain.Document, error) {
	doc := make(domain.Document, 0, len(b.roots))
	for _, nb := range b.roots {
		doc = append(doc, nb.Build())
	}

	seen := make(map[string]bool)
	var dup error
	var walk func(nodes []*domain.Node)
	walk = func(nodes []*domain.Node) {
		for _, n := range nodes {
			if seen[n.ID] && dup == nil {
				dup = fmt.Errorf("%w: %q", ErrDuplicateID, n.ID)
			}
			seen[n.ID] = true
			walk(n.Children)
		}
	}
	walk(doc)
	if dup != nil {
		return nil, dup
	}

	if err := placement.ValidateDocument(doc, b.sectionsOnly).Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

// MustBuild is like Build but panics on error. Meant for fixtures.
func (b *Builder) MustBuild() domain.Document {
	doc, err := b.Build()
	if err != nil {
		panic(err)
	}
	return doc
}
