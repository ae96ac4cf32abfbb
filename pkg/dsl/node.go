package dsl

import (
	"maps"

	"github.com/aretw0/lattice/pkg/controls"
	"github.com/aretw0/lattice/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a component.
type NodeBuilder struct {
	id       string
	typ      domain.ComponentType
	props    map[string]any
	children []*NodeBuilder
	parent   *NodeBuilder
}

func newNodeBuilder(id string, typ domain.ComponentType, parent *NodeBuilder) *NodeBuilder {
	return &NodeBuilder{
		id:     id,
		typ:    typ,
		props:  make(map[string]any),
		parent: parent,
	}
}

// Prop sets a single prop.
func (n *NodeBuilder) Prop(key string, value any) *NodeBuilder {
	n.props[key] = value
	return n
}

// Props merges props into the component.
func (n *NodeBuilder) Props(props map[string]any) *NodeBuilder {
	for k, v := range props {
		n.props[k] = v
	}
	return n
}

// Localized sets the locale variant of a translatable prop, keeping the
// other locales.
func (n *NodeBuilder) Localized(key, locale string, value any) *NodeBuilder {
	for k, v := range controls.LocalizedPatch(n.props, key, locale, value) {
		n.props[k] = v
	}
	return n
}

// Add appends a child component and returns its builder.
func (n *NodeBuilder) Add(id string, typ domain.ComponentType) *NodeBuilder {
	child := newNodeBuilder(id, typ, n)
	n.children = append(n.children, child)
	return child
}

// Parent returns the enclosing builder, or nil for root components.
func (n *NodeBuilder) Parent() *NodeBuilder {
	return n.parent
}

// Build returns a fresh copy of the component subtree.
func (n *NodeBuilder) Build() *domain.Node {
	node := domain.NewNode(n.id, n.typ, maps.Clone(n.props))
	for _, c := range n.children {
		node.Children = append(node.Children, c.Build())
	}
	return node
}
