package domain

import (
	"maps"
)

// Node is a single component in a page document.
// Nodes are treated as immutable once they belong to a committed document:
// mutations rebuild the path from the root to the changed node and share
// every untouched subtree by pointer.
type Node struct {
	ID   string        `json:"id" yaml:"id" mapstructure:"id"`
	Type ComponentType `json:"type" yaml:"type" mapstructure:"type"`

	// Props is the component-specific property bag. The engine never
	// interprets it beyond a few numeric and geometry keys.
	Props map[string]any `json:"props,omitempty" yaml:"props,omitempty" mapstructure:"props"`

	// Children is only meaningful on container types.
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty" mapstructure:"children"`
}

// Document is the ordered forest of root-level components of a page.
type Document []*Node

// Patch is a shallow property patch merged into Node.Props.
type Patch map[string]any

// Location addresses an insertion or removal point.
// An empty ParentID addresses the root list.
type Location struct {
	ParentID string `json:"parent_id,omitempty"`
	Index    int    `json:"index"`
}

// RootLocation is a Location in the root list.
func RootLocation(index int) Location {
	return Location{Index: index}
}

// IsRoot reports whether the location addresses the root list.
func (l Location) IsRoot() bool {
	return l.ParentID == ""
}

// NewNode creates a node with an empty property bag.
// Container types get an empty (non-nil) children list.
func NewNode(id string, typ ComponentType, props map[string]any) *Node {
	n := &Node{ID: id, Type: typ, Props: props}
	if n.Props == nil {
		n.Props = map[string]any{}
	}
	if typ.IsContainer() {
		n.Children = []*Node{}
	}
	return n
}

// ShallowCopy returns a copy of the node that shares Props and Children.
func (n *Node) ShallowCopy() *Node {
	c := *n
	return &c
}

// Clone returns a deep copy of the node and all its descendants.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		ID:    n.ID,
		Type:  n.Type,
		Props: cloneProps(n.Props),
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// Clone returns a deep copy of the document.
// Stores use it to isolate persisted revisions from callers.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for i, n := range d {
		out[i] = n.Clone()
	}
	return out
}

// Count returns the number of nodes in the document, at any depth.
func (d Document) Count() int {
	total := 0
	var visit func(nodes []*Node)
	visit = func(nodes []*Node) {
		for _, n := range nodes {
			total++
			visit(n.Children)
		}
	}
	visit(d)
	return total
}

func cloneProps(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneProps(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

// MergeProps returns a new property map with patch applied over base.
func MergeProps(base map[string]any, patch Patch) map[string]any {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
