package tree

import (
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Add inserts node at index under the container parentID.
// An empty parentID inserts into the root list. An index outside [0, len]
// appends. Only container nodes accept children.
func Add(doc domain.Document, parentID string, index int, node *domain.Node) domain.Document {
	if parentID == "" {
		return insertAt(doc, index, node)
	}
	out, ok := rewrite(doc, parentID, func(n *domain.Node) (*domain.Node, bool) {
		if !n.Type.IsContainer() {
			return nil, false
		}
		c := n.ShallowCopy()
		c.Children = insertAt(n.Children, index, node)
		return c, true
	})
	if !ok {
		return clone(doc)
	}
	return out
}

// Remove deletes the node with the given id and its whole subtree, at any depth.
func Remove(doc domain.Document, id string) domain.Document {
	out, ok := removeFrom(doc, id)
	if !ok {
		return clone(doc)
	}
	return out
}

func removeFrom(nodes []*domain.Node, id string) ([]*domain.Node, bool) {
	for i, n := range nodes {
		if n.ID == id {
			return removeAt(nodes, i), true
		}
		if len(n.Children) == 0 {
			continue
		}
		if children, ok := removeFrom(n.Children, id); ok {
			return replaceAt(nodes, i, withChildren(n, children)), true
		}
	}
	return nodes, false
}

// Duplicate deep-clones the first node matching id (depth-first, left to
// right) and inserts the clone right after it. The clone and each of its
// descendants receive a fresh id from gen; type and props are copied verbatim.
// Once a match is duplicated the scan stops, so a residual id collision never
// yields a second copy.
func Duplicate(doc domain.Document, id string, gen ports.IDGenerator) domain.Document {
	duplicated := false
	var visit func(nodes []*domain.Node) []*domain.Node
	visit = func(nodes []*domain.Node) []*domain.Node {
		for i, n := range nodes {
			if duplicated {
				break
			}
			if n.ID == id {
				duplicated = true
				return insertAt(nodes, i+1, CloneWithNewIDs(n, gen))
			}
			if len(n.Children) == 0 {
				continue
			}
			if children := visit(n.Children); duplicated {
				return replaceAt(nodes, i, withChildren(n, children))
			}
		}
		return nodes
	}
	out := visit(doc)
	if !duplicated {
		return clone(doc)
	}
	return out
}

// CloneWithNewIDs deep-copies n and gives the copy and every descendant a
// fresh id from gen.
func CloneWithNewIDs(n *domain.Node, gen ports.IDGenerator) *domain.Node {
	c := n.Clone()
	var reassign func(*domain.Node)
	reassign = func(node *domain.Node) {
		node.ID = gen.NewID()
		for _, child := range node.Children {
			reassign(child)
		}
	}
	reassign(c)
	return c
}

// Update shallow-merges patch onto the props of the node with the given id.
// Numeric fields are coerced, see CoercePatch.
func Update(doc domain.Document, id string, patch domain.Patch) domain.Document {
	set, unset := CoercePatch(patch)
	return merge(doc, id, set, unset)
}

// Resize shallow-merges a geometry or style patch without coercion.
func Resize(doc domain.Document, id string, patch domain.Patch) domain.Document {
	return merge(doc, id, patch, nil)
}

func merge(doc domain.Document, id string, patch domain.Patch, unset []string) domain.Document {
	out, ok := rewrite(doc, id, func(n *domain.Node) (*domain.Node, bool) {
		c := n.ShallowCopy()
		c.Props = domain.MergeProps(n.Props, patch)
		for _, k := range unset {
			delete(c.Props, k)
		}
		return c, true
	})
	if !ok {
		return clone(doc)
	}
	return out
}

// Move extracts the node at from and re-inserts that same node at to, with
// the add algorithm applied to the already shrunk tree. When both locations
// share a list, to.Index is relative to the list without the moved node.
//
// The move is a no-op when from addresses nothing, when the node would land
// back in its own slot, or when the destination parent no longer exists
// after extraction (which is the case when it is the moved node itself or
// one of its descendants).
func Move(doc domain.Document, from, to domain.Location) domain.Document {
	shrunk, node, ok := extract(doc, from)
	if !ok {
		return clone(doc)
	}
	if from.ParentID == to.ParentID && slotIndex(shrunk, to) == from.Index {
		return clone(doc)
	}
	if !to.IsRoot() {
		target := Find(shrunk, to.ParentID)
		if target == nil || !target.Type.IsContainer() {
			return clone(doc)
		}
	}
	return Add(shrunk, to.ParentID, to.Index, node)
}

// slotIndex is the index Add would insert at for loc, after clamping.
func slotIndex(doc domain.Document, loc domain.Location) int {
	n := len(doc)
	if !loc.IsRoot() {
		if parent := Find(doc, loc.ParentID); parent != nil {
			n = len(parent.Children)
		}
	}
	if loc.Index < 0 || loc.Index > n {
		return n
	}
	return loc.Index
}

// DropNil returns doc without nil nodes at any depth. Subtrees that hold no
// nil entry are shared with doc.
func DropNil(doc domain.Document) domain.Document {
	out, _ := dropNil(doc)
	return out
}

func dropNil(nodes []*domain.Node) ([]*domain.Node, bool) {
	out := make([]*domain.Node, 0, len(nodes))
	dropped := false
	for _, n := range nodes {
		if n == nil {
			dropped = true
			continue
		}
		if children, ok := dropNil(n.Children); ok {
			n = withChildren(n, children)
			dropped = true
		}
		out = append(out, n)
	}
	if !dropped {
		return nodes, false
	}
	return out, true
}

func extract(doc domain.Document, from domain.Location) (domain.Document, *domain.Node, bool) {
	if from.IsRoot() {
		if from.Index < 0 || from.Index >= len(doc) {
			return nil, nil, false
		}
		return removeAt(doc, from.Index), doc[from.Index], true
	}
	var node *domain.Node
	out, ok := rewrite(doc, from.ParentID, func(n *domain.Node) (*domain.Node, bool) {
		if from.Index < 0 || from.Index >= len(n.Children) {
			return nil, false
		}
		node = n.Children[from.Index]
		return withChildren(n, removeAt(n.Children, from.Index)), true
	})
	return out, node, ok
}

// rewrite finds the first node with the given id and replaces it with the
// result of fn, rebuilding the spine above it. fn may decline by returning false.
func rewrite(nodes []*domain.Node, id string, fn func(*domain.Node) (*domain.Node, bool)) ([]*domain.Node, bool) {
	for i, n := range nodes {
		if n.ID == id {
			replacement, ok := fn(n)
			if !ok {
				return nodes, false
			}
			return replaceAt(nodes, i, replacement), true
		}
		if len(n.Children) == 0 {
			continue
		}
		if children, ok := rewrite(n.Children, id, fn); ok {
			return replaceAt(nodes, i, withChildren(n, children)), true
		}
	}
	return nodes, false
}

func withChildren(n *domain.Node, children []*domain.Node) *domain.Node {
	c := n.ShallowCopy()
	c.Children = children
	return c
}

func insertAt(nodes []*domain.Node, index int, node *domain.Node) []*domain.Node {
	if index < 0 || index > len(nodes) {
		index = len(nodes)
	}
	out := make([]*domain.Node, 0, len(nodes)+1)
	out = append(out, nodes[:index]...)
	out = append(out, node)
	return append(out, nodes[index:]...)
}

func removeAt(nodes []*domain.Node, index int) []*domain.Node {
	out := make([]*domain.Node, 0, len(nodes)-1)
	out = append(out, nodes[:index]...)
	return append(out, nodes[index+1:]...)
}

func replaceAt(nodes []*domain.Node, index int, node *domain.Node) []*domain.Node {
	out := make([]*domain.Node, len(nodes))
	copy(out, nodes)
	out[index] = node
	return out
}

func clone(doc domain.Document) domain.Document {
	out := make(domain.Document, len(doc))
	copy(out, doc)
	return out
}
