package tree

import "github.com/aretw0/lattice/pkg/domain"

// Find returns the first node with the given id, or nil.
func Find(doc domain.Document, id string) *domain.Node {
	var found *domain.Node
	Walk(doc, func(n, _ *domain.Node, _ int) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Locate returns the location of the node with the given id.
func Locate(doc domain.Document, id string) (domain.Location, bool) {
	var loc domain.Location
	found := false
	Walk(doc, func(n, parent *domain.Node, _ int) bool {
		if n.ID != id {
			return true
		}
		siblings := []*domain.Node(doc)
		if parent != nil {
			loc.ParentID = parent.ID
			siblings = parent.Children
		}
		for i, s := range siblings {
			if s == n {
				loc.Index = i
				break
			}
		}
		found = true
		return false
	})
	return loc, found
}

// Parent returns the parent of the node with the given id. The second
// result is false when the id is unknown; a root node has a nil parent.
func Parent(doc domain.Document, id string) (*domain.Node, bool) {
	var parent *domain.Node
	found := false
	Walk(doc, func(n, p *domain.Node, _ int) bool {
		if n.ID == id {
			parent, found = p, true
			return false
		}
		return true
	})
	return parent, found
}

// Walk visits every node depth-first, left to right. fn receives the node,
// its parent (nil for roots) and its depth (0 for roots). Returning false
// stops the walk.
func Walk(doc domain.Document, fn func(node, parent *domain.Node, depth int) bool) {
	var visit func(nodes []*domain.Node, parent *domain.Node, depth int) bool
	visit = func(nodes []*domain.Node, parent *domain.Node, depth int) bool {
		for _, n := range nodes {
			if !fn(n, parent, depth) {
				return false
			}
			if !visit(n.Children, n, depth+1) {
				return false
			}
		}
		return true
	}
	visit(doc, nil, 0)
}

// IDs returns every id in the document in walk order.
func IDs(doc domain.Document) []string {
	var ids []string
	Walk(doc, func(n, _ *domain.Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

// Changed reports whether after is a different revision than before.
// Operations that hit nothing return the same root nodes, so comparing root
// pointers is enough.
func Changed(before, after domain.Document) bool {
	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if before[i] != after[i] {
			return true
		}
	}
	return false
}
