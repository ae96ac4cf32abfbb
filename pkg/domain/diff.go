package domain

import (
	"reflect"
	"sort"
)

// DocumentDiff represents the changes between two document revisions.
// It is designed to be serialized to JSON for partial updates on the client.
type DocumentDiff struct {
	PageID string `json:"page_id"`

	// Revision is the revision the diff leads to.
	Revision uint64 `json:"revision"`

	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`

	// Changed lists nodes whose type or props differ.
	Changed []string `json:"changed,omitempty"`

	// Moved lists nodes that now live under a different parent.
	Moved []string `json:"moved,omitempty"`

	// Reordered is set when any list kept its members but changed order.
	Reordered bool `json:"reordered,omitempty"`
}

type placed struct {
	node   *Node
	parent string
	index  int
}

func index(doc Document) map[string]placed {
	out := make(map[string]placed)
	var visit func(parent string, nodes []*Node)
	visit = func(parent string, nodes []*Node) {
		for i, n := range nodes {
			out[n.ID] = placed{node: n, parent: parent, index: i}
			visit(n.ID, n.Children)
		}
	}
	visit("", doc)
	return out
}

// Diff calculates the difference between oldDoc and newDoc.
// Returns nil when nothing changed.
func Diff(oldDoc, newDoc Document) *DocumentDiff {
	before := index(oldDoc)
	after := index(newDoc)

	diff := &DocumentDiff{}
	for id, a := range after {
		b, ok := before[id]
		if !ok {
			diff.Added = append(diff.Added, id)
			continue
		}
		if b.parent != a.parent {
			diff.Moved = append(diff.Moved, id)
		} else if b.index != a.index {
			diff.Reordered = true
		}
		// Shared pointers mean a shared, unchanged subtree.
		if b.node == a.node {
			continue
		}
		if b.node.Type != a.node.Type || !reflect.DeepEqual(b.node.Props, a.node.Props) {
			diff.Changed = append(diff.Changed, id)
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Changed)
	sort.Strings(diff.Moved)
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *DocumentDiff) IsEmpty() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Changed) == 0 &&
		len(d.Moved) == 0 &&
		!d.Reordered
}
