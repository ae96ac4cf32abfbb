package lattice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/geometry"
	"github.com/aretw0/lattice/pkg/placement"
	"github.com/aretw0/lattice/pkg/tree"
)

// mutation computes the next document from the present one. Returning the
// present document unchanged (by root pointers) means "nothing happened".
type mutation func(present domain.Document) (domain.Document, error)

// change is the outcome of one commit. before and after are the documents
// on either side of it, read under the editor lock.
type change struct {
	changed  bool
	revision uint64
	message  string
	before   domain.Document
	after    domain.Document
}

// apply runs fn under the editor lock and commits its result.
func (e *Editor) apply(op domain.Operation, nodeID, message string, fn mutation) (change, error) {
	ctx := context.Background()

	c, err := e.commit(fn, message)
	if err != nil {
		e.rejected(ctx, op, err)
		return change{}, err
	}
	if !c.changed {
		e.logger.Debug("no-op", "operation", op, "node_id", nodeID)
		return c, nil
	}

	e.logger.Debug("committed", "operation", op, "node_id", nodeID, "revision", c.revision)
	if e.hooks.OnCommit != nil {
		e.hooks.OnCommit(ctx, &domain.CommitEvent{
			EventBase: e.base(domain.EventCommit),
			Operation: op,
			NodeID:    nodeID,
			Revision:  c.revision,
			Message:   message,
		})
	}
	if e.autosave != nil {
		e.autosave.Notify()
	}
	return c, nil
}

func (e *Editor) commit(fn mutation, message string) (change, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return change{}, domain.ErrEditorClosed
	}
	present := e.history.Present()
	next, err := fn(present)
	if err != nil {
		return change{}, err
	}
	if !tree.Changed(present, next) {
		return change{revision: e.revision, message: e.history.LiveMessage()}, nil
	}
	e.history.Commit(next, message)
	e.revision++
	return change{
		changed:  true,
		revision: e.revision,
		message:  e.history.LiveMessage(),
		before:   present,
		after:    next,
	}, nil
}

func (e *Editor) rejected(ctx context.Context, op domain.Operation, err error) {
	var perr *placement.Error
	if !errors.As(err, &perr) {
		return
	}
	e.logger.Info("placement rejected", "operation", op, "errors", perr.Result.Errors)
	if e.hooks.OnRejected != nil {
		e.hooks.OnRejected(ctx, &domain.PlacementEvent{
			EventBase: e.base(domain.EventRejected),
			Operation: op,
			Errors:    perr.Result.Errors,
		})
	}
}

func (e *Editor) base(typ domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: typ, PageID: e.pageID}
}

// parentType resolves the type a child placed under parentID is checked
// against. ok is false when the parent does not exist.
func parentType(doc domain.Document, parentID string) (domain.ComponentType, bool) {
	if parentID == "" {
		return domain.TypeRoot, true
	}
	parent := tree.Find(doc, parentID)
	if parent == nil {
		return "", false
	}
	return parent.Type, true
}

func (e *Editor) check(node *domain.Node, parent domain.ComponentType) error {
	return placement.ValidateNode(node, placement.Options{Parent: parent, SectionsOnly: e.sectionsOnly}).Err()
}

// AddComponent creates a component of type typ with a fresh id and inserts
// it at loc. It returns the new id.
func (e *Editor) AddComponent(loc domain.Location, typ domain.ComponentType, props map[string]any) (string, error) {
	node := domain.NewNode(e.ids.NewID(), typ, props)
	c, err := e.insert(loc, node)
	if err != nil || !c.changed {
		return "", err
	}
	return node.ID, nil
}

// Insert places an existing subtree at loc. Ids already present in the
// document are rejected with domain.ErrDuplicateID.
func (e *Editor) Insert(loc domain.Location, node *domain.Node) (bool, error) {
	c, err := e.insert(loc, node)
	return c.changed, err
}

func (e *Editor) insert(loc domain.Location, node *domain.Node) (change, error) {
	msg := fmt.Sprintf("%s added", node.Type)
	return e.apply(domain.OpAdd, node.ID, msg, func(doc domain.Document) (domain.Document, error) {
		pt, ok := parentType(doc, loc.ParentID)
		if !ok {
			return doc, nil
		}
		if err := e.check(node, pt); err != nil {
			return nil, err
		}
		if id, ok := duplicateID(doc, node); ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateID, id)
		}
		return tree.Add(doc, loc.ParentID, loc.Index, node), nil
	})
}

// duplicateID returns the first id of the subtree that is already used in
// doc or repeated inside the subtree itself.
func duplicateID(doc domain.Document, node *domain.Node) (string, bool) {
	used := make(map[string]bool)
	for _, id := range tree.IDs(doc) {
		used[id] = true
	}
	for _, id := range tree.IDs(domain.Document{node}) {
		if used[id] {
			return id, true
		}
		used[id] = true
	}
	return "", false
}

// AddFromTemplate inserts a copy of the named palette template at loc. Every
// node of the copy gets a fresh id. It returns the id of the new root.
func (e *Editor) AddFromTemplate(ctx context.Context, name string, loc domain.Location) (string, error) {
	node, err := e.templateNode(ctx, name)
	if err != nil {
		return "", err
	}
	c, err := e.insert(loc, node)
	if err != nil || !c.changed {
		return "", err
	}
	return node.ID, nil
}

func (e *Editor) templateNode(ctx context.Context, name string) (*domain.Node, error) {
	if e.templates == nil {
		return nil, fmt.Errorf("%w: no template library configured", domain.ErrTemplateNotFound)
	}
	tpl, err := e.templates.Template(ctx, name)
	if err != nil {
		return nil, err
	}
	return tree.CloneWithNewIDs(tpl, e.ids), nil
}

// Remove deletes a component and its subtree.
func (e *Editor) Remove(id string) (bool, error) {
	c, err := e.remove(id)
	return c.changed, err
}

func (e *Editor) remove(id string) (change, error) {
	return e.apply(domain.OpRemove, id, "Component removed", func(doc domain.Document) (domain.Document, error) {
		return tree.Remove(doc, id), nil
	})
}

// RemoveSelection deletes every selected component in a single commit.
// Unknown ids are skipped.
func (e *Editor) RemoveSelection(sel domain.Selection) (bool, error) {
	c, err := e.removeSelection(sel)
	return c.changed, err
}

func (e *Editor) removeSelection(sel domain.Selection) (change, error) {
	present := e.Document()
	var ids []string
	for _, id := range sel.IDs() {
		if tree.Find(present, id) != nil {
			ids = append(ids, id)
		}
	}
	msg := fmt.Sprintf("%d components removed", len(ids))
	if len(ids) == 1 {
		msg = "Component removed"
	}
	return e.apply(domain.OpRemove, "", msg, func(doc domain.Document) (domain.Document, error) {
		out := doc
		for _, id := range ids {
			out = tree.Remove(out, id)
		}
		// tree.Remove always returns a fresh slice; compare against the input.
		if !tree.Changed(doc, out) {
			return doc, nil
		}
		return out, nil
	})
}

// Duplicate inserts a copy of the component right after it.
func (e *Editor) Duplicate(id string) (bool, error) {
	c, err := e.duplicate(id)
	return c.changed, err
}

func (e *Editor) duplicate(id string) (change, error) {
	return e.apply(domain.OpDuplicate, id, "Component duplicated", func(doc domain.Document) (domain.Document, error) {
		node := tree.Find(doc, id)
		if node == nil {
			return doc, nil
		}
		parent, _ := tree.Parent(doc, id)
		pt := domain.TypeRoot
		if parent != nil {
			pt = parent.Type
		}
		if err := e.check(node, pt); err != nil {
			return nil, err
		}
		return tree.Duplicate(doc, id, e.ids), nil
	})
}

// Update merges patch into the component props, coercing numeric fields.
func (e *Editor) Update(id string, patch domain.Patch) (bool, error) {
	c, err := e.update(id, patch)
	return c.changed, err
}

func (e *Editor) update(id string, patch domain.Patch) (change, error) {
	return e.apply(domain.OpUpdate, id, "Component updated", func(doc domain.Document) (domain.Document, error) {
		return tree.Update(doc, id, patch), nil
	})
}

// Resize merges a geometry patch into the component props.
func (e *Editor) Resize(id string, patch domain.Patch) (bool, error) {
	c, err := e.resize(id, patch)
	return c.changed, err
}

func (e *Editor) resize(id string, patch domain.Patch) (change, error) {
	return e.apply(domain.OpResize, id, "Component resized", func(doc domain.Document) (domain.Document, error) {
		return tree.Resize(doc, id, patch), nil
	})
}

// Move relocates the component at from. When from and to share a list,
// to.Index is relative to the list without the moved component.
func (e *Editor) Move(from, to domain.Location) (bool, error) {
	c, err := e.move(from, to)
	return c.changed, err
}

func (e *Editor) move(from, to domain.Location) (change, error) {
	var nodeID string
	if n := nodeAt(e.Document(), from); n != nil {
		nodeID = n.ID
	}
	return e.apply(domain.OpMove, nodeID, "Component moved", func(doc domain.Document) (domain.Document, error) {
		node := nodeAt(doc, from)
		if node == nil {
			return doc, nil
		}
		pt, ok := parentType(doc, to.ParentID)
		if !ok {
			return doc, nil
		}
		if err := e.check(node, pt); err != nil {
			return nil, err
		}
		return tree.Move(doc, from, to), nil
	})
}

func nodeAt(doc domain.Document, loc domain.Location) *domain.Node {
	list := []*domain.Node(doc)
	if !loc.IsRoot() {
		parent := tree.Find(doc, loc.ParentID)
		if parent == nil {
			return nil
		}
		list = parent.Children
	}
	if loc.Index < 0 || loc.Index >= len(list) {
		return nil
	}
	return list[loc.Index]
}

// CommitGesture ends g and commits its patch. Drags commit as moves,
// resizes and rotations as resizes.
func (e *Editor) CommitGesture(g *geometry.Gesture) (bool, error) {
	kind := g.Kind()
	nodeID, patch, ok := g.End()
	if !ok {
		return false, nil
	}
	op, msg := domain.OpResize, "Component resized"
	switch kind {
	case geometry.GestureDrag:
		op, msg = domain.OpMove, "Component moved"
	case geometry.GestureRotate:
		msg = "Component rotated"
	}
	c, err := e.apply(op, nodeID, msg, func(doc domain.Document) (domain.Document, error) {
		return tree.Resize(doc, nodeID, patch), nil
	})
	return c.changed, err
}

// CanDrop reports whether a childType may be dropped under parentID. It is
// meant for live drop-target highlighting and agrees with the checks
// committed operations run.
func (e *Editor) CanDrop(parentID string, childType domain.ComponentType) bool {
	pt, ok := parentType(e.Document(), parentID)
	if !ok {
		return false
	}
	return placement.CanDropChild(pt, childType, e.sectionsOnly)
}

// Undo reverts the last commit. It returns false when there is nothing to undo.
func (e *Editor) Undo() (bool, error) {
	c, err := e.travel(domain.EventUndo, e.history.Undo)
	return c.changed, err
}

// Redo reapplies the last undone commit.
func (e *Editor) Redo() (bool, error) {
	c, err := e.travel(domain.EventRedo, e.history.Redo)
	return c.changed, err
}

func (e *Editor) travel(typ domain.EventType, step func() bool) (change, error) {
	c, err := e.stepHistory(step)
	if err != nil || !c.changed {
		return c, err
	}

	e.logger.Debug(string(typ), "revision", c.revision)
	hook := e.hooks.OnUndo
	if typ == domain.EventRedo {
		hook = e.hooks.OnRedo
	}
	if hook != nil {
		hook(context.Background(), &domain.HistoryEvent{EventBase: e.base(typ), Revision: c.revision})
	}
	if e.autosave != nil {
		e.autosave.Notify()
	}
	return c, nil
}

func (e *Editor) stepHistory(step func() bool) (change, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return change{}, domain.ErrEditorClosed
	}
	before := e.history.Present()
	if !step() {
		return change{revision: e.revision, message: e.history.LiveMessage()}, nil
	}
	e.revision++
	return change{
		changed:  true,
		revision: e.revision,
		message:  e.history.LiveMessage(),
		before:   before,
		after:    e.history.Present(),
	}, nil
}
