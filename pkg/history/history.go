// Package history implements the undo/redo state machine over document revisions.
//
// Documents are immutable per revision, so the stacks hold plain references
// and sharing between revisions is safe.
package history

import "github.com/aretw0/lattice/pkg/domain"

// State is a snapshot of the three stacks. Future[0] is the next redo.
type State struct {
	Past    []domain.Document `json:"past"`
	Present domain.Document   `json:"present"`
	Future  []domain.Document `json:"future"`
}

// Option configures a Machine.
type Option func(*Machine)

// WithLimit caps the number of undo steps. The oldest entries are dropped
// first. Zero or less means unlimited.
func WithLimit(n int) Option {
	return func(m *Machine) {
		m.limit = n
	}
}

// Machine holds past, present and future documents.
// It is not safe for concurrent use; the editor serialises access.
type Machine struct {
	past    []domain.Document
	present domain.Document
	future  []domain.Document
	limit   int

	// message is the live announcement for the last commit. It is not part
	// of the stacks and undo/redo never restore it.
	message string
}

// New creates a machine whose present is initial.
func New(initial domain.Document, opts ...Option) *Machine {
	m := &Machine{present: initial}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Commit pushes the present onto past, clears future and makes doc the present.
func (m *Machine) Commit(doc domain.Document, message string) {
	m.past = append(m.past, m.present)
	if m.limit > 0 && len(m.past) > m.limit {
		m.past = append([]domain.Document(nil), m.past[len(m.past)-m.limit:]...)
	}
	m.future = nil
	m.present = doc
	m.message = message
}

// Undo moves the tail of past into present. It returns false when there is
// nothing to undo.
func (m *Machine) Undo() bool {
	if len(m.past) == 0 {
		return false
	}
	last := len(m.past) - 1
	prev := m.past[last]
	m.past = m.past[:last]
	m.future = append([]domain.Document{m.present}, m.future...)
	m.present = prev
	return true
}

// Redo moves the head of future into present. It returns false when there
// is nothing to redo.
func (m *Machine) Redo() bool {
	if len(m.future) == 0 {
		return false
	}
	next := m.future[0]
	m.future = m.future[1:]
	m.past = append(m.past, m.present)
	m.present = next
	return true
}

// Clear empties past and future and keeps present, so nothing before a
// persisted checkpoint can be undone.
func (m *Machine) Clear() {
	m.past = nil
	m.future = nil
}

func (m *Machine) Present() domain.Document { return m.present }
func (m *Machine) CanUndo() bool            { return len(m.past) > 0 }
func (m *Machine) CanRedo() bool            { return len(m.future) > 0 }
func (m *Machine) LiveMessage() string      { return m.message }

// State returns a snapshot of the stacks. The slices are copies; the
// documents are shared.
func (m *Machine) State() State {
	return State{
		Past:    append([]domain.Document(nil), m.past...),
		Present: m.present,
		Future:  append([]domain.Document(nil), m.future...),
	}
}
