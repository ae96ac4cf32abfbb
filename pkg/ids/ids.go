// Package ids provides node id generators for the editor.
package ids

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ULID mints lexicographically sortable ids. It is the editor default.
type ULID struct {
	// Prefix is prepended to every id, e.g. "cmp_".
	Prefix string
}

// NewID implements ports.IDGenerator.
func (g ULID) NewID() string {
	return g.Prefix + ulid.Make().String()
}

// UUID mints random (v4) UUIDs.
type UUID struct {
	Prefix string
}

// NewID implements ports.IDGenerator.
func (g UUID) NewID() string {
	return g.Prefix + uuid.New().String()
}

// Sequence mints predictable ids ("<prefix><n>") and is meant for tests,
// fixtures and golden files. Safe for concurrent use.
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

// NewSequence creates a sequence whose first id is prefix+"1".
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// NewID implements ports.IDGenerator.
func (s *Sequence) NewID() string {
	return s.prefix + strconv.FormatUint(s.n.Add(1), 10)
}
