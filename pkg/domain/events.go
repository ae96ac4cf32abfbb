package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCommit   EventType = "commit"
	EventUndo     EventType = "undo"
	EventRedo     EventType = "redo"
	EventRejected EventType = "placement_rejected"
	EventSave     EventType = "save"
	EventPublish  EventType = "publish"
)

// Operation names the tree mutation behind a commit.
type Operation string

const (
	OpAdd       Operation = "add"
	OpRemove    Operation = "remove"
	OpDuplicate Operation = "duplicate"
	OpUpdate    Operation = "update"
	OpResize    Operation = "resize"
	OpMove      Operation = "move"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	PageID    string    `json:"page_id"`
}

// CommitEvent is emitted after a new revision entered history.
type CommitEvent struct {
	EventBase
	Operation Operation `json:"operation"`
	NodeID    string    `json:"node_id,omitempty"`
	Revision  uint64    `json:"revision"`
	Message   string    `json:"message"`
}

// HistoryEvent is emitted on undo and redo.
type HistoryEvent struct {
	EventBase
	Revision uint64 `json:"revision"`
}

// PlacementEvent is emitted when the validator rejects an operation.
type PlacementEvent struct {
	EventBase
	Operation Operation `json:"operation"`
	Errors    []string  `json:"errors"`
}

// PersistEvent is emitted when a save or publish completes.
type PersistEvent struct {
	EventBase
	Revision uint64        `json:"revision"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for editor observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnCommit   func(context.Context, *CommitEvent)
	OnUndo     func(context.Context, *HistoryEvent)
	OnRedo     func(context.Context, *HistoryEvent)
	OnRejected func(context.Context, *PlacementEvent)
	OnSave     func(context.Context, *PersistEvent)
	OnPublish  func(context.Context, *PersistEvent)
}

// Merge returns hooks calling h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnCommit:   chain(h.OnCommit, other.OnCommit),
		OnUndo:     chain(h.OnUndo, other.OnUndo),
		OnRedo:     chain(h.OnRedo, other.OnRedo),
		OnRejected: chain(h.OnRejected, other.OnRejected),
		OnSave:     chain(h.OnSave, other.OnSave),
		OnPublish:  chain(h.OnPublish, other.OnPublish),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
