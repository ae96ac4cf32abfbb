package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// TemplateLibrary resolves palette templates: prebuilt component subtrees
// that the editor inserts with fresh ids.
type TemplateLibrary interface {
	// Template returns the subtree registered under name.
	// Returns domain.ErrTemplateNotFound if there is no such template.
	Template(ctx context.Context, name string) (*domain.Node, error)

	// Templates lists the available template names, sorted.
	Templates(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that receives the name of each changed entry.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
