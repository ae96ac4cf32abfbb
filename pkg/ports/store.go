package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// DocumentStore defines the interface for persisting the working copy of a page.
// The autosave coordinator writes through it after every debounce cycle.
type DocumentStore interface {
	// Save persists the document for a given page ID.
	Save(ctx context.Context, pageID string, doc domain.Document) error

	// Load retrieves the document for a given page ID.
	// Returns domain.ErrPageNotFound if the page does not exist.
	Load(ctx context.Context, pageID string) (domain.Document, error)

	// Delete removes the document for a given page ID.
	Delete(ctx context.Context, pageID string) error

	// List returns the IDs of all stored pages.
	List(ctx context.Context) ([]string, error)
}

// Publisher persists a published snapshot, separate from the working copy.
type Publisher interface {
	Publish(ctx context.Context, pageID string, doc domain.Document) error
}

// IDGenerator mints globally unique node ids.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a plain function to IDGenerator.
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }
