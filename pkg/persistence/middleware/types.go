package middleware

import (
	"context"

	"github.com/aretw0/lattice/pkg/autosave"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Store is a DocumentStore that can also publish. Every middleware returns
// one; Publish fails with autosave.ErrNoPublisher when the wrapped store
// cannot publish.
type Store interface {
	ports.DocumentStore
	ports.Publisher
}

// Middleware allows wrapping a DocumentStore to add behavior.
type Middleware func(ports.DocumentStore) Store

// Chain wraps store with mws. The first middleware is the outermost one,
// so it sees documents first on Save and last on Load.
func Chain(store ports.DocumentStore, mws ...Middleware) ports.DocumentStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

func publish(ctx context.Context, next ports.DocumentStore, pageID string, doc domain.Document) error {
	p, ok := next.(ports.Publisher)
	if !ok {
		return autosave.ErrNoPublisher
	}
	return p.Publish(ctx, pageID, doc)
}
