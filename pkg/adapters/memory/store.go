package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
)

// Store implements ports.DocumentStore and ports.Publisher in memory.
// Documents are deep-copied on the way in and out, like a serialising store.
// Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	data      map[string]domain.Document
	published map[string]domain.Document
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data:      make(map[string]domain.Document),
		published: make(map[string]domain.Document),
	}
}

// Save persists the document in memory.
func (s *Store) Save(ctx context.Context, pageID string, doc domain.Document) error {
	copied := doc.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[pageID] = copied
	return nil
}

// Load retrieves the document from memory.
func (s *Store) Load(ctx context.Context, pageID string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[pageID]
	if !ok {
		return nil, domain.ErrPageNotFound
	}
	// Copy on read so callers can't mutate stored revisions by pointer
	return doc.Clone(), nil
}

// Delete removes the working copy. The published snapshot is kept.
func (s *Store) Delete(ctx context.Context, pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, pageID)
	return nil
}

// List returns the stored page IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := make([]string, 0, len(s.data))
	for id := range s.data {
		pages = append(pages, id)
	}
	sort.Strings(pages)
	return pages, nil
}

// Publish stores a published snapshot of the page.
func (s *Store) Publish(ctx context.Context, pageID string, doc domain.Document) error {
	copied := doc.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[pageID] = copied
	return nil
}

// Published returns the last published snapshot of the page.
func (s *Store) Published(ctx context.Context, pageID string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.published[pageID]
	if !ok {
		return nil, domain.ErrPageNotFound
	}
	return doc.Clone(), nil
}
