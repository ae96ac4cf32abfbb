package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed page lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager is the workspace of open editors. It opens each page at most once
// per process and serializes open/close/delete of the same page.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.DocumentStore

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // page id -> lock

	editorsMu sync.RWMutex
	editors   map[string]*lattice.Editor

	locker     ports.DistributedLocker
	lockTTL    time.Duration
	logger     *slog.Logger
	editorOpts []lattice.Option
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking around page open, close and delete.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEditorOptions sets options applied to every editor the manager opens.
func WithEditorOptions(opts ...lattice.Option) Option {
	return func(m *Manager) {
		m.editorOpts = append(m.editorOpts, opts...)
	}
}

// NewManager creates a new Manager backed by store.
// When store also implements ports.Publisher, editors publish through it.
func NewManager(store ports.DocumentStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		editors: make(map[string]*lattice.Editor),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(pageID) after unlocking.
func (m *Manager) acquire(pageID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[pageID]
	if !exists {
		entry = &lockEntry{}
		m.locks[pageID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(pageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[pageID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, pageID)
	}
}

// Open returns the editor for pageID, loading it from the store on first use.
func (m *Manager) Open(ctx context.Context, pageID string) (*lattice.Editor, error) {
	if ed, ok := m.Get(pageID); ok {
		return ed, nil
	}

	var ed *lattice.Editor
	err := m.WithLock(ctx, pageID, func(ctx context.Context) error {
		// Another caller may have opened it while we waited.
		if existing, ok := m.Get(pageID); ok {
			ed = existing
			return nil
		}

		opts := append([]lattice.Option{lattice.WithLogger(m.logger)}, m.editorOpts...)
		if p, ok := m.store.(ports.Publisher); ok {
			opts = append(opts, lattice.WithPublisher(p))
		}

		var err error
		ed, err = lattice.Open(ctx, pageID, m.store, opts...)
		if err != nil {
			return err
		}

		m.editorsMu.Lock()
		m.editors[pageID] = ed
		m.editorsMu.Unlock()

		m.logger.Debug("Page opened", "page_id", pageID, "revision", ed.Revision())
		return nil
	})
	return ed, err
}

// Get returns an already open editor.
func (m *Manager) Get(pageID string) (*lattice.Editor, bool) {
	m.editorsMu.RLock()
	defer m.editorsMu.RUnlock()
	ed, ok := m.editors[pageID]
	return ed, ok
}

// Pages returns the ids of the open pages, sorted.
func (m *Manager) Pages() []string {
	m.editorsMu.RLock()
	defer m.editorsMu.RUnlock()
	ids := make([]string, 0, len(m.editors))
	for id := range m.editors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close flushes and closes the editor of pageID. Closing a page that is not
// open is a no-op.
func (m *Manager) Close(ctx context.Context, pageID string) error {
	return m.WithLock(ctx, pageID, func(ctx context.Context) error {
		return m.closeLocked(ctx, pageID)
	})
}

func (m *Manager) closeLocked(ctx context.Context, pageID string) error {
	m.editorsMu.Lock()
	ed, ok := m.editors[pageID]
	delete(m.editors, pageID)
	m.editorsMu.Unlock()

	if !ok {
		return nil
	}
	if err := ed.Close(ctx); err != nil {
		return fmt.Errorf("failed to close page %s: %w", pageID, err)
	}
	m.logger.Debug("Page closed", "page_id", pageID)
	return nil
}

// CloseAll closes every open editor and joins their errors.
func (m *Manager) CloseAll(ctx context.Context) error {
	var errs []error
	for _, id := range m.Pages() {
		if err := m.Close(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delete closes the page and removes its working copy from the store.
func (m *Manager) Delete(ctx context.Context, pageID string) error {
	return m.WithLock(ctx, pageID, func(ctx context.Context) error {
		if err := m.closeLocked(ctx, pageID); err != nil {
			return err
		}
		return m.store.Delete(ctx, pageID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying document store.
func (m *Manager) Store() ports.DocumentStore {
	return m.store
}

// WithLock executes a function while holding the lock for the page.
func (m *Manager) WithLock(ctx context.Context, pageID string, fn func(context.Context) error) error {
	entry := m.acquire(pageID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(pageID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, pageID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"page_id", pageID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
