// Package autosave coordinates debounced saves and explicit publishes of
// the present document.
//
// Saves run off the editing path and never block commits. They are
// serialised, so two saves never overlap, and a finished save only updates
// the status: the document being edited always wins over whatever a slow save
// carried.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/bep/debounce"
	"github.com/robfig/cron/v3"
)

// Status of the coordinator.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

// DefaultDelay is the debounce delay used when none is configured.
const DefaultDelay = 1500 * time.Millisecond

// ErrNoPublisher is returned by Publish when no publisher is configured.
var ErrNoPublisher = errors.New("no publisher configured")

// Source is the editor side of the coordinator.
type Source interface {
	// Snapshot returns the present document and its revision.
	Snapshot() (domain.Document, uint64)
	// ClearHistory is called after a successful publish.
	ClearHistory()
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithPublisher sets the collaborator used by Publish.
func WithPublisher(p ports.Publisher) Option {
	return func(c *Coordinator) {
		c.publisher = p
	}
}

// WithFlushSchedule flushes on a cron schedule (e.g. "@every 30s"), so a user
// who never pauses long enough for the debounce still gets saved.
func WithFlushSchedule(spec string) Option {
	return func(c *Coordinator) {
		c.schedule = spec
	}
}

// WithHooks registers save and publish callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Coordinator) {
		c.hooks = hooks
	}
}

// WithSavedRevision marks a revision as already persisted, typically the
// one the document was loaded at.
func WithSavedRevision(rev uint64) Option {
	return func(c *Coordinator) {
		c.lastSaved = rev
	}
}

// Coordinator runs the autosave and publish state machine for one page.
type Coordinator struct {
	pageID    string
	source    Source
	store     ports.DocumentStore
	publisher ports.Publisher
	logger    *slog.Logger
	hooks     domain.LifecycleHooks

	delay     time.Duration
	debounced func(func())
	schedule  string
	cron      *cron.Cron

	// persistMu serialises saves and publishes.
	persistMu sync.Mutex

	mu        sync.Mutex
	status    Status
	lastErr   error
	lastSaved uint64
	closed    bool
}

// New creates a coordinator. Call Start to enable the flush schedule.
func New(pageID string, source Source, store ports.DocumentStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		pageID: pageID,
		source: source,
		store:  store,
		logger: logging.NewNop(),
		delay:  DefaultDelay,
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debounced = debounce.New(c.delay)
	return c
}

// Start enables the flush schedule, if one was configured.
func (c *Coordinator) Start() error {
	if c.schedule == "" {
		return nil
	}
	c.cron = cron.New()
	if _, err := c.cron.AddFunc(c.schedule, func() {
		_ = c.Flush(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid flush schedule %q: %w", c.schedule, err)
	}
	c.cron.Start()
	return nil
}

// Notify signals a commit. It (re)starts the debounce timer and returns
// immediately.
func (c *Coordinator) Notify() {
	if c.isClosed() {
		return
	}
	c.debounced(func() {
		if c.isClosed() {
			return
		}
		_ = c.Flush(context.Background())
	})
}

// Flush saves the present document now, unless its revision was already saved.
// Without a store Flush does nothing.
func (c *Coordinator) Flush(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	doc, rev := c.source.Snapshot()
	c.mu.Lock()
	if rev == c.lastSaved {
		c.mu.Unlock()
		return nil
	}
	c.status = StatusSaving
	c.mu.Unlock()

	start := time.Now()
	err := c.store.Save(ctx, c.pageID, doc)
	duration := time.Since(start)

	c.mu.Lock()
	if err != nil {
		c.status = StatusError
		c.lastErr = err
	} else {
		c.status = StatusIdle
		c.lastErr = nil
		c.lastSaved = rev
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("autosave failed", "page_id", c.pageID, "revision", rev, "err", err)
	} else {
		c.logger.Debug("autosaved", "page_id", c.pageID, "revision", rev, "duration", duration)
	}
	if c.hooks.OnSave != nil {
		c.hooks.OnSave(ctx, c.event(domain.EventSave, rev, duration, err))
	}
	if err != nil {
		return fmt.Errorf("failed to save page %s: %w", c.pageID, err)
	}
	return nil
}

// Publish persists a published snapshot of the present document. On success
// the source history is cleared and the status becomes saved.
func (c *Coordinator) Publish(ctx context.Context) error {
	if c.publisher == nil {
		return ErrNoPublisher
	}
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	doc, rev := c.source.Snapshot()
	c.setStatus(StatusSaving, nil)

	start := time.Now()
	err := c.publisher.Publish(ctx, c.pageID, doc)
	duration := time.Since(start)

	if err != nil {
		c.setStatus(StatusError, err)
		c.logger.Error("publish failed", "page_id", c.pageID, "revision", rev, "err", err)
	} else {
		c.source.ClearHistory()
		c.setStatus(StatusSaved, nil)
		c.logger.Info("published", "page_id", c.pageID, "revision", rev)
	}
	if c.hooks.OnPublish != nil {
		c.hooks.OnPublish(ctx, c.event(domain.EventPublish, rev, duration, err))
	}
	if err != nil {
		return fmt.Errorf("failed to publish page %s: %w", c.pageID, err)
	}
	return nil
}

// Close stops the schedule and flushes pending changes.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.cron != nil {
		<-c.cron.Stop().Done()
	}
	return c.Flush(ctx)
}

// Status returns the current status.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the error of the last failed save or publish, if the
// coordinator is in StatusError.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SavedRevision returns the last revision persisted through the store.
func (c *Coordinator) SavedRevision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSaved
}

func (c *Coordinator) setStatus(s Status, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
	c.lastErr = err
}

func (c *Coordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Coordinator) event(typ domain.EventType, rev uint64, d time.Duration, err error) *domain.PersistEvent {
	return &domain.PersistEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, PageID: c.pageID},
		Revision:  rev,
		Duration:  d,
		Err:       err,
	}
}
