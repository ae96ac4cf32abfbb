package lattice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/autosave"
	"github.com/aretw0/lattice/pkg/controls"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/ids"
	"github.com/aretw0/lattice/pkg/placement"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/tree"
)

// Editor is the high-level entry point for the lattice library.
// It wires the tree operations, the placement rules, the history machine and
// the autosave coordinator for a single page.
//
// Every operation validates placement, commits a new revision into history
// and notifies autosave. Operations that hit nothing return false and no error.
// Editor is safe for concurrent use.
type Editor struct {
	mu       sync.Mutex
	pageID   string
	history  *history.Machine
	revision uint64
	closed   bool

	ids          ports.IDGenerator
	sectionsOnly bool
	historyLimit int
	logger       *slog.Logger
	hooks        domain.LifecycleHooks

	store         ports.DocumentStore
	publisher     ports.Publisher
	autosaveDelay time.Duration
	flushSchedule string
	autosave      *autosave.Coordinator

	templates ports.TemplateLibrary
	viewport  *controls.Viewport
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithIDGenerator sets the generator used for palette adds, duplicates and
// templates. The default mints ULIDs.
func WithIDGenerator(gen ports.IDGenerator) Option {
	return func(e *Editor) {
		e.ids = gen
	}
}

// WithSectionsOnly forbids freeform canvases at the document root.
func WithSectionsOnly(on bool) Option {
	return func(e *Editor) {
		e.sectionsOnly = on
	}
}

// WithHistoryLimit caps the number of undo steps.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) {
		e.historyLimit = n
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithStore enables autosave through store.
func WithStore(store ports.DocumentStore) Option {
	return func(e *Editor) {
		e.store = store
	}
}

// WithPublisher enables Publish.
func WithPublisher(p ports.Publisher) Option {
	return func(e *Editor) {
		e.publisher = p
	}
}

// WithAutosaveDelay sets the autosave debounce delay.
func WithAutosaveDelay(d time.Duration) Option {
	return func(e *Editor) {
		e.autosaveDelay = d
	}
}

// WithFlushSchedule forces an autosave flush on a cron schedule.
func WithFlushSchedule(spec string) Option {
	return func(e *Editor) {
		e.flushSchedule = spec
	}
}

// WithTemplates sets the palette template library used by AddFromTemplate.
func WithTemplates(lib ports.TemplateLibrary) Option {
	return func(e *Editor) {
		e.templates = lib
	}
}

// WithViewport sets the initial viewport state.
func WithViewport(v *controls.Viewport) Option {
	return func(e *Editor) {
		e.viewport = v
	}
}

// New creates an editor for pageID starting at doc.
func New(pageID string, doc domain.Document, opts ...Option) (*Editor, error) {
	if pageID == "" {
		return nil, fmt.Errorf("pageID cannot be empty")
	}
	e := &Editor{pageID: pageID}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = e.logger.With("page_id", pageID)
	if e.ids == nil {
		e.ids = ids.ULID{}
	}
	if e.viewport == nil {
		e.viewport = controls.New()
	}
	if doc == nil {
		doc = domain.Document{}
	}
	if res := placement.ValidateDocument(doc, e.sectionsOnly); !res.OK {
		// Loaded documents are accepted as-is; only new edits are gated.
		e.logger.Warn("document violates placement rules", "errors", res.Errors)
	}
	doc = tree.DropNil(doc)
	e.history = history.New(doc, history.WithLimit(e.historyLimit))

	if e.store != nil || e.publisher != nil {
		e.autosave = autosave.New(pageID, e, e.store,
			autosave.WithDelay(e.autosaveDelay),
			autosave.WithLogger(e.logger),
			autosave.WithPublisher(e.publisher),
			autosave.WithFlushSchedule(e.flushSchedule),
			autosave.WithHooks(e.hooks),
		)
		if err := e.autosave.Start(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Open loads pageID from store and creates an editor that autosaves into it.
// A page missing from the store starts empty.
func Open(ctx context.Context, pageID string, store ports.DocumentStore, opts ...Option) (*Editor, error) {
	doc, err := store.Load(ctx, pageID)
	if err != nil && !errors.Is(err, domain.ErrPageNotFound) {
		return nil, fmt.Errorf("failed to load page %s: %w", pageID, err)
	}
	return New(pageID, doc, append(opts, WithStore(store))...)
}

// PageID returns the id of the page being edited.
func (e *Editor) PageID() string { return e.pageID }

// Document returns the present document. It must be treated as read-only.
func (e *Editor) Document() domain.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Present()
}

// Snapshot returns the present document and its revision.
func (e *Editor) Snapshot() (domain.Document, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Present(), e.revision
}

// Revision counts the changes of the present document since the editor was
// created, undo and redo included.
func (e *Editor) Revision() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision
}

// History returns a snapshot of the undo/redo stacks.
func (e *Editor) History() history.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.State()
}

// LiveMessage returns the announcement for the last commit.
func (e *Editor) LiveMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.LiveMessage()
}

func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// SectionsOnly reports whether the restricted authoring mode is on.
func (e *Editor) SectionsOnly() bool { return e.sectionsOnly }

// Viewport returns the controls state.
func (e *Editor) Viewport() *controls.Viewport { return e.viewport }

// Validate checks the whole present document against the placement rules.
func (e *Editor) Validate() placement.Result {
	return placement.ValidateDocument(e.Document(), e.sectionsOnly)
}

// AutosaveStatus returns the autosave status, idle when autosave is disabled.
func (e *Editor) AutosaveStatus() autosave.Status {
	if e.autosave == nil {
		return autosave.StatusIdle
	}
	return e.autosave.Status()
}

// AutosaveErr returns the error behind an autosave error status.
func (e *Editor) AutosaveErr() error {
	if e.autosave == nil {
		return nil
	}
	return e.autosave.Err()
}

// Flush saves pending changes now.
func (e *Editor) Flush(ctx context.Context) error {
	if e.autosave == nil {
		return nil
	}
	return e.autosave.Flush(ctx)
}

// Publish persists a published snapshot and clears the history on success.
func (e *Editor) Publish(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if e.autosave == nil {
		return autosave.ErrNoPublisher
	}
	return e.autosave.Publish(ctx)
}

// ClearHistory empties the undo and redo stacks and keeps the present.
func (e *Editor) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Clear()
}

// Close flushes pending changes and rejects further operations.
func (e *Editor) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	if e.autosave != nil {
		return e.autosave.Close(ctx)
	}
	return nil
}

func (e *Editor) checkOpen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrEditorClosed
	}
	return nil
}
