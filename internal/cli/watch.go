package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/placement"
	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// WatchOptions configure RunWatch.
type WatchOptions struct {
	SectionsOnly bool
	// Delay coalesces bursts of writes (editors often write twice).
	Delay  time.Duration
	Logger *slog.Logger
}

// RunWatch validates the document at path, then re-validates it on every
// change and reports what changed, until ctx is done.
func RunWatch(ctx context.Context, w io.Writer, path string, opts WatchOptions) error {
	if opts.Delay <= 0 {
		opts.Delay = 100 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which drops a
	// watch on the file itself.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	prev, _ := report(w, path, opts.SectionsOnly)
	tui.PrintSystemMessage(w, "Watching '%s' for changes...", path)

	reload := make(chan struct{}, 1)
	debounced := debounce.New(opts.Delay)
	trigger := func() {
		select {
		case reload <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logger.Debug("Change detected", "event", event.Op.String())
				debounced(trigger)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "err", err)

		case <-reload:
			next, ok := report(w, path, opts.SectionsOnly)
			if !ok {
				continue
			}
			diff := domain.Diff(prev, next)
			if diff.IsEmpty() {
				tui.PrintSystemMessage(w, "No structural changes.")
			} else {
				tui.PrintSystemMessage(w, "%s", summarizeDiff(diff))
			}
			prev = next
		}
	}
}

// report loads and validates the document. ok is false when it could not
// be read; the error is printed instead.
func report(w io.Writer, path string, sectionsOnly bool) (domain.Document, bool) {
	doc, err := LoadDocument(path)
	if err != nil {
		fmt.Fprintf(w, "%s: %v\n", path, err)
		return nil, false
	}
	tui.PrintValidation(w, path, placement.ValidateDocument(doc, sectionsOnly))
	return doc, true
}

func summarizeDiff(d *domain.DocumentDiff) string {
	s := fmt.Sprintf("%d added, %d removed, %d changed, %d moved", len(d.Added), len(d.Removed), len(d.Changed), len(d.Moved))
	if d.Reordered {
		s += ", reordered"
	}
	return s
}
