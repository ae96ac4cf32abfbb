package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/lattice/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one structured line per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommit: func(ctx context.Context, e *domain.CommitEvent) {
			logger.InfoContext(ctx, "commit",
				"page_id", e.PageID,
				"operation", e.Operation,
				"node_id", e.NodeID,
				"revision", e.Revision,
			)
		},
		OnUndo: func(ctx context.Context, e *domain.HistoryEvent) {
			logger.InfoContext(ctx, "undo", "page_id", e.PageID, "revision", e.Revision)
		},
		OnRedo: func(ctx context.Context, e *domain.HistoryEvent) {
			logger.InfoContext(ctx, "redo", "page_id", e.PageID, "revision", e.Revision)
		},
		OnRejected: func(ctx context.Context, e *domain.PlacementEvent) {
			logger.WarnContext(ctx, "placement_rejected",
				"page_id", e.PageID,
				"operation", e.Operation,
				"errors", e.Errors,
			)
		},
		OnSave: func(ctx context.Context, e *domain.PersistEvent) {
			persisted(ctx, logger, "save", e)
		},
		OnPublish: func(ctx context.Context, e *domain.PersistEvent) {
			persisted(ctx, logger, "publish", e)
		},
	}
}

func persisted(ctx context.Context, logger *slog.Logger, msg string, e *domain.PersistEvent) {
	if e.Err != nil {
		logger.ErrorContext(ctx, msg+"_failed", "page_id", e.PageID, "revision", e.Revision, "err", e.Err)
		return
	}
	logger.InfoContext(ctx, msg, "page_id", e.PageID, "revision", e.Revision, "duration", e.Duration)
}
