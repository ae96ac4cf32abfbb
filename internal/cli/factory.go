package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/config"
	fileadapter "github.com/aretw0/lattice/pkg/adapters/file"
	loamadapter "github.com/aretw0/lattice/pkg/adapters/loam"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	redisadapter "github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/adapters/sqlite"
	"github.com/aretw0/lattice/pkg/ids"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/aretw0/loam"
)

// Stack is everything the long running commands share: the store chain,
// the optional template library and metrics, and the session manager.
type Stack struct {
	Store     ports.DocumentStore
	Locker    ports.DistributedLocker
	Templates *loamadapter.Library
	Metrics   *observability.Metrics
	Sessions  *session.Manager

	closers []io.Closer
}

// Build wires cfg into a ready Stack. Close releases it.
func Build(cfg config.Config, logger *slog.Logger) (*Stack, error) {
	s := &Stack{}

	base, err := s.openStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	mws, err := storeMiddlewares(cfg.Security)
	if err != nil {
		_ = s.closeAll()
		return nil, err
	}
	s.Store = middleware.Chain(base, mws...)

	if cfg.Templates.Dir != "" {
		repo, err := loam.Init(cfg.Templates.Dir, loam.WithVersioning(false))
		if err != nil {
			_ = s.closeAll()
			return nil, fmt.Errorf("failed to open templates %s: %w", cfg.Templates.Dir, err)
		}
		s.Templates = loamadapter.New(loam.NewTypedRepository[loamadapter.TemplateMetadata](repo))
	}

	hooks := observability.LoggingHooks(logger)
	if cfg.Metrics {
		s.Metrics = observability.NewMetrics()
		hooks = hooks.Merge(s.Metrics.Hooks())
	}

	editorOpts := []lattice.Option{
		lattice.WithIDGenerator(ids.ULID{}),
		lattice.WithSectionsOnly(cfg.Editor.SectionsOnly),
		lattice.WithLifecycleHooks(hooks),
		lattice.WithAutosaveDelay(cfg.Editor.AutosaveDelay),
	}
	if cfg.Editor.HistoryLimit > 0 {
		editorOpts = append(editorOpts, lattice.WithHistoryLimit(cfg.Editor.HistoryLimit))
	}
	if cfg.Editor.FlushSchedule != "" {
		editorOpts = append(editorOpts, lattice.WithFlushSchedule(cfg.Editor.FlushSchedule))
	}
	if s.Templates != nil {
		editorOpts = append(editorOpts, lattice.WithTemplates(s.Templates))
	}

	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.WithEditorOptions(editorOpts...),
	}
	if s.Locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(s.Locker), session.WithLockTTL(cfg.Store.LockTTL))
	}
	s.Sessions = session.NewManager(s.Store, sessionOpts...)

	logger.Debug("Stack ready",
		"store", cfg.Store.Kind,
		"encrypted", cfg.Security.EncryptionKey != "",
		"templates", cfg.Templates.Dir,
		"metrics", cfg.Metrics)
	return s, nil
}

func (s *Stack) openStore(cfg config.StoreConfig) (ports.DocumentStore, error) {
	switch cfg.Kind {
	case config.StoreMemory:
		return memory.NewStore(), nil
	case config.StoreFile:
		return fileadapter.New(cfg.Path), nil
	case config.StoreSQLite:
		store, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store)
		return store, nil
	case config.StoreRedis:
		var opts []redisadapter.Option
		if cfg.RedisTTL > 0 {
			opts = append(opts, redisadapter.WithTTL(cfg.RedisTTL))
		}
		store := redisadapter.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		s.closers = append(s.closers, store)
		s.Locker = redisadapter.NewLocker(store.Client(), redisadapter.DefaultPrefix)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}

// storeMiddlewares returns redaction before encryption, so secrets are
// masked in the plaintext that gets sealed.
func storeMiddlewares(cfg config.SecurityConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware

	if len(cfg.PIIPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.PIIPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}

	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

// Close flushes every open editor and closes the store.
func (s *Stack) Close(ctx context.Context) error {
	var errs []error
	if s.Sessions != nil {
		errs = append(errs, s.Sessions.CloseAll(ctx))
	}
	errs = append(errs, s.closeAll())
	return errors.Join(errs...)
}

func (s *Stack) closeAll() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}
