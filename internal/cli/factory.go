package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kanvas-io/kanvas"
	"github.com/kanvas-io/kanvas/internal/config"
	"github.com/kanvas-io/kanvas/pkg/adapters/badger"
	"github.com/kanvas-io/kanvas/pkg/adapters/file"
	"github.com/kanvas-io/kanvas/pkg/adapters/memory"
	"github.com/kanvas-io/kanvas/pkg/adapters/redis"
	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/observability"
	"github.com/kanvas-io/kanvas/pkg/persistence/middleware"
	"github.com/kanvas-io/kanvas/pkg/ports"
)

// Backend is an opened workspace store with its optional distributed lock.
type Backend struct {
	Store  ports.WorkspaceStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases the backend connections.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend creates the store selected by cfg and wraps it with the
// privacy and encryption middlewares when they are configured.
func OpenBackend(cfg config.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}

	switch cfg.Store.Backend {
	case config.BackendMemory, "":
		b.Store = memory.NewStore()
	case config.BackendFile:
		b.Store = file.New(cfg.Store.Path)
	case config.BackendRedis:
		var opts []redis.Option
		if cfg.Store.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Store.Redis.Prefix))
		}
		if cfg.Store.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Store.Redis.TTL))
		}
		rs := redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB, opts...)
		b.Store = rs
		b.close = rs.Close
		if cfg.Store.Redis.Lock {
			b.Locker = redis.NewLocker(rs.Client(), cfg.Store.Redis.Prefix)
		}
	case config.BackendBadger:
		bcfg := badger.DefaultConfig(cfg.Store.Badger.Path)
		if cfg.Store.Badger.InMemory {
			bcfg = badger.InMemoryConfig()
		}
		bcfg.Logger = logger
		bs, err := badger.Open(bcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		b.Store = bs
		b.close = bs.Close
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	var mws []middleware.Middleware
	if len(cfg.Privacy.Mask) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Privacy.Mask))
	}
	if cfg.Encryption.Key != "" {
		enc, err := encryptionConfig(cfg.Encryption)
		if err != nil {
			b.Close()
			return nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	b.Store = middleware.Chain(b.Store, mws...)

	logger.Debug("Workspace store opened", "backend", cfg.Store.Backend, "middlewares", len(mws), "distributed_lock", b.Locker != nil)
	return b, nil
}

func encryptionConfig(c config.Encryption) (middleware.EncryptionConfig, error) {
	active, err := middleware.DecodeKey(c.Key)
	if err != nil {
		return middleware.EncryptionConfig{}, fmt.Errorf("encryption key: %w", err)
	}
	out := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range c.Fallback {
		key, err := middleware.DecodeKey(k)
		if err != nil {
			return middleware.EncryptionConfig{}, fmt.Errorf("fallback key %d: %w", i, err)
		}
		out.FallbackKeys = append(out.FallbackKeys, key)
	}
	return out, nil
}

// NewService opens the backend and builds the facade. The returned backend
// must be closed by the caller.
func NewService(cfg config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*kanvas.Service, *Backend, error) {
	backend, err := OpenBackend(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	hooks = append(hooks, DebugHooks(logger))
	opts := []kanvas.Option{
		kanvas.WithLogger(logger),
		kanvas.WithStore(backend.Store),
		kanvas.WithStrictLeveling(cfg.Compiler.Strict),
		kanvas.WithLifecycleHooks(observability.Merge(hooks...)),
	}
	if backend.Locker != nil {
		opts = append(opts, kanvas.WithLocker(backend.Locker))
	}
	if cfg.Catalog.Dir != "" {
		opts = append(opts, kanvas.WithTemplateDir(cfg.Catalog.Dir))
	}

	svc, err := kanvas.New(opts...)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("error initializing kanvas: %w", err), backend.Close())
	}
	return svc, backend, nil
}

// DebugHooks logs every mutation and compile run at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			logger.Debug("Graph Mutation", "workspace_id", e.WorkspaceID, "operation", e.Operation, "changed", e.Diff != nil)
		},
		OnCompile: func(ctx context.Context, e *domain.CompileEvent) {
			if e.Err != nil {
				logger.Debug("Compile (Error)", "workspace_id", e.WorkspaceID, "err", e.Err)
				return
			}
			logger.Debug("Compile", "workspace_id", e.WorkspaceID, "nodes", e.Nodes, "steps", e.Steps, "duration", e.Duration)
		},
	}
}
