package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/kanvas-io/kanvas/internal/logging"
	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/graph"
	"github.com/kanvas-io/kanvas/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed workspace lock is held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// MutateFunc applies edits to the live graph of a workspace.
// Returning an error discards every edit.
type MutateFunc func(s *graph.Store) error

// Manager orchestrates workspace access, keeping a single writer per workspace.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.WorkspaceStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	newID   graph.IDGenerator
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithHooks registers callbacks fired after every applied graph operation.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithIDGenerator sets the id generator handed to every graph store.
func WithIDGenerator(gen graph.IDGenerator) Option {
	return func(m *Manager) {
		m.newID = gen
	}
}

// WithClock overrides the clock used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a new Manager with the given persistence store.
func NewManager(store ports.WorkspaceStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(workspaceID) after unlocking.
func (m *Manager) acquire(workspaceID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[workspaceID]
	if !exists {
		entry = &lockEntry{}
		m.locks[workspaceID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(workspaceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[workspaceID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, workspaceID)
	}
}

// View returns a copy of the stored workspace.
func (m *Manager) View(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	var ws *domain.Workspace
	err := m.WithLock(ctx, workspaceID, func(ctx context.Context) error {
		var err error
		ws, err = m.store.Load(ctx, workspaceID)
		return err
	})
	return ws, err
}

// Create stores an empty workspace. An existing workspace is returned as is.
func (m *Manager) Create(ctx context.Context, workspaceID, name string) (*domain.Workspace, error) {
	var ws *domain.Workspace
	err := m.WithLock(ctx, workspaceID, func(ctx context.Context) error {
		var err error
		ws, err = m.loadOrNew(ctx, workspaceID)
		if err != nil || !ws.UpdatedAt.IsZero() {
			return err
		}
		ws.Name = name
		ws.UpdatedAt = m.now().UTC()

		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, workspaceID, ws); err != nil {
			return fmt.Errorf("failed to initialize workspace: %w", err)
		}
		return nil
	})
	return ws, err
}

// Mutate loads the workspace (creating it when missing), runs fn against a
// graph store seeded with it, and saves the result when the graph changed.
// Every operation fn performs is reported to the OnMutation hook.
func (m *Manager) Mutate(ctx context.Context, workspaceID string, fn MutateFunc) (*domain.Workspace, error) {
	var ws *domain.Workspace
	err := m.WithLock(ctx, workspaceID, func(ctx context.Context) error {
		current, err := m.loadOrNew(ctx, workspaceID)
		if err != nil {
			return err
		}

		store := graph.NewStore(
			graph.WithInitial(current.Graph),
			graph.WithIDGenerator(m.newID),
			graph.WithLogger(m.logger),
		)

		var events []*domain.MutationEvent
		prev := store.Snapshot()
		store.Subscribe(func(op string, g domain.Graph) {
			diff := domain.Diff(&prev, &g)
			prev = g
			events = append(events, &domain.MutationEvent{
				EventBase: domain.EventBase{
					Timestamp:   m.now(),
					Type:        domain.EventMutation,
					WorkspaceID: workspaceID,
				},
				Operation: op,
				Diff:      diff,
			})
		})

		if err := fn(store); err != nil {
			return err
		}

		next := store.Snapshot()
		if current.UpdatedAt.IsZero() || domain.Diff(&current.Graph, &next) != nil || clipboardChanged(current.Graph, next) {
			current.Graph = next
			current.UpdatedAt = m.now().UTC()
			if err := m.store.Save(ctx, workspaceID, current); err != nil {
				return fmt.Errorf("failed to save workspace: %w", err)
			}
		}

		if m.hooks.OnMutation != nil {
			for _, ev := range events {
				m.hooks.OnMutation(ctx, ev)
			}
		}
		ws = current
		return nil
	})
	return ws, err
}

// clipboardChanged reports clipboard moves, which Diff does not track.
func clipboardChanged(a, b domain.Graph) bool {
	switch {
	case a.Clipboard == nil && b.Clipboard == nil:
		return false
	case a.Clipboard == nil || b.Clipboard == nil:
		return true
	}
	return domain.Diff(&domain.Graph{Nodes: []domain.Node{*a.Clipboard}}, &domain.Graph{Nodes: []domain.Node{*b.Clipboard}}) != nil
}

func (m *Manager) loadOrNew(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	ws, err := m.store.Load(ctx, workspaceID)
	if err == nil {
		return ws, nil
	}
	if !errors.Is(err, domain.ErrWorkspaceNotFound) {
		return nil, fmt.Errorf("failed to check workspace existence: %w", err)
	}
	return domain.NewWorkspace(workspaceID), nil
}

// Rename sets the display name of a stored workspace.
func (m *Manager) Rename(ctx context.Context, workspaceID, name string) (*domain.Workspace, error) {
	var ws *domain.Workspace
	err := m.WithLock(ctx, workspaceID, func(ctx context.Context) error {
		var err error
		ws, err = m.store.Load(ctx, workspaceID)
		if err != nil {
			return err
		}
		ws.Name = name
		ws.UpdatedAt = m.now().UTC()
		return m.store.Save(ctx, workspaceID, ws)
	})
	return ws, err
}

// Save persists the workspace.
func (m *Manager) Save(ctx context.Context, workspaceID string, ws *domain.Workspace) error {
	return m.WithLock(ctx, workspaceID, func(ctx context.Context) error {
		return m.store.Save(ctx, workspaceID, ws)
	})
}

// Delete removes the workspace from the store.
func (m *Manager) Delete(ctx context.Context, workspaceID string) error {
	return m.WithLock(ctx, workspaceID, func(ctx context.Context) error {
		return m.store.Delete(ctx, workspaceID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying workspace store.
func (m *Manager) Store() ports.WorkspaceStore {
	return m.store
}

// WithLock executes a function while holding the lock for the workspace.
func (m *Manager) WithLock(ctx context.Context, workspaceID string, fn func(context.Context) error) error {
	entry := m.acquire(workspaceID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(workspaceID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, workspaceID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"workspace_id", workspaceID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
