package kanvas

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/loam"

	loamAdapter "github.com/kanvas-io/kanvas/pkg/adapters/loam"
	"github.com/kanvas-io/kanvas/pkg/adapters/memory"
	"github.com/kanvas-io/kanvas/pkg/compiler"
	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/dsl"
	"github.com/kanvas-io/kanvas/pkg/graph"
	"github.com/kanvas-io/kanvas/pkg/mapper"
	"github.com/kanvas-io/kanvas/pkg/ports"
	"github.com/kanvas-io/kanvas/pkg/session"
)

// Service is the high-level entry point of the library. It owns the
// workspaces and exposes every canvas operation as a serialized,
// persisted mutation.
type Service struct {
	store       ports.WorkspaceStore
	catalog     ports.TemplateCatalog
	templateDir string
	locker      ports.DistributedLocker
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	strict      bool
	newID       graph.IDGenerator
	now         func() time.Time

	sessions *session.Manager
	compiler *compiler.Compiler
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithStore sets the workspace persistence backend (default: in memory).
func WithStore(store ports.WorkspaceStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithCatalog injects a custom template catalog.
func WithCatalog(catalog ports.TemplateCatalog) Option {
	return func(s *Service) {
		s.catalog = catalog
	}
}

// WithTemplateDir reads the template catalog from a directory of markdown
// documents through Loam. It is ignored when WithCatalog is given.
func WithTemplateDir(dir string) Option {
	return func(s *Service) {
		s.templateDir = dir
	}
}

// WithLocker enables distributed locking of workspaces across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithStrictLeveling makes Workflow reject cyclic graphs.
func WithStrictLeveling(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

// WithIDGenerator overrides the node and edge id generator.
func WithIDGenerator(gen graph.IDGenerator) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New initializes a Service. Without options it keeps workspaces in memory
// and offers the built-in template palette.
func New(opts ...Option) (*Service, error) {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}

	// Ensure logger is initialized so components never receive nil
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.store == nil {
		s.store = memory.NewStore()
	}

	if s.catalog == nil {
		if s.templateDir == "" {
			s.catalog = memory.DefaultCatalog()
		} else {
			absPath, err := filepath.Abs(s.templateDir)
			if err != nil {
				return nil, fmt.Errorf("invalid path: %w", err)
			}

			// Strict keeps numeric frontmatter consistent across formats;
			// the catalog never writes templates.
			repo, err := loam.Init(absPath,
				loam.WithStrict(true),
				loam.WithReadOnly(true),
			)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize loam: %w", err)
			}
			s.catalog = loamAdapter.New(loam.NewTypedRepository[loamAdapter.TemplateMetadata](repo))
			s.logger = s.logger.With("templates", filepath.Base(absPath))
		}
	}

	sessionOpts := []session.Option{
		session.WithLogger(s.logger),
		session.WithHooks(s.hooks),
		session.WithIDGenerator(s.newID),
		session.WithClock(s.now),
	}
	if s.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(s.locker))
	}
	s.sessions = session.NewManager(s.store, sessionOpts...)
	s.compiler = compiler.New(compiler.WithStrict(s.strict), compiler.WithLogger(s.logger))

	return s, nil
}

// Sessions returns the workspace session manager.
func (s *Service) Sessions() *session.Manager {
	return s.sessions
}

// Create stores an empty workspace unless one already exists.
func (s *Service) Create(ctx context.Context, workspaceID, name string) (*domain.Workspace, error) {
	return s.sessions.Create(ctx, workspaceID, name)
}

// Get returns the workspace.
func (s *Service) Get(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	return s.sessions.View(ctx, workspaceID)
}

// Rename sets the display name of the workspace.
func (s *Service) Rename(ctx context.Context, workspaceID, name string) (*domain.Workspace, error) {
	return s.sessions.Rename(ctx, workspaceID, name)
}

// Delete removes the workspace.
func (s *Service) Delete(ctx context.Context, workspaceID string) error {
	return s.sessions.Delete(ctx, workspaceID)
}

// List returns the ids of all workspaces.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.sessions.List(ctx)
}

// Mutate runs fn against the live graph of the workspace; see session.Manager.Mutate.
func (s *Service) Mutate(ctx context.Context, workspaceID string, fn session.MutateFunc) (*domain.Workspace, error) {
	return s.sessions.Mutate(ctx, workspaceID, fn)
}

// AddNode adds node, allocating a unique name when it has none, and returns its id.
func (s *Service) AddNode(ctx context.Context, workspaceID string, node domain.Node) (string, error) {
	var id string
	_, err := s.Mutate(ctx, workspaceID, func(g *graph.Store) error {
		id = g.AddNode(node)
		return nil
	})
	return id, err
}

// AddFromTemplate instantiates a catalog template at pos.
func (s *Service) AddFromTemplate(ctx context.Context, workspaceID, templateID string, pos domain.Position) (string, error) {
	tpl, err := s.catalog.Get(ctx, templateID)
	if err != nil {
		return "", err
	}
	return s.AddNode(ctx, workspaceID, tpl.NewNode("", pos))
}

// Templates lists the catalog.
func (s *Service) Templates(ctx context.Context) ([]domain.Template, error) {
	return s.catalog.List(ctx)
}

// UpdateNodeData shallow-merges patch into the node. Unknown ids are ignored.
func (s *Service) UpdateNodeData(ctx context.Context, workspaceID, nodeID string, patch domain.NodeDataPatch) error {
	_, err := s.Mutate(ctx, workspaceID, func(g *graph.Store) error {
		g.UpdateNodeData(nodeID, patch)
		return nil
	})
	return err
}

// DeleteSelected removes the selection and the focused node with their edges.
func (s *Service) DeleteSelected(ctx context.Context, workspaceID string) error {
	_, err := s.Mutate(ctx, workspaceID, func(g *graph.Store) error {
		g.DeleteSelectedElements()
		return nil
	})
	return err
}

// Connect adds a dependency edge and returns its id. Both endpoints must
// exist; otherwise ErrNodeNotFound is returned and nothing changes.
func (s *Service) Connect(ctx context.Context, workspaceID string, conn domain.Connection) (string, error) {
	var id string
	_, err := s.Mutate(ctx, workspaceID, func(g *graph.Store) error {
		snap := g.Snapshot()
		for _, end := range []string{conn.Source, conn.Target} {
			if _, ok := snap.Node(end); !ok {
				return fmt.Errorf("%w: %q", domain.ErrNodeNotFound, end)
			}
		}
		id = g.Connect(conn)
		return nil
	})
	return id, err
}

// InsertNodeOnEdge splits an edge with node. ok is false when the edge does not exist.
func (s *Service) InsertNodeOnEdge(ctx context.Context, workspaceID, edgeID string, node domain.Node) (id string, ok bool, err error) {
	_, err = s.Mutate(ctx, workspaceID, func(g *graph.Store) error {
		id, ok = g.InsertNodeOnEdge(edgeID, node)
		return nil
	})
	return id, ok, err
}

// CopyNode captures the focused or first selected node.
func (s *Service) CopyNode(ctx context.Context, workspaceID string) error {
	_, err := s.Mutate(ctx, workspaceID, func(g *graph.Store) error {
		g.CopyNode()
		return nil
	})
	return err
}

// PasteNode pastes the clipboard. ok is false when the clipboard is empty.
func (s *Service) PasteNode(ctx context.Context, workspaceID string) (id string, ok bool, err error) {
	_, err = s.Mutate(ctx, workspaceID, func(g *graph.Store) error {
		id, ok = g.PasteNode()
		return nil
	})
	return id, ok, err
}

// SetFocus focuses a node; an empty id clears the focus.
func (s *Service) SetFocus(ctx context.Context, workspaceID, nodeID string) error {
	_, err := s.Mutate(ctx, workspaceID, func(g *graph.Store) error {
		g.SetFocus(nodeID)
		return nil
	})
	return err
}

// Select replaces the selection.
func (s *Service) Select(ctx context.Context, workspaceID string, nodeIDs, edgeIDs []string) error {
	_, err := s.Mutate(ctx, workspaceID, func(g *graph.Store) error {
		g.Select(nodeIDs, edgeIDs)
		return nil
	})
	return err
}

// MoveNode sets the canvas position of a node.
func (s *Service) MoveNode(ctx context.Context, workspaceID, nodeID string, pos domain.Position) error {
	_, err := s.Mutate(ctx, workspaceID, func(g *graph.Store) error {
		g.MoveNode(nodeID, pos)
		return nil
	})
	return err
}

// Reset clears the graph of the workspace.
func (s *Service) Reset(ctx context.Context, workspaceID string) error {
	_, err := s.Mutate(ctx, workspaceID, func(g *graph.Store) error {
		g.Reset()
		return nil
	})
	return err
}

// LoadComponents replaces the graph with the laid out backend components.
// Edges referencing unknown nodes are dropped.
func (s *Service) LoadComponents(ctx context.Context, workspaceID string, descs []mapper.ComponentDescriptor, edges ...domain.Edge) (*domain.Workspace, error) {
	if err := mapper.Validate(descs); err != nil {
		return nil, err
	}
	nodes := mapper.ComponentsToNodes(descs)

	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	kept := make([]domain.Edge, 0, len(edges))
	for _, e := range edges {
		if ids[e.Source] && ids[e.Target] {
			kept = append(kept, e)
		}
	}

	return s.Mutate(ctx, workspaceID, func(g *graph.Store) error {
		g.Reset()
		g.SetNodes(nodes)
		g.SetEdges(kept)
		return nil
	})
}

// Components returns the workspace nodes as backend descriptors.
func (s *Service) Components(ctx context.Context, workspaceID string) ([]mapper.ComponentDescriptor, error) {
	ws, err := s.Get(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return mapper.NodesToComponents(ws.Graph.Nodes), nil
}

// Workflow compiles the workspace graph into ordered steps.
func (s *Service) Workflow(ctx context.Context, workspaceID string) ([]domain.Step, error) {
	ws, err := s.Get(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return s.compile(ctx, workspaceID, ws.Graph)
}

// Compile levels an arbitrary graph with the configured mode.
func (s *Service) Compile(ctx context.Context, g domain.Graph) ([]domain.Step, error) {
	return s.compile(ctx, "", g)
}

func (s *Service) compile(ctx context.Context, workspaceID string, g domain.Graph) ([]domain.Step, error) {
	start := s.now()
	steps, err := s.compiler.Compile(g)
	if s.hooks.OnCompile != nil {
		s.hooks.OnCompile(ctx, &domain.CompileEvent{
			EventBase: domain.EventBase{
				Timestamp:   start,
				Type:        domain.EventCompile,
				WorkspaceID: workspaceID,
			},
			Nodes:    len(g.Nodes),
			Edges:    len(g.Edges),
			Steps:    len(steps),
			Strict:   s.compiler.Strict(),
			Duration: s.now().Sub(start),
			Err:      err,
		})
	}
	return steps, err
}

// ExportDSL serializes the workspace as a project document.
func (s *Service) ExportDSL(ctx context.Context, workspaceID string, meta dsl.Meta, format dsl.Format) ([]byte, error) {
	ws, err := s.Get(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if meta.Name == "" {
		meta.Name = ws.Name
	}
	return dsl.Encode(dsl.FromGraph(meta, ws.Graph), format)
}

// ImportDSL replaces the workspace graph with a decoded project document.
func (s *Service) ImportDSL(ctx context.Context, workspaceID string, data []byte, format dsl.Format) (*domain.Workspace, error) {
	doc, err := dsl.Decode(data, format, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := mapper.Validate(doc.Descriptors()); err != nil {
		return nil, err
	}
	g, err := doc.ToGraph()
	if err != nil {
		return nil, err
	}

	ws, err := s.Mutate(ctx, workspaceID, func(st *graph.Store) error {
		st.Reset()
		st.SetNodes(g.Nodes)
		st.SetEdges(g.Edges)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ws.Name == "" && doc.Name != "" {
		return s.sessions.Rename(ctx, workspaceID, doc.Name)
	}
	return ws, nil
}
