package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kanvas-io/kanvas"
	"github.com/kanvas-io/kanvas/internal/logging"
	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/dsl"
)

const (
	templatesURI         = "kanvas://templates"
	workspaceURIPrefix   = "kanvas://workspaces/"
	workspaceURITemplate = workspaceURIPrefix + "{workspace_id}"
)

// Service is the part of the workspace API exposed to agents.
// *kanvas.Service implements it.
type Service interface {
	Get(ctx context.Context, workspaceID string) (*domain.Workspace, error)
	List(ctx context.Context) ([]string, error)
	Templates(ctx context.Context) ([]domain.Template, error)
	AddFromTemplate(ctx context.Context, workspaceID, templateID string, pos domain.Position) (string, error)
	UpdateNodeData(ctx context.Context, workspaceID, nodeID string, patch domain.NodeDataPatch) error
	Connect(ctx context.Context, workspaceID string, conn domain.Connection) (string, error)
	InsertNodeOnEdge(ctx context.Context, workspaceID, edgeID string, node domain.Node) (string, bool, error)
	Select(ctx context.Context, workspaceID string, nodeIDs, edgeIDs []string) error
	DeleteSelected(ctx context.Context, workspaceID string) error
	Workflow(ctx context.Context, workspaceID string) ([]domain.Step, error)
	ExportDSL(ctx context.Context, workspaceID string, meta dsl.Meta, format dsl.Format) ([]byte, error)
	ImportDSL(ctx context.Context, workspaceID string, data []byte, format dsl.Format) (*domain.Workspace, error)
}

var _ Service = (*kanvas.Service)(nil)

// WorkflowResponse is the structured result of get_workflow.
type WorkflowResponse struct {
	WorkspaceID string        `json:"workspace_id" jsonschema_description:"The workspace the workflow was compiled from"`
	Steps       []domain.Step `json:"steps" jsonschema_description:"Ordered deployment steps; components in one step run in parallel"`
}

// NodeResponse is the structured result of tools that create a node or edge.
type NodeResponse struct {
	WorkspaceID string `json:"workspace_id"`
	ID          string `json:"id" jsonschema_description:"The id of the created element"`
}

type workspaceArgs struct {
	WorkspaceID string `json:"workspace_id"`
}

type addNodeArgs struct {
	WorkspaceID string  `json:"workspace_id"`
	TemplateID  string  `json:"template_id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

type connectArgs struct {
	WorkspaceID string `json:"workspace_id"`
	Source      string `json:"source"`
	Target      string `json:"target"`
}

type insertArgs struct {
	WorkspaceID string `json:"workspace_id"`
	EdgeID      string `json:"edge_id"`
	TemplateID  string `json:"template_id"`
}

type updateArgs struct {
	WorkspaceID string `json:"workspace_id"`
	NodeID      string `json:"node_id"`
	Patch       string `json:"patch"`
}

type deleteArgs struct {
	WorkspaceID string `json:"workspace_id"`
	NodeIDs     string `json:"node_ids"`
	EdgeIDs     string `json:"edge_ids"`
}

type documentArgs struct {
	WorkspaceID string `json:"workspace_id"`
	Format      string `json:"format"`
	Document    string `json:"document"`
}

// Server exposes a kanvas Service as an MCP server.
type Server struct {
	svc       Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("kanvas-mcp", strings.TrimSpace(kanvas.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	workspaceID := mcp.WithString("workspace_id", mcp.Required(), mcp.Description("The workspace (canvas) id"))

	s.mcpServer.AddTool(mcp.NewTool("list_workspaces",
		mcp.WithDescription("List the ids of all saved workspaces."),
	), s.handleListWorkspaces)

	s.mcpServer.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the component templates that can be placed on a canvas."),
	), s.handleListTemplates)

	s.mcpServer.AddTool(mcp.NewTool("get_workspace",
		mcp.WithDescription("Get the full graph (nodes, edges, focus, selection) of a workspace."),
		workspaceID,
	), mcp.NewStructuredToolHandler(s.handleGetWorkspace))

	s.mcpServer.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Place a new component from a template. The node gets a unique name derived from the template label."),
		workspaceID,
		mcp.WithString("template_id", mcp.Required(), mcp.Description("Template id, see list_templates")),
		mcp.WithNumber("x", mcp.Description("Canvas x coordinate")),
		mcp.WithNumber("y", mcp.Description("Canvas y coordinate")),
		mcp.WithOutputSchema[NodeResponse](),
	), mcp.NewStructuredToolHandler(s.handleAddNode))

	s.mcpServer.AddTool(mcp.NewTool("connect",
		mcp.WithDescription("Add a dependency edge: source must be deployed before target."),
		workspaceID,
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithOutputSchema[NodeResponse](),
	), mcp.NewStructuredToolHandler(s.handleConnect))

	s.mcpServer.AddTool(mcp.NewTool("insert_node_on_edge",
		mcp.WithDescription("Split an existing edge with a new component from a template."),
		workspaceID,
		mcp.WithString("edge_id", mcp.Required(), mcp.Description("Edge to split")),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("Template id of the inserted node")),
		mcp.WithOutputSchema[NodeResponse](),
	), mcp.NewStructuredToolHandler(s.handleInsertNode))

	s.mcpServer.AddTool(mcp.NewTool("update_node",
		mcp.WithDescription("Shallow-merge fields into a node's data. Unknown node ids are ignored."),
		workspaceID,
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithString("patch", mcp.Required(), mcp.Description("JSON object with the node data fields to replace")),
	), mcp.NewStructuredToolHandler(s.handleUpdateNode))

	s.mcpServer.AddTool(mcp.NewTool("delete_elements",
		mcp.WithDescription("Delete nodes and edges. Edges touching a deleted node are removed too."),
		workspaceID,
		mcp.WithString("node_ids", mcp.Description("JSON array of node ids")),
		mcp.WithString("edge_ids", mcp.Description("JSON array of edge ids")),
	), mcp.NewStructuredToolHandler(s.handleDelete))

	s.mcpServer.AddTool(mcp.NewTool("get_workflow",
		mcp.WithDescription("Compile the canvas into ordered deployment steps."),
		workspaceID,
		mcp.WithOutputSchema[WorkflowResponse](),
	), mcp.NewStructuredToolHandler(s.handleWorkflow))

	s.mcpServer.AddTool(mcp.NewTool("export_document",
		mcp.WithDescription("Export the canvas as a project document."),
		workspaceID,
		mcp.WithString("format", mcp.Description("yaml (default) or json")),
	), mcp.NewStructuredToolHandler(s.handleExport))

	s.mcpServer.AddTool(mcp.NewTool("import_document",
		mcp.WithDescription("Replace the canvas with a project document."),
		workspaceID,
		mcp.WithString("document", mcp.Required(), mcp.Description("Document text")),
		mcp.WithString("format", mcp.Description("yaml (default), json or hcl")),
	), mcp.NewStructuredToolHandler(s.handleImport))
}

func (s *Server) handleListWorkspaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := s.svc.Templates(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list templates failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(templates)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetWorkspace(ctx context.Context, request mcp.CallToolRequest, args workspaceArgs) (*domain.Workspace, error) {
	ws, err := s.svc.Get(ctx, args.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("get workspace failed: %w", err)
	}
	return ws, nil
}

func (s *Server) handleAddNode(ctx context.Context, request mcp.CallToolRequest, args addNodeArgs) (NodeResponse, error) {
	id, err := s.svc.AddFromTemplate(ctx, args.WorkspaceID, args.TemplateID, domain.Position{X: args.X, Y: args.Y})
	if err != nil {
		return NodeResponse{}, fmt.Errorf("add node failed: %w", err)
	}
	s.logger.Debug("MCP: node added", "workspace_id", args.WorkspaceID, "node_id", id)
	return NodeResponse{WorkspaceID: args.WorkspaceID, ID: id}, nil
}

func (s *Server) handleConnect(ctx context.Context, request mcp.CallToolRequest, args connectArgs) (NodeResponse, error) {
	if args.Source == "" || args.Target == "" {
		return NodeResponse{}, errors.New("source and target are required")
	}
	id, err := s.svc.Connect(ctx, args.WorkspaceID, domain.Connection{Source: args.Source, Target: args.Target})
	if err != nil {
		return NodeResponse{}, fmt.Errorf("connect failed: %w", err)
	}
	return NodeResponse{WorkspaceID: args.WorkspaceID, ID: id}, nil
}

func (s *Server) handleInsertNode(ctx context.Context, request mcp.CallToolRequest, args insertArgs) (NodeResponse, error) {
	tpl, err := s.template(ctx, args.TemplateID)
	if err != nil {
		return NodeResponse{}, err
	}
	id, ok, err := s.svc.InsertNodeOnEdge(ctx, args.WorkspaceID, args.EdgeID, tpl.NewNode("", domain.Position{}))
	if err != nil {
		return NodeResponse{}, fmt.Errorf("insert failed: %w", err)
	}
	if !ok {
		return NodeResponse{}, fmt.Errorf("edge %q not found", args.EdgeID)
	}
	return NodeResponse{WorkspaceID: args.WorkspaceID, ID: id}, nil
}

func (s *Server) handleUpdateNode(ctx context.Context, request mcp.CallToolRequest, args updateArgs) (NodeResponse, error) {
	var patch domain.NodeDataPatch
	if err := json.Unmarshal([]byte(args.Patch), &patch); err != nil {
		return NodeResponse{}, fmt.Errorf("invalid patch: %w", err)
	}
	if err := s.svc.UpdateNodeData(ctx, args.WorkspaceID, args.NodeID, patch); err != nil {
		return NodeResponse{}, fmt.Errorf("update failed: %w", err)
	}
	return NodeResponse{WorkspaceID: args.WorkspaceID, ID: args.NodeID}, nil
}

func (s *Server) handleDelete(ctx context.Context, request mcp.CallToolRequest, args deleteArgs) (*domain.Workspace, error) {
	nodeIDs, err := parseIDs(args.NodeIDs)
	if err != nil {
		return nil, fmt.Errorf("invalid node_ids: %w", err)
	}
	edgeIDs, err := parseIDs(args.EdgeIDs)
	if err != nil {
		return nil, fmt.Errorf("invalid edge_ids: %w", err)
	}
	if err := s.svc.Select(ctx, args.WorkspaceID, nodeIDs, edgeIDs); err != nil {
		return nil, fmt.Errorf("select failed: %w", err)
	}
	if err := s.svc.DeleteSelected(ctx, args.WorkspaceID); err != nil {
		return nil, fmt.Errorf("delete failed: %w", err)
	}
	return s.svc.Get(ctx, args.WorkspaceID)
}

func (s *Server) handleWorkflow(ctx context.Context, request mcp.CallToolRequest, args workspaceArgs) (WorkflowResponse, error) {
	steps, err := s.svc.Workflow(ctx, args.WorkspaceID)
	if err != nil {
		return WorkflowResponse{}, fmt.Errorf("compile failed: %w", err)
	}
	return WorkflowResponse{WorkspaceID: args.WorkspaceID, Steps: steps}, nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest, args documentArgs) (string, error) {
	data, err := s.svc.ExportDSL(ctx, args.WorkspaceID, dsl.Meta{}, format(args.Format))
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	return string(data), nil
}

func (s *Server) handleImport(ctx context.Context, request mcp.CallToolRequest, args documentArgs) (*domain.Workspace, error) {
	ws, err := s.svc.ImportDSL(ctx, args.WorkspaceID, []byte(args.Document), format(args.Format))
	if err != nil {
		return nil, fmt.Errorf("import failed: %w", err)
	}
	return ws, nil
}

func (s *Server) template(ctx context.Context, id string) (domain.Template, error) {
	templates, err := s.svc.Templates(ctx)
	if err != nil {
		return domain.Template{}, err
	}
	for _, t := range templates {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Template{}, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(templatesURI, "Component Templates",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		templates, err := s.svc.Templates(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list templates: %w", err)
		}
		return jsonResource(templatesURI, templates)
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(workspaceURITemplate, "Workspace Graph",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI
		ws, err := s.svc.Get(ctx, strings.TrimPrefix(uri, workspaceURIPrefix))
		if err != nil {
			return nil, fmt.Errorf("failed to load workspace: %w", err)
		}
		return jsonResource(uri, ws)
	})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func parseIDs(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func format(f string) dsl.Format {
	if f == "" {
		return dsl.FormatYAML
	}
	return dsl.Format(strings.ToLower(f))
}
