package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kanvas-io/kanvas"
	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/dsl"
	"github.com/kanvas-io/kanvas/pkg/mapper"
)

// maxBodyBytes bounds request bodies, DSL documents included.
const maxBodyBytes = 4 << 20

// Service is the workspace API served over HTTP. *kanvas.Service implements it.
type Service interface {
	Create(ctx context.Context, workspaceID, name string) (*domain.Workspace, error)
	Get(ctx context.Context, workspaceID string) (*domain.Workspace, error)
	Rename(ctx context.Context, workspaceID, name string) (*domain.Workspace, error)
	Delete(ctx context.Context, workspaceID string) error
	List(ctx context.Context) ([]string, error)
	Templates(ctx context.Context) ([]domain.Template, error)

	AddNode(ctx context.Context, workspaceID string, node domain.Node) (string, error)
	AddFromTemplate(ctx context.Context, workspaceID, templateID string, pos domain.Position) (string, error)
	UpdateNodeData(ctx context.Context, workspaceID, nodeID string, patch domain.NodeDataPatch) error
	MoveNode(ctx context.Context, workspaceID, nodeID string, pos domain.Position) error
	DeleteSelected(ctx context.Context, workspaceID string) error
	Connect(ctx context.Context, workspaceID string, conn domain.Connection) (string, error)
	InsertNodeOnEdge(ctx context.Context, workspaceID, edgeID string, node domain.Node) (string, bool, error)
	CopyNode(ctx context.Context, workspaceID string) error
	PasteNode(ctx context.Context, workspaceID string) (string, bool, error)
	SetFocus(ctx context.Context, workspaceID, nodeID string) error
	Select(ctx context.Context, workspaceID string, nodeIDs, edgeIDs []string) error
	Reset(ctx context.Context, workspaceID string) error

	LoadComponents(ctx context.Context, workspaceID string, descs []mapper.ComponentDescriptor, edges ...domain.Edge) (*domain.Workspace, error)
	Components(ctx context.Context, workspaceID string) ([]mapper.ComponentDescriptor, error)
	Workflow(ctx context.Context, workspaceID string) ([]domain.Step, error)
	ExportDSL(ctx context.Context, workspaceID string, meta dsl.Meta, format dsl.Format) ([]byte, error)
	ImportDSL(ctx context.Context, workspaceID string, data []byte, format dsl.Format) (*domain.Workspace, error)
}

var _ Service = (*kanvas.Service)(nil)

// Server holds the handlers of the REST API.
type Server struct {
	Service  Service
	Streams  *StreamManager
	logger   *slog.Logger
	validate *validator.Validate
	metrics  http.Handler
}

// Option configures the handler built by NewHandler.
type Option func(*Server)

// WithStreams shares a StreamManager whose Hooks are registered on the service.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		if sm != nil {
			s.Streams = sm
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics mounts a metrics handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for the service, with CORS enabled.
func NewHandler(svc Service, opts ...Option) http.Handler {
	return enableCORS(NewRouter(svc, opts...))
}

// NewRouter builds the chi router without the CORS wrapper.
func NewRouter(svc Service, opts ...Option) chi.Router {
	s := &Server{
		Service:  svc,
		Streams:  NewStreamManager(),
		logger:   slog.Default(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/templates", s.ListTemplates)

	r.Get("/workspaces", s.ListWorkspaces)
	r.Post("/workspaces", s.CreateWorkspace)
	r.Get("/workspaces/{workspaceID}", s.GetWorkspace)
	r.Patch("/workspaces/{workspaceID}", s.RenameWorkspace)
	r.Delete("/workspaces/{workspaceID}", s.DeleteWorkspace)

	r.Post("/workspaces/{workspaceID}/nodes", s.AddNode)
	r.Post("/workspaces/{workspaceID}/nodes/from-template", s.AddNodeFromTemplate)
	r.Patch("/workspaces/{workspaceID}/nodes/{nodeID}", s.UpdateNodeData)
	r.Put("/workspaces/{workspaceID}/nodes/{nodeID}/position", s.MoveNode)
	r.Post("/workspaces/{workspaceID}/edges", s.Connect)
	r.Post("/workspaces/{workspaceID}/edges/{edgeID}/insert", s.InsertNodeOnEdge)
	r.Put("/workspaces/{workspaceID}/focus", s.SetFocus)
	r.Put("/workspaces/{workspaceID}/selection", s.Select)
	r.Post("/workspaces/{workspaceID}/selection/delete", s.DeleteSelected)
	r.Post("/workspaces/{workspaceID}/clipboard/copy", s.CopyNode)
	r.Post("/workspaces/{workspaceID}/clipboard/paste", s.PasteNode)
	r.Post("/workspaces/{workspaceID}/reset", s.Reset)

	r.Get("/workspaces/{workspaceID}/components", s.GetComponents)
	r.Put("/workspaces/{workspaceID}/components", s.LoadComponents)
	r.Get("/workspaces/{workspaceID}/workflow", s.GetWorkflow)
	r.Get("/workspaces/{workspaceID}/dsl", s.ExportDSL)
	r.Put("/workspaces/{workspaceID}/dsl", s.ImportDSL)
	r.Get("/workspaces/{workspaceID}/events", s.SubscribeEvents)

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Kanvas API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// Request bodies.

type createWorkspaceRequest struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

type renameWorkspaceRequest struct {
	Name string `json:"name" validate:"required"`
}

type fromTemplateRequest struct {
	TemplateID string          `json:"templateId" validate:"required"`
	Position   domain.Position `json:"position"`
}

type focusRequest struct {
	ID string `json:"id"`
}

type selectionRequest struct {
	Nodes []string `json:"nodes"`
	Edges []string `json:"edges"`
}

type loadComponentsRequest struct {
	Components []mapper.ComponentDescriptor `json:"components"`
	Edges      []domain.Edge                `json:"edges"`
}

type idResponse struct {
	ID string `json:"id"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	} else if err != nil {
		s.logger.Error("Failed to load OpenAPI spec", "err", err)
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "kanvas-http",
		"version":     strings.TrimSpace(kanvas.Version),
		"api_version": apiVersion,
	})
}

// ListTemplates handles the GET /templates request.
func (s *Server) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.Service.Templates(r.Context())
	if err != nil {
		s.writeError(w, "ListTemplates", err)
		return
	}
	s.writeJSON(w, http.StatusOK, templates)
}

// ListWorkspaces handles the GET /workspaces request.
func (s *Server) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.List(r.Context())
	if err != nil {
		s.writeError(w, "ListWorkspaces", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// CreateWorkspace handles the POST /workspaces request.
func (s *Server) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var body createWorkspaceRequest
	if !s.decode(w, r, "CreateWorkspace", &body) {
		return
	}
	ws, err := s.Service.Create(r.Context(), body.ID, body.Name)
	if err != nil {
		s.writeError(w, "CreateWorkspace", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, ws)
}

// GetWorkspace handles the GET /workspaces/{workspaceID} request.
func (s *Server) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.Service.Get(r.Context(), workspaceID(r))
	if err != nil {
		s.writeError(w, "GetWorkspace", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ws)
}

// RenameWorkspace handles the PATCH /workspaces/{workspaceID} request.
func (s *Server) RenameWorkspace(w http.ResponseWriter, r *http.Request) {
	var body renameWorkspaceRequest
	if !s.decode(w, r, "RenameWorkspace", &body) {
		return
	}
	ws, err := s.Service.Rename(r.Context(), workspaceID(r), body.Name)
	if err != nil {
		s.writeError(w, "RenameWorkspace", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ws)
}

// DeleteWorkspace handles the DELETE /workspaces/{workspaceID} request.
func (s *Server) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, "DeleteWorkspace", s.Service.Delete(r.Context(), workspaceID(r)))
}

// AddNode handles the POST /workspaces/{workspaceID}/nodes request.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var node domain.Node
	if !s.decode(w, r, "AddNode", &node) {
		return
	}
	id, err := s.Service.AddNode(r.Context(), workspaceID(r), node)
	if err != nil {
		s.writeError(w, "AddNode", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// AddNodeFromTemplate handles the POST /workspaces/{workspaceID}/nodes/from-template request.
func (s *Server) AddNodeFromTemplate(w http.ResponseWriter, r *http.Request) {
	var body fromTemplateRequest
	if !s.decode(w, r, "AddNodeFromTemplate", &body) {
		return
	}
	id, err := s.Service.AddFromTemplate(r.Context(), workspaceID(r), body.TemplateID, body.Position)
	if err != nil {
		s.writeError(w, "AddNodeFromTemplate", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// UpdateNodeData handles the PATCH /workspaces/{workspaceID}/nodes/{nodeID} request.
func (s *Server) UpdateNodeData(w http.ResponseWriter, r *http.Request) {
	var patch domain.NodeDataPatch
	if !s.decode(w, r, "UpdateNodeData", &patch) {
		return
	}
	s.noContent(w, "UpdateNodeData", s.Service.UpdateNodeData(r.Context(), workspaceID(r), chi.URLParam(r, "nodeID"), patch))
}

// MoveNode handles the PUT /workspaces/{workspaceID}/nodes/{nodeID}/position request.
func (s *Server) MoveNode(w http.ResponseWriter, r *http.Request) {
	var pos domain.Position
	if !s.decode(w, r, "MoveNode", &pos) {
		return
	}
	s.noContent(w, "MoveNode", s.Service.MoveNode(r.Context(), workspaceID(r), chi.URLParam(r, "nodeID"), pos))
}

// Connect handles the POST /workspaces/{workspaceID}/edges request.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var conn domain.Connection
	if !s.decode(w, r, "Connect", &conn) {
		return
	}
	id, err := s.Service.Connect(r.Context(), workspaceID(r), conn)
	if err != nil {
		s.writeError(w, "Connect", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// InsertNodeOnEdge handles the POST /workspaces/{workspaceID}/edges/{edgeID}/insert request.
func (s *Server) InsertNodeOnEdge(w http.ResponseWriter, r *http.Request) {
	var node domain.Node
	if !s.decode(w, r, "InsertNodeOnEdge", &node) {
		return
	}
	edgeID := chi.URLParam(r, "edgeID")
	id, ok, err := s.Service.InsertNodeOnEdge(r.Context(), workspaceID(r), edgeID, node)
	if err != nil {
		s.writeError(w, "InsertNodeOnEdge", err)
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("edge %q not found", edgeID)})
		return
	}
	s.writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// SetFocus handles the PUT /workspaces/{workspaceID}/focus request.
func (s *Server) SetFocus(w http.ResponseWriter, r *http.Request) {
	var body focusRequest
	if !s.decode(w, r, "SetFocus", &body) {
		return
	}
	s.noContent(w, "SetFocus", s.Service.SetFocus(r.Context(), workspaceID(r), body.ID))
}

// Select handles the PUT /workspaces/{workspaceID}/selection request.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var body selectionRequest
	if !s.decode(w, r, "Select", &body) {
		return
	}
	s.noContent(w, "Select", s.Service.Select(r.Context(), workspaceID(r), body.Nodes, body.Edges))
}

// DeleteSelected handles the POST /workspaces/{workspaceID}/selection/delete request.
func (s *Server) DeleteSelected(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, "DeleteSelected", s.Service.DeleteSelected(r.Context(), workspaceID(r)))
}

// CopyNode handles the POST /workspaces/{workspaceID}/clipboard/copy request.
func (s *Server) CopyNode(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, "CopyNode", s.Service.CopyNode(r.Context(), workspaceID(r)))
}

// PasteNode handles the POST /workspaces/{workspaceID}/clipboard/paste request.
func (s *Server) PasteNode(w http.ResponseWriter, r *http.Request) {
	id, ok, err := s.Service.PasteNode(r.Context(), workspaceID(r))
	if err != nil {
		s.writeError(w, "PasteNode", err)
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: "clipboard is empty"})
		return
	}
	s.writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// Reset handles the POST /workspaces/{workspaceID}/reset request.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, "Reset", s.Service.Reset(r.Context(), workspaceID(r)))
}

// GetComponents handles the GET /workspaces/{workspaceID}/components request.
func (s *Server) GetComponents(w http.ResponseWriter, r *http.Request) {
	descs, err := s.Service.Components(r.Context(), workspaceID(r))
	if err != nil {
		s.writeError(w, "GetComponents", err)
		return
	}
	s.writeJSON(w, http.StatusOK, descs)
}

// LoadComponents handles the PUT /workspaces/{workspaceID}/components request.
func (s *Server) LoadComponents(w http.ResponseWriter, r *http.Request) {
	var body loadComponentsRequest
	if !s.decode(w, r, "LoadComponents", &body) {
		return
	}
	ws, err := s.Service.LoadComponents(r.Context(), workspaceID(r), body.Components, body.Edges...)
	if err != nil {
		s.writeError(w, "LoadComponents", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ws)
}

// GetWorkflow handles the GET /workspaces/{workspaceID}/workflow request.
func (s *Server) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	steps, err := s.Service.Workflow(r.Context(), workspaceID(r))
	if err != nil {
		s.writeError(w, "GetWorkflow", err)
		return
	}
	s.writeJSON(w, http.StatusOK, steps)
}

// ExportDSL handles the GET /workspaces/{workspaceID}/dsl request.
func (s *Server) ExportDSL(w http.ResponseWriter, r *http.Request) {
	format := requestFormat(r)
	data, err := s.Service.ExportDSL(r.Context(), workspaceID(r), dsl.Meta{}, format)
	if err != nil {
		s.writeError(w, "ExportDSL", err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.Write(data)
}

// ImportDSL handles the PUT /workspaces/{workspaceID}/dsl request.
func (s *Server) ImportDSL(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		s.logger.Warn("ImportDSL: Invalid request body", "err", err)
		return
	}
	ws, err := s.Service.ImportDSL(r.Context(), workspaceID(r), data, requestFormat(r))
	if err != nil {
		s.writeError(w, "ImportDSL", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ws)
}

// SubscribeEvents handles the GET /workspaces/{workspaceID}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id := workspaceID(r)
	s.logger.Info("SSE: Subscribing to Workspace Updates", "workspace_id", id)

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "workspace_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !matchesWatch(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// matchesWatch reports whether a diff touches any watched part of the graph.
func matchesWatch(msg string, watchList []string) bool {
	var diff domain.GraphDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "nodes":
			if len(diff.AddedNodes)+len(diff.ChangedNodes)+len(diff.RemovedNodes) > 0 {
				return true
			}
		case "edges":
			if len(diff.AddedEdges)+len(diff.ChangedEdges)+len(diff.RemovedEdges) > 0 {
				return true
			}
		case "focus":
			if diff.FocusID != nil {
				return true
			}
		}
	}
	return false
}

// -- Helpers --

type errorResponse struct {
	Error string `json:"error"`
}

func workspaceID(r *http.Request) string {
	return chi.URLParam(r, "workspaceID")
}

func requestFormat(r *http.Request) dsl.Format {
	if f := r.URL.Query().Get("format"); f != "" {
		return dsl.Format(strings.ToLower(f))
	}
	if strings.Contains(r.Header.Get("Content-Type"), "json") {
		return dsl.FormatJSON
	}
	return dsl.FormatYAML
}

func contentType(f dsl.Format) string {
	if f == dsl.FormatJSON {
		return "application/json"
	}
	return "application/yaml"
}

// decode reads a JSON body and validates its struct tags. It writes the 400
// response itself and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		s.logger.Warn(op+": Invalid request body", "err", err)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return true
		}
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		s.logger.Warn(op+": Validation failed", "err", err)
		return false
	}
	return true
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrWorkspaceNotFound),
		errors.Is(err, domain.ErrTemplateNotFound),
		errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCycleDetected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidDescriptor),
		errors.Is(err, dsl.ErrUnsupportedFormat),
		errors.Is(err, dsl.ErrUnknownDependency),
		errors.Is(err, dsl.ErrInvalidDocument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Warn(op+" rejected", "err", err, "status", status)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) noContent(w http.ResponseWriter, op string, err error) {
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
