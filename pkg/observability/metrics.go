package observability

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kanvas-io/kanvas/internal/logging"
	"github.com/kanvas-io/kanvas/pkg/domain"
)

const namespace = "kanvas"

// Metrics holds the collectors fed by lifecycle hooks.
type Metrics struct {
	Mutations       *prometheus.CounterVec
	CompileDuration *prometheus.HistogramVec
	CompileErrors   prometheus.Counter
	Steps           prometheus.Histogram
	GraphNodes      prometheus.Gauge

	registry *prometheus.Registry
	logger   *slog.Logger
}

// Option configures Metrics.
type Option func(*Metrics)

// WithLogger logs every event at debug level (compile failures at warn).
func WithLogger(logger *slog.Logger) Option {
	return func(m *Metrics) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics(opts ...Option) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_mutations_total",
				Help:      "Total number of applied graph operations",
			},
			[]string{"operation", "changed"},
		),
		CompileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compile_duration_seconds",
				Help:      "Duration of leveling runs",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"mode"},
		),
		CompileErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compile_errors_total",
			Help:      "Total number of rejected strict compilations",
		}),
		Steps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_steps",
			Help:      "Number of steps per compiled workflow",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		}),
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_compiled_nodes",
			Help:      "Node count of the most recently compiled graph",
		}),
		registry: prometheus.NewRegistry(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.registry.MustRegister(m.Mutations, m.CompileDuration, m.CompileErrors, m.Steps, m.GraphNodes)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: m.onMutation,
		OnCompile:  m.onCompile,
	}
}

func (m *Metrics) onMutation(ctx context.Context, e *domain.MutationEvent) {
	changed := "true"
	if e.Diff == nil {
		changed = "false"
	}
	m.Mutations.WithLabelValues(e.Operation, changed).Inc()
	m.logger.Debug("graph_mutation",
		"workspace_id", e.WorkspaceID,
		"op", e.Operation,
		"changed", e.Diff != nil,
	)
}

func (m *Metrics) onCompile(ctx context.Context, e *domain.CompileEvent) {
	mode := "relaxed"
	if e.Strict {
		mode = "strict"
	}
	m.CompileDuration.WithLabelValues(mode).Observe(e.Duration.Seconds())
	if e.Err != nil {
		m.CompileErrors.Inc()
		m.logger.Warn("compile_rejected", "workspace_id", e.WorkspaceID, "err", e.Err)
		return
	}
	m.Steps.Observe(float64(e.Steps))
	m.GraphNodes.Set(float64(e.Nodes))
	m.logger.Debug("compile",
		"workspace_id", e.WorkspaceID,
		"nodes", e.Nodes,
		"edges", e.Edges,
		"steps", e.Steps,
		"duration", e.Duration,
	)
}

// Merge combines hooks so that each callback runs in order.
func Merge(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range hooks {
		if h.OnMutation != nil {
			prev, next := out.OnMutation, h.OnMutation
			out.OnMutation = func(ctx context.Context, e *domain.MutationEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
		if h.OnCompile != nil {
			prev, next := out.OnCompile, h.OnCompile
			out.OnCompile = func(ctx context.Context, e *domain.CompileEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
	}
	return out
}
