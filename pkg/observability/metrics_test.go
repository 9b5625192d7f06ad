package observability_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnMutation(ctx, &domain.MutationEvent{Operation: "add_node", Diff: &domain.GraphDiff{}})
	hooks.OnMutation(ctx, &domain.MutationEvent{Operation: "add_node", Diff: &domain.GraphDiff{}})
	hooks.OnMutation(ctx, &domain.MutationEvent{Operation: "update_node_data"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations.WithLabelValues("add_node", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("update_node_data", "false")))

	hooks.OnCompile(ctx, &domain.CompileEvent{Nodes: 4, Edges: 3, Steps: 3, Duration: time.Millisecond})
	hooks.OnCompile(ctx, &domain.CompileEvent{Strict: true, Err: domain.ErrCycleDetected})

	assert.Equal(t, 4.0, testutil.ToFloat64(m.GraphNodes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompileErrors))
	assert.Equal(t, 2, testutil.CollectAndCount(m.CompileDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnMutation(context.Background(), &domain.MutationEvent{Operation: "connect", Diff: &domain.GraphDiff{}})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `kanvas_graph_mutations_total{changed="true",operation="connect"} 1`)
}

func TestMerge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnMutation: func(context.Context, *domain.MutationEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnMutation: func(context.Context, *domain.MutationEvent) { calls = append(calls, "b") },
		OnCompile:  func(context.Context, *domain.CompileEvent) { calls = append(calls, "compile") },
	}

	merged := observability.Merge(a, domain.LifecycleHooks{}, b)
	merged.OnMutation(context.Background(), &domain.MutationEvent{})
	merged.OnCompile(context.Background(), &domain.CompileEvent{Err: errors.New("x")})

	assert.Equal(t, []string{"a", "b", "compile"}, calls)
}
