package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kanvas-io/kanvas/internal/presentation/graph"
	"github.com/kanvas-io/kanvas/pkg/domain"
)

func node(id, name string, ct domain.ComponentType, original string) domain.Node {
	return domain.Node{ID: id, Data: domain.NodeData{Name: name, ComponentType: ct, OriginalType: original}}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		graph    domain.Graph
		steps    []domain.Step
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Shapes By Kind",
			graph: domain.Graph{Nodes: []domain.Node{
				node("api", "api", domain.ComponentWebservice, ""),
				node("db", "db", domain.ComponentStore, ""),
				node("cfg", "cfg", domain.ComponentConfigSecret, "config"),
				node("sec", "sec", domain.ComponentConfigSecret, "secret"),
			}},
			contains: []string{
				`api["api"]`,
				`db[("db")]`,
				`cfg[/"cfg"/]`,
				`sec{{"sec"}}`,
			},
		},
		{
			name: "ID Sanitization And Quotes",
			graph: domain.Graph{Nodes: []domain.Node{
				node("a-b.c/d", `say "hi"`, domain.ComponentWebservice, ""),
			}},
			contains: []string{`a_b_c_d["say 'hi'"]`},
		},
		{
			name: "Step Subgraphs",
			graph: domain.Graph{
				Nodes: []domain.Node{
					node("n1", "Config", domain.ComponentConfigSecret, "config"),
					node("n2", "Web Service", domain.ComponentWebservice, ""),
				},
				Edges: []domain.Edge{{ID: "e1", Source: "n1", Target: "n2"}},
			},
			steps: []domain.Step{
				{Name: "step-1", Mode: domain.StepModeDAG, Components: []string{"Config"}},
				{Name: "step-2", Mode: domain.StepModeDAG, Components: []string{"Web Service"}},
			},
			contains: []string{
				`subgraph step1["step-1"]`,
				`subgraph step2["step-2"]`,
				"n1 --> n2",
			},
		},
		{
			name: "Dangling Edges Skipped",
			graph: domain.Graph{
				Nodes: []domain.Node{node("n1", "a", domain.ComponentWebservice, "")},
				Edges: []domain.Edge{{ID: "e1", Source: "n1", Target: "ghost"}},
			},
			excludes: []string{"ghost"},
		},
		{
			name: "Overlay",
			graph: domain.Graph{Nodes: []domain.Node{
				node("n1", "a", domain.ComponentWebservice, ""),
				node("n2", "b", domain.ComponentWebservice, ""),
			}},
			overlay: &graph.GraphOverlay{FocusID: "n1", Selected: []string{"n2", "n2"}},
			contains: []string{
				"class n1 focus;",
				"class n2 selected;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.graph, tt.steps, tt.overlay)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
			assert.True(t, strings.HasPrefix(got, "graph LR\n"))
		})
	}
}

func TestGenerateMermaid_NodeInOneSubgraph(t *testing.T) {
	g := domain.Graph{Nodes: []domain.Node{node("n1", "a", domain.ComponentWebservice, "")}}
	steps := []domain.Step{
		{Name: "step-1", Components: []string{"a"}},
		{Name: "step-2", Components: []string{"a"}},
	}
	got := graph.GenerateMermaid(g, steps, nil)
	assert.Equal(t, 1, strings.Count(got, `n1["a"]`))
}

func TestOverlayFrom(t *testing.T) {
	g := domain.Graph{
		Nodes: []domain.Node{
			{ID: "a", Selected: true},
			{ID: "b"},
		},
		FocusID: "b",
	}
	o := graph.OverlayFrom(g)
	assert.Equal(t, "b", o.FocusID)
	assert.Equal(t, []string{"a"}, o.Selected)
}
