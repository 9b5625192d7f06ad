package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	a := Node{ID: "a", Data: NodeData{Name: "A", ComponentType: ComponentWebservice}}
	b := Node{ID: "b", Data: NodeData{Name: "B", ComponentType: ComponentStore}}
	ab := Edge{ID: "e1", Source: "a", Target: "b"}

	tests := []struct {
		name         string
		old          *Graph
		new          *Graph
		wantNil      bool
		addedNodes   int
		changedNodes int
		removedNodes []string
		addedEdges   int
		removedEdges []string
	}{
		{
			name:       "Initial Load (Old is Nil)",
			old:        nil,
			new:        &Graph{Nodes: []Node{a, b}, Edges: []Edge{ab}},
			addedNodes: 2,
			addedEdges: 1,
		},
		{
			name:    "No Changes",
			old:     &Graph{Nodes: []Node{a, b}, Edges: []Edge{ab}},
			new:     &Graph{Nodes: []Node{a, b}, Edges: []Edge{ab}},
			wantNil: true,
		},
		{
			name: "Node Data Changed",
			old:  &Graph{Nodes: []Node{a}},
			new: &Graph{Nodes: []Node{{
				ID:   "a",
				Data: NodeData{Name: "A", ComponentType: ComponentWebservice, Image: "nginx"},
			}}},
			changedNodes: 1,
		},
		{
			name:         "Node And Edge Removed",
			old:          &Graph{Nodes: []Node{a, b}, Edges: []Edge{ab}},
			new:          &Graph{Nodes: []Node{a}},
			removedNodes: []string{"b"},
			removedEdges: []string{"e1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Diff() = nil, want a diff")
			}
			if len(got.AddedNodes) != tt.addedNodes {
				t.Errorf("AddedNodes = %d, want %d", len(got.AddedNodes), tt.addedNodes)
			}
			if len(got.ChangedNodes) != tt.changedNodes {
				t.Errorf("ChangedNodes = %d, want %d", len(got.ChangedNodes), tt.changedNodes)
			}
			if strings.Join(got.RemovedNodes, ",") != strings.Join(tt.removedNodes, ",") {
				t.Errorf("RemovedNodes = %v, want %v", got.RemovedNodes, tt.removedNodes)
			}
			if len(got.AddedEdges) != tt.addedEdges {
				t.Errorf("AddedEdges = %d, want %d", len(got.AddedEdges), tt.addedEdges)
			}
			if strings.Join(got.RemovedEdges, ",") != strings.Join(tt.removedEdges, ",") {
				t.Errorf("RemovedEdges = %v, want %v", got.RemovedEdges, tt.removedEdges)
			}
		})
	}
}

func TestDiff_FocusCleared(t *testing.T) {
	old := &Graph{FocusID: "a"}
	diff := Diff(old, &Graph{})
	if diff == nil || diff.FocusID == nil {
		t.Fatal("expected focus change in diff")
	}
	if *diff.FocusID != "" {
		t.Errorf("FocusID = %q, want empty", *diff.FocusID)
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	diff := Diff(&Graph{}, &Graph{Nodes: []Node{{ID: "n1"}}})
	if diff == nil {
		t.Fatal("Expected diff, got nil")
	}

	bytes, err := json.Marshal(diff)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(bytes), `"removed_edges"`) {
		t.Errorf("JSON should omit empty collections, got: %s", string(bytes))
	}
	if !strings.Contains(string(bytes), `"added_nodes"`) {
		t.Errorf("JSON should contain added_nodes, got: %s", string(bytes))
	}
}
