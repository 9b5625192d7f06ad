package dsl

import (
	"testing"

	"github.com/kanvas-io/kanvas/pkg/compiler"
	"github.com/kanvas-io/kanvas/pkg/domain"
)

func TestBuilder_SimpleProject(t *testing.T) {
	// 1. Build the document using DSL
	b := New("shop")

	b.Add("settings", "config").
		Conf("app.yaml", "debug: false")

	b.Add("db", "store").
		Image("postgres:16").
		DependsOn("settings")

	b.Add("api", "webservice").
		Image("shop/api:1.4").
		Replicas(2).
		Port(8080, true).
		Env("DB_HOST", "db").
		DependsOn("db").
		Add("worker", "webservice").
		Image("shop/worker:1.4").
		DependsOn("db")

	// 2. Compile to Graph
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// 3. Verify specific nodes
	if len(g.Nodes) != 4 {
		t.Fatalf("Expected 4 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 3 {
		t.Fatalf("Expected 3 edges, got %d", len(g.Edges))
	}

	api, ok := g.Node("api")
	if !ok {
		t.Fatal("node 'api' not found")
	}
	if api.Data.Replicas != 2 {
		t.Errorf("Expected 2 replicas, got %d", api.Data.Replicas)
	}
	if len(api.Data.Ports) != 1 || !api.Data.Ports[0].Expose {
		t.Errorf("Expected one exposed port, got %+v", api.Data.Ports)
	}

	settings, _ := g.Node("settings")
	if domain.KindOf(settings.Data) != domain.KindConfig {
		t.Errorf("Expected settings to be a config bundle, got %s", domain.KindOf(settings.Data))
	}

	// 4. The plan follows the declared dependencies
	steps := compiler.Compile(g.Nodes, g.Edges)
	if len(steps) != 3 {
		t.Fatalf("Expected 3 steps, got %d: %+v", len(steps), steps)
	}
	if got := steps[2].Components; len(got) != 2 || got[0] != "api" || got[1] != "worker" {
		t.Errorf("Expected api and worker in the last step, got %v", got)
	}
}

func TestBuilder_UnknownDependency(t *testing.T) {
	b := New("broken")
	b.Add("api", "webservice").DependsOn("ghost")

	_, err := b.Build()
	if err == nil {
		t.Fatal("Expected error for unknown dependency")
	}
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := New("p")
	first := b.Add("api", "webservice")
	second := b.Add("api", "store")
	if first != second {
		t.Error("Add should return the existing builder")
	}
	if doc := b.Document(); len(doc.Component) != 1 || doc.Component[0].Type != "webservice" {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestComponentBuilder_Probes(t *testing.T) {
	b := New("p")
	c := b.Add("api", "webservice").
		Trait("ingress", map[string]any{"host": "shop.example.com"}).
		Probes(domain.ProbeFields{
			Liveness: domain.FlatProbe{Enabled: true, HTTPPath: "/healthz", HTTPPort: 8080, Period: 10},
		}).
		Build()

	if _, ok := c.Traits["ingress"]; !ok {
		t.Error("existing traits must be kept")
	}
	probes, ok := c.Traits["probes"].([]any)
	if !ok || len(probes) != 1 {
		t.Fatalf("Expected one probe, got %#v", c.Traits["probes"])
	}
}
