package dsl

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/mapper"
	"github.com/kanvas-io/kanvas/pkg/naming"
)

// ErrUnknownDependency is returned when a component depends on a name that
// is not part of the document.
var ErrUnknownDependency = errors.New("unknown dependency")

// Document is the offline project export of a canvas.
type Document struct {
	Name        string      `json:"name" yaml:"name"`
	Alias       string      `json:"alias,omitempty" yaml:"alias,omitempty"`
	Version     string      `json:"version,omitempty" yaml:"version,omitempty"`
	Project     string      `json:"project,omitempty" yaml:"project,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Component   []Component `json:"component" yaml:"component"`
}

// Component is one deployable unit of a Document. Edges of the canvas are
// recorded as DependsOn, naming the components that run first.
type Component struct {
	Name       string            `json:"name" yaml:"name"`
	Type       string            `json:"type" yaml:"type"`
	Namespace  string            `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Replicas   int               `json:"replicas,omitempty" yaml:"replicas,omitempty"`
	Image      string            `json:"image,omitempty" yaml:"image,omitempty"`
	Properties mapper.Properties `json:"properties" yaml:"properties"`
	Traits     map[string]any    `json:"traits,omitempty" yaml:"traits,omitempty"`
	DependsOn  []string          `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

// Meta holds the descriptive header of a Document.
type Meta struct {
	Name        string
	Alias       string
	Version     string
	Project     string
	Description string
}

// FromGraph exports g. Nodes without a name are exported under their id.
// Component names are unique: a node whose name is already taken by an
// earlier node is exported under the next free suffix, and dependencies
// follow the new name. Edges whose endpoints are missing are dropped.
func FromGraph(meta Meta, g domain.Graph) Document {
	doc := Document{
		Name:        meta.Name,
		Alias:       meta.Alias,
		Version:     meta.Version,
		Project:     meta.Project,
		Description: meta.Description,
		Component:   make([]Component, 0, len(g.Nodes)),
	}

	names := exportNames(g.Nodes)

	for _, n := range g.Nodes {
		desc := mapper.NodeToComponent(n)
		c := Component{
			Name:       names[n.ID],
			Type:       desc.Type,
			Namespace:  desc.Namespace,
			Replicas:   desc.Replicas,
			Image:      desc.Image,
			Properties: desc.Properties,
			Traits:     desc.Traits,
		}
		for _, e := range g.Edges {
			if e.Target != n.ID {
				continue
			}
			dep, ok := names[e.Source]
			if !ok || slices.Contains(c.DependsOn, dep) {
				continue
			}
			c.DependsOn = append(c.DependsOn, dep)
		}
		doc.Component = append(doc.Component, c)
	}
	return doc
}

// exportNames maps node ids to unique component names. The first node
// holding a name keeps it; later holders are renumbered against every name
// in the graph.
func exportNames(nodes []domain.Node) map[string]string {
	used := make([]string, 0, len(nodes))
	for _, n := range nodes {
		used = append(used, exportName(n))
	}

	names := make(map[string]string, len(nodes))
	taken := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		name := exportName(n)
		if taken[name] {
			name = naming.GenerateUniqueName(name, used)
			used = append(used, name)
		}
		taken[name] = true
		names[n.ID] = name
	}
	return names
}

func exportName(n domain.Node) string {
	if n.Data.Name != "" {
		return n.Data.Name
	}
	return n.ID
}

// ToGraph rebuilds a canvas graph. Nodes are laid out like a backend
// listing and keyed by component name; every dependency becomes an edge
// from the dependency to the dependent component.
func (d Document) ToGraph() (domain.Graph, error) {
	known := make(map[string]struct{}, len(d.Component))
	for _, c := range d.Component {
		if _, dup := known[c.Name]; dup {
			return domain.Graph{}, fmt.Errorf("duplicate component %q", c.Name)
		}
		known[c.Name] = struct{}{}
	}

	g := domain.NewGraph()
	g.Nodes = mapper.ComponentsToNodes(d.Descriptors())

	for _, c := range d.Component {
		seen := make(map[string]bool, len(c.DependsOn))
		for _, dep := range c.DependsOn {
			if _, ok := known[dep]; !ok {
				return domain.Graph{}, fmt.Errorf("component %q: %w %q", c.Name, ErrUnknownDependency, dep)
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			g.Edges = append(g.Edges, domain.Edge{
				ID:     dep + "->" + c.Name,
				Source: dep,
				Target: c.Name,
			})
		}
	}
	return g, nil
}

// Descriptors returns the components as backend descriptors, without layout.
func (d Document) Descriptors() []mapper.ComponentDescriptor {
	out := make([]mapper.ComponentDescriptor, 0, len(d.Component))
	for _, c := range d.Component {
		out = append(out, mapper.ComponentDescriptor{
			ID:         c.Name,
			Type:       c.Type,
			Name:       c.Name,
			Namespace:  c.Namespace,
			Replicas:   c.Replicas,
			Image:      c.Image,
			Properties: c.Properties,
			Traits:     c.Traits,
		})
	}
	return out
}
