package dsl

import (
	"fmt"

	"github.com/kanvas-io/kanvas/pkg/domain"
)

// Builder manages the document construction.
type Builder struct {
	meta       Meta
	order      []string
	components map[string]*ComponentBuilder
}

// New creates a new document builder.
func New(name string) *Builder {
	return &Builder{
		meta:       Meta{Name: name},
		components: make(map[string]*ComponentBuilder),
	}
}

// Describe sets the descriptive header of the document.
func (b *Builder) Describe(meta Meta) *Builder {
	if meta.Name == "" {
		meta.Name = b.meta.Name
	}
	b.meta = meta
	return b
}

// Add creates a new component of the given backend type.
// If the component already exists, it returns the existing builder.
func (b *Builder) Add(name, componentType string) *ComponentBuilder {
	if cb, ok := b.components[name]; ok {
		return cb
	}
	cb := &ComponentBuilder{
		component: Component{Name: name, Type: componentType},
		builder:   b,
	}
	b.components[name] = cb
	b.order = append(b.order, name)
	return cb
}

// Document returns the assembled document, components in insertion order.
func (b *Builder) Document() Document {
	doc := Document{
		Name:        b.meta.Name,
		Alias:       b.meta.Alias,
		Version:     b.meta.Version,
		Project:     b.meta.Project,
		Description: b.meta.Description,
		Component:   make([]Component, 0, len(b.order)),
	}
	for _, name := range b.order {
		doc.Component = append(doc.Component, b.components[name].component)
	}
	return doc
}

// Build compiles the document into a canvas graph.
func (b *Builder) Build() (domain.Graph, error) {
	g, err := b.Document().ToGraph()
	if err != nil {
		return domain.Graph{}, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}
