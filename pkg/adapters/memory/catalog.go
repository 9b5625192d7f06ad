package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kanvas-io/kanvas/pkg/domain"
)

// Catalog implements ports.TemplateCatalog over a fixed set of templates.
type Catalog struct {
	templates map[string]domain.Template
}

// NewCatalog creates a catalog from domain objects.
func NewCatalog(templates ...domain.Template) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]domain.Template, len(templates))}
	for _, tpl := range templates {
		if tpl.ID == "" {
			return nil, fmt.Errorf("template missing ID")
		}
		c.templates[tpl.ID] = tpl
	}
	return c, nil
}

// DefaultCatalog returns the built-in palette: one template per component kind.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(
		domain.Template{ID: "webservice", Label: "Web Service", ComponentType: domain.ComponentWebservice, OriginalType: domain.SourceWebservice, Replicas: 1, Ports: []domain.Port{{Port: 8080}}},
		domain.Template{ID: "store", Label: "Store", ComponentType: domain.ComponentStore, OriginalType: domain.SourceStore, Replicas: 1},
		domain.Template{ID: "config", Label: "Config", ComponentType: domain.ComponentConfigSecret, OriginalType: domain.SourceConfig},
		domain.Template{ID: "secret", Label: "Secret", ComponentType: domain.ComponentConfigSecret, OriginalType: domain.SourceSecret},
	)
	return c
}

// Get retrieves a template by ID.
func (c *Catalog) Get(ctx context.Context, id string) (domain.Template, error) {
	tpl, ok := c.templates[id]
	if !ok {
		return domain.Template{}, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
	}
	return tpl, nil
}

// List returns all templates ordered by ID.
func (c *Catalog) List(ctx context.Context) ([]domain.Template, error) {
	out := make([]domain.Template, 0, len(c.templates))
	for _, tpl := range c.templates {
		out = append(out, tpl)
	}
	slices.SortFunc(out, func(a, b domain.Template) int { return strings.Compare(a.ID, b.ID) }) // Deterministic order
	return out, nil
}
