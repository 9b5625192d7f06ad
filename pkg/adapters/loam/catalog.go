package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/loam"
	"github.com/kanvas-io/kanvas/pkg/domain"
)

// Catalog adapts a Loam repository of markdown templates to ports.TemplateCatalog.
// Each document carries the template in its frontmatter; the body becomes the
// description when the frontmatter has none.
type Catalog struct {
	Repo *loam.TypedRepository[TemplateMetadata]
}

// New creates a new Loam catalog.
func New(repo *loam.TypedRepository[TemplateMetadata]) *Catalog {
	return &Catalog{
		Repo: repo,
	}
}

// Get returns the template whose ID (frontmatter id, or file name without
// extension) matches.
func (c *Catalog) Get(ctx context.Context, id string) (domain.Template, error) {
	templates, err := c.load(ctx)
	if err != nil {
		return domain.Template{}, err
	}
	for _, tpl := range templates {
		if tpl.ID == id {
			return tpl, nil
		}
	}
	return domain.Template{}, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
}

// List returns all templates ordered by ID.
func (c *Catalog) List(ctx context.Context) ([]domain.Template, error) {
	return c.load(ctx)
}

func (c *Catalog) load(ctx context.Context) ([]domain.Template, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	out := make([]domain.Template, 0, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		// Collision Detection
		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: template '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID

		out = append(out, toTemplate(id, doc.Data, doc.Content))
	}
	slices.SortFunc(out, func(a, b domain.Template) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func toTemplate(id string, meta TemplateMetadata, body string) domain.Template {
	tpl := domain.Template{
		ID:           id,
		Label:        meta.Label,
		OriginalType: meta.OriginalType,
		Description:  meta.Description,
		Image:        meta.Image,
		Replicas:     meta.Replicas,
	}
	if tpl.Description == "" {
		tpl.Description = strings.TrimSpace(body)
	}
	if tpl.Label == "" {
		tpl.Label = id
	}

	// componentType may hold either the internal type or a backend source type.
	ct := domain.ComponentType(meta.ComponentType)
	switch ct {
	case domain.ComponentWebservice, domain.ComponentStore, domain.ComponentConfigSecret:
		tpl.ComponentType = ct
	default:
		source := meta.ComponentType
		if source == "" {
			source = meta.OriginalType
		}
		kind := domain.KindFromSource(source)
		tpl.ComponentType = kind.ComponentType()
		if tpl.OriginalType == "" {
			tpl.OriginalType = kind.String()
		}
	}

	for _, p := range meta.Ports {
		tpl.Ports = append(tpl.Ports, domain.Port{Port: p.Port, Expose: p.Expose})
	}
	return tpl
}

func trimExtension(id string) string {
	return strings.TrimSuffix(id, filepath.Ext(id))
}
