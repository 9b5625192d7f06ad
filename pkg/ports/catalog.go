package ports

import (
	"context"

	"github.com/kanvas-io/kanvas/pkg/domain"
)

// TemplateCatalog provides the pre-filled component templates offered by the
// canvas palette.
type TemplateCatalog interface {
	// Get returns the template with the given ID.
	// Returns domain.ErrTemplateNotFound if there is none.
	Get(ctx context.Context, id string) (domain.Template, error)

	// List returns every template, ordered by ID.
	List(ctx context.Context) ([]domain.Template, error)
}
