package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/ports"
)

// TemplateCatalogContractTest is a reusable test suite that verifies if an adapter complies with ports.TemplateCatalog.
func TemplateCatalogContractTest(t *testing.T, catalog ports.TemplateCatalog, expected []domain.Template) {
	t.Helper()
	ctx := context.Background()

	// 1. Test Get (Success)
	t.Run("Get_Success", func(t *testing.T) {
		for _, want := range expected {
			got, err := catalog.Get(ctx, want.ID)
			if err != nil {
				t.Fatalf("unexpected error getting template %s: %v", want.ID, err)
			}
			if got.Label != want.Label || got.ComponentType != want.ComponentType {
				t.Errorf("template mismatch for %s. got %+v, want %+v", want.ID, got, want)
			}
		}
	})

	// 2. Test Get (NotFound)
	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := catalog.Get(ctx, "non-existent-template")
		if !errors.Is(err, domain.ErrTemplateNotFound) {
			t.Errorf("expected ErrTemplateNotFound, got %v", err)
		}
	})

	// 3. Test List
	t.Run("List", func(t *testing.T) {
		templates, err := catalog.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing templates: %v", err)
		}

		if len(templates) != len(expected) {
			t.Errorf("expected %d templates, got %d", len(expected), len(templates))
		}

		for i := 1; i < len(templates); i++ {
			if templates[i-1].ID > templates[i].ID {
				t.Errorf("templates not ordered by id: %s before %s", templates[i-1].ID, templates[i].ID)
			}
		}

		// Verify all expected IDs are present
		lookup := make(map[string]bool)
		for _, tpl := range templates {
			lookup[tpl.ID] = true
		}

		for _, want := range expected {
			if !lookup[want.ID] {
				t.Errorf("template %s missing from list", want.ID)
			}
		}
	})
}
