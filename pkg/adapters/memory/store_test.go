package memory_test

import (
	"testing"

	"github.com/kanvas-io/kanvas/pkg/adapters/memory"
	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/ports"
	"github.com/kanvas-io/kanvas/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunWorkspaceStoreContract(t, store)
}

func TestMemoryCatalog_Contract(t *testing.T) {
	templates := []domain.Template{
		{ID: "redis", Label: "Redis", ComponentType: domain.ComponentStore},
		{ID: "nginx", Label: "Nginx", ComponentType: domain.ComponentWebservice},
	}
	catalog, err := memory.NewCatalog(templates...)
	if err != nil {
		t.Fatalf("NewCatalog() failed: %v", err)
	}
	tests.TemplateCatalogContractTest(t, catalog, templates)
}

func TestDefaultCatalog(t *testing.T) {
	c := memory.DefaultCatalog()
	tpls, err := c.List(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(tpls) != 4 {
		t.Fatalf("expected 4 templates, got %d", len(tpls))
	}
	for _, tpl := range tpls {
		if domain.KindOf(tpl.NewNode("x", domain.Position{}).Data) == domain.KindUnknown {
			t.Errorf("template %s yields an unknown kind", tpl.ID)
		}
	}
}

func TestNewCatalog_MissingID(t *testing.T) {
	if _, err := memory.NewCatalog(domain.Template{Label: "x"}); err == nil {
		t.Error("expected error for template without ID")
	}
}
