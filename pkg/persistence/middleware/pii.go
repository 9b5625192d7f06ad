package middleware

import (
	"context"
	"regexp"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/ports"
)

// Mask replaces every redacted value.
const Mask = "***"

type piiMiddleware struct {
	next     ports.WorkspaceStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks sensitive values before
// they are written: environment variables whose name matches one of the
// patterns, secret bundle entries with a matching key, and matching keys
// nested anywhere in free-form traits.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.WorkspaceStore) ports.WorkspaceStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, workspaceID string, ws *domain.Workspace) error {
	// 1. Deep Clone to avoid side effects on the live graph.
	cloned := ws.Clone()

	// 2. Mask PII
	for i := range cloned.Graph.Nodes {
		m.maskNode(&cloned.Graph.Nodes[i].Data)
	}
	if cloned.Graph.Clipboard != nil {
		m.maskNode(&cloned.Graph.Clipboard.Data)
	}

	return m.next.Save(ctx, workspaceID, cloned)
}

func (m *piiMiddleware) maskNode(d *domain.NodeData) {
	for i, env := range d.EnvironmentVariables {
		if m.matches(env.Name) {
			d.EnvironmentVariables[i].Value = Mask
		}
	}
	for i, kv := range d.SecretData {
		if m.matches(kv.Key) {
			d.SecretData[i].Value = Mask
		}
	}
	if d.Traits.Extra != nil {
		d.Traits.Extra = deepCopyMap(d.Traits.Extra)
		maskMap(d.Traits.Extra, m.patterns)
	}
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) Load(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	return m.next.Load(ctx, workspaceID)
}

func (m *piiMiddleware) Delete(ctx context.Context, workspaceID string) error {
	return m.next.Delete(ctx, workspaceID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		// Handle nested maps
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v // shallow copy of value
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		// Check key against patterns
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				break
			}
		}

		// Recurse if map
		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
