package naming

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUniqueName(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		existing []string
		want     string
	}{
		{"empty set keeps base", "Component", nil, "Component"},
		{"bare base taken", "Component", []string{"Component"}, "Component 1"},
		{"first suffix taken", "Component", []string{"Component", "Component 1"}, "Component 2"},
		{"gap is reused", "Component", []string{"Component", "Component 2"}, "Component 1"},
		{"only numbered variant exists", "Component", []string{"Component 3"}, "Component 1"},
		{"suffix on base is stripped", "Component 7", nil, "Component"},
		{"suffix on base is stripped before scan", "Component 7", []string{"Component"}, "Component 1"},
		{"unrelated names ignored", "api", []string{"api-gateway", "apis 1", "Component"}, "api"},
		{"non numeric suffix kept", "Redis v2", []string{"Redis v2"}, "Redis v2 1"},
		{"zero padded variant", "db", []string{"db", "db 01"}, "db 2"},
		{"empty base", "", []string{""}, " 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateUniqueName(tt.base, tt.existing))
		})
	}
}

func TestGenerateUniqueName_NeverCollides(t *testing.T) {
	var names []string
	for i := 0; i < 50; i++ {
		base := "Component"
		if i%3 == 0 {
			base = fmt.Sprintf("Component %d", i)
		}
		got := GenerateUniqueName(base, names)
		assert.False(t, slices.Contains(names, got), "collision on %q", got)
		names = append(names, got)
	}
	assert.Len(t, names, 50)
}
