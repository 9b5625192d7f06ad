package mapper

import (
	"github.com/kanvas-io/kanvas/pkg/domain"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ComponentDescriptor is the backend component listing entry.
type ComponentDescriptor struct {
	ID         string         `json:"id,omitempty" yaml:"id,omitempty"`
	Type       string         `json:"type" yaml:"type" validate:"required,componenttype"`
	Name       string         `json:"name" yaml:"name" validate:"required"`
	Namespace  string         `json:"namespace,omitempty" yaml:"namespace,omitempty" validate:"omitempty,dns_rfc1035_label"`
	Replicas   int            `json:"replicas,omitempty" yaml:"replicas,omitempty" validate:"gte=0"`
	Image      string         `json:"image,omitempty" yaml:"image,omitempty"`
	Properties Properties     `json:"properties" yaml:"properties"`
	Traits     map[string]any `json:"traits,omitempty" yaml:"traits,omitempty"`
}

// Properties carries the type-specific settings of a descriptor.
type Properties struct {
	Env     []domain.EnvVar `json:"env,omitempty" yaml:"env,omitempty" validate:"dive"`
	Ports   []domain.Port   `json:"ports,omitempty" yaml:"ports,omitempty" validate:"dive"`
	Command []string        `json:"command,omitempty" yaml:"command,omitempty"`

	// Conf maps filename to file content.
	Conf *OrderedStrings `json:"conf,omitempty" yaml:"conf,omitempty"`
	// Secret maps key to base64 encoded value.
	Secret *OrderedStrings `json:"secret,omitempty" yaml:"secret,omitempty"`
}

// OrderedStrings is a string map that remembers insertion order when
// decoded from JSON or YAML.
type OrderedStrings = orderedmap.OrderedMap[string, string]

// NewOrderedStrings builds an ordered map from alternating key, value pairs.
func NewOrderedStrings(kv ...string) *OrderedStrings {
	m := orderedmap.New[string, string]()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}
