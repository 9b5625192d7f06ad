package mapper

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Grid layout used by ComponentsToNodes.
const (
	StartX        = 100.0
	StartY        = 100.0
	NodeWidth     = 200.0
	NodeHeight    = 80.0
	HorizontalGap = 50.0
	VerticalGap   = 150.0
)

// RowY returns the y coordinate of the bundle row (0) or the workload row (1).
func RowY(row int) float64 {
	return StartY + float64(row)*(NodeHeight+VerticalGap)
}

// ColumnX returns the x coordinate of the col-th node in a row.
func ColumnX(col int) float64 {
	return StartX + float64(col)*(NodeWidth+HorizontalGap)
}

// ComponentsToNodes converts descriptors into nodes. Config and secret
// descriptors go to the first row, all others to the second, each row in
// input order. Traits that cannot be decoded are kept verbatim in Extra.
func ComponentsToNodes(descs []ComponentDescriptor) []domain.Node {
	nodes := make([]domain.Node, 0, len(descs))
	var bundles, workloads int
	for _, d := range descs {
		var pos domain.Position
		if domain.IsBundleSource(d.Type) {
			pos = domain.Position{X: ColumnX(bundles), Y: RowY(0)}
			bundles++
		} else {
			pos = domain.Position{X: ColumnX(workloads), Y: RowY(1)}
			workloads++
		}
		nodes = append(nodes, ComponentToNode(d, pos))
	}
	return nodes
}

// ComponentToNode converts one descriptor placed at pos.
// The node id is the descriptor id, or its name when the id is empty.
func ComponentToNode(d ComponentDescriptor, pos domain.Position) domain.Node {
	kind := domain.KindFromSource(d.Type)

	id := d.ID
	if id == "" {
		id = d.Name
	}

	traits, err := DecodeTraits(d.Traits)
	if err != nil {
		traits = domain.Traits{Extra: maps.Clone(d.Traits)}
	}

	data := domain.NodeData{
		Name:                 d.Name,
		Label:                d.Type,
		ComponentType:        kind.ComponentType(),
		OriginalType:         d.Type,
		Namespace:            d.Namespace,
		Traits:               traits,
		EnvironmentVariables: slices.Clone(d.Properties.Env),
		Ports:                slices.Clone(d.Properties.Ports),
		Command:              slices.Clone(d.Properties.Command),
		Image:                d.Image,
		Replicas:             d.Replicas,
		Enabled:              true,
	}
	data.ConfigData = toKeyValues(d.Properties.Conf)
	data.SecretData = toKeyValues(d.Properties.Secret)

	return domain.Node{ID: id, Position: pos, Data: data}
}

// NodesToComponents is the reverse of ComponentsToNodes. Positions are dropped.
func NodesToComponents(nodes []domain.Node) []ComponentDescriptor {
	out := make([]ComponentDescriptor, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NodeToComponent(n))
	}
	return out
}

// NodeToComponent converts one node into a backend descriptor.
func NodeToComponent(n domain.Node) ComponentDescriptor {
	d := n.Data
	desc := ComponentDescriptor{
		ID:        n.ID,
		Type:      sourceType(d),
		Name:      d.Name,
		Namespace: d.Namespace,
		Replicas:  d.Replicas,
		Image:     d.Image,
		Properties: Properties{
			Env:     slices.Clone(d.EnvironmentVariables),
			Ports:   slices.Clone(d.Ports),
			Command: slices.Clone(d.Command),
			Conf:    fromKeyValues(d.ConfigData),
			Secret:  fromKeyValues(d.SecretData),
		},
	}
	if !d.Traits.IsZero() {
		desc.Traits = EncodeTraits(d.Traits)
	}
	return desc
}

func sourceType(d domain.NodeData) string {
	switch kind := domain.KindOf(d); kind {
	case domain.KindWebservice, domain.KindStore:
		// Backend types collapsed to a workload kind keep their original name.
		if d.OriginalType != "" && !domain.IsBundleSource(d.OriginalType) {
			return d.OriginalType
		}
		return kind.String()
	case domain.KindConfig, domain.KindSecret:
		return kind.String()
	case domain.KindUnknown:
		if d.OriginalType != "" {
			return d.OriginalType
		}
		return string(d.ComponentType)
	}
	return string(d.ComponentType)
}

// DecodeTraits decodes a backend trait object. Probes are decoded into their
// canonical form; every other trait is kept verbatim in Extra.
func DecodeTraits(raw map[string]any) (domain.Traits, error) {
	var traits domain.Traits
	if len(raw) == 0 {
		return traits, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &traits,
		TagName:          "mapstructure",
	})
	if err != nil {
		return domain.Traits{}, fmt.Errorf("failed to create traits decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return domain.Traits{}, fmt.Errorf("failed to decode traits: %w", err)
	}
	if len(traits.Extra) == 0 {
		traits.Extra = nil
	}
	return traits, nil
}

// EncodeTraits renders traits back into the backend trait object.
func EncodeTraits(t domain.Traits) map[string]any {
	raw, err := json.Marshal(t)
	if err != nil {
		return maps.Clone(t.Extra)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return maps.Clone(t.Extra)
	}
	return out
}

func toKeyValues(m *OrderedStrings) []domain.KeyValue {
	if m == nil || m.Len() == 0 {
		return nil
	}
	out := make([]domain.KeyValue, 0, m.Len())
	i := 0
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, domain.KeyValue{
			ID:    strconv.Itoa(i),
			Key:   pair.Key,
			Value: pair.Value,
		})
		i++
	}
	return out
}

func fromKeyValues(kvs []domain.KeyValue) *OrderedStrings {
	if len(kvs) == 0 {
		return nil
	}
	m := NewOrderedStrings()
	for _, kv := range kvs {
		m.Set(kv.Key, kv.Value)
	}
	return m
}
