package domain

// Template is a catalog entry used to create pre-filled nodes.
type Template struct {
	ID            string        `json:"id" yaml:"id"`
	Label         string        `json:"label" yaml:"label"`
	ComponentType ComponentType `json:"componentType" yaml:"componentType"`
	OriginalType  string        `json:"originalType,omitempty" yaml:"originalType,omitempty"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	Image         string        `json:"image,omitempty" yaml:"image,omitempty"`
	Replicas      int           `json:"replicas,omitempty" yaml:"replicas,omitempty"`
	Ports         []Port        `json:"ports,omitempty" yaml:"ports,omitempty"`
}

// NewNode instantiates the template as an unnamed node. The graph store
// allocates the name from Label when the node is added.
func (t Template) NewNode(id string, pos Position) Node {
	data := NodeData{
		Label:         t.Label,
		ComponentType: t.ComponentType,
		OriginalType:  t.OriginalType,
		Image:         t.Image,
		Replicas:      t.Replicas,
		Ports:         cloneSlice(t.Ports),
		Enabled:       true,
	}
	switch KindOf(data) {
	case KindWebservice, KindStore:
		if data.Replicas == 0 {
			data.Replicas = 1
		}
	case KindConfig, KindSecret:
		data.Image = ""
		data.Replicas = 0
		data.Ports = nil
	case KindUnknown:
		data.ComponentType = ComponentWebservice
		if data.Replicas == 0 {
			data.Replicas = 1
		}
	}
	return Node{ID: id, Position: pos, Data: data}
}
