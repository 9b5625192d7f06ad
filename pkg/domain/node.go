package domain

// Position is the canvas coordinate of a node's top-left corner.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node represents one deployable component (or config/secret bundle) on the canvas.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Position Position `json:"position" yaml:"position"`
	Data     NodeData `json:"data" yaml:"data"`

	// Selected mirrors the canvas selection flag.
	Selected bool `json:"selected,omitempty" yaml:"selected,omitempty"`
}

// NodeData is the component payload carried by a Node.
type NodeData struct {
	// Name is the unique display name. It may be empty until the graph store
	// allocates one.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Label is the template/category text, used as the base for name allocation.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	ComponentType ComponentType `json:"componentType" yaml:"componentType"`

	// OriginalType preserves the backend type before collapsing, e.g. "config"
	// vs "secret" for config-secret nodes.
	OriginalType string `json:"originalType,omitempty" yaml:"originalType,omitempty"`

	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	Traits Traits `json:"traits,omitzero" yaml:"traits,omitempty"`

	// ConfigData and SecretData are only populated for config-secret nodes.
	ConfigData []KeyValue `json:"configData,omitempty" yaml:"configData,omitempty"`
	SecretData []KeyValue `json:"secretData,omitempty" yaml:"secretData,omitempty"`

	EnvironmentVariables []EnvVar `json:"environmentVariables,omitempty" yaml:"environmentVariables,omitempty"`
	Ports                []Port   `json:"ports,omitempty" yaml:"ports,omitempty"`
	Command              []string `json:"command,omitempty" yaml:"command,omitempty"`

	Image    string `json:"image,omitempty" yaml:"image,omitempty"`
	Replicas int    `json:"replicas,omitempty" yaml:"replicas,omitempty"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
}

// KeyValue is one entry of an ordered config or secret bundle.
// For config bundles Key is a filename and Value the file content; for secret
// bundles Value is base64 encoded.
type KeyValue struct {
	ID    string `json:"id" yaml:"id"`
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// EnvVar is a container environment variable.
type EnvVar struct {
	Name  string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Value string `json:"value" yaml:"value" mapstructure:"value"`
}

// Port is a container port, optionally exposed outside the cluster.
type Port struct {
	Port   int  `json:"port" yaml:"port" mapstructure:"port" validate:"min=1,max=65535"`
	Expose bool `json:"expose,omitempty" yaml:"expose,omitempty" mapstructure:"expose"`
}

// Clone returns a deep copy of the node so callers can mutate it freely.
func (n Node) Clone() Node {
	n.Data = n.Data.Clone()
	return n
}

// Clone returns a deep copy of the data.
func (d NodeData) Clone() NodeData {
	d.Traits = d.Traits.Clone()
	d.ConfigData = cloneSlice(d.ConfigData)
	d.SecretData = cloneSlice(d.SecretData)
	d.EnvironmentVariables = cloneSlice(d.EnvironmentVariables)
	d.Ports = cloneSlice(d.Ports)
	d.Command = cloneSlice(d.Command)
	return d
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
