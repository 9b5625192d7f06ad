package domain

// NodeDataPatch is a partial NodeData. Nil fields are absent and left
// untouched by Apply; present fields replace the whole top-level value
// (shallow merge).
type NodeDataPatch struct {
	Name                 *string        `json:"name,omitempty"`
	Label                *string        `json:"label,omitempty"`
	ComponentType        *ComponentType `json:"componentType,omitempty"`
	OriginalType         *string        `json:"originalType,omitempty"`
	Namespace            *string        `json:"namespace,omitempty"`
	Traits               *Traits        `json:"traits,omitempty"`
	ConfigData           *[]KeyValue    `json:"configData,omitempty"`
	SecretData           *[]KeyValue    `json:"secretData,omitempty"`
	EnvironmentVariables *[]EnvVar      `json:"environmentVariables,omitempty"`
	Ports                *[]Port        `json:"ports,omitempty"`
	Command              *[]string      `json:"command,omitempty"`
	Image                *string        `json:"image,omitempty"`
	Replicas             *int           `json:"replicas,omitempty"`
	Enabled              *bool          `json:"enabled,omitempty"`
}

// Apply returns d with every present patch field replaced.
func (p NodeDataPatch) Apply(d NodeData) NodeData {
	out := d.Clone()
	setIf(&out.Name, p.Name)
	setIf(&out.Label, p.Label)
	setIf(&out.ComponentType, p.ComponentType)
	setIf(&out.OriginalType, p.OriginalType)
	setIf(&out.Namespace, p.Namespace)
	if p.Traits != nil {
		out.Traits = p.Traits.Clone()
	}
	if p.ConfigData != nil {
		out.ConfigData = cloneSlice(*p.ConfigData)
	}
	if p.SecretData != nil {
		out.SecretData = cloneSlice(*p.SecretData)
	}
	if p.EnvironmentVariables != nil {
		out.EnvironmentVariables = cloneSlice(*p.EnvironmentVariables)
	}
	if p.Ports != nil {
		out.Ports = cloneSlice(*p.Ports)
	}
	if p.Command != nil {
		out.Command = cloneSlice(*p.Command)
	}
	setIf(&out.Image, p.Image)
	setIf(&out.Replicas, p.Replicas)
	setIf(&out.Enabled, p.Enabled)
	return out
}

// IsEmpty reports whether the patch carries no field.
func (p NodeDataPatch) IsEmpty() bool {
	return p == NodeDataPatch{}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
