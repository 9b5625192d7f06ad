package domain

// ComponentType is the internal component category of a node.
type ComponentType string

const (
	ComponentWebservice   ComponentType = "webservice"
	ComponentStore        ComponentType = "store"
	ComponentConfigSecret ComponentType = "config-secret"
)

// Backend source types. "config" and "secret" both collapse to ComponentConfigSecret.
const (
	SourceWebservice = "webservice"
	SourceStore      = "store"
	SourceConfig     = "config"
	SourceSecret     = "secret"
)

// Kind is the closed set of editor/serialization variants a node can take.
// Use KindOf to derive it and switch on it exhaustively at every boundary
// instead of comparing type strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindWebservice
	KindStore
	KindConfig
	KindSecret
)

func (k Kind) String() string {
	switch k {
	case KindWebservice:
		return SourceWebservice
	case KindStore:
		return SourceStore
	case KindConfig:
		return SourceConfig
	case KindSecret:
		return SourceSecret
	case KindUnknown:
		return "unknown"
	}
	return "unknown"
}

// ComponentType returns the internal component type of the kind.
func (k Kind) ComponentType() ComponentType {
	switch k {
	case KindWebservice:
		return ComponentWebservice
	case KindStore:
		return ComponentStore
	case KindConfig, KindSecret:
		return ComponentConfigSecret
	case KindUnknown:
		return ""
	}
	return ""
}

// IsBundle reports whether the kind is a config/secret bundle.
func (k Kind) IsBundle() bool {
	return k == KindConfig || k == KindSecret
}

// KindOf derives the variant of a node from its component and original types.
// A config-secret node without an original type is treated as a config bundle.
func KindOf(d NodeData) Kind {
	switch d.ComponentType {
	case ComponentWebservice:
		return KindWebservice
	case ComponentStore:
		return KindStore
	case ComponentConfigSecret:
		if d.OriginalType == SourceSecret {
			return KindSecret
		}
		return KindConfig
	}
	return KindUnknown
}

// KindFromSource maps a backend component type to its variant.
// Unknown backend types are treated as web services.
func KindFromSource(sourceType string) Kind {
	switch sourceType {
	case SourceConfig:
		return KindConfig
	case SourceSecret:
		return KindSecret
	case SourceStore:
		return KindStore
	default:
		return KindWebservice
	}
}

// IsBundleSource reports whether a backend type is placed on the bundle row.
func IsBundleSource(sourceType string) bool {
	return sourceType == SourceConfig || sourceType == SourceSecret
}
