package loam

// TemplateMetadata is the frontmatter of a template document.
// It uses "mapstructure" tags to match the YAML keys written by palette authors.
type TemplateMetadata struct {
	ID            string         `json:"id" mapstructure:"id"`
	Label         string         `json:"label" mapstructure:"label"`
	ComponentType string         `json:"componentType" mapstructure:"componentType"`
	OriginalType  string         `json:"originalType" mapstructure:"originalType"`
	Description   string         `json:"description" mapstructure:"description"`
	Image         string         `json:"image" mapstructure:"image"`
	Replicas      int            `json:"replicas" mapstructure:"replicas"`
	Ports         []TemplatePort `json:"ports" mapstructure:"ports"`
}

// TemplatePort mirrors domain.Port in frontmatter.
type TemplatePort struct {
	Port   int  `json:"port" mapstructure:"port"`
	Expose bool `json:"expose" mapstructure:"expose"`
}
