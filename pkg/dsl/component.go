package dsl

import (
	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/mapper"
)

// ComponentBuilder provides a fluent API for configuring a component.
type ComponentBuilder struct {
	component Component
	builder   *Builder
}

// Image sets the container image.
func (c *ComponentBuilder) Image(image string) *ComponentBuilder {
	c.component.Image = image
	return c
}

// Replicas sets the replica count.
func (c *ComponentBuilder) Replicas(n int) *ComponentBuilder {
	c.component.Replicas = n
	return c
}

// Namespace sets the target namespace.
func (c *ComponentBuilder) Namespace(ns string) *ComponentBuilder {
	c.component.Namespace = ns
	return c
}

// Command sets the container command.
func (c *ComponentBuilder) Command(args ...string) *ComponentBuilder {
	c.component.Properties.Command = args
	return c
}

// Port adds a container port.
func (c *ComponentBuilder) Port(port int, expose bool) *ComponentBuilder {
	c.component.Properties.Ports = append(c.component.Properties.Ports, domain.Port{Port: port, Expose: expose})
	return c
}

// Env adds an environment variable.
func (c *ComponentBuilder) Env(name, value string) *ComponentBuilder {
	c.component.Properties.Env = append(c.component.Properties.Env, domain.EnvVar{Name: name, Value: value})
	return c
}

// Conf adds a config file. Files keep the order they are added in.
func (c *ComponentBuilder) Conf(filename, content string) *ComponentBuilder {
	if c.component.Properties.Conf == nil {
		c.component.Properties.Conf = mapper.NewOrderedStrings()
	}
	c.component.Properties.Conf.Set(filename, content)
	return c
}

// Secret adds a base64 encoded secret value.
func (c *ComponentBuilder) Secret(key, value string) *ComponentBuilder {
	if c.component.Properties.Secret == nil {
		c.component.Properties.Secret = mapper.NewOrderedStrings()
	}
	c.component.Properties.Secret.Set(key, value)
	return c
}

// Trait sets a raw trait object.
func (c *ComponentBuilder) Trait(name string, value any) *ComponentBuilder {
	if c.component.Traits == nil {
		c.component.Traits = make(map[string]any)
	}
	c.component.Traits[name] = value
	return c
}

// Probes sets the health probes from their flattened form.
func (c *ComponentBuilder) Probes(fields domain.ProbeFields) *ComponentBuilder {
	traits, err := mapper.DecodeTraits(c.component.Traits)
	if err != nil {
		traits = domain.Traits{Extra: c.component.Traits}
	}
	c.component.Traits = mapper.EncodeTraits(fields.Apply(traits))
	return c
}

// DependsOn declares components that must run before this one.
func (c *ComponentBuilder) DependsOn(names ...string) *ComponentBuilder {
	c.component.DependsOn = append(c.component.DependsOn, names...)
	return c
}

// Build returns the underlying Component.
func (c *ComponentBuilder) Build() Component {
	return c.component
}

// Add starts the next component on the same document.
func (c *ComponentBuilder) Add(name, componentType string) *ComponentBuilder {
	return c.builder.Add(name, componentType)
}
