package dsl

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/mapper"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// hclDocument is the HCL schema of a Document:
//
//	name = "shop"
//
//	component "api" {
//	  type       = "webservice"
//	  image      = "shop/api:1.4"
//	  depends_on = ["db"]
//
//	  port {
//	    port   = 8080
//	    expose = true
//	  }
//
//	  env "DB_HOST" { value = "db" }
//	}
//
// Conf, secret and env entries are blocks so their order survives.
type hclDocument struct {
	Name        string          `hcl:"name"`
	Alias       string          `hcl:"alias,optional"`
	Version     string          `hcl:"version,optional"`
	Project     string          `hcl:"project,optional"`
	Description string          `hcl:"description,optional"`
	Components  []*hclComponent `hcl:"component,block"`
}

type hclComponent struct {
	Name      string         `hcl:"name,label"`
	Type      string         `hcl:"type"`
	Namespace string         `hcl:"namespace,optional"`
	Replicas  int            `hcl:"replicas,optional"`
	Image     string         `hcl:"image,optional"`
	Command   []string       `hcl:"command,optional"`
	DependsOn []string       `hcl:"depends_on,optional"`
	Traits    hcl.Expression `hcl:"traits,optional"`
	Env       []*hclEntry    `hcl:"env,block"`
	Ports     []*hclPort     `hcl:"port,block"`
	Conf      []*hclEntry    `hcl:"conf,block"`
	Secret    []*hclEntry    `hcl:"secret,block"`
}

type hclEntry struct {
	Key   string `hcl:"key,label"`
	Value string `hcl:"value"`
}

type hclPort struct {
	Port   int  `hcl:"port"`
	Expose bool `hcl:"expose,optional"`
}

func decodeHCL(data []byte, filename string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL document %s: %w", filename, diags)
	}

	var root hclDocument
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL document %s: %w", filename, diags)
	}

	doc := &Document{
		Name:        root.Name,
		Alias:       root.Alias,
		Version:     root.Version,
		Project:     root.Project,
		Description: root.Description,
		Component:   make([]Component, 0, len(root.Components)),
	}
	for _, c := range root.Components {
		comp, err := translateComponent(c)
		if err != nil {
			return nil, fmt.Errorf("component %q in %s: %w", c.Name, filename, err)
		}
		doc.Component = append(doc.Component, comp)
	}
	return doc, nil
}

func translateComponent(c *hclComponent) (Component, error) {
	comp := Component{
		Name:      c.Name,
		Type:      c.Type,
		Namespace: c.Namespace,
		Replicas:  c.Replicas,
		Image:     c.Image,
		DependsOn: c.DependsOn,
		Properties: mapper.Properties{
			Command: c.Command,
			Conf:    entries(c.Conf),
			Secret:  entries(c.Secret),
		},
	}
	for _, e := range c.Env {
		comp.Properties.Env = append(comp.Properties.Env, domain.EnvVar{Name: e.Key, Value: e.Value})
	}
	for _, p := range c.Ports {
		comp.Properties.Ports = append(comp.Properties.Ports, domain.Port{Port: p.Port, Expose: p.Expose})
	}

	traits, err := evalTraits(c.Traits)
	if err != nil {
		return Component{}, err
	}
	comp.Traits = traits
	return comp, nil
}

// evalTraits turns the traits attribute into a plain JSON-shaped map.
func evalTraits(expr hcl.Expression) (map[string]any, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate traits: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}

	raw, err := ctyjson.SimpleJSONValue{Value: val}.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to convert traits: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("traits must be an object: %w", err)
	}
	return out, nil
}

func entries(list []*hclEntry) *mapper.OrderedStrings {
	if len(list) == 0 {
		return nil
	}
	m := mapper.NewOrderedStrings()
	for _, e := range list {
		m.Set(e.Key, e.Value)
	}
	return m
}
