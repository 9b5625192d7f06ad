package dsl

import (
	"testing"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlDoc = `
name: shop
version: "1.0"
project: demo
component:
  - name: settings
    type: config
    properties:
      conf:
        z.yaml: "a: 1"
        a.yaml: "b: 2"
  - name: api
    type: webservice
    image: shop/api:1.4
    replicas: 2
    properties:
      ports:
        - port: 8080
          expose: true
    traits:
      probes:
        - type: readiness
          httpGet:
            path: /ready
            port: 8080
      ingress:
        host: shop.example.com
    dependsOn: [settings]
`

const hclDoc = `
name    = "shop"
version = "1.0"

component "settings" {
  type = "config"

  conf "z.yaml" { value = "a: 1" }
  conf "a.yaml" { value = "b: 2" }
}

component "api" {
  type       = "webservice"
  image      = "shop/api:1.4"
  replicas   = 2
  depends_on = ["settings"]

  port {
    port   = 8080
    expose = true
  }

  env "DB_HOST" { value = "db" }

  traits = {
    probes = [{
      type    = "readiness"
      httpGet = { path = "/ready", port = 8080 }
    }]
  }
}
`

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("p.JSON"))
	assert.Equal(t, FormatHCL, FormatFromPath("dir/p.hcl"))
	assert.Equal(t, FormatYAML, FormatFromPath("p.yml"))
	assert.Equal(t, FormatYAML, FormatFromPath("p"))
}

func TestDecode_YAML(t *testing.T) {
	doc, err := Decode([]byte(yamlDoc), FormatYAML, "shop.yaml")
	require.NoError(t, err)
	require.Len(t, doc.Component, 2)

	g, err := doc.ToGraph()
	require.NoError(t, err)

	settings, ok := g.Node("settings")
	require.True(t, ok)
	assert.Equal(t, []domain.KeyValue{
		{ID: "0", Key: "z.yaml", Value: "a: 1"},
		{ID: "1", Key: "a.yaml", Value: "b: 2"},
	}, settings.Data.ConfigData)

	api, _ := g.Node("api")
	ready, ok := api.Data.Traits.Probe(domain.ProbeReadiness)
	require.True(t, ok)
	assert.Equal(t, 8080, ready.HTTPGet.Port)
	assert.Contains(t, api.Data.Traits.Extra, "ingress")

	require.Len(t, g.Edges, 1)
	assert.Equal(t, "settings", g.Edges[0].Source)
	assert.Equal(t, "api", g.Edges[0].Target)
}

func TestDecode_HCL(t *testing.T) {
	doc, err := Decode([]byte(hclDoc), FormatHCL, "shop.hcl")
	require.NoError(t, err)
	assert.Equal(t, "shop", doc.Name)
	require.Len(t, doc.Component, 2)

	settings := doc.Component[0]
	require.NotNil(t, settings.Properties.Conf)
	assert.Equal(t, "z.yaml", settings.Properties.Conf.Oldest().Key)

	api := doc.Component[1]
	assert.Equal(t, []string{"settings"}, api.DependsOn)
	assert.Equal(t, []domain.Port{{Port: 8080, Expose: true}}, api.Properties.Ports)
	assert.Equal(t, []domain.EnvVar{{Name: "DB_HOST", Value: "db"}}, api.Properties.Env)

	g, err := doc.ToGraph()
	require.NoError(t, err)
	node, _ := g.Node("api")
	ready, ok := node.Data.Traits.Probe(domain.ProbeReadiness)
	require.True(t, ok)
	assert.Equal(t, "/ready", ready.HTTPGet.Path)
	assert.Equal(t, 8080, ready.HTTPGet.Port)
}

func TestDecode_HCLErrors(t *testing.T) {
	_, err := Decode([]byte(`component "x" {`), FormatHCL, "bad.hcl")
	assert.Error(t, err)

	_, err = Decode([]byte(`name = "p"
component "x" {}`), FormatHCL, "missing-type.hcl")
	assert.Error(t, err)
}

func TestRoundTrip_GraphDocumentGraph(t *testing.T) {
	doc, err := Decode([]byte(yamlDoc), FormatYAML, "shop.yaml")
	require.NoError(t, err)
	g, err := doc.ToGraph()
	require.NoError(t, err)

	for _, format := range []Format{FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			exported := FromGraph(Meta{Name: "shop"}, g)
			data, err := Encode(exported, format)
			require.NoError(t, err)

			back, err := Decode(data, format, "roundtrip")
			require.NoError(t, err)
			g2, err := back.ToGraph()
			require.NoError(t, err)

			assert.Equal(t, g.Edges, g2.Edges)
			require.Len(t, g2.Nodes, len(g.Nodes))
			for i := range g.Nodes {
				assert.Equal(t, g.Nodes[i].Data.ConfigData, g2.Nodes[i].Data.ConfigData)
				assert.Equal(t, g.Nodes[i].Data.Traits.Probes, g2.Nodes[i].Data.Traits.Probes)
			}
		})
	}
}

func TestEncode_HCLUnsupported(t *testing.T) {
	_, err := Encode(Document{}, FormatHCL)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestToGraph_DuplicateComponent(t *testing.T) {
	doc := Document{Component: []Component{{Name: "a", Type: "store"}, {Name: "a", Type: "store"}}}
	_, err := doc.ToGraph()
	assert.Error(t, err)
}

func TestFromGraph_UniqueNames(t *testing.T) {
	g := domain.NewGraph()
	g.Nodes = []domain.Node{
		{ID: "s", Data: domain.NodeData{Name: "cache 1", ComponentType: domain.ComponentStore}},
		{ID: "w", Data: domain.NodeData{Name: "cache 1", ComponentType: domain.ComponentWebservice}},
		{ID: "x", Data: domain.NodeData{Name: "cache 2", ComponentType: domain.ComponentWebservice}},
	}
	g.Edges = []domain.Edge{{ID: "e", Source: "w", Target: "x"}}

	doc := FromGraph(Meta{Name: "shop"}, g)
	require.Len(t, doc.Component, 3)
	assert.Equal(t, "cache 1", doc.Component[0].Name)
	assert.Equal(t, "cache 3", doc.Component[1].Name)
	assert.Equal(t, "cache 2", doc.Component[2].Name)
	assert.Equal(t, []string{"cache 3"}, doc.Component[2].DependsOn)

	_, err := doc.ToGraph()
	assert.NoError(t, err)
}

func TestToGraph_RepeatedDependency(t *testing.T) {
	doc := Document{Component: []Component{
		{Name: "db", Type: "store"},
		{Name: "api", Type: "webservice", DependsOn: []string{"db", "db"}},
	}}
	g, err := doc.ToGraph()
	require.NoError(t, err)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "db->api", g.Edges[0].ID)
}
