package mapper

import (
	"encoding/json"
	"testing"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const backendListing = `[
  {"id": "c1", "type": "webservice", "name": "api", "namespace": "shop", "replicas": 2, "image": "shop/api:1.4",
   "properties": {"env": [{"name": "DB_HOST", "value": "db"}], "ports": [{"port": 8080, "expose": true}], "command": ["./api", "--verbose"]},
   "traits": {"probes": [{"type": "liveness", "exec": {"command": ["cat", "/tmp/healthy"]}, "initialDelaySeconds": 5, "periodSeconds": 10}],
              "storage": {"pvc": [{"name": "data", "mountPath": "/data"}]}}},
  {"id": "c2", "type": "secret", "name": "creds", "properties": {"secret": {"password": "cGFzcw==", "user": "YWRtaW4="}}},
  {"id": "c3", "type": "store", "name": "db", "image": "postgres:16"},
  {"id": "c4", "type": "config", "name": "settings", "properties": {"conf": {"z.yaml": "a: 1", "a.yaml": "b: 2"}}}
]`

func loadListing(t *testing.T) []ComponentDescriptor {
	t.Helper()
	var descs []ComponentDescriptor
	require.NoError(t, json.Unmarshal([]byte(backendListing), &descs))
	return descs
}

func TestComponentsToNodes_Layout(t *testing.T) {
	nodes := ComponentsToNodes(loadListing(t))
	require.Len(t, nodes, 4)

	byID := make(map[string]domain.Node)
	for _, n := range nodes {
		byID[n.ID] = n
	}

	assert.Equal(t, domain.Position{X: StartX, Y: StartY}, byID["c2"].Position)
	assert.Equal(t, domain.Position{X: StartX + NodeWidth + HorizontalGap, Y: StartY}, byID["c4"].Position)

	row2 := StartY + NodeHeight + VerticalGap
	assert.Equal(t, domain.Position{X: StartX, Y: row2}, byID["c1"].Position)
	assert.Equal(t, domain.Position{X: StartX + NodeWidth + HorizontalGap, Y: row2}, byID["c3"].Position)
}

func TestComponentsToNodes_RowsIgnoreInputOrder(t *testing.T) {
	types := []string{"config", "webservice", "secret", "store", "worker", "config"}
	for shift := range types {
		var descs []ComponentDescriptor
		for i := range types {
			typ := types[(i+shift)%len(types)]
			descs = append(descs, ComponentDescriptor{Type: typ, Name: typ + string(rune('a'+i))})
		}

		for _, n := range ComponentsToNodes(descs) {
			if n.Data.ComponentType == domain.ComponentConfigSecret {
				assert.Equal(t, RowY(0), n.Position.Y, n.Data.Name)
			} else {
				assert.Equal(t, RowY(1), n.Position.Y, n.Data.Name)
			}
		}
	}
}

func TestComponentToNode_Mapping(t *testing.T) {
	nodes := ComponentsToNodes(loadListing(t))

	api := nodes[0]
	assert.Equal(t, domain.ComponentWebservice, api.Data.ComponentType)
	assert.Equal(t, "shop", api.Data.Namespace)
	assert.Equal(t, 2, api.Data.Replicas)
	assert.True(t, api.Data.Enabled)
	assert.Equal(t, []domain.EnvVar{{Name: "DB_HOST", Value: "db"}}, api.Data.EnvironmentVariables)

	live, ok := api.Data.Traits.Probe(domain.ProbeLiveness)
	require.True(t, ok)
	assert.Equal(t, []string{"cat", "/tmp/healthy"}, live.Exec.Command)
	assert.Equal(t, domain.Ptr(5), live.InitialDelaySeconds)
	assert.Contains(t, api.Data.Traits.Extra, "storage")

	fields := domain.FlattenProbes(api.Data.Traits)
	assert.Equal(t, "cat /tmp/healthy", fields.Liveness.ExecCommand)

	creds := nodes[1]
	assert.Equal(t, domain.ComponentConfigSecret, creds.Data.ComponentType)
	assert.Equal(t, domain.SourceSecret, creds.Data.OriginalType)
	assert.Equal(t, domain.KindSecret, domain.KindOf(creds.Data))
	assert.Equal(t, []domain.KeyValue{
		{ID: "0", Key: "password", Value: "cGFzcw=="},
		{ID: "1", Key: "user", Value: "YWRtaW4="},
	}, creds.Data.SecretData)

	settings := nodes[3]
	assert.Equal(t, domain.KindConfig, domain.KindOf(settings.Data))
	assert.Equal(t, []domain.KeyValue{
		{ID: "0", Key: "z.yaml", Value: "a: 1"},
		{ID: "1", Key: "a.yaml", Value: "b: 2"},
	}, settings.Data.ConfigData)
}

func TestNodesToComponents_RoundTrip(t *testing.T) {
	descs := loadListing(t)
	nodes := ComponentsToNodes(descs)

	back := NodesToComponents(nodes)
	require.Len(t, back, len(descs))

	for i := range descs {
		assert.Equal(t, descs[i].Type, back[i].Type)
		assert.Equal(t, descs[i].Name, back[i].Name)
	}

	conf := back[3].Properties.Conf
	require.NotNil(t, conf)
	assert.Equal(t, "z.yaml", conf.Oldest().Key)
	assert.Equal(t, "a.yaml", conf.Newest().Key)

	again := ComponentsToNodes(back)
	assert.Equal(t, nodes[0].Data.Traits, again[0].Data.Traits)
	assert.Equal(t, nodes[1].Data.SecretData, again[1].Data.SecretData)
	assert.Equal(t, nodes[3].Data.ConfigData, again[3].Data.ConfigData)
}

func TestNodesToComponents_KeepsProbesVerbatim(t *testing.T) {
	const traits = `{"probes":[{"type":"liveness","httpGet":{"path":"/h","port":8080,"scheme":"HTTPS","host":"x"},"initialDelaySeconds":0,"periodSeconds":10},
	                 {"type":"readiness","exec":{"command":["sh","-c","curl -f localhost"]},"timeoutSeconds":1,"terminationGracePeriodSeconds":30}]}`
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(traits), &raw))

	nodes := ComponentsToNodes([]ComponentDescriptor{{ID: "c1", Type: "webservice", Name: "api", Traits: raw}})
	back := NodesToComponents(nodes)
	require.Len(t, back, 1)

	out, err := json.Marshal(back[0].Traits)
	require.NoError(t, err)
	assert.JSONEq(t, traits, string(out))

	// Editing through the flattened view keeps the rest of the probe.
	data := nodes[0].Data
	fields := domain.FlattenProbes(data.Traits)
	fields.Liveness.Period = 20
	data.Traits = fields.Apply(data.Traits)
	edited := NodeToComponent(domain.Node{ID: "c1", Data: data})

	live := edited.Traits["probes"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 20, live["periodSeconds"])
	assert.EqualValues(t, 0, live["initialDelaySeconds"])
	assert.Equal(t, map[string]any{"path": "/h", "port": 8080.0, "scheme": "HTTPS", "host": "x"}, live["httpGet"])
}

func TestNodeToComponent_KeepsCustomWorkloadType(t *testing.T) {
	n := ComponentToNode(ComponentDescriptor{Type: "cronjob", Name: "nightly"}, domain.Position{})
	assert.Equal(t, domain.ComponentWebservice, n.Data.ComponentType)
	assert.Equal(t, "nightly", n.ID)
	assert.Equal(t, "cronjob", NodeToComponent(n).Type)
}

func TestDecodeTraits_Weak(t *testing.T) {
	traits, err := DecodeTraits(map[string]any{
		"probes": []any{
			map[string]any{"type": "readiness", "httpGet": map[string]any{"path": "/ready", "port": "8080"}},
		},
	})
	require.NoError(t, err)
	ready, ok := traits.Probe(domain.ProbeReadiness)
	require.True(t, ok)
	assert.Equal(t, 8080, ready.HTTPGet.Port)
	assert.Nil(t, traits.Extra)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(loadListing(t)))

	bad := []ComponentDescriptor{
		{Type: "webservice", Name: ""},
		{Type: "Web Service", Name: "x"},
		{Type: "store", Name: "db", Properties: Properties{Ports: []domain.Port{{Port: 70000}}}},
		{Type: "secret", Name: "s", Properties: Properties{Secret: NewOrderedStrings("k", "not base64!")}},
		{Type: "store", Name: "db"},
	}
	err := Validate(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidDescriptor)
	msg := err.Error()
	assert.Contains(t, msg, "component 0")
	assert.Contains(t, msg, "component 1")
	assert.Contains(t, msg, "component 2")
	assert.Contains(t, msg, `secret "k" is not base64`)
	assert.Contains(t, msg, "duplicate id of component 2")
}
