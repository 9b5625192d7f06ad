package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraits_JSONKeepsUnknownTraits(t *testing.T) {
	raw := `{"probes":[{"type":"liveness","exec":{"command":["cat","/tmp/healthy"]},"initialDelaySeconds":5}],"storage":{"pvc":[{"name":"data","mountPath":"/data"}]}}`

	var traits Traits
	require.NoError(t, json.Unmarshal([]byte(raw), &traits))
	require.Len(t, traits.Probes, 1)
	assert.Equal(t, ProbeLiveness, traits.Probes[0].Type)
	assert.Contains(t, traits.Extra, "storage")

	out, err := json.Marshal(traits)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestTraits_JSONKeepsUnmodelledProbeKeys(t *testing.T) {
	raw := `{"probes":[{"type":"liveness","httpGet":{"path":"/h","port":8080,"scheme":"HTTPS","host":"x"},"initialDelaySeconds":0,"periodSeconds":10,"terminationGracePeriodSeconds":30}]}`

	var traits Traits
	require.NoError(t, json.Unmarshal([]byte(raw), &traits))
	live, ok := traits.Probe(ProbeLiveness)
	require.True(t, ok)
	assert.Equal(t, Ptr(0), live.InitialDelaySeconds)
	assert.Nil(t, live.TimeoutSeconds)
	assert.Equal(t, map[string]any{"scheme": "HTTPS", "host": "x"}, live.HTTPGet.Extra)

	out, err := json.Marshal(traits)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestProbeFields_ApplyUneditedIsIdentity(t *testing.T) {
	traits := Traits{Probes: []Probe{
		{
			Type:                ProbeLiveness,
			Exec:                &ExecAction{Command: []string{"sh", "-c", "curl -f localhost"}},
			InitialDelaySeconds: Ptr(0),
		},
		{
			Type:    ProbeReadiness,
			HTTPGet: &HTTPGetAction{Path: "/ready", Port: 8080, Extra: map[string]any{"scheme": "HTTPS"}},
			Extra:   map[string]any{"terminationGracePeriodSeconds": 30.0},
		},
	}}

	assert.Equal(t, traits, FlattenProbes(traits).Apply(traits))

	fields := FlattenProbes(traits)
	fields.Readiness.HTTPPort = 9090
	updated := fields.Apply(traits)
	ready, ok := updated.Probe(ProbeReadiness)
	require.True(t, ok)
	assert.Equal(t, 9090, ready.HTTPGet.Port)
	assert.Equal(t, map[string]any{"scheme": "HTTPS"}, ready.HTTPGet.Extra)
}

func TestFlattenProbes(t *testing.T) {
	traits := Traits{Probes: []Probe{
		{
			Type:                ProbeLiveness,
			Exec:                &ExecAction{Command: []string{"cat", "/tmp/healthy"}},
			InitialDelaySeconds: Ptr(5),
			PeriodSeconds:       Ptr(10),
		},
		{
			Type:    ProbeReadiness,
			HTTPGet: &HTTPGetAction{Path: "/ready", Port: 8080},
		},
	}}

	fields := FlattenProbes(traits)

	assert.True(t, fields.Liveness.Enabled)
	assert.Equal(t, 5, fields.Liveness.InitialDelay)
	assert.Equal(t, 10, fields.Liveness.Period)
	assert.Equal(t, "cat /tmp/healthy", fields.Liveness.ExecCommand)
	assert.True(t, fields.Readiness.Enabled)
	assert.Equal(t, "/ready", fields.Readiness.HTTPPath)
	assert.Equal(t, 8080, fields.Readiness.HTTPPort)
}

func TestProbeFields_ApplyWritesBack(t *testing.T) {
	traits := Traits{
		Probes: []Probe{{Type: ProbeLiveness, Exec: &ExecAction{Command: []string{"true"}}}},
		Extra:  map[string]any{"ingress": map[string]any{"host": "example.com"}},
	}

	fields := FlattenProbes(traits)
	fields.Liveness.ExecCommand = "sh -c ping"
	fields.Liveness.FailureThreshold = 3
	fields.Readiness = FlatProbe{Enabled: true, TCPPort: 5432}

	updated := fields.Apply(traits)

	live, ok := updated.Probe(ProbeLiveness)
	require.True(t, ok)
	assert.Equal(t, []string{"sh", "-c", "ping"}, live.Exec.Command)
	assert.Equal(t, Ptr(3), live.FailureThreshold)

	ready, ok := updated.Probe(ProbeReadiness)
	require.True(t, ok)
	require.NotNil(t, ready.TCPSocket)
	assert.Equal(t, 5432, ready.TCPSocket.Port)

	assert.Equal(t, traits.Extra, updated.Extra)
	// The input is untouched.
	assert.Equal(t, []string{"true"}, traits.Probes[0].Exec.Command)
}

func TestProbeFields_ApplyDisabledRemovesProbe(t *testing.T) {
	traits := Traits{Probes: []Probe{{Type: ProbeLiveness}, {Type: ProbeReadiness}}}

	fields := FlattenProbes(traits)
	fields.Liveness.Enabled = false

	updated := fields.Apply(traits)
	_, hasLive := updated.Probe(ProbeLiveness)
	_, hasReady := updated.Probe(ProbeReadiness)
	assert.False(t, hasLive)
	assert.True(t, hasReady)
	assert.Len(t, traits.Probes, 2)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		data NodeData
		want Kind
	}{
		{NodeData{ComponentType: ComponentWebservice}, KindWebservice},
		{NodeData{ComponentType: ComponentStore}, KindStore},
		{NodeData{ComponentType: ComponentConfigSecret, OriginalType: SourceConfig}, KindConfig},
		{NodeData{ComponentType: ComponentConfigSecret, OriginalType: SourceSecret}, KindSecret},
		{NodeData{ComponentType: ComponentConfigSecret}, KindConfig},
		{NodeData{ComponentType: "lambda"}, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(string(tt.data.ComponentType)+"/"+tt.data.OriginalType, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.data))
		})
	}
}

func TestNodeDataPatch_ShallowMerge(t *testing.T) {
	data := NodeData{
		Name:    "api",
		Image:   "nginx:1",
		Command: []string{"nginx"},
		Traits:  Traits{Probes: []Probe{{Type: ProbeLiveness}}},
		Enabled: true,
	}

	patch := NodeDataPatch{
		Image:   Ptr("nginx:2"),
		Enabled: Ptr(false),
		Traits:  &Traits{},
	}
	got := patch.Apply(data)

	assert.Equal(t, "api", got.Name)
	assert.Equal(t, "nginx:2", got.Image)
	assert.False(t, got.Enabled)
	assert.Equal(t, []string{"nginx"}, got.Command)
	assert.True(t, got.Traits.IsZero(), "traits are replaced, not merged")
	assert.Equal(t, "nginx:1", data.Image)
}
