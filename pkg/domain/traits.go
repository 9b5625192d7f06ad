package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Probe types.
const (
	ProbeLiveness  = "liveness"
	ProbeReadiness = "readiness"
)

// Traits holds cross-cutting configuration attached to a node.
// Probes is the canonical health-probe representation; every other trait
// (storage, sidecars, init containers, rbac, ingress, env sourcing) is kept
// verbatim in Extra so it round-trips untouched.
type Traits struct {
	Probes []Probe        `json:"probes,omitempty" mapstructure:"probes"`
	Extra  map[string]any `json:"-" mapstructure:",remain"`
}

// Probe is a liveness or readiness health check. Timing fields are pointers
// so an explicit zero survives a round trip. Keys the struct does not model
// are kept in Extra and written back on marshal.
type Probe struct {
	Type      string           `json:"type" mapstructure:"type" validate:"oneof=liveness readiness"`
	Exec      *ExecAction      `json:"exec,omitempty" mapstructure:"exec"`
	HTTPGet   *HTTPGetAction   `json:"httpGet,omitempty" mapstructure:"httpGet"`
	TCPSocket *TCPSocketAction `json:"tcpSocket,omitempty" mapstructure:"tcpSocket"`

	InitialDelaySeconds *int `json:"initialDelaySeconds,omitempty" mapstructure:"initialDelaySeconds"`
	PeriodSeconds       *int `json:"periodSeconds,omitempty" mapstructure:"periodSeconds"`
	TimeoutSeconds      *int `json:"timeoutSeconds,omitempty" mapstructure:"timeoutSeconds"`
	SuccessThreshold    *int `json:"successThreshold,omitempty" mapstructure:"successThreshold"`
	FailureThreshold    *int `json:"failureThreshold,omitempty" mapstructure:"failureThreshold"`

	Extra map[string]any `json:"-" mapstructure:",remain"`
}

type ExecAction struct {
	Command []string       `json:"command" mapstructure:"command"`
	Extra   map[string]any `json:"-" mapstructure:",remain"`
}

type HTTPGetAction struct {
	Path  string         `json:"path,omitempty" mapstructure:"path"`
	Port  int            `json:"port" mapstructure:"port"`
	Extra map[string]any `json:"-" mapstructure:",remain"`
}

type TCPSocketAction struct {
	Port  int            `json:"port" mapstructure:"port"`
	Extra map[string]any `json:"-" mapstructure:",remain"`
}

type (
	probeFields     Probe
	execFields      ExecAction
	httpGetFields   HTTPGetAction
	tcpSocketFields TCPSocketAction
)

func (p Probe) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(probeFields(p), p.Extra)
}

func (p *Probe) UnmarshalJSON(data []byte) error {
	var f probeFields
	extra, err := unmarshalWithExtra(data, &f, "type", "exec", "httpGet", "tcpSocket",
		"initialDelaySeconds", "periodSeconds", "timeoutSeconds", "successThreshold", "failureThreshold")
	if err != nil {
		return err
	}
	f.Extra = extra
	*p = Probe(f)
	return nil
}

func (a ExecAction) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(execFields(a), a.Extra)
}

func (a *ExecAction) UnmarshalJSON(data []byte) error {
	var f execFields
	extra, err := unmarshalWithExtra(data, &f, "command")
	if err != nil {
		return err
	}
	f.Extra = extra
	*a = ExecAction(f)
	return nil
}

func (a HTTPGetAction) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(httpGetFields(a), a.Extra)
}

func (a *HTTPGetAction) UnmarshalJSON(data []byte) error {
	var f httpGetFields
	extra, err := unmarshalWithExtra(data, &f, "path", "port")
	if err != nil {
		return err
	}
	f.Extra = extra
	*a = HTTPGetAction(f)
	return nil
}

func (a TCPSocketAction) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(tcpSocketFields(a), a.Extra)
}

func (a *TCPSocketAction) UnmarshalJSON(data []byte) error {
	var f tcpSocketFields
	extra, err := unmarshalWithExtra(data, &f, "port")
	if err != nil {
		return err
	}
	f.Extra = extra
	*a = TCPSocketAction(f)
	return nil
}

// marshalWithExtra encodes v and adds the extra keys it does not already set.
func marshalWithExtra(v any, extra map[string]any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if _, set := out[k]; !set {
			out[k] = val
		}
	}
	return json.Marshal(out)
}

// unmarshalWithExtra decodes data into v and returns every key not in known.
func unmarshalWithExtra(data []byte, v any, known ...string) (map[string]any, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// IsZero reports whether no trait is set.
func (t Traits) IsZero() bool {
	return len(t.Probes) == 0 && len(t.Extra) == 0
}

// Probe returns the first probe of the given type.
func (t Traits) Probe(probeType string) (Probe, bool) {
	for _, p := range t.Probes {
		if p.Type == probeType {
			return p, true
		}
	}
	return Probe{}, false
}

// Clone returns a deep copy of the probes and a shallow copy of Extra.
func (t Traits) Clone() Traits {
	out := Traits{}
	if t.Probes != nil {
		out.Probes = make([]Probe, len(t.Probes))
		for i, p := range t.Probes {
			out.Probes[i] = p.clone()
		}
	}
	if t.Extra != nil {
		out.Extra = maps.Clone(t.Extra)
	}
	return out
}

func (p Probe) clone() Probe {
	if p.Exec != nil {
		p.Exec = &ExecAction{Command: slices.Clone(p.Exec.Command), Extra: maps.Clone(p.Exec.Extra)}
	}
	if p.HTTPGet != nil {
		h := *p.HTTPGet
		h.Extra = maps.Clone(h.Extra)
		p.HTTPGet = &h
	}
	if p.TCPSocket != nil {
		s := *p.TCPSocket
		s.Extra = maps.Clone(s.Extra)
		p.TCPSocket = &s
	}
	p.InitialDelaySeconds = cloneInt(p.InitialDelaySeconds)
	p.PeriodSeconds = cloneInt(p.PeriodSeconds)
	p.TimeoutSeconds = cloneInt(p.TimeoutSeconds)
	p.SuccessThreshold = cloneInt(p.SuccessThreshold)
	p.FailureThreshold = cloneInt(p.FailureThreshold)
	p.Extra = maps.Clone(p.Extra)
	return p
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	return Ptr(*v)
}

// MarshalJSON flattens Extra next to "probes", matching the backend trait object.
func (t Traits) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Extra)+1)
	for k, v := range t.Extra {
		out[k] = v
	}
	if len(t.Probes) > 0 {
		out["probes"] = t.Probes
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits the backend trait object into Probes and Extra.
func (t *Traits) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("traits: %w", err)
	}
	*t = Traits{}
	for k, v := range raw {
		if k == "probes" {
			if err := json.Unmarshal(v, &t.Probes); err != nil {
				return fmt.Errorf("traits.probes: %w", err)
			}
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("traits.%s: %w", k, err)
		}
		if t.Extra == nil {
			t.Extra = make(map[string]any)
		}
		t.Extra[k] = val
	}
	return nil
}

// FlatProbe is the display-friendly view of a single probe.
type FlatProbe struct {
	Enabled          bool   `json:"enabled"`
	InitialDelay     int    `json:"initialDelay"`
	Period           int    `json:"period"`
	Timeout          int    `json:"timeout"`
	SuccessThreshold int    `json:"successThreshold"`
	FailureThreshold int    `json:"failureThreshold"`
	ExecCommand      string `json:"execCommand,omitempty"`
	HTTPPath         string `json:"httpPath,omitempty"`
	HTTPPort         int    `json:"httpPort,omitempty"`
	TCPPort          int    `json:"tcpPort,omitempty"`
}

// ProbeFields is the flattened liveness/readiness view shown by editors.
// It is derived from Traits on demand and never stored on a node.
type ProbeFields struct {
	Liveness  FlatProbe `json:"liveness"`
	Readiness FlatProbe `json:"readiness"`
}

// FlattenProbes derives the display view from the canonical probes.
func FlattenProbes(t Traits) ProbeFields {
	var f ProbeFields
	if p, ok := t.Probe(ProbeLiveness); ok {
		f.Liveness = flatten(p)
	}
	if p, ok := t.Probe(ProbeReadiness); ok {
		f.Readiness = flatten(p)
	}
	return f
}

func flatten(p Probe) FlatProbe {
	fp := FlatProbe{
		Enabled:          true,
		InitialDelay:     intValue(p.InitialDelaySeconds),
		Period:           intValue(p.PeriodSeconds),
		Timeout:          intValue(p.TimeoutSeconds),
		SuccessThreshold: intValue(p.SuccessThreshold),
		FailureThreshold: intValue(p.FailureThreshold),
	}
	if p.Exec != nil {
		fp.ExecCommand = strings.Join(p.Exec.Command, " ")
	}
	if p.HTTPGet != nil {
		fp.HTTPPath = p.HTTPGet.Path
		fp.HTTPPort = p.HTTPGet.Port
	}
	if p.TCPSocket != nil {
		fp.TCPPort = p.TCPSocket.Port
	}
	return fp
}

// Apply writes the flattened view back into the canonical probes and returns
// the updated traits. A disabled probe is removed.
func (f ProbeFields) Apply(t Traits) Traits {
	out := t.Clone()
	out.Probes = applyFlat(out.Probes, ProbeLiveness, f.Liveness)
	out.Probes = applyFlat(out.Probes, ProbeReadiness, f.Readiness)
	return out
}

func applyFlat(probes []Probe, probeType string, fp FlatProbe) []Probe {
	idx := slices.IndexFunc(probes, func(p Probe) bool { return p.Type == probeType })
	if !fp.Enabled {
		if idx >= 0 {
			return slices.Delete(probes, idx, idx+1)
		}
		return probes
	}

	p := Probe{Type: probeType}
	if idx >= 0 {
		p = probes[idx]
	}
	p.InitialDelaySeconds = setInt(p.InitialDelaySeconds, fp.InitialDelay)
	p.PeriodSeconds = setInt(p.PeriodSeconds, fp.Period)
	p.TimeoutSeconds = setInt(p.TimeoutSeconds, fp.Timeout)
	p.SuccessThreshold = setInt(p.SuccessThreshold, fp.SuccessThreshold)
	p.FailureThreshold = setInt(p.FailureThreshold, fp.FailureThreshold)

	// Actions are rebuilt only when their flattened value changed, keeping
	// argv boundaries and unmodelled keys of an untouched action.
	switch {
	case fp.ExecCommand != "":
		if p.Exec == nil || strings.Join(p.Exec.Command, " ") != fp.ExecCommand {
			exec := ExecAction{}
			if p.Exec != nil {
				exec.Extra = p.Exec.Extra
			}
			exec.Command = strings.Fields(fp.ExecCommand)
			p.Exec = &exec
		}
		p.HTTPGet, p.TCPSocket = nil, nil
	case fp.HTTPPort != 0:
		if p.HTTPGet == nil || p.HTTPGet.Path != fp.HTTPPath || p.HTTPGet.Port != fp.HTTPPort {
			get := HTTPGetAction{}
			if p.HTTPGet != nil {
				get = *p.HTTPGet
			}
			get.Path, get.Port = fp.HTTPPath, fp.HTTPPort
			p.HTTPGet = &get
		}
		p.Exec, p.TCPSocket = nil, nil
	case fp.TCPPort != 0:
		if p.TCPSocket == nil || p.TCPSocket.Port != fp.TCPPort {
			sock := TCPSocketAction{}
			if p.TCPSocket != nil {
				sock = *p.TCPSocket
			}
			sock.Port = fp.TCPPort
			p.TCPSocket = &sock
		}
		p.Exec, p.HTTPGet = nil, nil
	}

	if idx >= 0 {
		probes[idx] = p
		return probes
	}
	return append(probes, p)
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// setInt keeps an unset field unset while the flattened value is zero.
func setInt(cur *int, v int) *int {
	if cur == nil && v == 0 {
		return nil
	}
	if cur != nil && *cur == v {
		return cur
	}
	return Ptr(v)
}
