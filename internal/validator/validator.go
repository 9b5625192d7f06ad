package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kanvas-io/kanvas/pkg/compiler"
	"github.com/kanvas-io/kanvas/pkg/domain"
)

// ErrInvalidGraph wraps every problem list returned by ValidateGraph.
var ErrInvalidGraph = errors.New("invalid graph")

// Option configures ValidateGraph.
type Option func(*options)

type options struct {
	acyclic bool
}

// RequireAcyclic also reports dependency cycles.
func RequireAcyclic() Option {
	return func(o *options) { o.acyclic = true }
}

// ValidateGraph checks a canvas for broken links and naming conflicts.
// The core tolerates all of them; this is a lint for documents and stored
// workspaces before they are deployed.
func ValidateGraph(g domain.Graph, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var problems []string

	names := make(map[string]string, len(g.Nodes))
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if ids[n.ID] {
			problems = append(problems, fmt.Sprintf("Duplicate node id: '%s'", n.ID))
		}
		ids[n.ID] = true

		if n.Data.Name == "" {
			problems = append(problems, fmt.Sprintf("Node '%s' has no name", n.ID))
			continue
		}
		if other, dup := names[n.Data.Name]; dup {
			problems = append(problems, fmt.Sprintf("Name '%s' is used by nodes '%s' and '%s'", n.Data.Name, other, n.ID))
			continue
		}
		names[n.Data.Name] = n.ID
	}

	pairs := make(map[[2]string]string, len(g.Edges))
	for _, e := range g.Edges {
		if !ids[e.Source] {
			problems = append(problems, fmt.Sprintf("Edge '%s' references missing node '%s'", e.ID, e.Source))
		}
		if !ids[e.Target] {
			problems = append(problems, fmt.Sprintf("Edge '%s' references missing node '%s'", e.ID, e.Target))
		}
		if e.Source == e.Target {
			problems = append(problems, fmt.Sprintf("Edge '%s' connects '%s' to itself", e.ID, e.Source))
			continue
		}
		key := [2]string{e.Source, e.Target}
		if prev, dup := pairs[key]; dup {
			problems = append(problems, fmt.Sprintf("Edges '%s' and '%s' both connect '%s' to '%s'", prev, e.ID, e.Source, e.Target))
			continue
		}
		pairs[key] = e.ID
	}

	if o.acyclic {
		if _, err := compiler.StrictLevels(g.Nodes, g.Edges); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: found %d errors:\n- %s", ErrInvalidGraph, len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}
