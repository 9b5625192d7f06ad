package compiler

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/kanvas-io/kanvas/pkg/domain"
)

// Compile levels the graph and emits one DAG step per non-empty level, in
// ascending level order. Components are the display names of the level's
// nodes in node input order; unnamed nodes are omitted. It never fails.
func Compile(nodes []domain.Node, edges []domain.Edge) []domain.Step {
	return group(nodes, Levels(nodes, edges))
}

// CompileStrict is Compile with Kahn layering. Cyclic graphs yield a
// *GraphError wrapping domain.ErrCycleDetected.
func CompileStrict(nodes []domain.Node, edges []domain.Edge) ([]domain.Step, error) {
	levels, err := StrictLevels(nodes, edges)
	if err != nil {
		return nil, err
	}
	return group(nodes, levels), nil
}

func group(nodes []domain.Node, levels map[string]int) []domain.Step {
	byLevel := make(map[int][]string)
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}

		lvl := levels[n.ID]
		if _, ok := byLevel[lvl]; !ok {
			byLevel[lvl] = []string{}
		}
		if n.Data.Name != "" {
			byLevel[lvl] = append(byLevel[lvl], n.Data.Name)
		}
	}

	order := make([]int, 0, len(byLevel))
	for lvl := range byLevel {
		order = append(order, lvl)
	}
	slices.Sort(order)

	steps := make([]domain.Step, 0, len(order))
	for i, lvl := range order {
		steps = append(steps, domain.Step{
			Name:       fmt.Sprintf("step-%d", i+1),
			Mode:       domain.StepModeDAG,
			Components: byLevel[lvl],
		})
	}
	return steps
}

// Compiler selects the leveling mode used by the service.
type Compiler struct {
	strict bool
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithStrict enables Kahn layering with cycle rejection.
func WithStrict(strict bool) Option {
	return func(c *Compiler) {
		c.strict = strict
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Compiler. The default is the cycle-tolerant mode.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Strict reports whether the compiler rejects cycles.
func (c *Compiler) Strict() bool {
	return c.strict
}

// Compile runs the configured mode. The error is always nil unless strict
// mode is enabled.
func (c *Compiler) Compile(g domain.Graph) ([]domain.Step, error) {
	if !c.strict {
		steps := Compile(g.Nodes, g.Edges)
		c.logger.Debug("graph compiled", "nodes", len(g.Nodes), "edges", len(g.Edges), "steps", len(steps))
		return steps, nil
	}

	steps, err := CompileStrict(g.Nodes, g.Edges)
	if err != nil {
		c.logger.Warn("strict compile rejected graph", "err", err)
		return nil, err
	}
	c.logger.Debug("graph compiled", "nodes", len(g.Nodes), "edges", len(g.Edges), "steps", len(steps), "strict", true)
	return steps, nil
}
