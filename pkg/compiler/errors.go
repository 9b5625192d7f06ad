package compiler

import (
	"fmt"
	"strings"

	"github.com/kanvas-io/kanvas/pkg/domain"
)

// GraphError reports a graph the strict compiler refused to level.
type GraphError struct {
	Kind error
	Msg  string

	// Cycle is one deterministic cycle witness, first and last entry equal.
	Cycle []string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func cycleError(path []string) error {
	msg := "cycle"
	if len(path) > 0 {
		msg = "cycle: " + strings.Join(path, " -> ")
	}
	return &GraphError{Kind: domain.ErrCycleDetected, Msg: msg, Cycle: path}
}
