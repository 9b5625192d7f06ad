package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventMutation EventType = "mutation"
	EventCompile  EventType = "compile"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	WorkspaceID string    `json:"workspace_id"`
}

// MutationEvent describes one applied graph operation.
type MutationEvent struct {
	EventBase
	Operation string     `json:"operation"`
	Diff      *GraphDiff `json:"diff,omitempty"`
}

// CompileEvent describes one leveling run.
type CompileEvent struct {
	EventBase
	Nodes    int           `json:"nodes"`
	Edges    int           `json:"edges"`
	Steps    int           `json:"steps"`
	Strict   bool          `json:"strict,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for observability.
type LifecycleHooks struct {
	OnMutation func(context.Context, *MutationEvent)
	OnCompile  func(context.Context, *CompileEvent)
}
