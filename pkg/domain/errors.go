package domain

import "errors"

// ErrWorkspaceNotFound is returned when a workspace ID cannot be found in the store.
var ErrWorkspaceNotFound = errors.New("workspace not found")

// ErrTemplateNotFound is returned when a catalog has no template with the requested ID.
var ErrTemplateNotFound = errors.New("template not found")

// ErrCycleDetected is returned by strict leveling when the dependency graph has a cycle.
var ErrCycleDetected = errors.New("cycle detected")

// ErrInvalidDescriptor is returned when a component descriptor fails validation.
var ErrInvalidDescriptor = errors.New("invalid component descriptor")

// ErrNodeNotFound is returned when an operation names a node the graph does not hold.
var ErrNodeNotFound = errors.New("node not found")
