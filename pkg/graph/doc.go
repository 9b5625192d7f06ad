// Package graph owns the canvas node/edge state.
//
// The state is an explicit domain.Graph value. Every mutation is a pure
// transform that takes a graph and returns a new one; inputs are never
// modified, so a snapshot handed to a reader stays valid after later edits.
// Transforms are total: unknown ids leave the graph unchanged.
//
// Store is the live wrapper used by a single writer. It applies transforms,
// generates ids and publishes every new snapshot to its subscribers.
package graph
