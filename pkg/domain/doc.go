/*
Package domain contains the core data model of the kanvas graph core.

It defines the canvas entities (Nodes, Edges), the Graph state value that the
graph store transforms, the execution Step emitted by the leveling compiler,
and the persisted Workspace. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Node: one deployable component or config/secret bundle, with NodeData.
  - Edge: a directed "source must execute before target" constraint.
  - Graph: the full node/edge snapshot plus focus and clipboard.
  - Kind: the closed set of component variants (web service, store, config, secret).
  - Traits: cross-cutting configuration; probes are canonical, ProbeFields is a
    derived display view.
  - Step: a named group of same-level components for the workflow executor.
*/
package domain
