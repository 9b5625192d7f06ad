/*
Package ports defines the driven ports (interfaces) of the kanvas service.

These interfaces decouple the graph core from external implementations, allowing
workspaces to live in various storage backends and templates to come from
different sources.

# Key Interfaces

  - WorkspaceStore: Responsible for persisting and loading workspaces.
  - TemplateCatalog: Provides component templates (e.g., from Loam or Memory).
  - DistributedLocker: Provides distributed locking for handling concurrent workspace access.
*/
package ports
