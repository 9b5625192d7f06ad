/*
Package observability turns graph lifecycle events into logs and Prometheus metrics.

Metrics.Hooks returns domain.LifecycleHooks that can be passed to the facade or the
session manager; Handler exposes the registry for scraping.
*/
package observability
