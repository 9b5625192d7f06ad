/*
Package kanvas is the graph state core of a visual component canvas.

Users compose deployable components (web services, stores, config and secret
bundles) as nodes on a canvas and wire dependency edges between them. kanvas keeps
that graph consistent under editing and compiles it into an ordered plan of parallel
steps for a remote workflow executor.

# Concept

The core is pure: pkg/naming allocates unique display names, pkg/graph applies
copy-on-write transforms to a graph value, pkg/compiler levels the dependency graph
into steps and pkg/mapper converts backend component descriptors into nodes. The
Service in this package puts those pieces behind persisted workspaces, one logical
writer per workspace, so the same API can back a CLI, an HTTP server or an MCP agent.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/kanvas-io/kanvas"
		"github.com/kanvas-io/kanvas/pkg/domain"
	)

	func main() {
		svc, err := kanvas.New()
		if err != nil {
			log.Fatal(err)
		}
		ctx := context.Background()

		db, _ := svc.AddFromTemplate(ctx, "demo", "store", domain.Position{X: 100, Y: 100})
		api, _ := svc.AddFromTemplate(ctx, "demo", "webservice", domain.Position{X: 350, Y: 100})
		_, _ = svc.Connect(ctx, "demo", domain.Connection{Source: db, Target: api})

		steps, err := svc.Workflow(ctx, "demo")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(steps)
	}

# Strict leveling

By default cycles are tolerated and leveled with a bounded number of relaxation
passes. WithStrictLeveling switches to Kahn layering, which rejects cyclic graphs
with an error wrapping domain.ErrCycleDetected.
*/
package kanvas
