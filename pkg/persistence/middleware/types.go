package middleware

import "github.com/kanvas-io/kanvas/pkg/ports"

// Middleware allows wrapping a WorkspaceStore to add behavior.
type Middleware func(ports.WorkspaceStore) ports.WorkspaceStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.WorkspaceStore, mws ...Middleware) ports.WorkspaceStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
