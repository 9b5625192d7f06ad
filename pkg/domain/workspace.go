package domain

import "time"

// Workspace is the persisted unit: one canvas graph plus bookkeeping.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Graph     Graph     `json:"graph"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted envelope written by the encryption
	// middleware. When set, Graph is empty.
	Sealed string `json:"sealed,omitempty"`
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(id string) *Workspace {
	return &Workspace{
		ID:    id,
		Graph: NewGraph(),
	}
}

// Clone returns a deep copy of the workspace.
func (w *Workspace) Clone() *Workspace {
	if w == nil {
		return nil
	}
	out := *w
	out.Graph = w.Graph.Clone()
	return &out
}
