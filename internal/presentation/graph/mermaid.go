package graph

import (
	"fmt"
	"strings"

	"github.com/kanvas-io/kanvas/pkg/domain"
)

// GraphOverlay contains canvas state to visualize on the graph.
type GraphOverlay struct {
	FocusID  string
	Selected []string
}

// OverlayFrom derives the overlay from the focus and selection flags of g.
func OverlayFrom(g domain.Graph) *GraphOverlay {
	o := &GraphOverlay{FocusID: g.FocusID}
	for _, n := range g.Nodes {
		if n.Selected {
			o.Selected = append(o.Selected, n.ID)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart from a canvas graph.
// Node shapes follow the component kind:
// - Web service: [Rectangle]
// - Store: [(Cylinder)]
// - Config: [/Parallelogram/]
// - Secret: {{Hexagon}}
// When steps are given, nodes are grouped into one subgraph per step in
// execution order. Edges with a missing endpoint are skipped.
func GenerateMermaid(g domain.Graph, steps []domain.Step, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	byName := make(map[string][]domain.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byName[displayName(n)] = append(byName[displayName(n)], n)
	}

	placed := make(map[string]bool, len(g.Nodes))
	for i, step := range steps {
		fmt.Fprintf(&sb, "    subgraph step%d[\"%s\"]\n", i+1, escapeLabel(step.Name))
		for _, name := range step.Components {
			for _, n := range byName[name] {
				if placed[n.ID] {
					continue
				}
				placed[n.ID] = true
				sb.WriteString("    " + nodeLine(n))
			}
		}
		sb.WriteString("    end\n")
	}
	for _, n := range g.Nodes {
		if !placed[n.ID] {
			sb.WriteString(nodeLine(n))
		}
	}

	for _, e := range g.Edges {
		if _, ok := g.Node(e.Source); !ok {
			continue
		}
		if _, ok := g.Node(e.Target); !ok {
			continue
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target))
	}

	if overlay != nil && (overlay.FocusID != "" || len(overlay.Selected) > 0) {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on light fills in both themes.
		sb.WriteString("    classDef selected fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef focus fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Selected {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s selected;\n", safeID)
			}
		}
		if overlay.FocusID != "" {
			fmt.Fprintf(&sb, "    class %s focus;\n", sanitizeMermaidID(overlay.FocusID))
		}
	}

	return sb.String()
}

func nodeLine(n domain.Node) string {
	opener, closer := "[", "]"
	switch domain.KindOf(n.Data) {
	case domain.KindStore:
		opener, closer = "[(", ")]"
	case domain.KindConfig:
		opener, closer = "[/", "/]"
	case domain.KindSecret:
		opener, closer = "{{", "}}"
	case domain.KindWebservice, domain.KindUnknown:
	}

	label := escapeLabel(displayName(n))
	if n.Data.Image != "" {
		label += " <br/> " + escapeLabel(n.Data.Image)
	}
	return fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(n.ID), opener, label, closer)
}

func displayName(n domain.Node) string {
	if n.Data.Name != "" {
		return n.Data.Name
	}
	return n.ID
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
