package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/kanvas-io/kanvas/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
// The style follows the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return "", fmt.Errorf("markdown renderer unavailable: %w", err)
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// PlanMarkdown describes a compiled workflow as a markdown document.
func PlanMarkdown(title string, steps []domain.Step) string {
	var sb strings.Builder
	if title == "" {
		title = "Deployment plan"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if len(steps) == 0 {
		sb.WriteString("_Nothing to deploy._\n")
		return sb.String()
	}

	sb.WriteString("| Step | Mode | Components |\n|---|---|---|\n")
	for _, step := range steps {
		components := "_empty_"
		if len(step.Components) > 0 {
			quoted := make([]string, len(step.Components))
			for i, c := range step.Components {
				quoted[i] = "`" + c + "`"
			}
			components = strings.Join(quoted, ", ")
		}
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", step.Name, step.Mode, components)
	}
	return sb.String()
}

// RenderPlan writes the plan to w, styled through glamour when styled is true.
func RenderPlan(w io.Writer, title string, steps []domain.Step, styled bool) error {
	md := PlanMarkdown(title, steps)
	if !styled {
		_, err := io.WriteString(w, md)
		return err
	}
	out, err := NewRenderer()(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
