package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/kiln/pkg/domain"
)

// Overlay colours tasks by the outcome of a recorded run.
type Overlay struct {
	Outcomes map[string]domain.TaskStatus
}

// OverlayFromReport builds an overlay from a run report.
func OverlayFromReport(r *domain.RunReport) *Overlay {
	o := &Overlay{Outcomes: make(map[string]domain.TaskStatus, len(r.Tasks))}
	for _, t := range r.Tasks {
		o.Outcomes[t.Name] = t.Status
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart with an edge from every
// dependency to the task that needs it.
// Aggregates are drawn as ((circles)), tasks with actions as [rectangles].
func GenerateMermaid(tasks []domain.Task, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, task := range tasks {
		safeID := sanitizeMermaidID(task.Name)
		opener, closer := "[", "]"
		if task.IsAggregate() {
			opener, closer = "((", "))"
		}
		label := strings.ReplaceAll(task.Name, `"`, "'")
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		for _, dep := range task.Deps {
			fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(dep), safeID)
		}
	}

	if overlay != nil && len(overlay.Outcomes) > 0 {
		sb.WriteString("\n    %% Run outcome\n")
		sb.WriteString("    classDef succeeded fill:#dcfce7,stroke:#15803d,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#fee2e2,stroke:#b91c1c,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#f3f4f6,stroke:#9ca3af,stroke-dasharray:4,color:#000;\n")

		names := make([]string, 0, len(overlay.Outcomes))
		for name := range overlay.Outcomes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&sb, "    class %s %s;\n", sanitizeMermaidID(name), overlay.Outcomes[name])
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(
		".", "_",
		"-", "_",
		"/", "_",
		"\\", "_",
		":", "_",
		" ", "_",
	).Replace(id)
}
