package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/kiln/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour,
// picking a light or dark style from the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	return func(markdown string) (string, error) {
		if err != nil {
			return "", fmt.Errorf("failed to create renderer: %w", err)
		}
		return r.Render(markdown)
	}
}

// TaskListMarkdown describes the tasks as a markdown table.
func TaskListMarkdown(tasks []domain.Task, defaults []string) string {
	var sb strings.Builder
	sb.WriteString("# Tasks\n\n")
	if len(defaults) > 0 {
		fmt.Fprintf(&sb, "Running `kiln` with no task runs **%s**.\n\n", strings.Join(defaults, ", "))
	}
	sb.WriteString("| Task | Depends on | Description |\n")
	sb.WriteString("|------|------------|-------------|\n")
	for _, t := range tasks {
		deps := "-"
		if len(t.Deps) > 0 {
			deps = strings.Join(t.Deps, ", ")
		}
		desc := t.Description
		if desc == "" && t.IsAggregate() {
			desc = "_aggregate_"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", t.Name, deps, escapeCell(desc))
	}
	return sb.String()
}

// TaskListPlain lists documented tasks one per line, padded to align the
// descriptions. Undocumented tasks are listed only when all is set.
func TaskListPlain(tasks []domain.Task, all bool) string {
	width := 0
	shown := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Description == "" && !all {
			continue
		}
		shown = append(shown, t)
		width = max(width, len(t.Name))
	}

	var sb strings.Builder
	for _, t := range shown {
		line := fmt.Sprintf("kiln %-*s", width, t.Name)
		if t.Description != "" {
			line += "  # " + t.Description
		}
		sb.WriteString(strings.TrimRight(line, " ") + "\n")
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
