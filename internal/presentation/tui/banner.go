package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the kiln ASCII banner with a warm gradient.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{" _    _ _       ", "#fde68a"},
		{"| | _(_) |_ __  ", "#fbbf24"},
		{"| |/ / | | '_ \\ ", "#f59e0b"},
		{"|   <| | | | | |", "#ea580c"},
		{"|_|\\_\\_|_|_| |_|", "#c2410c"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  "+version).Faint())
	fmt.Fprintln(w)
}
