package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/kiln/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const msFloor = time.Millisecond

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Status prints one line per task transition.
type Status struct {
	w   io.Writer
	out *termenv.Output
}

// NewStatus writes to w. Colours are used only when color is set.
func NewStatus(w io.Writer, color bool) *Status {
	profile := termenv.Ascii
	if color {
		profile = termenv.EnvColorProfile()
	}
	return &Status{w: w, out: termenv.NewOutput(w, termenv.WithProfile(profile))}
}

// Hooks returns lifecycle hooks that print task progress.
func (s *Status) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskStart: func(_ context.Context, e *domain.TaskEvent) {
			fmt.Fprintln(s.w, s.out.String("** Execute "+e.Task).Foreground(s.out.Color("6")))
		},
		OnTaskFinish: func(_ context.Context, e *domain.TaskEvent) {
			if e.Err == nil {
				return
			}
			msg := fmt.Sprintf("!! %s failed after %s", e.Task, e.Duration.Round(msFloor))
			fmt.Fprintln(s.w, s.out.String(msg).Foreground(s.out.Color("1")).Bold())
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			if e.Err != nil {
				return
			}
			msg := fmt.Sprintf("Finished %d tasks in %s", len(e.Plan), e.Duration.Round(msFloor))
			fmt.Fprintln(s.w, s.out.String(msg).Foreground(s.out.Color("2")))
		},
	}
}
