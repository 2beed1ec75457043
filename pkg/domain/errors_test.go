package domain_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/aretw0/kiln/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"Duplicate", &domain.DuplicateTaskError{Name: "clean"}, `duplicate task: "clean" is already registered`},
		{"Unknown Root", &domain.UnknownTaskError{Name: "deploy"}, `unknown task: "deploy"`},
		{"Unknown Dep", &domain.UnknownTaskError{Name: "x", RequiredBy: "ci"}, `unknown task: "x" (required by "ci")`},
		{"Cycle", &domain.CycleError{Path: []string{"a", "b", "a"}}, "dependency cycle: a -> b -> a"},
		{"Empty Cycle", &domain.CycleError{}, "dependency cycle"},
		{"Exit Code", &domain.ProcessError{Command: "dotnet test", ExitCode: 3, Err: errors.New("exit status 3")}, "external process failed: dotnet test: exit status 3"},
		{"Not Started", &domain.ProcessError{Command: "nope", ExitCode: -1, Err: errors.New("not found")}, "external process failed: nope: not found"},
		{"Task Failed", &domain.TaskFailedError{Task: "compile", Err: errors.New("boom")}, `task "compile" failed: boom`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrors_Matching(t *testing.T) {
	cause := fs.ErrNotExist
	read := &domain.ManifestReadError{Path: "project.json", Err: cause}
	proc := &domain.ProcessError{Command: "dotnet build", ExitCode: 1, Err: errors.New("exit status 1")}
	failed := fmt.Errorf("run: %w", &domain.TaskFailedError{Task: "compile", Err: proc})

	assert.ErrorIs(t, read, domain.ErrManifestRead)
	assert.ErrorIs(t, read, fs.ErrNotExist)
	assert.NotErrorIs(t, read, domain.ErrManifestWrite)
	assert.ErrorIs(t, &domain.ManifestWriteError{Path: "p", Err: cause}, domain.ErrManifestWrite)

	assert.ErrorIs(t, failed, domain.ErrTaskFailed)
	assert.ErrorIs(t, failed, domain.ErrProcessFailed)

	var tf *domain.TaskFailedError
	require.ErrorAs(t, failed, &tf)
	assert.Equal(t, "compile", tf.Task)

	var pe *domain.ProcessError
	require.ErrorAs(t, failed, &pe)
	assert.Equal(t, 1, pe.ExitCode)

	assert.ErrorIs(t, &domain.CycleError{Path: []string{"a", "a"}}, domain.ErrCycle)
	assert.ErrorIs(t, &domain.UnknownTaskError{Name: "x"}, domain.ErrUnknownTask)
	assert.ErrorIs(t, &domain.DuplicateTaskError{Name: "x"}, domain.ErrDuplicateTask)
}
