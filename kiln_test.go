package kiln_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/kiln"
	"github.com/aretw0/kiln/internal/config"
	"github.com/aretw0/kiln/internal/project"
	"github.com/aretw0/kiln/pkg/adapters/memory"
	"github.com/aretw0/kiln/pkg/adapters/toolpath"
	"github.com/aretw0/kiln/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProject = `
version: 2.0.0
paths:
  results: results
  artifacts: artifacts
default: [test]
tasks:
  - name: ci
    deps: [test, pack]
  - name: clean
    desc: Clean outputs
    action: clean
  - name: compile
    desc: Compile
    deps: [clean]
    run: ["dotnet build --configuration ${configuration}"]
  - name: test
    deps: [compile]
    run: ["dotnet test"]
  - name: pack
    deps: [compile]
    run: ["dotnet pack -o ${artifacts_dir} /p:Version=${build_number}"]
`

type recorder struct {
	lines []string
	fail  string
}

func (r *recorder) Run(_ context.Context, line string) error {
	r.lines = append(r.lines, line)
	if r.fail != "" && strings.HasPrefix(line, r.fail) {
		return &domain.ProcessError{Command: line, ExitCode: 1, Err: errors.New("exit status 1")}
	}
	return nil
}

type fixedIdentity struct{}

func (fixedIdentity) Resolve(context.Context) domain.BuildIdentity {
	return domain.BuildIdentity{BaseVersion: "2.0.0", Revision: "7", Commit: "abc", Version: "2.0.0.7", FromCI: true}
}

func newBuild(t *testing.T, runner *recorder, opts ...kiln.Option) *kiln.Build {
	t.Helper()
	p, err := project.Decode(strings.NewReader(testProject))
	require.NoError(t, err)

	base := []kiln.Option{
		kiln.WithProject(p),
		kiln.WithCommandRunner(runner),
		kiln.WithIdentityResolver(fixedIdentity{}),
		kiln.WithLocator(toolpath.Static{}),
		kiln.WithOutput(&bytes.Buffer{}, &bytes.Buffer{}),
	}
	b, err := kiln.New(config.Config{Configuration: "release", Dir: t.TempDir()}, append(base, opts...)...)
	require.NoError(t, err)
	return b
}

func TestBuild_RunDefault(t *testing.T) {
	runner := &recorder{}
	b := newBuild(t, runner)

	report, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"clean", "compile", "test"}, report.Plan)
	assert.Equal(t, domain.RunSucceeded, report.Status)
	assert.Equal(t, []string{"dotnet build --configuration release", "dotnet test"}, runner.lines)

	_, resolved := b.Identity()
	assert.False(t, resolved, "nothing referenced the build number")
}

func TestBuild_RunRecordsJournal(t *testing.T) {
	runner := &recorder{fail: "dotnet test"}
	store := memory.NewStore()
	b := newBuild(t, runner, kiln.WithRunStore(store))

	report, err := b.Run(context.Background(), "ci")
	require.Error(t, err)

	var failed *domain.TaskFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "test", failed.Task)
	assert.ErrorIs(t, err, domain.ErrProcessFailed)

	rec, lerr := store.Load(context.Background(), report.ID)
	require.NoError(t, lerr)
	assert.Equal(t, domain.RunFailed, rec.Status)
	assert.Equal(t, "test", rec.FailedTask)
	assert.Equal(t, err.Error(), rec.Error)
	assert.Nil(t, rec.Identity)
	assert.Equal(t, domain.TaskSkipped, rec.Tasks[len(rec.Tasks)-1].Status)
}

func TestBuild_RunCapturesIdentity(t *testing.T) {
	runner := &recorder{}
	store := memory.NewStore()
	b := newBuild(t, runner, kiln.WithRunStore(store))

	report, err := b.Run(context.Background(), "pack")
	require.NoError(t, err)
	assert.Contains(t, runner.lines, "dotnet pack -o artifacts /p:Version=2.0.0.7")

	rec, err := store.Load(context.Background(), report.ID)
	require.NoError(t, err)
	require.NotNil(t, rec.Identity)
	assert.Equal(t, "2.0.0.7", rec.Identity.Version)
}

func TestBuild_ResolutionErrorRunsNothing(t *testing.T) {
	runner := &recorder{}
	store := memory.NewStore()
	b := newBuild(t, runner, kiln.WithRunStore(store))

	report, err := b.Run(context.Background(), "deploy")
	assert.Nil(t, report)
	assert.ErrorIs(t, err, domain.ErrUnknownTask)
	assert.Empty(t, runner.lines)

	ids, _ := store.List(context.Background())
	assert.Empty(t, ids)
}

func TestBuild_Inspection(t *testing.T) {
	b := newBuild(t, &recorder{})

	plan, err := b.Plan("ci")
	require.NoError(t, err)
	assert.Equal(t, []string{"clean", "compile", "test", "pack", "ci"}, plan)
	assert.Equal(t, []string{"test"}, b.Defaults())
	assert.Len(t, b.Tasks(), 5)
	assert.Equal(t, "2.0.0", b.Project().Version)
	assert.Nil(t, b.Store())
}

func TestNew_ProjectDiscovery(t *testing.T) {
	t.Run("kiln.yaml In Dir", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, kiln.ProjectFileName), []byte(testProject), 0o644))

		b, err := kiln.New(config.Config{Dir: dir})
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", b.Project().Version)
	})

	t.Run("Explicit File", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "build.yaml"), []byte(testProject), 0o644))

		b, err := kiln.New(config.Config{Dir: dir, ProjectFile: "build.yaml"})
		require.NoError(t, err)
		assert.Equal(t, []string{"test"}, b.Defaults())
	})

	t.Run("Missing Explicit File", func(t *testing.T) {
		_, err := kiln.New(config.Config{Dir: t.TempDir(), ProjectFile: "absent.yaml"})
		assert.Error(t, err)
	})

	t.Run("Built-in Default", func(t *testing.T) {
		b, err := kiln.New(config.Config{Dir: t.TempDir()})
		require.NoError(t, err)
		assert.Equal(t, []string{"mocha", "test"}, b.Defaults())
		_, ok := b.Project().Tools.Packages["storyteller"]
		assert.True(t, ok)
	})
}
