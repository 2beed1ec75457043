package buildtasks_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/kiln/internal/buildtasks"
	"github.com/aretw0/kiln/internal/config"
	"github.com/aretw0/kiln/internal/project"
	"github.com/aretw0/kiln/internal/runtime"
	"github.com/aretw0/kiln/pkg/adapters/toolpath"
	"github.com/aretw0/kiln/pkg/domain"
	"github.com/aretw0/kiln/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	lines []string
	fail  map[string]error
}

func (f *fakeRunner) Run(_ context.Context, line string) error {
	f.lines = append(f.lines, line)
	return f.fail[line]
}

type fakeResolver struct {
	id    domain.BuildIdentity
	calls int
}

func (f *fakeResolver) Resolve(context.Context) domain.BuildIdentity {
	f.calls++
	return f.id
}

func identity() domain.BuildIdentity {
	return domain.BuildIdentity{BaseVersion: "1.2.4", Revision: "42", Commit: "abc123", Version: "1.2.4.42", FromCI: true}
}

func newCatalog(t *testing.T, dir string, p *project.Project, runner *fakeRunner, resolver *fakeResolver) *buildtasks.Catalog {
	t.Helper()
	return buildtasks.NewCatalog(buildtasks.Env{
		Config:   config.Config{Configuration: "release", Connection: "host=db;user=kiln", Dir: dir},
		Project:  p,
		Runner:   runner,
		Locator:  toolpath.Static{"storyteller": "/tools/st.exe"},
		Resolver: resolver,
		Stdout:   &bytes.Buffer{},
	})
}

func TestCatalog_Clean(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"results/x", "artifacts/y", "src"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
	}

	p := &project.Project{Version: "1.2.4", Paths: project.Paths{Results: "results", Artifacts: "artifacts"}}
	c := newCatalog(t, dir, p, &fakeRunner{}, &fakeResolver{})

	require.NoError(t, c.Clean(context.Background()))
	assert.NoDirExists(t, filepath.Join(dir, "results"))
	assert.NoDirExists(t, filepath.Join(dir, "artifacts"))
	assert.DirExists(t, filepath.Join(dir, "src"))

	require.NoError(t, c.Clean(context.Background()), "cleaning twice is fine")
}

func TestCatalog_Version(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "src", "Marten", "project.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(manifestPath), 0o755))
	require.NoError(t, os.WriteFile(manifestPath, []byte(`{"version":"0.0.0","title":"Marten"}`), 0o644))

	p := project.Default()
	resolver := &fakeResolver{id: identity()}
	c := newCatalog(t, dir, p, &fakeRunner{}, resolver)

	require.NoError(t, c.Version(context.Background()))

	info, err := os.ReadFile(filepath.Join(dir, "src", "CommonAssemblyInfo.cs"))
	require.NoError(t, err)
	assert.Contains(t, string(info), `[assembly: AssemblyTrademark("abc123")]`)
	assert.Contains(t, string(info), `[assembly: AssemblyVersion("1.2.4.42")]`)
	assert.Contains(t, string(info), `[assembly: AssemblyInformationalVersion("1.2.4")]`)
	assert.Contains(t, string(info), `[assembly: AssemblyProduct("Marten")]`)

	raw, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "1.2.4", doc["version"])
	assert.Equal(t, "Marten", doc["title"])

	got, ok := c.ResolvedIdentity()
	assert.True(t, ok)
	assert.Equal(t, "1.2.4.42", got.Version)
}

func TestCatalog_Version_MissingManifest(t *testing.T) {
	c := newCatalog(t, t.TempDir(), project.Default(), &fakeRunner{}, &fakeResolver{id: identity()})

	err := c.Version(context.Background())
	assert.ErrorIs(t, err, domain.ErrManifestRead)
}

func TestCatalog_Connection(t *testing.T) {
	dir := t.TempDir()
	c := newCatalog(t, dir, project.Default(), &fakeRunner{}, &fakeResolver{})

	require.NoError(t, c.Connection(context.Background()))
	data, err := os.ReadFile(filepath.Join(dir, "src", "Marten.Testing", "connection.txt"))
	require.NoError(t, err)
	assert.Equal(t, "host=db;user=kiln", string(data))

	noPath := &project.Project{Version: "1.0.0"}
	err = newCatalog(t, dir, noPath, &fakeRunner{}, &fakeResolver{}).Connection(context.Background())
	assert.ErrorContains(t, err, "connection_file")
}

func TestCatalog_Exec(t *testing.T) {
	t.Run("Expands And Runs In Order", func(t *testing.T) {
		runner := &fakeRunner{}
		c := newCatalog(t, t.TempDir(), project.Default(), runner, &fakeResolver{id: identity()})

		err := c.Exec([]string{
			"dotnet build ./src --configuration ${configuration}",
			"${tool:storyteller} run --build ${configuration}/net46",
			"dotnet pack -o ${artifacts_dir} /p:Version=${build_number}",
		})(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{
			"dotnet build ./src --configuration release",
			"/tools/st.exe run --build release/net46",
			"dotnet pack -o artifacts /p:Version=1.2.4.42",
		}, runner.lines)
	})

	t.Run("Stops At First Failure", func(t *testing.T) {
		boom := &domain.ProcessError{Command: "npm install", ExitCode: 1, Err: errors.New("exit status 1")}
		runner := &fakeRunner{fail: map[string]error{"npm install": boom}}
		c := newCatalog(t, t.TempDir(), project.Default(), runner, &fakeResolver{})

		err := c.Exec([]string{"npm install", "npm run test"})(context.Background())
		assert.ErrorIs(t, err, domain.ErrProcessFailed)
		assert.Equal(t, []string{"npm install"}, runner.lines)
	})

	t.Run("Undefined Variable", func(t *testing.T) {
		runner := &fakeRunner{}
		c := newCatalog(t, t.TempDir(), project.Default(), runner, &fakeResolver{})

		err := c.Exec([]string{"echo ${nope}"})(context.Background())
		assert.ErrorContains(t, err, "undefined variable ${nope}")
		assert.Empty(t, runner.lines)
	})

	t.Run("Bare Dollar Passes Through", func(t *testing.T) {
		c := newCatalog(t, t.TempDir(), project.Default(), &fakeRunner{}, &fakeResolver{})
		out, err := c.Expand(context.Background(), "echo $HOME $1 ${configuration} $")
		require.NoError(t, err)
		assert.Equal(t, "echo $HOME $1 release $", out)
	})

	t.Run("Unknown Tool", func(t *testing.T) {
		c := newCatalog(t, t.TempDir(), project.Default(), &fakeRunner{}, &fakeResolver{})
		_, err := c.Expand(context.Background(), "${tool:missing} run")
		assert.ErrorIs(t, err, toolpath.ErrToolNotFound)
	})
}

func TestCatalog_IdentityResolvedOnce(t *testing.T) {
	resolver := &fakeResolver{id: identity()}
	c := newCatalog(t, t.TempDir(), project.Default(), &fakeRunner{}, resolver)

	_, ok := c.ResolvedIdentity()
	assert.False(t, ok)

	for i := 0; i < 3; i++ {
		_, err := c.Expand(context.Background(), "${build_number} ${revision} ${commit}")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, resolver.calls)
}

func TestCatalog_Register(t *testing.T) {
	t.Run("Default Project", func(t *testing.T) {
		reg := registry.NewRegistry()
		c := newCatalog(t, t.TempDir(), project.Default(), &fakeRunner{}, &fakeResolver{id: identity()})
		require.NoError(t, c.Register(reg))

		order, err := reg.ResolveOrder("ci")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"connection", "version", "mocha", "clean", "restore", "compile", "test", "default", "pack", "ci",
		}, order)

		def, ok := reg.Get("default")
		require.True(t, ok)
		assert.True(t, def.IsAggregate())

		compile, _ := reg.Get("compile")
		assert.Equal(t, "Compile the code", compile.Description)
	})

	t.Run("Unknown Handle", func(t *testing.T) {
		p := &project.Project{Version: "1.0.0", Tasks: []project.TaskSpec{{Name: "x", Action: "teleport"}}}
		err := newCatalog(t, t.TempDir(), p, &fakeRunner{}, &fakeResolver{}).Register(registry.NewRegistry())
		assert.ErrorIs(t, err, buildtasks.ErrUnknownAction)
	})

	t.Run("Duplicate Task", func(t *testing.T) {
		p := &project.Project{Version: "1.0.0", Tasks: []project.TaskSpec{{Name: "x"}, {Name: "x"}}}
		err := newCatalog(t, t.TempDir(), p, &fakeRunner{}, &fakeResolver{}).Register(registry.NewRegistry())
		assert.ErrorIs(t, err, domain.ErrDuplicateTask)
	})

	assert.Equal(t, []string{"clean", "connection", "exec", "version"}, buildtasks.Handles())
}

func TestCatalog_RunDefaultAggregate(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	c := newCatalog(t, dir, project.Default(), runner, &fakeResolver{id: identity()})
	reg := registry.NewRegistry()
	require.NoError(t, c.Register(reg))

	exec := runtime.NewExecutor(reg, runtime.WithDefaultTasks(project.Default().Default...))
	report, err := exec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mocha", "clean", "restore", "compile", "test"}, report.Plan)
	assert.Equal(t, []string{
		"npm install",
		"npm run test",
		"dotnet restore src/Marten",
		"dotnet restore src/Marten.CommandLine",
		"dotnet restore src/Marten.Testing.OtherAssembly",
		"dotnet restore src/Marten.Testing",
		"dotnet build ./src/Marten.Testing/ --configuration release",
		"dotnet test src/Marten.Testing --framework netcoreapp1.0",
	}, runner.lines)
}
