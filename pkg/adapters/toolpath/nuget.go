package toolpath

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/kiln/pkg/manifest"
)

// OutputRunner runs a command and returns its stdout.
type OutputRunner interface {
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// Package describes a tool shipped inside a NuGet package.
// The version is read from a project manifest so that the tool always
// matches the package the project restores.
type Package struct {
	Package     string   `yaml:"package" json:"package"`
	Manifest    string   `yaml:"manifest" json:"manifest"`
	VersionPath []string `yaml:"version_path" json:"version_path"`
	Executable  string   `yaml:"executable" json:"executable"`
}

// NuGet locates tools in the NuGet global packages folder.
type NuGet struct {
	runner   OutputRunner
	command  string
	packages map[string]Package
	cache    string
}

// NewNuGet creates a locator that asks the given nuget command for its cache.
// An empty command defaults to "nuget".
func NewNuGet(runner OutputRunner, command string, packages map[string]Package) *NuGet {
	if command == "" {
		command = "nuget"
	}
	return &NuGet{
		runner:   runner,
		command:  command,
		packages: packages,
	}
}

// Locate returns <global-packages>/<package>/<version>/<executable>.
func (n *NuGet) Locate(ctx context.Context, name string) (string, error) {
	pkg, ok := n.packages[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	cache, err := n.globalPackages(ctx)
	if err != nil {
		return "", err
	}

	ver, err := manifest.Lookup(pkg.Manifest, pkg.VersionPath...)
	if err != nil {
		return "", fmt.Errorf("failed to read %s version: %w", pkg.Package, err)
	}

	return filepath.Join(cache, pkg.Package, ver, filepath.FromSlash(pkg.Executable)), nil
}

func (n *NuGet) globalPackages(ctx context.Context) (string, error) {
	if n.cache != "" {
		return n.cache, nil
	}
	out, err := n.runner.Output(ctx, n.command, "locals", "global-packages", "-list")
	if err != nil {
		return "", fmt.Errorf("failed to query nuget cache: %w", err)
	}
	cache, err := ParseGlobalPackages(out)
	if err != nil {
		return "", err
	}
	n.cache = cache
	return cache, nil
}

// ParseGlobalPackages extracts the folder from `nuget locals global-packages -list`
// output such as "info : global-packages: /home/u/.nuget/packages/".
func ParseGlobalPackages(out string) (string, error) {
	line := strings.TrimSpace(out)
	if i := strings.LastIndex(line, ": "); i >= 0 {
		line = strings.TrimSpace(line[i+2:])
	}
	if line == "" {
		return "", fmt.Errorf("unexpected nuget output: %q", out)
	}
	return line, nil
}
