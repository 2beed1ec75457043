package project

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/kiln/pkg/adapters/toolpath"
	"github.com/aretw0/kiln/pkg/version"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultProject []byte

// Project is the declarative description of a build, usually kiln.yaml.
type Project struct {
	// Version is the base version; the revision is appended at run time.
	Version string          `yaml:"version"`
	Product version.Product `yaml:"product"`
	Paths   Paths           `yaml:"paths"`
	// Default is the aggregate run when no task is named.
	Default []string   `yaml:"default"`
	Tools   Tools      `yaml:"tools"`
	Tasks   []TaskSpec `yaml:"tasks"`
}

// Paths are relative to the build directory unless absolute.
type Paths struct {
	Results        string `yaml:"results"`
	Artifacts      string `yaml:"artifacts"`
	AssemblyInfo   string `yaml:"assembly_info"`
	Manifest       string `yaml:"manifest"`
	ConnectionFile string `yaml:"connection_file"`
}

// Tools configures how ${tool:name} references are resolved.
type Tools struct {
	// Paths pins tools to fixed locations; checked before packages.
	Paths map[string]string `yaml:"paths"`
	// NuGet is the nuget executable used to find the global packages folder.
	NuGet    string                      `yaml:"nuget"`
	Packages map[string]toolpath.Package `yaml:"packages"`
}

// TaskSpec declares one task.
//
// Action names a built-in handle; Run lists command lines. A spec with Run
// and no Action uses the "exec" handle; a spec with neither is an aggregate.
type TaskSpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"desc"`
	Deps        []string `yaml:"deps"`
	Action      string   `yaml:"action"`
	Run         []string `yaml:"run"`
}

// Handle returns the action handle, applying the exec default.
func (t TaskSpec) Handle() string {
	if t.Action == "" && len(t.Run) > 0 {
		return "exec"
	}
	return t.Action
}

// Load reads a project file from disk.
func Load(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open project file: %w", err)
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Default returns the built-in project.
func Default() *Project {
	p, err := Decode(bytes.NewReader(defaultProject))
	if err != nil {
		panic(fmt.Sprintf("built-in project is invalid: %v", err))
	}
	return p
}

// Decode parses and validates a project document. Unknown keys are rejected.
func Decode(r io.Reader) (*Project, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Project
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("project file is empty")
		}
		return nil, fmt.Errorf("failed to parse project file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the fields that do not depend on the task registry.
// Unknown dependency names and cycles are reported by the registry itself.
func (p *Project) Validate() error {
	var errs []error
	if p.Version == "" {
		errs = append(errs, errors.New("version is required"))
	}
	for i, t := range p.Tasks {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("tasks[%d]: name is required", i))
		}
		if t.Action != "" && t.Action != "exec" && len(t.Run) > 0 {
			errs = append(errs, fmt.Errorf("task %q: run is only valid with the exec action", t.Name))
		}
	}
	return errors.Join(errs...)
}
