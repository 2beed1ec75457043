package buildtasks

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/kiln/internal/fsutil"
	"github.com/aretw0/kiln/pkg/manifest"
	"github.com/aretw0/kiln/pkg/version"
)

// Clean removes the results and artifacts directories.
func (c *Catalog) Clean(ctx context.Context) error {
	paths := c.env.Project.Paths
	for _, dir := range []string{paths.Results, paths.Artifacts} {
		if dir == "" {
			continue
		}
		p := c.path(dir)
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
		c.env.Logger.Debug("removed", "path", p)
	}
	return nil
}

// Version stamps the build identity into the shared assembly info file and
// writes the base version into the project manifest.
func (c *Catalog) Version(ctx context.Context) error {
	id := c.Identity(ctx)
	paths := c.env.Project.Paths

	if paths.AssemblyInfo != "" {
		p := c.path(paths.AssemblyInfo)
		c.printf("Writing %s...\n", paths.AssemblyInfo)
		if err := fsutil.WriteFile(p, []byte(version.AssemblyInfo(id, c.env.Project.Product))); err != nil {
			return fmt.Errorf("failed to write assembly info: %w", err)
		}
	}

	if paths.Manifest != "" {
		c.printf("Writing version to %s\n", paths.Manifest)
		if err := manifest.SetVersion(c.path(paths.Manifest), id.BaseVersion); err != nil {
			return err
		}
	}
	return nil
}

// Connection writes the configured connection string verbatim.
func (c *Catalog) Connection(ctx context.Context) error {
	target := c.env.Project.Paths.ConnectionFile
	if target == "" {
		return errors.New("paths.connection_file is not configured")
	}
	p := c.path(target)
	if err := fsutil.WriteFile(p, []byte(c.env.Config.Connection)); err != nil {
		return fmt.Errorf("failed to write connection file: %w", err)
	}
	return nil
}

// Exec returns an action running each command line in order, stopping at
// the first failure.
func (c *Catalog) Exec(commands []string) func(ctx context.Context) error {
	lines := append([]string(nil), commands...)
	return func(ctx context.Context) error {
		if c.env.Runner == nil {
			return errors.New("no command runner configured")
		}
		for _, line := range lines {
			expanded, err := c.Expand(ctx, line)
			if err != nil {
				return err
			}
			if err := c.env.Runner.Run(ctx, expanded); err != nil {
				return err
			}
		}
		return nil
	}
}
