package buildtasks

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const toolPrefix = "tool:"

var reference = regexp.MustCompile(`\$\{([^{}]*)\}`)

// Expand substitutes ${name} references in a command line.
//
// Known names are configuration, base_version, build_number, revision,
// commit, results_dir and artifacts_dir; ${tool:NAME} asks the locator.
// Referencing build_number, revision or commit resolves the build identity.
// Only the braced form is substituted; a bare $NAME is passed through.
func (c *Catalog) Expand(ctx context.Context, line string) (string, error) {
	var firstErr error
	out := reference.ReplaceAllStringFunc(line, func(ref string) string {
		v, err := c.lookup(ctx, ref[2:len(ref)-1])
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return v
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func (c *Catalog) lookup(ctx context.Context, name string) (string, error) {
	if tool, ok := strings.CutPrefix(name, toolPrefix); ok {
		p, err := c.env.Locator.Locate(ctx, tool)
		if err != nil {
			return "", fmt.Errorf("failed to locate %s: %w", tool, err)
		}
		return p, nil
	}

	switch name {
	case "configuration":
		return c.env.Config.Configuration, nil
	case "base_version":
		return c.env.Project.Version, nil
	case "build_number":
		return c.Identity(ctx).Version, nil
	case "revision":
		return c.Identity(ctx).Revision, nil
	case "commit":
		return c.Identity(ctx).Commit, nil
	case "results_dir":
		return c.env.Project.Paths.Results, nil
	case "artifacts_dir":
		return c.env.Project.Paths.Artifacts, nil
	}
	return "", fmt.Errorf("undefined variable ${%s}", name)
}
