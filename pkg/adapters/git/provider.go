package git

import (
	"context"
	"errors"
)

// OutputRunner runs a command and returns its stdout.
// *process.Runner satisfies it.
type OutputRunner interface {
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// Provider reads the current commit from the git command line tool.
type Provider struct {
	runner OutputRunner
}

// NewProvider creates a commit provider backed by the given runner.
func NewProvider(runner OutputRunner) *Provider {
	return &Provider{runner: runner}
}

// Commit returns the full hash of HEAD.
func (p *Provider) Commit(ctx context.Context) (string, error) {
	out, err := p.runner.Output(ctx, "git", "log", "-1", "--pretty=format:%H")
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", errors.New("git returned no commit")
	}
	return out, nil
}
