package version

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/kiln/pkg/domain"
)

// CommitUnavailable is the commit recorded when source control cannot be queried.
const CommitUnavailable = "git unavailable"

// RevisionLayout is the clock layout used for local (non-CI) revisions.
// It yields HHMMSS, which grows through the day and changes every second.
const RevisionLayout = "150405"

// CommitProvider returns the commit identifier of the working copy.
type CommitProvider interface {
	Commit(ctx context.Context) (string, error)
}

// CommitFunc adapts a function to CommitProvider.
type CommitFunc func(ctx context.Context) (string, error)

// Commit calls f.
func (f CommitFunc) Commit(ctx context.Context) (string, error) { return f(ctx) }

// Resolver computes the BuildIdentity of a run.
type Resolver struct {
	baseVersion string
	ciBuild     string
	commits     CommitProvider
	now         func() time.Time
	out         io.Writer
	logger      *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCIBuildNumber sets the build number supplied by the CI server.
// An empty value means "no CI build number".
func WithCIBuildNumber(n string) Option {
	return func(r *Resolver) {
		r.ciBuild = strings.TrimSpace(n)
	}
}

// WithCommitProvider sets the source-control capability.
func WithCommitProvider(p CommitProvider) Option {
	return func(r *Resolver) {
		r.commits = p
	}
}

// WithClock overrides the clock used for local revisions.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithOutput sets where the version status line is printed.
func WithOutput(w io.Writer) Option {
	return func(r *Resolver) {
		r.out = w
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver for the given base version.
func NewResolver(baseVersion string, opts ...Option) *Resolver {
	r := &Resolver{
		baseVersion: baseVersion,
		now:         time.Now,
		out:         io.Discard,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes the identity and prints exactly one status line: a
// TeamCity buildNumber service message when a CI build number is set, a plain
// "Version:" line otherwise. It never fails; a missing or broken source
// control tool degrades to CommitUnavailable.
func (r *Resolver) Resolve(ctx context.Context) domain.BuildIdentity {
	id := domain.BuildIdentity{
		BaseVersion: r.baseVersion,
		Revision:    r.ciBuild,
		FromCI:      r.ciBuild != "",
	}
	if !id.FromCI {
		id.Revision = r.now().Format(RevisionLayout)
	}
	id.Version = r.baseVersion + "." + id.Revision
	id.Commit = r.commit(ctx)

	if id.FromCI {
		fmt.Fprintf(r.out, "##teamcity[buildNumber '%s']\n", id.Version)
	} else {
		fmt.Fprintf(r.out, "Version: %s\n", id.Version)
	}

	r.logger.Info("version_resolved",
		"version", id.Version,
		"commit", id.Commit,
		"from_ci", id.FromCI,
	)
	return id
}

func (r *Resolver) commit(ctx context.Context) string {
	if r.commits == nil {
		return CommitUnavailable
	}
	commit, err := r.commits.Commit(ctx)
	if err != nil || strings.TrimSpace(commit) == "" {
		r.logger.Warn("commit_unavailable", "error", err)
		return CommitUnavailable
	}
	return strings.TrimSpace(commit)
}
