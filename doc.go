/*
Package kiln is a declarative build-task orchestrator.

A build is a set of named tasks, each with prerequisite tasks and an optional
action. Asking for one or more tasks runs every transitive prerequisite first,
each exactly once, strictly one after another, and stops at the first failure.

# Concept

Tasks are data. A kiln.yaml file declares them; actions are either command
lines run as external processes or one of the built-in handles (clean,
version, connection). The build identity combines the declared base version
with the CI build number (or a local timestamp) and the current commit, and
is stamped into generated sources.

# Usage

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	b, err := kiln.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	report, err := b.Run(context.Background(), "ci")
	if err != nil {
		// err names the failing task: task "compile" failed: exit status 1
		log.Fatal(err)
	}
	fmt.Println(report.Status)

Progress, metrics and the run journal attach through LifecycleHooks and
WithRunStore. See cmd/kiln for the command line front end.
*/
package kiln
