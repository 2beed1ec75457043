/*
Package domain contains the core types of the kiln build orchestrator.

It defines the entities the executor works with and is kept free of I/O so
that every adapter (process, manifest, journal stores, HTTP) depends on it
and never the other way around.

# Key Entities

  - Task: a named unit of work with declared dependency names and an Action.
  - BuildIdentity: the version, revision and commit computed once per run.
  - RunReport / RunRecord: what happened during one invocation of the executor.
  - LifecycleHooks: synchronous callbacks used for logging, metrics and journaling.
*/
package domain
