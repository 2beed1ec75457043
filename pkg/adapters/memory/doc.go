// Package memory provides an in-process run journal, used by `kiln serve`
// when no durable journal is configured and by tests.
package memory
