// Package http exposes a read-only status API over chi: the task list, plans,
// the Mermaid graph, the run journal and Prometheus metrics.
package http
