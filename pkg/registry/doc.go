/*
Package registry holds the task graph: an explicit table of named tasks and
the depth-first resolution that turns requested task names into a linear,
deduplicated execution order.
*/
package registry
