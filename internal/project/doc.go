// Package project loads kiln.yaml, the declarative list of build tasks.
package project
