// Package file persists the run journal as JSON files under .kiln/runs.
package file
