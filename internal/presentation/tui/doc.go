// Package tui renders kiln output for humans: task progress lines, task
// listings and the banner.
package tui
