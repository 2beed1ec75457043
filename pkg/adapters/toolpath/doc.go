// Package toolpath finds external tools for build tasks.
//
// Tasks never discover tool locations themselves; they ask a Locator, which
// tests replace with a Static table.
package toolpath
