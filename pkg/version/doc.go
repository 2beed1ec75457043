/*
Package version derives the identity of a build.

The revision comes from the CI build number when one is supplied and from the
local clock otherwise; the commit comes from an injected CommitProvider and
falls back to a fixed sentinel instead of failing.
*/
package version
