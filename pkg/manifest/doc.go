// Package manifest patches JSON project manifests in place.
package manifest
