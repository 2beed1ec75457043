package domain

// BuildIdentity is the version information computed once per run.
//
// Version is always BaseVersion + "." + Revision. Revision equals the CI
// build number when one was supplied (FromCI) and is derived from the local
// clock otherwise.
type BuildIdentity struct {
	BaseVersion string `json:"base_version"`
	Revision    string `json:"revision"`
	Commit      string `json:"commit"`
	Version     string `json:"version"`
	FromCI      bool   `json:"from_ci"`
}
