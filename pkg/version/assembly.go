package version

import (
	"fmt"
	"strings"

	"github.com/aretw0/kiln/pkg/domain"
)

// Product holds the descriptive attributes stamped into generated sources.
type Product struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Copyright   string `yaml:"copyright" json:"copyright"`
}

// AssemblyInfo renders the shared assembly attribute file for an identity.
// The trademark carries the commit, assembly and file versions carry the full
// build version and the informational version carries the base version.
func AssemblyInfo(id domain.BuildIdentity, p Product) string {
	var sb strings.Builder
	sb.WriteString("using System.Reflection;\n")
	sb.WriteString("using System.Runtime.InteropServices;\n")

	attrs := []struct{ key, value string }{
		{"AssemblyDescription", p.Description},
		{"AssemblyProduct", p.Name},
		{"AssemblyCopyright", p.Copyright},
		{"AssemblyTrademark", id.Commit},
		{"AssemblyVersion", id.Version},
		{"AssemblyFileVersion", id.Version},
		{"AssemblyInformationalVersion", id.BaseVersion},
	}
	for _, a := range attrs {
		sb.WriteString(fmt.Sprintf("[assembly: %s(\"%s\")]\n", a.key, escape(a.value)))
	}
	return sb.String()
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
