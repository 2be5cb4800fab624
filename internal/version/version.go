// Package version reports the build of the lumen CLI. The variables can be
// overridden at build time with -ldflags "-X lumen/internal/version.Version=...".
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
)

var (
	Version    = "0.1.0-dev"
	GitCommit  = ""
	GitMessage = ""
	BuildDate  = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with each numeric component in its own color.
// color.NoColor disables the escapes.
func Colored() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// Info is the structured build description.
type Info struct {
	Version   string `yaml:"version"`
	Commit    string `yaml:"commit,omitempty"`
	Message   string `yaml:"message,omitempty"`
	BuildDate string `yaml:"build_date,omitempty"`
	Go        string `yaml:"go"`
}

func Current() Info {
	return Info{Version: Version, Commit: GitCommit, Message: GitMessage, BuildDate: BuildDate, Go: runtime.Version()}
}

// String is the one-line form printed by "lumen version".
func (i Info) String() string {
	s := "lumen " + i.Version
	if i.Commit != "" {
		s += fmt.Sprintf(" (%s", short(i.Commit))
		if i.BuildDate != "" {
			s += ", " + i.BuildDate
		}
		s += ")"
	}
	return s + " " + i.Go
}

func short(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
