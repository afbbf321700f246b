// Package version carries build metadata stamped in with
// -ldflags "-X github.com/grovetools/projsync/version.Version=...".
package version

import (
	"fmt"
	"runtime"
)

// Set by the linker.
var (
	Version   = "dev"
	Commit    = "none"
	Branch    = "unknown"
	BuildDate = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Branch:    Branch,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// UserAgent identifies projsync in outgoing HTTP requests.
func (i Info) UserAgent() string {
	return "projsync/" + i.Version + " (" + i.Platform + ")"
}

// String renders everything but the version, which callers print as a heading.
func (i Info) String() string {
	rows := [][2]string{
		{"Commit", i.Commit},
		{"Branch", i.Branch},
		{"Built", i.BuildDate},
		{"Go", i.GoVersion},
		{"Platform", i.Platform},
	}
	var out string
	for n, row := range rows {
		if n > 0 {
			out += "\n"
		}
		out += fmt.Sprintf("  %-11s %s", row[0]+":", row[1])
	}
	return out
}
