package version

import (
	"runtime/debug"
)

// Version is set at build time with -ldflags "-X github.com/nergy-se/factoryenergy/pkg/version.Version=1.2.3".
var Version = "1.0.0"

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Time    string `json:"time,omitempty"`
}

func Get() Info {
	v := Info{Version: Version}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				v.Commit = setting.Value
			}
			if setting.Key == "vcs.time" {
				v.Time = setting.Value
			}
		}
	}
	return v
}

// String returns the version followed by the short vcs revision when known, e.g. "1.0.0+3f2a9c1".
func (i Info) String() string {
	if i.Commit == "" {
		return i.Version
	}
	commit := i.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return i.Version + "+" + commit
}
