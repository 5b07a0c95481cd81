// Package version reports the build that produced the climseir binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time via -ldflags "-X ...". When left unset, the VCS stamp
// embedded by the Go toolchain is used instead.
var (
	Commit    = ""
	BuildTime = ""
)

// Info identifies a build.
type Info struct {
	Commit    string
	BuildTime string
	Modified  bool
}

// Get resolves the build identity from ldflags, falling back to the
// embedded build settings.
func Get() Info {
	return resolve(Commit, BuildTime, readSettings())
}

func readSettings() map[string]string {
	settings := map[string]string{}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	for _, s := range bi.Settings {
		settings[s.Key] = s.Value
	}
	return settings
}

func resolve(commit, buildTime string, settings map[string]string) Info {
	info := Info{Commit: commit, BuildTime: buildTime}
	if info.Commit == "" {
		info.Commit = settings["vcs.revision"]
		info.Modified = settings["vcs.modified"] == "true"
	}
	if info.BuildTime == "" {
		info.BuildTime = settings["vcs.time"]
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.BuildTime == "" {
		info.BuildTime = "unknown"
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info
}

// String returns the version line shown by `climseir --version`.
func (i Info) String() string {
	commit := i.Commit
	if i.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("climseir dev (commit: %s, built: %s)", commit, i.BuildTime)
}

// String returns the version line of the running binary.
func String() string {
	return Get().String()
}
