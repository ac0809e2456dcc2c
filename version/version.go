// Package version provides build version information for the feedreport CLI.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const unknown = "unknown"

// These variables can be set at build time using -ldflags.
var (
	// Version is the release version of the binary.
	Version = "dev"
	// GitCommit is the git commit hash the binary was built from.
	GitCommit = unknown
	// BuildDate is the date the binary was built.
	BuildDate = unknown
)

// Info contains version metadata reported by the --version flag.
type Info struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
}

// Get returns version metadata, falling back to VCS build info when the
// build did not inject values.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}

	if info.Version == "dev" {
		fillFromBuildInfo(&info)
	}

	info.Version = strings.TrimPrefix(info.Version, "v")

	return info
}

// fillFromBuildInfo populates commit and date from embedded VCS metadata.
func fillFromBuildInfo(info *Info) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == unknown {
				info.GitCommit = shortCommit(setting.Value)
			}
		case "vcs.time":
			if info.BuildDate == unknown {
				info.BuildDate = setting.Value
			}
		}
	}
}

// shortCommit truncates a revision hash to the short form.
func shortCommit(revision string) string {
	if len(revision) > 7 {
		return revision[:7]
	}
	return revision
}

// GetVersion returns just the version string.
func GetVersion() string {
	return Get().Version
}

// GetFullVersion returns the version string with commit info when available.
func GetFullVersion() string {
	info := Get()
	if info.GitCommit != unknown {
		return info.Version + "-" + info.GitCommit
	}
	return info.Version
}

// UserAgent returns the User-Agent value sent with marketplace API requests,
// in the AppName/Version (Language=...) form the service expects.
func UserAgent(app string) string {
	return fmt.Sprintf("%s/%s (Language=Go/%s; Platform=%s)",
		app, GetVersion(), strings.TrimPrefix(runtime.Version(), "go"), runtime.GOOS)
}
