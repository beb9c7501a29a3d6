// Package buildinfo reports the waveform version from Go build metadata.
package buildinfo

import (
	"runtime/debug"
)

const shortHashLen = 12

var readBuildInfo = debug.ReadBuildInfo

// Version returns the module version for `go install`ed tagged builds
// ("v0.2.0"), "dev-<hash>[-dirty]" for builds from a VCS checkout, "dev"
// without VCS data and "unknown" when no build info is embedded.
func Version() string {
	info, ok := readBuildInfo()
	if !ok {
		return "unknown"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return devVersion(info.Settings)
}

// UserAgent identifies waveform in HTTP requests, e.g. "waveform/v0.2.0".
func UserAgent() string {
	return "waveform/" + Version()
}

func devVersion(settings []debug.BuildSetting) string {
	vcs := make(map[string]string, len(settings))
	for _, s := range settings {
		vcs[s.Key] = s.Value
	}

	rev := vcs["vcs.revision"]
	if rev == "" {
		return "dev"
	}
	if len(rev) > shortHashLen {
		rev = rev[:shortHashLen]
	}
	if vcs["vcs.modified"] == "true" {
		return "dev-" + rev + "-dirty"
	}
	return "dev-" + rev
}
