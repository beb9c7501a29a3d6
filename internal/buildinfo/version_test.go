package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withBuildInfo(t *testing.T, info *debug.BuildInfo, ok bool) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, ok }
	t.Cleanup(func() { readBuildInfo = orig })
}

func TestVersion(t *testing.T) {
	tests := []struct {
		name string
		info *debug.BuildInfo
		ok   bool
		want string
	}{
		{
			name: "no build info",
			want: "unknown",
		},
		{
			name: "tagged release",
			info: &debug.BuildInfo{Main: debug.Module{Version: "v0.2.0"}},
			ok:   true,
			want: "v0.2.0",
		},
		{
			name: "devel without vcs",
			info: &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			ok:   true,
			want: "dev",
		},
		{
			name: "clean checkout",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.modified", Value: "false"},
			}},
			ok:   true,
			want: "dev-0123456789ab",
		},
		{
			name: "dirty checkout",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.modified", Value: "true"},
			}},
			ok:   true,
			want: "dev-abc123-dirty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildInfo(t, tt.info, tt.ok)
			if got := Version(); got != tt.want {
				t.Errorf("Version() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}}, true)
	if got := UserAgent(); got != "waveform/v1.2.3" {
		t.Errorf("UserAgent() = %q", got)
	}
}

func TestVersion_Runtime(t *testing.T) {
	v := Version()
	for _, prefix := range []string{"v", "dev", "unknown"} {
		if strings.HasPrefix(v, prefix) {
			return
		}
	}
	t.Errorf("Version() = %q, expected a v, dev or unknown prefix", v)
}
