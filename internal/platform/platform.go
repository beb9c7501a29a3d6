// Package platform identifies the host the installer runs on.
//
// A Key is the (operating system, architecture) pair using Go runtime
// tags. It is read once from the runtime by Host and passed explicitly
// everywhere else, so tests can target any platform from any host.
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Key identifies an operating system and CPU architecture pair,
// e.g. {OS: "linux", Arch: "amd64"}.
type Key struct {
	OS   string
	Arch string
}

// Host returns the Key of the running process.
func Host() Key {
	return Key{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// ParseKey parses an "os/arch" string.
func ParseKey(s string) (Key, error) {
	osName, arch, ok := strings.Cut(s, "/")
	if !ok || osName == "" || arch == "" || strings.Contains(arch, "/") {
		return Key{}, fmt.Errorf("invalid platform %q: expected os/arch", s)
	}
	return Key{OS: osName, Arch: arch}, nil
}

// String returns the key as "os/arch".
func (k Key) String() string {
	return k.OS + "/" + k.Arch
}

// IsLinux reports whether the key targets Linux.
func (k Key) IsLinux() bool { return k.OS == "linux" }

// IsWindows reports whether the key targets Windows.
func (k Key) IsWindows() bool { return k.OS == "windows" }

// IsDarwin reports whether the key targets macOS.
func (k Key) IsDarwin() bool { return k.OS == "darwin" }
