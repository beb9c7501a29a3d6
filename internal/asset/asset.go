// Package asset maps a platform to the audiowaveform release asset that
// serves it.
package asset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tsukumogami/waveform/internal/platform"
)

// Format identifies how an asset is unpacked.
type Format string

const (
	// FormatZip is a zip archive holding audiowaveform.exe (Windows).
	FormatZip Format = "zip"

	// FormatDeb is a Debian package holding usr/bin/audiowaveform (Linux).
	FormatDeb Format = "deb"

	// FormatHomebrew means no file is downloaded; Homebrew provides the
	// binary (macOS).
	FormatHomebrew Format = "homebrew"
)

// Descriptor describes the asset for one platform.
type Descriptor struct {
	Key      platform.Key
	FileName string // empty for FormatHomebrew
	Format   Format
}

// entry is a row of the static asset table. Name is a format string
// taking the version.
type entry struct {
	name   string
	format Format
}

var table = map[platform.Key]entry{
	{OS: "windows", Arch: "amd64"}: {name: "audiowaveform-%s-win64.zip", format: FormatZip},
	{OS: "windows", Arch: "386"}:   {name: "audiowaveform-%s-win32.zip", format: FormatZip},
	{OS: "linux", Arch: "amd64"}:   {name: "audiowaveform_%s-1-13_amd64.deb", format: FormatDeb},
	{OS: "linux", Arch: "arm64"}:   {name: "audiowaveform_%s-1-13_arm64.deb", format: FormatDeb},
	{OS: "darwin", Arch: "amd64"}:  {format: FormatHomebrew},
	{OS: "darwin", Arch: "arm64"}:  {format: FormatHomebrew},
}

// Resolve returns the asset descriptor for key at version.
// It performs no I/O.
func Resolve(key platform.Key, version string) (Descriptor, error) {
	e, ok := table[key]
	if !ok {
		return Descriptor{}, &UnsupportedPlatformError{Key: key}
	}

	d := Descriptor{Key: key, Format: e.format}
	if e.name != "" {
		d.FileName = fmt.Sprintf(e.name, version)
	}
	return d, nil
}

// Supported returns every supported platform in "os/arch" order.
func Supported() []platform.Key {
	keys := make([]platform.Key, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// UnsupportedPlatformError reports a platform with no published asset.
type UnsupportedPlatformError struct {
	Key platform.Key
}

func (e *UnsupportedPlatformError) Error() string {
	byOS := make(map[string][]string)
	var oses []string
	for _, k := range Supported() {
		if _, seen := byOS[k.OS]; !seen {
			oses = append(oses, k.OS)
		}
		byOS[k.OS] = append(byOS[k.OS], k.Arch)
	}

	lines := []string{
		fmt.Sprintf("unsupported platform: %s", e.Key),
		"Supported targets:",
	}
	for _, osName := range oses {
		lines = append(lines, fmt.Sprintf("- %s: %s", osName, strings.Join(byOS[osName], ", ")))
	}
	lines = append(lines,
		"If you need another target, install audiowaveform manually and point your tooling at that binary.")
	return strings.Join(lines, "\n")
}
