package sysdeps

import (
	"sort"
	"strings"
)

// libraryPackages maps sonames, cut to their major version, to the
// Debian and Ubuntu runtime packages providing them. Where the two
// distributions ship a library under different sonames, both appear.
var libraryPackages = map[string]string{
	"libmad.so.0":        "libmad0",
	"libid3tag.so.0":     "libid3tag0",
	"libsndfile.so.1":    "libsndfile1",
	"libgd.so.3":         "libgd3",
	"libpng16.so.16":     "libpng16-16",
	"libjpeg.so.8":       "libjpeg-turbo8",
	"libjpeg.so.62":      "libjpeg62-turbo",
	"libfreetype.so.6":   "libfreetype6",
	"libfontconfig.so.1": "libfontconfig1",
	"libFLAC.so.8":       "libflac8",
	"libFLAC.so.12":      "libflac12",
	"libogg.so.0":        "libogg0",
	"libvorbis.so.0":     "libvorbis0a",
	"libvorbisenc.so.2":  "libvorbisenc2",
	"libopus.so.0":       "libopus0",
	"libmpg123.so.0":     "libmpg123-0",
	"libz.so.1":          "zlib1g",
	"libstdc++.so.6":     "libstdc++6",
	"libgcc_s.so.1":      "libgcc-s1",
}

// boostPrefix starts the sonames of Boost libraries. Their soname carries
// the full Boost version, which is also part of the package name:
// libboost_regex.so.1.83.0 is provided by libboost-regex1.83.0.
const boostPrefix = "libboost_"

// PackageFor returns the package providing lib, if known.
func PackageFor(lib string) (string, bool) {
	base, version, ok := strings.Cut(lib, ".so.")
	if !ok || version == "" {
		return "", false
	}
	if component, isBoost := strings.CutPrefix(base, boostPrefix); isBoost {
		if component == "" {
			return "", false
		}
		return "libboost-" + strings.ReplaceAll(component, "_", "-") + version, true
	}
	major, _, _ := strings.Cut(version, ".")
	pkg, ok := libraryPackages[base+".so."+major]
	return pkg, ok
}

// MapPackages translates missing libraries into a sorted, deduplicated
// package list. Libraries without a mapping are returned as unresolved
// in input order.
func MapPackages(libs []string) (packages, unresolved []string) {
	seen := make(map[string]bool)
	for _, lib := range libs {
		pkg, ok := PackageFor(lib)
		if !ok {
			unresolved = append(unresolved, lib)
			continue
		}
		if !seen[pkg] {
			seen[pkg] = true
			packages = append(packages, pkg)
		}
	}
	sort.Strings(packages)
	return packages, unresolved
}

// ParseMissing extracts the libraries ldd reports as "not found". Each
// such line yields the text before "=>", trimmed.
func ParseMissing(output string) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "not found") {
			continue
		}
		name, _, _ := strings.Cut(line, "=>")
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		missing = append(missing, name)
	}
	return missing
}
