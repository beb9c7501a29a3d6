package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// distroToFamily maps distro IDs to family values. gopsutil reports
// either a distro ID or an already-normalized family name. Each family
// has one native package manager, see PackageManagerFor.
var distroToFamily = map[string]string{
	"debian": "debian", "ubuntu": "debian", "linuxmint": "debian",
	"pop": "debian", "elementary": "debian", "zorin": "debian", "raspbian": "debian",
	"fedora": "rhel", "rhel": "rhel", "centos": "rhel",
	"rocky": "rhel", "almalinux": "rhel", "ol": "rhel",
	"arch": "arch", "manjaro": "arch", "endeavouros": "arch",
	"alpine":   "alpine",
	"opensuse": "suse", "opensuse-leap": "suse", "opensuse-tumbleweed": "suse",
	"sles": "suse", "suse": "suse",
}

// platformInfo is host.PlatformInformationWithContext, replaceable in tests.
var platformInfo = host.PlatformInformationWithContext

// MapFamily maps a distro identifier or gopsutil family to a family value.
func MapFamily(ids ...string) (string, error) {
	for _, id := range ids {
		if family, ok := distroToFamily[strings.ToLower(strings.TrimSpace(id))]; ok {
			return family, nil
		}
	}
	return "", fmt.Errorf("unknown distro: %s", strings.Join(ids, ","))
}

// DetectFamily returns the Linux family of the host.
// Returns empty string and nil when detection is unavailable so callers
// can fall back to probing for package managers directly.
func DetectFamily(ctx context.Context) (string, error) {
	name, family, _, err := platformInfo(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return "", nil
	}
	if name == "" && family == "" {
		return "", nil
	}
	return MapFamily(family, name)
}

// PackageManagerFor returns the package manager command for a family.
func PackageManagerFor(family string) string {
	switch family {
	case "debian":
		return "apt-get"
	case "rhel":
		return "dnf"
	case "arch":
		return "pacman"
	case "alpine":
		return "apk"
	case "suse":
		return "zypper"
	default:
		return ""
	}
}
