package sysdeps

import (
	"fmt"
	"strings"

	"github.com/tsukumogami/waveform/internal/platform"
)

// UnresolvableError reports missing libraries with no known package.
type UnresolvableError struct {
	Libraries []string
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("audiowaveform needs shared libraries with no known package: %s\n"+
		"Install them manually with your system package manager, then retry.",
		strings.Join(e.Libraries, ", "))
}

// PackageManagerMissingError reports that apt-get is not available to
// install the packages providing missing libraries.
type PackageManagerMissingError struct {
	Libraries []string
	Packages  []string
	// Family is the detected Linux family, empty if unknown.
	Family string
}

func (e *PackageManagerMissingError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "audiowaveform needs shared libraries that are not installed: %s\n", strings.Join(e.Libraries, ", "))
	sb.WriteString("apt-get is not available to install them.\n")
	if pm := platform.PackageManagerFor(e.Family); pm != "" && e.Family != "debian" {
		fmt.Fprintf(&sb, "Detected a %s-family system; install the equivalents of these Debian packages with %s: %s",
			e.Family, pm, strings.Join(e.Packages, " "))
	} else {
		fmt.Fprintf(&sb, "Install them manually: %s", ManualCommand(e.Packages))
	}
	return sb.String()
}

// PrivilegeError reports that remediation needs root and passwordless
// sudo is not available.
type PrivilegeError struct {
	Libraries []string
	Command   string
}

func (e *PrivilegeError) Error() string {
	return fmt.Sprintf("audiowaveform needs shared libraries that are not installed: %s\n"+
		"Installing them requires root and passwordless sudo is not available.\nRun: %s",
		strings.Join(e.Libraries, ", "), e.Command)
}

// StillMissingError reports libraries that remain unresolved after the
// single remediation attempt.
type StillMissingError struct {
	Libraries []string
	Packages  []string
}

func (e *StillMissingError) Error() string {
	return fmt.Sprintf("shared libraries still missing after installing %s: %s",
		strings.Join(e.Packages, ", "), strings.Join(e.Libraries, ", "))
}

// RemediationDisabledError reports missing libraries when automatic
// installation is turned off.
type RemediationDisabledError struct {
	Libraries []string
	Command   string
}

func (e *RemediationDisabledError) Error() string {
	return fmt.Sprintf("audiowaveform needs shared libraries that are not installed: %s\n"+
		"Automatic installation is disabled (auto_install_deps = false).\nRun: %s",
		strings.Join(e.Libraries, ", "), e.Command)
}

// ManualCommand is the command a user runs to install packages by hand.
func ManualCommand(packages []string) string {
	return "sudo apt-get update && sudo apt-get install -y " + strings.Join(packages, " ")
}
