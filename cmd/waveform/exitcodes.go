package main

import (
	"errors"
	"net"
	"os"

	"github.com/tsukumogami/waveform/internal/archive"
	"github.com/tsukumogami/waveform/internal/asset"
	"github.com/tsukumogami/waveform/internal/fetch"
	"github.com/tsukumogami/waveform/internal/install"
	"github.com/tsukumogami/waveform/internal/release"
	"github.com/tsukumogami/waveform/internal/sysdeps"
	"github.com/tsukumogami/waveform/internal/verify"
	"github.com/tsukumogami/waveform/internal/waveform"
)

// Exit codes for different error types.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitUnsupported indicates no audiowaveform build exists for this host
	ExitUnsupported = 3

	// ExitNetwork indicates a download or GitHub API failure
	ExitNetwork = 4

	// ExitInstallFailed indicates installation failed
	ExitInstallFailed = 5

	// ExitVerifyFailed indicates the downloaded binary failed validation
	ExitVerifyFailed = 6

	// ExitDependencyFailed indicates missing shared libraries could not be installed
	ExitDependencyFailed = 7

	// ExitLocked indicates another install holds the lock
	ExitLocked = 8

	// ExitToolFailed indicates audiowaveform itself exited non-zero
	ExitToolFailed = 9
)

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}

// exitCodeFor maps an error to the exit code that describes it.
func exitCodeFor(err error) int {
	var (
		platformErr *asset.UnsupportedPlatformError
		libcErr     *install.UnsupportedLibcError
		downloadErr *fetch.DownloadError
		rateErr     *release.RateLimitError
		notFoundErr *release.NotFoundError
		netErr      net.Error
		validErr    *verify.ValidationError
		exitErr     *waveform.ExitError
		noMatchErr  *archive.NoMatchError
		brewErr     *install.HomebrewMissingError
	)

	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &platformErr), errors.As(err, &libcErr):
		return ExitUnsupported
	case errors.Is(err, install.ErrLockHeld):
		return ExitLocked
	case isDependencyError(err):
		return ExitDependencyFailed
	case errors.As(err, &validErr):
		return ExitVerifyFailed
	case errors.As(err, &downloadErr), errors.As(err, &rateErr),
		errors.As(err, &notFoundErr), errors.As(err, &netErr):
		return ExitNetwork
	case errors.As(err, &exitErr):
		return ExitToolFailed
	case errors.As(err, &noMatchErr), errors.Is(err, archive.ErrBinaryNotInPackage),
		errors.As(err, &brewErr), errors.Is(err, install.ErrNotFoundAfterBrew):
		return ExitInstallFailed
	default:
		return ExitGeneral
	}
}

func isDependencyError(err error) bool {
	var (
		unresolvable *sysdeps.UnresolvableError
		noManager    *sysdeps.PackageManagerMissingError
		privilege    *sysdeps.PrivilegeError
		still        *sysdeps.StillMissingError
		disabled     *sysdeps.RemediationDisabledError
	)
	return errors.As(err, &unresolvable) || errors.As(err, &noManager) ||
		errors.As(err, &privilege) || errors.As(err, &still) || errors.As(err, &disabled)
}
