// Package errmsg provides enhanced error message formatting with actionable suggestions.
package errmsg

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/tsukumogami/waveform/internal/archive"
	"github.com/tsukumogami/waveform/internal/asset"
	"github.com/tsukumogami/waveform/internal/fetch"
	"github.com/tsukumogami/waveform/internal/install"
	"github.com/tsukumogami/waveform/internal/release"
	"github.com/tsukumogami/waveform/internal/sysdeps"
	"github.com/tsukumogami/waveform/internal/verify"
	"github.com/tsukumogami/waveform/internal/waveform"
)

// ErrorContext provides additional context for error formatting
type ErrorContext struct {
	Version string // The audiowaveform version being installed
	Target  string // The Install Target path
}

// Format returns a formatted error message with possible causes and suggestions.
// The context parameter is optional - pass nil for generic formatting.
func Format(err error, ctx *ErrorContext) string {
	if err == nil {
		return ""
	}
	if ctx == nil {
		ctx = &ErrorContext{}
	}

	errMsg := err.Error()

	var platformErr *asset.UnsupportedPlatformError
	if errors.As(err, &platformErr) {
		// The error text already enumerates supported targets.
		return errMsg
	}

	var downloadErr *fetch.DownloadError
	if errors.As(err, &downloadErr) {
		return formatDownloadError(errMsg, downloadErr, ctx)
	}

	var rateErr *release.RateLimitError
	if errors.As(err, &rateErr) {
		return formatRateLimitError(errMsg, rateErr.Authenticated)
	}

	var notFoundErr *release.NotFoundError
	if errors.As(err, &notFoundErr) {
		return render(errMsg,
			[]string{"The version does not exist upstream", "WAVEFORM_VERSION contains a typo"},
			[]string{"Run 'waveform assets --latest' to see the newest release", "Unset WAVEFORM_VERSION to use the default version"})
	}

	if isDependencyError(err) {
		return formatDependencyError(errMsg, err)
	}

	var brewErr *install.HomebrewMissingError
	if errors.As(err, &brewErr) || errors.Is(err, install.ErrNotFoundAfterBrew) {
		return render(errMsg,
			[]string{"audiowaveform is not on PATH", "Homebrew is missing, disabled, or failed to install the formula"},
			[]string{"Run 'brew install audiowaveform' and check its output", "Run 'brew doctor' to diagnose Homebrew problems"})
	}

	var libcErr *install.UnsupportedLibcError
	if errors.As(err, &libcErr) {
		return errMsg
	}

	if errors.Is(err, install.ErrLockHeld) {
		lock := "<root>/.audiowaveform/install.lock"
		if ctx.Target != "" {
			lock = strings.TrimSuffix(ctx.Target, baseName(ctx.Target)) + "install.lock"
		}
		return render(errMsg,
			[]string{"Another waveform process is installing or uninstalling right now"},
			[]string{"Wait for the other install to finish and retry", fmt.Sprintf("Look for a running waveform process holding %s", lock)})
	}

	var validationErr *verify.ValidationError
	if errors.As(err, &validationErr) {
		return formatValidationError(errMsg, validationErr)
	}

	var noMatchErr *archive.NoMatchError
	if errors.As(err, &noMatchErr) || errors.Is(err, archive.ErrBinaryNotInPackage) {
		return render(errMsg,
			[]string{"The upstream package layout changed", "The downloaded archive is incomplete"},
			[]string{"Retry the install", "Report the issue with the asset name and version"})
	}

	var exitErr *waveform.ExitError
	if errors.As(err, &exitErr) {
		return render(errMsg,
			[]string{"The input file is missing or not a supported audio format", "The output directory is not writable"},
			[]string{"Check the input path and format", "Run 'waveform run --help' to pass options to audiowaveform directly"})
	}

	// Check for rate limit errors (string matching for unstructured errors)
	if isRateLimitError(errMsg) {
		return formatRateLimitError(errMsg, false)
	}

	// Check for network errors
	var netErr net.Error
	if errors.As(err, &netErr) {
		return formatNetworkError(netErr)
	}

	// Check for connection-related errors by message
	if isNetworkError(errMsg) {
		return formatGenericNetworkError(errMsg)
	}

	// Check for permission errors
	if isPermissionError(errMsg) {
		return formatPermissionError(errMsg, ctx)
	}

	// Return original error for unrecognized types
	return errMsg
}

// Fprint writes err to w formatted with Format and prefixed with "Error: ".
func Fprint(w io.Writer, err error, ctx *ErrorContext) {
	if err == nil {
		return
	}
	msg := strings.TrimRight(Format(err, ctx), "\n")
	fmt.Fprintf(w, "Error: %s\n", msg)
}

func render(errMsg string, causes, suggestions []string) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	if len(causes) > 0 {
		sb.WriteString("\nPossible causes:\n")
		for _, c := range causes {
			sb.WriteString("  - " + c + "\n")
		}
	}
	if len(suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		for _, s := range suggestions {
			sb.WriteString("  - " + s + "\n")
		}
	}
	return sb.String()
}

func formatDownloadError(errMsg string, err *fetch.DownloadError, ctx *ErrorContext) string {
	if err.StatusCode == 404 {
		suggestions := []string{"Run 'waveform assets' to list what the release publishes"}
		if ctx.Version != "" {
			suggestions = append(suggestions, fmt.Sprintf("Confirm that release %s exists upstream", ctx.Version))
		}
		suggestions = append(suggestions, "Check WAVEFORM_BASE_URL if you use a mirror")
		return render(errMsg,
			[]string{"The release does not publish an asset for this platform", "WAVEFORM_VERSION or WAVEFORM_BASE_URL points at the wrong location"},
			suggestions)
	}
	return render(errMsg,
		[]string{"Service temporarily unavailable", "A proxy rejected the request"},
		[]string{"Try again in a few minutes", "Check HTTPS_PROXY if you are behind a proxy"})
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

func formatDependencyError(errMsg string, err error) string {
	var privilege *sysdeps.PrivilegeError
	if errors.As(err, &privilege) {
		return render(errMsg, nil,
			[]string{"Run the command above, then rerun 'waveform install'", "Or run 'waveform install' as root"})
	}
	var still *sysdeps.StillMissingError
	if errors.As(err, &still) {
		return render(errMsg,
			[]string{"The distribution packages a different library version", "The package install partially failed"},
			[]string{"Run 'ldd ~/.audiowaveform/audiowaveform' to see what is missing", "Install the libraries manually and retry"})
	}
	var disabled *sysdeps.RemediationDisabledError
	if errors.As(err, &disabled) {
		return render(errMsg, nil,
			[]string{"Run the command above, then rerun 'waveform install'", "Or enable automatic installs: waveform config set auto_install_deps true"})
	}
	return errMsg
}

func formatValidationError(errMsg string, err *verify.ValidationError) string {
	switch err.Category {
	case verify.ErrTruncated, verify.ErrCorrupted:
		return render(errMsg,
			[]string{"The download was interrupted", "A proxy altered the file"},
			[]string{"Retry the install with 'waveform install --force'"})
	case verify.ErrWrongArch:
		return render(errMsg,
			[]string{"The asset table maps this platform to the wrong package"},
			[]string{"Report the issue with the output of 'waveform status'"})
	default:
		return render(errMsg,
			[]string{"The downloaded file is not an audiowaveform executable"},
			[]string{"Retry the install with 'waveform install --force'", "Check WAVEFORM_BASE_URL if you use a mirror"})
	}
}

func formatRateLimitError(errMsg string, authenticated bool) string {
	suggestions := []string{"Wait a few minutes before retrying"}
	if !authenticated {
		suggestions = append([]string{
			"Set GITHUB_TOKEN environment variable to increase rate limit",
			"Or store a token: waveform config set secrets.github_token <token>",
		}, suggestions...)
	}
	return render(errMsg,
		[]string{"Too many requests to the API", "Unauthenticated requests have lower limits"},
		suggestions)
}

func formatNetworkError(err net.Error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	if err.Timeout() {
		sb.WriteString("  - Request timed out\n")
		sb.WriteString("  - Slow or unstable network connection\n")
	} else {
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - DNS resolution failure\n")
	}
	sb.WriteString("  - Firewall or proxy blocking the connection\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your internet connection\n")
	sb.WriteString("  - Try again in a few minutes\n")
	if err.Timeout() {
		sb.WriteString("  - Raise WAVEFORM_DOWNLOAD_TIMEOUT on slow connections\n")
	}

	return sb.String()
}

func formatGenericNetworkError(errMsg string) string {
	return render(errMsg,
		[]string{"Network connectivity issue", "DNS resolution failure", "Service temporarily unavailable"},
		[]string{"Check your internet connection", "Try again in a few minutes"})
}

func formatPermissionError(errMsg string, ctx *ErrorContext) string {
	dir := "$WAVEFORM_ROOT/.audiowaveform"
	if ctx.Target != "" {
		dir = strings.TrimSuffix(ctx.Target, baseName(ctx.Target))
	}
	return render(errMsg,
		[]string{"Insufficient permissions on the install directory", "File or directory owned by different user"},
		[]string{fmt.Sprintf("Check permissions: ls -la %s", dir), "Point WAVEFORM_ROOT at a directory you own"})
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// isRateLimitError checks if the error message indicates a rate limit
func isRateLimitError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate-limit") ||
		strings.Contains(lower, "too many requests")
}

// isNetworkError checks if the error message indicates a network issue
func isNetworkError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "network is unreachable") ||
		strings.Contains(lower, "dial tcp") ||
		strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "i/o timeout")
}

// isPermissionError checks if the error message indicates a permission issue
func isPermissionError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "operation not permitted")
}
