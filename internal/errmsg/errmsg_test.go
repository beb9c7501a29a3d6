package errmsg

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/tsukumogami/waveform/internal/archive"
	"github.com/tsukumogami/waveform/internal/asset"
	"github.com/tsukumogami/waveform/internal/fetch"
	"github.com/tsukumogami/waveform/internal/install"
	"github.com/tsukumogami/waveform/internal/platform"
	"github.com/tsukumogami/waveform/internal/release"
	"github.com/tsukumogami/waveform/internal/sysdeps"
	"github.com/tsukumogami/waveform/internal/verify"
	"github.com/tsukumogami/waveform/internal/waveform"
)

func assertContains(t *testing.T, result string, checks ...string) {
	t.Helper()
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_NilError(t *testing.T) {
	result := Format(nil, nil)
	if result != "" {
		t.Errorf("expected empty string for nil error, got %q", result)
	}
}

func TestFormat_GenericError(t *testing.T) {
	err := errors.New("something went wrong")
	result := Format(err, nil)
	if result != "something went wrong" {
		t.Errorf("expected original error message, got %q", result)
	}
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	Fprint(&buf, errors.New("dial tcp: connection refused"), nil)
	out := buf.String()
	if !strings.HasPrefix(out, "Error: dial tcp: connection refused\n") {
		t.Errorf("unexpected prefix:\n%s", out)
	}
	if !strings.HasSuffix(out, "Try again in a few minutes\n") {
		t.Errorf("expected a single trailing newline:\n%q", out)
	}

	buf.Reset()
	Fprint(&buf, nil, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output for nil error, got %q", buf.String())
	}
}

func TestFormat_UnsupportedPlatform(t *testing.T) {
	err := &asset.UnsupportedPlatformError{Key: platform.Key{OS: "freebsd", Arch: "amd64"}}
	result := Format(fmt.Errorf("resolve: %w", err), nil)
	if result != fmt.Errorf("resolve: %w", err).Error() {
		t.Errorf("expected error text unchanged, got:\n%s", result)
	}
}

func TestFormat_DownloadError_NotFound(t *testing.T) {
	err := &fetch.DownloadError{StatusCode: 404, Status: "404 Not Found", URL: "https://example.com/a.deb"}
	result := Format(fmt.Errorf("install: %w", err), &ErrorContext{Version: "1.10.2"})

	assertContains(t, result,
		"download failed (404 Not Found)",
		"Possible causes:",
		"does not publish an asset",
		"waveform assets",
		"release 1.10.2",
	)
}

func TestFormat_DownloadError_ServerError(t *testing.T) {
	err := &fetch.DownloadError{StatusCode: 502, Status: "502 Bad Gateway", URL: "https://example.com/a.deb"}
	result := Format(err, nil)

	assertContains(t, result, "502 Bad Gateway", "temporarily unavailable", "Try again")
	if strings.Contains(result, "waveform assets") {
		t.Errorf("unexpected asset suggestion for a server error:\n%s", result)
	}
}

func TestFormat_ReleaseRateLimit(t *testing.T) {
	err := &release.RateLimitError{Limit: 60, Reset: time.Now()}
	assertContains(t, Format(err, nil), "rate limit", "Too many requests", "GITHUB_TOKEN")

	authed := &release.RateLimitError{Limit: 5000, Reset: time.Now(), Authenticated: true}
	if strings.Contains(Format(authed, nil), "Set GITHUB_TOKEN") {
		t.Error("authenticated rate limit should not suggest GITHUB_TOKEN")
	}
}

func TestFormat_ReleaseNotFound(t *testing.T) {
	result := Format(&release.NotFoundError{Version: "9.9.9"}, nil)
	assertContains(t, result, "9.9.9", "does not exist upstream", "WAVEFORM_VERSION")
}

func TestFormat_DependencyErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		checks []string
	}{
		{
			name:   "privilege",
			err:    &sysdeps.PrivilegeError{Libraries: []string{"libmad.so.0"}, Command: "sudo apt-get install -y libmad0"},
			checks: []string{"passwordless sudo", "waveform install", "as root"},
		},
		{
			name:   "still missing",
			err:    &sysdeps.StillMissingError{Libraries: []string{"libgd.so.3"}, Packages: []string{"libgd3"}},
			checks: []string{"libgd.so.3", "ldd", "Install the libraries manually"},
		},
		{
			name:   "remediation disabled",
			err:    &sysdeps.RemediationDisabledError{Libraries: []string{"libmad.so.0"}, Command: "sudo apt-get install -y libmad0"},
			checks: []string{"auto_install_deps", "waveform config set auto_install_deps true"},
		},
		{
			name:   "unresolvable",
			err:    &sysdeps.UnresolvableError{Libraries: []string{"libfoo.so.1"}},
			checks: []string{"libfoo.so.1", "manually"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertContains(t, Format(fmt.Errorf("audit: %w", tt.err), nil), tt.checks...)
		})
	}
}

func TestFormat_Homebrew(t *testing.T) {
	assertContains(t, Format(&install.HomebrewMissingError{}, nil), "https://brew.sh", "brew install audiowaveform")
	assertContains(t, Format(install.ErrNotFoundAfterBrew, nil), "brew doctor")
}

func TestFormat_LockHeld(t *testing.T) {
	err := fmt.Errorf("acquire lock: %w", install.ErrLockHeld)
	result := Format(err, &ErrorContext{Target: "/home/u/.audiowaveform/audiowaveform"})
	assertContains(t, result, "Another waveform process", "/home/u/.audiowaveform/install.lock")
}

func TestFormat_ValidationError(t *testing.T) {
	truncated := &verify.ValidationError{Category: verify.ErrTruncated, Path: "/tmp/a", Message: "short read"}
	assertContains(t, Format(truncated, nil), "truncated", "interrupted", "--force")

	wrongArch := &verify.ValidationError{Category: verify.ErrWrongArch, Path: "/tmp/a", Message: "arm64"}
	assertContains(t, Format(wrongArch, nil), "wrong architecture", "waveform status")
}

func TestFormat_ArchiveErrors(t *testing.T) {
	assertContains(t, Format(archive.ErrBinaryNotInPackage, nil), "package layout changed")
	assertContains(t, Format(&archive.NoMatchError{Pattern: "**/audiowaveform.exe", Dir: "/tmp/x"}, nil), "Retry the install")
}

func TestFormat_ExitError(t *testing.T) {
	err := &waveform.ExitError{ExitCode: 1, Stderr: "Failed to read file: in.mp3\n"}
	assertContains(t, Format(err, nil), "exit code 1", "Failed to read file", "supported audio format")
}

func TestFormat_RateLimitError(t *testing.T) {
	err := errors.New("GitHub API rate limit exceeded")
	result := Format(err, nil)

	assertContains(t, result,
		"rate limit",
		"Possible causes:",
		"Too many requests",
		"Suggestions:",
		"GITHUB_TOKEN",
	)
}

func TestFormat_NetworkError(t *testing.T) {
	err := errors.New("dial tcp: connection refused")
	result := Format(err, nil)

	assertContains(t, result,
		"connection refused",
		"Possible causes:",
		"Network connectivity issue",
		"Suggestions:",
		"Check your internet connection",
	)
}

func TestFormat_PermissionError(t *testing.T) {
	err := errors.New("open /home/user/.audiowaveform/audiowaveform.staging: permission denied")

	assertContains(t, Format(err, nil),
		"permission denied",
		"Possible causes:",
		"Insufficient permissions",
		"Suggestions:",
		"$WAVEFORM_ROOT/.audiowaveform",
	)

	withTarget := Format(err, &ErrorContext{Target: "/srv/w/.audiowaveform/audiowaveform"})
	assertContains(t, withTarget, "ls -la /srv/w/.audiowaveform/")
}

// mockNetError implements net.Error for testing
type mockNetError struct {
	msg       string
	timeout   bool
	temporary bool
}

func (e mockNetError) Error() string   { return e.msg }
func (e mockNetError) Timeout() bool   { return e.timeout }
func (e mockNetError) Temporary() bool { return e.temporary }

// Ensure mockNetError implements net.Error
var _ net.Error = mockNetError{}

func TestFormat_NetError_Timeout(t *testing.T) {
	err := mockNetError{
		msg:     "i/o timeout",
		timeout: true,
	}
	result := Format(err, nil)

	assertContains(t, result,
		"i/o timeout",
		"Possible causes:",
		"Request timed out",
		"Suggestions:",
		"WAVEFORM_DOWNLOAD_TIMEOUT",
	)
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"GitHub API rate limit exceeded", true},
		{"rate-limit: too many requests", true},
		{"Too many requests to the server", true},
		{"connection failed", false},
		{"file not found", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := isRateLimitError(tt.msg); got != tt.expected {
				t.Errorf("isRateLimitError(%q) = %v, want %v", tt.msg, got, tt.expected)
			}
		})
	}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"dial tcp: connection refused", true},
		{"connection reset by peer", true},
		{"no such host", true},
		{"i/o timeout", true},
		{"file not found", false},
		{"permission denied", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := isNetworkError(tt.msg); got != tt.expected {
				t.Errorf("isNetworkError(%q) = %v, want %v", tt.msg, got, tt.expected)
			}
		})
	}
}

func TestIsPermissionError(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"permission denied", true},
		{"access denied", true},
		{"operation not permitted", true},
		{"file not found", false},
		{"connection refused", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := isPermissionError(tt.msg); got != tt.expected {
				t.Errorf("isPermissionError(%q) = %v, want %v", tt.msg, got, tt.expected)
			}
		})
	}
}
