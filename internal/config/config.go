package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
)

const (
	// EnvRoot overrides the install root. The Install Target lives in
	// $WAVEFORM_ROOT/.audiowaveform.
	EnvRoot = "WAVEFORM_ROOT"

	// EnvVersion overrides the audiowaveform release to install.
	EnvVersion = "WAVEFORM_VERSION"

	// EnvBaseURL overrides the release download base URL.
	EnvBaseURL = "WAVEFORM_BASE_URL"

	// EnvDownloadTimeout configures the overall download timeout.
	EnvDownloadTimeout = "WAVEFORM_DOWNLOAD_TIMEOUT"

	// DefaultVersion is the audiowaveform release installed when
	// WAVEFORM_VERSION is unset.
	DefaultVersion = "1.10.2"

	// DefaultBaseURL is the GitHub release download prefix. Asset URLs are
	// {base}/{version}/{asset}.
	DefaultBaseURL = "https://github.com/bbc/audiowaveform/releases/download"

	// DefaultDownloadTimeout bounds a single asset download (10 minutes).
	DefaultDownloadTimeout = 10 * time.Minute

	// InstallDirName is the directory under the root holding the binary.
	InstallDirName = ".audiowaveform"

	// TempDirName is the directory under the root holding per-attempt
	// scratch workspaces.
	TempDirName = ".audiowaveform-tmp"

	// BinaryBaseName is the executable name without platform suffix.
	BinaryBaseName = "audiowaveform"
)

// Config holds the resolved installer configuration. It is passed
// explicitly to the installer so tests can use isolated roots.
type Config struct {
	Root            string        // $WAVEFORM_ROOT
	InstallDir      string        // $WAVEFORM_ROOT/.audiowaveform
	TempDir         string        // $WAVEFORM_ROOT/.audiowaveform-tmp
	ConfigFile      string        // $WAVEFORM_ROOT/.audiowaveform/config.toml
	ReceiptFile     string        // $WAVEFORM_ROOT/.audiowaveform/receipt.toml
	LockFile        string        // $WAVEFORM_ROOT/.audiowaveform/install.lock
	Version         string        // audiowaveform release, e.g. "1.10.2"
	BaseURL         string        // release download prefix
	DownloadTimeout time.Duration // per-download timeout
}

// DefaultConfig returns the configuration derived from the environment.
func DefaultConfig() (*Config, error) {
	root := os.Getenv(EnvRoot)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = home
	}

	version := os.Getenv(EnvVersion)
	if version == "" {
		version = DefaultVersion
	}
	if err := ValidateVersion(version); err != nil {
		return nil, err
	}

	baseURL := os.Getenv(EnvBaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	cfg := New(root, version)
	cfg.BaseURL = baseURL
	cfg.DownloadTimeout = GetDownloadTimeout()
	return cfg, nil
}

// New builds a Config rooted at root for the given version with default
// base URL and timeout.
func New(root, version string) *Config {
	installDir := filepath.Join(root, InstallDirName)
	return &Config{
		Root:            root,
		InstallDir:      installDir,
		TempDir:         filepath.Join(root, TempDirName),
		ConfigFile:      filepath.Join(installDir, "config.toml"),
		ReceiptFile:     filepath.Join(installDir, "receipt.toml"),
		LockFile:        filepath.Join(installDir, "install.lock"),
		Version:         version,
		BaseURL:         DefaultBaseURL,
		DownloadTimeout: DefaultDownloadTimeout,
	}
}

// BinaryName returns the platform-suffixed executable name.
func BinaryName(goos string) string {
	if goos == "windows" {
		return BinaryBaseName + ".exe"
	}
	return BinaryBaseName
}

// TargetPath returns the Install Target for the given operating system.
func (c *Config) TargetPath(goos string) string {
	return filepath.Join(c.InstallDir, BinaryName(goos))
}

// EnsureDirectories creates the install and temp directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.InstallDir, c.TempDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ValidateVersion checks that v is a strict semantic version without a
// leading "v"; release tags upstream are bare ("1.10.2").
func ValidateVersion(v string) error {
	if _, err := semver.StrictNewVersion(v); err != nil {
		return fmt.Errorf("invalid audiowaveform version %q: %w", v, err)
	}
	return nil
}

// GetDownloadTimeout returns the configured download timeout from
// WAVEFORM_DOWNLOAD_TIMEOUT. Invalid values fall back to the default;
// out-of-range values are clamped to [10s, 1h].
func GetDownloadTimeout() time.Duration {
	envValue := os.Getenv(EnvDownloadTimeout)
	if envValue == "" {
		return DefaultDownloadTimeout
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvDownloadTimeout, envValue, DefaultDownloadTimeout)
		return DefaultDownloadTimeout
	}

	if duration < 10*time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 10s\n",
			EnvDownloadTimeout, duration)
		return 10 * time.Second
	}
	if duration > time.Hour {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 1h\n",
			EnvDownloadTimeout, duration)
		return time.Hour
	}

	return duration
}
