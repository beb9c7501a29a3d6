// Package install places the audiowaveform binary at the Install Target.
//
// An install is a linear sequence: resolve the asset, take the lock,
// create a fresh workspace, run the platform strategy, stage the binary
// next to the target, verify and audit the staged copy, then rename it
// into place. The workspace and lock are released on every exit path and
// a failed install never leaves a staged or half-written target behind.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/tsukumogami/waveform/internal/archive"
	"github.com/tsukumogami/waveform/internal/asset"
	"github.com/tsukumogami/waveform/internal/config"
	"github.com/tsukumogami/waveform/internal/execx"
	"github.com/tsukumogami/waveform/internal/fetch"
	"github.com/tsukumogami/waveform/internal/log"
	"github.com/tsukumogami/waveform/internal/platform"
	"github.com/tsukumogami/waveform/internal/progress"
	"github.com/tsukumogami/waveform/internal/sysdeps"
	"github.com/tsukumogami/waveform/internal/verify"
)

// Downloader fetches a URL to a file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Auditor checks and repairs the shared library dependencies of a binary.
type Auditor interface {
	Audit(ctx context.Context, binary string) error
}

// Verifier checks that path is an executable for key.
type Verifier func(path string, key platform.Key) error

// UnsupportedLibcError is returned on Linux hosts whose C library cannot
// run the published glibc packages.
type UnsupportedLibcError struct {
	Libc string
}

func (e *UnsupportedLibcError) Error() string {
	return fmt.Sprintf("the published audiowaveform packages require glibc, but this system uses %s\n"+
		"Install audiowaveform with your distribution's package manager or build it from source.", e.Libc)
}

// Installer performs installs for one configuration and platform.
type Installer struct {
	cfg         *config.Config
	key         platform.Key
	downloader  Downloader
	auditor     Auditor
	verifier    Verifier
	runner      execx.Runner
	detectLibc  func() string
	useHomebrew bool
	logger      log.Logger
	out         io.Writer
	spinner     *progress.Spinner
	now         func() time.Time
}

// Option configures an Installer.
type Option func(*Installer)

// WithPlatform targets key instead of the host.
func WithPlatform(key platform.Key) Option {
	return func(i *Installer) { i.key = key }
}

// WithDownloader replaces the HTTPS fetcher.
func WithDownloader(d Downloader) Option {
	return func(i *Installer) { i.downloader = d }
}

// WithAuditor replaces the Linux dependency auditor.
func WithAuditor(a Auditor) Option {
	return func(i *Installer) { i.auditor = a }
}

// WithVerifier replaces the executable header check.
func WithVerifier(v Verifier) Option {
	return func(i *Installer) { i.verifier = v }
}

// WithRunner sets the command runner used for Homebrew and, unless an
// auditor is given, for the dependency audit.
func WithRunner(r execx.Runner) Option {
	return func(i *Installer) { i.runner = r }
}

// WithLibcDetector replaces platform.DetectLibc.
func WithLibcDetector(f func() string) Option {
	return func(i *Installer) { i.detectLibc = f }
}

// WithHomebrew allows or forbids running `brew install` on macOS.
func WithHomebrew(enabled bool) Option {
	return func(i *Installer) { i.useHomebrew = enabled }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(i *Installer) { i.logger = l }
}

// WithOutput sets where user-facing progress messages go. Defaults to
// io.Discard.
func WithOutput(w io.Writer) Option {
	return func(i *Installer) { i.out = w }
}

// WithSpinner shows s while Homebrew runs.
func WithSpinner(s *progress.Spinner) Option {
	return func(i *Installer) { i.spinner = s }
}

// New creates an Installer for cfg.
func New(cfg *config.Config, opts ...Option) *Installer {
	i := &Installer{
		cfg:         cfg,
		key:         platform.Host(),
		runner:      execx.OS{},
		useHomebrew: true,
		logger:      log.Default(),
		out:         io.Discard,
		now:         time.Now,
		verifier: func(path string, key platform.Key) error {
			_, err := verify.ValidateExecutable(path, key)
			return err
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.downloader == nil {
		i.downloader = fetch.New(cfg.DownloadTimeout, fetch.WithLogger(i.logger))
	}
	if i.auditor == nil {
		i.auditor = sysdeps.New(i.runner, sysdeps.WithLogger(i.logger))
	}
	if i.detectLibc == nil {
		i.detectLibc = func() string {
			if i.key.OS != runtime.GOOS {
				return "glibc"
			}
			return platform.DetectLibc()
		}
	}
	return i
}

// Target returns the Install Target path.
func (i *Installer) Target() string {
	return i.cfg.TargetPath(i.key.OS)
}

// Platform returns the platform the installer targets.
func (i *Installer) Platform() platform.Key {
	return i.key
}

// Installed reports whether a file exists at the Install Target. The
// receipt and version are not consulted.
func (i *Installer) Installed() bool {
	info, err := os.Stat(i.Target())
	return err == nil && !info.IsDir()
}

// Install installs audiowaveform unconditionally and returns the Install
// Target.
func (i *Installer) Install(ctx context.Context) (string, error) {
	desc, err := asset.Resolve(i.key, i.cfg.Version)
	if err != nil {
		return "", err
	}
	if desc.Format == asset.FormatDeb {
		if libc := i.detectLibc(); libc != "glibc" {
			return "", &UnsupportedLibcError{Libc: libc}
		}
	}

	if err := i.cfg.EnsureDirectories(); err != nil {
		return "", err
	}
	lock, err := AcquireLock(i.cfg.LockFile)
	if err != nil {
		return "", err
	}
	defer func() { _ = lock.Release() }()

	work, err := os.MkdirTemp(i.cfg.TempDir, "install-*")
	if err != nil {
		return "", fmt.Errorf("failed to create workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(work); err != nil {
			i.logger.Warn("failed to remove workspace", "dir", work, "error", err)
		}
	}()
	i.logger.Debug("install workspace", "dir", work, "platform", i.key.String(), "version", i.cfg.Version)

	var receipt *Receipt
	switch desc.Format {
	case asset.FormatHomebrew:
		receipt, err = i.installHomebrew(ctx)
	default:
		receipt, err = i.installRelease(ctx, desc, work)
	}
	if err != nil {
		return "", err
	}

	receipt.Platform = i.key.String()
	receipt.InstalledAt = i.now().UTC()
	if err := receipt.Write(i.cfg.ReceiptFile); err != nil {
		i.logger.Warn("failed to write install receipt", "error", err)
	}

	if receipt.Version != "" {
		fmt.Fprintf(i.out, "Installed audiowaveform %s to %s\n", receipt.Version, i.Target())
	} else {
		fmt.Fprintf(i.out, "Installed audiowaveform to %s\n", i.Target())
	}
	return i.Target(), nil
}

// installRelease downloads and unpacks a release asset, then stages and
// promotes the binary it contains.
func (i *Installer) installRelease(ctx context.Context, desc asset.Descriptor, work string) (*Receipt, error) {
	url := fetch.ReleaseURL(i.cfg.BaseURL, i.cfg.Version, desc.FileName)
	archivePath := filepath.Join(work, desc.FileName)

	fmt.Fprintf(i.out, "Downloading %s\n", desc.FileName)
	i.logger.Info("downloading asset", "url", log.SanitizeURL(url))
	if err := i.downloader.Download(ctx, url, archivePath); err != nil {
		return nil, err
	}

	unpacker, err := archive.ForFormat(desc.Format, i.logger)
	if err != nil {
		return nil, err
	}
	binary, err := unpacker.Unpack(ctx, archivePath, work)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", desc.FileName, err)
	}
	i.logger.Debug("located binary", "path", binary)

	staged := i.Target() + ".staging"
	if err := copyFile(binary, staged, 0755); err != nil {
		return nil, fmt.Errorf("failed to stage binary: %w", err)
	}
	if err := i.promote(ctx, staged); err != nil {
		return nil, err
	}

	sum, err := ComputeFileChecksum(i.Target())
	if err != nil {
		i.logger.Warn("failed to checksum installed binary", "error", err)
	}
	return &Receipt{Version: i.cfg.Version, Asset: desc.FileName, Source: SourceRelease, SHA256: sum}, nil
}

// promote verifies and audits a staged binary, then renames it onto the
// Install Target. The staged file is removed if any step fails.
func (i *Installer) promote(ctx context.Context, staged string) (err error) {
	defer func() {
		if err != nil {
			if rmErr := os.Remove(staged); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				i.logger.Warn("failed to remove staged binary", "path", staged, "error", rmErr)
			}
		}
	}()

	if err := i.verifier(staged, i.key); err != nil {
		return fmt.Errorf("downloaded binary failed verification: %w", err)
	}
	if i.key.IsLinux() {
		if err := i.auditor.Audit(ctx, staged); err != nil {
			return err
		}
	}
	if !i.key.IsWindows() {
		if err := os.Chmod(staged, 0755); err != nil {
			return fmt.Errorf("failed to mark binary executable: %w", err)
		}
	}
	if err := os.Rename(staged, i.Target()); err != nil {
		return fmt.Errorf("failed to move binary into place: %w", err)
	}
	return nil
}

// Uninstall removes the Install Target and the receipt. Removing an
// absent install is not an error.
func (i *Installer) Uninstall() error {
	lock, err := AcquireLock(i.cfg.LockFile)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	for _, path := range []string{i.Target(), i.cfg.ReceiptFile} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}
