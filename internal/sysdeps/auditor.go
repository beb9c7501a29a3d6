// Package sysdeps audits the shared library dependencies of the installed
// audiowaveform binary on Linux and installs missing ones with apt-get.
//
// Only one remediation attempt is made per audit. A host without ldd is
// not audited at all; that gap is logged, not reported as an error.
package sysdeps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tsukumogami/waveform/internal/execx"
	"github.com/tsukumogami/waveform/internal/log"
	"github.com/tsukumogami/waveform/internal/platform"
	"github.com/tsukumogami/waveform/internal/progress"
)

const (
	lddCommand            = "ldd"
	packageManagerCommand = "apt-get"
	sudoCommand           = "sudo"
)

// Auditor runs the dependency audit. Its external commands go through an
// execx.Runner.
type Auditor struct {
	runner       execx.Runner
	euid         func() int
	detectFamily func(context.Context) (string, error)
	remediate    bool
	logger       log.Logger
	spinner      *progress.Spinner
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(a *Auditor) { a.logger = l }
}

// WithEuid replaces os.Geteuid.
func WithEuid(f func() int) Option {
	return func(a *Auditor) { a.euid = f }
}

// WithFamilyDetector replaces platform.DetectFamily.
func WithFamilyDetector(f func(context.Context) (string, error)) Option {
	return func(a *Auditor) { a.detectFamily = f }
}

// WithRemediation enables or disables installing missing packages.
// Enabled by default.
func WithRemediation(enabled bool) Option {
	return func(a *Auditor) { a.remediate = enabled }
}

// WithSpinner shows s while apt-get runs.
func WithSpinner(s *progress.Spinner) Option {
	return func(a *Auditor) { a.spinner = s }
}

// New creates an Auditor.
func New(runner execx.Runner, opts ...Option) *Auditor {
	a := &Auditor{
		runner:       runner,
		euid:         os.Geteuid,
		detectFamily: platform.DetectFamily,
		remediate:    true,
		logger:       log.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Audit checks binary for unresolved shared libraries and, when allowed,
// installs the packages that provide them.
func (a *Auditor) Audit(ctx context.Context, binary string) error {
	missing, checked, err := a.Missing(ctx, binary)
	if err != nil {
		return err
	}
	if !checked || len(missing) == 0 {
		return nil
	}
	a.logger.Info("missing shared libraries", "libraries", missing)

	packages, unresolved := MapPackages(missing)
	if len(unresolved) > 0 {
		return &UnresolvableError{Libraries: unresolved}
	}
	if !a.remediate {
		return &RemediationDisabledError{Libraries: missing, Command: ManualCommand(packages)}
	}

	if !execx.Available(a.runner, packageManagerCommand) {
		family, _ := a.detectFamily(ctx)
		return &PackageManagerMissingError{Libraries: missing, Packages: packages, Family: family}
	}

	elevated, err := a.privilege(ctx)
	if err != nil {
		return &PrivilegeError{Libraries: missing, Command: ManualCommand(packages)}
	}

	if err := a.install(ctx, elevated, packages); err != nil {
		return err
	}

	still, _, err := a.Missing(ctx, binary)
	if err != nil {
		return err
	}
	if len(still) > 0 {
		return &StillMissingError{Libraries: still, Packages: packages}
	}
	return nil
}

// Missing runs ldd against binary. checked is false when ldd is not
// available and nothing could be determined.
func (a *Auditor) Missing(ctx context.Context, binary string) (missing []string, checked bool, err error) {
	if !execx.Available(a.runner, lddCommand) {
		a.logger.Warn("ldd not found; skipping shared library check", "binary", binary)
		return nil, false, nil
	}

	res, err := a.runner.Run(ctx, lddCommand, binary)
	var exitErr *execx.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		// ldd exits non-zero for static binaries; whatever it printed is
		// still parsed.
		a.logger.Debug("ldd exited non-zero", "code", exitErr.ExitCode, "stderr", exitErr.Stderr)
	default:
		return nil, false, fmt.Errorf("failed to run ldd: %w", err)
	}

	a.logger.Debug("ldd output", "stdout", string(res.Stdout))
	return ParseMissing(string(res.Stdout)), true, nil
}

// privilege reports whether commands need sudo. It fails when neither
// root nor passwordless sudo is available.
func (a *Auditor) privilege(ctx context.Context) (elevated bool, err error) {
	if a.euid() == 0 {
		return false, nil
	}
	if !execx.Available(a.runner, sudoCommand) {
		return false, errors.New("sudo not available")
	}
	if _, err := a.runner.Run(ctx, sudoCommand, "-n", "true"); err != nil {
		return false, fmt.Errorf("passwordless sudo not available: %w", err)
	}
	return true, nil
}

func (a *Auditor) install(ctx context.Context, elevated bool, packages []string) error {
	steps := [][]string{
		{packageManagerCommand, "update"},
		append([]string{packageManagerCommand, "install", "-y"}, packages...),
	}

	if a.spinner != nil {
		a.spinner.Start("Installing " + strings.Join(packages, ", "))
		defer a.spinner.Stop("")
	}

	for _, step := range steps {
		if elevated {
			step = append([]string{sudoCommand, "-n"}, step...)
		}
		a.logger.Info("running package manager", "command", strings.Join(step, " "))
		if _, err := a.runner.Run(ctx, step[0], step[1:]...); err != nil {
			return fmt.Errorf("%s failed: %w", strings.Join(step, " "), err)
		}
	}
	return nil
}
