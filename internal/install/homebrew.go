package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsukumogami/waveform/internal/config"
)

const (
	brewCommand = "brew"
	brewFormula = "audiowaveform"
)

// ErrNotFoundAfterBrew is returned when `brew install` succeeded but no
// audiowaveform executable can be located.
var ErrNotFoundAfterBrew = errors.New("unable to locate audiowaveform after Homebrew install")

// HomebrewMissingError is returned on macOS when audiowaveform is not on
// PATH and Homebrew cannot install it.
type HomebrewMissingError struct {
	// Disabled is true when Homebrew exists but use_homebrew is false.
	Disabled bool
}

func (e *HomebrewMissingError) Error() string {
	if e.Disabled {
		return "audiowaveform is not installed and Homebrew use is disabled (use_homebrew = false).\n" +
			"Run `brew install audiowaveform` yourself or enable it with `waveform config set use_homebrew true`."
	}
	return "audiowaveform is not installed and Homebrew is not available.\n" +
		"Install Homebrew first: https://brew.sh"
}

// installHomebrew links an audiowaveform found on PATH, installing it
// with Homebrew first when absent.
func (i *Installer) installHomebrew(ctx context.Context) (*Receipt, error) {
	source, err := i.lookupExisting()
	if err != nil {
		if !i.useHomebrew {
			return nil, &HomebrewMissingError{Disabled: true}
		}
		brew, lookErr := i.runner.LookPath(brewCommand)
		if lookErr != nil {
			return nil, &HomebrewMissingError{}
		}

		fmt.Fprintln(i.out, "Installing audiowaveform via Homebrew...")
		if i.spinner != nil {
			i.spinner.Start("brew install " + brewFormula)
		}
		_, err = i.runner.Run(ctx, brew, "install", brewFormula)
		if i.spinner != nil {
			i.spinner.Stop("")
		}
		if err != nil {
			return nil, fmt.Errorf("brew install %s failed: %w", brewFormula, err)
		}

		source, err = i.lookupAfterBrew(ctx, brew)
		if err != nil {
			return nil, err
		}
	} else {
		i.logger.Info("using audiowaveform from PATH", "path", source)
	}

	staged := i.Target() + ".staging"
	_ = os.Remove(staged)
	if err := os.Symlink(source, staged); err != nil {
		return nil, fmt.Errorf("failed to link %s: %w", source, err)
	}
	if err := i.promote(ctx, staged); err != nil {
		return nil, err
	}

	return &Receipt{Version: i.brewVersion(ctx), Source: SourceHomebrew, LinkedFrom: source}, nil
}

// brewVersion asks Homebrew which audiowaveform version it installed.
// The formula decides the version, not the configuration, so an unknown
// version is recorded as empty rather than guessed.
func (i *Installer) brewVersion(ctx context.Context) string {
	brew, err := i.runner.LookPath(brewCommand)
	if err != nil {
		return ""
	}
	res, err := i.runner.Run(ctx, brew, "list", "--versions", brewFormula)
	if err != nil {
		i.logger.Debug("brew list failed", "error", err)
		return ""
	}
	return parseBrewVersion(string(res.Stdout))
}

// parseBrewVersion extracts the newest version from `brew list --versions`
// output ("audiowaveform 1.10.1 1.10.2_1"), dropping the bottle revision.
func parseBrewVersion(out string) string {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) < 2 || fields[0] != brewFormula {
		return ""
	}
	v := fields[len(fields)-1]
	if idx := strings.LastIndex(v, "_"); idx > 0 {
		v = v[:idx]
	}
	return v
}

// lookupExisting finds audiowaveform on PATH, ignoring the Install Target
// itself.
func (i *Installer) lookupExisting() (string, error) {
	p, err := i.runner.LookPath(config.BinaryBaseName)
	if err != nil {
		return "", err
	}
	if abs, err := filepath.Abs(p); err == nil && abs == i.Target() {
		return "", fmt.Errorf("only the install target is on PATH")
	}
	return p, nil
}

// lookupAfterBrew resolves the freshly installed binary, falling back to
// the formula prefix when Homebrew's bin directory is not on PATH.
func (i *Installer) lookupAfterBrew(ctx context.Context, brew string) (string, error) {
	if p, err := i.lookupExisting(); err == nil {
		return p, nil
	}
	res, err := i.runner.Run(ctx, brew, "--prefix", brewFormula)
	if err != nil {
		return "", ErrNotFoundAfterBrew
	}
	candidate := filepath.Join(strings.TrimSpace(string(res.Stdout)), "bin", config.BinaryBaseName)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate, nil
	}
	return "", ErrNotFoundAfterBrew
}
