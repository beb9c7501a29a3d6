// Package execx abstracts the external commands the installer depends on
// (ldd, apt-get, sudo, brew) so their availability and output can be
// substituted in tests.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner resolves and runs external commands.
type Runner interface {
	// LookPath resolves name on the search path.
	LookPath(name string) (string, error)

	// Run executes name with args and captures both output streams.
	// A command that exits non-zero returns its Result together with an
	// *ExitError.
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Available reports whether name resolves on the search path.
func Available(r Runner, name string) bool {
	_, err := r.LookPath(name)
	return err == nil
}

// OS runs real processes through os/exec.
type OS struct{}

// LookPath implements Runner.
func (OS) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run implements Runner.
func (OS) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		if ctx.Err() != nil {
			return res, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return res, &ExitError{Command: commandLine(name, args), ExitCode: res.ExitCode, Stderr: stderr.String()}
	default:
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}
}

func commandLine(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}
