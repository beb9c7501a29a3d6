package functional

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// aCleanWaveformRoot is a no-op because the Before hook already creates
// the root. This step exists so feature files read naturally.
func aCleanWaveformRoot(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

func theEnvironmentVariableIs(ctx context.Context, name, value string) (context.Context, error) {
	state := getState(ctx)
	state.env = append(state.env, name+"="+value)
	return ctx, nil
}

// iRun executes a command string, replacing "waveform" with the test binary path.
func iRun(ctx context.Context, command string) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	args := strings.Fields(command)
	if len(args) > 0 && args[0] == "waveform" {
		args[0] = state.binPath
	}

	cmd := exec.Command(args[0], args[1:]...)
	// Relative paths in commands resolve inside the scenario root
	cmd.Dir = state.rootDir

	env := append(os.Environ(), "WAVEFORM_ROOT="+state.rootDir)
	cmd.Env = append(env, state.env...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	state.stdout = stdout.String()
	state.stderr = stderr.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		state.exitCode = 0
	case errors.As(err, &exitErr):
		state.exitCode = exitErr.ExitCode()
	default:
		return ctx, fmt.Errorf("command execution failed: %w", err)
	}

	return ctx, nil
}

func theExitCodeIs(ctx context.Context, expected int) error {
	state := getState(ctx)
	if state.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nstdout: %s\nstderr: %s",
			expected, state.exitCode, state.stdout, state.stderr)
	}
	return nil
}

func theExitCodeIsNot(ctx context.Context, notExpected int) error {
	state := getState(ctx)
	if state.exitCode == notExpected {
		return fmt.Errorf("expected exit code to not be %d\nstdout: %s\nstderr: %s",
			notExpected, state.stdout, state.stderr)
	}
	return nil
}

func theOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theOutputDoesNotContain(ctx context.Context, text string) error {
	state := getState(ctx)
	if strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout not to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theErrorOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stderr, text) {
		return fmt.Errorf("expected stderr to contain %q, got:\n%s", text, state.stderr)
	}
	return nil
}

func theFileExists(ctx context.Context, path string) error {
	state := getState(ctx)
	fullPath := filepath.Join(state.rootDir, path)
	// Use Lstat so a Homebrew symlink counts even if its target moved
	if _, err := os.Lstat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("expected file %q to exist", fullPath)
	}
	return nil
}

func theFileDoesNotExist(ctx context.Context, path string) error {
	state := getState(ctx)
	fullPath := filepath.Join(state.rootDir, path)
	if _, err := os.Lstat(fullPath); err == nil {
		return fmt.Errorf("expected file %q not to exist", fullPath)
	}
	return nil
}

func theFileStartsWith(ctx context.Context, path, prefix string) error {
	state := getState(ctx)
	data, err := os.ReadFile(filepath.Join(state.rootDir, path))
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(data, []byte(prefix)) {
		return fmt.Errorf("expected %s to start with %q", path, prefix)
	}
	return nil
}

func theFileIsPNG(ctx context.Context, path string) error {
	return theFileStartsWith(ctx, path, "\x89PNG\r\n\x1a\n")
}
