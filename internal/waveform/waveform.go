// Package waveform is the entry point for callers that need the
// audiowaveform binary: it resolves the Install Target, installs on first
// use and runs the binary.
package waveform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tsukumogami/waveform/internal/log"
)

// Installer is the part of install.Installer the client needs.
type Installer interface {
	Target() string
	Installed() bool
	Install(ctx context.Context) (string, error)
}

// Client runs audiowaveform, installing it on demand.
type Client struct {
	installer Installer
	logger    log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client backed by installer.
func New(installer Installer, opts ...Option) *Client {
	c := &Client{installer: installer, logger: log.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the Install Target, installed or not.
func (c *Client) Path() string {
	return c.installer.Target()
}

// EnsureInstalled installs audiowaveform if no file exists at the Install
// Target and returns the target path. A present file is trusted as is.
func (c *Client) EnsureInstalled(ctx context.Context) (string, error) {
	if c.installer.Installed() {
		return c.installer.Target(), nil
	}
	c.logger.Info("audiowaveform not installed; installing", "target", c.installer.Target())
	return c.installer.Install(ctx)
}

// Command returns the argument vector that runs audiowaveform with args.
// It does not install anything and does not modify args.
func (c *Client) Command(args ...string) []string {
	cmd := make([]string, 0, len(args)+1)
	cmd = append(cmd, c.installer.Target())
	return append(cmd, args...)
}

// Result holds the outcome of a finished audiowaveform run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError reports a non-zero exit from audiowaveform.
type ExitError struct {
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("audiowaveform failed (exit code %d): %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Run installs audiowaveform if needed, runs it with args and returns
// its output. A non-zero exit is reported in Result, not as an error.
func (c *Client) Run(ctx context.Context, args ...string) (*Result, error) {
	path, err := c.EnsureInstalled(ctx)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("running audiowaveform", "args", strings.Join(args, " "))
	err = cmd.Run()

	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr) && ctx.Err() == nil:
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	case ctx.Err() != nil:
		return nil, fmt.Errorf("audiowaveform interrupted: %w", ctx.Err())
	default:
		return nil, fmt.Errorf("failed to run audiowaveform: %w", err)
	}
}

// Options configures Generate. Zero values take the defaults.
type Options struct {
	// Input is the audio file to render. Required.
	Input string

	// Output is the image path. Default: Input with its extension
	// replaced by ".png".
	Output string

	// Bits is the waveform resolution, 8 or 16. Default: 8.
	Bits int

	// Zoom is the number of samples per pixel. Default: 64.
	Zoom int
}

const (
	DefaultBits = 8
	DefaultZoom = 64
)

// withDefaults fills in defaults and validates o.
func (o Options) withDefaults() (Options, error) {
	if o.Input == "" {
		return o, errors.New("input file is required")
	}
	if o.Output == "" {
		o.Output = strings.TrimSuffix(o.Input, filepath.Ext(o.Input)) + ".png"
	}
	if o.Bits == 0 {
		o.Bits = DefaultBits
	}
	if o.Zoom == 0 {
		o.Zoom = DefaultZoom
	}
	if o.Bits != 8 && o.Bits != 16 {
		return o, fmt.Errorf("bits must be 8 or 16, got %d", o.Bits)
	}
	if o.Zoom < 0 {
		return o, fmt.Errorf("zoom must be a positive integer, got %d", o.Zoom)
	}
	if filepath.Clean(o.Output) == filepath.Clean(o.Input) {
		return o, fmt.Errorf("output %s would overwrite the input; pass a different output path", o.Output)
	}
	return o, nil
}

// Args returns the audiowaveform arguments for o after defaults.
func (o Options) Args() ([]string, error) {
	o, err := o.withDefaults()
	if err != nil {
		return nil, err
	}
	return []string{
		"-i", o.Input,
		"-o", o.Output,
		"--bits", strconv.Itoa(o.Bits),
		"--zoom", strconv.Itoa(o.Zoom),
	}, nil
}

// Generate renders a waveform image of opts.Input and returns the output
// path.
func (c *Client) Generate(ctx context.Context, opts Options) (string, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return "", err
	}
	args, err := opts.Args()
	if err != nil {
		return "", err
	}

	res, err := c.Run(ctx, args...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &ExitError{ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return opts.Output, nil
}
