package execx

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Fake is a scripted Runner. Commands are matched by their full command
// line ("sudo -n true"); unscripted commands succeed with empty output.
type Fake struct {
	// Paths maps command names to resolved paths. Names absent from the
	// map are not found.
	Paths map[string]string

	// Responses maps command lines to the result they produce. Responses
	// listed in Sequences take precedence until exhausted.
	Responses map[string]FakeResponse

	// Sequences maps command lines to results consumed one per call.
	Sequences map[string][]FakeResponse

	mu    sync.Mutex
	calls []string
}

// FakeResponse is a scripted command outcome.
type FakeResponse struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// LookPath implements Runner.
func (f *Fake) LookPath(name string) (string, error) {
	if p, ok := f.Paths[name]; ok {
		return p, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Run implements Runner.
func (f *Fake) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	line := commandLine(name, args)

	f.mu.Lock()
	f.calls = append(f.calls, line)
	resp, ok := f.next(line)
	f.mu.Unlock()

	if !f.resolvable(name) {
		return nil, fmt.Errorf("failed to run %s: %w", name, exec.ErrNotFound)
	}
	if !ok {
		return &Result{}, nil
	}
	res := &Result{Stdout: []byte(resp.Stdout), Stderr: []byte(resp.Stderr), ExitCode: resp.ExitCode}
	if resp.ExitCode != 0 {
		return res, &ExitError{Command: line, ExitCode: resp.ExitCode, Stderr: resp.Stderr}
	}
	return res, nil
}

// resolvable accepts a command name or a path LookPath returned.
func (f *Fake) resolvable(name string) bool {
	if _, ok := f.Paths[name]; ok {
		return true
	}
	for _, p := range f.Paths {
		if p == name {
			return true
		}
	}
	return false
}

func (f *Fake) next(line string) (FakeResponse, bool) {
	if seq := f.Sequences[line]; len(seq) > 0 {
		f.Sequences[line] = seq[1:]
		return seq[0], true
	}
	resp, ok := f.Responses[line]
	return resp, ok
}

// Calls returns the command lines run so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Ran reports whether a command line starting with prefix was run.
func (f *Fake) Ran(prefix string) bool {
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
