package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer shared with the animation goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func withTerminal(t *testing.T, tty bool) {
	t.Helper()
	orig := IsTerminalFunc
	IsTerminalFunc = func(int) bool { return tty }
	t.Cleanup(func() { IsTerminalFunc = orig })
}

func TestSpinnerTerminalAnimates(t *testing.T) {
	withTerminal(t, true)

	out := &syncBuffer{}
	s := NewSpinner(out)
	s.Start("Installing audiowaveform via Homebrew")
	time.Sleep(3 * spinnerInterval)
	s.Start("Linking audiowaveform")
	time.Sleep(3 * spinnerInterval)
	s.Stop("Installed audiowaveform")

	got := out.String()
	for _, want := range []string{"Installing audiowaveform via Homebrew", "Linking audiowaveform", "Installed audiowaveform\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%q", want, got)
		}
	}
}

func TestSpinnerNonTerminalPrintsOnce(t *testing.T) {
	withTerminal(t, false)

	out := &syncBuffer{}
	s := NewSpinner(out)
	s.Start("Installing libmad0")
	time.Sleep(2 * spinnerInterval)
	s.Stop("")

	if got := out.String(); got != "Installing libmad0\n" {
		t.Errorf("output = %q", got)
	}
}

func TestSpinnerStopIdempotent(t *testing.T) {
	withTerminal(t, true)

	out := &syncBuffer{}
	s := NewSpinner(out)
	s.Start("working")
	s.Stop("")
	s.Stop("")
	s.Stop("done")

	if strings.Count(out.String(), "done") != 1 {
		t.Errorf("output = %q", out.String())
	}
}
