package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

const spinnerInterval = 100 * time.Millisecond

// Spinner animates a status message while a child process runs, such as
// `brew install` or `apt-get install`. Off a terminal it prints the
// message once.
type Spinner struct {
	mu      sync.Mutex
	output  io.Writer
	message string
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
	isTTY   bool
}

// NewSpinner creates a spinner writing to output, or os.Stderr if nil.
func NewSpinner(output io.Writer) *Spinner {
	if output == nil {
		output = os.Stderr
	}
	return &Spinner{output: output, isTTY: ShouldShowProgress()}
}

// Start shows message. Calling Start on a running spinner only replaces
// the message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = message
	if s.running {
		return
	}
	if !s.isTTY {
		fmt.Fprintln(s.output, message)
		return
	}
	s.running = true
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.animate(s.done)
}

// Stop halts the animation. A non-empty final message is printed on its
// own line.
func (s *Spinner) Stop(final string) {
	s.mu.Lock()
	wasRunning := s.running
	if wasRunning {
		s.running = false
		close(s.done)
	}
	s.mu.Unlock()

	if wasRunning {
		s.wg.Wait()
		fmt.Fprintf(s.output, "\r%s\r", strings.Repeat(" ", lineWidth))
	}
	if final != "" {
		fmt.Fprintln(s.output, final)
	}
}

func (s *Spinner) animate(done <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			line := fmt.Sprintf("\r%s %s", spinnerFrames[frame%len(spinnerFrames)], s.message)
			fmt.Fprint(s.output, pad(line))
			s.mu.Unlock()
		}
	}
}
