// Package progress renders download progress and activity spinners on
// an interactive terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// IsTerminalFunc reports whether a file descriptor is a terminal.
// Tests replace it.
var IsTerminalFunc = term.IsTerminal

const (
	lineWidth   = 80
	barWidth    = 30
	minInterval = 100 * time.Millisecond
)

// Writer forwards writes to an underlying writer and redraws a progress
// line on output. A total <= 0 means the size is unknown and only the
// byte count and rate are shown.
type Writer struct {
	dst    io.Writer
	output io.Writer
	label  string
	total  int64

	mu        sync.Mutex
	written   int64
	started   time.Time
	lastDrawn time.Time
	now       func() time.Time
}

// NewWriter wraps dst. Progress lines are written to output.
func NewWriter(dst io.Writer, total int64, output io.Writer) *Writer {
	return &Writer{
		dst:     dst,
		output:  output,
		total:   total,
		started: time.Now(),
		now:     time.Now,
	}
}

// WithLabel sets a prefix shown before the bar, usually the asset name.
func (w *Writer) WithLabel(label string) *Writer {
	w.label = label
	return w
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	if n > 0 {
		w.mu.Lock()
		w.written += int64(n)
		w.draw()
		w.mu.Unlock()
	}
	return n, err
}

// Written returns the number of bytes forwarded so far.
func (w *Writer) Written() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Finish clears the progress line.
func (w *Writer) Finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.output, "\r%s\r", strings.Repeat(" ", lineWidth))
}

// draw is rate limited to ten updates per second.
func (w *Writer) draw() {
	now := w.now()
	if now.Sub(w.lastDrawn) < minInterval {
		return
	}
	elapsed := now.Sub(w.started).Seconds()
	if elapsed < minInterval.Seconds() {
		return
	}
	w.lastDrawn = now

	_, _ = fmt.Fprint(w.output, pad(w.line(elapsed)))
}

func (w *Writer) line(elapsed float64) string {
	rate := float64(w.written) / elapsed
	prefix := "\r   "
	if w.label != "" {
		prefix += w.label + " "
	}

	if w.total <= 0 {
		return fmt.Sprintf("%s%s (%s/s)", prefix, formatBytes(w.written), formatBytes(int64(rate)))
	}

	percent := float64(w.written) / float64(w.total) * 100
	if percent > 100 {
		percent = 100
	}
	eta := "--:--"
	if rate > 0 {
		eta = formatDuration(float64(w.total-w.written) / rate)
	}

	return fmt.Sprintf("%s[%s] %3.0f%% (%s/%s) %s/s ETA: %s",
		prefix,
		bar(percent),
		percent,
		formatBytes(w.written),
		formatBytes(w.total),
		formatBytes(int64(rate)),
		eta,
	)
}

func bar(percent float64) string {
	filled := int(percent / 100 * barWidth)
	if filled >= barWidth {
		return strings.Repeat("=", barWidth)
	}
	return strings.Repeat("=", filled) + ">" + strings.Repeat(" ", barWidth-filled-1)
}

func pad(line string) string {
	if len(line) < lineWidth {
		return line + strings.Repeat(" ", lineWidth-len(line))
	}
	return line
}

func formatBytes(b int64) string {
	const (
		kib = 1024
		mib = kib * 1024
		gib = mib * 1024
	)
	switch {
	case b >= gib:
		return fmt.Sprintf("%.1fGB", float64(b)/gib)
	case b >= mib:
		return fmt.Sprintf("%.1fMB", float64(b)/mib)
	case b >= kib:
		return fmt.Sprintf("%.1fKB", float64(b)/kib)
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// formatDuration renders seconds as M:SS or H:MM:SS.
func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// ShouldShowProgress reports whether stdout is a terminal.
func ShouldShowProgress() bool {
	return IsTerminalFunc(int(os.Stdout.Fd()))
}
