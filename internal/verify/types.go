// Package verify checks that a staged audiowaveform binary is an
// executable for the target platform before it is moved into place.
package verify

import "fmt"

// HeaderInfo describes a validated executable.
type HeaderInfo struct {
	// Format is "ELF", "Mach-O" or "PE".
	Format string

	// Type describes the file type ("executable", "position-independent executable").
	Type string

	// Architecture is the target architecture ("x86_64", "arm64", "i386").
	Architecture string

	// Dependencies lists DT_NEEDED or LC_LOAD_DYLIB entries. PE imports
	// are not listed.
	Dependencies []string

	// SourceArch is set for universal binaries to name the slice used.
	SourceArch string
}

// ErrorCategory classifies validation failures.
type ErrorCategory int

const (
	// ErrUnreadable means the file could not be opened or read.
	ErrUnreadable ErrorCategory = iota

	// ErrInvalidFormat means the file is not the binary format the
	// target operating system runs.
	ErrInvalidFormat

	// ErrNotExecutable means the file parses but is an object, library or
	// archive rather than a program.
	ErrNotExecutable

	// ErrWrongArch means the executable targets another CPU.
	ErrWrongArch

	// ErrTruncated means the file ends before its headers do, usually an
	// interrupted download.
	ErrTruncated

	// ErrCorrupted means the headers are internally inconsistent.
	ErrCorrupted
)

// String returns a short label for the category.
func (c ErrorCategory) String() string {
	switch c {
	case ErrUnreadable:
		return "unreadable"
	case ErrInvalidFormat:
		return "invalid format"
	case ErrNotExecutable:
		return "not an executable"
	case ErrWrongArch:
		return "wrong architecture"
	case ErrTruncated:
		return "truncated"
	case ErrCorrupted:
		return "corrupted"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// ValidationError reports why a binary was rejected.
type ValidationError struct {
	Category ErrorCategory
	Path     string
	Message  string
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Category, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
