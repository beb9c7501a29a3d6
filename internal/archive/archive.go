// Package archive unpacks downloaded release assets and locates the
// audiowaveform executable inside them.
//
// Two strategies exist, selected once from the asset format: zip archives
// (Windows) and Debian packages (Linux). Both extract in-process into a
// caller-owned work directory and reject entries that would escape it.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tsukumogami/waveform/internal/asset"
	"github.com/tsukumogami/waveform/internal/log"
)

// Unpacker extracts an archive into workDir and returns the path of the
// executable found inside it.
type Unpacker interface {
	Unpack(ctx context.Context, archivePath, workDir string) (string, error)
}

// ErrBinaryNotInPackage is returned when a Debian package does not carry
// the executable at its expected path.
var ErrBinaryNotInPackage = errors.New("audiowaveform binary not found in package")

// NoMatchError reports a glob that matched nothing in an extracted tree.
type NoMatchError struct {
	Pattern string
	Dir     string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no file matching %s found in %s", e.Pattern, e.Dir)
}

// ForFormat returns the Unpacker for an asset format.
func ForFormat(format asset.Format, logger log.Logger) (Unpacker, error) {
	if logger == nil {
		logger = log.Default()
	}
	switch format {
	case asset.FormatZip:
		return &ZipUnpacker{Pattern: DefaultZipPattern, logger: logger}, nil
	case asset.FormatDeb:
		return &DebUnpacker{BinaryPath: DefaultDebBinaryPath, logger: logger}, nil
	default:
		return nil, fmt.Errorf("no unpacker for asset format %q", format)
	}
}

// globFirst matches pattern against dir and returns the first match in
// lexical order. Multiple matches are not an error.
func globFirst(dir, pattern string, logger log.Logger) (string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return "", fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", &NoMatchError{Pattern: pattern, Dir: dir}
	}
	sort.Strings(matches)
	if len(matches) > 1 {
		logger.Debug("multiple archive entries matched, using first", "pattern", pattern, "matches", matches)
	}
	return filepath.Join(dir, filepath.FromSlash(matches[0])), nil
}

// withinDir reports whether target is base or lies beneath it.
func withinDir(target, base string) bool {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	return absTarget == absBase || strings.HasPrefix(absTarget, absBase+string(os.PathSeparator))
}

// checkSymlink rejects absolute link targets and relative ones that
// resolve outside base.
func checkSymlink(linkTarget, linkPath, base string) error {
	if filepath.IsAbs(linkTarget) {
		return fmt.Errorf("absolute symlink target not allowed: %s -> %s", linkPath, linkTarget)
	}
	resolved := filepath.Join(filepath.Dir(linkPath), linkTarget)
	if !withinDir(resolved, base) {
		return fmt.Errorf("symlink escapes extraction directory: %s -> %s", linkPath, linkTarget)
	}
	return nil
}

// entryPath cleans an archive member name into a path relative to dest,
// rejecting names that would land outside it.
func entryPath(dest, name string) (string, error) {
	clean := strings.TrimPrefix(filepath.ToSlash(name), "./")
	target := filepath.Join(dest, filepath.FromSlash(clean))
	if !withinDir(target, dest) {
		return "", fmt.Errorf("archive entry escapes extraction directory: %s", name)
	}
	rel, err := filepath.Rel(dest, target)
	if err != nil {
		return "", fmt.Errorf("archive entry escapes extraction directory: %s", name)
	}
	return rel, nil
}

// writeEntry copies r into rel beneath root. Opening through root fails
// for any path that resolves outside it, symlinks included.
func writeEntry(root *os.Root, rel string, r io.Reader, mode os.FileMode) error {
	if err := root.MkdirAll(filepath.Dir(rel), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if mode == 0 {
		mode = 0644
	}
	out, err := root.OpenFile(rel, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(rel), err)
	}
	return out.Close()
}
