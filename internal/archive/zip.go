package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsukumogami/waveform/internal/log"
)

// DefaultZipPattern locates the executable anywhere in the Windows archive.
const DefaultZipPattern = "**/audiowaveform.exe"

// ZipUnpacker extracts a zip archive into workDir/extract and globs for
// the executable.
type ZipUnpacker struct {
	Pattern string
	logger  log.Logger
}

// Unpack implements Unpacker.
func (z *ZipUnpacker) Unpack(ctx context.Context, archivePath, workDir string) (string, error) {
	logger := z.logger
	if logger == nil {
		logger = log.Default()
	}
	pattern := z.Pattern
	if pattern == "" {
		pattern = DefaultZipPattern
	}

	dest := filepath.Join(workDir, "extract")
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", fmt.Errorf("failed to create extraction directory: %w", err)
	}
	if err := extractZip(ctx, archivePath, dest); err != nil {
		return "", err
	}
	return globFirst(dest, pattern, logger)
}

func extractZip(ctx context.Context, archivePath, dest string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open zip %s: %w", filepath.Base(archivePath), err)
	}
	defer r.Close()

	root, err := os.OpenRoot(dest)
	if err != nil {
		return fmt.Errorf("failed to open extraction directory: %w", err)
	}
	defer root.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := entryPath(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := root.MkdirAll(rel, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}
		if err := writeZipEntry(root, f, rel); err != nil {
			return err
		}
	}
	return nil
}

func writeZipEntry(root *os.Root, f *zip.File, rel string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s in zip: %w", f.Name, err)
	}
	defer rc.Close()
	return writeEntry(root, rel, rc, f.Mode().Perm())
}
