package archive

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/tsukumogami/waveform/internal/log"
)

const (
	// DefaultDebBinaryPath is where the Debian package installs the
	// executable, relative to the filesystem root.
	DefaultDebBinaryPath = "usr/bin/audiowaveform"

	dataMemberPattern = "data.tar*"
)

// DebUnpacker unpacks a Debian package. The ar container goes to
// workDir/unpack, its data archive to workDir/rootfs.
type DebUnpacker struct {
	BinaryPath string
	logger     log.Logger
}

// Unpack implements Unpacker.
func (d *DebUnpacker) Unpack(ctx context.Context, archivePath, workDir string) (string, error) {
	logger := d.logger
	if logger == nil {
		logger = log.Default()
	}
	binRel := d.BinaryPath
	if binRel == "" {
		binRel = DefaultDebBinaryPath
	}

	unpackDir := filepath.Join(workDir, "unpack")
	rootfs := filepath.Join(workDir, "rootfs")
	for _, dir := range []string{unpackDir, rootfs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if err := extractAr(ctx, archivePath, unpackDir); err != nil {
		return "", err
	}

	dataPath, err := globFirst(unpackDir, dataMemberPattern, logger)
	if err != nil {
		return "", fmt.Errorf("package has no data archive: %w", err)
	}
	logger.Debug("extracting package data", "member", filepath.Base(dataPath))

	if err := extractDataTar(ctx, dataPath, rootfs); err != nil {
		return "", err
	}

	root, err := os.OpenRoot(rootfs)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", rootfs, err)
	}
	defer root.Close()
	info, err := root.Lstat(filepath.FromSlash(binRel))
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: expected %s", ErrBinaryNotInPackage, binRel)
	}
	return filepath.Join(rootfs, filepath.FromSlash(binRel)), nil
}

// extractAr writes every member of the ar container into dest.
func extractAr(ctx context.Context, archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open package: %w", err)
	}
	defer f.Close()

	r := ar.NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read package %s: %w", filepath.Base(archivePath), err)
		}

		// GNU ar terminates member names with a slash.
		name := strings.TrimSuffix(strings.TrimSpace(hdr.Name), "/")
		if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
			return fmt.Errorf("invalid package member name %q", hdr.Name)
		}

		out, err := os.Create(filepath.Join(dest, name))
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
		if _, err := io.Copy(out, r); err != nil {
			out.Close()
			return fmt.Errorf("failed to read package member %s: %w", name, err)
		}
		if err := out.Close(); err != nil {
			return err
		}
	}
}

// extractDataTar decompresses data.tar[.gz|.xz|.zst|.bz2] into dest.
func extractDataTar(ctx context.Context, path, dest string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open data archive: %w", err)
	}
	defer f.Close()

	var r io.Reader
	switch ext := filepath.Ext(path); ext {
	case ".tar":
		r = f
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	case ".xz":
		xzr, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xzr
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	case ".bz2":
		r = bzip2.NewReader(f)
	default:
		return fmt.Errorf("unsupported data archive compression %q", ext)
	}

	return extractTar(ctx, tar.NewReader(r), dest)
}

func extractTar(ctx context.Context, tr *tar.Reader, dest string) error {
	root, err := os.OpenRoot(dest)
	if err != nil {
		return fmt.Errorf("failed to open extraction directory: %w", err)
	}
	defer root.Close()

	realDest, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return fmt.Errorf("failed to resolve extraction directory: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}

		rel, err := entryPath(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := root.MkdirAll(rel, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			if err := writeEntry(root, rel, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := extractSymlink(root, realDest, rel, hdr.Linkname); err != nil {
				return err
			}
		}
	}
}

// extractSymlink creates rel -> linkname beneath root. The link target is
// checked against the resolved parent directory, so links created by
// earlier entries cannot be chained to reach outside dest.
func extractSymlink(root *os.Root, realDest, rel, linkname string) error {
	parent := filepath.Dir(rel)
	if err := root.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	realParent, err := filepath.EvalSymlinks(filepath.Join(realDest, parent))
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", parent, err)
	}
	if !withinDir(realParent, realDest) {
		return fmt.Errorf("symlink escapes extraction directory: %s -> %s", rel, linkname)
	}
	if err := checkSymlink(linkname, filepath.Join(realParent, filepath.Base(rel)), realDest); err != nil {
		return err
	}
	_ = root.Remove(rel)
	if err := root.Symlink(linkname, rel); err != nil {
		return fmt.Errorf("failed to create symlink: %w", err)
	}
	return nil
}
