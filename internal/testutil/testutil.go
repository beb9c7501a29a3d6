// Package testutil holds helpers shared by package tests: isolated
// configurations and synthesized release assets.
package testutil

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/tsukumogami/waveform/internal/config"
)

// NewTestConfig returns a config rooted in a fresh temporary directory.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return config.New(t.TempDir(), config.DefaultVersion)
}

// TarEntry is one member of a synthesized tar archive. A non-empty
// Linkname makes the entry a symlink; a Name ending in "/" a directory.
type TarEntry struct {
	Name     string
	Body     string
	Mode     int64
	Linkname string
}

// BuildTar returns an uncompressed tar archive holding entries in order.
func BuildTar(t *testing.T, entries []TarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: e.Mode, ModTime: time.Unix(0, 0)}
		switch {
		case e.Linkname != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.Linkname
		case e.Name[len(e.Name)-1] == '/':
			hdr.Typeflag = tar.TypeDir
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Body))
		}
		if hdr.Mode == 0 {
			hdr.Mode = 0644
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header %s: %v", e.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.Body)); err != nil {
				t.Fatalf("tar body %s: %v", e.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	return buf.Bytes()
}

// Compress compresses data for a data.tar member. ext is one of "",
// ".gz", ".xz" or ".zst".
func Compress(t *testing.T, ext string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch ext {
	case "":
		return data
	case ".gz":
		w := gzip.NewWriter(&buf)
		mustWrite(t, w, data)
		mustClose(t, w)
	case ".xz":
		w, err := xz.NewWriter(&buf)
		if err != nil {
			t.Fatalf("xz writer: %v", err)
		}
		mustWrite(t, w, data)
		mustClose(t, w)
	case ".zst":
		w, err := zstd.NewWriter(&buf)
		if err != nil {
			t.Fatalf("zstd writer: %v", err)
		}
		mustWrite(t, w, data)
		mustClose(t, w)
	default:
		t.Fatalf("unsupported compression %q", ext)
	}
	return buf.Bytes()
}

// ArMember is one member of a synthesized ar container.
type ArMember struct {
	Name string
	Body []byte
}

// BuildAr returns an ar container holding members in order.
func BuildAr(t *testing.T, members []ArMember) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := ar.NewWriter(&buf)
	if err := w.WriteGlobalHeader(); err != nil {
		t.Fatalf("ar global header: %v", err)
	}
	for _, m := range members {
		hdr := &ar.Header{Name: m.Name, Size: int64(len(m.Body)), Mode: 0644, ModTime: time.Unix(0, 0)}
		if err := w.WriteHeader(hdr); err != nil {
			t.Fatalf("ar header %s: %v", m.Name, err)
		}
		if _, err := w.Write(m.Body); err != nil {
			t.Fatalf("ar body %s: %v", m.Name, err)
		}
	}
	return buf.Bytes()
}

// BuildDeb returns a Debian package whose data.tar<ext> member holds
// entries.
func BuildDeb(t *testing.T, ext string, entries []TarEntry) []byte {
	t.Helper()
	control := Compress(t, ".gz", BuildTar(t, []TarEntry{{Name: "./control", Body: "Package: audiowaveform\n"}}))
	return BuildAr(t, []ArMember{
		{Name: "debian-binary", Body: []byte("2.0\n")},
		{Name: "control.tar.gz", Body: control},
		{Name: "data.tar" + ext, Body: Compress(t, ext, BuildTar(t, entries))},
	})
}

// BuildZip returns a zip archive holding files, written in name order.
func BuildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		mustWrite(t, w, []byte(files[name]))
	}
	mustClose(t, zw)
	return buf.Bytes()
}

// WriteFile writes data under dir and returns the path.
func WriteFile(t *testing.T, dir, name string, data []byte, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		t.Fatal(err)
	}
	return path
}

type writer interface {
	Write([]byte) (int, error)
}

type closer interface {
	Close() error
}

func mustWrite(t *testing.T, w writer, data []byte) {
	t.Helper()
	if _, err := w.Write(data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func mustClose(t *testing.T, c closer) {
	t.Helper()
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
