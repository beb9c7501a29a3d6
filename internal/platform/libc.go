package platform

import (
	"bytes"
	"debug/elf"
	"path/filepath"
	"strings"
)

// DetectLibc returns the libc implementation of the host: "musl" or
// "glibc". The Debian packages published upstream link against glibc,
// so the installer refuses them on musl systems.
//
// Detection examines the ELF interpreter of /bin/sh and falls back to
// looking for the musl dynamic linker under /lib.
func DetectLibc() string {
	if libc := libcFromInterpreter("/bin/sh"); libc != "" {
		return libc
	}
	return DetectLibcWithRoot("")
}

// libcFromInterpreter reads PT_INTERP from an ELF binary.
// Returns "" for static binaries or unreadable files.
func libcFromInterpreter(path string) string {
	f, err := elf.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_INTERP {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return ""
		}
		if strings.Contains(string(bytes.TrimRight(data, "\x00")), "musl") {
			return "musl"
		}
		return "glibc"
	}
	return ""
}

// DetectLibcWithRoot looks for lib/ld-musl-*.so.1 under root.
// An empty root uses the real filesystem root.
func DetectLibcWithRoot(root string) string {
	matches, _ := filepath.Glob(filepath.Join(root, "lib", "ld-musl-*.so.1"))
	if len(matches) > 0 {
		return "musl"
	}
	return "glibc"
}
