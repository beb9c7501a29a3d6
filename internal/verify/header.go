package verify

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tsukumogami/waveform/internal/platform"
)

var (
	elfMagic   = []byte{0x7f, 'E', 'L', 'F'}
	machO32    = []byte{0xfe, 0xed, 0xfa, 0xce}
	machO64    = []byte{0xfe, 0xed, 0xfa, 0xcf}
	machO32Rev = []byte{0xce, 0xfa, 0xed, 0xfe}
	machO64Rev = []byte{0xcf, 0xfa, 0xed, 0xfe}
	fatMagic   = []byte{0xca, 0xfe, 0xba, 0xbe}
	peMagic    = []byte{'M', 'Z'}
	arMagic    = []byte("!<arch>\n")
)

// expectedFormat is the binary format each operating system executes.
var expectedFormat = map[string]string{
	"linux":   "elf",
	"darwin":  "macho",
	"windows": "pe",
}

// ValidateExecutable checks that path is an executable in the format and
// architecture of key. The file is never executed.
func ValidateExecutable(path string, key platform.Key) (*HeaderInfo, error) {
	magic, err := readMagic(path)
	if err != nil {
		return nil, &ValidationError{Category: ErrUnreadable, Path: path, Err: err,
			Message: fmt.Sprintf("cannot read file: %v", err)}
	}

	format := detectFormat(magic)
	if format == "ar" {
		return nil, &ValidationError{Category: ErrNotExecutable, Path: path,
			Message: "file is a static library (ar archive)"}
	}
	want, known := expectedFormat[key.OS]
	if !known {
		return nil, &ValidationError{Category: ErrInvalidFormat, Path: path,
			Message: fmt.Sprintf("no executable format known for %s", key.OS)}
	}
	if format == "fat" && want == "macho" {
		return validateFat(path, key.Arch)
	}
	if format != want {
		return nil, &ValidationError{Category: ErrInvalidFormat, Path: path,
			Message: fmt.Sprintf("file is %s, expected %s for %s", formatName(format), formatName(want), key.OS)}
	}

	switch format {
	case "elf":
		return validateELF(path, key.Arch)
	case "macho":
		return validateMachO(path, key.Arch)
	default:
		return validatePE(path, key.Arch)
	}
}

func readMagic(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	magic := make([]byte, 8)
	n, err := io.ReadFull(f, magic)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return magic[:n], nil
}

func detectFormat(magic []byte) string {
	switch {
	case len(magic) >= 8 && bytes.Equal(magic[:8], arMagic):
		return "ar"
	case bytes.HasPrefix(magic, elfMagic):
		return "elf"
	case len(magic) >= 4 && (bytes.Equal(magic[:4], machO32) || bytes.Equal(magic[:4], machO32Rev) ||
		bytes.Equal(magic[:4], machO64) || bytes.Equal(magic[:4], machO64Rev)):
		return "macho"
	case len(magic) >= 4 && bytes.Equal(magic[:4], fatMagic):
		return "fat"
	case bytes.HasPrefix(magic, peMagic):
		return "pe"
	default:
		return ""
	}
}

func formatName(f string) string {
	switch f {
	case "elf":
		return "ELF"
	case "macho", "fat":
		return "Mach-O"
	case "pe":
		return "PE"
	default:
		return "an unrecognized format"
	}
}

func validateELF(path, goarch string) (info *HeaderInfo, err error) {
	defer recoverParser(path, &err)

	f, err := elf.Open(path)
	if err != nil {
		return nil, categorize(path, "ELF", err)
	}
	defer func() { _ = f.Close() }()

	var kind string
	switch f.Type {
	case elf.ET_EXEC:
		kind = "executable"
	case elf.ET_DYN:
		if !hasInterpreter(f) {
			return nil, &ValidationError{Category: ErrNotExecutable, Path: path,
				Message: "file is a shared object, not an executable"}
		}
		kind = "position-independent executable"
	default:
		return nil, &ValidationError{Category: ErrNotExecutable, Path: path,
			Message: fmt.Sprintf("file is %s, not an executable", elfTypeName(f.Type))}
	}

	if want := goArchToELF(goarch); f.Machine != want {
		return nil, &ValidationError{Category: ErrWrongArch, Path: path,
			Message: fmt.Sprintf("binary is %s, expected %s", elfMachineName(f.Machine), elfMachineName(want))}
	}

	deps, _ := f.ImportedLibraries()
	return &HeaderInfo{Format: "ELF", Type: kind, Architecture: elfMachineName(f.Machine), Dependencies: deps}, nil
}

// hasInterpreter distinguishes PIE executables from shared libraries,
// which share ET_DYN.
func hasInterpreter(f *elf.File) bool {
	for _, p := range f.Progs {
		if p.Type == elf.PT_INTERP {
			return true
		}
	}
	return false
}

func validateMachO(path, goarch string) (info *HeaderInfo, err error) {
	defer recoverParser(path, &err)

	f, err := macho.Open(path)
	if err != nil {
		return nil, categorize(path, "Mach-O", err)
	}
	defer func() { _ = f.Close() }()

	if want := goArchToMachO(goarch); f.Cpu != want {
		return nil, &ValidationError{Category: ErrWrongArch, Path: path,
			Message: fmt.Sprintf("binary is %s, expected %s", machoCpuName(f.Cpu), machoCpuName(want))}
	}
	info, err = machOInfo(f)
	if err != nil {
		err.(*ValidationError).Path = path
		return nil, err
	}
	return info, nil
}

func validateFat(path, goarch string) (info *HeaderInfo, err error) {
	defer recoverParser(path, &err)

	ff, err := macho.OpenFat(path)
	if err != nil {
		if errors.Is(err, macho.ErrNotFat) {
			return nil, &ValidationError{Category: ErrInvalidFormat, Path: path, Err: err,
				Message: "file is not a universal binary"}
		}
		return nil, categorize(path, "Mach-O", err)
	}
	defer func() { _ = ff.Close() }()

	want := goArchToMachO(goarch)
	available := make([]string, 0, len(ff.Arches))
	for _, arch := range ff.Arches {
		if arch.Cpu != want {
			available = append(available, machoCpuName(arch.Cpu))
			continue
		}
		info, err := machOInfo(arch.File)
		if err != nil {
			err.(*ValidationError).Path = path
			return nil, err
		}
		info.SourceArch = fmt.Sprintf("fat(%s)", machoCpuName(arch.Cpu))
		return info, nil
	}

	return nil, &ValidationError{Category: ErrWrongArch, Path: path,
		Message: fmt.Sprintf("no %s slice in universal binary (has: %s)", goarch, strings.Join(available, ", "))}
}

func machOInfo(f *macho.File) (*HeaderInfo, error) {
	if f.Type != macho.TypeExec {
		return nil, &ValidationError{Category: ErrNotExecutable,
			Message: fmt.Sprintf("file is %s, not an executable", machoTypeName(f.Type))}
	}
	deps, _ := f.ImportedLibraries()
	return &HeaderInfo{Format: "Mach-O", Type: "executable", Architecture: machoCpuName(f.Cpu), Dependencies: deps}, nil
}

func validatePE(path, goarch string) (info *HeaderInfo, err error) {
	defer recoverParser(path, &err)

	f, err := pe.Open(path)
	if err != nil {
		return nil, categorize(path, "PE", err)
	}
	defer func() { _ = f.Close() }()

	ch := f.FileHeader.Characteristics
	if ch&pe.IMAGE_FILE_EXECUTABLE_IMAGE == 0 || ch&pe.IMAGE_FILE_DLL != 0 {
		return nil, &ValidationError{Category: ErrNotExecutable, Path: path,
			Message: "file is a DLL or object, not an executable"}
	}
	if want := goArchToPE(goarch); f.FileHeader.Machine != want {
		return nil, &ValidationError{Category: ErrWrongArch, Path: path,
			Message: fmt.Sprintf("binary is %s, expected %s", peMachineName(f.FileHeader.Machine), peMachineName(want))}
	}
	return &HeaderInfo{Format: "PE", Type: "executable", Architecture: peMachineName(f.FileHeader.Machine)}, nil
}

// recoverParser turns a panic in a debug/* parser into ErrCorrupted.
func recoverParser(path string, err *error) {
	if r := recover(); r != nil {
		*err = &ValidationError{Category: ErrCorrupted, Path: path,
			Message: fmt.Sprintf("parser panic: %v", r)}
	}
}

func categorize(path, format string, err error) *ValidationError {
	msg := err.Error()
	switch {
	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		return &ValidationError{Category: ErrTruncated, Path: path, Err: err, Message: "file is truncated"}
	case errors.Is(err, os.ErrNotExist):
		return &ValidationError{Category: ErrUnreadable, Path: path, Err: err, Message: "file not found"}
	case errors.Is(err, os.ErrPermission):
		return &ValidationError{Category: ErrUnreadable, Path: path, Err: err, Message: "permission denied"}
	case strings.Contains(msg, "magic"):
		return &ValidationError{Category: ErrInvalidFormat, Path: path, Err: err,
			Message: fmt.Sprintf("invalid %s magic number", format)}
	default:
		return &ValidationError{Category: ErrCorrupted, Path: path, Err: err,
			Message: fmt.Sprintf("invalid %s structure: %v", format, err)}
	}
}

func goArchToELF(goarch string) elf.Machine {
	switch goarch {
	case "amd64":
		return elf.EM_X86_64
	case "arm64":
		return elf.EM_AARCH64
	case "386":
		return elf.EM_386
	default:
		return elf.EM_NONE
	}
}

func goArchToMachO(goarch string) macho.Cpu {
	switch goarch {
	case "amd64":
		return macho.CpuAmd64
	case "arm64":
		return macho.CpuArm64
	default:
		return 0
	}
}

func goArchToPE(goarch string) uint16 {
	switch goarch {
	case "amd64":
		return pe.IMAGE_FILE_MACHINE_AMD64
	case "386":
		return pe.IMAGE_FILE_MACHINE_I386
	case "arm64":
		return pe.IMAGE_FILE_MACHINE_ARM64
	default:
		return pe.IMAGE_FILE_MACHINE_UNKNOWN
	}
}

func elfMachineName(m elf.Machine) string {
	switch m {
	case elf.EM_X86_64:
		return "x86_64"
	case elf.EM_AARCH64:
		return "arm64"
	case elf.EM_386:
		return "i386"
	default:
		return fmt.Sprintf("unknown(%d)", m)
	}
}

func machoCpuName(c macho.Cpu) string {
	switch c {
	case macho.CpuAmd64:
		return "x86_64"
	case macho.CpuArm64:
		return "arm64"
	case macho.Cpu386:
		return "i386"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

func peMachineName(m uint16) string {
	switch m {
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return "x86_64"
	case pe.IMAGE_FILE_MACHINE_I386:
		return "i386"
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return "arm64"
	default:
		return fmt.Sprintf("unknown(0x%x)", m)
	}
}

func elfTypeName(t elf.Type) string {
	switch t {
	case elf.ET_REL:
		return "a relocatable object"
	case elf.ET_CORE:
		return "a core dump"
	default:
		return fmt.Sprintf("ELF type %d", t)
	}
}

func machoTypeName(t macho.Type) string {
	switch t {
	case macho.TypeObj:
		return "an object file"
	case macho.TypeDylib:
		return "a dynamic library"
	case macho.TypeBundle:
		return "a bundle"
	default:
		return fmt.Sprintf("Mach-O type %d", t)
	}
}
