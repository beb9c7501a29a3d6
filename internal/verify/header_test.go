package verify

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/tsukumogami/waveform/internal/platform"
)

// testBinary returns the running test executable, a real program in the
// host's native format.
func testBinary(t *testing.T) string {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Skipf("cannot locate test binary: %v", err)
	}
	return exe
}

func hostKey(t *testing.T) platform.Key {
	t.Helper()
	key := platform.Host()
	if _, ok := expectedFormat[key.OS]; !ok {
		t.Skipf("no executable format for %s", key.OS)
	}
	return key
}

func TestValidateExecutable_HostBinary(t *testing.T) {
	key := hostKey(t)
	info, err := ValidateExecutable(testBinary(t), key)
	if err != nil {
		t.Fatalf("ValidateExecutable failed: %v", err)
	}
	wantFormat := map[string]string{"linux": "ELF", "darwin": "Mach-O", "windows": "PE"}[key.OS]
	if info.Format != wantFormat {
		t.Errorf("Format = %q, want %q", info.Format, wantFormat)
	}
	if info.Architecture == "" {
		t.Error("Architecture is empty")
	}
}

func TestValidateExecutable_WrongArch(t *testing.T) {
	key := hostKey(t)
	other := "arm64"
	if runtime.GOARCH == "arm64" {
		other = "amd64"
	}
	_, err := ValidateExecutable(testBinary(t), platform.Key{OS: key.OS, Arch: other})
	assertCategory(t, err, ErrWrongArch)
}

func TestValidateExecutable_WrongFormat(t *testing.T) {
	key := hostKey(t)
	otherOS := "windows"
	if key.OS == "windows" {
		otherOS = "linux"
	}
	_, err := ValidateExecutable(testBinary(t), platform.Key{OS: otherOS, Arch: key.Arch})
	assertCategory(t, err, ErrInvalidFormat)
}

func TestValidateExecutable_Truncated(t *testing.T) {
	key := hostKey(t)
	data, err := os.ReadFile(testBinary(t))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "audiowaveform")
	if err := os.WriteFile(path, data[:16], 0755); err != nil {
		t.Fatal(err)
	}

	_, err = ValidateExecutable(path, key)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Category != ErrTruncated && vErr.Category != ErrCorrupted {
		t.Errorf("Category = %s, want truncated or corrupted", vErr.Category)
	}
}

func TestValidateExecutable_RejectsNonBinaries(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		data []byte
		key  platform.Key
		want ErrorCategory
	}{
		{name: "html error page", data: []byte("<html><body>Not Found</body></html>"), key: platform.Key{OS: "linux", Arch: "amd64"}, want: ErrInvalidFormat},
		{name: "empty", data: nil, key: platform.Key{OS: "windows", Arch: "amd64"}, want: ErrInvalidFormat},
		{name: "static archive", data: []byte("!<arch>\nfoo.o/          "), key: platform.Key{OS: "linux", Arch: "amd64"}, want: ErrNotExecutable},
		{name: "unknown os", data: []byte{0x7f, 'E', 'L', 'F'}, key: platform.Key{OS: "plan9", Arch: "amd64"}, want: ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, tt.data, 0644); err != nil {
				t.Fatal(err)
			}
			_, err := ValidateExecutable(path, tt.key)
			assertCategory(t, err, tt.want)
		})
	}
}

func TestValidateExecutable_Missing(t *testing.T) {
	_, err := ValidateExecutable(filepath.Join(t.TempDir(), "nope"), platform.Key{OS: "linux", Arch: "amd64"})
	assertCategory(t, err, ErrUnreadable)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		magic []byte
		want  string
	}{
		{[]byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0}, "elf"},
		{[]byte{0xcf, 0xfa, 0xed, 0xfe, 7, 0, 0, 1}, "macho"},
		{[]byte{0xca, 0xfe, 0xba, 0xbe, 0, 0, 0, 2}, "fat"},
		{[]byte{'M', 'Z', 0x90, 0}, "pe"},
		{[]byte("!<arch>\n"), "ar"},
		{[]byte("PK\x03\x04"), ""},
		{[]byte{0x7f}, ""},
	}
	for _, tt := range tests {
		if got := detectFormat(tt.magic); got != tt.want {
			t.Errorf("detectFormat(%x) = %q, want %q", tt.magic, got, tt.want)
		}
	}
}

func TestErrorCategoryString(t *testing.T) {
	if ErrWrongArch.String() != "wrong architecture" {
		t.Errorf("ErrWrongArch.String() = %q", ErrWrongArch.String())
	}
	if ErrorCategory(99).String() != "unknown(99)" {
		t.Errorf("unexpected label %q", ErrorCategory(99).String())
	}
}

func assertCategory(t *testing.T, err error, want ErrorCategory) {
	t.Helper()
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError(%s), got %v", want, err)
	}
	if vErr.Category != want {
		t.Errorf("Category = %s, want %s (%v)", vErr.Category, want, err)
	}
}
