package install

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestAcquireLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".audiowaveform", "install.lock")

	lock, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if runtime.GOOS != "windows" {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(data), "pid=") {
			t.Errorf("lock contents = %q", data)
		}
	}

	if _, err := AcquireLock(path); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("second AcquireLock = %v, want ErrLockHeld", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release failed: %v", err)
	}

	again, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock after release failed: %v", err)
	}
	_ = again.Release()
}

func TestAcquireLockIgnoresFileAge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install.lock")

	a, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock A failed: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	if _, err := AcquireLock(path); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("AcquireLock over an old but held lock = %v, want ErrLockHeld", err)
	}

	if err := a.Release(); err != nil {
		t.Fatal(err)
	}
	b, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock B failed: %v", err)
	}
	defer b.Release()

	// A releasing again must not free B's lock.
	if err := a.Release(); err != nil {
		t.Fatal(err)
	}
	if _, err := AcquireLock(path); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("AcquireLock C while B holds = %v, want ErrLockHeld", err)
	}
}

func TestAcquireLockLeftoverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install.lock")
	if err := os.WriteFile(path, []byte("pid=1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	lock, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock over an unlocked leftover file failed: %v", err)
	}
	defer lock.Release()
}
