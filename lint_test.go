package main_test

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// sourceDirs are the trees holding this module's Go code. Underscore
// directories such as _examples are outside the module and not checked.
var sourceDirs = []string{"cmd", "internal", "test"}

func TestGoFmt(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode: skipping gofmt")
	}
	args := append([]string{"-l", "integration_test.go", "lint_test.go"}, sourceDirs...)
	cmd := exec.Command("gofmt", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		t.Fatalf("gofmt failed to run: %v\nOutput:\n%s", err, out.String())
	}
	if out.Len() > 0 {
		t.Errorf("gofmt found unformatted files:\n%s", out.String())
	}
}

func TestGoModTidy(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode: skipping go mod tidy")
	}
	rungo(t, "mod", "tidy", "-diff")
}

func TestGoVet(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode: skipping go vet")
	}
	rungo(t, "vet", "./...")
	rungo(t, "vet", "-tags", "integration", ".")
}

// TestInternalPackagesHaveTests keeps every internal package covered by
// at least one test file. testutil only serves other tests.
func TestInternalPackagesHaveTests(t *testing.T) {
	entries, err := os.ReadDir("internal")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "testutil" {
			continue
		}
		dir := filepath.Join("internal", e.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		var hasGo, hasTest bool
		for _, f := range files {
			switch name := f.Name(); {
			case strings.HasSuffix(name, "_test.go"):
				hasTest = true
			case strings.HasSuffix(name, ".go"):
				hasGo = true
			}
		}
		if hasGo && !hasTest {
			t.Errorf("%s has no tests", dir)
		}
	}
}

func rungo(t *testing.T, args ...string) {
	t.Helper()

	cmd := exec.Command("go", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		if ee := (*exec.ExitError)(nil); errors.As(err, &ee) && len(ee.Stderr) > 0 {
			t.Fatalf("%v: %v\n%s", cmd, err, ee.Stderr)
		}
		t.Fatalf("%v: %v\n%s", cmd, err, output)
	}
}
