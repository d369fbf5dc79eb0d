package gen_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// runExampleIntegrationTest copies an example package next to the module
// root, generates its comparisons with the CLI and runs the package tests
// guarded by the approxeq_generated tag against the generated code.
func runExampleIntegrationTest(t *testing.T, exampleName string, genArgs ...string) {
	t.Helper()

	if testing.Short() {
		t.Skip("compiles generated code")
	}

	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not on PATH")
	}

	repoRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}

	exampleDir := filepath.Join(repoRoot, "examples", exampleName)

	// A leading underscore keeps the copy out of ./... patterns.
	workDir, err := os.MkdirTemp(repoRoot, "_itest_"+exampleName+"_")
	if err != nil {
		t.Fatalf("work dir: %v", err)
	}

	t.Cleanup(func() { _ = os.RemoveAll(workDir) })

	copyGoFiles(t, exampleDir, workDir)

	pkg := "./" + filepath.Base(workDir)

	args := append([]string{"run", "./cmd/approxeq-generator", "gen"}, genArgs...)
	args = append(args, pkg)

	cmd := exec.CommandContext(t.Context(), "go", args...)
	cmd.Dir = repoRoot

	b, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("gen failed: %v\n%s", err, string(b))
	}

	test := exec.CommandContext(t.Context(), "go", "test", "-tags", "approxeq_generated", "-count=1", pkg)
	test.Dir = repoRoot

	b, err = test.CombinedOutput()
	if err != nil {
		// Best-effort: dump the generated file for easier debugging.
		if fb, rerr := os.ReadFile(filepath.Join(workDir, "approxeq_gen.go")); rerr == nil {
			t.Logf("generated file:\n%s", string(fb))
		}

		t.Fatalf("generated code failed: %v\n%s", err, string(b))
	}
}

func copyGoFiles(t *testing.T, from, to string) {
	t.Helper()

	entries, err := os.ReadDir(from)
	if err != nil {
		t.Fatalf("read %s: %v", from, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
			continue
		}

		b, err := os.ReadFile(filepath.Join(from, e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}

		if err := os.WriteFile(filepath.Join(to, e.Name()), b, 0o644); err != nil {
			t.Fatalf("write %s: %v", e.Name(), err)
		}
	}
}
