//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir      string // $HOME, so no real rc file is read
	TemplatesDir string // on-disk template tree used instead of the embedded one
	ProjectDir   string // a mock project directory
}

// setupTestEnv creates isolated temp directories and points $HOME at one of
// them so every operation is sandboxed. The env vars are restored after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:      t.TempDir(),
		TemplatesDir: t.TempDir(),
		ProjectDir:   t.TempDir(),
	}
	t.Setenv("HOME", env.HomeDir)
	return env
}

// setupTemplateTree writes a small template tree with a catalog for python
// and see-sharp into dir.
func setupTemplateTree(t *testing.T, dir string) {
	t.Helper()

	writeFile(t, filepath.Join(dir, "catalog.yaml"), `version: 2.0.0
requires: ">= 0.1.0"
languages:
  python:
    agents:
      - py-reviewer.md
    instructions: python.md
  see-sharp:
    agents: []
    instructions: see-sharp.md
`)
	writeFile(t, filepath.Join(dir, "agents/python/py-reviewer.md"), "# Python reviewer\n")
	writeFile(t, filepath.Join(dir, "commands/ship.md"), "# Ship\n")
	writeFile(t, filepath.Join(dir, "commands/triage.md"), "# Triage\n")
	writeFile(t, filepath.Join(dir, "prompts/ship.prompt.md"), "# Ship prompt\n")
	writeFile(t, filepath.Join(dir, "instructions/python.md"), "# Python project instructions\n")
	writeFile(t, filepath.Join(dir, "instructions/see-sharp.md"), "# C# project instructions\n")
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// touch sets the modification time of path.
func touch(t *testing.T, path string, ts time.Time) {
	t.Helper()
	if err := os.Chtimes(path, ts, ts); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

// ageTree sets every regular file under dir to ts.
func ageTree(t *testing.T, dir string, ts time.Time) {
	t.Helper()
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			return os.Chtimes(path, ts, ts)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("aging %s: %v", dir, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertDirExists fails the test if the directory does not exist.
func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory to exist: %s (error: %v)", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory, but it is a file", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
