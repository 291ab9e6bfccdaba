package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		projectDir = ""
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitCreatesProjectDir(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "--project", dir, "init")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Initialized") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, ".sigilforge", "config.yaml")); err != nil {
		t.Fatalf("config not written: %v", err)
	}
}

func TestValidateMergesProjectFragments(t *testing.T) {
	dir := t.TempDir()
	catalogDir := filepath.Join(dir, ".sigilforge", "catalog")
	if err := os.MkdirAll(catalogDir, 0o755); err != nil {
		t.Fatal(err)
	}
	fragment := `{
  // project additions
  "sigils": [
    {"name": "Glass Lens", "trait": "Focus", "base_level": 1, "max_level": 2},
  ],
}`
	if err := os.WriteFile(filepath.Join(catalogDir, "extra.jsonc"), []byte(fragment), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "--project", dir, "validate")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ 5 traits, 7 sigils from 3 files") {
		t.Fatalf("unexpected summary %q", out)
	}

	bad := "sigils:\n  - name: Broken\n    trait: Missing\n    base_level: 1\n    max_level: 1\n"
	if err := os.WriteFile(filepath.Join(catalogDir, "bad.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = execute(t, "--project", dir, "validate")
	if err == nil {
		t.Fatalf("expected validation error, got %q", out)
	}
	if !strings.Contains(out, `unknown trait "Missing"`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSearchPrintsMatches(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "--project", dir, "search", "hawk")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "Hawk Eye") || !strings.Contains(out, "Focus") {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Contains(out, "Stone Heart") {
		t.Fatalf("unrelated sigil listed: %q", out)
	}
}
