package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, projectDir, body string) {
	t.Helper()
	dir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(strings.TrimSpace(body)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.Slots() != defaultSlots {
		t.Fatalf("expected %d slots, got %d", defaultSlots, c.Slots())
	}
	if !c.UseBuiltinCatalog() {
		t.Fatalf("expected builtin catalog by default")
	}
	if got := c.CatalogPatterns(); len(got) != 1 || got[0] != "**/*.{yaml,yml,json,jsonc}" {
		t.Fatalf("unexpected default patterns %v", got)
	}
	if c.Project.Bridge.Enabled != nil {
		t.Fatalf("expected bridge enabled to be unset")
	}
}

func TestNewConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, `
version: 1
loadout:
  slots: 6
catalog:
  builtin: false
  paths:
    - " sigils/*.yaml "
    - sigils/*.yaml
    - traits.jsonc
search:
  limit: 5
bridge:
  enabled: true
  host: " 0.0.0.0 "
  port: 9000
`)
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Slots() != 6 {
		t.Fatalf("expected 6 slots, got %d", c.Slots())
	}
	if c.UseBuiltinCatalog() {
		t.Fatalf("expected builtin catalog to be disabled")
	}
	patterns := c.CatalogPatterns()
	if len(patterns) != 2 || patterns[0] != "sigils/*.yaml" || patterns[1] != "traits.jsonc" {
		t.Fatalf("patterns not normalized: %v", patterns)
	}
	if c.SearchLimit() != 5 {
		t.Fatalf("expected limit 5, got %d", c.SearchLimit())
	}
	if c.Project.Bridge.Enabled == nil || !*c.Project.Bridge.Enabled {
		t.Fatalf("expected bridge enabled")
	}
	if c.Project.Bridge.Host != "0.0.0.0" || c.Project.Bridge.Port != 9000 {
		t.Fatalf("unexpected bridge config %+v", c.Project.Bridge)
	}
}

func TestSearchLimitZeroMeansUnlimited(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, "search:\n  limit: 0\n")
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.SearchLimit() != 0 {
		t.Fatalf("explicit limit 0 should be kept, got %d", c.SearchLimit())
	}

	writeConfig(t, projectDir, "loadout:\n  slots: 4\n")
	c, err = NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.SearchLimit() != 20 {
		t.Fatalf("missing limit should use the default, got %d", c.SearchLimit())
	}
}

func TestNewConfigValidation(t *testing.T) {
	cases := map[string]string{
		"slots":   "loadout:\n  slots: 100\n",
		"limit":   "search:\n  limit: -1\n",
		"escape":  "catalog:\n  paths: [\"../outside/*.yaml\"]\n",
		"port":    "bridge:\n  port: 70000\n",
		"garbage": "loadout: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			projectDir := t.TempDir()
			writeConfig(t, projectDir, body)
			if _, err := NewConfig(projectDir); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	projectDir := t.TempDir()
	t.Setenv("SIGILFORGE_SLOTS", "4")
	t.Setenv("SIGILFORGE_CATALOG", "a/*.yaml, b/**/*.json")
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Slots() != 4 {
		t.Fatalf("expected env slots 4, got %d", c.Slots())
	}
	patterns := c.CatalogPatterns()
	if len(patterns) != 2 || patterns[1] != "b/**/*.json" {
		t.Fatalf("unexpected env patterns %v", patterns)
	}
}

func TestEnvOverridesAreValidated(t *testing.T) {
	t.Setenv("SIGILFORGE_SLOTS", "0")
	if _, err := NewConfig(t.TempDir()); err == nil {
		t.Fatalf("expected zero slots from env to be rejected")
	}
	t.Setenv("SIGILFORGE_SLOTS", "many")
	if _, err := NewConfig(t.TempDir()); err == nil {
		t.Fatalf("expected unparsable slots to be rejected")
	}
}

func TestInitDirWritesDefaultConfigOnce(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	for _, sub := range []string{"catalog", "logs"} {
		if info, err := os.Stat(filepath.Join(projectDir, Dir, sub)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s dir: %v", sub, err)
		}
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("default config should parse: %v", err)
	}
	if c.Slots() != 12 || c.SearchLimit() != 20 {
		t.Fatalf("unexpected defaults %+v", c.Project)
	}

	custom := "version: 1\nloadout:\n  slots: 3\n"
	if err := os.WriteFile(c.ProjectConfigPath(), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("second InitDir: %v", err)
	}
	data, err := os.ReadFile(c.ProjectConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != custom {
		t.Fatalf("InitDir overwrote existing config")
	}
	if !strings.HasSuffix(c.JournalPath(), filepath.Join(Dir, "logs", "journal.log")) {
		t.Fatalf("unexpected journal path %s", c.JournalPath())
	}
}
