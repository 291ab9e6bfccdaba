// internal/config/config.go
//
// This package handles configuration and the .sigilforge directory structure.
// A project that runs sigilforge gets a .sigilforge/ folder in its root holding
// the config file, extra catalog fragments and logs.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// Dir is the name of the directory we create in each project
	Dir = ".sigilforge"

	defaultSlots       = 12
	defaultSearchLimit = 20
	maxSlots           = 64
)

const defaultProjectConfigYAML = `# sigilforge project configuration
version: 1

loadout:
  # Number of equip positions.
  slots: 12

catalog:
  # Load the catalog bundled with the binary before project fragments.
  builtin: true
  # Glob patterns (doublestar syntax) relative to .sigilforge/catalog.
  paths:
    - "**/*.{yaml,yml,json,jsonc}"

search:
  # Maximum results per query; 0 lists every match.
  limit: 20

bridge:
  # HTTP command surface for external front ends.
  enabled: false
  host: 127.0.0.1
  port: 8765
`

// LoadoutConfig sizes the engine.
type LoadoutConfig struct {
	Slots int `yaml:"slots"`
}

// CatalogConfig selects which catalog fragments are loaded.
type CatalogConfig struct {
	Builtin *bool    `yaml:"builtin,omitempty"`
	Paths   []string `yaml:"paths,omitempty"`
}

// SearchConfig tunes the catalog query surface. An explicit limit of 0
// lists every match; leaving it out uses the default.
type SearchConfig struct {
	Limit *int `yaml:"limit,omitempty"`
}

// BridgeConfig captures the HTTP bridge preferences. Zero values fall back to
// the bridge package defaults.
type BridgeConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// ProjectConfig models .sigilforge/config.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version"`
	Loadout LoadoutConfig `yaml:"loadout"`
	Catalog CatalogConfig `yaml:"catalog"`
	Search  SearchConfig  `yaml:"search"`
	Bridge  BridgeConfig  `yaml:"bridge"`
}

// Config holds the runtime configuration for one project.
type Config struct {
	// ProjectDir is the directory sigilforge was pointed at
	ProjectDir string

	// StateDir is ProjectDir/.sigilforge
	StateDir string

	Project ProjectConfig
}

type envOverrides struct {
	Slots   *int     `env:"SIGILFORGE_SLOTS"`
	Catalog []string `env:"SIGILFORGE_CATALOG" envSeparator:","`
}

// InitDir creates the .sigilforge directory structure in the given project
// directory.
//
// Structure created:
// .sigilforge/
// ├── config.yaml
// ├── catalog/   <- project sigil and trait fragments
// └── logs/      <- sigilforge.log and journal.log
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	dirs := []string{
		filepath.Join(root, "catalog"),
		filepath.Join(root, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// NewConfig loads the project config (defaults when the file is missing) and
// applies environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", projectDir, err)
	}
	cfg := &Config{
		ProjectDir: abs,
		StateDir:   filepath.Join(abs, Dir),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// CatalogRoot returns the directory project catalog patterns are matched in.
func (c *Config) CatalogRoot() string {
	return filepath.Join(c.StateDir, "catalog")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// JournalPath returns the file backing the command journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

// Slots returns the configured slot count.
func (c *Config) Slots() int {
	return c.Project.Loadout.Slots
}

// UseBuiltinCatalog reports whether the bundled catalog is loaded.
func (c *Config) UseBuiltinCatalog() bool {
	return c.Project.Catalog.Builtin == nil || *c.Project.Catalog.Builtin
}

// CatalogPatterns returns the glob patterns for project fragments.
func (c *Config) CatalogPatterns() []string {
	return append([]string(nil), c.Project.Catalog.Paths...)
}

// SearchLimit returns the default number of search results.
func (c *Config) SearchLimit() int {
	if c.Project.Search.Limit == nil {
		return defaultSearchLimit
	}
	return *c.Project.Search.Limit
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	if overrides.Slots != nil {
		c.Project.Loadout.Slots = *overrides.Slots
	}
	if len(overrides.Catalog) > 0 {
		c.Project.Catalog.Paths = overrides.Catalog
	}
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: env: %w", err)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Loadout.Slots == 0 {
		pc.Loadout.Slots = defaultSlots
	}
	if pc.Search.Limit == nil {
		limit := defaultSearchLimit
		pc.Search.Limit = &limit
	}
	if len(pc.Catalog.Paths) == 0 {
		pc.Catalog.Paths = []string{"**/*.{yaml,yml,json,jsonc}"}
	}
}

func (pc *ProjectConfig) normalize() {
	paths := pc.Catalog.Paths[:0]
	for _, p := range pc.Catalog.Paths {
		p = filepath.ToSlash(strings.TrimSpace(p))
		if p != "" && !contains(paths, p) {
			paths = append(paths, p)
		}
	}
	pc.Catalog.Paths = paths
	pc.Bridge.Host = strings.TrimSpace(pc.Bridge.Host)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Loadout.Slots < 1 || pc.Loadout.Slots > maxSlots {
		return fmt.Errorf("loadout.slots must be between 1 and %d, got %d", maxSlots, pc.Loadout.Slots)
	}
	if pc.Search.Limit != nil && *pc.Search.Limit < 0 {
		return fmt.Errorf("search.limit must be >= 0")
	}
	for i, p := range pc.Catalog.Paths {
		if strings.HasPrefix(p, "/") || strings.Contains(p, "../") {
			return fmt.Errorf("catalog.paths[%d]: %q must stay inside the catalog directory", i, p)
		}
	}
	if pc.Bridge.Port < 0 || pc.Bridge.Port > 65535 {
		return fmt.Errorf("bridge.port must be between 0 and 65535")
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
