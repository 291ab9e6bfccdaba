package catalog

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultPattern matches every catalog fragment format below a root.
const DefaultPattern = "**/*.{yaml,yml,json,jsonc}"

//go:embed builtin
var builtinFS embed.FS

// Fragment is the on-disk unit of catalog data. A file may declare traits,
// sigils or both; fragments are merged before validation.
type Fragment struct {
	Path   string  `json:"-" yaml:"-"`
	Traits []Trait `json:"traits,omitempty" yaml:"traits,omitempty"`
	Sigils []Sigil `json:"sigils,omitempty" yaml:"sigils,omitempty"`
}

// ParseFragment decodes a fragment payload. The format is chosen from the
// file extension: YAML for .yaml/.yml, JSON with comments for .json/.jsonc.
func ParseFragment(name string, data []byte) (Fragment, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Fragment{}, fmt.Errorf("catalog: %s: payload is empty", name)
	}
	var frag Fragment
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &frag); err != nil {
			return Fragment{}, fmt.Errorf("catalog: %s: decode yaml: %w", name, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &frag); err != nil {
			return Fragment{}, fmt.Errorf("catalog: %s: decode json: %w", name, err)
		}
	default:
		return Fragment{}, fmt.Errorf("catalog: %s: unsupported file type", name)
	}
	frag.Path = name
	return frag, nil
}

// ReadFS parses every file in fsys matching one of the patterns. Results are
// ordered by path so merged catalogs are deterministic.
func ReadFS(fsys fs.FS, patterns ...string) ([]Fragment, error) {
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}
	seen := map[string]struct{}{}
	var matches []string
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(strings.TrimSpace(pattern), "./")
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("catalog: invalid pattern %q", pattern)
		}
		found, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("catalog: glob %q: %w", pattern, err)
		}
		for _, match := range found {
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}
			matches = append(matches, match)
		}
	}
	sort.Strings(matches)
	frags := make([]Fragment, 0, len(matches))
	for _, match := range matches {
		info, err := fs.Stat(fsys, match)
		if err != nil {
			return nil, fmt.Errorf("catalog: stat %s: %w", match, err)
		}
		if info.IsDir() {
			continue
		}
		data, err := fs.ReadFile(fsys, match)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", match, err)
		}
		frag, err := ParseFragment(match, data)
		if err != nil {
			return nil, err
		}
		frags = append(frags, frag)
	}
	return frags, nil
}

// Build merges fragments and validates the result. Names defined in two
// different fragments are reported with both paths.
func Build(frags ...Fragment) (*Catalog, error) {
	var traits []Trait
	var sigils []Sigil
	traitFrom := map[string]string{}
	sigilFrom := map[string]string{}
	for _, frag := range frags {
		for _, t := range frag.Traits {
			name := strings.TrimSpace(t.Name)
			if prev, ok := traitFrom[name]; ok && name != "" && prev != frag.Path {
				return nil, fmt.Errorf("catalog: trait %q defined in both %s and %s", name, prev, frag.Path)
			}
			traitFrom[name] = frag.Path
			traits = append(traits, t)
		}
		for _, s := range frag.Sigils {
			name := strings.TrimSpace(s.Name)
			if prev, ok := sigilFrom[name]; ok && name != "" && prev != frag.Path {
				return nil, fmt.Errorf("catalog: sigil %q defined in both %s and %s", name, prev, frag.Path)
			}
			sigilFrom[name] = frag.Path
			sigils = append(sigils, s)
		}
	}
	return New(traits, sigils)
}

// LoadFS reads and builds a catalog from fsys.
func LoadFS(fsys fs.FS, patterns ...string) (*Catalog, error) {
	frags, err := ReadFS(fsys, patterns...)
	if err != nil {
		return nil, err
	}
	return Build(frags...)
}

// ReadDir reads fragments below root. A missing root yields no fragments so
// projects without a catalog directory fall back to the builtin data.
func ReadDir(root string, patterns ...string) ([]Fragment, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return nil, nil
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: stat %s: %w", trimmed, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog: %s is not a directory", trimmed)
	}
	return ReadFS(os.DirFS(trimmed), patterns...)
}

// Load reads and builds a catalog from the directory at root.
func Load(root string, patterns ...string) (*Catalog, error) {
	frags, err := ReadDir(root, patterns...)
	if err != nil {
		return nil, err
	}
	return Build(frags...)
}

// BuiltinFragments returns the catalog data compiled into the binary.
func BuiltinFragments() ([]Fragment, error) {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("catalog: builtin: %w", err)
	}
	frags, err := ReadFS(sub, DefaultPattern)
	if err != nil {
		return nil, err
	}
	for i := range frags {
		frags[i].Path = "builtin:" + frags[i].Path
	}
	return frags, nil
}

// LoadBuiltin builds the catalog compiled into the binary.
func LoadBuiltin() (*Catalog, error) {
	frags, err := BuiltinFragments()
	if err != nil {
		return nil, err
	}
	return Build(frags...)
}
