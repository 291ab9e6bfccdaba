package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

const sampleTraitsYAML = `traits:
  - name: Vigor
    description: Raises maximum HP.
    max_level: 3
    levels:
      - { level: 1, effect: "+1 HP" }
      - { level: 2, effect: "+2 HP" }
      - { level: 3, effect: "+3 HP" }
`

const sampleSigilsJSONC = `{
  // authored by hand
  "sigils": [
    {"name": "Stone Heart", "trait": "Vigor", "base_level": 2, "max_level": 3},
  ],
}`

func TestParseFragmentFormats(t *testing.T) {
	frag, err := ParseFragment("traits.yaml", []byte(sampleTraitsYAML))
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if len(frag.Traits) != 1 || frag.Traits[0].Name != "Vigor" {
		t.Fatalf("unexpected traits: %+v", frag.Traits)
	}
	frag, err = ParseFragment("sigils.jsonc", []byte(sampleSigilsJSONC))
	if err != nil {
		t.Fatalf("parse jsonc: %v", err)
	}
	if len(frag.Sigils) != 1 || frag.Sigils[0].BaseLevel != 2 {
		t.Fatalf("unexpected sigils: %+v", frag.Sigils)
	}
}

func TestParseFragmentErrors(t *testing.T) {
	if _, err := ParseFragment("empty.yaml", []byte("  ")); err == nil {
		t.Fatalf("expected empty payload to fail")
	}
	if _, err := ParseFragment("notes.txt", []byte("traits: []")); err == nil {
		t.Fatalf("expected unsupported extension to fail")
	}
}

func TestLoadFSGlobsNestedFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"traits/core.yaml":   {Data: []byte(sampleTraitsYAML)},
		"sigils/hearts.json": {Data: []byte(sampleSigilsJSONC)},
		"README.md":          {Data: []byte("# not catalog data")},
	}
	cat, err := LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := cat.Sigil("Stone Heart"); !ok {
		t.Fatalf("expected sigil from nested json file")
	}
	if _, ok := cat.Trait("Vigor"); !ok {
		t.Fatalf("expected trait from nested yaml file")
	}
}

func TestBuildReportsCrossFileDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte(sampleTraitsYAML)},
		"b.yaml": {Data: []byte(sampleTraitsYAML)},
	}
	_, err := LoadFS(fsys)
	if err == nil {
		t.Fatalf("expected duplicate trait error")
	}
	if !strings.Contains(err.Error(), "a.yaml") || !strings.Contains(err.Error(), "b.yaml") {
		t.Fatalf("expected both paths in error, got %v", err)
	}
}

func TestLoadFSInvalidPattern(t *testing.T) {
	if _, err := LoadFS(fstest.MapFS{}, "[unterminated"); err == nil {
		t.Fatalf("expected invalid pattern error")
	}
}

func TestReadDirMissingRoot(t *testing.T) {
	frags, err := ReadDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing root should not error: %v", err)
	}
	if frags != nil {
		t.Fatalf("expected no fragments, got %v", frags)
	}
}

func TestLoadBuiltin(t *testing.T) {
	cat, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("builtin catalog must validate: %v", err)
	}
	sigil, ok := cat.Sigil("Stone Heart")
	if !ok {
		t.Fatalf("builtin catalog missing Stone Heart")
	}
	if sigil.Trait != "Vigor" || sigil.BaseLevel != 2 || sigil.MaxLevel != 4 {
		t.Fatalf("unexpected Stone Heart definition: %+v", sigil)
	}
	frags, err := BuiltinFragments()
	if err != nil {
		t.Fatalf("builtin fragments: %v", err)
	}
	for _, frag := range frags {
		if !strings.HasPrefix(frag.Path, "builtin:") {
			t.Fatalf("expected builtin prefix, got %s", frag.Path)
		}
	}
}

func TestWatchSignalsChanges(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, root, func() { changed <- struct{}{} }, WithDebounce(20*time.Millisecond))
	}()
	// Give the watcher a moment to register the root.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "traits.yaml"), []byte(sampleTraitsYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatalf("expected change notification")
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("watch did not stop after cancel")
	}
}

func TestWatchRequiresHandler(t *testing.T) {
	if err := Watch(context.Background(), t.TempDir(), nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
}
