// Package catalog holds the immutable sigil and trait reference data the
// loadout engine is built on. Definitions are normalized and validated once,
// when the catalog is constructed; a *Catalog that exists is always
// internally consistent (every referenced trait is present, every level
// table is well formed), so callers never re-check it per command.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// LevelEffect is one row of a trait's level table.
type LevelEffect struct {
	Level  int    `json:"level" yaml:"level"`
	Effect string `json:"effect" yaml:"effect"`
}

// Trait describes a named effect category and its level table.
type Trait struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	MaxLevel    int           `json:"max_level" yaml:"max_level"`
	Levels      []LevelEffect `json:"levels" yaml:"levels"`
}

// Sigil describes an equippable item. Subtraits optionally restricts which
// traits the sigil may be assigned as its second trait; empty means any.
type Sigil struct {
	Name      string   `json:"name" yaml:"name"`
	Trait     string   `json:"trait" yaml:"trait"`
	Effect    string   `json:"effect,omitempty" yaml:"effect,omitempty"`
	BaseLevel int      `json:"base_level" yaml:"base_level"`
	MaxLevel  int      `json:"max_level" yaml:"max_level"`
	Subtraits []string `json:"subtraits,omitempty" yaml:"subtraits,omitempty"`
}

// Catalog is a validated, read-only index of traits and sigils.
type Catalog struct {
	traits      map[string]Trait
	sigils      map[string]Sigil
	traitOrder  []string
	sigilOrder  []string
	traitSorted []string
}

// New normalizes and validates the provided definitions.
func New(traits []Trait, sigils []Sigil) (*Catalog, error) {
	c := &Catalog{
		traits: make(map[string]Trait, len(traits)),
		sigils: make(map[string]Sigil, len(sigils)),
	}
	for i, trait := range traits {
		normalized := trait.normalized()
		if err := normalized.validate(); err != nil {
			return nil, fmt.Errorf("catalog: traits[%d]: %w", i, err)
		}
		if _, exists := c.traits[normalized.Name]; exists {
			return nil, fmt.Errorf("catalog: traits[%d]: duplicate trait %q", i, normalized.Name)
		}
		c.traits[normalized.Name] = normalized
		c.traitOrder = append(c.traitOrder, normalized.Name)
	}
	for i, sigil := range sigils {
		normalized := sigil.normalized()
		if err := normalized.validate(); err != nil {
			return nil, fmt.Errorf("catalog: sigils[%d]: %w", i, err)
		}
		if _, exists := c.sigils[normalized.Name]; exists {
			return nil, fmt.Errorf("catalog: sigils[%d]: duplicate sigil %q", i, normalized.Name)
		}
		if _, ok := c.traits[normalized.Trait]; !ok {
			return nil, fmt.Errorf("catalog: sigil %q: unknown trait %q", normalized.Name, normalized.Trait)
		}
		for _, sub := range normalized.Subtraits {
			if _, ok := c.traits[sub]; !ok {
				return nil, fmt.Errorf("catalog: sigil %q: unknown subtrait %q", normalized.Name, sub)
			}
		}
		c.sigils[normalized.Name] = normalized
		c.sigilOrder = append(c.sigilOrder, normalized.Name)
	}
	c.traitSorted = append([]string(nil), c.traitOrder...)
	sort.Strings(c.traitSorted)
	return c, nil
}

// Trait returns the trait with the given name.
func (c *Catalog) Trait(name string) (Trait, bool) {
	if c == nil {
		return Trait{}, false
	}
	t, ok := c.traits[strings.TrimSpace(name)]
	return t, ok
}

// Sigil returns the sigil with the given name.
func (c *Catalog) Sigil(name string) (Sigil, bool) {
	if c == nil {
		return Sigil{}, false
	}
	s, ok := c.sigils[strings.TrimSpace(name)]
	return s, ok
}

// Traits lists traits in the order they were declared.
func (c *Catalog) Traits() []Trait {
	if c == nil {
		return nil
	}
	out := make([]Trait, 0, len(c.traitOrder))
	for _, name := range c.traitOrder {
		out = append(out, c.traits[name])
	}
	return out
}

// Sigils lists sigils in the order they were declared.
func (c *Catalog) Sigils() []Sigil {
	if c == nil {
		return nil
	}
	out := make([]Sigil, 0, len(c.sigilOrder))
	for _, name := range c.sigilOrder {
		out = append(out, c.sigils[name])
	}
	return out
}

// Len reports the number of traits and sigils.
func (c *Catalog) Len() (traits, sigils int) {
	if c == nil {
		return 0, 0
	}
	return len(c.traits), len(c.sigils)
}

// SubtraitTargets returns the trait names the sigil may take as a subtrait,
// sorted by name.
func (c *Catalog) SubtraitTargets(sigil string) []string {
	s, ok := c.Sigil(sigil)
	if !ok {
		return nil
	}
	if len(s.Subtraits) == 0 {
		return append([]string(nil), c.traitSorted...)
	}
	out := append([]string(nil), s.Subtraits...)
	sort.Strings(out)
	return out
}

// AllowsSubtrait reports whether trait is a legal subtrait for sigil.
func (c *Catalog) AllowsSubtrait(sigil, trait string) bool {
	s, ok := c.Sigil(sigil)
	if !ok {
		return false
	}
	trait = strings.TrimSpace(trait)
	if _, ok := c.traits[trait]; !ok {
		return false
	}
	if len(s.Subtraits) == 0 {
		return true
	}
	for _, allowed := range s.Subtraits {
		if allowed == trait {
			return true
		}
	}
	return false
}

func (t Trait) normalized() Trait {
	clone := Trait{
		Name:        strings.TrimSpace(t.Name),
		Description: strings.TrimSpace(t.Description),
		MaxLevel:    t.MaxLevel,
	}
	if len(t.Levels) > 0 {
		clone.Levels = make([]LevelEffect, len(t.Levels))
		for i, row := range t.Levels {
			clone.Levels[i] = LevelEffect{Level: row.Level, Effect: strings.TrimSpace(row.Effect)}
		}
		sort.SliceStable(clone.Levels, func(i, j int) bool { return clone.Levels[i].Level < clone.Levels[j].Level })
	}
	return clone
}

func (t Trait) validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if t.MaxLevel < 1 {
		return fmt.Errorf("trait %q: max_level must be >= 1", t.Name)
	}
	if len(t.Levels) == 0 {
		return fmt.Errorf("trait %q: at least one level is required", t.Name)
	}
	for i, row := range t.Levels {
		if row.Level != i+1 {
			return fmt.Errorf("trait %q: levels must run 1..N without gaps, found %d at position %d", t.Name, row.Level, i+1)
		}
		if row.Level > t.MaxLevel {
			return fmt.Errorf("trait %q: level %d exceeds max_level %d", t.Name, row.Level, t.MaxLevel)
		}
	}
	return nil
}

func (s Sigil) normalized() Sigil {
	clone := Sigil{
		Name:      strings.TrimSpace(s.Name),
		Trait:     strings.TrimSpace(s.Trait),
		Effect:    strings.TrimSpace(s.Effect),
		BaseLevel: s.BaseLevel,
		MaxLevel:  s.MaxLevel,
	}
	if len(s.Subtraits) > 0 {
		seen := make(map[string]struct{}, len(s.Subtraits))
		for _, sub := range s.Subtraits {
			trimmed := strings.TrimSpace(sub)
			if trimmed == "" {
				continue
			}
			if _, dup := seen[trimmed]; dup {
				continue
			}
			seen[trimmed] = struct{}{}
			clone.Subtraits = append(clone.Subtraits, trimmed)
		}
	}
	return clone
}

func (s Sigil) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Trait == "" {
		return fmt.Errorf("sigil %q: trait is required", s.Name)
	}
	if s.BaseLevel < 1 {
		return fmt.Errorf("sigil %q: base_level must be >= 1", s.Name)
	}
	if s.MaxLevel < s.BaseLevel {
		return fmt.Errorf("sigil %q: max_level %d is below base_level %d", s.Name, s.MaxLevel, s.BaseLevel)
	}
	return nil
}
