package loadout

import (
	"fmt"
	"sort"

	"github.com/kingrea/sigilforge/internal/catalog"
)

// TraitState is the aggregate of every contribution to one trait. Level is
// kept unclamped so removing contributors converges back to the right effect.
type TraitState struct {
	Name     string
	Level    int
	MaxLevel int
	Effect   string
}

// Ledger maps trait names to their aggregate state. A name is present only
// while its aggregate level is positive.
type Ledger struct {
	catalog *catalog.Catalog
	traits  map[string]*TraitState
}

// NewLedger returns an empty ledger resolving definitions from cat.
func NewLedger(cat *catalog.Catalog) *Ledger {
	return &Ledger{catalog: cat, traits: map[string]*TraitState{}}
}

// Add increases the aggregate for name by amount, creating the entry when
// needed. Negative amounts are allowed on active traits; an aggregate that
// reaches zero drops the entry. Adding zero to an inactive trait is a no-op.
func (l *Ledger) Add(name string, amount int) error {
	def, ok := l.catalog.Trait(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownTrait, name)
	}
	state, exists := l.traits[def.Name]
	if !exists {
		if amount < 0 {
			return fmt.Errorf("%w %q: not active", ErrUnknownTrait, name)
		}
		if amount == 0 {
			return nil
		}
		state = &TraitState{Name: def.Name, MaxLevel: def.MaxLevel}
		l.traits[def.Name] = state
	}
	state.Level += amount
	l.settle(def, state)
	return nil
}

// Remove decreases the aggregate for name by amount. Removing from a trait
// that is not active is an error.
func (l *Ledger) Remove(name string, amount int) error {
	def, ok := l.catalog.Trait(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownTrait, name)
	}
	state, exists := l.traits[def.Name]
	if !exists {
		return fmt.Errorf("%w %q: not active", ErrUnknownTrait, name)
	}
	state.Level -= amount
	l.settle(def, state)
	return nil
}

// Get returns a copy of the state for name.
func (l *Ledger) Get(name string) (TraitState, bool) {
	state, ok := l.traits[name]
	if !ok {
		return TraitState{}, false
	}
	return *state, true
}

// Len reports how many traits are active.
func (l *Ledger) Len() int { return len(l.traits) }

// States returns copies of every active trait sorted by name.
func (l *Ledger) States() []TraitState {
	out := make([]TraitState, 0, len(l.traits))
	for _, state := range l.traits {
		out = append(out, *state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (l *Ledger) settle(def catalog.Trait, state *TraitState) {
	if state.Level <= 0 {
		delete(l.traits, def.Name)
		return
	}
	state.Effect = ResolveEffect(def, min(state.Level, def.MaxLevel))
}
