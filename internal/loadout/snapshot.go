package loadout

import "github.com/kingrea/sigilforge/internal/catalog"

// SlotView is the render-ready state of one slot.
type SlotView struct {
	Index       int     `json:"index"`
	Empty       bool    `json:"empty"`
	Sigil       string  `json:"sigil,omitempty"`
	Trait       string  `json:"trait,omitempty"`
	Effect      string  `json:"effect,omitempty"`
	Level       int     `json:"level,omitempty"`
	BaseLevel   int     `json:"base_level,omitempty"`
	MaxLevel    int     `json:"max_level,omitempty"`
	Subtrait    *string `json:"subtrait,omitempty"`
	CanIncrease bool    `json:"can_increase,omitempty"`
	CanDecrease bool    `json:"can_decrease,omitempty"`
}

// SubtraitName returns the subtrait or "" when none is assigned.
func (v SlotView) SubtraitName() string {
	if v.Subtrait == nil {
		return ""
	}
	return *v.Subtrait
}

// TraitView is the render-ready state of one active trait.
type TraitView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Level       int    `json:"level"`
	MaxLevel    int    `json:"max_level"`
	Effect      string `json:"effect"`
	Overflow    bool   `json:"overflow,omitempty"`
}

// Snapshot is a copy of the engine state; mutating it has no effect on the
// engine.
type Snapshot struct {
	Slots    []SlotView  `json:"slots"`
	Traits   []TraitView `json:"traits"`
	Equipped int         `json:"equipped"`
}

// Trait looks up an active trait by name.
func (s Snapshot) Trait(name string) (TraitView, bool) {
	for _, t := range s.Traits {
		if t.Name == name {
			return t, true
		}
	}
	return TraitView{}, false
}

// Slot returns the view for index i.
func (s Snapshot) Slot(i int) (SlotView, bool) {
	if i < 0 || i >= len(s.Slots) {
		return SlotView{}, false
	}
	return s.Slots[i], true
}

func buildSnapshot(cat *catalog.Catalog, slots *Slots, ledger *Ledger) Snapshot {
	snap := Snapshot{
		Slots:  make([]SlotView, slots.Len()),
		Traits: make([]TraitView, 0, ledger.Len()),
	}
	for i := range snap.Slots {
		view := SlotView{Index: i, Empty: true}
		if eq, ok := slots.At(i); ok {
			view = SlotView{
				Index:       i,
				Sigil:       eq.Def.Name,
				Trait:       eq.Def.Trait,
				Effect:      eq.Def.Effect,
				Level:       eq.Level,
				BaseLevel:   eq.Def.BaseLevel,
				MaxLevel:    eq.Def.MaxLevel,
				CanIncrease: eq.Level < eq.Def.MaxLevel,
				CanDecrease: eq.Level > eq.Def.BaseLevel,
			}
			if sub, ok := eq.Subtrait(); ok {
				view.Subtrait = &sub
			}
			snap.Equipped++
		}
		snap.Slots[i] = view
	}
	for _, state := range ledger.States() {
		def, _ := cat.Trait(state.Name)
		snap.Traits = append(snap.Traits, TraitView{
			Name:        state.Name,
			Description: def.Description,
			Level:       state.Level,
			MaxLevel:    state.MaxLevel,
			Effect:      state.Effect,
			Overflow:    state.Level > state.MaxLevel,
		})
	}
	return snap
}
