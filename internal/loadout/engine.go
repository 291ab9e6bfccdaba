package loadout

import (
	"fmt"
	"strings"

	"github.com/kingrea/sigilforge/internal/catalog"
)

// DefaultSlots matches the number of equip positions in the game.
const DefaultSlots = 12

// Engine owns the slots and the trait ledger and keeps them in lockstep.
// It is not safe for concurrent use; callers with several command sources
// must serialize them.
type Engine struct {
	catalog *catalog.Catalog
	slots   *Slots
	ledger  *Ledger
	size    int
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithSlots sets the number of slots. Values below one are ignored.
func WithSlots(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.size = n
		}
	}
}

// New creates an engine over a validated catalog.
func New(cat *catalog.Catalog, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("loadout: catalog is required")
	}
	e := &Engine{catalog: cat, size: DefaultSlots}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.slots = NewSlots(e.size)
	e.ledger = NewLedger(cat)
	return e, nil
}

// Catalog returns the reference data the engine was built with.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Equip places the named sigil at its base level into an empty slot.
func (e *Engine) Equip(slot int, sigil string) (Snapshot, error) {
	def, ok := e.catalog.Sigil(sigil)
	if !ok {
		return Snapshot{}, failure(OpEquip, slot, sigil, ErrUnknownSigil)
	}
	if err := e.equip(slot, def); err != nil {
		return Snapshot{}, failure(OpEquip, slot, def.Name, err)
	}
	return e.Snapshot(), nil
}

// QuickEquip places the named sigil into the first empty slot and reports
// which slot it used.
func (e *Engine) QuickEquip(sigil string) (int, Snapshot, error) {
	def, ok := e.catalog.Sigil(sigil)
	if !ok {
		return -1, Snapshot{}, failure(OpQuickEquip, -1, sigil, ErrUnknownSigil)
	}
	slot, ok := e.slots.FirstEmpty()
	if !ok {
		return -1, Snapshot{}, failure(OpQuickEquip, -1, def.Name, ErrNoEmptySlot)
	}
	if err := e.equip(slot, def); err != nil {
		return -1, Snapshot{}, failure(OpQuickEquip, slot, def.Name, err)
	}
	return slot, e.Snapshot(), nil
}

// Unequip empties a slot and withdraws everything its sigil contributed.
func (e *Engine) Unequip(slot int) (Snapshot, error) {
	removed, err := e.slots.Unequip(slot)
	if err != nil {
		return Snapshot{}, failure(OpUnequip, slot, "", err)
	}
	if err := e.apply(contributions(removed, -removed.Level)...); err != nil {
		e.slots.entries[slot] = &removed
		return Snapshot{}, failure(OpUnequip, slot, removed.Def.Name, err)
	}
	return e.Snapshot(), nil
}

// AdjustLevel moves a sigil's level by delta and carries the same delta to
// its primary trait and, when assigned, its subtrait.
func (e *Engine) AdjustLevel(slot, delta int) (Snapshot, error) {
	if _, err := e.slots.AdjustLevel(slot, delta); err != nil {
		return Snapshot{}, &CommandError{Op: OpAdjustLevel, Slot: slot, Delta: delta, Err: err}
	}
	current, _ := e.slots.Get(slot)
	if err := e.apply(contributions(current, delta)...); err != nil {
		_, _ = e.slots.AdjustLevel(slot, -delta)
		return Snapshot{}, &CommandError{Op: OpAdjustLevel, Slot: slot, Name: current.Def.Name, Delta: delta, Err: err}
	}
	return e.Snapshot(), nil
}

// SetSubtrait assigns trait as the second trait of the sigil in slot,
// moving the sigil's current level off any previous subtrait.
func (e *Engine) SetSubtrait(slot int, trait string) (Snapshot, error) {
	return e.assignSubtrait(OpSetSubtrait, slot, &trait)
}

// ClearSubtrait removes the subtrait of the sigil in slot, if any.
func (e *Engine) ClearSubtrait(slot int) (Snapshot, error) {
	return e.assignSubtrait(OpClearSubtrait, slot, nil)
}

// Snapshot returns an immutable view of slots and active traits.
func (e *Engine) Snapshot() Snapshot {
	return buildSnapshot(e.catalog, e.slots, e.ledger)
}

func (e *Engine) equip(slot int, def catalog.Sigil) error {
	equipped, err := e.slots.Equip(slot, def)
	if err != nil {
		return err
	}
	if err := e.apply(contributions(equipped, equipped.Level)...); err != nil {
		_, _ = e.slots.Unequip(slot)
		return err
	}
	return nil
}

func (e *Engine) assignSubtrait(op Op, slot int, trait *string) (Snapshot, error) {
	current, err := e.slots.Get(slot)
	if err != nil {
		return Snapshot{}, failure(op, slot, "", err)
	}
	if trait != nil {
		name := strings.TrimSpace(*trait)
		def, ok := e.catalog.Trait(name)
		if !ok {
			return Snapshot{}, failure(op, slot, name, ErrUnknownTrait)
		}
		if !e.catalog.AllowsSubtrait(current.Def.Name, def.Name) {
			return Snapshot{}, failure(op, slot, def.Name, ErrSubtraitNotAllowed)
		}
		trait = &def.Name
	}
	old, hasOld := current.Subtrait()
	if trait == nil && !hasOld {
		return e.Snapshot(), nil
	}
	if trait != nil && hasOld && old == *trait {
		return e.Snapshot(), nil
	}
	var deltas []contribution
	if hasOld {
		deltas = append(deltas, contribution{trait: old, amount: -current.Level})
	}
	if trait != nil {
		deltas = append(deltas, contribution{trait: *trait, amount: current.Level})
	}
	prev, _, err := e.slots.SetSubtrait(slot, trait)
	if err != nil {
		return Snapshot{}, failure(op, slot, "", err)
	}
	if err := e.apply(deltas...); err != nil {
		_, _, _ = e.slots.SetSubtrait(slot, prev)
		return Snapshot{}, failure(op, slot, current.Def.Name, err)
	}
	return e.Snapshot(), nil
}

type contribution struct {
	trait  string
	amount int
}

// contributions lists the ledger deltas a sigil produces when its level
// changes by amount. A subtrait equal to the primary trait counts twice.
func contributions(s EquippedSigil, amount int) []contribution {
	out := []contribution{{trait: s.Def.Trait, amount: amount}}
	if sub, ok := s.Subtrait(); ok {
		out = append(out, contribution{trait: sub, amount: amount})
	}
	return out
}

// apply posts deltas to the ledger, undoing the ones already posted if a
// later one fails.
func (e *Engine) apply(deltas ...contribution) error {
	for i, d := range deltas {
		if err := e.post(d.trait, d.amount); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = e.post(deltas[j].trait, -deltas[j].amount)
			}
			return err
		}
	}
	return nil
}

func (e *Engine) post(trait string, amount int) error {
	switch {
	case amount > 0:
		return e.ledger.Add(trait, amount)
	case amount < 0:
		return e.ledger.Remove(trait, -amount)
	default:
		return nil
	}
}
