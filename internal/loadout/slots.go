package loadout

import (
	"fmt"

	"github.com/kingrea/sigilforge/internal/catalog"
)

// EquippedSigil is a sigil sitting in a slot. Level stays within the
// definition's [BaseLevel, MaxLevel].
type EquippedSigil struct {
	Def      catalog.Sigil
	Level    int
	subtrait *string
}

// Subtrait returns the assigned subtrait, if any.
func (e EquippedSigil) Subtrait() (string, bool) {
	if e.subtrait == nil {
		return "", false
	}
	return *e.subtrait, true
}

// Slots is a fixed-length, ordered set of equip positions.
type Slots struct {
	entries []*EquippedSigil
}

// NewSlots returns n empty slots.
func NewSlots(n int) *Slots {
	return &Slots{entries: make([]*EquippedSigil, n)}
}

// Len returns the number of slots.
func (s *Slots) Len() int { return len(s.entries) }

// At returns a copy of the sigil in slot i.
func (s *Slots) At(i int) (EquippedSigil, bool) {
	if i < 0 || i >= len(s.entries) || s.entries[i] == nil {
		return EquippedSigil{}, false
	}
	return *s.entries[i], true
}

// Get returns a copy of the sigil in slot i, or why there is none.
func (s *Slots) Get(i int) (EquippedSigil, error) {
	current, err := s.occupied(i)
	if err != nil {
		return EquippedSigil{}, err
	}
	return *current, nil
}

// Equip places def at its base level into an empty slot.
func (s *Slots) Equip(i int, def catalog.Sigil) (EquippedSigil, error) {
	if err := s.checkRange(i); err != nil {
		return EquippedSigil{}, err
	}
	if s.entries[i] != nil {
		return EquippedSigil{}, ErrSlotOccupied
	}
	equipped := &EquippedSigil{Def: def, Level: def.BaseLevel}
	s.entries[i] = equipped
	return *equipped, nil
}

// Unequip clears slot i and returns what it held.
func (s *Slots) Unequip(i int) (EquippedSigil, error) {
	current, err := s.occupied(i)
	if err != nil {
		return EquippedSigil{}, err
	}
	s.entries[i] = nil
	return *current, nil
}

// AdjustLevel moves the level in slot i by delta. The change is rejected
// without mutation when the result would leave the sigil's bounds.
func (s *Slots) AdjustLevel(i, delta int) (int, error) {
	current, err := s.occupied(i)
	if err != nil {
		return 0, err
	}
	next := current.Level + delta
	if next < current.Def.BaseLevel || next > current.Def.MaxLevel {
		return current.Level, fmt.Errorf("%w: %d not in [%d, %d]", ErrBounds, next, current.Def.BaseLevel, current.Def.MaxLevel)
	}
	current.Level = next
	return next, nil
}

// SetSubtrait replaces the subtrait of slot i; nil clears it. The previous
// and new values are returned so the caller can reconcile contributions.
func (s *Slots) SetSubtrait(i int, trait *string) (prev, next *string, err error) {
	current, err := s.occupied(i)
	if err != nil {
		return nil, nil, err
	}
	prev = current.subtrait
	if trait != nil {
		value := *trait
		next = &value
	}
	current.subtrait = next
	return prev, next, nil
}

// FirstEmpty returns the lowest unoccupied index.
func (s *Slots) FirstEmpty() (int, bool) {
	for i, entry := range s.entries {
		if entry == nil {
			return i, true
		}
	}
	return -1, false
}

func (s *Slots) occupied(i int) (*EquippedSigil, error) {
	if err := s.checkRange(i); err != nil {
		return nil, err
	}
	if s.entries[i] == nil {
		return nil, ErrEmptySlot
	}
	return s.entries[i], nil
}

func (s *Slots) checkRange(i int) error {
	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrSlotRange, i, len(s.entries))
	}
	return nil
}
