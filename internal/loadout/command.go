package loadout

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Op names an engine command.
type Op string

const (
	OpEquip         Op = "equip"
	OpQuickEquip    Op = "quick_equip"
	OpUnequip       Op = "unequip"
	OpAdjustLevel   Op = "adjust_level"
	OpSetSubtrait   Op = "set_subtrait"
	OpClearSubtrait Op = "clear_subtrait"
)

// Command is the serialisable form of an engine call, as issued by front
// ends. Fields not used by an op are ignored.
type Command struct {
	Op    Op     `json:"op"`
	Slot  int    `json:"slot"`
	Sigil string `json:"sigil,omitempty"`
	Trait string `json:"trait,omitempty"`
	Delta int    `json:"delta,omitempty"`

	// slotMissing is set when a decoded payload carried no slot.
	slotMissing bool
}

// wireCommand tells an absent slot apart from slot 0.
type wireCommand struct {
	Op    Op     `json:"op"`
	Slot  *int   `json:"slot"`
	Sigil string `json:"sigil"`
	Trait string `json:"trait"`
	Delta int    `json:"delta"`
}

// UnmarshalJSON decodes a command payload, remembering whether slot was sent.
func (c *Command) UnmarshalJSON(data []byte) error {
	var raw wireCommand
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Command{Op: raw.Op, Sigil: raw.Sigil, Trait: raw.Trait, Delta: raw.Delta}
	if raw.Slot == nil {
		c.slotMissing = true
	} else {
		c.Slot = *raw.Slot
	}
	return nil
}

// Validate checks that cmd carries the fields its op needs. It does not
// consult engine state; range and occupancy are checked when applied.
func (c Command) Validate() error {
	var needSlot, needSigil, needTrait, needDelta bool
	switch c.Op {
	case OpEquip:
		needSlot, needSigil = true, true
	case OpQuickEquip:
		needSigil = true
	case OpUnequip, OpClearSubtrait:
		needSlot = true
	case OpAdjustLevel:
		needSlot, needDelta = true, true
	case OpSetSubtrait:
		needSlot, needTrait = true, true
	default:
		return failure(c.Op, -1, "", ErrUnknownCommand)
	}
	switch {
	case needSlot && c.slotMissing:
		return failure(c.Op, -1, "", fmt.Errorf("%w: slot is required", ErrInvalidCommand))
	case needSigil && c.Sigil == "":
		return failure(c.Op, -1, "", fmt.Errorf("%w: sigil is required", ErrInvalidCommand))
	case needTrait && c.Trait == "":
		return failure(c.Op, c.Slot, "", fmt.Errorf("%w: trait is required", ErrInvalidCommand))
	case needDelta && c.Delta == 0:
		return failure(c.Op, c.Slot, "", fmt.Errorf("%w: delta must be non-zero", ErrInvalidCommand))
	}
	return nil
}

// Normalize trims text fields and lower-cases the op.
func (c *Command) Normalize() {
	c.Op = Op(strings.ToLower(strings.TrimSpace(string(c.Op))))
	c.Sigil = strings.TrimSpace(c.Sigil)
	c.Trait = strings.TrimSpace(c.Trait)
}

// String renders the command for journals.
func (c Command) String() string {
	switch c.Op {
	case OpEquip:
		return fmt.Sprintf("equip %q → slot %d", c.Sigil, c.Slot)
	case OpQuickEquip:
		return fmt.Sprintf("quick equip %q", c.Sigil)
	case OpUnequip:
		return fmt.Sprintf("unequip slot %d", c.Slot)
	case OpAdjustLevel:
		return fmt.Sprintf("adjust slot %d by %+d", c.Slot, c.Delta)
	case OpSetSubtrait:
		return fmt.Sprintf("set slot %d subtrait %q", c.Slot, c.Trait)
	case OpClearSubtrait:
		return fmt.Sprintf("clear slot %d subtrait", c.Slot)
	default:
		return fmt.Sprintf("%s slot %d", c.Op, c.Slot)
	}
}

// Result reports the outcome of an applied command. Slot is the slot the
// command acted on, which for quick equip is only known afterwards.
type Result struct {
	Op       Op       `json:"op"`
	Slot     int      `json:"slot"`
	Snapshot Snapshot `json:"snapshot"`
}

// Apply validates cmd and dispatches it to the matching engine method.
func (e *Engine) Apply(cmd Command) (Result, error) {
	cmd.Normalize()
	if err := cmd.Validate(); err != nil {
		return Result{}, err
	}
	var (
		snap Snapshot
		err  error
		slot = cmd.Slot
	)
	switch cmd.Op {
	case OpEquip:
		snap, err = e.Equip(cmd.Slot, cmd.Sigil)
	case OpQuickEquip:
		slot, snap, err = e.QuickEquip(cmd.Sigil)
	case OpUnequip:
		snap, err = e.Unequip(cmd.Slot)
	case OpAdjustLevel:
		snap, err = e.AdjustLevel(cmd.Slot, cmd.Delta)
	case OpSetSubtrait:
		snap, err = e.SetSubtrait(cmd.Slot, cmd.Trait)
	case OpClearSubtrait:
		snap, err = e.ClearSubtrait(cmd.Slot)
	default:
		return Result{}, failure(cmd.Op, -1, "", ErrUnknownCommand)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Op: cmd.Op, Slot: slot, Snapshot: snap}, nil
}
