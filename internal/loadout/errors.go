package loadout

import (
	"errors"
	"fmt"
	"strings"
)

// Command failures. Every one of them leaves the engine unchanged.
var (
	ErrSlotOccupied       = errors.New("slot is occupied")
	ErrEmptySlot          = errors.New("slot is empty")
	ErrBounds             = errors.New("level out of bounds")
	ErrNoEmptySlot        = errors.New("no empty slot")
	ErrUnknownTrait       = errors.New("unknown trait")
	ErrUnknownSigil       = errors.New("unknown sigil")
	ErrSlotRange          = errors.New("slot index out of range")
	ErrSubtraitNotAllowed = errors.New("subtrait not allowed for sigil")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrInvalidCommand     = errors.New("invalid command")
)

// CommandError carries the context of a rejected command. Match the cause
// with errors.Is against the sentinels above.
type CommandError struct {
	Op    Op
	Slot  int
	Name  string
	Delta int
	Err   error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	b.WriteString("loadout: ")
	b.WriteString(string(e.Op))
	if e.Slot >= 0 {
		fmt.Fprintf(&b, " slot %d", e.Slot)
	}
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Delta != 0 {
		fmt.Fprintf(&b, " (delta %+d)", e.Delta)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *CommandError) Unwrap() error { return e.Err }

// Kind returns a stable identifier for err suitable for wire payloads.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSlotOccupied):
		return "slot_occupied"
	case errors.Is(err, ErrEmptySlot):
		return "empty_slot"
	case errors.Is(err, ErrBounds):
		return "bounds"
	case errors.Is(err, ErrNoEmptySlot):
		return "no_empty_slot"
	case errors.Is(err, ErrUnknownTrait):
		return "unknown_trait"
	case errors.Is(err, ErrUnknownSigil):
		return "unknown_sigil"
	case errors.Is(err, ErrSlotRange):
		return "slot_range"
	case errors.Is(err, ErrSubtraitNotAllowed):
		return "subtrait_not_allowed"
	case errors.Is(err, ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, ErrInvalidCommand):
		return "invalid_command"
	default:
		return "internal"
	}
}

func failure(op Op, slot int, name string, err error) error {
	return &CommandError{Op: op, Slot: slot, Name: name, Err: err}
}
