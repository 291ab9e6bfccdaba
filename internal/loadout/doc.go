// Package loadout is the loadout aggregation engine. It equips sigils into a
// fixed number of slots, accumulates their levels into per-trait aggregates,
// and resolves each active trait's effect text from its level table.
//
// The engine is built from three parts that are only ever mutated through
// it:
//
//   - Slots holds at most one EquippedSigil per position and enforces the
//     sigil's level bounds.
//   - Ledger keeps one TraitState per active trait; a trait is active while
//     its aggregate is positive.
//   - ResolveEffect maps an aggregate level to the table entry, clamped to
//     the trait's max level and to the table length.
//
// Every command either applies completely and returns a fresh Snapshot or
// returns a *CommandError and leaves the engine untouched.
package loadout
