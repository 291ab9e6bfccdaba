package loadout

import "github.com/kingrea/sigilforge/internal/catalog"

// ResolveEffect returns the effect text active for a trait at level.
// Levels at or past the end of the table clamp to its last entry. Level must
// be positive; zero or negative levels resolve to "".
func ResolveEffect(t catalog.Trait, level int) string {
	n := len(t.Levels)
	if level <= 0 || n == 0 {
		return ""
	}
	if level >= n {
		return t.Levels[n-1].Effect
	}
	return t.Levels[level-1].Effect
}
