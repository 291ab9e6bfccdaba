package loadout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/sigilforge/internal/catalog"
)

func TestResolveEffect(t *testing.T) {
	trait := catalog.Trait{Name: "Vigor", MaxLevel: 5, Levels: levels("a", "b", "c")}
	cases := []struct {
		level int
		want  string
	}{
		{level: -1, want: ""},
		{level: 0, want: ""},
		{level: 1, want: "a"},
		{level: 2, want: "b"},
		{level: 3, want: "c"},
		{level: 9, want: "c"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ResolveEffect(trait, tc.level), "level %d", tc.level)
	}
	assert.Empty(t, ResolveEffect(catalog.Trait{Name: "Empty"}, 1))
}

func TestLedgerAddRemove(t *testing.T) {
	ledger := NewLedger(testCatalog(t))

	require.NoError(t, ledger.Add("Vigor", 2))
	require.NoError(t, ledger.Add("Vigor", 4))
	state, ok := ledger.Get("Vigor")
	require.True(t, ok)
	assert.Equal(t, 6, state.Level)
	assert.Equal(t, 5, state.MaxLevel)
	assert.Equal(t, "+5 HP", state.Effect)

	require.NoError(t, ledger.Remove("Vigor", 3))
	state, _ = ledger.Get("Vigor")
	assert.Equal(t, "+3 HP", state.Effect)

	require.NoError(t, ledger.Remove("Vigor", 3))
	_, ok = ledger.Get("Vigor")
	assert.False(t, ok, "zero aggregate drops the entry")
	assert.Zero(t, ledger.Len())
}

func TestLedgerRejectsUnknownAndInactive(t *testing.T) {
	ledger := NewLedger(testCatalog(t))

	require.ErrorIs(t, ledger.Add("Nope", 1), ErrUnknownTrait)
	require.ErrorIs(t, ledger.Remove("Nope", 1), ErrUnknownTrait)
	require.ErrorIs(t, ledger.Remove("Vigor", 1), ErrUnknownTrait)

	require.NoError(t, ledger.Add("Focus", 0))
	assert.Zero(t, ledger.Len(), "zero add does not activate a trait")

	err := ledger.Add("Vigor", -3)
	require.ErrorIs(t, err, ErrUnknownTrait)
	assert.Contains(t, err.Error(), "not active")
	_, active := ledger.Get("Vigor")
	assert.False(t, active)
}

func TestLedgerStatesSortedByName(t *testing.T) {
	ledger := NewLedger(testCatalog(t))
	require.NoError(t, ledger.Add("Vigor", 1))
	require.NoError(t, ledger.Add("Clarity", 1))
	require.NoError(t, ledger.Add("Focus", 1))

	var names []string
	for _, state := range ledger.States() {
		names = append(names, state.Name)
	}
	assert.Equal(t, []string{"Clarity", "Focus", "Vigor"}, names)
}

func TestSlotsBounds(t *testing.T) {
	cat := testCatalog(t)
	def, _ := cat.Sigil("Stone Heart")
	slots := NewSlots(2)

	_, err := slots.Equip(0, def)
	require.NoError(t, err)
	level, err := slots.AdjustLevel(0, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, level)

	level, err = slots.AdjustLevel(0, 1)
	require.ErrorIs(t, err, ErrBounds)
	assert.Equal(t, 4, level)

	idx, ok := slots.FirstEmpty()
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, err = slots.Equip(1, def)
	require.NoError(t, err)
	_, ok = slots.FirstEmpty()
	assert.False(t, ok)

	removed, err := slots.Unequip(0)
	require.NoError(t, err)
	assert.Equal(t, 4, removed.Level)
	_, ok = slots.At(0)
	assert.False(t, ok)
}
