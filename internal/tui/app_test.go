package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/sigilforge/internal/catalog"
	"github.com/kingrea/sigilforge/internal/logbook"
	"github.com/kingrea/sigilforge/internal/loadout"
	"github.com/kingrea/sigilforge/internal/session"
)

func newTestApp(t *testing.T) (*App, *session.Session) {
	t.Helper()
	cat, err := catalog.LoadBuiltin()
	if err != nil {
		t.Fatalf("load builtin catalog: %v", err)
	}
	engine, err := loadout.New(cat)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	book, err := logbook.New(filepath.Join(t.TempDir(), "journal.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	sess, err := session.New(engine, session.WithJournal(book))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	app, err := NewApp(sess, WithLogbook(book))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(app.Close)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return model.(*App), sess
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, app *App, keys ...tea.KeyMsg) *App {
	t.Helper()
	for _, k := range keys {
		model, _ := app.Update(k)
		next, ok := model.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", model)
		}
		app = next
	}
	return app
}

// equipDirect applies cmd as another front end would and feeds the
// resulting change back into the app.
func equipDirect(t *testing.T, app *App, sess *session.Session, slot int, sigil string) *App {
	t.Helper()
	if _, err := sess.Apply("test", loadout.Command{Op: loadout.OpEquip, Slot: slot, Sigil: sigil}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	model, _ := app.Update(app.waitForChange()())
	return model.(*App)
}

func TestSearchAndQuickEquip(t *testing.T) {
	app, sess := newTestApp(t)
	app = press(t, app, runes("hawk"))
	if len(app.results) != 1 || app.results[0].Sigil.Name != "Hawk Eye" {
		t.Fatalf("unexpected results %+v", app.results)
	}
	app = press(t, app, key(tea.KeyEnter))
	if app.focus != focusResults {
		t.Fatalf("enter should move focus to results, got %d", app.focus)
	}
	app = press(t, app, key(tea.KeyEnter))

	snap := sess.Snapshot()
	if snap.Slots[0].Sigil != "Hawk Eye" {
		t.Fatalf("expected Hawk Eye in slot 0, got %+v", snap.Slots[0])
	}
	if app.snapshot.Equipped != 1 {
		t.Fatalf("app snapshot not refreshed")
	}
	if !strings.Contains(app.statusMsg, "slot 1") {
		t.Fatalf("unexpected status %q", app.statusMsg)
	}
}

func TestPickUpAndDropIntoSlot(t *testing.T) {
	app, sess := newTestApp(t)
	app = press(t, app, key(tea.KeyTab))
	if app.focus != focusResults {
		t.Fatalf("tab should focus results")
	}
	app = press(t, app, runes("p"))
	if app.held == nil || app.held.Name != "Stone Heart" {
		t.Fatalf("expected Stone Heart held, got %+v", app.held)
	}
	if app.focus != focusSlots || app.slotCursor != 0 {
		t.Fatalf("expected slot focus at 0, got focus=%d cursor=%d", app.focus, app.slotCursor)
	}
	app = press(t, app, key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyEnter))
	if app.held != nil {
		t.Fatalf("drop should release the held sigil")
	}
	snap := sess.Snapshot()
	if snap.Slots[2].Sigil != "Stone Heart" || !snap.Slots[0].Empty {
		t.Fatalf("unexpected slots %+v", snap.Slots[:3])
	}
	vigor, ok := snap.Trait("Vigor")
	if !ok || vigor.Level != 2 || vigor.Effect != "+2 HP" {
		t.Fatalf("unexpected Vigor %+v", vigor)
	}
}

func TestDropOnOccupiedSlotKeepsHolding(t *testing.T) {
	app, sess := newTestApp(t)
	app = equipDirect(t, app, sess, 0, "Iron Wall")
	app = press(t, app, key(tea.KeyTab), runes("p"))
	app.slotCursor = 0
	app = press(t, app, key(tea.KeyEnter))
	if app.held == nil {
		t.Fatalf("failed drop should keep the sigil in hand")
	}
	if !strings.Contains(app.statusMsg, "taken") {
		t.Fatalf("unexpected status %q", app.statusMsg)
	}
	app = press(t, app, key(tea.KeyEsc))
	if app.held != nil {
		t.Fatalf("esc should put the sigil back")
	}
}

func TestLevelButtonsRespectBounds(t *testing.T) {
	app, sess := newTestApp(t)
	app = equipDirect(t, app, sess, 0, "Stone Heart")
	app.setFocus(focusSlots)
	app = press(t, app, runes("-"))
	if !strings.Contains(app.statusMsg, "base level") {
		t.Fatalf("expected base level notice, got %q", app.statusMsg)
	}
	app = press(t, app, runes("+"), runes("+"), runes("+"))
	if got := sess.Snapshot().Slots[0].Level; got != 4 {
		t.Fatalf("expected level 4, got %d", got)
	}
	if !strings.Contains(app.statusMsg, "max level") {
		t.Fatalf("expected max level notice, got %q", app.statusMsg)
	}
	app = press(t, app, runes("-"))
	if got := app.snapshot.Slots[0].Level; got != 3 {
		t.Fatalf("expected level 3, got %d", got)
	}
	app = press(t, app, runes("x"))
	if !sess.Snapshot().Slots[0].Empty {
		t.Fatalf("x should unequip the slot")
	}
}

func TestSubtraitPicker(t *testing.T) {
	app, sess := newTestApp(t)
	app = equipDirect(t, app, sess, 0, "Stone Heart")
	app.setFocus(focusSlots)
	app = press(t, app, runes("s"))
	if !app.picking {
		t.Fatalf("s should open the picker")
	}
	if n := len(app.picker.Items()); n != 5 {
		t.Fatalf("expected every trait as a target, got %d", n)
	}
	app = press(t, app, key(tea.KeyDown), key(tea.KeyEnter))
	if app.picking {
		t.Fatalf("enter should close the picker")
	}
	snap := sess.Snapshot()
	if snap.Slots[0].SubtraitName() != "Focus" {
		t.Fatalf("expected Focus subtrait, got %q", snap.Slots[0].SubtraitName())
	}
	if focus, ok := snap.Trait("Focus"); !ok || focus.Level != 2 {
		t.Fatalf("unexpected Focus %+v", focus)
	}

	app = press(t, app, runes("c"))
	if _, ok := sess.Snapshot().Trait("Focus"); ok {
		t.Fatalf("c should clear the subtrait")
	}

	app = press(t, app, runes("s"), key(tea.KeyEsc))
	if app.picking {
		t.Fatalf("esc should close the picker")
	}
}

func TestFeedChangesRefreshSnapshot(t *testing.T) {
	app, sess := newTestApp(t)
	if _, err := sess.Apply("bridge", loadout.Command{Op: loadout.OpQuickEquip, Sigil: "Tailwind"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	msg := app.waitForChange()()
	if _, ok := msg.(changeMsg); !ok {
		t.Fatalf("expected changeMsg, got %T", msg)
	}
	model, cmd := app.Update(msg)
	app = model.(*App)
	if cmd == nil {
		t.Fatalf("expected the feed listener to be re-armed")
	}
	if app.snapshot.Slots[0].Sigil != "Tailwind" {
		t.Fatalf("snapshot not refreshed: %+v", app.snapshot.Slots[0])
	}
	if !strings.HasPrefix(app.statusMsg, "bridge:") {
		t.Fatalf("unexpected status %q", app.statusMsg)
	}

	sess.Close()
	if _, ok := app.waitForChange()().(feedClosedMsg); !ok {
		t.Fatalf("expected feedClosedMsg after close")
	}
}

func TestViewRendersPanels(t *testing.T) {
	app, sess := newTestApp(t)
	app = equipDirect(t, app, sess, 0, "Stone Heart")
	view := app.View()
	for _, want := range []string{"SIGILFORGE", "SLOTS · 1/12", "Stone Heart", "TRAITS", "Vigor", "2 / 5", "LOG"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestCtrlCQuits(t *testing.T) {
	app, _ := newTestApp(t)
	_, cmd := app.Update(key(tea.KeyCtrlC))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
