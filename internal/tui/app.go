// internal/tui/app.go
//
// This is the interactive sigil builder. It uses bubbletea, which follows
// The Elm Architecture:
//
// 1. Model: the App struct below (engine snapshot plus UI state)
// 2. Update: turns key presses and feed changes into new state
// 3. View: renders the slots, search and trait panels (view.go)
//
// Every gesture becomes a loadout.Command applied through the shared
// session, so commands arriving over the HTTP bridge show up here too.

package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/sigilforge/internal/catalog"
	"github.com/kingrea/sigilforge/internal/logbook"
	"github.com/kingrea/sigilforge/internal/loadout"
	"github.com/kingrea/sigilforge/internal/search"
	"github.com/kingrea/sigilforge/internal/session"
)

const sourceTUI = "tui"

// focus names the panel receiving key presses.
type focus int

const (
	focusSearch  focus = iota // text box above the results
	focusResults              // search results list
	focusSlots                // equip slots
)

// changeMsg carries a change published on the session feed.
type changeMsg struct {
	change session.Change
}

// feedClosedMsg reports that the session feed ended.
type feedClosedMsg struct{}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook shows the tail of lb in the log panel.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithSearchLimit caps the number of search results shown.
func WithSearchLimit(n int) AppOption {
	return func(a *App) {
		if n >= 0 {
			a.searchLimit = n
		}
	}
}

// WithBridgeURL shows the address of a bridge running in the same process.
func WithBridgeURL(url string) AppOption {
	return func(a *App) {
		a.bridgeURL = strings.TrimSpace(url)
	}
}

// App is the root bubbletea model.
type App struct {
	session *session.Session
	index   *search.Index
	logbook *logbook.Logbook
	feed    session.Subscription

	snapshot loadout.Snapshot

	// UI components
	focus        focus
	searchInput  textinput.Model
	results      []search.Result
	resultCursor int
	slotCursor   int
	searchLimit  int

	// held is the sigil picked up from the results, waiting to be dropped
	// into a slot.
	held *catalog.Sigil

	picker  list.Model
	picking bool

	bridgeURL string
	statusMsg string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// traitItem implements list.Item for the subtrait picker.
type traitItem struct {
	name string
	desc string
}

func (i traitItem) Title() string       { return i.name }
func (i traitItem) Description() string { return i.desc }
func (i traitItem) FilterValue() string { return i.name }

// NewApp creates the builder over sess and subscribes to its feed.
func NewApp(sess *session.Session, opts ...AppOption) (*App, error) {
	if sess == nil {
		return nil, fmt.Errorf("tui: session is required")
	}
	input := textinput.New()
	input.Placeholder = "Search sigils by name or trait"
	input.Prompt = "⌕ "
	input.CharLimit = 64
	input.Focus()

	picker := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	picker.Title = "Choose Subtrait"
	picker.SetShowStatusBar(false)
	picker.SetShowHelp(false)

	app := &App{
		session:     sess,
		index:       search.New(sess.Catalog()),
		snapshot:    sess.Snapshot(),
		focus:       focusSearch,
		searchInput: input,
		picker:      picker,
		searchLimit: 20,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.refreshResults()
	app.feed = sess.Subscribe()
	app.logInfo("Builder opened · %d slots · %d sigils", len(app.snapshot.Slots), app.index.Len())
	return app, nil
}

// Close releases the feed subscription.
func (a *App) Close() {
	a.feed.Close()
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.waitForChange())
}

func (a *App) waitForChange() tea.Cmd {
	changes := a.feed.Changes
	return func() tea.Msg {
		change, ok := <-changes
		if !ok {
			return feedClosedMsg{}
		}
		return changeMsg{change: change}
	}
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.picker.SetSize(max(20, msg.Width/3), max(8, msg.Height-12))
		return a, nil

	case changeMsg:
		// The feed may lag behind local commands; the session is authoritative.
		a.snapshot = a.session.Snapshot()
		if msg.change.Source != sourceTUI {
			a.statusMsg = fmt.Sprintf("%s: %s", msg.change.Source, msg.change.Command)
		}
		a.clampSlotCursor()
		return a, a.waitForChange()

	case feedClosedMsg:
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.picking {
			return a.updatePicker(msg)
		}
		if model, cmd, handled := a.handleKey(msg); handled {
			return model, cmd
		}
	}

	if a.picking {
		var cmd tea.Cmd
		a.picker, cmd = a.picker.Update(msg)
		return a, cmd
	}
	if a.focus == focusSearch {
		return a, a.updateSearchInput(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	key := msg.String()
	switch key {
	case "tab":
		a.setFocus((a.focus + 1) % 3)
		return a, nil, true
	case "shift+tab":
		a.setFocus((a.focus + 2) % 3)
		return a, nil, true
	case "esc":
		switch {
		case a.held != nil:
			a.statusMsg = fmt.Sprintf("Put %s back", a.held.Name)
			a.held = nil
		case a.focus == focusSearch && a.searchInput.Value() != "":
			a.searchInput.SetValue("")
			a.refreshResults()
		default:
			a.setFocus(focusSearch)
		}
		return a, nil, true
	}

	switch a.focus {
	case focusSearch:
		switch key {
		case "enter", "down":
			if len(a.results) > 0 {
				a.setFocus(focusResults)
			}
			return a, nil, true
		}
		return a, nil, false
	case focusResults:
		return a.handleResultsKey(key)
	case focusSlots:
		return a.handleSlotsKey(key)
	}
	return a, nil, false
}

func (a *App) handleResultsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "up", "k":
		if a.resultCursor > 0 {
			a.resultCursor--
		} else {
			a.setFocus(focusSearch)
		}
	case "down", "j":
		if a.resultCursor < len(a.results)-1 {
			a.resultCursor++
		}
	case "/":
		a.setFocus(focusSearch)
	case "enter":
		sigil, ok := a.selectedResult()
		if !ok {
			return a, nil, true
		}
		change, err := a.apply(loadout.Command{Op: loadout.OpQuickEquip, Sigil: sigil.Name})
		if err == nil {
			a.slotCursor = change.Slot
			a.statusMsg = fmt.Sprintf("Equipped %s in slot %d", sigil.Name, change.Slot+1)
		}
	case "p", " ":
		sigil, ok := a.selectedResult()
		if !ok {
			return a, nil, true
		}
		a.held = &sigil
		a.setFocus(focusSlots)
		if first, ok := a.firstEmptySlot(); ok {
			a.slotCursor = first
		}
		a.statusMsg = fmt.Sprintf("Holding %s · choose a slot and press enter", sigil.Name)
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a *App) handleSlotsKey(key string) (tea.Model, tea.Cmd, bool) {
	slot, hasSlot := a.snapshot.Slot(a.slotCursor)
	switch key {
	case "up", "k":
		if a.slotCursor > 0 {
			a.slotCursor--
		}
	case "down", "j":
		if a.slotCursor < len(a.snapshot.Slots)-1 {
			a.slotCursor++
		}
	case "enter":
		if a.held == nil {
			if hasSlot && !slot.Empty {
				a.statusMsg = fmt.Sprintf("%s · %s L%d", slot.Sigil, slot.Trait, slot.Level)
			}
			return a, nil, true
		}
		held := *a.held
		if _, err := a.apply(loadout.Command{Op: loadout.OpEquip, Slot: a.slotCursor, Sigil: held.Name}); err == nil {
			a.held = nil
			a.statusMsg = fmt.Sprintf("Equipped %s in slot %d", held.Name, a.slotCursor+1)
		}
	case "+", "=":
		if !hasSlot || slot.Empty {
			return a, nil, true
		}
		if !slot.CanIncrease {
			a.statusMsg = fmt.Sprintf("%s is at its max level %d", slot.Sigil, slot.MaxLevel)
			return a, nil, true
		}
		a.apply(loadout.Command{Op: loadout.OpAdjustLevel, Slot: a.slotCursor, Delta: 1})
	case "-", "_":
		if !hasSlot || slot.Empty {
			return a, nil, true
		}
		if !slot.CanDecrease {
			a.statusMsg = fmt.Sprintf("%s is at its base level %d", slot.Sigil, slot.BaseLevel)
			return a, nil, true
		}
		a.apply(loadout.Command{Op: loadout.OpAdjustLevel, Slot: a.slotCursor, Delta: -1})
	case "x", "delete", "backspace":
		if !hasSlot || slot.Empty {
			return a, nil, true
		}
		if _, err := a.apply(loadout.Command{Op: loadout.OpUnequip, Slot: a.slotCursor}); err == nil {
			a.statusMsg = fmt.Sprintf("Removed %s from slot %d", slot.Sigil, a.slotCursor+1)
		}
	case "s":
		if !hasSlot || slot.Empty {
			a.statusMsg = "Select an equipped sigil first"
			return a, nil, true
		}
		a.openPicker(slot)
	case "c":
		if !hasSlot || slot.Empty || slot.Subtrait == nil {
			return a, nil, true
		}
		a.apply(loadout.Command{Op: loadout.OpClearSubtrait, Slot: a.slotCursor})
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a *App) openPicker(slot loadout.SlotView) {
	cat := a.session.Catalog()
	targets := cat.SubtraitTargets(slot.Sigil)
	items := make([]list.Item, 0, len(targets))
	for _, name := range targets {
		def, _ := cat.Trait(name)
		desc := def.Description
		if name == slot.SubtraitName() {
			desc = "current · " + desc
		}
		items = append(items, traitItem{name: name, desc: desc})
	}
	a.picker.SetItems(items)
	a.picker.ResetFilter()
	a.picker.Title = fmt.Sprintf("Subtrait for %s", slot.Sigil)
	a.picking = true
}

func (a *App) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtering := a.picker.FilterState() == list.Filtering
	switch msg.String() {
	case "esc":
		if !filtering {
			a.picking = false
			return a, nil
		}
	case "enter":
		if !filtering {
			item, ok := a.picker.SelectedItem().(traitItem)
			a.picking = false
			if ok {
				if _, err := a.apply(loadout.Command{Op: loadout.OpSetSubtrait, Slot: a.slotCursor, Trait: item.name}); err == nil {
					a.statusMsg = fmt.Sprintf("Slot %d now also feeds %s", a.slotCursor+1, item.name)
				}
			}
			return a, nil
		}
	}
	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)
	return a, cmd
}

func (a *App) updateSearchInput(msg tea.Msg) tea.Cmd {
	before := a.searchInput.Value()
	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	if a.searchInput.Value() != before {
		a.refreshResults()
	}
	return cmd
}

// apply runs cmd through the session and records failures in the status line.
func (a *App) apply(cmd loadout.Command) (session.Change, error) {
	change, err := a.session.Apply(sourceTUI, cmd)
	if err != nil {
		a.statusMsg = describeError(err)
		return session.Change{}, err
	}
	a.snapshot = change.Snapshot
	a.clampSlotCursor()
	return change, nil
}

func (a *App) refreshResults() {
	a.results = a.index.Query(a.searchInput.Value(), a.searchLimit)
	if a.resultCursor >= len(a.results) {
		a.resultCursor = max(0, len(a.results)-1)
	}
}

func (a *App) selectedResult() (catalog.Sigil, bool) {
	if a.resultCursor < 0 || a.resultCursor >= len(a.results) {
		return catalog.Sigil{}, false
	}
	return a.results[a.resultCursor].Sigil, true
}

func (a *App) firstEmptySlot() (int, bool) {
	for _, slot := range a.snapshot.Slots {
		if slot.Empty {
			return slot.Index, true
		}
	}
	return 0, false
}

func (a *App) setFocus(f focus) {
	a.focus = f
	if f == focusSearch {
		a.searchInput.Focus()
	} else {
		a.searchInput.Blur()
	}
}

func (a *App) clampSlotCursor() {
	if a.slotCursor >= len(a.snapshot.Slots) {
		a.slotCursor = max(0, len(a.snapshot.Slots)-1)
	}
}

func describeError(err error) string {
	switch {
	case errors.Is(err, loadout.ErrSlotOccupied):
		return "That slot is taken · remove its sigil first"
	case errors.Is(err, loadout.ErrNoEmptySlot):
		return "Every slot is full"
	case errors.Is(err, loadout.ErrBounds):
		return "Level is at its limit"
	case errors.Is(err, loadout.ErrSubtraitNotAllowed):
		return "This sigil cannot take that subtrait"
	default:
		return err.Error()
	}
}
