package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/sigilforge/internal/loadout"
)

var (
	colorAccent = lipgloss.Color("#FF6B6B")
	colorBlue   = lipgloss.Color("#5B8DEF")
	colorBorder = lipgloss.Color("#444444")
	colorMuted  = lipgloss.Color("#888888")
	colorDim    = lipgloss.Color("#555555")
	colorGold   = lipgloss.Color("#E0B050")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
	focusedPanelStyle = panelStyle.BorderForeground(colorBlue)
	headingStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	mutedStyle        = lipgloss.NewStyle().Foreground(colorMuted)
	dimStyle          = lipgloss.NewStyle().Foreground(colorDim)
	cursorStyle       = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	overflowStyle     = lipgloss.NewStyle().Foreground(colorGold)
)

// View renders the whole screen.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 120
	}
	column := max(30, (width-6)/3)

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccent).
		MarginBottom(1).
		Render("⬡ SIGILFORGE")

	middle := a.renderSearchPanel(column)
	if a.picking {
		middle = focusedPanelStyle.Width(column).Render(a.picker.View())
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		a.renderSlotsPanel(column),
		middle,
		a.renderTraitsPanel(column),
	)

	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, a.renderFooter())
	return strings.Join(sections, "\n")
}

func (a *App) panel(f focus) lipgloss.Style {
	if a.focus == f && !a.picking {
		return focusedPanelStyle
	}
	return panelStyle
}

func (a *App) renderSlotsPanel(width int) string {
	lines := []string{headingStyle.Render(fmt.Sprintf("SLOTS · %d/%d", a.snapshot.Equipped, len(a.snapshot.Slots)))}
	for _, slot := range a.snapshot.Slots {
		lines = append(lines, a.renderSlot(slot))
	}
	return a.panel(focusSlots).Width(width).Render(strings.Join(lines, "\n"))
}

func (a *App) renderSlot(slot loadout.SlotView) string {
	marker := "  "
	if a.focus == focusSlots && slot.Index == a.slotCursor {
		marker = cursorStyle.Render("▸ ")
	}
	label := fmt.Sprintf("%2d ", slot.Index+1)
	if slot.Empty {
		text := dimStyle.Render("· empty ·")
		if a.held != nil && slot.Index == a.slotCursor && a.focus == focusSlots {
			text = overflowStyle.Render("⇣ " + a.held.Name)
		}
		return marker + label + text
	}
	inc := dimStyle.Render("+")
	if slot.CanIncrease {
		inc = "+"
	}
	dec := dimStyle.Render("-")
	if slot.CanDecrease {
		dec = "-"
	}
	line := fmt.Sprintf("%s%s%s %s L%d [%s%s]", marker, label, slot.Sigil, mutedStyle.Render(slot.Trait), slot.Level, dec, inc)
	if slot.Subtrait != nil {
		line += mutedStyle.Render(" ⊕ " + *slot.Subtrait)
	}
	return line
}

func (a *App) renderSearchPanel(width int) string {
	lines := []string{headingStyle.Render("SIGILS"), a.searchInput.View(), ""}
	if len(a.results) == 0 {
		lines = append(lines, dimStyle.Render("No sigils match"))
	}
	for i, result := range a.results {
		marker := "  "
		if a.focus == focusResults && i == a.resultCursor {
			marker = cursorStyle.Render("▸ ")
		}
		s := result.Sigil
		lines = append(lines, fmt.Sprintf("%s%s %s", marker, s.Name,
			mutedStyle.Render(fmt.Sprintf("%s %d-%d", s.Trait, s.BaseLevel, s.MaxLevel))))
	}
	if sigil, ok := a.selectedResult(); ok && a.focus == focusResults && sigil.Effect != "" {
		lines = append(lines, "", mutedStyle.Render(sigil.Effect))
	}
	return a.panel(focusResults).Width(width).Render(strings.Join(lines, "\n"))
}

func (a *App) renderTraitsPanel(width int) string {
	lines := []string{headingStyle.Render("TRAITS")}
	if len(a.snapshot.Traits) == 0 {
		lines = append(lines, dimStyle.Render("Equip a sigil to activate traits"))
	}
	for _, trait := range a.snapshot.Traits {
		level := fmt.Sprintf("%d / %d", trait.Level, trait.MaxLevel)
		if trait.Overflow {
			level = overflowStyle.Render(level + " ▲")
		}
		lines = append(lines, fmt.Sprintf("%s  %s", lipgloss.NewStyle().Bold(true).Render(trait.Name), level))
		if trait.Effect != "" {
			lines = append(lines, "  "+trait.Effect)
		}
		if trait.Description != "" {
			lines = append(lines, mutedStyle.Render("  "+trait.Description))
		}
	}
	return panelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, _ := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := headingStyle.Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return panelStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) renderFooter() string {
	var help string
	switch {
	case a.picking:
		help = "enter assign · / filter · esc cancel"
	case a.focus == focusSearch:
		help = "type to search · enter results · tab next panel · ctrl+c quit"
	case a.focus == focusResults:
		help = "enter equip · p pick up · / search · tab next panel"
	default:
		help = "+/- level · x remove · s subtrait · c clear subtrait · enter drop"
	}
	if a.bridgeURL != "" {
		help += " · bridge " + a.bridgeURL
	}
	lines := []string{}
	if a.statusMsg != "" {
		lines = append(lines, a.statusMsg)
	}
	lines = append(lines, dimStyle.Render(help))
	return lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1).Render(strings.Join(lines, "\n"))
}
