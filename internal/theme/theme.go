// Package theme builds the lipgloss styles for the light and dark themes.
// The active theme follows the user's persisted preference, not terminal
// detection, so colors are explicit pairs rather than adaptive.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todosync/internal/model"
)

// palette holds the raw colors for one theme variant.
type palette struct {
	text    lipgloss.Color
	subtle  lipgloss.Color
	accent  lipgloss.Color
	border  lipgloss.Color
	done    lipgloss.Color
	red     lipgloss.Color
	yellow  lipgloss.Color
	blue    lipgloss.Color
	surface lipgloss.Color
}

var darkPalette = palette{
	text:    lipgloss.Color("#F8F9FA"),
	subtle:  lipgloss.Color("#868E96"),
	accent:  lipgloss.Color("#5B9BD5"),
	border:  lipgloss.Color("#495057"),
	done:    lipgloss.Color("#6BCB77"),
	red:     lipgloss.Color("#FF6B6B"),
	yellow:  lipgloss.Color("#FFD93D"),
	blue:    lipgloss.Color("#5B9BD5"),
	surface: lipgloss.Color("#343A40"),
}

var lightPalette = palette{
	text:    lipgloss.Color("#1A202C"),
	subtle:  lipgloss.Color("#718096"),
	accent:  lipgloss.Color("#2B6CB0"),
	border:  lipgloss.Color("#E2E8F0"),
	done:    lipgloss.Color("#2F855A"),
	red:     lipgloss.Color("#C53030"),
	yellow:  lipgloss.Color("#B7791F"),
	blue:    lipgloss.Color("#2B6CB0"),
	surface: lipgloss.Color("#EDF2F7"),
}

// Theme is the full set of styles for one variant.
type Theme struct {
	Dark bool

	Header      lipgloss.Style
	StatusBar   lipgloss.Style
	ListItem    lipgloss.Style
	Selected    lipgloss.Style
	DoneText    lipgloss.Style
	Help        lipgloss.Style
	Border      lipgloss.Style
	ErrorText   lipgloss.Style
	InputPrompt lipgloss.Style

	p palette
}

// New builds the theme for the given preference.
func New(dark bool) Theme {
	p := lightPalette
	if dark {
		p = darkPalette
	}

	return Theme{
		Dark: dark,
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.text).
			Background(p.accent).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(p.text).
			Background(p.surface).
			Padding(0, 1),
		ListItem: lipgloss.NewStyle().
			Foreground(p.text).
			PaddingLeft(2),
		Selected: lipgloss.NewStyle().
			PaddingLeft(1).
			Bold(true).
			Foreground(p.accent).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(p.accent),
		DoneText: lipgloss.NewStyle().
			Foreground(p.subtle).
			Strikethrough(true),
		Help: lipgloss.NewStyle().
			Foreground(p.subtle).
			Italic(true),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border),
		ErrorText: lipgloss.NewStyle().
			Foreground(p.red).
			Bold(true),
		InputPrompt: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true),
		p: p,
	}
}

// PriorityStyle returns a color-coded style for the given priority.
func (t Theme) PriorityStyle(priority model.Priority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch priority {
	case model.PriorityHigh:
		return base.Foreground(t.p.red)
	case model.PriorityMedium:
		return base.Foreground(t.p.yellow)
	case model.PriorityLow:
		return base.Foreground(t.p.blue)
	default:
		return base.Foreground(t.p.subtle)
	}
}
