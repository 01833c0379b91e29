package draw

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles are the text styles used for the HUD and overlay screens.
type Styles struct {
	Title     lipgloss.Style
	Text      lipgloss.Style
	Key       lipgloss.Style
	Muted     lipgloss.Style
	Warning   lipgloss.Style
	Field     lipgloss.Style
	Countdown lipgloss.Style
}

// NewStyles builds styles for output written to w. Sessions are rendered in
// truecolor because the canvas already relies on 24-bit colors.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.TrueColor)

	return Styles{
		Title:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F2C94C")),
		Text:      r.NewStyle().Foreground(lipgloss.Color("#E0E0E0")),
		Key:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("#56CCF2")),
		Muted:     r.NewStyle().Foreground(lipgloss.Color("#828282")),
		Warning:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#EB5757")),
		Field:     r.NewStyle().Foreground(lipgloss.Color("#111111")).Background(lipgloss.Color("#E0E0E0")).Padding(0, 1),
		Countdown: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#6FCF97")),
	}
}
