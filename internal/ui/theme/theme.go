package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cogcat/internal/itembank"
)

// Color palette, bright enough for young test takers
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Per-domain accents
var domainColors = map[itembank.Domain]color.Color{
	itembank.DomainMath:    lipgloss.Color("#60A5FA"),
	itembank.DomainLogic:   lipgloss.Color("#A78BFA"),
	itembank.DomainVerbal:  lipgloss.Color("#F472B6"),
	itembank.DomainSpatial: lipgloss.Color("#FBBF24"),
	itembank.DomainMemory:  lipgloss.Color("#34D399"),
}

// DomainColor returns the accent used for d.
func DomainColor(d itembank.Domain) color.Color {
	if c, ok := domainColors[d]; ok {
		return c
	}
	return Secondary
}

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)
)
