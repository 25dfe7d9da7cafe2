package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cogcat/internal/itembank"
	"github.com/abhisek/cogcat/internal/ui/theme"
)

// MultiChoice selects one option of an item. It never reveals which option
// is correct.
type MultiChoice struct {
	Options   []itembank.Option
	Selected  int
	Submitted bool
}

// NewMultiChoice creates a new multiple-choice component.
func NewMultiChoice(options []itembank.Option) MultiChoice {
	return MultiChoice{Options: options}
}

// Update handles keyboard navigation and selection. Digit keys pick and
// submit an option directly.
func (m MultiChoice) Update(msg tea.Msg) MultiChoice {
	if m.Submitted || len(m.Options) == 0 {
		return m
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		m.Submitted = true
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if i := int(key[0] - '1'); i < len(m.Options) {
				m.Selected = i
				m.Submitted = true
			}
		}
	}
	return m
}

// Chosen returns the id of the submitted option, or "" before submission.
func (m MultiChoice) Chosen() string {
	if !m.Submitted || m.Selected >= len(m.Options) {
		return ""
	}
	return m.Options[m.Selected].ID
}

// View renders the options.
func (m MultiChoice) View() string {
	var b strings.Builder
	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%d) %s", prefix, i+1, opt.Label)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == m.Selected {
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
