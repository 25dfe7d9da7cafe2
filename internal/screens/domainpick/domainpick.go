// Package domainpick lets the child choose which domain to be tested in.
package domainpick

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cogcat/internal/itembank"
	"github.com/abhisek/cogcat/internal/router"
	"github.com/abhisek/cogcat/internal/screen"
	"github.com/abhisek/cogcat/internal/ui/components"
	"github.com/abhisek/cogcat/internal/ui/layout"
	"github.com/abhisek/cogcat/internal/ui/theme"
)

// StartFunc builds the screen that tests domain.
type StartFunc func(domain itembank.Domain) screen.Screen

// DomainPickScreen is a menu of the domains that have items.
type DomainPickScreen struct {
	child string
	menu  components.Menu
}

var _ screen.Screen = (*DomainPickScreen)(nil)

// New builds the menu. Domains with no items in counts are disabled.
func New(childName string, counts map[itembank.Domain]int, start StartFunc) *DomainPickScreen {
	var items []components.MenuItem
	for _, info := range itembank.AllDomains() {
		d := info.ID
		n := counts[d]
		items = append(items, components.MenuItem{
			Label:    info.Name,
			Detail:   fmt.Sprintf("%s (%d items)", info.Description, n),
			Disabled: n == 0,
			Action: func() tea.Cmd {
				return func() tea.Msg { return router.PushScreenMsg{Screen: start(d)} }
			},
		})
	}
	return &DomainPickScreen{child: childName, menu: components.NewMenu(items)}
}

func (d *DomainPickScreen) Init() tea.Cmd { return nil }

func (d *DomainPickScreen) Title() string { return "Choose a Game" }

func (d *DomainPickScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	d.menu, cmd = d.menu.Update(msg)
	return d, cmd
}

func (d *DomainPickScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(layout.Centered(theme.Title, width, fmt.Sprintf("Hi %s!", d.child)))
	b.WriteString("\n")
	b.WriteString(layout.Centered(theme.Subtitle, width, "What would you like to play?"))
	b.WriteString("\n\n")
	b.WriteString(components.Centered(width, d.menu.View()))
	return b.String()
}
