// Package result shows a finished assessment and the child's updated
// profile.
package result

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cogcat/internal/assessment"
	"github.com/abhisek/cogcat/internal/profile"
	"github.com/abhisek/cogcat/internal/router"
	"github.com/abhisek/cogcat/internal/screen"
	"github.com/abhisek/cogcat/internal/ui/components"
	"github.com/abhisek/cogcat/internal/ui/layout"
	"github.com/abhisek/cogcat/internal/ui/theme"
)

// ProfileSource loads a child's profile.
type ProfileSource interface {
	Get(ctx context.Context, childID string) (*profile.CognitiveProfile, error)
}

type profileLoadedMsg struct {
	Profile *profile.CognitiveProfile
	Err     error
}

// ResultScreen displays a completed session.
type ResultScreen struct {
	profiles ProfileSource
	child    string
	session  *assessment.Session
	profile  *profile.CognitiveProfile
	loadErr  error
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)

// New creates a ResultScreen for the completed session s.
func New(profiles ProfileSource, childName string, s *assessment.Session) *ResultScreen {
	return &ResultScreen{profiles: profiles, child: childName, session: s}
}

func (r *ResultScreen) Init() tea.Cmd {
	if r.profiles == nil || r.session == nil {
		return nil
	}
	profiles, childID := r.profiles, r.session.ChildID
	return func() tea.Msg {
		p, err := profiles.Get(context.Background(), childID)
		return profileLoadedMsg{Profile: p, Err: err}
	}
}

func (r *ResultScreen) Title() string {
	return "Results"
}

func (r *ResultScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Done"},
	}
}

func (r *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		r.profile, r.loadErr = msg.Profile, msg.Err
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc", "q":
			return r, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return r, nil
}

func (r *ResultScreen) View(width, height int) string {
	s := r.session
	if s == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(layout.Centered(theme.Title, width, "Test complete!"))
	b.WriteString("\n\n")

	line := fmt.Sprintf("%s    Questions: %d    Ability: %.2f ± %.2f",
		s.Domain.DisplayName(), s.ItemsAdministered, s.Theta, s.SE)
	b.WriteString(layout.Centered(theme.Body, width, line))
	b.WriteString("\n")
	if s.Percentile != nil && s.RawScore != nil {
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.DomainColor(s.Domain)).Bold(true), width,
			fmt.Sprintf("Percentile %d    Score %.1f / 100", *s.Percentile, *s.RawScore)))
		b.WriteString("\n")
	}
	b.WriteString(layout.Centered(theme.Hint, width, "Stopped: "+StoppingText(s.StoppingReason)))
	b.WriteString("\n\n")

	switch {
	case r.loadErr != nil:
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Error), width,
			"Could not load profile: "+r.loadErr.Error()))
	case r.profile != nil:
		b.WriteString(components.Centered(width, components.ProfileCard(r.child, r.profile, min(width-8, 60))))
	}
	return b.String()
}

// StoppingText describes why a session ended.
func StoppingText(reason assessment.StoppingReason) string {
	switch reason {
	case assessment.StopMaxItems:
		return "reached the question limit"
	case assessment.StopMinSE:
		return "the estimate is precise enough"
	case assessment.StopNoItems:
		return "no more questions for this age"
	}
	return string(reason)
}
