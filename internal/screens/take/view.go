package take

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cogcat/internal/itembank"
	"github.com/abhisek/cogcat/internal/ui/components"
	"github.com/abhisek/cogcat/internal/ui/layout"
	"github.com/abhisek/cogcat/internal/ui/theme"
)

func (s *TakeScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return layout.Centered(lipgloss.NewStyle().Foreground(theme.Error), width,
			fmt.Sprintf("\n\n\n%s\n\nPress any key to go back.", s.errMsg))
	case s.session == nil:
		return layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim), width, "\n\n\nGetting ready...")
	case s.confirmQuit:
		return renderQuitConfirm(width)
	case s.feedback != nil:
		return s.renderFeedback(width)
	}
	return s.renderItem(width)
}

// renderProgress shows the item count and how far the estimate has come.
func (s *TakeScreen) renderProgress(width int) string {
	label := fmt.Sprintf("  Question %d", s.answered+1)
	if s.maxItems > 0 {
		label += fmt.Sprintf(" (at most %d)", s.maxItems)
	}
	count := lipgloss.NewStyle().
		Foreground(theme.DomainColor(s.domain)).
		Bold(true).
		Render(label)

	// Certainty rises as SE falls from its starting value of 1.
	certainty := min(max(1-s.se, 0), 1)
	bar := components.NewProgressBar("sure", certainty, false, min(width/3, 30))
	bar.Fill = theme.DomainColor(s.domain)

	gap := max(width-lipgloss.Width(count)-lipgloss.Width(bar.View())-4, 1)
	return count + strings.Repeat(" ", gap) + bar.View()
}

func (s *TakeScreen) renderItem(width int) string {
	item := s.item
	if item == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(s.renderProgress(width))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Text).Bold(true), width, item.Content.Prompt))
	b.WriteString("\n")
	if item.Content.PromptAudio != "" {
		b.WriteString(layout.Centered(theme.Hint, width, "(audio: "+item.Content.PromptAudio+")"))
		b.WriteString("\n")
	}
	if item.Content.Instructions != "" {
		b.WriteString(layout.Centered(theme.Hint, width, item.Content.Instructions))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch s.mode {
	case modeChoice:
		b.WriteString(components.Centered(width, s.mc.View()))
	case modeList:
		if len(item.Content.Options) > 0 {
			b.WriteString(components.Centered(width, renderOptionIDs(item.Content.Options)))
			b.WriteString("\n")
		}
		b.WriteString(layout.Centered(lipgloss.NewStyle(), width, "Answer: "+s.input.View()))
		b.WriteString("\n")
		b.WriteString(layout.Centered(theme.Hint, width, "Separate answers with commas"))
	default:
		b.WriteString(layout.Centered(lipgloss.NewStyle(), width, "Answer: "+s.input.View()))
	}

	if s.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Accent), width, s.notice))
	}
	if s.busy {
		b.WriteString("\n\n")
		b.WriteString(layout.Centered(theme.Hint, width, "Checking..."))
	}
	return b.String()
}

func renderOptionIDs(opts []itembank.Option) string {
	var b strings.Builder
	for _, o := range opts {
		b.WriteString(theme.Selected.Render(o.ID))
		b.WriteString("  ")
		b.WriteString(theme.Body.Render(o.Label))
		b.WriteString("\n")
	}
	return b.String()
}

// renderFeedback shows the encouragement for the last response. The correct
// answer is never shown.
func (s *TakeScreen) renderFeedback(width int) string {
	fb := s.feedback

	style := theme.Correct
	if !fb.IsCorrect {
		style = theme.Incorrect
	}

	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(layout.Centered(style, width, fb.Feedback.Headline))
	b.WriteString("\n")
	b.WriteString(layout.Centered(theme.Body, width, fb.Feedback.Encouragement))
	b.WriteString("\n\n")
	if fb.IsComplete {
		b.WriteString(layout.Centered(theme.Subtitle, width, "All done! Let's see how you did."))
		b.WriteString("\n\n")
	}
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim), width, "Press any key to continue..."))
	return b.String()
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Text).Bold(true), width, "Stop the test?"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim), width,
		"Answers so far are saved, but this test stays unfinished."))
	b.WriteString("\n\n")
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Success), width, "[Y] Yes, stop"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Primary), width, "[N] No, keep going"))
	return b.String()
}
