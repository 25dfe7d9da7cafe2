package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cogcat/internal/itembank"
	"github.com/abhisek/cogcat/internal/profile"
	"github.com/abhisek/cogcat/internal/ui/theme"
)

// ProfileCard renders a child's cognitive profile as a bordered card with
// one percentile bar per scored domain.
func ProfileCard(name string, p *profile.CognitiveProfile, width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(name))
	b.WriteString("\n\n")

	if p == nil || len(p.Domains) == 0 {
		b.WriteString(theme.Hint.Render("No completed assessments yet."))
		return theme.Card.Width(width).Render(b.String())
	}

	barWidth := max(width-8, 20)
	for _, info := range itembank.AllDomains() {
		ds, ok := p.Domains[info.ID]
		if !ok {
			continue
		}
		bar := NewProgressBar(fmt.Sprintf("%-8s", info.Name), float64(ds.Percentile)/100, true, barWidth)
		bar.Fill = theme.DomainColor(info.ID)
		b.WriteString(bar.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if p.CompositeScore != nil && p.CompositePercentile != nil {
		b.WriteString(theme.Body.Render(fmt.Sprintf("Composite  %.2f  (percentile %d)", *p.CompositeScore, *p.CompositePercentile)))
		b.WriteString("\n")
	}
	b.WriteString(theme.Correct.Render("Strengths: ") + theme.Body.Render(domainList(p.Strengths)))
	b.WriteString("\n")
	b.WriteString(theme.Incorrect.Render("Growing:   ") + theme.Body.Render(domainList(p.GrowthAreas)))

	return theme.Card.Width(width).Render(b.String())
}

func domainList(ds []itembank.Domain) string {
	if len(ds) == 0 {
		return "-"
	}
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.DisplayName()
	}
	return strings.Join(names, ", ")
}

// Centered places a block in the middle of width.
func Centered(width int, s string) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}
