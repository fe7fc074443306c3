package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/gallery/internal/photo"
)

// headerHeight is the number of lines renderHeader always produces.
const headerHeight = 3

// maxSuggestions is the number of stored terms reachable with 1-9.
const maxSuggestions = 9

// renderHeader renders the title line, the search line and the suggestion
// line. searchLine is the rendered text input or the active query.
func renderHeader(searchLine string, suggestions []string, q photo.Query, width int) string {
	title := TitleStyle.Render("Gallery") + StatusBarText.Render(" flickr photos  "+q.Mode().String())

	search := SearchBar.Width(width).MaxHeight(1).Render(searchLine)

	var parts []string
	for i, term := range suggestions {
		if i >= maxSuggestions {
			break
		}
		style := SuggestionText
		if term == q.Term {
			style = ActiveSuggestion
		}
		parts = append(parts, SuggestionKey.Render(fmt.Sprintf("%d", i+1))+" "+style.Render(term))
	}
	sugg := StatusBarText.Render(" no past searches")
	if len(parts) > 0 {
		sugg = " " + strings.Join(parts, "  ")
	}

	lines := []string{
		lipgloss.NewStyle().MaxWidth(width).Render(title),
		search,
		lipgloss.NewStyle().MaxWidth(width).MaxHeight(1).Render(sugg),
	}
	return strings.Join(lines, "\n")
}

// querySummary is shown in the search line while the input is not focused.
func querySummary(q photo.Query) string {
	if q.Term == "" {
		return StatusBarText.Render("/ search  (showing recent photos)")
	}
	return StatusBarText.Render("/ search  ") + q.Term
}
