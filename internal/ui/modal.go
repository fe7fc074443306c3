package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/gallery/internal/photo"
)

// renderModal renders the full-size overlay for p centred in the screen.
func renderModal(p photo.Photo, width, height int) string {
	title := p.Title
	if strings.TrimSpace(title) == "" {
		title = "(untitled)"
	}

	inner := width - 10
	if inner < 20 {
		inner = 20
	}

	lines := []string{
		ModalTitle.Render(truncateRunes(title, inner)),
		"",
		ModalLabel.Render("Full size  ") + p.FullURL(),
		ModalLabel.Render("Thumbnail  ") + p.ThumbURL(),
	}
	if p.Owner != "" {
		lines = append(lines, ModalLabel.Render("Owner      ")+p.Owner)
	}
	lines = append(lines, "", StatusBarKey.Render("Esc")+StatusBarText.Render(":close"))

	panel := ModalPanel.MaxWidth(width).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel)
}
