package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/gallery/internal/photo"
)

// cellHeight is the number of lines one grid row occupies: title, URL and a
// blank separator.
const cellHeight = 3

// Columns returns the number of grid columns for a terminal width. A
// positive override wins.
func Columns(width, override int) int {
	if override > 0 {
		return override
	}
	switch {
	case width < 60:
		return 1
	case width < 120:
		return 3
	default:
		return 4
	}
}

// RenderGrid renders every photo as a cell, cols per row. The result is the
// whole document; the viewport decides which part is visible. Each row is
// exactly cellHeight lines.
func RenderGrid(photos []photo.Photo, cursor, cols, width int) string {
	if len(photos) == 0 || cols < 1 {
		return ""
	}
	cellWidth := width / cols
	if cellWidth < 8 {
		cellWidth = 8
	}

	var b strings.Builder
	for start := 0; start < len(photos); start += cols {
		end := start + cols
		if end > len(photos) {
			end = len(photos)
		}

		var titles, metas []string
		for i := start; i < end; i++ {
			p := photos[i]
			title := p.Title
			if strings.TrimSpace(title) == "" {
				title = "(untitled)"
			}
			style := NormalCell
			if i == cursor {
				style = SelectedCell
			}
			titles = append(titles, style.Width(cellWidth).MaxHeight(1).Render(truncateRunes(title, cellWidth-2)))
			metas = append(metas, CellMeta.Width(cellWidth).MaxHeight(1).Render(truncateRunes(p.ThumbURL(), cellWidth-2)))
		}

		b.WriteString(strings.Join(titles, ""))
		b.WriteString("\n")
		b.WriteString(strings.Join(metas, ""))
		b.WriteString("\n")
		b.WriteString("\n")
	}
	return b.String()
}

// gridFooter is the line under the last row: the load-more control while
// more pages exist, a loading note while a page is coming, or an end marker.
func gridFooter(loading, canLoadMore bool, page, totalPages int) string {
	switch {
	case loading:
		return FooterStyle.Render("Loading more...")
	case canLoadMore:
		return FooterStyle.Render(fmt.Sprintf("[m] Load more  (page %d of %d)", page, totalPages))
	default:
		return FooterStyle.Render("End of results")
	}
}

// rowOf returns the grid row holding index i.
func rowOf(i, cols int) int {
	if cols < 1 {
		return 0
	}
	return i / cols
}

// truncateRunes shortens s to max runes, marking the cut with "...".
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-3]) + "..."
}

// RenderStatusBar renders the bottom status bar: position or error on the
// left, key hints on the right.
func RenderStatusBar(left string, width int, canLoadMore, failed bool) string {
	keys := []string{
		StatusBarKey.Render("/") + StatusBarText.Render(":search"),
		StatusBarKey.Render("h") + StatusBarText.Render(":home"),
		StatusBarKey.Render("a") + StatusBarText.Render(":about"),
	}
	if canLoadMore {
		keys = append(keys, StatusBarKey.Render("m")+StatusBarText.Render(":more"))
	}
	if failed {
		keys = append(keys, StatusBarKey.Render("r")+StatusBarText.Render(":retry"))
	}
	keys = append(keys,
		StatusBarKey.Render("Enter")+StatusBarText.Render(":open"),
		StatusBarKey.Render("q")+StatusBarText.Render(":quit"),
	)
	keyHints := strings.Join(keys, " ")

	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(keyHints)
	padding := width - leftWidth - rightWidth - 2
	if padding < 1 {
		padding = 1
	}

	bar := left + strings.Repeat(" ", padding) + keyHints
	return StatusBar.Width(width).MaxHeight(1).Render(bar)
}
