package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/gallery/internal/gallery"
	"github.com/abelbrown/gallery/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing gallery stats and recent
// events. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, events *otel.Logger, snap gallery.Snapshot, sentinel gallery.SentinelState, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Gallery Stats"))
	lines = append(lines, fmt.Sprintf("  Query:      %s  qid:%s", snap.Query, otel.QueryID(snap.Generation)))
	lines = append(lines, fmt.Sprintf("  Pages:      %d / %d, %d photos", snap.Page, snap.TotalPages, len(snap.Photos)))
	lines = append(lines, fmt.Sprintf("  Fetches:    %d complete, %d errors, %d stale, %d cached",
		stats[otel.KindFetchComplete], stats[otel.KindFetchError], stats[otel.KindFetchStale], stats[otel.KindFetchCached]))
	lines = append(lines, fmt.Sprintf("  Searches:   %d started, %d more, %d retries",
		stats[otel.KindSearchStart], stats[otel.KindLoadMore], stats[otel.KindRetry]))
	lines = append(lines, fmt.Sprintf("  Sentinel:   %s, %d fired", sentinel, stats[otel.KindScrollFire]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	if id := events.SessionID(); id != "" {
		lines = append(lines, fmt.Sprintf("  Session:    %s, %d dropped", id[:8], events.Dropped()))
	}
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-18s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Query != "" {
			line += "  " + truncateRunes(e.Query, 20)
		}
		if e.Page > 0 {
			line += fmt.Sprintf("  p%d", e.Page)
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 30)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		if e.QueryID != "" {
			line += "  qid:" + e.QueryID
		}
		lines = append(lines, line)
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 96
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string.
// Negative durations from clock skew clamp to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
