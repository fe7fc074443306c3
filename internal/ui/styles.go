package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorError     = lipgloss.Color("196")
)

// TitleStyle for the application name in the header.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// SelectedCell style for the highlighted grid cell.
var SelectedCell = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalCell style for the other grid cells.
var NormalCell = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// CellMeta style for the URL line under a cell title.
var CellMeta = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(0, 1)

// SuggestionKey style for the number in front of a stored search term.
var SuggestionKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// SuggestionText style for stored search terms.
var SuggestionText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ActiveSuggestion marks the stored term matching the current query.
var ActiveSuggestion = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Underline(true)

// SearchBar style for the search input line.
var SearchBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true)

// HelpStyle for empty states and the grid footer.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// FooterStyle for the load-more line under the grid.
var FooterStyle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// ModalPanel frames the full-size photo overlay.
var ModalPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorHighlight).
	Padding(1, 2)

// ModalTitle style for the photo title in the overlay.
var ModalTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

// ModalLabel style for field labels in the overlay.
var ModalLabel = lipgloss.NewStyle().
	Foreground(colorSecondary)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 1)

// DebugHeaderStyle for section headers inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
