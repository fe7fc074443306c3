package ui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/gallery/internal/gallery"
	"github.com/abelbrown/gallery/internal/otel"
)

// DefaultAboutTerm is the literal search run by the About key.
const DefaultAboutTerm = "about"

// wheelStep is the number of lines one mouse wheel notch scrolls.
const wheelStep = 3

// AppConfig holds the dependencies for the App.
type AppConfig struct {
	// Controller owns all gallery state. Required.
	Controller *gallery.Controller

	// Fetch turns a controller request into a command that runs it and
	// returns PhotosLoaded.
	Fetch func(req gallery.Request) tea.Cmd

	Ring   *otel.RingBuffer // feeds the debug overlay; nil disables it
	Events *otel.Logger     // optional

	AboutTerm string // defaults to DefaultAboutTerm
	Columns   int    // fixed column count; 0 follows the terminal width
}

// App is the root Bubble Tea model.
// IMPORTANT: App never runs a query itself. Fetches go out as commands and
// come back as PhotosLoaded, which the controller may drop as stale.
type App struct {
	ctrl      *gallery.Controller
	fetch     func(req gallery.Request) tea.Cmd
	ring      *otel.RingBuffer
	events    *otel.Logger
	aboutTerm string
	columns   int

	input     textinput.Model
	searching bool
	spin      spinner.Model
	vp        viewport.Model
	sentinel  gallery.Sentinel

	cursor       int
	width        int
	height       int
	ready        bool
	debugVisible bool
}

// NewApp creates a new App from cfg.
func NewApp(cfg AppConfig) App {
	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = "Search photos"
	input.CharLimit = 120

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = StatusBarKey

	about := cfg.AboutTerm
	if about == "" {
		about = DefaultAboutTerm
	}

	return App{
		ctrl:      cfg.Controller,
		fetch:     cfg.Fetch,
		ring:      cfg.Ring,
		events:    cfg.Events,
		aboutTerm: about,
		columns:   cfg.Columns,
		input:     input,
		spin:      spin,
		vp:        viewport.New(0, 0),
	}
}

// Init issues the first page of recent photos.
func (a App) Init() tea.Cmd {
	req := a.ctrl.Initialize()
	return tea.Batch(a.run(req), a.spin.Tick)
}

func (a App) run(req gallery.Request) tea.Cmd {
	if a.fetch == nil {
		return nil
	}
	return a.fetch(req)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.events.Emit(otel.Event{
			Level: otel.LevelDebug,
			Kind:  otel.KindMsgReceived,
			Comp:  "ui",
			Msg:   fmt.Sprintf("%T", msg),
		})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.MouseMsg:
		return a.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.input.Width = msg.Width - 6
		a.vp.Width = msg.Width
		a.vp.Height = a.gridHeight()
		a.refreshContent()
		a.ensureCursorVisible()
		return a, nil

	case PhotosLoaded:
		res := msg.Result
		if !a.ctrl.Apply(res) {
			return a, nil
		}
		if res.Err == nil && res.Request.Page == 1 {
			a.cursor = 0
			a.sentinel.Reset()
			a.refreshContent()
			a.vp.GotoTop()
			return a, nil
		}
		a.refreshContent()
		return a, nil

	case spinner.TickMsg:
		if !a.ctrl.Snapshot().Loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	if a.searching {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if a.debugVisible {
		if key == "D" || key == "esc" {
			a.debugVisible = false
		}
		return a, nil
	}

	if a.searching {
		return a.handleSearchKey(msg)
	}

	a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: key})

	snap := a.ctrl.Snapshot()
	if snap.Modal != nil {
		switch key {
		case "esc", "enter", "q":
			a.ctrl.ClosePhoto()
		}
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit

	case "/":
		a.searching = true
		a.input.SetValue(snap.Query.Term)
		a.input.CursorEnd()
		return a, a.input.Focus()

	case "h":
		return a.search("")

	case "a":
		return a.search(a.aboutTerm)

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n, _ := strconv.Atoi(key)
		if n <= len(snap.Suggestions) {
			return a.search(snap.Suggestions[n-1])
		}
		return a, nil

	case "m":
		if req, ok := a.ctrl.RequestMore(); ok {
			a.refreshContent()
			return a, tea.Batch(a.run(req), a.spin.Tick)
		}
		return a, nil

	case "r":
		if req, ok := a.ctrl.Retry(); ok {
			a.refreshContent()
			return a, tea.Batch(a.run(req), a.spin.Tick)
		}
		return a, nil

	case "D":
		if a.ring != nil {
			a.debugVisible = true
		}
		return a, nil

	case "enter":
		if a.cursor < len(snap.Photos) {
			a.ctrl.OpenPhoto(snap.Photos[a.cursor])
		}
		return a, nil
	}

	if a.moveCursor(key, len(snap.Photos)) {
		a.refreshContent()
		a.ensureCursorVisible()
		return a, a.observeScroll()
	}
	return a, nil
}

func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		term := a.input.Value()
		a.searching = false
		a.input.Blur()
		return a.search(term)
	case "esc":
		a.searching = false
		a.input.Blur()
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// search starts a new query. The grid is cleared right away; the first
// page replaces it when it arrives.
func (a App) search(term string) (tea.Model, tea.Cmd) {
	req := a.ctrl.Search(term)
	a.input.SetValue(req.Query.Term)
	a.cursor = 0
	a.sentinel.Reset()
	a.refreshContent()
	a.vp.GotoTop()
	return a, tea.Batch(a.run(req), a.spin.Tick)
}

func (a App) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if a.searching || a.debugVisible || a.ctrl.Snapshot().Modal != nil {
		return a, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelDown:
		a.vp.SetYOffset(a.vp.YOffset + wheelStep)
	case tea.MouseButtonWheelUp:
		a.vp.SetYOffset(a.vp.YOffset - wheelStep)
	default:
		return a, nil
	}
	a.keepCursorInView()
	return a, a.observeScroll()
}

// moveCursor applies a navigation key. It reports whether key was one.
func (a *App) moveCursor(key string, n int) bool {
	if n == 0 {
		switch key {
		case "up", "down", "left", "right", "j", "k", "pgup", "pgdown", "g", "G", "home", "end":
			return true
		}
		return false
	}
	cols := a.cols()
	rows := a.vp.Height / cellHeight
	if rows < 1 {
		rows = 1
	}

	switch key {
	case "left":
		a.cursor--
	case "right":
		a.cursor++
	case "up", "k":
		a.cursor -= cols
	case "down", "j":
		a.cursor += cols
	case "pgup":
		a.cursor -= cols * rows
	case "pgdown":
		a.cursor += cols * rows
	case "g", "home":
		a.cursor = 0
	case "G", "end":
		a.cursor = n - 1
	default:
		return false
	}

	if a.cursor < 0 {
		a.cursor = 0
	}
	if a.cursor > n-1 {
		a.cursor = n - 1
	}
	return true
}

// observeScroll feeds the current scroll position to the sentinel and, when
// it fires, asks the controller for the next page.
func (a *App) observeScroll() tea.Cmd {
	if !a.sentinel.Observe(a.vp.YOffset, a.vp.Height, a.vp.TotalLineCount()) {
		return nil
	}
	req, ok := a.ctrl.OnScrollNearBottom()
	if !ok {
		return nil
	}
	a.events.Emit(otel.Event{
		Level:   otel.LevelDebug,
		Kind:    otel.KindScrollFire,
		Comp:    "ui",
		QueryID: otel.QueryID(req.Generation),
		Page:    req.Page,
	})
	a.refreshContent()
	return tea.Batch(a.run(req), a.spin.Tick)
}

func (a App) cols() int {
	return Columns(a.width, a.columns)
}

func (a App) gridHeight() int {
	h := a.height - headerHeight - 1
	if h < 1 {
		h = 1
	}
	return h
}

// refreshContent re-renders the grid document into the viewport.
func (a *App) refreshContent() {
	snap := a.ctrl.Snapshot()
	if len(snap.Photos) == 0 {
		a.vp.SetContent(a.emptyState(snap))
		return
	}
	if a.cursor >= len(snap.Photos) {
		a.cursor = len(snap.Photos) - 1
	}
	doc := RenderGrid(snap.Photos, a.cursor, a.cols(), a.width)
	doc += gridFooter(snap.Loading, a.ctrl.CanLoadMore(), snap.Page, snap.TotalPages)
	a.vp.SetContent(doc)
}

func (a App) emptyState(snap gallery.Snapshot) string {
	switch {
	case snap.Loading:
		return HelpStyle.Render("Loading photos...")
	case snap.Err != nil:
		return HelpStyle.Render(ErrorStyle.Render("Request failed") + "\n\n" +
			snap.Err.Error() + "\n\nPress r to retry.")
	default:
		return HelpStyle.Render("No items found for " + snap.Query.String() + ".")
	}
}

// ensureCursorVisible scrolls the viewport so the cursor row is on screen.
func (a *App) ensureCursorVisible() {
	n := len(a.ctrl.Snapshot().Photos)
	if n == 0 {
		return
	}
	cols := a.cols()
	row := rowOf(a.cursor, cols)
	if row == rowOf(n-1, cols) {
		a.vp.GotoBottom()
		return
	}
	top := row * cellHeight
	bottom := top + cellHeight
	if top < a.vp.YOffset {
		a.vp.SetYOffset(top)
	} else if bottom > a.vp.YOffset+a.vp.Height {
		a.vp.SetYOffset(bottom - a.vp.Height)
	}
}

// keepCursorInView moves the cursor onto a visible row after the viewport
// was scrolled directly.
func (a *App) keepCursorInView() {
	n := len(a.ctrl.Snapshot().Photos)
	if n == 0 {
		return
	}
	cols := a.cols()
	firstRow := (a.vp.YOffset + cellHeight - 1) / cellHeight
	lastRow := (a.vp.YOffset+a.vp.Height)/cellHeight - 1
	if lastRow < firstRow {
		lastRow = firstRow
	}
	row := rowOf(a.cursor, cols)
	col := a.cursor % cols
	switch {
	case row < firstRow:
		row = firstRow
	case row > lastRow:
		row = lastRow
	default:
		return
	}
	c := row*cols + col
	if c > n-1 {
		c = n - 1
	}
	if c != a.cursor {
		a.cursor = c
		a.refreshContent()
	}
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	snap := a.ctrl.Snapshot()

	if a.debugVisible {
		overlay := debugOverlay(a.ring, a.events, snap, a.sentinel.State(), a.width, a.height-1)
		body := lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, overlay)
		return body + "\n" + debugStatusBar(a.width)
	}

	if snap.Modal != nil {
		return renderModal(*snap.Modal, a.width, a.height)
	}

	searchLine := querySummary(snap.Query)
	if a.searching {
		searchLine = a.input.View()
	}
	header := renderHeader(searchLine, snap.Suggestions, snap.Query, a.width)

	return header + "\n" + a.vp.View() + "\n" + a.statusBar(snap)
}

func (a App) statusBar(snap gallery.Snapshot) string {
	var left string
	switch {
	case snap.Loading:
		left = a.spin.View() + " Loading page " + strconv.Itoa(snap.Page)
	case snap.Err != nil:
		left = ErrorStyle.Render("Request failed")
	case len(snap.Photos) > 0:
		left = fmt.Sprintf("%d/%d  page %d/%d", a.cursor+1, len(snap.Photos), snap.Page, snap.TotalPages)
	default:
		left = "0 photos"
	}
	return RenderStatusBar(left, a.width, !snap.Loading && a.ctrl.CanLoadMore(), snap.Err != nil)
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Searching reports whether the search box has focus (for testing).
func (a App) Searching() bool {
	return a.searching
}

// Ensure App satisfies tea.Model.
var _ tea.Model = App{}
