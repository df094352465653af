// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Manages screen state and routes keyboard input to child components

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/virt-dashboard/cli/internal/tui/dashboard"
	"github.com/markalston/virt-dashboard/cli/internal/tui/debuglog"
	"github.com/markalston/virt-dashboard/cli/internal/tui/filepicker"
	"github.com/markalston/virt-dashboard/cli/internal/tui/icons"
	"github.com/markalston/virt-dashboard/cli/internal/tui/recentfiles"
	"github.com/markalston/virt-dashboard/cli/internal/tui/samples"
	"github.com/markalston/virt-dashboard/cli/internal/tui/styles"
	"github.com/markalston/virt-dashboard/internal/intl"
	"github.com/markalston/virt-dashboard/internal/search"
	"github.com/markalston/virt-dashboard/internal/snapshot"
	"github.com/markalston/virt-dashboard/internal/view"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenFilePicker Screen = iota
	ScreenDashboard
)

// Layout constants
const (
	minTerminalWidth = 80 // Frame never renders narrower than this
	panelPadding     = 6  // Panel border (2) plus horizontal padding (4)
	frameOverhead    = 8  // Header, panel border and padding, footer, separators
	minContentHeight = 5
)

const requestTimeout = 30 * time.Second

// Navigator resolves a drill-down search, returning the query it applied
type Navigator interface {
	Navigate(ctx context.Context, req search.Request) (string, error)
}

// LocalNavigator applies searches to an in-process search.Navigator
type LocalNavigator struct {
	Navigator search.Navigator
}

// Navigate validates req and hands it to the wrapped navigator
func (n LocalNavigator) Navigate(ctx context.Context, req search.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := req.Validate(); err != nil {
		return "", err
	}
	search.Apply(n.Navigator, req)
	return req.Query(), nil
}

// Config wires the app to its snapshot source and collaborators
type Config struct {
	// Source is fetched on start and on refresh. When nil the app opens on
	// the file picker.
	Source snapshot.Source
	// Refresh asks the backend for a new collection before refetching
	Refresh   func(ctx context.Context) error
	Navigator Navigator
	Localizer intl.Localizer
	// PickFiles enables switching snapshot files from the dashboard
	PickFiles   bool
	RecentFiles *recentfiles.RecentFiles
	SamplesDir  string
}

// snapshotLoadedMsg is sent when a fetch or refresh completes
type snapshotLoadedMsg struct {
	snap *snapshot.Snapshot
	err  error
}

// navigatedMsg is sent when a drill-down search completes
type navigatedMsg struct {
	query string
	err   error
}

// App is the root model for the TUI
type App struct {
	cfg        Config
	builder    *view.GlobalDashboard
	keys       KeyMap
	screen     Screen
	width      int
	height     int
	err        error
	status     string
	loading    bool
	snap       *snapshot.Snapshot
	state      view.DashboardState
	focus      int
	selected   int
	lastUpdate time.Time
	sourceName string
	now        func() time.Time

	// Child models
	dashboard  *dashboard.Dashboard
	viewport   viewport.Model
	help       help.Model
	filePicker *filepicker.FilePicker
}

// New creates a TUI application
func New(cfg Config) (*App, error) {
	if cfg.Localizer == nil {
		cfg.Localizer = intl.New("en")
	}
	builder, err := view.NewGlobalDashboard(cfg.Localizer)
	if err != nil {
		return nil, fmt.Errorf("building dashboard: %w", err)
	}

	a := &App{
		cfg:       cfg,
		builder:   builder,
		keys:      DefaultKeyMap(),
		screen:    ScreenDashboard,
		dashboard: dashboard.New(nil, 0, 0),
		viewport:  viewport.New(0, 0),
		help:      help.New(),
		now:       time.Now,
	}
	if cfg.Source == nil {
		a.cfg.PickFiles = true
		a.openFilePicker()
	} else {
		a.sourceName = cfg.Source.Name()
		a.loading = true
	}
	return a, nil
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	if a.cfg.Source == nil {
		return nil
	}
	return a.load(false)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		if a.filePicker != nil {
			a.filePicker.Update(msg)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.screen == ScreenFilePicker {
			return a.updateFilePicker(msg)
		}
		return a.updateDashboard(msg)

	case filepicker.FileSelectedMsg:
		return a.handleFileSelected(msg)

	case filepicker.CancelledMsg:
		if a.snap == nil {
			return a, tea.Quit
		}
		a.screen = ScreenDashboard
		a.filePicker = nil
		return a, nil

	case snapshotLoadedMsg:
		a.loading = false
		if msg.err != nil {
			a.err = msg.err
			debuglog.Error("Loading snapshot", msg.err)
			return a, nil
		}
		a.err = nil
		a.setSnapshot(msg.snap)
		debuglog.Log("Snapshot loaded", "source", msg.snap.Source, "collected_at", msg.snap.CollectedAt)
		return a, nil

	case navigatedMsg:
		if msg.err != nil {
			a.err = msg.err
			debuglog.Error("Navigating", msg.err)
			return a, nil
		}
		a.err = nil
		a.status = "Search: " + msg.query
		return a, nil
	}

	return a, nil
}

func (a *App) updateFilePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.filePicker == nil {
		return a, nil
	}
	model, cmd := a.filePicker.Update(msg)
	a.filePicker = model.(*filepicker.FilePicker)
	return a, cmd
}

func (a *App) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil
	case key.Matches(msg, a.keys.Refresh):
		if a.cfg.Source == nil || a.loading {
			return a, nil
		}
		a.loading = true
		a.status = ""
		return a, a.load(true)
	case a.dialogOpen():
		return a.updateDialog(msg)
	case key.Matches(msg, a.keys.Left):
		a.moveFocus(-1)
	case key.Matches(msg, a.keys.Right):
		a.moveFocus(1)
	case key.Matches(msg, a.keys.Open):
		if a.snap != nil {
			a.setDialog(view.CardState{}.Open())
		}
	case key.Matches(msg, a.keys.Back):
		if a.cfg.PickFiles {
			a.openFilePicker()
		}
	}
	return a, nil
}

func (a *App) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := a.dialogRows()
	switch {
	case key.Matches(msg, a.keys.Close):
		a.setDialog(a.state.Card(a.focused()).Close())
	case key.Matches(msg, a.keys.Up):
		if a.selected > 0 {
			a.selectRow(a.selected - 1)
		}
	case key.Matches(msg, a.keys.Down):
		if a.selected < len(rows)-1 {
			a.selectRow(a.selected + 1)
		}
	case key.Matches(msg, a.keys.Search, a.keys.Open):
		if a.selected < len(rows) && rows[a.selected].Action != nil && a.cfg.Navigator != nil {
			return a, a.navigate(*rows[a.selected].Action)
		}
	}
	return a, nil
}

func (a *App) handleFileSelected(msg filepicker.FileSelectedMsg) (tea.Model, tea.Cmd) {
	if a.cfg.RecentFiles != nil {
		if err := a.cfg.RecentFiles.Add(msg.Path); err != nil {
			debuglog.Error("Saving recent files", err)
		}
	}
	a.cfg.Source = snapshot.FileSource{Path: msg.Path}
	a.sourceName = filepath.Base(msg.Path)
	a.filePicker = nil
	a.screen = ScreenDashboard
	a.err = nil
	a.status = ""
	a.setSnapshot(msg.Snapshot)
	return a, nil
}

func (a *App) openFilePicker() {
	var recent []string
	if a.cfg.RecentFiles != nil {
		recent = a.cfg.RecentFiles.Paths()
	}
	var found []samples.SampleFile
	if a.cfg.SamplesDir != "" {
		s, err := samples.Discover(a.cfg.SamplesDir)
		if err != nil {
			debuglog.Error("Discovering samples", err)
		}
		found = s
	}

	a.filePicker = filepicker.New(recent, found)
	a.filePicker.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	a.screen = ScreenFilePicker
}

func (a *App) focused() view.Resource {
	return view.Resources[a.focus]
}

func (a *App) dialogOpen() bool {
	return a.state.Card(a.focused()).DialogVisible
}

func (a *App) moveFocus(delta int) {
	n := len(view.Resources)
	a.focus = (a.focus + delta + n) % n
	a.dashboard.SetFocus(a.focused())
}

// setDialog replaces the focused card's dialog state and resets the row selection
func (a *App) setDialog(st view.CardState) {
	a.state = a.state.WithCard(a.focused(), st)
	a.selected = 0
	a.viewport.GotoTop()
	a.rebuild()
}

func (a *App) selectRow(i int) {
	a.selected = i
	a.dashboard.SetSelected(i)
	a.syncDialog()
}

func (a *App) dialogRows() []view.ListRow {
	card := a.dashboard.OpenCard()
	if card == nil {
		return nil
	}
	return dashboard.DialogRows(card.Dialog)
}

func (a *App) setSnapshot(s *snapshot.Snapshot) {
	a.snap = s
	a.lastUpdate = a.now()
	a.rebuild()
}

// rebuild renders the current snapshot with the current dialog state
func (a *App) rebuild() {
	if a.snap == nil {
		return
	}
	v := a.builder.Build(a.snap, a.state)
	a.dashboard.Update(&v)
	a.dashboard.SetFocus(a.focused())

	if rows := a.dialogRows(); a.selected >= len(rows) {
		a.selected = max(0, len(rows)-1)
	}
	a.dashboard.SetSelected(a.selected)
	a.syncDialog()
}

// syncDialog copies the dialog into the viewport and scrolls the selected
// row into view
func (a *App) syncDialog() {
	content, line := a.dashboard.DialogView()
	a.viewport.SetContent(content)
	if line < 0 || a.viewport.Height <= 0 {
		return
	}
	if line < a.viewport.YOffset {
		a.viewport.SetYOffset(line)
	} else if line >= a.viewport.YOffset+a.viewport.Height {
		a.viewport.SetYOffset(line - a.viewport.Height + 1)
	}
}

func (a *App) resize() {
	a.dashboard.SetSize(a.contentWidth(), a.contentHeight())
	a.viewport.Width = a.contentWidth()
	a.viewport.Height = a.contentHeight()
	a.help.Width = a.frameWidth()
	a.syncDialog()
}

// load fetches the snapshot, asking the backend to refresh first when
// refresh is set and a refresh hook is configured
func (a *App) load(refresh bool) tea.Cmd {
	src, backendRefresh := a.cfg.Source, a.cfg.Refresh
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if refresh && backendRefresh != nil {
			if err := backendRefresh(ctx); err != nil {
				return snapshotLoadedMsg{err: fmt.Errorf("refreshing snapshot: %w", err)}
			}
		}
		s, err := src.Fetch(ctx)
		return snapshotLoadedMsg{snap: s, err: err}
	}
}

func (a *App) navigate(req search.Request) tea.Cmd {
	nav := a.cfg.Navigator
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		q, err := nav.Navigate(ctx, req)
		return navigatedMsg{query: q, err: err}
	}
}

// View implements tea.Model
func (a *App) View() string {
	var content string
	switch a.screen {
	case ScreenFilePicker:
		if a.filePicker != nil {
			content = a.filePicker.View()
		}
	default:
		content = a.viewDashboard()
	}
	return a.wrapWithFrame(content)
}

// viewDashboard renders the dashboard panel, or the open dialog in its
// place, followed by status lines
func (a *App) viewDashboard() string {
	body := a.dashboard.View()
	if a.dashboard.OpenCard() != nil {
		body = a.viewport.View()
	}
	lines := []string{styles.ActivePanel.Width(a.frameWidth() - 2).Render(body)}

	if a.err != nil {
		lines = append(lines, styles.StatusCritical.Render("Error: "+a.err.Error()))
	}
	if a.loading && a.snap != nil {
		lines = append(lines, styles.Subtitle.Render(icons.Refresh.String()+" Refreshing..."))
	}
	if a.status != "" {
		lines = append(lines, styles.Subtitle.Render(icons.Search.String()+" "+a.status))
	}
	if a.help.ShowAll {
		lines = append(lines, a.help.View(a.keys))
	}
	return strings.Join(lines, "\n")
}

// frameWidth is one column short of the terminal to avoid wrapping on
// some terminals, but never below minTerminalWidth
func (a *App) frameWidth() int {
	return max(a.width-1, minTerminalWidth)
}

// contentWidth is the width inside the dashboard panel
func (a *App) contentWidth() int {
	return a.frameWidth() - panelPadding
}

// contentHeight is the height available inside the dashboard panel
func (a *App) contentHeight() int {
	return max(a.height-frameOverhead, minContentHeight)
}

// renderHeader creates the header bar with app branding and context
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	left := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("Virtualization Dashboard"))

	right := ""
	if a.sourceName != "" && a.screen == ScreenDashboard {
		right = " " + contextStyle.Render(a.sourceName) + " "
	}

	fill := max(0, width-4-lipgloss.Width(left)-lipgloss.Width(right))
	return borderStyle.Render("╭─" + left + strings.Repeat("─", fill) + right + "─╮")
}

// shortcuts lists the footer hints for the current screen
func (a *App) shortcuts() []string {
	switch {
	case a.screen == ScreenFilePicker:
		return []string{"↑↓ Navigate", "Enter Select", "Esc Back", "ctrl+c Quit"}
	case a.dialogOpen():
		return []string{"↑↓ Row", "s Search", "Esc Close", "r Refresh", "q Quit"}
	case a.cfg.PickFiles:
		return []string{"←→ Card", "Enter Details", "r Refresh", "b File", "? Help", "q Quit"}
	default:
		return []string{"←→ Card", "Enter Details", "r Refresh", "? Help", "q Quit"}
	}
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	shortcuts := a.shortcuts()
	styled := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		k, label, _ := strings.Cut(s, " ")
		styled = append(styled, keyStyle.Render(k)+" "+labelStyle.Render(label))
	}
	left := " " + strings.Join(styled, "  ")

	right := ""
	if !a.lastUpdate.IsZero() && a.screen == ScreenDashboard {
		right = statusStyle.Render("Updated "+a.formatTimeSince(a.lastUpdate)) + " "
	}

	fill := max(0, width-4-lipgloss.Width(left)-lipgloss.Width(right))
	return borderStyle.Render("╰─" + left + strings.Repeat("─", fill) + right + "─╯")
}

// formatTimeSince formats a duration since the given time in human-readable form
func (a *App) formatTimeSince(t time.Time) string {
	d := a.now().Sub(t)

	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI
func Run(cfg Config) error {
	app, err := New(cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
