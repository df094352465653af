// ABOUTME: File picker TUI component for choosing a snapshot file
// ABOUTME: Offers recent files, a path prompt and bundled sample snapshots

package filepicker

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/virt-dashboard/cli/internal/tui/samples"
	"github.com/markalston/virt-dashboard/cli/internal/tui/styles"
	"github.com/markalston/virt-dashboard/internal/snapshot"
)

type state int

const (
	stateList state = iota
	stateInput
	stateSamples
)

// FileSelectedMsg is sent once a file has been read and validated
type FileSelectedMsg struct {
	Path     string
	Snapshot *snapshot.Snapshot
}

// CancelledMsg is sent when the user backs out of the picker
type CancelledMsg struct{}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Select: key.NewBinding(key.WithKeys("enter")),
	Back:   key.NewBinding(key.WithKeys("esc", "b")),
}

var (
	selectedStyle = lipgloss.NewStyle().Foreground(styles.Accent)
	normalStyle   = lipgloss.NewStyle().Foreground(styles.Text)
	errorStyle    = lipgloss.NewStyle().Foreground(styles.Danger)
	dividerStyle  = lipgloss.NewStyle().Foreground(styles.Muted)
)

// FilePicker is the snapshot file selection component
type FilePicker struct {
	recentFiles []string
	samples     []samples.SampleFile
	cursor      int
	state       state
	textInput   textinput.Model
	err         string
	width       int
	height      int
}

// New creates a FilePicker
func New(recentFiles []string, sampleFiles []samples.SampleFile) *FilePicker {
	ti := textinput.New()
	ti.Placeholder = "/path/to/snapshot.json"
	ti.CharLimit = 256
	ti.Width = 60

	return &FilePicker{
		recentFiles: recentFiles,
		samples:     sampleFiles,
		state:       stateList,
		textInput:   ti,
	}
}

// Init implements tea.Model
func (fp *FilePicker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (fp *FilePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		fp.width = msg.Width
		fp.height = msg.Height
		return fp, nil

	case tea.KeyMsg:
		fp.err = ""

		switch fp.state {
		case stateList:
			return fp.updateList(msg)
		case stateInput:
			return fp.updateInput(msg)
		case stateSamples:
			return fp.updateSamples(msg)
		}
	}

	return fp, nil
}

func (fp *FilePicker) moveCursor(msg tea.KeyMsg, count int) bool {
	switch {
	case key.Matches(msg, keys.Up):
		if fp.cursor > 0 {
			fp.cursor--
		}
		return true
	case key.Matches(msg, keys.Down):
		if fp.cursor < count-1 {
			fp.cursor++
		}
		return true
	}
	return false
}

func (fp *FilePicker) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if fp.moveCursor(msg, fp.listItemCount()) {
		return fp, nil
	}

	switch {
	case key.Matches(msg, keys.Select):
		return fp.selectListItem()
	case key.Matches(msg, keys.Back):
		return fp, func() tea.Msg { return CancelledMsg{} }
	}
	return fp, nil
}

func (fp *FilePicker) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fp.state = stateList
		fp.textInput.SetValue("")
		fp.textInput.Blur()
		return fp, nil
	case "enter":
		path := strings.TrimSpace(fp.textInput.Value())
		if path == "" {
			fp.err = "Please enter a file path"
			return fp, nil
		}
		return fp.loadFile(path)
	}

	var cmd tea.Cmd
	fp.textInput, cmd = fp.textInput.Update(msg)
	return fp, cmd
}

func (fp *FilePicker) updateSamples(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// the last row is [back]
	if fp.moveCursor(msg, len(fp.samples)+1) {
		return fp, nil
	}

	switch {
	case key.Matches(msg, keys.Select):
		if fp.cursor == len(fp.samples) {
			fp.state = stateList
			fp.cursor = 0
			return fp, nil
		}
		return fp.loadFile(fp.samples[fp.cursor].Path)
	case key.Matches(msg, keys.Back):
		fp.state = stateList
		fp.cursor = 0
	}
	return fp, nil
}

func (fp *FilePicker) listItemCount() int {
	count := len(fp.recentFiles) + 1
	if len(fp.samples) > 0 {
		count++
	}
	return count
}

func (fp *FilePicker) selectListItem() (tea.Model, tea.Cmd) {
	recentCount := len(fp.recentFiles)

	switch {
	case fp.cursor < recentCount:
		return fp.loadFile(fp.recentFiles[fp.cursor])
	case fp.cursor == recentCount:
		fp.state = stateInput
		fp.textInput.Focus()
		return fp, textinput.Blink
	case len(fp.samples) > 0 && fp.cursor == recentCount+1:
		fp.state = stateSamples
		fp.cursor = 0
	}
	return fp, nil
}

// loadFile reads and validates path, leaving an error on the picker when
// the file is unreadable or not a snapshot
func (fp *FilePicker) loadFile(path string) (tea.Model, tea.Cmd) {
	expanded := expandPath(path)

	data, err := os.ReadFile(expanded)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fp.err = "File not found: " + path
		return fp, nil
	case errors.Is(err, fs.ErrPermission):
		fp.err = "Cannot read file: permission denied"
		return fp, nil
	case err != nil:
		fp.err = "Error reading file: " + err.Error()
		return fp, nil
	}

	s, err := snapshot.Decode(bytes.NewReader(data))
	if err != nil {
		fp.err = err.Error()
		return fp, nil
	}
	if abs, err := filepath.Abs(expanded); err == nil {
		expanded = abs
	}

	return fp, func() tea.Msg {
		return FileSelectedMsg{Path: expanded, Snapshot: s}
	}
}

// expandPath expands a leading ~ to the home directory
func expandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}

// SetError sets an error message to display
func (fp *FilePicker) SetError(msg string) {
	fp.err = msg
}

// View implements tea.Model
func (fp *FilePicker) View() string {
	var b strings.Builder
	switch fp.state {
	case stateInput:
		b.WriteString(styles.Title.Render("Enter snapshot path"))
		b.WriteString("\n")
		b.WriteString(fp.textInput.View())
		b.WriteString("\n")
	case stateSamples:
		b.WriteString(styles.Title.Render("Select sample snapshot"))
		b.WriteString("\n")
		for i, s := range fp.samples {
			b.WriteString(fp.item(i, s.Name))
		}
		b.WriteString(fp.item(len(fp.samples), "[back]"))
	default:
		fp.viewList(&b)
	}

	if fp.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + fp.err))
	}
	return b.String()
}

func (fp *FilePicker) item(i int, label string) string {
	if i == fp.cursor {
		return "> " + selectedStyle.Render(label) + "\n"
	}
	return "  " + normalStyle.Render(label) + "\n"
}

func (fp *FilePicker) viewList(b *strings.Builder) {
	b.WriteString(styles.Title.Render("Select snapshot file"))
	b.WriteString("\n")

	if len(fp.recentFiles) > 0 {
		b.WriteString(styles.Subtitle.Render("Recent files:"))
		b.WriteString("\n")
		for i, path := range fp.recentFiles {
			b.WriteString(fp.item(i, shortenPath(path, fp.width-10)))
		}
		b.WriteString("\n")

		dividerWidth := 40
		if fp.width > 4 {
			dividerWidth = min(40, fp.width-4)
		}
		b.WriteString(dividerStyle.Render(strings.Repeat("─", dividerWidth)))
		b.WriteString("\n")
	}

	idx := len(fp.recentFiles)
	b.WriteString(fp.item(idx, "Enter path..."))
	if len(fp.samples) > 0 {
		b.WriteString(fp.item(idx+1, "Load sample snapshot..."))
	}
}

// shortenPath keeps the tail of long paths
func shortenPath(path string, maxLen int) string {
	if maxLen < 10 || len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-(maxLen-3):]
}
