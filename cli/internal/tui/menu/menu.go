// ABOUTME: Snapshot source selection menu for TUI startup
// ABOUTME: Lets the user choose between the backend API and a snapshot file

package menu

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// ErrAPINotConfigured is returned when the API is chosen without a URL
var ErrAPINotConfigured = errors.New("backend API URL is not configured")

// DataSource represents the selected snapshot source
type DataSource int

const (
	SourceAPI DataSource = iota
	SourceFile
)

type option struct {
	label   string
	value   DataSource
	enabled bool
}

// Menu represents the source selection menu
type Menu struct {
	options  []option
	selected DataSource
}

// New creates a source menu. The API option is disabled when apiURL is empty.
func New(apiURL string) *Menu {
	apiLabel := "Backend API"
	if apiURL != "" {
		apiLabel = fmt.Sprintf("Backend API (%s)", apiURL)
	}
	selected := SourceAPI
	if apiURL == "" {
		selected = SourceFile
	}
	return &Menu{
		options: []option{
			{label: apiLabel, value: SourceAPI, enabled: apiURL != ""},
			{label: "Snapshot file", value: SourceFile, enabled: true},
		},
		selected: selected,
	}
}

func (m *Menu) form() *huh.Form {
	options := make([]huh.Option[DataSource], 0, len(m.options))
	for _, opt := range m.options {
		label := opt.label
		if !opt.enabled {
			label += " (not configured)"
		}
		options = append(options, huh.NewOption(label, opt.value))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[DataSource]().
				Title("Select snapshot source").
				Options(options...).
				Value(&m.selected),
		),
	).WithTheme(huh.ThemeBase())
}

// Run displays the menu and returns the selected source
func (m *Menu) Run() (DataSource, error) {
	if err := m.form().Run(); err != nil {
		return 0, err
	}
	return m.validate()
}

func (m *Menu) validate() (DataSource, error) {
	for _, opt := range m.options {
		if opt.value == m.selected && !opt.enabled {
			return 0, ErrAPINotConfigured
		}
	}
	return m.selected, nil
}

// String returns the string representation of a DataSource
func (ds DataSource) String() string {
	switch ds {
	case SourceAPI:
		return "api"
	case SourceFile:
		return "file"
	default:
		return "unknown"
	}
}
