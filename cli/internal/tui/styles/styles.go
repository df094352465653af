// ABOUTME: Shared lipgloss styles for consistent TUI appearance
// ABOUTME: Defines colors, panels, and severity styles used across components

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/virt-dashboard/internal/threshold"
)

var (
	// Colors - Core palette
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Danger    = lipgloss.Color("#EF4444") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray
	Text      = lipgloss.Color("#F9FAFB") // Light
	Surface   = lipgloss.Color("#374151") // Empty bar segments
	Accent    = lipgloss.Color("#8B5CF6") // Selection highlight

	// Base styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted)

	Heading = lipgloss.NewStyle().
		Bold(true).
		Foreground(Text)

	// Status indicators
	StatusOK = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	StatusWarning = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	StatusCritical = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	// Panels
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(1, 2)

	ActivePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	// Selected drill-down row
	Selected = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	// Key style for keyboard shortcuts
	KeyStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	// Value style for emphasized data
	ValueStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)
)

// SeverityColor returns the palette color for a utilization severity.
func SeverityColor(s threshold.Severity) lipgloss.Color {
	switch s {
	case threshold.Error:
		return Danger
	case threshold.Warning:
		return Warning
	default:
		return Secondary
	}
}

// ForSeverity returns the status style for a utilization severity.
func ForSeverity(s threshold.Severity) lipgloss.Style {
	switch s {
	case threshold.Error:
		return StatusCritical
	case threshold.Warning:
		return StatusWarning
	default:
		return StatusOK
	}
}
