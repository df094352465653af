// ABOUTME: Status badge widgets for quick visual status indication
// ABOUTME: Renders severity badges, status icons and trend arrows

package widgets

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/virt-dashboard/cli/internal/tui/icons"
	"github.com/markalston/virt-dashboard/internal/threshold"
)

// Badge colors
var (
	BadgeOKBg      = lipgloss.Color("#10B981")
	BadgeOKFg      = lipgloss.Color("#FFFFFF")
	BadgeWarnBg    = lipgloss.Color("#F59E0B")
	BadgeWarnFg    = lipgloss.Color("#000000")
	BadgeCritBg    = lipgloss.Color("#EF4444")
	BadgeCritFg    = lipgloss.Color("#FFFFFF")
	BadgeNeutralBg = lipgloss.Color("#6B7280")
	BadgeNeutralFg = lipgloss.Color("#FFFFFF")
)

func severityColors(s threshold.Severity) (bg, fg lipgloss.Color) {
	switch s {
	case threshold.Error:
		return BadgeCritBg, BadgeCritFg
	case threshold.Warning:
		return BadgeWarnBg, BadgeWarnFg
	default:
		return BadgeOKBg, BadgeOKFg
	}
}

// Badge renders text on the severity's background color
func Badge(text string, s threshold.Severity) string {
	bg, fg := severityColors(s)
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(fg).
		Padding(0, 1).
		Bold(true).
		Render(text)
}

// SeverityBadge renders OK, WARN or CRIT for a utilization severity
func SeverityBadge(s threshold.Severity) string {
	switch s {
	case threshold.Error:
		return Badge("CRIT", s)
	case threshold.Warning:
		return Badge("WARN", s)
	default:
		return Badge("OK", s)
	}
}

// SeverityIcon returns the colored status icon for a severity
func SeverityIcon(s threshold.Severity) string {
	bg, _ := severityColors(s)
	icon := icons.CheckOK
	switch s {
	case threshold.Error:
		icon = icons.Critical
	case threshold.Warning:
		icon = icons.Warning
	}
	return lipgloss.NewStyle().Foreground(bg).Render(icon.String())
}

// SeverityText returns styled text prefixed with the severity icon
func SeverityText(text string, s threshold.Severity) string {
	bg, _ := severityColors(s)
	return fmt.Sprintf("%s %s", SeverityIcon(s), lipgloss.NewStyle().Foreground(bg).Render(text))
}

// TrendIndicator returns an arrow for a drill-down trend icon class. Rising
// utilization is drawn as a warning; an empty class means no change.
func TrendIndicator(iconClass string) string {
	switch icons.ForClass(iconClass) {
	case icons.TrendUp:
		return lipgloss.NewStyle().Foreground(BadgeWarnBg).Render(icons.TrendUp.String())
	case icons.TrendDown:
		return lipgloss.NewStyle().Foreground(BadgeOKBg).Render(icons.TrendDown.String())
	}
	return lipgloss.NewStyle().Foreground(BadgeNeutralBg).Render("→")
}
