// ABOUTME: Utilization progress bar with visual threshold zones
// ABOUTME: Shows green/amber/red regions at the utilization severity cutoffs

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/virt-dashboard/internal/threshold"
)

// ProgressBarConfig holds configuration for the progress bar
type ProgressBarConfig struct {
	Width      int
	Thresholds threshold.Set
	OKColor    lipgloss.Color
	WarnColor  lipgloss.Color
	CritColor  lipgloss.Color
	EmptyColor lipgloss.Color
	ShowZones  bool // Show threshold markers in the bar
}

// DefaultProgressBarConfig uses the utilization thresholds (75% / 90%)
func DefaultProgressBarConfig() ProgressBarConfig {
	return ProgressBarConfig{
		Width:      20,
		Thresholds: threshold.Utilization,
		OKColor:    BadgeOKBg,
		WarnColor:  BadgeWarnBg,
		CritColor:  BadgeCritBg,
		EmptyColor: lipgloss.Color("#374151"),
		ShowZones:  true,
	}
}

func clampPercent(percent float64) float64 {
	return max(0, min(100, percent))
}

// filledCells returns how many of width cells percent covers
func filledCells(percent float64, width int) int {
	return min(width, int(clampPercent(percent)/100.0*float64(width)))
}

// ProgressBar renders a progress bar whose filled cells take the color of
// the zone they fall in
func ProgressBar(percent float64, config ProgressBarConfig) string {
	if config.Width <= 0 {
		config.Width = 20
	}

	filled := filledCells(percent, config.Width)
	warnPos := int(config.Thresholds.WarningPct / 100.0 * float64(config.Width))
	critPos := int(config.Thresholds.ErrorPct / 100.0 * float64(config.Width))

	var bar strings.Builder
	bar.WriteString("[")
	for i := range config.Width {
		char, color := "░", config.EmptyColor
		switch {
		case i < filled && i >= critPos:
			char, color = "█", config.CritColor
		case i < filled && i >= warnPos:
			char, color = "█", config.WarnColor
		case i < filled:
			char, color = "█", config.OKColor
		case config.ShowZones && (i == warnPos || i == critPos):
			char = "│"
		}
		bar.WriteString(lipgloss.NewStyle().Foreground(color).Render(char))
	}
	bar.WriteString("]")
	return bar.String()
}

// ProgressBarWithLabel renders the bar followed by the percentage and the
// severity icon
func ProgressBarWithLabel(percent float64, config ProgressBarConfig) string {
	severity := threshold.Classify(percent, 100, config.Thresholds)
	bg, _ := severityColors(severity)
	label := lipgloss.NewStyle().Foreground(bg).Render(fmt.Sprintf("%3.0f%%", percent))
	return fmt.Sprintf("%s %s %s", ProgressBar(percent, config), label, SeverityIcon(severity))
}

// CompactProgressBar renders a borderless bar for drill-down rows
func CompactProgressBar(percent float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		width = 10
	}
	filled := filledCells(percent, width)

	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("▓", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")).Render(strings.Repeat("░", width-filled))
}
