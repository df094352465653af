// ABOUTME: Compact metric block widgets for dashboard displays
// ABOUTME: Bordered panels for inventory counts and utilization cards

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/virt-dashboard/cli/internal/tui/icons"
	"github.com/markalston/virt-dashboard/internal/threshold"
)

// MetricBlockConfig holds configuration for a metric block
type MetricBlockConfig struct {
	Width       int
	BorderColor lipgloss.Color
	TitleColor  lipgloss.Color
	ValueColor  lipgloss.Color
}

// DefaultMetricBlockConfig returns sensible defaults
func DefaultMetricBlockConfig() MetricBlockConfig {
	return MetricBlockConfig{
		Width:       24,
		BorderColor: lipgloss.Color("#6B7280"), // Muted gray
		TitleColor:  lipgloss.Color("#7C3AED"), // Purple
		ValueColor:  lipgloss.Color("#F9FAFB"), // Light
	}
}

const minBlockWidth = 12

// block draws a box of config.Width columns with the title set into the top
// border. Body lines wider than the box are cut.
func block(icon icons.Icon, title string, body []string, config MetricBlockConfig) string {
	width := max(config.Width, minBlockWidth)
	inner := width - 4

	titleStr := Truncate(fmt.Sprintf("%s %s", icon.String(), title), width-6)
	fill := max(0, width-5-lipgloss.Width(titleStr))
	border := lipgloss.NewStyle().Foreground(config.BorderColor)

	lines := make([]string, 0, len(body)+2)
	lines = append(lines, border.Render("┌─ ")+
		lipgloss.NewStyle().Foreground(config.TitleColor).Render(titleStr)+
		border.Render(" "+strings.Repeat("─", fill)+"┐"))
	for _, l := range body {
		lines = append(lines, border.Render("│ ")+PadRight(l, inner)+border.Render(" │"))
	}
	lines = append(lines, border.Render("└"+strings.Repeat("─", width-2)+"┘"))
	return strings.Join(lines, "\n")
}

// MetricBlock renders a count with a subtitle, e.g. an inventory card
func MetricBlock(icon icons.Icon, title, value, subtitle string, config MetricBlockConfig) string {
	inner := max(config.Width, minBlockWidth) - 4
	valueStyle := lipgloss.NewStyle().Foreground(config.ValueColor).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	return block(icon, title, []string{
		valueStyle.Render(Truncate(value, inner)),
		subtitleStyle.Render(Truncate(subtitle, inner)),
	}, config)
}

// UsageBlock renders a utilization card: percent and severity icon with the
// history sparkline, a zoned bar, then detail lines.
func UsageBlock(icon icons.Icon, title string, percent float64, severity threshold.Severity,
	history []float64, details []string, config MetricBlockConfig) string {
	inner := max(config.Width, minBlockWidth) - 4
	color, _ := severityColors(severity)

	percentStr := fmt.Sprintf("%3.0f%%", percent)
	head := lipgloss.NewStyle().Foreground(color).Bold(true).Render(percentStr) + " " + SeverityIcon(severity)
	if sparkWidth := inner - lipgloss.Width(head) - 2; sparkWidth > 0 && len(history) > 0 {
		head += "  " + Sparkline(history, sparkWidth, lipgloss.Color("#7C3AED"))
	}

	barConfig := DefaultProgressBarConfig()
	barConfig.Width = inner - 2 // brackets

	body := []string{head, ProgressBar(percent, barConfig)}
	detailStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	for _, d := range details {
		body = append(body, detailStyle.Render(Truncate(d, inner)))
	}
	return block(icon, title, body, config)
}

// Truncate shortens plain text to maxLen columns with an ellipsis
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > maxLen {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// PadRight pads styled text with spaces to width display columns
func PadRight(s string, width int) string {
	return s + strings.Repeat(" ", max(0, width-lipgloss.Width(s)))
}
