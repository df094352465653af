// ABOUTME: Dashboard component rendering the composed dashboard view
// ABOUTME: Inventory blocks, utilization cards, heat maps and the drill-down dialog

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/virt-dashboard/cli/internal/tui/icons"
	"github.com/markalston/virt-dashboard/cli/internal/tui/styles"
	"github.com/markalston/virt-dashboard/cli/internal/tui/widgets"
	"github.com/markalston/virt-dashboard/internal/view"
)

// Layout constants
const (
	statusBlockWidth = 24
	minCardWidth     = 30
	nameWidth        = 16
	wideNameWidth    = 24
	rowBarWidth      = 20
)

var resourceIcons = map[view.Resource]icons.Icon{
	view.ResourceCPU:     icons.CPU,
	view.ResourceMemory:  icons.Memory,
	view.ResourceStorage: icons.Disk,
}

// Dashboard renders a DashboardView
type Dashboard struct {
	view     *view.DashboardView
	focus    view.Resource
	selected int
	width    int
	height   int
}

// New creates a dashboard for v, which may be nil while loading
func New(v *view.DashboardView, width, height int) *Dashboard {
	return &Dashboard{
		view:   v,
		focus:  view.ResourceCPU,
		width:  width,
		height: height,
	}
}

// Update replaces the rendered view
func (d *Dashboard) Update(v *view.DashboardView) {
	d.view = v
}

// SetSize updates the dashboard dimensions
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// SetFocus highlights the utilization card for r
func (d *Dashboard) SetFocus(r view.Resource) {
	d.focus = r
}

// SetSelected marks the drill-down row at index i of DialogRows
func (d *Dashboard) SetSelected(i int) {
	d.selected = i
}

// OpenCard returns the utilization card whose dialog is visible, if any
func (d *Dashboard) OpenCard() *view.UtilizationCardView {
	if d.view == nil {
		return nil
	}
	for i := range d.view.Utilization {
		if d.view.Utilization[i].Dialog.Visible {
			return &d.view.Utilization[i]
		}
	}
	return nil
}

// DialogRows flattens the rows of every dialog section in display order
func DialogRows(dialog view.Dialog) []view.ListRow {
	var rows []view.ListRow
	for _, s := range dialog.Sections {
		rows = append(rows, s.List.Rows...)
	}
	return rows
}

// View renders the dashboard
func (d *Dashboard) View() string {
	if d.view == nil {
		return lipgloss.NewStyle().Width(d.width).Render("Loading snapshot...")
	}

	sections := []string{
		styles.Title.Render(d.view.Title),
		d.renderInventory(),
		"",
		styles.Heading.Render(d.view.UtilizationHead),
		d.renderUtilization(),
		"",
		d.renderHeatMaps(d.view.ClusterHeatMaps),
		"",
		d.renderHeatMaps(d.view.StorageHeatMaps),
	}
	return lipgloss.NewStyle().Width(d.width).Render(strings.Join(sections, "\n"))
}

// wrapBlocks lays blocks out left to right, starting a new row when the
// next block would overflow width
func wrapBlocks(blocks []string, width int, gap string) string {
	var rows []string
	var row []string
	rowWidth := 0
	for _, b := range blocks {
		w := lipgloss.Width(b)
		if len(row) > 0 && rowWidth+lipgloss.Width(gap)+w > width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, rowWidth = nil, 0
		}
		if len(row) > 0 {
			row = append(row, gap)
			rowWidth += lipgloss.Width(gap)
		}
		row = append(row, b)
		rowWidth += w
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return strings.Join(rows, "\n")
}

func (d *Dashboard) renderInventory() string {
	config := widgets.DefaultMetricBlockConfig()
	config.Width = statusBlockWidth

	blocks := make([]string, 0, len(d.view.StatusCards))
	for _, c := range d.view.StatusCards {
		blocks = append(blocks, widgets.MetricBlock(icons.ForClass(c.MainIconClass),
			c.Title, c.TotalCount, statusSummary(c), config))
	}
	return wrapBlocks(blocks, d.width, " ")
}

// statusSummary renders the status rows of a card on one line
func statusSummary(c view.StatusCardView) string {
	if c.Empty != nil {
		if c.Empty.IconClass == "" {
			return c.Empty.Text
		}
		return strings.TrimSpace(icons.ForClass(c.Empty.IconClass).String() + " " + c.Empty.Text)
	}
	parts := make([]string, 0, len(c.Rows))
	for _, r := range c.Rows {
		parts = append(parts, r.Tooltip)
	}
	return strings.Join(parts, "  ")
}

func (d *Dashboard) cardWidth() int {
	if w := (d.width - 2) / len(view.Resources); w >= minCardWidth {
		return w
	}
	return max(d.width, minCardWidth)
}

func (d *Dashboard) renderUtilization() string {
	blocks := make([]string, 0, len(d.view.Utilization))
	for _, c := range d.view.Utilization {
		config := widgets.DefaultMetricBlockConfig()
		config.Width = d.cardWidth()
		if c.Resource == d.focus {
			config.BorderColor = styles.Primary
			config.TitleColor = styles.Accent
		}
		details := []string{
			fmt.Sprintf("%s %s %s", c.Available, c.AvailableLabel, c.AvailableOf),
			c.Overcommit,
		}
		blocks = append(blocks, widgets.UsageBlock(resourceIcons[c.Resource], c.Title,
			c.Donut.Percent, c.Donut.Severity, widgets.HistoryValues(c.Sparkline.Points), details, config))
	}
	return wrapBlocks(blocks, d.width, " ")
}

// heatTile renders one heat map cell on its bucket color
func heatTile(label, color string) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(color)).
		Foreground(lipgloss.Color("#000000")).
		Render(" " + label + " ")
}

func (d *Dashboard) renderHeatMaps(section view.HeatMapSection) string {
	lines := []string{styles.Heading.Render(section.Heading)}
	for _, m := range section.Maps {
		tiles := make([]string, 0, len(m.Cells))
		for _, c := range m.Cells {
			tiles = append(tiles, heatTile(c.Name+" "+c.Percent, c.Color))
		}
		lines = append(lines, styles.Subtitle.Render(m.Title))
		if len(tiles) == 0 {
			lines = append(lines, styles.Subtitle.Render("  -"))
			continue
		}
		lines = append(lines, wrapBlocks(tiles, d.width, " "))
	}

	legend := make([]string, 0, len(section.Legend))
	for _, b := range section.Legend {
		legend = append(legend, heatTile(b.Label, b.Color))
	}
	lines = append(lines, wrapBlocks(legend, d.width, " "))
	return strings.Join(lines, "\n")
}

// DialogView renders the open card's drill-down dialog and returns the line
// holding the selected row, or -1 when no row is selected.
func (d *Dashboard) DialogView() (string, int) {
	card := d.OpenCard()
	if card == nil {
		return "", -1
	}

	lines := []string{styles.Title.Render(card.Dialog.Title)}
	selectedLine := -1
	index := 0
	for _, s := range card.Dialog.Sections {
		lines = append(lines, styles.Heading.Render(s.Title))
		if s.List.Empty {
			lines = append(lines, styles.Subtitle.Render("  "+s.List.EmptyText), "")
			continue
		}
		width := nameWidth
		if s.List.NameClass == view.WideNameColumnClass {
			width = wideNameWidth
		}
		for _, r := range s.List.Rows {
			if index == d.selected {
				selectedLine = strings.Count(strings.Join(lines, "\n"), "\n") + 1
			}
			lines = append(lines, renderRow(r, width, index == d.selected))
			index++
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n"), selectedLine
}

func renderRow(r view.ListRow, width int, selected bool) string {
	cursor := "  "
	name := widgets.PadRight(widgets.Truncate(r.Name, width), width)
	if selected {
		cursor = styles.Selected.Render("> ")
		name = styles.Selected.Render(name)
	}
	return fmt.Sprintf("%s%s %s %s %s %s",
		cursor,
		name,
		widgets.CompactProgressBar(r.Percent, rowBarWidth, styles.SeverityColor(r.Severity)),
		styles.ForSeverity(r.Severity).Render(fmt.Sprintf("%3.0f%%", r.Percent)),
		widgets.TrendIndicator(r.TrendIconClass),
		styles.Subtitle.Render(r.Footer))
}
