// ABOUTME: Heat map view model with threshold-bucketed cells
// ABOUTME: Each cell carries its color band and a search action

package view

import (
	"github.com/markalston/virt-dashboard/internal/intl"
	"github.com/markalston/virt-dashboard/internal/search"
	"github.com/markalston/virt-dashboard/internal/snapshot"
	"github.com/markalston/virt-dashboard/internal/threshold"
)

// HeatMapCell is one rendered heat map block.
type HeatMapCell struct {
	Name    string          `json:"name"`
	Value   float64         `json:"value"`
	Percent string          `json:"percent"`
	Level   int             `json:"level"`
	Color   string          `json:"color"`
	Action  *search.Request `json:"action,omitempty"`
}

// HeatMapView is a titled grid of cells.
type HeatMapView struct {
	Title string        `json:"title"`
	Cells []HeatMapCell `json:"cells"`
}

// BuildHeatMap renders cells in input order. action may be nil.
func BuildHeatMap(loc intl.Localizer, title string, cells []snapshot.HeatMapCell,
	action func(cell snapshot.HeatMapCell) *search.Request) HeatMapView {
	v := HeatMapView{Title: title, Cells: make([]HeatMapCell, 0, len(cells))}
	for _, c := range cells {
		level := threshold.HeatMapLevel(c.Value)
		cell := HeatMapCell{
			Name:    c.Name,
			Value:   c.Value,
			Percent: loc.Number0D(c.Value*100) + "%",
			Level:   level,
			Color:   threshold.HeatMapBuckets[level].Color,
		}
		if action != nil {
			cell.Action = action(c)
		}
		v.Cells = append(v.Cells, cell)
	}
	return v
}
