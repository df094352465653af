// ABOUTME: Ranked drill-down list of named utilization records
// ABOUTME: Chooses the column layout and renders bars, footers and trends

package view

import (
	"fmt"

	"github.com/markalston/virt-dashboard/internal/intl"
	"github.com/markalston/virt-dashboard/internal/ranking"
	"github.com/markalston/virt-dashboard/internal/search"
	"github.com/markalston/virt-dashboard/internal/threshold"
	"github.com/markalston/virt-dashboard/internal/units"
)

// Column classes for the name and bar columns.
const (
	NameColumnClass     = "col-md-2"
	BarColumnClass      = "col-md-9"
	WideNameColumnClass = "col-md-3"
	NarrowBarClass      = "col-md-8"
)

// FooterLabel renders the text under a utilization bar.
type FooterLabel func(loc intl.Localizer, used, total float64, unit string) string

// PercentFooter renders "{n}% Used".
func PercentFooter(loc intl.Localizer, used, total float64, _ string) string {
	return loc.Msg(intl.PercentUsed, loc.Number0D(threshold.Percent(used, total)))
}

// StorageFooter renders the converted used amount, e.g. "1.5 TiB Used".
func StorageFooter(loc intl.Localizer, used, _ float64, unit string) string {
	m, err := units.ConvertOne(units.Storage, unit, used)
	if err != nil {
		m = units.Magnitude{Value: used, Unit: unit}
	}
	return fmt.Sprintf("%s %s %s", loc.Number1D(m.Value), m.Unit, loc.Msg(intl.Used))
}

// DefaultFooter renders "{used} of {total} {unit}".
func DefaultFooter(loc intl.Localizer, used, total float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%s of %s", loc.Number1D(used), loc.Number1D(total))
	}
	return fmt.Sprintf("%s of %s %s", loc.Number1D(used), loc.Number1D(total), unit)
}

// TrendIconClass returns the icon for a trend; TrendSame has none.
func TrendIconClass(t ranking.Trend) string {
	switch t {
	case ranking.TrendUp:
		return "pficon pficon-trend-up"
	case ranking.TrendDown:
		return "pficon pficon-trend-down"
	default:
		return ""
	}
}

// ListConfig configures an ObjectUtilizationList.
//
// A nil Thresholds uses threshold.Utilization, a nil FooterLabel uses
// DefaultFooter, and a zero NameThreshold uses ranking.DefaultNameThreshold.
type ListConfig struct {
	Unit          string
	EmptyText     string
	Thresholds    *threshold.Set
	FooterLabel   FooterLabel
	NameThreshold int
	OnNameClick   func(r ranking.Record) *search.Request
}

// ObjectUtilizationList builds drill-down list views.
type ObjectUtilizationList struct {
	cfg        ListConfig
	thresholds threshold.Set
	loc        intl.Localizer
}

// NewObjectUtilizationList applies defaults to cfg.
func NewObjectUtilizationList(cfg ListConfig, loc intl.Localizer) *ObjectUtilizationList {
	thresholds := threshold.Utilization
	if cfg.Thresholds != nil {
		thresholds = *cfg.Thresholds
	}
	if cfg.FooterLabel == nil {
		cfg.FooterLabel = DefaultFooter
	}
	if cfg.NameThreshold <= 0 {
		cfg.NameThreshold = ranking.DefaultNameThreshold
	}
	return &ObjectUtilizationList{cfg: cfg, thresholds: thresholds, loc: loc}
}

// ListRow is one ranked record.
type ListRow struct {
	Name           string             `json:"name"`
	Used           float64            `json:"used"`
	Total          float64            `json:"total"`
	Unit           string             `json:"unit"`
	Percent        float64            `json:"percent"`
	Severity       threshold.Severity `json:"severity"`
	Footer         string             `json:"footer"`
	TrendIconClass string             `json:"trendIconClass,omitempty"`
	Action         *search.Request    `json:"action,omitempty"`
}

// ListView is either the empty-state text or the ranked rows.
type ListView struct {
	Empty     bool      `json:"empty"`
	EmptyText string    `json:"emptyText,omitempty"`
	NameClass string    `json:"nameClass,omitempty"`
	BarClass  string    `json:"barClass,omitempty"`
	Rows      []ListRow `json:"rows,omitempty"`
}

// Build ranks records and renders them. An empty input renders only the
// empty-state text.
func (l *ObjectUtilizationList) Build(records []ranking.Record) ListView {
	if len(records) == 0 {
		return ListView{Empty: true, EmptyText: l.cfg.EmptyText}
	}

	ranked := ranking.Rank(records)
	v := ListView{
		NameClass: NameColumnClass,
		BarClass:  BarColumnClass,
		Rows:      make([]ListRow, 0, len(ranked)),
	}
	if ranking.ExceedsNameThreshold(ranked, l.cfg.NameThreshold) {
		v.NameClass = WideNameColumnClass
		v.BarClass = NarrowBarClass
	}

	for _, r := range ranked {
		row := ListRow{
			Name:           r.Name,
			Used:           r.Used,
			Total:          r.Total,
			Unit:           l.cfg.Unit,
			Percent:        threshold.Percent(r.Used, r.Total),
			Severity:       threshold.Classify(r.Used, r.Total, l.thresholds),
			Footer:         l.cfg.FooterLabel(l.loc, r.Used, r.Total, l.cfg.Unit),
			TrendIconClass: TrendIconClass(r.Trend),
		}
		if l.cfg.OnNameClick != nil {
			row.Action = l.cfg.OnNameClick(r)
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}
