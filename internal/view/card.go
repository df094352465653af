// ABOUTME: Utilization trend card view model and its dialog state
// ABOUTME: Summary figure, donut, sparkline, and drill-down dialog sections

package view

import (
	"errors"
	"fmt"

	"github.com/markalston/virt-dashboard/internal/intl"
	"github.com/markalston/virt-dashboard/internal/ranking"
	"github.com/markalston/virt-dashboard/internal/search"
	"github.com/markalston/virt-dashboard/internal/snapshot"
	"github.com/markalston/virt-dashboard/internal/threshold"
	"github.com/markalston/virt-dashboard/internal/units"
)

// CenterLabel selects what the donut shows in its middle.
type CenterLabel string

const (
	CenterPercent CenterLabel = "percent"
	CenterUsed    CenterLabel = "used"
)

// SparklineTooltip selects the sparkline tooltip format.
type SparklineTooltip string

const (
	TooltipPercentPerDate SparklineTooltip = "percentPerDate"
	TooltipValuePerDate   SparklineTooltip = "valuePerDate"
)

// Category is a drill-down category in the card dialog.
type Category string

const (
	CategoryHosts   Category = "hosts"
	CategoryStorage Category = "storage"
	CategoryVMs     Category = "vms"
)

// CardState is the dialog visibility of one utilization card. The zero value
// is hidden.
type CardState struct {
	DialogVisible bool `json:"dialogVisible"`
}

// Open returns the state with the dialog shown.
func (s CardState) Open() CardState {
	s.DialogVisible = true
	return s
}

// Close returns the state with the dialog hidden.
func (s CardState) Close() CardState {
	s.DialogVisible = false
	return s
}

// CardConfig configures a UtilizationCard.
//
// Unit must be a units.Storage unit unless ShowValueAsPercentage is set, in
// which case it must be empty. CenterLabel defaults to CenterPercent,
// Sparkline to TooltipValuePerDate and FooterLabel to DefaultFooter.
type CardConfig struct {
	Title                 string
	Unit                  string
	DialogTitle           string
	ShowValueAsPercentage bool
	CenterLabel           CenterLabel
	Sparkline             SparklineTooltip
	FooterLabel           FooterLabel
}

// UtilizationCard builds utilization card views.
type UtilizationCard struct {
	cfg   CardConfig
	table units.Table
	loc   intl.Localizer
	lists map[Category]*ObjectUtilizationList
}

// NewUtilizationCard validates cfg and prepares the drill-down lists.
func NewUtilizationCard(cfg CardConfig, loc intl.Localizer) (*UtilizationCard, error) {
	if cfg.Title == "" {
		return nil, errors.New("utilization card: title is required")
	}
	if cfg.DialogTitle == "" {
		return nil, fmt.Errorf("utilization card %q: dialog title is required", cfg.Title)
	}
	if loc == nil {
		return nil, fmt.Errorf("utilization card %q: localizer is required", cfg.Title)
	}

	table := units.Storage
	if cfg.ShowValueAsPercentage {
		table = units.Percent
	}
	if !table.Has(cfg.Unit) {
		return nil, fmt.Errorf("utilization card %q: %w: %q", cfg.Title, units.ErrInvalidUnit, cfg.Unit)
	}

	if cfg.CenterLabel == "" {
		cfg.CenterLabel = CenterPercent
	}
	if cfg.Sparkline == "" {
		cfg.Sparkline = TooltipValuePerDate
	}
	if cfg.FooterLabel == nil {
		cfg.FooterLabel = DefaultFooter
	}

	c := &UtilizationCard{cfg: cfg, table: table, loc: loc}
	c.lists = map[Category]*ObjectUtilizationList{
		CategoryHosts:   c.newList(intl.UtilizationCardDialogEmptyHostList, search.PlaceHost, search.PrefixHost),
		CategoryStorage: c.newList(intl.UtilizationCardDialogEmptyStorageList, search.PlaceStorage, search.PrefixStorage),
		CategoryVMs:     c.newList(intl.UtilizationCardDialogEmptyVMList, search.PlaceVM, search.PrefixVM),
	}
	return c, nil
}

func (c *UtilizationCard) newList(empty intl.Key, place search.Place, prefix string) *ObjectUtilizationList {
	return NewObjectUtilizationList(ListConfig{
		Unit:        c.cfg.Unit,
		EmptyText:   c.loc.Msg(empty),
		FooterLabel: c.cfg.FooterLabel,
		OnNameClick: func(r ranking.Record) *search.Request {
			return &search.Request{
				Place:  place,
				Prefix: prefix,
				Filters: []search.Filter{
					{Name: search.FieldName, Values: []string{r.Name}},
				},
			}
		},
	}, c.loc)
}

// Config returns the card configuration with defaults applied.
func (c *UtilizationCard) Config() CardConfig {
	return c.cfg
}

// Donut is the used/total proportion indicator.
type Donut struct {
	Used        float64            `json:"used"`
	Total       float64            `json:"total"`
	Unit        string             `json:"unit"`
	Percent     float64            `json:"percent"`
	Severity    threshold.Severity `json:"severity"`
	CenterLabel CenterLabel        `json:"centerLabel"`
	CenterText  string             `json:"centerText"`
}

// Sparkline is the raw utilization history in the card's own unit.
type Sparkline struct {
	Points      []snapshot.HistoryPoint `json:"points"`
	Total       float64                 `json:"total"`
	Unit        string                  `json:"unit"`
	TooltipType SparklineTooltip        `json:"tooltipType"`
}

// DialogSection is one present drill-down category.
type DialogSection struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	List     ListView `json:"list"`
}

// Dialog is the drill-down modal.
type Dialog struct {
	Title    string          `json:"title"`
	Visible  bool            `json:"visible"`
	Sections []DialogSection `json:"sections"`
}

// CardView is a rendered utilization card.
type CardView struct {
	Title             string    `json:"title"`
	Available         string    `json:"available"`
	AvailableLabel    string    `json:"availableLabel"`
	AvailableOf       string    `json:"availableOf"`
	Overcommit        string    `json:"overcommit"`
	OvercommitTooltip string    `json:"overcommitTooltip"`
	Donut             Donut     `json:"donut"`
	Sparkline         Sparkline `json:"sparkline"`
	Dialog            Dialog    `json:"dialog"`
}

// Build renders data with the dialog visibility taken from state.
func (c *UtilizationCard) Build(data snapshot.Utilization, state CardState) CardView {
	v := CardView{
		Title:             c.cfg.Title,
		AvailableLabel:    c.loc.Msg(intl.Available),
		OvercommitTooltip: c.loc.Msg(intl.UtilizationCardOverCommitTooltip),
		Overcommit: c.loc.Msg(intl.UtilizationCardOverCommit,
			intl.Round(data.Overcommit, 0), intl.Round(data.Allocated, 0)),
	}

	available := data.Total - data.Used
	if c.cfg.ShowValueAsPercentage {
		v.Available = c.loc.Number0D(available) + "%"
		v.AvailableOf = c.loc.Msg(intl.UtilizationCardAvailableOfPercent, intl.Round(data.Total, 0))
	} else {
		summary := units.MustConvert(c.table, c.cfg.Unit, available, data.Total)
		v.Available = c.loc.Number1D(summary.Values[0])
		v.AvailableOf = c.loc.Msg(intl.UtilizationCardAvailableOfUnit, intl.Round(summary.Values[1], 1), summary.Unit)
	}

	v.Donut = c.donut(data.Used, data.Total)
	v.Sparkline = Sparkline{
		Points:      data.History,
		Total:       data.Total,
		Unit:        c.cfg.Unit,
		TooltipType: c.cfg.Sparkline,
	}
	v.Dialog = c.dialog(data.Utilization, state)
	return v
}

func (c *UtilizationCard) donut(used, total float64) Donut {
	conv := units.MustConvert(c.table, c.cfg.Unit, used, total)
	newUsed, newTotal := conv.Values[0], conv.Values[1]
	if newUsed == 0 && newTotal == 0 {
		newTotal = 1
	}

	d := Donut{
		Used:        newUsed,
		Total:       newTotal,
		Unit:        conv.Unit,
		Percent:     threshold.Percent(newUsed, newTotal),
		Severity:    threshold.Classify(newUsed, newTotal, threshold.Utilization),
		CenterLabel: c.cfg.CenterLabel,
	}
	switch c.cfg.CenterLabel {
	case CenterUsed:
		d.CenterText = fmt.Sprintf("%s %s", c.loc.Number1D(newUsed), conv.Unit)
		if conv.Unit == "" {
			d.CenterText = c.loc.Number1D(newUsed)
		}
	default:
		d.CenterText = c.loc.Number0D(d.Percent) + "%"
	}
	return d
}

func (c *UtilizationCard) dialog(dd snapshot.Drilldowns, state CardState) Dialog {
	d := Dialog{
		Title:    c.cfg.DialogTitle,
		Visible:  state.DialogVisible,
		Sections: []DialogSection{},
	}

	add := func(cat Category, title intl.Key, data snapshot.Drilldown) {
		if !data.Present {
			return
		}
		d.Sections = append(d.Sections, DialogSection{
			Category: cat,
			Title:    c.loc.Msg(title, len(data.Records)),
			List:     c.lists[cat].Build(data.Records),
		})
	}
	add(CategoryHosts, intl.UtilizationCardDialogHostListTitle, dd.Hosts)
	add(CategoryStorage, intl.UtilizationCardDialogStorageListTitle, dd.Storage)
	add(CategoryVMs, intl.UtilizationCardDialogVMListTitle, dd.VMs)
	return d
}
