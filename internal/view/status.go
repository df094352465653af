// ABOUTME: Aggregate status card view model
// ABOUTME: Maps status counts to icon rows with tooltips and search actions

package view

import (
	"errors"
	"fmt"

	"github.com/markalston/virt-dashboard/internal/intl"
	"github.com/markalston/virt-dashboard/internal/search"
	"github.com/markalston/virt-dashboard/internal/snapshot"
)

// StatusType is a known kind of status count.
type StatusType string

const (
	StatusUp      StatusType = "up"
	StatusDown    StatusType = "down"
	StatusError   StatusType = "error"
	StatusWarning StatusType = "warning"
	StatusAlert   StatusType = "alert"
)

// StatusInfo is the label and icon shown for a status type.
type StatusInfo struct {
	Label     intl.Key
	IconClass string
}

var statusTypes = map[StatusType]StatusInfo{
	StatusUp:      {Label: intl.StatusTypeUp, IconClass: "fa fa-arrow-circle-o-up"},
	StatusDown:    {Label: intl.StatusTypeDown, IconClass: "fa fa-arrow-circle-o-down"},
	StatusError:   {Label: intl.StatusTypeError, IconClass: "pficon pficon-error-circle-o"},
	StatusWarning: {Label: intl.StatusTypeWarning, IconClass: "pficon pficon-warning-triangle-o"},
	StatusAlert:   {Label: intl.StatusTypeAlert, IconClass: "pficon pficon-flag"},
}

// UnknownStatus is used for any status type not in the table.
var UnknownStatus = StatusInfo{Label: intl.StatusTypeUnknown, IconClass: "fa fa-question"}

// LookupStatus returns the info for a status type, or UnknownStatus.
func LookupStatus(statusType string) StatusInfo {
	if info, ok := statusTypes[StatusType(statusType)]; ok {
		return info
	}
	return UnknownStatus
}

// DefaultNoStatusIconClass is shown next to the empty-state text unless the
// card hides it.
const DefaultNoStatusIconClass = "pficon pficon-ok"

// StatusCardConfig configures an aggregate status card.
//
// Defaults: NoStatusText is empty, NoStatusIconClass is
// DefaultNoStatusIconClass unless HideNoStatusIcon is set. A nil TotalAction
// or StatusAction leaves the header or rows without a search.
type StatusCardConfig struct {
	Title             string
	MainIconClass     string
	NoStatusText      string
	NoStatusIconClass string
	HideNoStatusIcon  bool
	TotalAction       *search.Request
	StatusAction      func(item snapshot.StatusItem) *search.Request
}

// AggregateStatusCard builds status card views from status counts.
type AggregateStatusCard struct {
	cfg StatusCardConfig
	loc intl.Localizer
}

// NewAggregateStatusCard validates cfg and applies defaults.
func NewAggregateStatusCard(cfg StatusCardConfig, loc intl.Localizer) (*AggregateStatusCard, error) {
	if cfg.Title == "" {
		return nil, errors.New("status card: title is required")
	}
	if cfg.MainIconClass == "" {
		return nil, fmt.Errorf("status card %q: main icon class is required", cfg.Title)
	}
	if loc == nil {
		return nil, fmt.Errorf("status card %q: localizer is required", cfg.Title)
	}
	if cfg.HideNoStatusIcon {
		cfg.NoStatusIconClass = ""
	} else if cfg.NoStatusIconClass == "" {
		cfg.NoStatusIconClass = DefaultNoStatusIconClass
	}
	return &AggregateStatusCard{cfg: cfg, loc: loc}, nil
}

// StatusRow is one clickable icon and count.
type StatusRow struct {
	Type      string          `json:"type"`
	IconClass string          `json:"iconClass"`
	Count     string          `json:"count"`
	Tooltip   string          `json:"tooltip"`
	Action    *search.Request `json:"action,omitempty"`
}

// EmptyStatusRow replaces the rows when there are no statuses.
type EmptyStatusRow struct {
	IconClass string `json:"iconClass,omitempty"`
	Text      string `json:"text"`
}

// StatusCardView is a rendered aggregate status card.
type StatusCardView struct {
	Title         string          `json:"title"`
	MainIconClass string          `json:"mainIconClass"`
	TotalCount    string          `json:"totalCount"`
	TotalAction   *search.Request `json:"totalAction,omitempty"`
	Rows          []StatusRow     `json:"rows"`
	Empty         *EmptyStatusRow `json:"empty,omitempty"`
}

// Build renders data. Rows keep the input order of the statuses.
func (c *AggregateStatusCard) Build(data snapshot.StatusCount) StatusCardView {
	v := StatusCardView{
		Title:         c.cfg.Title,
		MainIconClass: c.cfg.MainIconClass,
		TotalCount:    c.loc.Number0D(float64(data.TotalCount)),
		TotalAction:   c.cfg.TotalAction,
		Rows:          make([]StatusRow, 0, len(data.Statuses)),
	}

	if len(data.Statuses) == 0 {
		v.Empty = &EmptyStatusRow{IconClass: c.cfg.NoStatusIconClass, Text: c.cfg.NoStatusText}
		return v
	}

	for _, item := range data.Statuses {
		info := LookupStatus(item.Type)
		count := c.loc.Number0D(float64(item.Count))
		row := StatusRow{
			Type:      item.Type,
			IconClass: info.IconClass,
			Count:     count,
			Tooltip:   fmt.Sprintf("%s: %s", c.loc.Msg(info.Label), count),
		}
		if c.cfg.StatusAction != nil {
			row.Action = c.cfg.StatusAction(item)
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}
