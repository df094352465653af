// ABOUTME: Immutable dashboard data snapshot supplied by a data source
// ABOUTME: Inventory counts, global utilization, drill-downs, and heat maps

package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/markalston/virt-dashboard/internal/ranking"
)

// ErrNoSnapshot is returned when no snapshot has been collected yet.
var ErrNoSnapshot = errors.New("no snapshot available")

// StatusItem is the count of one status within an inventory card.
type StatusItem struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	// StatusValues are the search values that select this status.
	StatusValues []string `json:"statusValues,omitempty"`
	// SearchSince limits event searches to entries after this time.
	SearchSince string `json:"searchSince,omitempty"`
}

// StatusCount is the data of one aggregate status card.
type StatusCount struct {
	TotalCount int          `json:"totalCount"`
	Statuses   []StatusItem `json:"statuses"`
}

type Inventory struct {
	DC      StatusCount `json:"dc"`
	Cluster StatusCount `json:"cluster"`
	Host    StatusCount `json:"host"`
	Storage StatusCount `json:"storage"`
	Volume  StatusCount `json:"volume"`
	VM      StatusCount `json:"vm"`
	Event   StatusCount `json:"event"`
}

// HistoryPoint is one sample of a utilization trend.
type HistoryPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Drilldown is an optional category of ranked records. A category that is
// present but empty is distinct from one that is absent.
type Drilldown struct {
	Present bool
	Records []ranking.Record
}

// Some returns a present drill-down holding records.
func Some(records ...ranking.Record) Drilldown {
	if records == nil {
		records = []ranking.Record{}
	}
	return Drilldown{Present: true, Records: records}
}

// IsZero reports whether the category is absent.
func (d Drilldown) IsZero() bool {
	return !d.Present
}

func (d Drilldown) MarshalJSON() ([]byte, error) {
	if !d.Present {
		return []byte("null"), nil
	}
	records := d.Records
	if records == nil {
		records = []ranking.Record{}
	}
	return json.Marshal(records)
}

func (d *Drilldown) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Drilldown{}
		return nil
	}
	var records []ranking.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	*d = Some(records...)
	return nil
}

// Drilldowns are the per-category lists behind a utilization card.
type Drilldowns struct {
	Hosts   Drilldown `json:"hosts,omitzero"`
	Storage Drilldown `json:"storage,omitzero"`
	VMs     Drilldown `json:"vms,omitzero"`
}

// Utilization is the data of one utilization trend card.
type Utilization struct {
	Used        float64        `json:"used"`
	Total       float64        `json:"total"`
	Overcommit  float64        `json:"overcommit"`
	Allocated   float64        `json:"allocated"`
	History     []HistoryPoint `json:"history"`
	Utilization Drilldowns     `json:"utilization"`
}

type GlobalUtilization struct {
	CPU     Utilization `json:"cpu"`
	Memory  Utilization `json:"memory"`
	Storage Utilization `json:"storage"`
}

// HeatMapCell is one entity in a heat map; Value is a 0..1 fraction.
type HeatMapCell struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type HeatMapData struct {
	CPU     []HeatMapCell `json:"cpu"`
	Memory  []HeatMapCell `json:"memory"`
	Storage []HeatMapCell `json:"storage"`
}

// Snapshot is everything the dashboard renders for one refresh.
type Snapshot struct {
	Inventory         Inventory         `json:"inventory"`
	GlobalUtilization GlobalUtilization `json:"globalUtilization"`
	HeatMapData       HeatMapData       `json:"heatMapData"`
	CollectedAt       time.Time         `json:"collectedAt"`
	Source            string            `json:"source,omitempty"`
}

// Validate checks the invariants the views rely on.
func (s *Snapshot) Validate() error {
	var errs []error
	for name, u := range map[string]Utilization{
		"cpu":     s.GlobalUtilization.CPU,
		"memory":  s.GlobalUtilization.Memory,
		"storage": s.GlobalUtilization.Storage,
	} {
		if u.Used < 0 || u.Total < 0 {
			errs = append(errs, fmt.Errorf("%s: used and total must not be negative", name))
		}
		for cat, d := range map[string]Drilldown{
			"hosts":   u.Utilization.Hosts,
			"storage": u.Utilization.Storage,
			"vms":     u.Utilization.VMs,
		} {
			if err := validateRecords(d.Records); err != nil {
				errs = append(errs, fmt.Errorf("%s %s: %w", name, cat, err))
			}
		}
	}
	return errors.Join(errs...)
}

func validateRecords(records []ranking.Record) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.Name == "" {
			return errors.New("record without name")
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("duplicate record %q", r.Name)
		}
		seen[r.Name] = struct{}{}
		if r.Used < 0 || r.Total < 0 {
			return fmt.Errorf("record %q: used and total must not be negative", r.Name)
		}
		switch r.Trend {
		case "", ranking.TrendUp, ranking.TrendDown, ranking.TrendSame:
		default:
			return fmt.Errorf("record %q: unknown trend %q", r.Name, r.Trend)
		}
	}
	return nil
}
