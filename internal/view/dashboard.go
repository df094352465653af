// ABOUTME: Global dashboard composition over one snapshot
// ABOUTME: Inventory cards, utilization cards, heat maps and their searches

package view

import (
	"fmt"
	"time"

	"github.com/markalston/virt-dashboard/internal/intl"
	"github.com/markalston/virt-dashboard/internal/search"
	"github.com/markalston/virt-dashboard/internal/snapshot"
	"github.com/markalston/virt-dashboard/internal/threshold"
)

// Resource identifies one of the global utilization cards.
type Resource string

const (
	ResourceCPU     Resource = "cpu"
	ResourceMemory  Resource = "memory"
	ResourceStorage Resource = "storage"
)

// Resources lists the utilization cards in display order.
var Resources = []Resource{ResourceCPU, ResourceMemory, ResourceStorage}

// ParseResource maps a name to a Resource.
func ParseResource(name string) (Resource, bool) {
	for _, r := range Resources {
		if string(r) == name {
			return r, true
		}
	}
	return "", false
}

// Row and column classes for the inventory cards.
const (
	StatusRowClass       = "row row-tile-pf"
	SevenColsClass       = "seven-cols"
	StatusCardClass      = "col-xs-4 col-sm-4 col-md-2"
	SevenStatusCardClass = "col-xs-4 col-sm-4 col-md-1"
)

// DashboardState holds the dialog state of each utilization card.
type DashboardState struct {
	Cards map[Resource]CardState
}

// Card returns the state of one card; unknown cards are hidden.
func (s DashboardState) Card(r Resource) CardState {
	return s.Cards[r]
}

// WithCard returns a copy of s with the state of r replaced.
func (s DashboardState) WithCard(r Resource, st CardState) DashboardState {
	cards := make(map[Resource]CardState, len(s.Cards)+1)
	for k, v := range s.Cards {
		cards[k] = v
	}
	cards[r] = st
	return DashboardState{Cards: cards}
}

// UtilizationCardView pairs a card with the resource it shows.
type UtilizationCardView struct {
	Resource Resource `json:"resource"`
	CardView
}

// HeatMapSection is a titled card of heat maps sharing one legend.
type HeatMapSection struct {
	Heading string                    `json:"heading"`
	Maps    []HeatMapView             `json:"maps"`
	Legend  []threshold.HeatMapBucket `json:"legend"`
}

// DashboardView is the whole rendered dashboard.
type DashboardView struct {
	Title           string                `json:"title"`
	RefreshLabel    string                `json:"refreshLabel"`
	LastUpdated     time.Time             `json:"lastUpdated"`
	StatusRowClass  string                `json:"statusRowClass"`
	StatusCardClass string                `json:"statusCardClass"`
	StatusCards     []StatusCardView      `json:"statusCards"`
	UtilizationHead string                `json:"utilizationHeading"`
	Utilization     []UtilizationCardView `json:"utilization"`
	ClusterHeatMaps HeatMapSection        `json:"clusterHeatMaps"`
	StorageHeatMaps HeatMapSection        `json:"storageHeatMaps"`
}

// GlobalDashboard composes every dashboard card.
type GlobalDashboard struct {
	loc     intl.Localizer
	dc      *AggregateStatusCard
	cluster *AggregateStatusCard
	host    *AggregateStatusCard
	storage *AggregateStatusCard
	volume  *AggregateStatusCard
	vm      *AggregateStatusCard
	event   *AggregateStatusCard
	cards   map[Resource]*UtilizationCard
}

// NewGlobalDashboard builds the card configuration for loc.
func NewGlobalDashboard(loc intl.Localizer) (*GlobalDashboard, error) {
	d := &GlobalDashboard{loc: loc, cards: map[Resource]*UtilizationCard{}}

	cluster := inventoryCard(loc, intl.StatusCardClusterTitle, "pficon pficon-cluster",
		search.PlaceCluster, search.PrefixCluster)
	cluster.StatusAction = nil
	cluster.NoStatusText = loc.Msg(intl.NotAvailableShort)
	cluster.HideNoStatusIcon = true

	event := inventoryCard(loc, intl.StatusCardEventTitle, "fa fa-bell", search.PlaceEvent, search.PrefixEvent)
	event.StatusAction = eventSearch

	for _, sc := range []struct {
		dst **AggregateStatusCard
		cfg StatusCardConfig
	}{
		{&d.dc, inventoryCard(loc, intl.StatusCardDataCenterTitle, "fa fa-building-o",
			search.PlaceDataCenter, search.PrefixDataCenter)},
		{&d.cluster, cluster},
		{&d.host, inventoryCard(loc, intl.StatusCardHostTitle, "pficon pficon-screen",
			search.PlaceHost, search.PrefixHost)},
		{&d.storage, inventoryCard(loc, intl.StatusCardStorageTitle, "pficon pficon-storage-domain",
			search.PlaceStorage, search.PrefixStorage)},
		{&d.volume, inventoryCard(loc, intl.StatusCardGlusterVolumeTitle, "pficon pficon-volume",
			search.PlaceVolume, search.PrefixVolume)},
		{&d.vm, inventoryCard(loc, intl.StatusCardVMTitle, "pficon pficon-virtual-machine",
			search.PlaceVM, search.PrefixVM)},
		{&d.event, event},
	} {
		card, err := NewAggregateStatusCard(sc.cfg, loc)
		if err != nil {
			return nil, err
		}
		*sc.dst = card
	}

	for r, cfg := range map[Resource]CardConfig{
		ResourceCPU: {
			Title:                 loc.Msg(intl.CPUTitle),
			DialogTitle:           loc.Msg(intl.UtilizationCardCPUDialogTitle),
			ShowValueAsPercentage: true,
			CenterLabel:           CenterPercent,
			Sparkline:             TooltipPercentPerDate,
			FooterLabel:           PercentFooter,
		},
		ResourceMemory: {
			Title:       loc.Msg(intl.MemoryTitle),
			Unit:        "GiB",
			DialogTitle: loc.Msg(intl.UtilizationCardMemoryDialogTitle),
			CenterLabel: CenterUsed,
			Sparkline:   TooltipValuePerDate,
			FooterLabel: StorageFooter,
		},
		ResourceStorage: {
			Title:       loc.Msg(intl.StorageTitle),
			Unit:        "TiB",
			DialogTitle: loc.Msg(intl.UtilizationCardStorageDialogTitle),
			CenterLabel: CenterUsed,
			Sparkline:   TooltipValuePerDate,
			FooterLabel: StorageFooter,
		},
	} {
		card, err := NewUtilizationCard(cfg, loc)
		if err != nil {
			return nil, fmt.Errorf("%s card: %w", r, err)
		}
		d.cards[r] = card
	}

	return d, nil
}

// inventoryCard is the common configuration of an inventory status card:
// the total opens the place, a status searches by its status values.
func inventoryCard(loc intl.Localizer, title intl.Key, icon string, place search.Place, prefix string) StatusCardConfig {
	return StatusCardConfig{
		Title:         loc.Msg(title),
		MainIconClass: icon,
		TotalAction:   &search.Request{Place: place, Prefix: prefix},
		StatusAction: func(item snapshot.StatusItem) *search.Request {
			return &search.Request{
				Place:  place,
				Prefix: prefix,
				Filters: []search.Filter{
					{Name: search.FieldStatus, Values: item.StatusValues},
				},
			}
		},
	}
}

func eventSearch(item snapshot.StatusItem) *search.Request {
	since := []string{}
	if item.SearchSince != "" {
		since = []string{item.SearchSince}
	}
	return &search.Request{
		Place:  search.PlaceEvent,
		Prefix: search.PrefixEvent,
		Filters: []search.Filter{
			{Name: search.FieldSeverity, Values: item.StatusValues},
			{Name: search.FieldTime, Values: since, Operator: ">"},
		},
	}
}

func clusterHostSearch(cell snapshot.HeatMapCell) *search.Request {
	return &search.Request{
		Place:  search.PlaceHost,
		Prefix: search.PrefixHost,
		Filters: []search.Filter{
			{Name: search.FieldCluster, Values: []string{cell.Name}},
		},
	}
}

func storageSearch(cell snapshot.HeatMapCell) *search.Request {
	return &search.Request{
		Place:  search.PlaceStorage,
		Prefix: search.PrefixStorage,
		Filters: []search.Filter{
			{Name: search.FieldName, Values: []string{cell.Name}},
		},
	}
}

// Card returns the utilization card for r.
func (d *GlobalDashboard) Card(r Resource) *UtilizationCard {
	return d.cards[r]
}

// Build renders s. The gluster volume card is shown only when there are
// volumes, which switches the inventory row to seven columns.
func (d *GlobalDashboard) Build(s *snapshot.Snapshot, state DashboardState) DashboardView {
	inv := s.Inventory
	showVolumes := inv.Volume.TotalCount > 0

	v := DashboardView{
		Title:           d.loc.Msg(intl.MainTabTitle),
		RefreshLabel:    d.loc.Msg(intl.Refresh),
		LastUpdated:     s.CollectedAt,
		StatusRowClass:  StatusRowClass,
		StatusCardClass: StatusCardClass,
		UtilizationHead: d.loc.Msg(intl.GlobalUtilizationHeading),
	}
	if showVolumes {
		v.StatusRowClass += " " + SevenColsClass
		v.StatusCardClass = SevenStatusCardClass
	}

	v.StatusCards = append(v.StatusCards,
		d.dc.Build(inv.DC),
		d.cluster.Build(inv.Cluster),
		d.host.Build(inv.Host),
		d.storage.Build(inv.Storage),
	)
	if showVolumes {
		v.StatusCards = append(v.StatusCards, d.volume.Build(inv.Volume))
	}
	v.StatusCards = append(v.StatusCards, d.vm.Build(inv.VM), d.event.Build(inv.Event))

	g := s.GlobalUtilization
	for _, r := range Resources {
		data := map[Resource]snapshot.Utilization{
			ResourceCPU:     g.CPU,
			ResourceMemory:  g.Memory,
			ResourceStorage: g.Storage,
		}[r]
		v.Utilization = append(v.Utilization, UtilizationCardView{
			Resource: r,
			CardView: d.cards[r].Build(data, state.Card(r)),
		})
	}

	hm := s.HeatMapData
	v.ClusterHeatMaps = HeatMapSection{
		Heading: d.loc.Msg(intl.ClusterUtilizationHeading),
		Maps: []HeatMapView{
			BuildHeatMap(d.loc, d.loc.Msg(intl.CPUTitle), hm.CPU, clusterHostSearch),
			BuildHeatMap(d.loc, d.loc.Msg(intl.MemoryTitle), hm.Memory, clusterHostSearch),
		},
		Legend: threshold.HeatMapBuckets,
	}
	v.StorageHeatMaps = HeatMapSection{
		Heading: d.loc.Msg(intl.StorageUtilizationHeading),
		Maps: []HeatMapView{
			BuildHeatMap(d.loc, d.loc.Msg(intl.StorageTitle), hm.Storage, storageSearch),
		},
		Legend: threshold.HeatMapBuckets,
	}
	return v
}
