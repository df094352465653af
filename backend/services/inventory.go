// ABOUTME: Aggregates raw vSphere managed object properties into a snapshot
// ABOUTME: Inventory status counts, global utilization, drill-downs, heat maps

package services

import (
	"cmp"
	"slices"
	"time"

	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/markalston/virt-dashboard/internal/ranking"
	"github.com/markalston/virt-dashboard/internal/snapshot"
	"github.com/markalston/virt-dashboard/internal/threshold"
)

const (
	mib = 1024 * 1024
	gib = 1024 * mib
	tib = 1024 * gib
)

// SearchSinceLayout formats the time filter of event searches.
const SearchSinceLayout = "2006-01-02 15:04"

// rawInventory is everything one collection pass reads from vCenter.
type rawInventory struct {
	Datacenters []mo.Datacenter
	Clusters    []mo.ClusterComputeResource
	Hosts       []mo.HostSystem
	Datastores  []mo.Datastore
	VMs         []mo.VirtualMachine
}

// statusTypes is the display order of inventory statuses.
var statusTypes = []string{"up", "down", "warning", "error", "alert"}

// statusTally counts entities per status type and remembers which search
// values selected them.
type statusTally struct {
	counts map[string]int
	values map[string][]string
}

func newStatusTally() *statusTally {
	return &statusTally{counts: map[string]int{}, values: map[string][]string{}}
}

func (t *statusTally) add(statusType, value string) {
	t.counts[statusType]++
	if !slices.Contains(t.values[statusType], value) {
		t.values[statusType] = append(t.values[statusType], value)
	}
}

func (t *statusTally) count(total int) snapshot.StatusCount {
	sc := snapshot.StatusCount{TotalCount: total, Statuses: []snapshot.StatusItem{}}
	for _, st := range statusTypes {
		if t.counts[st] == 0 {
			continue
		}
		sc.Statuses = append(sc.Statuses, snapshot.StatusItem{
			Type:         st,
			Count:        t.counts[st],
			StatusValues: t.values[st],
		})
	}
	return sc
}

func entityStatus(s types.ManagedEntityStatus) (statusType, value string, ok bool) {
	switch s {
	case types.ManagedEntityStatusGreen:
		return "up", "up", true
	case types.ManagedEntityStatusYellow:
		return "warning", "problematic", true
	case types.ManagedEntityStatusRed:
		return "down", "notoperational", true
	}
	return "", "", false
}

func hostStatus(h mo.HostSystem) (statusType, value string) {
	switch {
	case h.Runtime.InMaintenanceMode:
		return "warning", "maintenance"
	case h.Runtime.ConnectionState == types.HostSystemConnectionStateNotResponding:
		return "down", "nonresponsive"
	case h.Runtime.ConnectionState == types.HostSystemConnectionStateDisconnected:
		return "down", "disconnected"
	case h.Runtime.PowerState != types.HostSystemPowerStatePoweredOn:
		return "down", "down"
	}
	return "up", "up"
}

func datastoreStatus(ds mo.Datastore) (statusType, value string) {
	switch {
	case !ds.Summary.Accessible:
		return "down", "inactive"
	case ds.Summary.MaintenanceMode == string(types.DatastoreSummaryMaintenanceModeStateInMaintenance):
		return "warning", "maintenance"
	}
	return "up", "active"
}

func vmStatus(vm mo.VirtualMachine) (statusType, value string) {
	switch vm.Runtime.PowerState {
	case types.VirtualMachinePowerStatePoweredOn:
		return "up", "up"
	case types.VirtualMachinePowerStateSuspended:
		return "warning", "suspended"
	}
	return "down", "down"
}

func isTemplate(vm mo.VirtualMachine) bool {
	return vm.Summary.Config.Template
}

// hostUsage is the capacity and usage of one host in dashboard units.
type hostUsage struct {
	name        string
	cpuUsedMHz  float64
	cpuTotalMHz float64
	cores       float64
	memUsedGiB  float64
	memTotalGiB float64
	parent      string
	connected   bool
}

func usageOf(h mo.HostSystem) hostUsage {
	u := hostUsage{
		name:       h.Name,
		cpuUsedMHz: float64(h.Summary.QuickStats.OverallCpuUsage),
		memUsedGiB: float64(h.Summary.QuickStats.OverallMemoryUsage) * mib / gib,
		connected:  h.Runtime.ConnectionState == types.HostSystemConnectionStateConnected,
	}
	if hw := h.Summary.Hardware; hw != nil {
		u.cores = float64(hw.NumCpuCores)
		u.cpuTotalMHz = float64(hw.CpuMhz) * float64(hw.NumCpuCores)
		u.memTotalGiB = float64(hw.MemorySize) / gib
	}
	if h.Parent != nil && h.Parent.Type == "ClusterComputeResource" {
		u.parent = h.Parent.Value
	}
	return u
}

func fraction(used, total float64) float64 {
	if total == 0 {
		return 0
	}
	return used / total
}

func byName(a, b ranking.Record) int {
	return cmp.Compare(a.Name, b.Name)
}

// buildSnapshot turns one collection pass into a dashboard snapshot.
func buildSnapshot(raw rawInventory, collectedAt time.Time) *snapshot.Snapshot {
	s := &snapshot.Snapshot{CollectedAt: collectedAt, Source: "vsphere"}

	// datacenters
	dcTally := newStatusTally()
	for _, dc := range raw.Datacenters {
		if st, v, ok := entityStatus(dc.OverallStatus); ok {
			dcTally.add(st, v)
		}
	}
	s.Inventory.DC = dcTally.count(len(raw.Datacenters))
	s.Inventory.Cluster = snapshot.StatusCount{TotalCount: len(raw.Clusters), Statuses: []snapshot.StatusItem{}}
	s.Inventory.Volume = snapshot.StatusCount{Statuses: []snapshot.StatusItem{}}

	// hosts
	hostTally := newStatusTally()
	hosts := make([]hostUsage, 0, len(raw.Hosts))
	var cpuUsed, cpuTotal, cores, memUsed, memTotal float64
	cpuHosts := make([]ranking.Record, 0, len(raw.Hosts))
	memHosts := make([]ranking.Record, 0, len(raw.Hosts))
	for _, h := range raw.Hosts {
		st, v := hostStatus(h)
		hostTally.add(st, v)

		u := usageOf(h)
		hosts = append(hosts, u)
		cpuHosts = append(cpuHosts, ranking.Record{Name: u.name, Used: threshold.Percent(u.cpuUsedMHz, u.cpuTotalMHz), Total: 100})
		memHosts = append(memHosts, ranking.Record{Name: u.name, Used: u.memUsedGiB, Total: u.memTotalGiB})
		if !u.connected {
			continue
		}
		cpuUsed += u.cpuUsedMHz
		cpuTotal += u.cpuTotalMHz
		cores += u.cores
		memUsed += u.memUsedGiB
		memTotal += u.memTotalGiB
	}
	s.Inventory.Host = hostTally.count(len(raw.Hosts))

	// datastores
	dsTally := newStatusTally()
	var dsUsed, dsTotal, dsUncommitted float64
	dsRecords := make([]ranking.Record, 0, len(raw.Datastores))
	dsCells := make([]snapshot.HeatMapCell, 0, len(raw.Datastores))
	for _, ds := range raw.Datastores {
		st, v := datastoreStatus(ds)
		dsTally.add(st, v)

		capacity := float64(ds.Summary.Capacity)
		used := capacity - float64(ds.Summary.FreeSpace)
		dsUsed += used
		dsTotal += capacity
		dsUncommitted += float64(ds.Summary.Uncommitted)
		dsRecords = append(dsRecords, ranking.Record{Name: ds.Summary.Name, Used: used / tib, Total: capacity / tib})
		dsCells = append(dsCells, snapshot.HeatMapCell{Name: ds.Summary.Name, Value: fraction(used, capacity)})
	}
	s.Inventory.Storage = dsTally.count(len(raw.Datastores))

	// virtual machines
	vmTally := newStatusTally()
	var vcpus, vcpusOn, vmMemMB, vmMemOnMB float64
	cpuVMs := []ranking.Record{}
	memVMs := []ranking.Record{}
	vmCount := 0
	for _, vm := range raw.VMs {
		if isTemplate(vm) {
			continue
		}
		vmCount++
		st, v := vmStatus(vm)
		vmTally.add(st, v)

		cfg := vm.Summary.Config
		vcpus += float64(cfg.NumCpu)
		vmMemMB += float64(cfg.MemorySizeMB)
		if vm.Runtime.PowerState != types.VirtualMachinePowerStatePoweredOn {
			continue
		}
		vcpusOn += float64(cfg.NumCpu)
		vmMemOnMB += float64(cfg.MemorySizeMB)

		qs := vm.Summary.QuickStats
		if vm.Runtime.MaxCpuUsage > 0 {
			cpuVMs = append(cpuVMs, ranking.Record{
				Name:  vm.Name,
				Used:  threshold.Percent(float64(qs.OverallCpuUsage), float64(vm.Runtime.MaxCpuUsage)),
				Total: 100,
			})
		}
		if cfg.MemorySizeMB > 0 {
			memVMs = append(memVMs, ranking.Record{
				Name:  vm.Name,
				Used:  float64(qs.GuestMemoryUsage) * mib / gib,
				Total: float64(cfg.MemorySizeMB) * mib / gib,
			})
		}
	}
	s.Inventory.VM = vmTally.count(vmCount)
	s.Inventory.Event = alarmCount(raw)

	for _, records := range [][]ranking.Record{cpuHosts, memHosts, dsRecords, cpuVMs, memVMs} {
		slices.SortStableFunc(records, byName)
	}

	s.GlobalUtilization.CPU = snapshot.Utilization{
		Used:       threshold.Percent(cpuUsed, cpuTotal),
		Total:      100,
		Overcommit: threshold.Percent(vcpus, cores),
		Allocated:  threshold.Percent(vcpusOn, cores),
		History:    []snapshot.HistoryPoint{},
		Utilization: snapshot.Drilldowns{
			Hosts: snapshot.Some(cpuHosts...),
			VMs:   snapshot.Some(cpuVMs...),
		},
	}
	s.GlobalUtilization.Memory = snapshot.Utilization{
		Used:       memUsed,
		Total:      memTotal,
		Overcommit: threshold.Percent(vmMemMB*mib/gib, memTotal),
		Allocated:  threshold.Percent(vmMemOnMB*mib/gib, memTotal),
		History:    []snapshot.HistoryPoint{},
		Utilization: snapshot.Drilldowns{
			Hosts: snapshot.Some(memHosts...),
			VMs:   snapshot.Some(memVMs...),
		},
	}
	s.GlobalUtilization.Storage = snapshot.Utilization{
		Used:       dsUsed / tib,
		Total:      dsTotal / tib,
		Overcommit: threshold.Percent(dsUsed+dsUncommitted, dsTotal),
		Allocated:  threshold.Percent(dsUsed, dsTotal),
		History:    []snapshot.HistoryPoint{},
		Utilization: snapshot.Drilldowns{
			Storage: snapshot.Some(dsRecords...),
		},
	}

	s.HeatMapData.CPU, s.HeatMapData.Memory = clusterHeatMaps(raw.Clusters, hosts)
	slices.SortStableFunc(dsCells, func(a, b snapshot.HeatMapCell) int { return cmp.Compare(a.Name, b.Name) })
	s.HeatMapData.Storage = dsCells
	return s
}

// clusterHeatMaps sums the connected hosts of each cluster. Standalone hosts
// belong to no cluster and are left out.
func clusterHeatMaps(clusters []mo.ClusterComputeResource, hosts []hostUsage) (cpu, mem []snapshot.HeatMapCell) {
	type sums struct{ cpuUsed, cpuTotal, memUsed, memTotal float64 }
	perCluster := make(map[string]*sums, len(clusters))
	for _, h := range hosts {
		if h.parent == "" || !h.connected {
			continue
		}
		s := perCluster[h.parent]
		if s == nil {
			s = &sums{}
			perCluster[h.parent] = s
		}
		s.cpuUsed += h.cpuUsedMHz
		s.cpuTotal += h.cpuTotalMHz
		s.memUsed += h.memUsedGiB
		s.memTotal += h.memTotalGiB
	}

	sorted := slices.Clone(clusters)
	slices.SortFunc(sorted, func(a, b mo.ClusterComputeResource) int { return cmp.Compare(a.Name, b.Name) })

	cpu = make([]snapshot.HeatMapCell, 0, len(sorted))
	mem = make([]snapshot.HeatMapCell, 0, len(sorted))
	for _, c := range sorted {
		s := perCluster[c.Self.Value]
		if s == nil {
			s = &sums{}
		}
		cpu = append(cpu, snapshot.HeatMapCell{Name: c.Name, Value: fraction(s.cpuUsed, s.cpuTotal)})
		mem = append(mem, snapshot.HeatMapCell{Name: c.Name, Value: fraction(s.memUsed, s.memTotal)})
	}
	return cpu, mem
}

// alarmCount turns triggered alarms into the events card: red alarms are
// errors, yellow ones warnings. Each row searches from its oldest alarm on.
func alarmCount(raw rawInventory) snapshot.StatusCount {
	var states []types.AlarmState
	for _, dc := range raw.Datacenters {
		states = append(states, dc.TriggeredAlarmState...)
	}
	for _, c := range raw.Clusters {
		states = append(states, c.TriggeredAlarmState...)
	}
	for _, h := range raw.Hosts {
		states = append(states, h.TriggeredAlarmState...)
	}
	for _, ds := range raw.Datastores {
		states = append(states, ds.TriggeredAlarmState...)
	}
	for _, vm := range raw.VMs {
		states = append(states, vm.TriggeredAlarmState...)
	}

	seen := make(map[string]struct{}, len(states))
	counts := map[string]int{}
	since := map[string]time.Time{}
	for _, a := range states {
		if _, dup := seen[a.Key]; dup {
			continue
		}
		seen[a.Key] = struct{}{}

		var severity string
		switch a.OverallStatus {
		case types.ManagedEntityStatusRed:
			severity = "error"
		case types.ManagedEntityStatusYellow:
			severity = "warning"
		default:
			continue
		}
		counts[severity]++
		if t, ok := since[severity]; !ok || a.Time.Before(t) {
			since[severity] = a.Time
		}
	}

	sc := snapshot.StatusCount{Statuses: []snapshot.StatusItem{}}
	for _, severity := range []string{"error", "warning"} {
		if counts[severity] == 0 {
			continue
		}
		sc.TotalCount += counts[severity]
		item := snapshot.StatusItem{Type: severity, Count: counts[severity], StatusValues: []string{severity}}
		if t := since[severity]; !t.IsZero() {
			item.SearchSince = t.UTC().Format(SearchSinceLayout)
		}
		sc.Statuses = append(sc.Statuses, item)
	}
	return sc
}
