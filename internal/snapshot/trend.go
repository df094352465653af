// ABOUTME: Derives drill-down trends by comparing consecutive snapshots
// ABOUTME: Records without a trend get up, down or same against the previous ratio

package snapshot

import (
	"math"

	"github.com/markalston/virt-dashboard/internal/ranking"
)

// trendEpsilon is the ratio change below which a record counts as unchanged.
const trendEpsilon = 0.005

// ApplyTrends fills in the trend of every record in next that has none,
// comparing its ratio with the record of the same name in prev. Records
// without a previous sample keep an empty trend. next must not be published
// yet; prev is only read.
func ApplyTrends(prev, next *Snapshot) {
	if prev == nil || next == nil {
		return
	}
	pairs := []struct{ prev, next *Utilization }{
		{&prev.GlobalUtilization.CPU, &next.GlobalUtilization.CPU},
		{&prev.GlobalUtilization.Memory, &next.GlobalUtilization.Memory},
		{&prev.GlobalUtilization.Storage, &next.GlobalUtilization.Storage},
	}
	for _, p := range pairs {
		applyTrend(p.prev.Utilization.Hosts, &p.next.Utilization.Hosts)
		applyTrend(p.prev.Utilization.Storage, &p.next.Utilization.Storage)
		applyTrend(p.prev.Utilization.VMs, &p.next.Utilization.VMs)
	}
}

func applyTrend(prev Drilldown, next *Drilldown) {
	if !prev.Present || !next.Present {
		return
	}
	before := make(map[string]float64, len(prev.Records))
	for _, r := range prev.Records {
		before[r.Name] = r.Ratio()
	}
	for i := range next.Records {
		r := &next.Records[i]
		if r.Trend != "" {
			continue
		}
		old, ok := before[r.Name]
		if !ok {
			continue
		}
		r.Trend = TrendBetween(old, r.Ratio())
	}
}

// TrendBetween classifies the move from one ratio to another.
func TrendBetween(before, after float64) ranking.Trend {
	switch d := after - before; {
	case math.Abs(d) < trendEpsilon:
		return ranking.TrendSame
	case d > 0:
		return ranking.TrendUp
	default:
		return ranking.TrendDown
	}
}
