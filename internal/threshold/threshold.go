// ABOUTME: Threshold policy mapping used/total ratios to severity buckets
// ABOUTME: Also defines the heat map color buckets and legend

package threshold

import "fmt"

// Severity is the bucket a utilization ratio falls into.
type Severity int

const (
	Normal Severity = iota
	Warning
	Error
)

// String returns the lowercase name used in JSON and CSS classes.
func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "normal"
	}
}

// MarshalText lets severities serialize as their names.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "normal":
		*s = Normal
	case "warning":
		*s = Warning
	case "error":
		*s = Error
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Set holds static percentage cutoffs.
type Set struct {
	Enabled    bool    `json:"enabled"`
	WarningPct float64 `json:"warning"`
	ErrorPct   float64 `json:"error"`
}

// Utilization is the set used by utilization cards and drill-down lists.
var Utilization = Set{Enabled: true, WarningPct: 75, ErrorPct: 90}

// Percent returns used/total as a percentage, or 0 when total is 0.
func Percent(used, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return used / total * 100
}

// Classify maps used/total to a severity. Disabled sets are always Normal.
func Classify(used, total float64, set Set) Severity {
	if !set.Enabled {
		return Normal
	}
	pct := Percent(used, total)
	switch {
	case pct >= set.ErrorPct:
		return Error
	case pct >= set.WarningPct:
		return Warning
	default:
		return Normal
	}
}

// HeatMapBucket is one color band of a heat map.
type HeatMapBucket struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// HeatMapCutoffs are the upper bounds (as 0..1 fractions) of every bucket
// except the last.
var HeatMapCutoffs = []float64{0.65, 0.75, 0.90}

// HeatMapBuckets are ordered from coolest to hottest.
var HeatMapBuckets = []HeatMapBucket{
	{Label: "< 65%", Color: "#d4f0fa"},
	{Label: "65-75%", Color: "#F9D67A"},
	{Label: "75-90%", Color: "#EC7A08"},
	{Label: "> 90%", Color: "#CE0000"},
}

// HeatMapLevel returns the bucket index for a 0..1 value.
func HeatMapLevel(value float64) int {
	for i, cutoff := range HeatMapCutoffs {
		if value < cutoff {
			return i
		}
	}
	return len(HeatMapCutoffs)
}
