// ABOUTME: Ranks utilization records by used/total, highest first
// ABOUTME: Flags collections whose names need a wider display column

package ranking

import (
	"sort"
	"unicode/utf8"
)

// Trend is the direction a record's utilization moved since the last sample.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendSame Trend = "same"
)

// DefaultNameThreshold is the name length above which lists switch to the
// wide name column.
const DefaultNameThreshold = 10

// Record is one named utilization sample.
type Record struct {
	Name  string  `json:"name"`
	Used  float64 `json:"used"`
	Total float64 `json:"total"`
	Trend Trend   `json:"trend"`
}

// Ratio returns used/total, or 0 when total is 0.
func (r Record) Ratio() float64 {
	if r.Total == 0 {
		return 0
	}
	return r.Used / r.Total
}

// Rank returns a copy of records sorted by descending ratio. Ties keep their
// input order. The input slice is not modified.
func Rank(records []Record) []Record {
	ranked := make([]Record, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Ratio() > ranked[j].Ratio()
	})
	return ranked
}

// ExceedsNameThreshold reports whether any name is longer than maxLen runes.
func ExceedsNameThreshold(records []Record, maxLen int) bool {
	for _, r := range records {
		if utf8.RuneCountInString(r.Name) > maxLen {
			return true
		}
	}
	return false
}
