// ABOUTME: Unit conversion for display values (bytes, percentages)
// ABOUTME: Scales a batch of related values into one shared display unit

package units

import (
	"errors"
	"fmt"
)

// ErrInvalidUnit is returned when a unit is not part of the conversion table.
var ErrInvalidUnit = errors.New("invalid unit")

// Entry is one row of a conversion table. Factor is relative to the base unit.
type Entry struct {
	Unit   string
	Factor float64
}

// Table is an ordered list of units, smallest (base) first.
type Table []Entry

// Storage scales binary byte units.
var Storage = Table{
	{Unit: "B", Factor: 1},
	{Unit: "KiB", Factor: 1 << 10},
	{Unit: "MiB", Factor: 1 << 20},
	{Unit: "GiB", Factor: 1 << 30},
	{Unit: "TiB", Factor: 1 << 40},
	{Unit: "PiB", Factor: 1 << 50},
	{Unit: "EiB", Factor: 1 << 60},
}

// Percent is the identity table used by percentage cards (empty unit name).
var Percent = Table{
	{Unit: "", Factor: 1},
}

// Magnitude is a value paired with the unit it is expressed in.
type Magnitude struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Result is the outcome of converting a batch of values.
type Result struct {
	Unit   string
	Values []float64
}

// Magnitudes pairs every converted value with the shared unit.
func (r Result) Magnitudes() []Magnitude {
	out := make([]Magnitude, len(r.Values))
	for i, v := range r.Values {
		out[i] = Magnitude{Value: v, Unit: r.Unit}
	}
	return out
}

func (t Table) lookup(unit string) (Entry, bool) {
	for _, e := range t {
		if e.Unit == unit {
			return e, true
		}
	}
	return Entry{}, false
}

// Has reports whether unit is in the table.
func (t Table) Has(unit string) bool {
	_, ok := t.lookup(unit)
	return ok
}

// Convert rescales values expressed in unit to the largest table unit for
// which the largest value stays >= 1. Every value in the batch gets the same
// unit so related numbers (used and total) stay comparable. If all values are
// zero the base unit is used.
func Convert(table Table, unit string, values ...float64) (Result, error) {
	if len(table) == 0 {
		return Result{}, fmt.Errorf("%w: empty conversion table", ErrInvalidUnit)
	}
	src, ok := table.lookup(unit)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}

	base := make([]float64, len(values))
	var largest float64
	for i, v := range values {
		base[i] = v * src.Factor
		if abs(base[i]) > largest {
			largest = abs(base[i])
		}
	}

	target := table[0]
	if largest > 0 {
		for _, e := range table {
			if largest/e.Factor >= 1 {
				target = e
			}
		}
	}

	out := make([]float64, len(base))
	for i, v := range base {
		out[i] = v / target.Factor
	}
	return Result{Unit: target.Unit, Values: out}, nil
}

// ConvertOne converts a single value.
func ConvertOne(table Table, unit string, value float64) (Magnitude, error) {
	r, err := Convert(table, unit, value)
	if err != nil {
		return Magnitude{}, err
	}
	return Magnitude{Value: r.Values[0], Unit: r.Unit}, nil
}

// MustConvert is Convert for callers whose unit is a compile-time constant.
// An unknown unit is a programming error.
func MustConvert(table Table, unit string, values ...float64) Result {
	r, err := Convert(table, unit, values...)
	if err != nil {
		panic(err)
	}
	return r
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
