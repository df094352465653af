// ABOUTME: Tests for the threshold policy
// ABOUTME: Verifies severity buckets, disabled sets, and zero totals

package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	set := Set{Enabled: true, WarningPct: 75, ErrorPct: 90}

	tests := []struct {
		name  string
		used  float64
		total float64
		want  Severity
	}{
		{"below warning", 10, 100, Normal},
		{"at warning", 75, 100, Warning},
		{"between", 80, 100, Warning},
		{"at error", 90, 100, Error},
		{"over total", 120, 100, Error},
		{"zero total", 50, 0, Normal},
		{"zero both", 0, 0, Normal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.used, tt.total, set))
		})
	}
}

func TestClassify_Disabled(t *testing.T) {
	set := Set{Enabled: false, WarningPct: 75, ErrorPct: 90}
	assert.Equal(t, Normal, Classify(99, 100, set))
}

func TestPercent_ZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, Percent(10, 0))
	assert.Equal(t, 25.0, Percent(1, 4))
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "warning", Warning.String())
	assert.Equal(t, "error", Error.String())

	b, err := Error.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "error", string(b))

	var parsed Severity
	assert.NoError(t, parsed.UnmarshalText([]byte("warning")))
	assert.Equal(t, Warning, parsed)
	assert.Error(t, parsed.UnmarshalText([]byte("critical")))
}

func TestHeatMapLevel(t *testing.T) {
	tests := []struct {
		value float64
		want  int
	}{
		{0, 0},
		{0.64, 0},
		{0.65, 1},
		{0.74, 1},
		{0.75, 2},
		{0.89, 2},
		{0.90, 3},
		{1.2, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HeatMapLevel(tt.value), "value %v", tt.value)
	}
	assert.Len(t, HeatMapBuckets, len(HeatMapCutoffs)+1)
}
