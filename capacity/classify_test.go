package capacity_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/capacity"
)

func TestClassify_BandBoundaries(t *testing.T) {
	// Boundaries are half-open: 40 leaves AVAILABLE, 100 enters OVERUTILIZED.
	cases := []struct {
		percent string
		want    capacity.Band
	}{
		{"0", capacity.BandAvailable},
		{"39.999", capacity.BandAvailable},
		{"40", capacity.BandUnderutilized},
		{"59.999", capacity.BandUnderutilized},
		{"60", capacity.BandAverage},
		{"79.999", capacity.BandAverage},
		{"80", capacity.BandOptimal},
		{"99.999", capacity.BandOptimal},
		{"100", capacity.BandOverutilized},
		{"150", capacity.BandOverutilized},
	}
	for _, tc := range cases {
		t.Run(tc.percent, func(t *testing.T) {
			got := capacity.Classify(capacity.MustParseDecimal(tc.percent))
			if got != tc.want {
				t.Errorf("Classify(%s) = %s, want %s", tc.percent, got, tc.want)
			}
		})
	}
}

func TestClassify_NegativeIsAvailable(t *testing.T) {
	// Negative utilization cannot arise from the engine, but the classifier
	// is total over decimals.
	got := capacity.Classify(decimal.NewFromInt(-5))
	if got != capacity.BandAvailable {
		t.Errorf("Classify(-5) = %s, want %s", got, capacity.BandAvailable)
	}
}

func TestClassify_SentinelIsOverutilized(t *testing.T) {
	// The zero-net sentinel must land in the top band.
	got := capacity.Classify(capacity.OverutilizationSentinel)
	if got != capacity.BandOverutilized {
		t.Errorf("Classify(sentinel) = %s, want %s", got, capacity.BandOverutilized)
	}
}

func TestClassify_ExtremeOverallocation(t *testing.T) {
	got := capacity.Classify(decimal.NewFromInt(100000))
	if got != capacity.BandOverutilized {
		t.Errorf("Classify(100000) = %s, want %s", got, capacity.BandOverutilized)
	}
}
