package capacity

import "github.com/shopspring/decimal"

// =============================================================================
// UTILIZATION CLASSIFIER - Pure, total function over all reals
// =============================================================================

// Band is an ordinal utilization classification.
type Band string

const (
	BandAvailable     Band = "AVAILABLE"     // < 40
	BandUnderutilized Band = "UNDERUTILIZED" // [40, 60)
	BandAverage       Band = "AVERAGE"       // [60, 80)
	BandOptimal       Band = "OPTIMAL"       // [80, 100)
	BandOverutilized  Band = "OVERUTILIZED"  // >= 100
)

var (
	thresholdUnderutilized = decimal.NewFromInt(40)
	thresholdAverage       = decimal.NewFromInt(60)
	thresholdOptimal       = decimal.NewFromInt(80)
	thresholdOverutilized  = decimal.NewFromInt(100)

	// OverutilizationSentinel stands in for an undefined utilization
	// (allocation against zero net available hours). Finite so JSON stays a
	// plain number, and ≥ 100 so it always classifies OVERUTILIZED.
	OverutilizationSentinel = decimal.NewFromInt(999)
)

// Classify maps a utilization percentage to its band. Lower bounds are
// inclusive, upper bounds exclusive. Negative inputs fall through the
// numeric comparisons and classify AVAILABLE; arbitrarily large inputs
// classify OVERUTILIZED. Callers guarantee the input is a finite number.
func Classify(utilizationPercent decimal.Decimal) Band {
	switch {
	case utilizationPercent.LessThan(thresholdUnderutilized):
		return BandAvailable
	case utilizationPercent.LessThan(thresholdAverage):
		return BandUnderutilized
	case utilizationPercent.LessThan(thresholdOptimal):
		return BandAverage
	case utilizationPercent.LessThan(thresholdOverutilized):
		return BandOptimal
	default:
		return BandOverutilized
	}
}
