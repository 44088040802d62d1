/*
allocation.go - Project allocation aggregation

PURPOSE:
  For a resource and a period, sum percentage allocations across all
  projects active in that period and convert percentage-of-capacity into
  allocated hours.

OVERALLOCATION:
  The summed percent is never clamped to 100. An allocation set summing to
  150% is reported as 150 and later classifies OVERUTILIZED; visibility of
  overallocation is the point of the heatmap.
*/
package capacity

import (
	"context"

	"github.com/shopspring/decimal"
)

// AllocationAggregator sums project allocations for resource × period.
type AllocationAggregator struct {
	Store Store
}

// AllocationTotals is the aggregation result for one resource × period.
type AllocationTotals struct {
	// AllocatedHours = netAvailableHours × TotalPercent / 100.
	AllocatedHours decimal.Decimal

	// TotalPercent is the unclamped sum across contributing allocations.
	TotalPercent decimal.Decimal

	// Shares retains each contributing allocation for drill-down.
	Shares []AllocationShare
}

// Aggregate fetches the active allocations overlapping the period and
// converts the summed percent into hours against the supplied net available
// hours. Zero allocations yield a zero-valued, empty result, not an error.
func (a *AllocationAggregator) Aggregate(ctx context.Context, id ResourceID, p Period, netAvailableHours decimal.Decimal) (AllocationTotals, error) {
	allocations, err := a.Store.Allocations(ctx, id, p.Start, p.End)
	if err != nil {
		return AllocationTotals{}, err
	}

	totals := AllocationTotals{
		AllocatedHours: decimal.Zero,
		TotalPercent:   decimal.Zero,
	}
	for _, alloc := range allocations {
		if !p.Overlaps(alloc.Start, alloc.End) {
			continue
		}
		totals.TotalPercent = totals.TotalPercent.Add(alloc.Percent)
		totals.Shares = append(totals.Shares, AllocationShare{
			AllocationID: alloc.ID,
			ProjectID:    alloc.ProjectID,
			ProjectName:  alloc.ProjectName,
			Percent:      alloc.Percent,
		})
	}

	totals.AllocatedHours = netAvailableHours.Mul(totals.TotalPercent).Div(decHundred)
	return totals, nil
}
