/*
availability.go - Baseline capacity resolution

PURPOSE:
  For a resource and a period, determine the applicable baseline capacity
  from possibly multiple overlapping or superseding availability records.

SUPERSESSION:
  Capacity changes insert a new record with a later EffectiveFrom and close
  the prior record's EffectiveTo, so under normal operation at most one
  record covers any day. When records overlap anyway, the latest
  EffectiveFrom wins.

  Resolution is computed ONCE per period using the record active at the
  period start; a change mid-period is attributed to the record active at
  period start. This is a documented approximation: exact handling would
  require splitting periods at supersession boundaries, which the caller
  does not do. A record starting mid-period with nothing active at period
  start is picked by latest EffectiveFrom within the period.
*/
package capacity

import (
	"context"

	"github.com/shopspring/decimal"
)

// AvailabilityResolver resolves the baseline capacity for resource × period.
type AvailabilityResolver struct {
	Store Store
}

// Resolve returns the applicable baseline, or nil when no record covers the
// period. Nil means zero net available hours for the period.
func (r *AvailabilityResolver) Resolve(ctx context.Context, id ResourceID, p Period) (*Availability, error) {
	records, err := r.Store.AvailabilityRecords(ctx, id, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	rec := pickRecord(records, p)
	if rec == nil {
		return nil, nil
	}
	return &Availability{
		HoursPerDay:       rec.HoursPerDay,
		DaysPerWeek:       rec.DaysPerWeek,
		TotalHoursPerWeek: rec.TotalHoursPerWeek,
	}, nil
}

// pickRecord applies the supersession heuristic: latest EffectiveFrom among
// records active at the period start; falling back to latest EffectiveFrom
// among records intersecting the period at all.
func pickRecord(records []AvailabilityRecord, p Period) *AvailabilityRecord {
	var atStart, intersecting *AvailabilityRecord
	for i := range records {
		rec := &records[i]
		if !rec.Intersects(p) {
			continue
		}
		if intersecting == nil || rec.EffectiveFrom.After(intersecting.EffectiveFrom) {
			intersecting = rec
		}
		if !rec.Covers(p.Start) {
			continue
		}
		if atStart == nil || rec.EffectiveFrom.After(atStart.EffectiveFrom) {
			atStart = rec
		}
	}
	if atStart != nil {
		return atStart
	}
	return intersecting
}

// BudgetHours scales the weekly total to the period's hour budget:
// TotalHoursPerWeek × periodDays / 7. A nil baseline budgets zero.
func BudgetHours(av *Availability, p Period) decimal.Decimal {
	if av == nil {
		return decimal.Zero
	}
	days := decimal.NewFromInt(int64(p.Days()))
	return av.TotalHoursPerWeek.Mul(days).Div(decSeven)
}
