/*
unavailability.go - Hours lost to PTO, holidays, sick leave, etc.

PURPOSE:
  For a resource and a period, sum the hours lost to unavailability.
  Each interval is clipped to the period boundaries, overlapping clipped
  intervals are unioned so a day covered by two records counts once, and
  the unioned day count converts to hours via the resolved hours-per-day.
*/
package capacity

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// UnavailabilityReducer computes unavailable hours for resource × period.
type UnavailabilityReducer struct {
	Store Store
}

// Reduce returns the unavailable hours within the period plus the
// contributing records (unclipped, for drill-down). Zero hours with no
// records is a normal result, not an error. A nil baseline converts every
// unavailable day to zero hours.
func (u *UnavailabilityReducer) Reduce(ctx context.Context, id ResourceID, p Period, av *Availability) (decimal.Decimal, []UnavailabilityPeriod, error) {
	records, err := u.Store.UnavailabilityPeriods(ctx, id, p.Start, p.End)
	if err != nil {
		return decimal.Zero, nil, err
	}

	days := unavailableDays(records, p)
	if days == 0 || av == nil {
		return decimal.Zero, records, nil
	}

	hours := av.HoursPerDay.Mul(decimal.NewFromInt(int64(days)))
	return hours, records, nil
}

// dayInterval is an inclusive day-offset interval relative to a period start.
type dayInterval struct {
	start, end int
}

// unavailableDays clips each record to the period and returns the size of
// the interval union, so overlapping records never double-count a day.
func unavailableDays(records []UnavailabilityPeriod, p Period) int {
	intervals := make([]dayInterval, 0, len(records))
	for _, rec := range records {
		start := DaysBetween(p.Start, rec.Start.Max(p.Start))
		end := DaysBetween(p.Start, rec.End.Min(p.End))
		if end < start {
			continue
		}
		intervals = append(intervals, dayInterval{start: start, end: end})
	}
	if len(intervals) == 0 {
		return 0
	}

	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].start != intervals[j].start {
			return intervals[i].start < intervals[j].start
		}
		return intervals[i].end < intervals[j].end
	})

	// Sweep the sorted intervals, merging adjacent-or-overlapping runs.
	total := 0
	cur := intervals[0]
	for _, iv := range intervals[1:] {
		if iv.start <= cur.end+1 {
			if iv.end > cur.end {
				cur.end = iv.end
			}
			continue
		}
		total += cur.end - cur.start + 1
		cur = iv
	}
	total += cur.end - cur.start + 1
	return total
}
