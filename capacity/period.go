package capacity

// =============================================================================
// PERIOD - One bucket of the requested date range
// =============================================================================

// Period is a contiguous date range [Start, End], both inclusive, tagged
// with a human-readable label. Periods produced for one request are
// chronological, contiguous, and exhaustive over the requested range; the
// final period may be shorter than the nominal granularity when the range
// does not divide evenly.
type Period struct {
	Start TimePoint
	End   TimePoint
	Label string
}

// Contains returns true if the date is within the period [Start, End].
func (p Period) Contains(tp TimePoint) bool {
	return tp.AfterOrEqual(p.Start) && tp.BeforeOrEqual(p.End)
}

// Overlaps reports whether [from, to] intersects the period.
func (p Period) Overlaps(from, to TimePoint) bool {
	return !from.After(p.End) && !to.Before(p.Start)
}

// Days returns the inclusive length of the period in days (minimum 1).
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// GRANULARITY
// =============================================================================

type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// ParseGranularity validates a caller-supplied granularity string.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return Granularity(s), nil
	default:
		return "", &UnknownGranularityError{Value: s}
	}
}

// =============================================================================
// PERIOD SEQUENCE - Lazy, restartable splitter
// =============================================================================

// PeriodSeq generates the periods covering [start, end] one at a time,
// without materializing the whole range. Reset rewinds it to the first
// period. The sequence is always finite and never empty for a valid range.
type PeriodSeq struct {
	start, end  TimePoint
	granularity Granularity
	cursor      TimePoint
}

// NewPeriodSeq validates the range and granularity and positions the
// sequence at the first period.
func NewPeriodSeq(start, end TimePoint, g Granularity) (*PeriodSeq, error) {
	if end.Before(start) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
	default:
		return nil, &UnknownGranularityError{Value: string(g)}
	}
	return &PeriodSeq{start: start, end: end, granularity: g, cursor: start}, nil
}

// Reset rewinds the sequence to the first period.
func (s *PeriodSeq) Reset() { s.cursor = s.start }

// Next returns the next period in chronological order, or ok=false when the
// range is exhausted.
func (s *PeriodSeq) Next() (Period, bool) {
	if s.cursor.After(s.end) {
		return Period{}, false
	}

	var p Period
	switch s.granularity {
	case GranularityDaily:
		p = Period{Start: s.cursor, End: s.cursor}
		p.Label = p.Start.String()
		s.cursor = s.cursor.AddDays(1)

	case GranularityWeekly:
		// Weeks are anchored at the range start; the last one truncates.
		weekEnd := s.cursor.AddDays(6).Min(s.end)
		p = Period{Start: s.cursor, End: weekEnd}
		p.Label = p.Start.Time.Format("Jan 02") + " – " + p.End.Time.Format("Jan 02, 2006")
		s.cursor = s.cursor.AddDays(7)

	default: // GranularityMonthly
		// Calendar-aligned; first and last are clipped to the range.
		monthEnd := EndOfMonth(s.cursor).Min(s.end)
		p = Period{Start: s.cursor, End: monthEnd}
		p.Label = StartOfMonth(s.cursor).Time.Format("January 2006")
		s.cursor = EndOfMonth(s.cursor).AddDays(1)
	}

	return p, true
}

// Split materializes the full period sequence for [start, end].
//
// Guarantees for a valid range: the result is non-empty, chronological,
// gap-free (period[i].End + 1 day == period[i+1].Start), and covers exactly
// [start, end]. Fails with InvalidRangeError when end < start and
// UnknownGranularityError for an unrecognized granularity.
func Split(start, end TimePoint, g Granularity) ([]Period, error) {
	seq, err := NewPeriodSeq(start, end, g)
	if err != nil {
		return nil, err
	}
	var periods []Period
	for {
		p, ok := seq.Next()
		if !ok {
			return periods, nil
		}
		periods = append(periods, p)
	}
}
