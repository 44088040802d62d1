package capacity_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/capacity-engine/capacity"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) capacity.TimePoint {
	return capacity.NewTimePoint(year, month, day)
}

// assertContiguous verifies the splitter's structural guarantees: non-empty,
// chronological, gap-free, and covering exactly [start, end].
func assertContiguous(t *testing.T, periods []capacity.Period, start, end capacity.TimePoint) {
	t.Helper()
	if len(periods) == 0 {
		t.Fatal("expected at least one period")
	}
	if !periods[0].Start.Equal(start) {
		t.Errorf("first period starts at %v, want %v", periods[0].Start, start)
	}
	if !periods[len(periods)-1].End.Equal(end) {
		t.Errorf("last period ends at %v, want %v", periods[len(periods)-1].End, end)
	}
	for i, p := range periods {
		if p.End.Before(p.Start) {
			t.Errorf("period %d is inverted: %v", i, p)
		}
		if i > 0 && !periods[i-1].End.AddDays(1).Equal(p.Start) {
			t.Errorf("gap between period %d (%v) and %d (%v)", i-1, periods[i-1], i, p)
		}
	}
}

// =============================================================================
// DAILY SPLITTING
// =============================================================================

func TestSplit_Daily_TenDays(t *testing.T) {
	// GIVEN: A ten-day range
	// WHEN: Splitting daily
	// THEN: Exactly ten single-day periods, contiguous

	start := date(2024, time.January, 1)
	end := date(2024, time.January, 10)

	periods, err := capacity.Split(start, end, capacity.GranularityDaily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(periods) != 10 {
		t.Fatalf("expected 10 periods, got %d", len(periods))
	}
	assertContiguous(t, periods, start, end)
	for i, p := range periods {
		if !p.Start.Equal(p.End) {
			t.Errorf("daily period %d spans more than one day: %v", i, p)
		}
	}
}

func TestSplit_Daily_SingleDayRange(t *testing.T) {
	// GIVEN: start == end
	// WHEN: Splitting daily
	// THEN: One period of one day, never zero periods

	day := date(2024, time.June, 15)
	periods, err := capacity.Split(day, day, capacity.GranularityDaily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(periods))
	}
	if periods[0].Days() != 1 {
		t.Errorf("expected 1-day period, got %d days", periods[0].Days())
	}
}

// =============================================================================
// WEEKLY SPLITTING
// =============================================================================

func TestSplit_Weekly_AnchoredAtRangeStart(t *testing.T) {
	// GIVEN: A 17-day range starting mid-week (Wednesday)
	// WHEN: Splitting weekly
	// THEN: Weeks anchor at the range start, not calendar weeks;
	//       the final week truncates to the range end

	start := date(2024, time.January, 3) // a Wednesday
	end := date(2024, time.January, 19)

	periods, err := capacity.Split(start, end, capacity.GranularityWeekly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(periods) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(periods))
	}
	assertContiguous(t, periods, start, end)

	if !periods[0].End.Equal(date(2024, time.January, 9)) {
		t.Errorf("first week ends %v, want 2024-01-09", periods[0].End)
	}
	if periods[2].Days() != 3 {
		t.Errorf("final truncated week has %d days, want 3", periods[2].Days())
	}
}

func TestSplit_Weekly_ExactWeeks(t *testing.T) {
	// GIVEN: A range of exactly two weeks
	// WHEN: Splitting weekly
	// THEN: Two full 7-day periods, no trailing sliver

	start := date(2024, time.March, 4)
	end := date(2024, time.March, 17)

	periods, err := capacity.Split(start, end, capacity.GranularityWeekly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(periods))
	}
	for i, p := range periods {
		if p.Days() != 7 {
			t.Errorf("week %d has %d days, want 7", i, p.Days())
		}
	}
}

// =============================================================================
// MONTHLY SPLITTING
// =============================================================================

func TestSplit_Monthly_CalendarAlignedAndClipped(t *testing.T) {
	// GIVEN: A range from mid-January to mid-March
	// WHEN: Splitting monthly
	// THEN: Interior months are calendar months; the first and last
	//       periods clip to the requested range

	start := date(2024, time.January, 15)
	end := date(2024, time.March, 10)

	periods, err := capacity.Split(start, end, capacity.GranularityMonthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(periods) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(periods))
	}
	assertContiguous(t, periods, start, end)

	if !periods[0].End.Equal(date(2024, time.January, 31)) {
		t.Errorf("January clip ends %v, want 2024-01-31", periods[0].End)
	}
	if !periods[1].Start.Equal(date(2024, time.February, 1)) || !periods[1].End.Equal(date(2024, time.February, 29)) {
		t.Errorf("February (leap) period is %v", periods[1])
	}
	if !periods[2].End.Equal(end) {
		t.Errorf("March clip ends %v, want %v", periods[2].End, end)
	}
	if periods[1].Label != "February 2024" {
		t.Errorf("label %q, want \"February 2024\"", periods[1].Label)
	}
}

func TestSplit_Monthly_RangeInsideOneMonth(t *testing.T) {
	// GIVEN: A range entirely inside one month
	// WHEN: Splitting monthly
	// THEN: One period, clipped on both sides

	start := date(2024, time.July, 10)
	end := date(2024, time.July, 20)

	periods, err := capacity.Split(start, end, capacity.GranularityMonthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(periods))
	}
	if !periods[0].Start.Equal(start) || !periods[0].End.Equal(end) {
		t.Errorf("period %v, want [%v, %v]", periods[0], start, end)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestSplit_InvalidRange(t *testing.T) {
	// GIVEN: end before start
	// WHEN: Splitting
	// THEN: InvalidRangeError wrapping ErrInvalidRange

	_, err := capacity.Split(date(2024, time.May, 10), date(2024, time.May, 1), capacity.GranularityDaily)
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
	if !errors.Is(err, capacity.ErrInvalidRange) {
		t.Errorf("error %v does not wrap ErrInvalidRange", err)
	}
	var ire *capacity.InvalidRangeError
	if !errors.As(err, &ire) {
		t.Errorf("error %v is not an InvalidRangeError", err)
	}
}

func TestSplit_UnknownGranularity(t *testing.T) {
	_, err := capacity.Split(date(2024, time.May, 1), date(2024, time.May, 10), capacity.Granularity("quarterly"))
	if err == nil {
		t.Fatal("expected error for unknown granularity")
	}
	if !errors.Is(err, capacity.ErrUnknownGranularity) {
		t.Errorf("error %v does not wrap ErrUnknownGranularity", err)
	}
}

func TestParseGranularity(t *testing.T) {
	for _, valid := range []string{"daily", "weekly", "monthly"} {
		if _, err := capacity.ParseGranularity(valid); err != nil {
			t.Errorf("ParseGranularity(%q) failed: %v", valid, err)
		}
	}
	if _, err := capacity.ParseGranularity("hourly"); err == nil {
		t.Error("ParseGranularity(\"hourly\") should fail")
	}
}

// =============================================================================
// PERIOD SEQUENCE
// =============================================================================

func TestPeriodSeq_ResetRestarts(t *testing.T) {
	// GIVEN: A sequence consumed to exhaustion
	// WHEN: Resetting
	// THEN: It replays the identical periods

	seq, err := capacity.NewPeriodSeq(date(2024, time.January, 1), date(2024, time.January, 20), capacity.GranularityWeekly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var first []capacity.Period
	for {
		p, ok := seq.Next()
		if !ok {
			break
		}
		first = append(first, p)
	}

	seq.Reset()
	var second []capacity.Period
	for {
		p, ok := seq.Next()
		if !ok {
			break
		}
		second = append(second, p)
	}

	if len(first) != len(second) {
		t.Fatalf("replay produced %d periods, first pass %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("period %d differs after reset: %v vs %v", i, first[i], second[i])
		}
	}
}

// =============================================================================
// DATE ARITHMETIC
// =============================================================================

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		name string
		a, b capacity.TimePoint
		want int
	}{
		{"adjacent days", date(2024, time.January, 15), date(2024, time.January, 16), 1},
		{"same day", date(2024, time.January, 15), date(2024, time.January, 15), 0},
		{"across leap February", date(2024, time.February, 1), date(2024, time.March, 1), 29},
		{"across plain February", date(2023, time.February, 1), date(2023, time.March, 1), 28},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := capacity.DaysBetween(tc.a, tc.b); got != tc.want {
				t.Errorf("DaysBetween(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
