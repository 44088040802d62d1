package capacity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/capacity/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	return capacity.MustParseDecimal(s)
}

func addResource(m *store.Memory, id, name string) {
	m.AddResource(capacity.Resource{
		ID:     capacity.ResourceID(id),
		Type:   capacity.ResourcePersonnel,
		Name:   name,
		Active: true,
	})
}

func addWeeklyHours(m *store.Memory, resourceID, recID string, from capacity.TimePoint, hoursPerDay, daysPerWeek string) {
	hpd := dec(hoursPerDay)
	dpw := dec(daysPerWeek)
	m.AddAvailability(capacity.AvailabilityRecord{
		ID:                recID,
		ResourceID:        capacity.ResourceID(resourceID),
		EffectiveFrom:     from,
		HoursPerDay:       hpd,
		DaysPerWeek:       dpw,
		TotalHoursPerWeek: hpd.Mul(dpw),
	})
}

func addAllocation(m *store.Memory, resourceID, allocID, projectID string, start, end capacity.TimePoint, percent string) {
	m.AddAllocation(capacity.Allocation{
		ID:         allocID,
		ResourceID: capacity.ResourceID(resourceID),
		ProjectID:  capacity.ProjectID(projectID),
		Start:      start,
		End:        end,
		Percent:    dec(percent),
		Active:     true,
	})
}

func addTimeOff(m *store.Memory, resourceID, id string, uType capacity.UnavailabilityType, start, end capacity.TimePoint) {
	m.AddUnavailability(capacity.UnavailabilityPeriod{
		ID:         id,
		ResourceID: capacity.ResourceID(resourceID),
		Type:       uType,
		Start:      start,
		End:        end,
	})
}

func assembleOne(t *testing.T, m capacity.Store, id string, start, end capacity.TimePoint, g capacity.Granularity) capacity.HeatmapResource {
	t.Helper()
	assembler := capacity.NewHeatmapAssembler(m)
	heatmap, err := assembler.Assemble(context.Background(), capacity.HeatmapInput{
		Start:       start,
		End:         end,
		Granularity: g,
		Filter:      capacity.ResourceFilter{IDs: []capacity.ResourceID{capacity.ResourceID(id)}},
	})
	require.NoError(t, err)
	require.Len(t, heatmap.Resources, 1)
	return heatmap.Resources[0]
}

// =============================================================================
// STANDARD UTILIZATION
// =============================================================================

func TestAssemble_StandardHalfAllocation(t *testing.T) {
	// GIVEN: 40 hours/week availability and one 50% allocation
	// WHEN: Computing one full week
	// THEN: 40 net hours, 20 allocated, 50% utilization, UNDERUTILIZED

	m := store.NewMemory()
	addResource(m, "res-1", "Ana")
	addWeeklyHours(m, "res-1", "av-1", date(2024, time.January, 1), "8", "5")
	addAllocation(m, "res-1", "al-1", "proj-a", date(2024, time.January, 1), date(2024, time.December, 31), "50")

	row := assembleOne(t, m, "res-1", date(2024, time.January, 1), date(2024, time.January, 7), capacity.GranularityWeekly)
	require.NoError(t, row.Err)
	require.Len(t, row.Periods, 1)

	cell := row.Periods[0]
	assert.True(t, cell.NetAvailableHours.Equal(dec("40")), "net hours %s", cell.NetAvailableHours)
	assert.True(t, cell.AllocatedHours.Equal(dec("20")), "allocated hours %s", cell.AllocatedHours)
	assert.True(t, cell.UtilizationPercent.Equal(dec("50")), "utilization %s", cell.UtilizationPercent)
	assert.Equal(t, capacity.BandUnderutilized, cell.Band)
}

func TestAssemble_FractionalWeeklyHours(t *testing.T) {
	// GIVEN: A 37.5-hour week (7.5h × 5d), exact in decimal
	// WHEN: Computing one full week at 100% allocation
	// THEN: Net and allocated are exactly 37.5, utilization exactly 100

	m := store.NewMemory()
	addResource(m, "res-1", "Bo")
	addWeeklyHours(m, "res-1", "av-1", date(2024, time.January, 1), "7.5", "5")
	addAllocation(m, "res-1", "al-1", "proj-a", date(2024, time.January, 1), date(2024, time.December, 31), "100")

	row := assembleOne(t, m, "res-1", date(2024, time.January, 1), date(2024, time.January, 7), capacity.GranularityWeekly)
	require.NoError(t, row.Err)

	cell := row.Periods[0]
	assert.True(t, cell.NetAvailableHours.Equal(dec("37.5")), "net hours %s", cell.NetAvailableHours)
	assert.True(t, cell.AllocatedHours.Equal(dec("37.5")), "allocated hours %s", cell.AllocatedHours)
	assert.True(t, cell.UtilizationPercent.Equal(dec("100")), "utilization %s", cell.UtilizationPercent)
	assert.Equal(t, capacity.BandOverutilized, cell.Band)
}

func TestAssemble_PartialPeriodScalesBudget(t *testing.T) {
	// GIVEN: 40 hours/week availability
	// WHEN: Computing a truncated 3-day final week
	// THEN: The budget scales to 40 × 3/7

	m := store.NewMemory()
	addResource(m, "res-1", "Cy")
	addWeeklyHours(m, "res-1", "av-1", date(2024, time.January, 1), "8", "5")

	row := assembleOne(t, m, "res-1", date(2024, time.January, 1), date(2024, time.January, 10), capacity.GranularityWeekly)
	require.NoError(t, row.Err)
	require.Len(t, row.Periods, 2)

	want := dec("40").Mul(dec("3")).Div(dec("7"))
	assert.True(t, row.Periods[1].NetAvailableHours.Equal(want),
		"3-day net hours %s, want %s", row.Periods[1].NetAvailableHours, want)
}

// =============================================================================
// AVAILABILITY SUPERSESSION
// =============================================================================

func TestAssemble_LatestEffectiveRecordWins(t *testing.T) {
	// GIVEN: A 40h/week record from January and a 20h/week record from February
	// WHEN: Computing a week in February
	// THEN: The February record governs the budget

	m := store.NewMemory()
	addResource(m, "res-1", "Dee")
	addWeeklyHours(m, "res-1", "av-old", date(2024, time.January, 1), "8", "5")
	addWeeklyHours(m, "res-1", "av-new", date(2024, time.February, 1), "4", "5")

	row := assembleOne(t, m, "res-1", date(2024, time.February, 5), date(2024, time.February, 11), capacity.GranularityWeekly)
	require.NoError(t, row.Err)

	assert.True(t, row.Periods[0].NetAvailableHours.Equal(dec("20")),
		"net hours %s, want 20", row.Periods[0].NetAvailableHours)
}

func TestAssemble_NoRecordAtStartFallsBackToIntersecting(t *testing.T) {
	// GIVEN: The only record becomes effective mid-period
	// WHEN: Computing a week starting before it
	// THEN: The intersecting record is used rather than a null baseline

	m := store.NewMemory()
	addResource(m, "res-1", "Edi")
	addWeeklyHours(m, "res-1", "av-1", date(2024, time.March, 6), "8", "5")

	row := assembleOne(t, m, "res-1", date(2024, time.March, 4), date(2024, time.March, 10), capacity.GranularityWeekly)
	require.NoError(t, row.Err)

	assert.True(t, row.Periods[0].NetAvailableHours.Equal(dec("40")),
		"net hours %s, want 40", row.Periods[0].NetAvailableHours)
}

// =============================================================================
// NULL BASELINE AND ZERO NET HOURS
// =============================================================================

func TestAssemble_NullBaseline_NoAllocation(t *testing.T) {
	// GIVEN: A resource with no availability records and no allocations
	// WHEN: Computing a week
	// THEN: Zero everywhere, AVAILABLE, no division attempted

	m := store.NewMemory()
	addResource(m, "res-1", "Fay")

	row := assembleOne(t, m, "res-1", date(2024, time.January, 1), date(2024, time.January, 7), capacity.GranularityWeekly)
	require.NoError(t, row.Err)

	cell := row.Periods[0]
	assert.True(t, cell.NetAvailableHours.IsZero())
	assert.True(t, cell.UtilizationPercent.IsZero())
	assert.Equal(t, capacity.BandAvailable, cell.Band)
}

func TestAssemble_NullBaseline_WithAllocation(t *testing.T) {
	// GIVEN: No availability but an active allocation
	// WHEN: Computing a week
	// THEN: The sentinel utilization, OVERUTILIZED, and a finite JSON-safe value

	m := store.NewMemory()
	addResource(m, "res-1", "Gil")
	addAllocation(m, "res-1", "al-1", "proj-a", date(2024, time.January, 1), date(2024, time.December, 31), "50")

	row := assembleOne(t, m, "res-1", date(2024, time.January, 1), date(2024, time.January, 7), capacity.GranularityWeekly)
	require.NoError(t, row.Err)

	cell := row.Periods[0]
	assert.True(t, cell.UtilizationPercent.Equal(capacity.OverutilizationSentinel),
		"utilization %s, want sentinel", cell.UtilizationPercent)
	assert.Equal(t, capacity.BandOverutilized, cell.Band)
	// The allocation percent is still reported even though no hours exist.
	assert.True(t, cell.TotalAllocationPercent.Equal(dec("50")))
}

func TestAssemble_FullWeekUnavailable(t *testing.T) {
	// GIVEN: Unavailability covering the entire period, plus an allocation
	// WHEN: Computing that week
	// THEN: Net floors at zero and the sentinel policy applies

	m := store.NewMemory()
	addResource(m, "res-1", "Hal")
	addWeeklyHours(m, "res-1", "av-1", date(2024, time.January, 1), "8", "5")
	addTimeOff(m, "res-1", "un-1", capacity.UnavailabilityPTO, date(2024, time.January, 1), date(2024, time.January, 7))
	addAllocation(m, "res-1", "al-1", "proj-a", date(2024, time.January, 1), date(2024, time.December, 31), "100")

	row := assembleOne(t, m, "res-1", date(2024, time.January, 1), date(2024, time.January, 7), capacity.GranularityWeekly)
	require.NoError(t, row.Err)

	cell := row.Periods[0]
	assert.True(t, cell.NetAvailableHours.IsZero(), "net hours %s", cell.NetAvailableHours)
	assert.Equal(t, capacity.BandOverutilized, cell.Band)
}

// =============================================================================
// UNAVAILABILITY UNION
// =============================================================================

func TestAssemble_OverlappingUnavailabilityCountsDaysOnce(t *testing.T) {
	// GIVEN: PTO Jan 2–4 and a holiday on Jan 3 (inside the PTO)
	// WHEN: Computing the week Jan 1–7
	// THEN: 3 unavailable days (24h), not 4

	m := store.NewMemory()
	addResource(m, "res-1", "Ira")
	addWeeklyHours(m, "res-1", "av-1", date(2024, time.January, 1), "8", "5")
	addTimeOff(m, "res-1", "un-pto", capacity.UnavailabilityPTO, date(2024, time.January, 2), date(2024, time.January, 4))
	addTimeOff(m, "res-1", "un-hol", capacity.UnavailabilityHoliday, date(2024, time.January, 3), date(2024, time.January, 3))

	row := assembleOne(t, m, "res-1", date(2024, time.January, 1), date(2024, time.January, 7), capacity.GranularityWeekly)
	require.NoError(t, row.Err)

	cell := row.Periods[0]
	assert.True(t, cell.UnavailableHours.Equal(dec("24")), "unavailable hours %s, want 24", cell.UnavailableHours)
	assert.True(t, cell.NetAvailableHours.Equal(dec("16")), "net hours %s, want 16", cell.NetAvailableHours)
	// Both contributing records are still reported for drill-down.
	assert.Len(t, cell.Unavailability, 2)
}

func TestAssemble_UnavailabilityClippedToPeriod(t *testing.T) {
	// GIVEN: A two-week PTO straddling the period boundary
	// WHEN: Computing only the first week
	// THEN: Only the in-period days reduce this week's budget

	m := store.NewMemory()
	addResource(m, "res-1", "Jo")
	addWeeklyHours(m, "res-1", "av-1", date(2024, time.January, 1), "8", "5")
	addTimeOff(m, "res-1", "un-1", capacity.UnavailabilityPTO, date(2024, time.January, 6), date(2024, time.January, 12))

	row := assembleOne(t, m, "res-1", date(2024, time.January, 1), date(2024, time.January, 7), capacity.GranularityWeekly)
	require.NoError(t, row.Err)

	// Jan 6–7 inside the week: 2 days × 8h.
	assert.True(t, row.Periods[0].UnavailableHours.Equal(dec("16")),
		"unavailable hours %s, want 16", row.Periods[0].UnavailableHours)
}

// =============================================================================
// OVERALLOCATION
// =============================================================================

func TestAssemble_OverallocationStaysVisible(t *testing.T) {
	// GIVEN: Concurrent allocations of 90% and 60%
	// WHEN: Computing one week
	// THEN: 150% total, utilization 150 (not clamped), OVERUTILIZED

	m := store.NewMemory()
	addResource(m, "res-1", "Kai")
	addWeeklyHours(m, "res-1", "av-1", date(2024, time.January, 1), "8", "5")
	addAllocation(m, "res-1", "al-1", "proj-a", date(2024, time.January, 1), date(2024, time.December, 31), "90")
	addAllocation(m, "res-1", "al-2", "proj-b", date(2024, time.January, 1), date(2024, time.December, 31), "60")

	row := assembleOne(t, m, "res-1", date(2024, time.January, 1), date(2024, time.January, 7), capacity.GranularityWeekly)
	require.NoError(t, row.Err)

	cell := row.Periods[0]
	assert.True(t, cell.TotalAllocationPercent.Equal(dec("150")), "total percent %s", cell.TotalAllocationPercent)
	assert.True(t, cell.UtilizationPercent.Equal(dec("150")), "utilization %s", cell.UtilizationPercent)
	assert.Equal(t, capacity.BandOverutilized, cell.Band)
	assert.Equal(t, 2, row.Summary.ActiveProjects)
}

func TestAssemble_AllocationOutsidePeriodIgnored(t *testing.T) {
	// GIVEN: An allocation entirely before the requested week
	// WHEN: Computing the week
	// THEN: It contributes nothing

	m := store.NewMemory()
	addResource(m, "res-1", "Lu")
	addWeeklyHours(m, "res-1", "av-1", date(2024, time.January, 1), "8", "5")
	addAllocation(m, "res-1", "al-1", "proj-a", date(2024, time.January, 1), date(2024, time.January, 5), "80")

	row := assembleOne(t, m, "res-1", date(2024, time.February, 5), date(2024, time.February, 11), capacity.GranularityWeekly)
	require.NoError(t, row.Err)

	cell := row.Periods[0]
	assert.True(t, cell.AllocatedHours.IsZero())
	assert.Equal(t, capacity.BandAvailable, cell.Band)
}

// =============================================================================
// FAILURE ISOLATION AND ORDERING
// =============================================================================

// faultyStore fails allocation fetches for one resource.
type faultyStore struct {
	capacity.Store
	failID capacity.ResourceID
}

func (f *faultyStore) Allocations(ctx context.Context, id capacity.ResourceID, from, to capacity.TimePoint) ([]capacity.Allocation, error) {
	if id == f.failID {
		return nil, errors.New("backend unavailable")
	}
	return f.Store.Allocations(ctx, id, from, to)
}

func TestAssemble_FetchErrorIsolatedPerResource(t *testing.T) {
	// GIVEN: Two resources, one with a failing allocation backend
	// WHEN: Assembling the heatmap
	// THEN: The failing resource carries an error marker; its sibling is complete

	m := store.NewMemory()
	addResource(m, "res-ok", "Mia")
	addResource(m, "res-bad", "Nils")
	for _, id := range []string{"res-ok", "res-bad"} {
		addWeeklyHours(m, id, "av-"+id, date(2024, time.January, 1), "8", "5")
	}

	faulty := &faultyStore{Store: m, failID: "res-bad"}
	assembler := capacity.NewHeatmapAssembler(faulty)

	heatmap, err := assembler.Assemble(context.Background(), capacity.HeatmapInput{
		Start:       date(2024, time.January, 1),
		End:         date(2024, time.January, 7),
		Granularity: capacity.GranularityWeekly,
	})
	require.NoError(t, err)
	require.Len(t, heatmap.Resources, 2)

	byID := make(map[capacity.ResourceID]capacity.HeatmapResource)
	for _, row := range heatmap.Resources {
		byID[row.ID] = row
	}

	bad := byID["res-bad"]
	require.Error(t, bad.Err)
	assert.True(t, errors.Is(bad.Err, capacity.ErrResourceFetch), "err %v should wrap ErrResourceFetch", bad.Err)
	assert.Empty(t, bad.Periods)

	ok := byID["res-ok"]
	require.NoError(t, ok.Err)
	assert.Len(t, ok.Periods, 1)
}

func TestAssemble_RowOrderFollowsRequestedIDs(t *testing.T) {
	// GIVEN: Resources inserted as a, b, c
	// WHEN: Requesting c, a explicitly
	// THEN: Rows come back in the requested order

	m := store.NewMemory()
	addResource(m, "res-a", "Ari")
	addResource(m, "res-b", "Ben")
	addResource(m, "res-c", "Col")

	assembler := capacity.NewHeatmapAssembler(m)
	heatmap, err := assembler.Assemble(context.Background(), capacity.HeatmapInput{
		Start:       date(2024, time.January, 1),
		End:         date(2024, time.January, 3),
		Granularity: capacity.GranularityDaily,
		Filter:      capacity.ResourceFilter{IDs: []capacity.ResourceID{"res-c", "res-a"}},
	})
	require.NoError(t, err)
	require.Len(t, heatmap.Resources, 2)
	assert.Equal(t, capacity.ResourceID("res-c"), heatmap.Resources[0].ID)
	assert.Equal(t, capacity.ResourceID("res-a"), heatmap.Resources[1].ID)
}

// =============================================================================
// DETERMINISM
// =============================================================================

func TestAssemble_Idempotent(t *testing.T) {
	// GIVEN: Fixed data
	// WHEN: Assembling the same input twice
	// THEN: Both results are identical cell for cell

	m := store.NewMemory()
	addResource(m, "res-1", "Ona")
	addWeeklyHours(m, "res-1", "av-1", date(2024, time.January, 1), "8", "5")
	addAllocation(m, "res-1", "al-1", "proj-a", date(2024, time.January, 1), date(2024, time.December, 31), "75")
	addTimeOff(m, "res-1", "un-1", capacity.UnavailabilityPTO, date(2024, time.January, 10), date(2024, time.January, 12))

	first := assembleOne(t, m, "res-1", date(2024, time.January, 1), date(2024, time.January, 31), capacity.GranularityWeekly)
	second := assembleOne(t, m, "res-1", date(2024, time.January, 1), date(2024, time.January, 31), capacity.GranularityWeekly)

	require.Equal(t, len(first.Periods), len(second.Periods))
	for i := range first.Periods {
		a, b := first.Periods[i], second.Periods[i]
		assert.True(t, a.UtilizationPercent.Equal(b.UtilizationPercent), "period %d utilization differs", i)
		assert.True(t, a.NetAvailableHours.Equal(b.NetAvailableHours), "period %d net differs", i)
		assert.Equal(t, a.Band, b.Band, "period %d band differs", i)
	}
	assert.True(t, first.Summary.AverageUtilization.Equal(second.Summary.AverageUtilization))
}
