/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the database with realistic
  data for demos. Each scenario creates departments, projects, resources,
  availability records, unavailability periods, and allocations that
  demonstrate specific heatmap states.

AVAILABLE SCENARIOS:
  balanced-team:        A small team spread across the utilization bands
  overallocated-sprint: One engineer committed past 150% with PTO on top
  equipment-pool:       Machines with maintenance windows and part-time use

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create departments and projects
 3. Create resources with availability baselines
 4. Add unavailability periods and allocations

NOTE:
  Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
*/
package api

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// Scenario is a named demo dataset.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Load        func(ctx context.Context, store *sqlite.Store) error
}

var Scenarios = []Scenario{
	{
		ID:          "balanced-team",
		Name:        "Balanced Team",
		Description: "Four engineers covering every utilization band",
		Load:        loadBalancedTeam,
	},
	{
		ID:          "overallocated-sprint",
		Name:        "Overallocated Sprint",
		Description: "One engineer at 150% across two projects, with PTO on top",
		Load:        loadOverallocatedSprint,
	},
	{
		ID:          "equipment-pool",
		Name:        "Equipment Pool",
		Description: "Machines with maintenance windows and partial allocation",
		Load:        loadEquipmentPool,
	},
}

// FindScenario returns the scenario with the given ID, or nil.
func FindScenario(id string) *Scenario {
	for i := range Scenarios {
		if Scenarios[i].ID == id {
			return &Scenarios[i]
		}
	}
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// scenarioSeeder accumulates the first error so loaders stay linear.
type scenarioSeeder struct {
	ctx   context.Context
	store *sqlite.Store
	err   error
}

func (s *scenarioSeeder) department(id, name string) {
	if s.err != nil {
		return
	}
	s.err = s.store.SaveDepartment(s.ctx, sqlite.Department{ID: capacity.DepartmentID(id), Name: name})
}

func (s *scenarioSeeder) project(id, name string) {
	if s.err != nil {
		return
	}
	s.err = s.store.SaveProject(s.ctx, sqlite.Project{ID: capacity.ProjectID(id), Name: name, Active: true})
}

func (s *scenarioSeeder) resource(id string, rType capacity.ResourceType, name, email, dept string) {
	if s.err != nil {
		return
	}
	s.err = s.store.SaveResource(s.ctx, capacity.Resource{
		ID:           capacity.ResourceID(id),
		Type:         rType,
		Name:         name,
		Email:        email,
		Active:       true,
		DepartmentID: capacity.DepartmentID(dept),
	})
}

func (s *scenarioSeeder) availability(id, resourceID string, from capacity.TimePoint, hoursPerDay, daysPerWeek float64) {
	if s.err != nil {
		return
	}
	hpd := decimal.NewFromFloat(hoursPerDay)
	dpw := decimal.NewFromFloat(daysPerWeek)
	s.err = s.store.SaveAvailability(s.ctx, capacity.AvailabilityRecord{
		ID:                id,
		ResourceID:        capacity.ResourceID(resourceID),
		EffectiveFrom:     from,
		HoursPerDay:       hpd,
		DaysPerWeek:       dpw,
		TotalHoursPerWeek: hpd.Mul(dpw),
	})
}

func (s *scenarioSeeder) unavailability(id, resourceID string, uType capacity.UnavailabilityType, start, end capacity.TimePoint, desc string) {
	if s.err != nil {
		return
	}
	s.err = s.store.SaveUnavailability(s.ctx, capacity.UnavailabilityPeriod{
		ID:          id,
		ResourceID:  capacity.ResourceID(resourceID),
		Type:        uType,
		Start:       start,
		End:         end,
		Description: desc,
	})
}

func (s *scenarioSeeder) allocation(id, resourceID, projectID string, start, end capacity.TimePoint, percent float64) {
	if s.err != nil {
		return
	}
	s.err = s.store.SaveAllocation(s.ctx, capacity.Allocation{
		ID:         id,
		ResourceID: capacity.ResourceID(resourceID),
		ProjectID:  capacity.ProjectID(projectID),
		Start:      start,
		End:        end,
		Percent:    decimal.NewFromFloat(percent),
		Active:     true,
	})
}

func loadBalancedTeam(ctx context.Context, store *sqlite.Store) error {
	s := &scenarioSeeder{ctx: ctx, store: store}

	jan1 := capacity.NewTimePoint(2025, time.January, 1)
	mar31 := capacity.NewTimePoint(2025, time.March, 31)

	s.department("eng", "Engineering")
	s.project("apollo", "Project Apollo")
	s.project("borealis", "Project Borealis")

	s.resource("res-ana", capacity.ResourcePersonnel, "Ana Silva", "ana@example.com", "eng")
	s.resource("res-bo", capacity.ResourcePersonnel, "Bo Lindqvist", "bo@example.com", "eng")
	s.resource("res-cy", capacity.ResourcePersonnel, "Cy Okafor", "cy@example.com", "eng")
	s.resource("res-dee", capacity.ResourcePersonnel, "Dee Tanaka", "dee@example.com", "eng")

	for _, id := range []string{"res-ana", "res-bo", "res-cy", "res-dee"} {
		s.availability("av-"+id, id, jan1, 8, 5)
	}

	// One band each: available, underutilized, optimal, overutilized.
	s.allocation("al-ana", "res-ana", "apollo", jan1, mar31, 20)
	s.allocation("al-bo", "res-bo", "apollo", jan1, mar31, 50)
	s.allocation("al-cy", "res-cy", "borealis", jan1, mar31, 90)
	s.allocation("al-dee-1", "res-dee", "apollo", jan1, mar31, 70)
	s.allocation("al-dee-2", "res-dee", "borealis", jan1, mar31, 40)

	s.unavailability("un-bo", "res-bo", capacity.UnavailabilityPTO,
		capacity.NewTimePoint(2025, time.February, 10),
		capacity.NewTimePoint(2025, time.February, 14), "Winter break")

	return s.err
}

func loadOverallocatedSprint(ctx context.Context, store *sqlite.Store) error {
	s := &scenarioSeeder{ctx: ctx, store: store}

	jan1 := capacity.NewTimePoint(2025, time.January, 1)
	jan31 := capacity.NewTimePoint(2025, time.January, 31)

	s.department("eng", "Engineering")
	s.project("apollo", "Project Apollo")
	s.project("borealis", "Project Borealis")

	s.resource("res-kai", capacity.ResourcePersonnel, "Kai Moreno", "kai@example.com", "eng")
	s.availability("av-kai", "res-kai", jan1, 8, 5)

	// 90 + 60 = 150% for the whole month; the heatmap must show 150,
	// not clamp to 100.
	s.allocation("al-kai-1", "res-kai", "apollo", jan1, jan31, 90)
	s.allocation("al-kai-2", "res-kai", "borealis", jan1, jan31, 60)

	// Overlapping PTO + public holiday: the overlapping day counts once.
	s.unavailability("un-kai-pto", "res-kai", capacity.UnavailabilityPTO,
		capacity.NewTimePoint(2025, time.January, 6),
		capacity.NewTimePoint(2025, time.January, 8), "Long weekend")
	s.unavailability("un-kai-hol", "res-kai", capacity.UnavailabilityHoliday,
		capacity.NewTimePoint(2025, time.January, 6),
		capacity.NewTimePoint(2025, time.January, 6), "Epiphany")

	return s.err
}

func loadEquipmentPool(ctx context.Context, store *sqlite.Store) error {
	s := &scenarioSeeder{ctx: ctx, store: store}

	jan1 := capacity.NewTimePoint(2025, time.January, 1)
	jun30 := capacity.NewTimePoint(2025, time.June, 30)

	s.department("fab", "Fabrication")
	s.project("casting", "Casting Line")

	s.resource("res-cnc", capacity.ResourceEquipment, "CNC Mill 01", "", "fab")
	s.resource("res-lathe", capacity.ResourceEquipment, "Lathe 02", "", "fab")

	// Machines run long days; the lathe only half the week.
	s.availability("av-cnc", "res-cnc", jan1, 16, 5)
	s.availability("av-lathe", "res-lathe", jan1, 8, 2.5)

	s.allocation("al-cnc", "res-cnc", "casting", jan1, jun30, 75)
	s.allocation("al-lathe", "res-lathe", "casting", jan1, jun30, 40)

	s.unavailability("un-cnc", "res-cnc", capacity.UnavailabilityMaintenance,
		capacity.NewTimePoint(2025, time.March, 3),
		capacity.NewTimePoint(2025, time.March, 7), "Spindle overhaul")

	return s.err
}
