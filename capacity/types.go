/*
Package capacity implements the resource capacity aggregation engine.

PURPOSE:
  Given a resource's availability records, unavailability periods, and
  project allocations over a date range, compute net available hours and a
  derived utilization classification, bucketed into daily/weekly/monthly
  periods for heatmap display.

KEY CONCEPTS IN THIS FILE (types.go):
  - Resource: A person or piece of equipment that can be allocated to work
  - AvailabilityRecord: Time-bounded statement of working capacity
  - UnavailabilityPeriod: Interval where a resource cannot work (PTO, etc.)
  - Allocation: Percentage commitment of a resource to a project
  - UtilizationResult: The computed per-resource, per-period output

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all hours/percent arithmetic, so repeated
     period aggregation never accumulates float drift (37.5 h/week stays 37.5)
  2. Read-only: the engine never mutates persisted state
  3. Defined arithmetic edges: division by zero and overallocation are
     documented behaviors, never errors

SEE ALSO:
  - period.go: Date-range splitting into daily/weekly/monthly periods
  - availability.go, unavailability.go, allocation.go: The three resolvers
  - heatmap.go: The assembler that composes everything
*/
package capacity

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ResourceID string
type ProjectID string
type DepartmentID string

// =============================================================================
// RESOURCE - A person or piece of equipment
// =============================================================================

type ResourceType string

const (
	ResourcePersonnel ResourceType = "personnel"
	ResourceEquipment ResourceType = "equipment"
)

// Resource is soft-deleted via the Active flag; it is never hard-deleted
// while allocations reference it.
type Resource struct {
	ID             ResourceID
	Type           ResourceType
	Name           string
	Email          string // personnel only
	Active         bool
	DepartmentID   DepartmentID
	DepartmentName string
}

// =============================================================================
// AVAILABILITY RECORD - Baseline working capacity over a validity interval
// =============================================================================

// AvailabilityRecord states a resource's capacity from EffectiveFrom
// (inclusive) to EffectiveTo (inclusive; nil = open-ended).
//
// TotalHoursPerWeek is stored independently of HoursPerDay × DaysPerWeek;
// the product normally matches it but overrides are allowed, and the total
// is what drives the per-period hour budget.
//
// Capacity changes are superseded, not edited: a new record with a later
// EffectiveFrom is inserted and the prior record's EffectiveTo is closed.
type AvailabilityRecord struct {
	ID                string
	ResourceID        ResourceID
	EffectiveFrom     TimePoint
	EffectiveTo       *TimePoint
	HoursPerDay       decimal.Decimal
	DaysPerWeek       decimal.Decimal
	TotalHoursPerWeek decimal.Decimal
}

// Covers reports whether the record's validity interval contains the date.
func (r AvailabilityRecord) Covers(tp TimePoint) bool {
	if tp.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || tp.BeforeOrEqual(*r.EffectiveTo)
}

// Intersects reports whether the validity interval overlaps the period.
func (r AvailabilityRecord) Intersects(p Period) bool {
	if r.EffectiveFrom.After(p.End) {
		return false
	}
	return r.EffectiveTo == nil || r.EffectiveTo.AfterOrEqual(p.Start)
}

// Availability is the resolved baseline for one resource × period.
type Availability struct {
	HoursPerDay       decimal.Decimal
	DaysPerWeek       decimal.Decimal
	TotalHoursPerWeek decimal.Decimal
}

// =============================================================================
// UNAVAILABILITY PERIOD - Interval where the resource cannot work
// =============================================================================

type UnavailabilityType string

const (
	UnavailabilityPTO         UnavailabilityType = "pto"
	UnavailabilityHoliday     UnavailabilityType = "holiday"
	UnavailabilitySickLeave   UnavailabilityType = "sick_leave"
	UnavailabilityTraining    UnavailabilityType = "training"
	UnavailabilityMaintenance UnavailabilityType = "maintenance"
	UnavailabilityOther       UnavailabilityType = "other"
)

// UnavailabilityPeriod covers [Start, End] inclusive. Start ≤ End.
// Periods for the same resource may overlap (holiday during PTO); the
// reducer unions overlapping days so each calendar day is lost only once.
type UnavailabilityPeriod struct {
	ID          string
	ResourceID  ResourceID
	Type        UnavailabilityType
	Start       TimePoint
	End         TimePoint
	Description string
}

// =============================================================================
// ALLOCATION - Percentage commitment to a project
// =============================================================================

// Allocation commits Percent of a resource's capacity to a project over
// [Start, End]. Percent ≥ 0 with no upper clamp: concurrent allocations
// summing past 100 represent overallocation, a first-class detectable
// state, not an error.
type Allocation struct {
	ID          string
	ResourceID  ResourceID
	ProjectID   ProjectID
	ProjectName string
	Start       TimePoint
	End         TimePoint
	Percent     decimal.Decimal
	Active      bool
	Notes       string
}

// AllocationShare is one allocation's contribution to a period, retained
// for drill-down display.
type AllocationShare struct {
	AllocationID string
	ProjectID    ProjectID
	ProjectName  string
	Percent      decimal.Decimal
}

// =============================================================================
// UTILIZATION RESULT - Computed state for one resource × period
// =============================================================================

// UtilizationResult is derived, never persisted.
//
//	NetAvailableHours  = baseline budget - UnavailableHours (floored at 0)
//	UtilizationPercent = AllocatedHours / NetAvailableHours × 100
//
// When NetAvailableHours is 0 the division is not performed: utilization is
// 0 with no allocation, or the overutilization sentinel otherwise.
type UtilizationResult struct {
	Period                 Period
	AllocatedHours         decimal.Decimal
	NetAvailableHours      decimal.Decimal
	UnavailableHours       decimal.Decimal
	UtilizationPercent     decimal.Decimal
	TotalAllocationPercent decimal.Decimal
	Band                   Band
	Allocations            []AllocationShare
	Unavailability         []UnavailabilityPeriod
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	decSeven   = decimal.NewFromInt(7)
	decHundred = decimal.NewFromInt(100)
)

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
