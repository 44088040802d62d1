/*
store.go - Persistence interface for capacity data

PURPOSE:
  Defines the interface between the aggregation engine and the database.
  The engine only ever READS: resources, availability records,
  unavailability periods, and allocations are owned by the excluded
  persistence layer and the engine never mutates them.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite (same patterns apply to PostgreSQL)
  - capacity/store: In-memory for testing and dev

SEE ALSO:
  - heatmap.go: The assembler consuming this interface
*/
package capacity

import "context"

// =============================================================================
// RESOURCE FILTER - Narrowing the resource set before computation
// =============================================================================

// ResourceFilter selects the resources a heatmap is computed over.
// Filters never alter period computation, only the resource set.
// Zero Size means no pagination; Page is 1-based.
type ResourceFilter struct {
	IDs             []ResourceID
	DepartmentIDs   []DepartmentID
	Types           []ResourceType
	ProjectID       ProjectID // resources with an active allocation to this project
	Search          string    // free-text match on resource name
	IncludeInactive bool
	Page            int
	Size            int
}

// =============================================================================
// STORE - Read-only data access for the engine
// =============================================================================

// Store supplies persisted capacity data. Every method is a pure read.
// Range parameters are inclusive on both ends; implementations return all
// rows whose own interval intersects [from, to].
type Store interface {
	// ListResources returns the filtered, paginated resource page plus the
	// total count before pagination. Order is stable across calls.
	ListResources(ctx context.Context, filter ResourceFilter) ([]Resource, int, error)

	// AvailabilityRecords returns records whose validity interval
	// intersects [from, to], ordered by EffectiveFrom ascending.
	AvailabilityRecords(ctx context.Context, id ResourceID, from, to TimePoint) ([]AvailabilityRecord, error)

	// UnavailabilityPeriods returns periods overlapping [from, to].
	UnavailabilityPeriods(ctx context.Context, id ResourceID, from, to TimePoint) ([]UnavailabilityPeriod, error)

	// Allocations returns ACTIVE allocations overlapping [from, to].
	Allocations(ctx context.Context, id ResourceID, from, to TimePoint) ([]Allocation, error)
}
