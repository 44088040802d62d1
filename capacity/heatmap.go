/*
heatmap.go - Heatmap assembly across resources × periods

PURPOSE:
  Orchestrates the splitter, availability resolver, unavailability reducer,
  and allocation aggregator across a set of resources and periods, producing
  the per-resource, per-period result grid plus summary statistics.

ORDERING:
  Period order matches the splitter's chronological order. Resource order
  matches the store's stable listing order; the assembler never re-sorts.

CONCURRENCY:
  Resources are independent for a fixed period set, so the per-resource
  computation fans out across goroutines. There is no shared mutable state
  between slots: each goroutine writes only its own index.

FAILURE ISOLATION:
  A single resource's fetch failure is converted into an error marker in its
  slot; sibling resources still compute. Validation errors (range,
  granularity) are raised immediately instead.

SEE ALSO:
  - classify.go: The band mapping and the zero-net sentinel
  - store.go: The read-only data access this layer fans out over
*/
package capacity

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// defaultFanOut bounds concurrent per-resource computations.
const defaultFanOut = 8

// =============================================================================
// HEATMAP ASSEMBLER
// =============================================================================

// HeatmapAssembler composes the capacity calculators. It holds no mutable
// state; a single assembler is safe for concurrent use.
type HeatmapAssembler struct {
	Store      Store
	Resolver   *AvailabilityResolver
	Reducer    *UnavailabilityReducer
	Aggregator *AllocationAggregator

	// FanOut bounds concurrent per-resource computations; defaultFanOut
	// when zero.
	FanOut int
}

// NewHeatmapAssembler wires the calculators over one store.
func NewHeatmapAssembler(store Store) *HeatmapAssembler {
	return &HeatmapAssembler{
		Store:      store,
		Resolver:   &AvailabilityResolver{Store: store},
		Reducer:    &UnavailabilityReducer{Store: store},
		Aggregator: &AllocationAggregator{Store: store},
	}
}

// HeatmapInput is the validated request for one heatmap computation.
type HeatmapInput struct {
	Start       TimePoint
	End         TimePoint
	Granularity Granularity
	Filter      ResourceFilter
}

// ResourceSummary aggregates one resource's row across all periods.
type ResourceSummary struct {
	AverageUtilization  decimal.Decimal
	TotalAllocatedHours decimal.Decimal
	ActiveProjects      int
}

// HeatmapResource is one row of the result grid. When Err is set the
// resource's data fetch failed and Periods/Summary are zero-valued; the
// slot is reported rather than aborting the response.
type HeatmapResource struct {
	ID             ResourceID
	Name           string
	Type           ResourceType
	DepartmentName string
	Summary        ResourceSummary
	Periods        []UtilizationResult
	Err            error
}

// Heatmap is the full result grid. Total counts matching resources before
// pagination.
type Heatmap struct {
	Resources    []HeatmapResource
	Periods      []Period
	PeriodLabels []string
	Total        int
}

// Assemble computes the heatmap. Pure read/compute: identical inputs
// against unchanged data yield identical output.
func (h *HeatmapAssembler) Assemble(ctx context.Context, in HeatmapInput) (*Heatmap, error) {
	periods, err := Split(in.Start, in.End, in.Granularity)
	if err != nil {
		return nil, err
	}

	resources, total, err := h.Store.ListResources(ctx, in.Filter)
	if err != nil {
		return nil, err
	}
	// When the caller names resource IDs explicitly, the output rows follow
	// the caller's ordering, not the store's.
	if len(in.Filter.IDs) > 0 {
		resources = reorderByInput(resources, in.Filter.IDs)
	}

	result := &Heatmap{
		Resources:    make([]HeatmapResource, len(resources)),
		Periods:      periods,
		PeriodLabels: make([]string, len(periods)),
		Total:        total,
	}
	for i, p := range periods {
		result.PeriodLabels[i] = p.Label
	}

	fanOut := h.FanOut
	if fanOut <= 0 {
		fanOut = defaultFanOut
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i := range resources {
		i := i
		g.Go(func() error {
			result.Resources[i] = h.assembleResource(gctx, resources[i], periods)
			return nil
		})
	}
	// Workers never return errors (fetch failures are isolated per slot);
	// Wait only surfaces context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// reorderByInput sorts resources to match the caller-supplied ID order.
// IDs the store did not return are skipped; resources outside the ID list
// cannot occur (the filter already restricted to it).
func reorderByInput(resources []Resource, ids []ResourceID) []Resource {
	byID := make(map[ResourceID]Resource, len(resources))
	for _, r := range resources {
		byID[r.ID] = r
	}
	ordered := make([]Resource, 0, len(resources))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return ordered
}

// assembleResource computes one row. Fetch errors become the row's marker.
func (h *HeatmapAssembler) assembleResource(ctx context.Context, res Resource, periods []Period) HeatmapResource {
	row := HeatmapResource{
		ID:             res.ID,
		Name:           res.Name,
		Type:           res.Type,
		DepartmentName: res.DepartmentName,
	}

	results := make([]UtilizationResult, 0, len(periods))
	utilizationSum := decimal.Zero
	allocatedSum := decimal.Zero
	projects := make(map[ProjectID]struct{})

	for _, p := range periods {
		ur, err := h.assemblePeriod(ctx, res.ID, p)
		if err != nil {
			row.Err = &ResourceFetchError{ResourceID: res.ID, Err: err}
			return row
		}
		utilizationSum = utilizationSum.Add(ur.UtilizationPercent)
		allocatedSum = allocatedSum.Add(ur.AllocatedHours)
		for _, share := range ur.Allocations {
			projects[share.ProjectID] = struct{}{}
		}
		results = append(results, ur)
	}

	row.Periods = results
	row.Summary = ResourceSummary{
		AverageUtilization:  utilizationSum.Div(decimal.NewFromInt(int64(len(periods)))),
		TotalAllocatedHours: allocatedSum,
		ActiveProjects:      len(projects),
	}
	return row
}

// assemblePeriod computes one cell of the grid.
func (h *HeatmapAssembler) assemblePeriod(ctx context.Context, id ResourceID, p Period) (UtilizationResult, error) {
	availability, err := h.Resolver.Resolve(ctx, id, p)
	if err != nil {
		return UtilizationResult{}, err
	}

	unavailableHours, unavailability, err := h.Reducer.Reduce(ctx, id, p, availability)
	if err != nil {
		return UtilizationResult{}, err
	}

	// Net available hours: scaled weekly budget minus unavailable hours,
	// floored at zero so excess unavailability routes through the zero-net
	// policy below.
	net := BudgetHours(availability, p).Sub(unavailableHours)
	if net.IsNegative() {
		net = decimal.Zero
	}

	totals, err := h.Aggregator.Aggregate(ctx, id, p, net)
	if err != nil {
		return UtilizationResult{}, err
	}

	// Division-by-zero policy: the classifier must never see NaN/Inf.
	// Zero net hours yield 0 with no allocation, or the OVERUTILIZED
	// sentinel when any allocation exists (including the null-baseline
	// case, where net is zero by definition).
	var utilization decimal.Decimal
	switch {
	case net.IsZero() && totals.TotalPercent.IsZero():
		utilization = decimal.Zero
	case net.IsZero():
		utilization = OverutilizationSentinel
	default:
		utilization = totals.AllocatedHours.Div(net).Mul(decHundred)
	}

	return UtilizationResult{
		Period:                 p,
		AllocatedHours:         totals.AllocatedHours,
		NetAvailableHours:      net,
		UnavailableHours:       unavailableHours,
		UtilizationPercent:     utilization,
		TotalAllocationPercent: totals.TotalPercent,
		Band:                   Classify(utilization),
		Allocations:            totals.Shares,
		Unavailability:         unavailability,
	}, nil
}
