// Package store provides capacity.Store implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/capacity-engine/capacity"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu             sync.RWMutex
	resources      []capacity.Resource
	availability   map[capacity.ResourceID][]capacity.AvailabilityRecord
	unavailability map[capacity.ResourceID][]capacity.UnavailabilityPeriod
	allocations    map[capacity.ResourceID][]capacity.Allocation
}

func NewMemory() *Memory {
	return &Memory{
		availability:   make(map[capacity.ResourceID][]capacity.AvailabilityRecord),
		unavailability: make(map[capacity.ResourceID][]capacity.UnavailabilityPeriod),
		allocations:    make(map[capacity.ResourceID][]capacity.Allocation),
	}
}

// AddResource registers a resource. Insertion order is the listing order.
func (m *Memory) AddResource(r capacity.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources = append(m.resources, r)
}

// AddAvailability inserts a record sorted by EffectiveFrom ascending.
func (m *Memory) AddAvailability(rec capacity.AvailabilityRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.availability[rec.ResourceID]
	i := sort.Search(len(recs), func(i int) bool {
		return recs[i].EffectiveFrom.After(rec.EffectiveFrom)
	})
	recs = append(recs, capacity.AvailabilityRecord{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	m.availability[rec.ResourceID] = recs
}

func (m *Memory) AddUnavailability(up capacity.UnavailabilityPeriod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailability[up.ResourceID] = append(m.unavailability[up.ResourceID], up)
}

func (m *Memory) AddAllocation(a capacity.Allocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocations[a.ResourceID] = append(m.allocations[a.ResourceID], a)
}

// =============================================================================
// capacity.Store IMPLEMENTATION
// =============================================================================

func (m *Memory) ListResources(_ context.Context, filter capacity.ResourceFilter) ([]capacity.Resource, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []capacity.Resource
	for _, r := range m.resources {
		if m.matches(r, filter) {
			matched = append(matched, r)
		}
	}

	total := len(matched)
	matched = paginate(matched, filter.Page, filter.Size)

	result := make([]capacity.Resource, len(matched))
	copy(result, matched)
	return result, total, nil
}

func (m *Memory) matches(r capacity.Resource, filter capacity.ResourceFilter) bool {
	if !r.Active && !filter.IncludeInactive {
		return false
	}
	if len(filter.IDs) > 0 && !containsID(filter.IDs, r.ID) {
		return false
	}
	if len(filter.DepartmentIDs) > 0 && !containsDept(filter.DepartmentIDs, r.DepartmentID) {
		return false
	}
	if len(filter.Types) > 0 && !containsType(filter.Types, r.Type) {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Search)) {
		return false
	}
	if filter.ProjectID != "" && !m.allocatedTo(r.ID, filter.ProjectID) {
		return false
	}
	return true
}

func (m *Memory) allocatedTo(id capacity.ResourceID, project capacity.ProjectID) bool {
	for _, a := range m.allocations[id] {
		if a.Active && a.ProjectID == project {
			return true
		}
	}
	return false
}

func (m *Memory) AvailabilityRecords(_ context.Context, id capacity.ResourceID, from, to capacity.TimePoint) ([]capacity.AvailabilityRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	window := capacity.Period{Start: from, End: to}
	var result []capacity.AvailabilityRecord
	for _, rec := range m.availability[id] {
		if rec.Intersects(window) {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (m *Memory) UnavailabilityPeriods(_ context.Context, id capacity.ResourceID, from, to capacity.TimePoint) ([]capacity.UnavailabilityPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []capacity.UnavailabilityPeriod
	for _, up := range m.unavailability[id] {
		if !up.Start.After(to) && !up.End.Before(from) {
			result = append(result, up)
		}
	}
	return result, nil
}

func (m *Memory) Allocations(_ context.Context, id capacity.ResourceID, from, to capacity.TimePoint) ([]capacity.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []capacity.Allocation
	for _, a := range m.allocations[id] {
		if a.Active && !a.Start.After(to) && !a.End.Before(from) {
			result = append(result, a)
		}
	}
	return result, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func paginate(resources []capacity.Resource, page, size int) []capacity.Resource {
	if size <= 0 {
		return resources
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	if offset >= len(resources) {
		return nil
	}
	end := offset + size
	if end > len(resources) {
		end = len(resources)
	}
	return resources[offset:end]
}

func containsID(ids []capacity.ResourceID, id capacity.ResourceID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsDept(ids []capacity.DepartmentID, id capacity.DepartmentID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsType(types []capacity.ResourceType, t capacity.ResourceType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}
