/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Decimal values
  are serialized as plain JSON numbers (float64); precision is preserved
  internally and only flattened at this boundary.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - capacity/heatmap.go: The domain types converted here
*/
package api

import (
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/store/sqlite"
)

// =============================================================================
// HEATMAP RESPONSE
// =============================================================================

// HeatmapResponseDTO is the engine's output: one row per resource, one
// label per period, plus the total resource count before pagination.
type HeatmapResponseDTO struct {
	Resources    []HeatmapResourceDTO `json:"resources"`
	PeriodLabels []string             `json:"period_labels"`
	Total        int                  `json:"total"`
}

// HeatmapResourceDTO is one row of the heatmap grid. When Error is set the
// resource's data fetch failed and UtilizationPeriods is null.
type HeatmapResourceDTO struct {
	ID                 string                  `json:"id"`
	Name               string                  `json:"name"`
	ResourceType       string                  `json:"resource_type"`
	DepartmentName     string                  `json:"department_name,omitempty"`
	Summary            *ResourceSummaryDTO     `json:"summary,omitempty"`
	UtilizationPeriods []UtilizationPeriodDTO  `json:"utilization_periods,omitempty"`
	Error              string                  `json:"error,omitempty"`
}

// ResourceSummaryDTO aggregates a resource's row across all periods.
type ResourceSummaryDTO struct {
	AverageUtilization  float64 `json:"average_utilization"`
	TotalAllocatedHours float64 `json:"total_allocated_hours"`
	ActiveProjects      int     `json:"active_projects"`
}

// UtilizationPeriodDTO is one cell of the grid.
type UtilizationPeriodDTO struct {
	PeriodStart            string              `json:"period_start"`
	PeriodEnd              string              `json:"period_end"`
	Label                  string              `json:"label"`
	AllocatedHours         float64             `json:"allocated_hours"`
	NetAvailableHours      float64             `json:"net_available_hours"`
	UnavailableHours       float64             `json:"unavailable_hours"`
	UtilizationPercent     float64             `json:"utilization_percent"`
	TotalAllocationPercent float64             `json:"total_allocation_percent"`
	Band                   string              `json:"band"`
	Allocations            []AllocationDTO     `json:"allocations,omitempty"`
	Unavailability         []UnavailabilityDTO `json:"unavailability,omitempty"`
}

// AllocationDTO is one allocation's contribution, for drill-down.
type AllocationDTO struct {
	AllocationID string  `json:"allocation_id"`
	ProjectID    string  `json:"project_id"`
	ProjectName  string  `json:"project_name,omitempty"`
	Percent      float64 `json:"percent"`
}

// UnavailabilityDTO is one contributing unavailability record.
type UnavailabilityDTO struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description,omitempty"`
}

// =============================================================================
// CATALOG TYPES
// =============================================================================

// ResourceDTO represents a resource in API responses.
type ResourceDTO struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Active         bool   `json:"active"`
	DepartmentID   string `json:"department_id,omitempty"`
	DepartmentName string `json:"department_name,omitempty"`
}

// CreateResourceRequest is the request to create a resource.
type CreateResourceRequest struct {
	ID           string `json:"id,omitempty"` // generated when empty
	Type         string `json:"type"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
}

// CreateAvailabilityRequest states a resource's capacity from a date
// forward. Supersede closes the prior open-ended record first.
type CreateAvailabilityRequest struct {
	EffectiveFrom     string   `json:"effective_from"`
	EffectiveTo       *string  `json:"effective_to,omitempty"`
	HoursPerDay       float64  `json:"hours_per_day"`
	DaysPerWeek       float64  `json:"days_per_week"`
	TotalHoursPerWeek *float64 `json:"total_hours_per_week,omitempty"` // defaults to hours_per_day × days_per_week
	Supersede         bool     `json:"supersede,omitempty"`
}

// CreateUnavailabilityRequest records an interval where the resource
// cannot work.
type CreateUnavailabilityRequest struct {
	Type        string `json:"type"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description,omitempty"`
}

// CreateAllocationRequest commits a percent of a resource to a project.
type CreateAllocationRequest struct {
	ProjectID string  `json:"project_id"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Percent   float64 `json:"percent"`
	Notes     string  `json:"notes,omitempty"`
}

// DepartmentDTO represents a department.
type DepartmentDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectDTO represents a project.
type ProjectDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toHeatmapResponse(h *capacity.Heatmap) HeatmapResponseDTO {
	resp := HeatmapResponseDTO{
		Resources:    make([]HeatmapResourceDTO, len(h.Resources)),
		PeriodLabels: h.PeriodLabels,
		Total:        h.Total,
	}
	for i, row := range h.Resources {
		resp.Resources[i] = toHeatmapResourceDTO(row)
	}
	return resp
}

func toHeatmapResourceDTO(row capacity.HeatmapResource) HeatmapResourceDTO {
	dto := HeatmapResourceDTO{
		ID:             string(row.ID),
		Name:           row.Name,
		ResourceType:   string(row.Type),
		DepartmentName: row.DepartmentName,
	}
	if row.Err != nil {
		dto.Error = row.Err.Error()
		return dto
	}

	avg, _ := row.Summary.AverageUtilization.Float64()
	hours, _ := row.Summary.TotalAllocatedHours.Float64()
	dto.Summary = &ResourceSummaryDTO{
		AverageUtilization:  avg,
		TotalAllocatedHours: hours,
		ActiveProjects:      row.Summary.ActiveProjects,
	}

	dto.UtilizationPeriods = make([]UtilizationPeriodDTO, len(row.Periods))
	for i, ur := range row.Periods {
		dto.UtilizationPeriods[i] = toUtilizationPeriodDTO(ur)
	}
	return dto
}

func toUtilizationPeriodDTO(ur capacity.UtilizationResult) UtilizationPeriodDTO {
	allocated, _ := ur.AllocatedHours.Float64()
	net, _ := ur.NetAvailableHours.Float64()
	unavailable, _ := ur.UnavailableHours.Float64()
	utilization, _ := ur.UtilizationPercent.Float64()
	totalPercent, _ := ur.TotalAllocationPercent.Float64()

	dto := UtilizationPeriodDTO{
		PeriodStart:            ur.Period.Start.String(),
		PeriodEnd:              ur.Period.End.String(),
		Label:                  ur.Period.Label,
		AllocatedHours:         allocated,
		NetAvailableHours:      net,
		UnavailableHours:       unavailable,
		UtilizationPercent:     utilization,
		TotalAllocationPercent: totalPercent,
		Band:                   string(ur.Band),
	}
	for _, share := range ur.Allocations {
		pct, _ := share.Percent.Float64()
		dto.Allocations = append(dto.Allocations, AllocationDTO{
			AllocationID: share.AllocationID,
			ProjectID:    string(share.ProjectID),
			ProjectName:  share.ProjectName,
			Percent:      pct,
		})
	}
	for _, up := range ur.Unavailability {
		dto.Unavailability = append(dto.Unavailability, UnavailabilityDTO{
			ID:          up.ID,
			Type:        string(up.Type),
			StartDate:   up.Start.String(),
			EndDate:     up.End.String(),
			Description: up.Description,
		})
	}
	return dto
}

func toResourceDTO(r capacity.Resource) ResourceDTO {
	return ResourceDTO{
		ID:             string(r.ID),
		Type:           string(r.Type),
		Name:           r.Name,
		Email:          r.Email,
		Active:         r.Active,
		DepartmentID:   string(r.DepartmentID),
		DepartmentName: r.DepartmentName,
	}
}

func toDepartmentDTOs(departments []sqlite.Department) []DepartmentDTO {
	dtos := make([]DepartmentDTO, len(departments))
	for i, d := range departments {
		dtos[i] = DepartmentDTO{ID: string(d.ID), Name: d.Name}
	}
	return dtos
}

func toProjectDTOs(projects []sqlite.Project) []ProjectDTO {
	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = ProjectDTO{ID: string(p.ID), Name: p.Name, Active: p.Active}
	}
	return dtos
}
