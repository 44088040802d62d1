/*
handlers.go - HTTP API handlers for the capacity heatmap service

PURPOSE:
  Exposes the capacity aggregation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.
  Authentication/authorization is owned by an upstream layer; handlers
  assume already-authorized identifiers.

ENDPOINTS:
  Heatmap:
    GET    /api/heatmap                     Utilization grid for a date range

  Resources:
    GET    /api/resources                   List resources (filter/paginate)
    POST   /api/resources                   Create resource
    GET    /api/resources/{id}              Get resource details
    POST   /api/resources/{id}/availability    Add availability record
    POST   /api/resources/{id}/unavailability  Add unavailability period
    POST   /api/resources/{id}/allocations     Add project allocation

  Catalogs:
    GET    /api/departments                 List departments
    GET    /api/projects                    List projects

  Scenarios:
    GET    /api/scenarios                   List demo scenarios
    POST   /api/scenarios/load              Load a demo scenario
    POST   /api/scenarios/reset             Clear the database (dev only)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (assembler, store)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input (range, granularity, dates)
  - 404: Resource not found
  - 500: Internal errors
  Per-resource fetch failures inside the heatmap do NOT fail the request;
  they appear as error markers in the affected rows.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/metrics"
	"github.com/warp/capacity-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Assembler *capacity.HeatmapAssembler
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:     store,
		Assembler: capacity.NewHeatmapAssembler(store),
	}
}

// =============================================================================
// HEATMAP
// =============================================================================

// GetHeatmap handles GET /api/heatmap.
//
// Query parameters: start_date, end_date (ISO dates, required), granularity
// (daily|weekly|monthly, required), department_ids, resource_types,
// resource_ids (comma-separated), project_id, search, page, size.
func (h *Handler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.HeatmapDurationSeconds)
	defer timer.ObserveDuration()

	input, err := parseHeatmapQuery(r)
	if err != nil {
		metrics.HeatmapRequestsTotal.WithLabelValues("client_error").Inc()
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	heatmap, err := h.Assembler.Assemble(r.Context(), input)
	if err != nil {
		if capacity.IsClientError(err) {
			metrics.HeatmapRequestsTotal.WithLabelValues("client_error").Inc()
		} else {
			metrics.HeatmapRequestsTotal.WithLabelValues("server_error").Inc()
		}
		h.writeDomainError(w, err)
		return
	}

	metrics.HeatmapRequestsTotal.WithLabelValues("ok").Inc()
	metrics.HeatmapResourcesProcessed.Observe(float64(len(heatmap.Resources)))
	for _, row := range heatmap.Resources {
		if row.Err != nil {
			metrics.ResourceFetchErrorsTotal.Inc()
			continue
		}
		for _, ur := range row.Periods {
			metrics.PeriodsClassifiedTotal.WithLabelValues(string(ur.Band)).Inc()
		}
	}

	writeJSON(w, http.StatusOK, toHeatmapResponse(heatmap))
}

func parseHeatmapQuery(r *http.Request) (capacity.HeatmapInput, error) {
	q := r.URL.Query()

	start, err := capacity.ParseDate(q.Get("start_date"))
	if err != nil {
		return capacity.HeatmapInput{}, fmt.Errorf("invalid start_date: %q", q.Get("start_date"))
	}
	end, err := capacity.ParseDate(q.Get("end_date"))
	if err != nil {
		return capacity.HeatmapInput{}, fmt.Errorf("invalid end_date: %q", q.Get("end_date"))
	}
	granularity, err := capacity.ParseGranularity(q.Get("granularity"))
	if err != nil {
		return capacity.HeatmapInput{}, err
	}

	filter := capacity.ResourceFilter{
		ProjectID: capacity.ProjectID(q.Get("project_id")),
		Search:    q.Get("search"),
		Page:      intParam(q.Get("page"), 1),
		Size:      intParam(q.Get("size"), 0),
	}
	for _, id := range splitCSV(q.Get("resource_ids")) {
		filter.IDs = append(filter.IDs, capacity.ResourceID(id))
	}
	for _, id := range splitCSV(q.Get("department_ids")) {
		filter.DepartmentIDs = append(filter.DepartmentIDs, capacity.DepartmentID(id))
	}
	for _, t := range splitCSV(q.Get("resource_types")) {
		filter.Types = append(filter.Types, capacity.ResourceType(t))
	}

	return capacity.HeatmapInput{
		Start:       start,
		End:         end,
		Granularity: granularity,
		Filter:      filter,
	}, nil
}

// =============================================================================
// RESOURCES
// =============================================================================

// ListResources handles GET /api/resources.
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := capacity.ResourceFilter{
		Search:          q.Get("search"),
		ProjectID:       capacity.ProjectID(q.Get("project_id")),
		IncludeInactive: q.Get("include_inactive") == "true",
		Page:            intParam(q.Get("page"), 1),
		Size:            intParam(q.Get("size"), 0),
	}
	for _, id := range splitCSV(q.Get("department_ids")) {
		filter.DepartmentIDs = append(filter.DepartmentIDs, capacity.DepartmentID(id))
	}
	for _, t := range splitCSV(q.Get("resource_types")) {
		filter.Types = append(filter.Types, capacity.ResourceType(t))
	}

	resources, total, err := h.Store.ListResources(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]ResourceDTO, len(resources))
	for i, res := range resources {
		dtos[i] = toResourceDTO(res)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resources": dtos,
		"total":     total,
	})
}

// CreateResource handles POST /api/resources.
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	rType := capacity.ResourceType(req.Type)
	if rType != capacity.ResourcePersonnel && rType != capacity.ResourceEquipment {
		writeError(w, http.StatusBadRequest, "invalid_request", "type must be personnel or equipment")
		return
	}

	res := capacity.Resource{
		ID:           capacity.ResourceID(req.ID),
		Type:         rType,
		Name:         req.Name,
		Email:        req.Email,
		Active:       true,
		DepartmentID: capacity.DepartmentID(req.DepartmentID),
	}
	if res.ID == "" {
		res.ID = capacity.ResourceID(uuid.NewString())
	}

	if err := h.Store.SaveResource(r.Context(), res); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResourceDTO(res))
}

// GetResource handles GET /api/resources/{id}.
func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	id := capacity.ResourceID(chi.URLParam(r, "id"))
	res, err := h.Store.GetResource(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResourceDTO(*res))
}

// CreateAvailability handles POST /api/resources/{id}/availability.
func (h *Handler) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	id := capacity.ResourceID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetResource(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	var req CreateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	from, err := capacity.ParseDate(req.EffectiveFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid effective_from")
		return
	}
	rec := capacity.AvailabilityRecord{
		ID:            uuid.NewString(),
		ResourceID:    id,
		EffectiveFrom: from,
		HoursPerDay:   decimal.NewFromFloat(req.HoursPerDay),
		DaysPerWeek:   decimal.NewFromFloat(req.DaysPerWeek),
	}
	if req.EffectiveTo != nil {
		to, err := capacity.ParseDate(*req.EffectiveTo)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid effective_to")
			return
		}
		if to.Before(from) {
			writeError(w, http.StatusBadRequest, "invalid_request", "effective_to before effective_from")
			return
		}
		rec.EffectiveTo = &to
	}
	// total_hours_per_week is stored independently; default to the product.
	if req.TotalHoursPerWeek != nil {
		rec.TotalHoursPerWeek = decimal.NewFromFloat(*req.TotalHoursPerWeek)
	} else {
		rec.TotalHoursPerWeek = rec.HoursPerDay.Mul(rec.DaysPerWeek)
	}

	save := h.Store.SaveAvailability
	if req.Supersede {
		save = h.Store.SupersedeAvailability
	}
	if err := save(r.Context(), rec); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": rec.ID})
}

// CreateUnavailability handles POST /api/resources/{id}/unavailability.
func (h *Handler) CreateUnavailability(w http.ResponseWriter, r *http.Request) {
	id := capacity.ResourceID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetResource(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	var req CreateUnavailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	start, err := capacity.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid start_date")
		return
	}
	end, err := capacity.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid end_date")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "invalid_request", "end_date before start_date")
		return
	}
	switch capacity.UnavailabilityType(req.Type) {
	case capacity.UnavailabilityPTO, capacity.UnavailabilityHoliday,
		capacity.UnavailabilitySickLeave, capacity.UnavailabilityTraining,
		capacity.UnavailabilityMaintenance, capacity.UnavailabilityOther:
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown unavailability type")
		return
	}

	up := capacity.UnavailabilityPeriod{
		ID:          uuid.NewString(),
		ResourceID:  id,
		Type:        capacity.UnavailabilityType(req.Type),
		Start:       start,
		End:         end,
		Description: req.Description,
	}
	if err := h.Store.SaveUnavailability(r.Context(), up); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": up.ID})
}

// CreateAllocation handles POST /api/resources/{id}/allocations.
func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	id := capacity.ResourceID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetResource(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	var req CreateAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	start, err := capacity.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid start_date")
		return
	}
	end, err := capacity.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid end_date")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "invalid_request", "end_date before start_date")
		return
	}
	// Negative percents are rejected; sums over 100 are NOT - overallocation
	// is a state the heatmap exists to surface.
	if req.Percent < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "percent must be >= 0")
		return
	}

	alloc := capacity.Allocation{
		ID:         uuid.NewString(),
		ResourceID: id,
		ProjectID:  capacity.ProjectID(req.ProjectID),
		Start:      start,
		End:        end,
		Percent:    decimal.NewFromFloat(req.Percent),
		Active:     true,
		Notes:      req.Notes,
	}
	if err := h.Store.SaveAllocation(r.Context(), alloc); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": alloc.ID})
}

// =============================================================================
// CATALOGS
// =============================================================================

// ListDepartments handles GET /api/departments.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDepartmentDTOs(departments))
}

// ListProjects handles GET /api/projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTOs(projects))
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ListScenarios handles GET /api/scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, 0, len(Scenarios))
	for _, sc := range Scenarios {
		dtos = append(dtos, ScenarioDTO{ID: sc.ID, Name: sc.Name, Description: sc.Description})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario handles POST /api/scenarios/load.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	scenario := FindScenario(req.ScenarioID)
	if scenario == nil {
		writeError(w, http.StatusNotFound, "not_found", "unknown scenario: "+req.ScenarioID)
		return
	}

	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := scenario.Load(r.Context(), h.Store); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"loaded": scenario.ID})
}

// ResetDatabase handles POST /api/scenarios/reset.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case capacity.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case capacity.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "timeout", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func intParam(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
