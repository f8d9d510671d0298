package handler

import (
	"bytes"
	"net/http"

	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CalendarHandler serves service types and dated services
type CalendarHandler struct {
	calendar *service.CalendarService
	export   *service.ExportService
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(calendar *service.CalendarService, export *service.ExportService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar, export: export}
}

// ============================================================================
// Service types
// ============================================================================

// ListTypes handles GET /v1/service-types?include_inactive=true
func (h *CalendarHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.calendar.ListTypes(r.Context(), queryBool(r, "include_inactive"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, types, nil)
}

// GetType handles GET /v1/service-types/{id}
func (h *CalendarHandler) GetType(w http.ResponseWriter, r *http.Request) {
	st, err := h.calendar.GetType(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, st, typeLinks(st.ID))
}

// CreateType handles POST /v1/service-types
func (h *CalendarHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	var req model.CreateServiceTypeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	st, err := h.calendar.CreateType(r.Context(), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusCreated, st, typeLinks(st.ID))
}

// UpdateType handles PATCH /v1/service-types/{id}
func (h *CalendarHandler) UpdateType(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateServiceTypeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	st, err := h.calendar.UpdateType(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, st, typeLinks(st.ID))
}

// DeleteType handles DELETE /v1/service-types/{id}
func (h *CalendarHandler) DeleteType(w http.ResponseWriter, r *http.Request) {
	if err := h.calendar.DeleteType(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteNoContent(w)
}

func typeLinks(id string) map[string]string {
	base := "/v1/service-types/" + id
	return map[string]string{
		"self":                base,
		"rotation":            base + "/rotation",
		"default_assignments": base + "/default-assignments",
	}
}

// ============================================================================
// Services
// ============================================================================

// List handles GET /v1/services?from=&to=&service_type_id=
func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	from, ok := queryDate(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryDate(w, r, "to")
	if !ok {
		return
	}
	services, err := h.calendar.List(r.Context(), model.ServiceFilter{
		From:          from,
		To:            to,
		ServiceTypeID: r.URL.Query().Get("service_type_id"),
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, services, nil)
}

// Get handles GET /v1/services/{id}
func (h *CalendarHandler) Get(w http.ResponseWriter, r *http.Request) {
	svc, err := h.calendar.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, svc, serviceLinks(svc.ID))
}

// Create handles POST /v1/services
func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateServiceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	svc, err := h.calendar.Create(r.Context(), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusCreated, svc, serviceLinks(svc.ID))
}

// Update handles PATCH /v1/services/{id}
func (h *CalendarHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateServiceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	svc, err := h.calendar.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, svc, serviceLinks(svc.ID))
}

// Delete handles DELETE /v1/services/{id}
func (h *CalendarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.calendar.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteNoContent(w)
}

// Generate handles POST /v1/service-types/{id}/services/generate
func (h *CalendarHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateServicesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	created, err := h.calendar.Generate(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	if created == nil {
		created = []*model.Service{}
	}
	WriteJSON(w, http.StatusCreated, CollectionResponse{Data: created, Count: len(created)})
}

// Export handles GET /v1/services/export.xlsx?from=&to=
func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	from, ok := queryDate(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryDate(w, r, "to")
	if !ok {
		return
	}

	// Buffered so a failure can still be reported as a problem response.
	var buf bytes.Buffer
	if err := h.export.Schedule(r.Context(), from, to, &buf); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func serviceLinks(id string) map[string]string {
	return map[string]string{
		"self":        "/v1/services/" + id,
		"worship_set": "/v1/services/" + id + "/worship-set",
	}
}
