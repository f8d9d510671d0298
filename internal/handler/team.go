package handler

import (
	"net/http"

	"github.com/forgo/worship/api/internal/middleware"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

// TeamHandler serves instruments, assignments and default assignments
type TeamHandler struct {
	instruments *service.InstrumentService
	assignments *service.AssignmentService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(instruments *service.InstrumentService, assignments *service.AssignmentService) *TeamHandler {
	return &TeamHandler{instruments: instruments, assignments: assignments}
}

// ============================================================================
// Instruments
// ============================================================================

// ListInstruments handles GET /v1/instruments
func (h *TeamHandler) ListInstruments(w http.ResponseWriter, r *http.Request) {
	list, err := h.instruments.List(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, list, nil)
}

// CreateInstrument handles POST /v1/instruments
func (h *TeamHandler) CreateInstrument(w http.ResponseWriter, r *http.Request) {
	var req model.CreateInstrumentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	inst, err := h.instruments.Create(r.Context(), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusCreated, inst, nil)
}

// UpdateInstrument handles PATCH /v1/instruments/{id}
func (h *TeamHandler) UpdateInstrument(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateInstrumentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	inst, err := h.instruments.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, inst, nil)
}

// DeleteInstrument handles DELETE /v1/instruments/{id}
func (h *TeamHandler) DeleteInstrument(w http.ResponseWriter, r *http.Request) {
	if err := h.instruments.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteNoContent(w)
}

// ============================================================================
// Assignments
// ============================================================================

// ListBySet handles GET /v1/worship-sets/{id}/assignments
func (h *TeamHandler) ListBySet(w http.ResponseWriter, r *http.Request) {
	list, err := h.assignments.ListBySet(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, list, nil)
}

// CreateAssignment handles POST /v1/worship-sets/{id}/assignments
func (h *TeamHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAssignmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	a, err := h.assignments.Create(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusCreated, a, nil)
}

// DeleteAssignment handles DELETE /v1/assignments/{id}
func (h *TeamHandler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	if err := h.assignments.Delete(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteNoContent(w)
}

// Respond handles POST /v1/assignments/{id}/respond
func (h *TeamHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req model.RespondAssignmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	a, err := h.assignments.Respond(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, a, nil)
}

// ListMine handles GET /v1/me/assignments?from=
func (h *TeamHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	from, ok := queryDate(w, r, "from")
	if !ok {
		return
	}
	list, err := h.assignments.ListMine(r.Context(), middleware.GetUserID(r.Context()), from)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, list, nil)
}

// ============================================================================
// Default assignments
// ============================================================================

// ListDefaults handles GET /v1/service-types/{id}/default-assignments
func (h *TeamHandler) ListDefaults(w http.ResponseWriter, r *http.Request) {
	list, err := h.assignments.ListDefaults(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, list, nil)
}

// ReplaceDefaults handles PUT /v1/service-types/{id}/default-assignments
func (h *TeamHandler) ReplaceDefaults(w http.ResponseWriter, r *http.Request) {
	var req model.SetDefaultAssignmentsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	list, err := h.assignments.ReplaceDefaults(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, list, nil)
}

// DeleteDefault handles DELETE /v1/default-assignments/{id}
func (h *TeamHandler) DeleteDefault(w http.ResponseWriter, r *http.Request) {
	if err := h.assignments.DeleteDefault(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteNoContent(w)
}
