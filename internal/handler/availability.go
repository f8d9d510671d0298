package handler

import (
	"net/http"

	"github.com/forgo/worship/api/internal/middleware"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

// AvailabilityHandler serves blackout dates
type AvailabilityHandler struct {
	availability *service.AvailabilityService
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// ListMine handles GET /v1/me/availability
func (h *AvailabilityHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.availability.ListMine(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, list, nil)
}

// Create handles POST /v1/me/availability
func (h *AvailabilityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAvailabilityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	a, err := h.availability.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusCreated, a, nil)
}

// Delete handles DELETE /v1/availability/{id}
func (h *AvailabilityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.availability.Delete(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteNoContent(w)
}

// ListByDate handles GET /v1/availability?date=
func (h *AvailabilityHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	date, ok := queryDate(w, r, "date")
	if !ok {
		return
	}
	if date == "" {
		WriteError(w, model.NewFieldError("date", "is required"))
		return
	}
	list, err := h.availability.ListByDate(r.Context(), date)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, list, nil)
}
