package handler

import (
	"net/http"
	"time"

	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

// RotationHandler serves the leader rotation of a service type
type RotationHandler struct {
	rotation *service.RotationService
}

// NewRotationHandler creates a new rotation handler
func NewRotationHandler(rotation *service.RotationService) *RotationHandler {
	return &RotationHandler{rotation: rotation}
}

// List handles GET /v1/service-types/{id}/rotation
func (h *RotationHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.rotation.List(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, members, rotationLinks(r.PathValue("id")))
}

// Add handles POST /v1/service-types/{id}/rotation
func (h *RotationHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req model.AddRotationMemberRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	member, err := h.rotation.Add(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusCreated, member, rotationLinks(r.PathValue("id")))
}

// Remove handles DELETE /v1/service-types/{id}/rotation/{memberId}
func (h *RotationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.rotation.Remove(r.Context(), r.PathValue("id"), r.PathValue("memberId")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteNoContent(w)
}

// Reorder handles PUT /v1/service-types/{id}/rotation/order
func (h *RotationHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req model.ReorderRotationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	members, err := h.rotation.Reorder(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, members, rotationLinks(r.PathValue("id")))
}

// Next handles GET /v1/service-types/{id}/rotation/next?date=. The date
// defaults to today.
func (h *RotationHandler) Next(w http.ResponseWriter, r *http.Request) {
	date, ok := queryDate(w, r, "date")
	if !ok {
		return
	}
	if date == "" {
		date = time.Now().UTC().Format(model.DateLayout)
	}
	next, err := h.rotation.NextLeader(r.Context(), r.PathValue("id"), date)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, next, nil)
}

// Recalculate handles POST /v1/service-types/{id}/rotation/recalculate
func (h *RotationHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	result, err := h.rotation.Recalculate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, result, nil)
}

func rotationLinks(typeID string) map[string]string {
	base := "/v1/service-types/" + typeID + "/rotation"
	return map[string]string{
		"self":         base,
		"next":         base + "/next",
		"service_type": "/v1/service-types/" + typeID,
	}
}
