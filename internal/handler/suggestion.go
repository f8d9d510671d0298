package handler

import (
	"net/http"

	"github.com/forgo/worship/api/internal/middleware"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

// SuggestionHandler serves suggestion slots and the songs suggested in them
type SuggestionHandler struct {
	suggestions *service.SuggestionService
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(suggestions *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions}
}

// CreateSlot handles POST /v1/worship-sets/{id}/suggestion-slots
func (h *SuggestionHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSuggestionSlotRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	slot, err := h.suggestions.CreateSlot(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusCreated, slot, slotLinks(slot.ID))
}

// ListBySet handles GET /v1/worship-sets/{id}/suggestion-slots
func (h *SuggestionHandler) ListBySet(w http.ResponseWriter, r *http.Request) {
	slots, err := h.suggestions.ListBySet(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, slots, nil)
}

// ListMine handles GET /v1/me/suggestion-slots?open=true
func (h *SuggestionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	slots, err := h.suggestions.ListMine(r.Context(), middleware.GetUserID(r.Context()), queryBool(r, "open"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, slots, nil)
}

// GetSlot handles GET /v1/suggestion-slots/{id}
func (h *SuggestionHandler) GetSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := h.suggestions.GetSlot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, slot, slotLinks(slot.ID))
}

// CancelSlot handles DELETE /v1/suggestion-slots/{id}
func (h *SuggestionHandler) CancelSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := h.suggestions.CancelSlot(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, slot, nil)
}

// Submit handles POST /v1/suggestion-slots/{id}/submit
func (h *SuggestionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	slot, err := h.suggestions.Submit(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, slot, slotLinks(slot.ID))
}

// AddSuggestion handles POST /v1/suggestion-slots/{id}/suggestions
func (h *SuggestionHandler) AddSuggestion(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSuggestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	sg, err := h.suggestions.AddSuggestion(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusCreated, sg, nil)
}

// ListSuggestions handles GET /v1/suggestion-slots/{id}/suggestions
func (h *SuggestionHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	list, err := h.suggestions.ListSuggestions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, list, nil)
}

// DeleteSuggestion handles DELETE /v1/suggestions/{id}
func (h *SuggestionHandler) DeleteSuggestion(w http.ResponseWriter, r *http.Request) {
	if err := h.suggestions.DeleteSuggestion(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteNoContent(w)
}

// Accept handles POST /v1/suggestions/{id}/accept
func (h *SuggestionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ss, err := h.suggestions.Accept(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusCreated, ss, nil)
}

func slotLinks(id string) map[string]string {
	base := "/v1/suggestion-slots/" + id
	return map[string]string{
		"self":        base,
		"suggestions": base + "/suggestions",
		"submit":      base + "/submit",
	}
}
