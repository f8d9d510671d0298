package handler

import (
	"net/http"

	"github.com/forgo/worship/api/internal/middleware"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

// WorshipSetHandler serves worship sets and their song lineups. Whether the
// caller may edit a particular set is decided by the service: only the set's
// leader or an admin may.
type WorshipSetHandler struct {
	sets *service.WorshipSetService
}

// NewWorshipSetHandler creates a new worship set handler
func NewWorshipSetHandler(sets *service.WorshipSetService) *WorshipSetHandler {
	return &WorshipSetHandler{sets: sets}
}

// Create handles POST /v1/services/{id}/worship-set
func (h *WorshipSetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateWorshipSetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	detail, err := h.sets.Create(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusCreated, detail, setLinks(detail.WorshipSet.ID))
}

// GetByService handles GET /v1/services/{id}/worship-set
func (h *WorshipSetHandler) GetByService(w http.ResponseWriter, r *http.Request) {
	detail, err := h.sets.GetByService(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, detail, setLinks(detail.WorshipSet.ID))
}

// Get handles GET /v1/worship-sets/{id}
func (h *WorshipSetHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.sets.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, detail, setLinks(detail.WorshipSet.ID))
}

// Update handles PATCH /v1/worship-sets/{id}
func (h *WorshipSetHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateWorshipSetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	set, err := h.sets.Update(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, set, setLinks(set.ID))
}

// Publish handles POST /v1/worship-sets/{id}/publish
func (h *WorshipSetHandler) Publish(w http.ResponseWriter, r *http.Request) {
	set, err := h.sets.Publish(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, set, setLinks(set.ID))
}

// Delete handles DELETE /v1/worship-sets/{id}
func (h *WorshipSetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sets.Delete(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteNoContent(w)
}

// ============================================================================
// Lineup
// ============================================================================

// ListSongs handles GET /v1/worship-sets/{id}/songs
func (h *WorshipSetHandler) ListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := h.sets.ListSongs(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, songs, nil)
}

// AddSong handles POST /v1/worship-sets/{id}/songs
func (h *WorshipSetHandler) AddSong(w http.ResponseWriter, r *http.Request) {
	var req model.AddSetSongRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	ss, err := h.sets.AddSong(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusCreated, ss, nil)
}

// UpdateSong handles PATCH /v1/worship-sets/{id}/songs/{songId}
func (h *WorshipSetHandler) UpdateSong(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateSetSongRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	ss, err := h.sets.UpdateSong(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"), r.PathValue("songId"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, ss, nil)
}

// RemoveSong handles DELETE /v1/worship-sets/{id}/songs/{songId}
func (h *WorshipSetHandler) RemoveSong(w http.ResponseWriter, r *http.Request) {
	if err := h.sets.RemoveSong(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"), r.PathValue("songId")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteNoContent(w)
}

// ReorderSongs handles PUT /v1/worship-sets/{id}/songs/order
func (h *WorshipSetHandler) ReorderSongs(w http.ResponseWriter, r *http.Request) {
	var req model.ReorderSetSongsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	songs, err := h.sets.ReorderSongs(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, songs, nil)
}

func setLinks(id string) map[string]string {
	base := "/v1/worship-sets/" + id
	return map[string]string{
		"self":             base,
		"songs":            base + "/songs",
		"assignments":      base + "/assignments",
		"suggestion_slots": base + "/suggestion-slots",
	}
}
