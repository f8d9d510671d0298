package handler

import (
	"net/http"

	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

// maxLibraryBytes caps YAML library uploads.
const maxLibraryBytes = 4 << 20

// SongHandler serves the song library, arrangements and transposition
type SongHandler struct {
	songs   *service.SongService
	imports *service.ImportService
}

// NewSongHandler creates a new song handler
func NewSongHandler(songs *service.SongService, imports *service.ImportService) *SongHandler {
	return &SongHandler{songs: songs, imports: imports}
}

// Search handles GET /v1/songs?q=&tag=&include_inactive=
func (h *SongHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	songs, err := h.songs.Search(r.Context(), model.SongSearch{
		Query:           q.Get("q"),
		Tag:             q.Get("tag"),
		IncludeInactive: queryBool(r, "include_inactive"),
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, songs, nil)
}

// Get handles GET /v1/songs/{id}
func (h *SongHandler) Get(w http.ResponseWriter, r *http.Request) {
	song, err := h.songs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, song, songLinks(song.ID))
}

// Create handles POST /v1/songs
func (h *SongHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSongRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	song, err := h.songs.Create(r.Context(), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusCreated, song, songLinks(song.ID))
}

// Update handles PATCH /v1/songs/{id}
func (h *SongHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateSongRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	song, err := h.songs.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, song, songLinks(song.ID))
}

// Delete handles DELETE /v1/songs/{id}. Songs are only deactivated so that
// past sets keep their lineup.
func (h *SongHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.songs.Deactivate(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteNoContent(w)
}

// Import handles POST /v1/songs/import with a YAML library body
func (h *SongHandler) Import(w http.ResponseWriter, r *http.Request) {
	result, err := h.imports.Import(r.Context(), http.MaxBytesReader(w, r.Body, maxLibraryBytes))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, result, nil)
}

// Transpose handles POST /v1/transpose
func (h *SongHandler) Transpose(w http.ResponseWriter, r *http.Request) {
	var req model.TransposeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	chart, err := h.songs.Transpose(req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, chart, nil)
}

// ============================================================================
// Versions
// ============================================================================

// ListVersions handles GET /v1/songs/{id}/versions
func (h *SongHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.songs.ListVersions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, versions, nil)
}

// CreateVersion handles POST /v1/songs/{id}/versions
func (h *SongHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSongVersionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	v, err := h.songs.CreateVersion(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusCreated, v, versionLinks(v.SongID, v.ID))
}

// GetVersion handles GET /v1/songs/{id}/versions/{versionId}
func (h *SongHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	v, err := h.songs.GetVersion(r.Context(), r.PathValue("id"), r.PathValue("versionId"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, v, versionLinks(v.SongID, v.ID))
}

// UpdateVersion handles PATCH /v1/songs/{id}/versions/{versionId}
func (h *SongHandler) UpdateVersion(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateSongVersionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	v, err := h.songs.UpdateVersion(r.Context(), r.PathValue("id"), r.PathValue("versionId"), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, v, versionLinks(v.SongID, v.ID))
}

// DeleteVersion handles DELETE /v1/songs/{id}/versions/{versionId}
func (h *SongHandler) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	if err := h.songs.DeleteVersion(r.Context(), r.PathValue("id"), r.PathValue("versionId")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteNoContent(w)
}

// Chart handles GET /v1/songs/{id}/versions/{versionId}/chart?key=
func (h *SongHandler) Chart(w http.ResponseWriter, r *http.Request) {
	chart, err := h.songs.Chart(r.Context(), r.PathValue("id"), r.PathValue("versionId"), r.URL.Query().Get("key"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, chart, nil)
}

func songLinks(id string) map[string]string {
	base := "/v1/songs/" + id
	return map[string]string{
		"self":         base,
		"versions":     base + "/versions",
		"chord_sheets": base + "/chord-sheets",
	}
}

func versionLinks(songID, versionID string) map[string]string {
	base := "/v1/songs/" + songID + "/versions/" + versionID
	return map[string]string{
		"self":  base,
		"song":  "/v1/songs/" + songID,
		"chart": base + "/chart",
	}
}
