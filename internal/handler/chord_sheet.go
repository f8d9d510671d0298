package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/forgo/worship/api/internal/metrics"
	"github.com/forgo/worship/api/internal/middleware"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

// multipartOverhead allows for boundaries and the small text fields next to
// the file part.
const multipartOverhead = 64 << 10

// ChordSheetHandler serves uploaded chord sheet files
type ChordSheetHandler struct {
	sheets *service.ChordSheetService
}

// NewChordSheetHandler creates a new chord sheet handler
func NewChordSheetHandler(sheets *service.ChordSheetService) *ChordSheetHandler {
	return &ChordSheetHandler{sheets: sheets}
}

// Upload handles POST /v1/songs/{id}/chord-sheets as multipart/form-data with
// a "file" part and optional "version_id" and "key" fields.
func (h *ChordSheetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		WriteError(w, model.NewUnsupportedMediaTypeError(r.Header.Get("Content-Type")))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.sheets.MaxBytes()+multipartOverhead)
	reader, err := r.MultipartReader()
	if err != nil {
		WriteError(w, model.NewBadRequestError("invalid multipart body"))
		return
	}

	var in service.ChordSheetUpload
	var sheet *model.ChordSheet
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.writeReadError(w, err)
			return
		}

		switch part.FormName() {
		case "version_id", "key":
			value, err := io.ReadAll(io.LimitReader(part, 256))
			if err != nil {
				h.writeReadError(w, err)
				return
			}
			v := strings.TrimSpace(string(value))
			if v == "" {
				continue
			}
			if part.FormName() == "key" {
				in.Key = &v
			} else {
				in.VersionID = &v
			}
		case "file":
			// Fields must precede the file so the upload can stream.
			in.FileName = part.FileName()
			in.Body = part
			sheet, err = h.sheets.Upload(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"), in)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) || errors.Is(err, service.ErrFileTooLarge) {
					WriteError(w, model.NewPayloadTooLargeError(h.sheets.MaxBytes()))
					return
				}
				writeServiceError(r.Context(), w, err)
				return
			}
		}
		_ = part.Close()
		if sheet != nil {
			break
		}
	}

	if sheet == nil {
		WriteError(w, model.NewFieldError("file", "is required"))
		return
	}

	metrics.RecordUpload(sheet.Size)
	WriteData(w, http.StatusCreated, sheet, sheetLinks(sheet))
}

func (h *ChordSheetHandler) writeReadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		WriteError(w, model.NewPayloadTooLargeError(h.sheets.MaxBytes()))
		return
	}
	WriteError(w, model.NewBadRequestError("invalid multipart body"))
}

// ListBySong handles GET /v1/songs/{id}/chord-sheets
func (h *ChordSheetHandler) ListBySong(w http.ResponseWriter, r *http.Request) {
	sheets, err := h.sheets.ListBySong(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, sheets, nil)
}

// Get handles GET /v1/chord-sheets/{id}
func (h *ChordSheetHandler) Get(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.sheets.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteData(w, http.StatusOK, sheet, sheetLinks(sheet))
}

// Download handles GET /v1/chord-sheets/{id}/file. It is the fallback for
// stores that cannot presign URLs.
func (h *ChordSheetHandler) Download(w http.ResponseWriter, r *http.Request) {
	sheet, body, err := h.sheets.Open(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	defer func() { _ = body.Close() }()

	w.Header().Set("Content-Type", sheet.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(sheet.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": sheet.FileName}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.WarnContext(r.Context(), "chord sheet download interrupted",
			slog.String("sheet_id", sheet.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Delete handles DELETE /v1/chord-sheets/{id}
func (h *ChordSheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sheets.Delete(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteNoContent(w)
}

func sheetLinks(sheet *model.ChordSheet) map[string]string {
	return map[string]string{
		"self": "/v1/chord-sheets/" + sheet.ID,
		"file": "/v1/chord-sheets/" + sheet.ID + "/file",
		"song": "/v1/songs/" + sheet.SongID,
	}
}
