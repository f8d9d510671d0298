package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/forgo/worship/api/internal/blob"
	"github.com/forgo/worship/api/internal/metrics"
	"github.com/forgo/worship/api/internal/model"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const defaultMaxChordSheetBytes = 10 << 20

// acceptedSheetTypes are the sniffed content types a chord sheet may have.
var acceptedSheetTypes = []string{"application/pdf", "image/png", "image/jpeg", "text/plain"}

// ChordSheetUpload is one uploaded file.
type ChordSheetUpload struct {
	FileName  string
	VersionID *string
	Key       *string
	Body      io.Reader
}

// ChordSheetService stores chord sheet files and their metadata.
type ChordSheetService struct {
	sheets     ChordSheetRepository
	songs      SongRepository
	versions   SongVersionRepository
	store      blob.Store
	maxBytes   int64
	presignTTL time.Duration
}

// ChordSheetServiceConfig holds the chord sheet dependencies
type ChordSheetServiceConfig struct {
	ChordSheetRepo  ChordSheetRepository
	SongRepo        SongRepository
	SongVersionRepo SongVersionRepository
	Store           blob.Store
	MaxBytes        int64
	PresignTTL      time.Duration
}

// NewChordSheetService creates a new chord sheet service
func NewChordSheetService(cfg ChordSheetServiceConfig) *ChordSheetService {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxChordSheetBytes
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}
	return &ChordSheetService{
		sheets:     cfg.ChordSheetRepo,
		songs:      cfg.SongRepo,
		versions:   cfg.SongVersionRepo,
		store:      cfg.Store,
		maxBytes:   cfg.MaxBytes,
		presignTTL: cfg.PresignTTL,
	}
}

// MaxBytes is the upload size limit.
func (s *ChordSheetService) MaxBytes() int64 { return s.maxBytes }

// Upload sniffs, stores and records a chord sheet. The declared content type
// is ignored; only the sniffed type decides acceptance.
func (s *ChordSheetService) Upload(ctx context.Context, actor Actor, songID string, in ChordSheetUpload) (*model.ChordSheet, error) {
	song, err := s.songs.GetByID(ctx, songID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, ErrSongNotFound
	}
	if in.VersionID != nil {
		v, err := s.versions.GetByID(ctx, *in.VersionID)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, ErrSongVersionNotFound
		}
		if v.SongID != songID {
			return nil, ErrVersionSongMismatch
		}
	}
	key, err := canonicalKey(in.Key)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	mt := mimetype.Detect(data)
	if !accepted(mt) {
		return nil, ErrUnsupportedFileType
	}
	contentType := strings.SplitN(mt.String(), ";", 2)[0]

	id := uuid.NewString()
	storageKey := path.Join("chord-sheets", songID, id+mt.Extension())
	if _, err := s.store.Put(ctx, storageKey, bytes.NewReader(data), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"song-id": songID, "uploaded-by": actor.UserID},
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	sheet := &model.ChordSheet{
		ID:            id,
		SongID:        songID,
		SongVersionID: in.VersionID,
		FileName:      cleanFileName(in.FileName, mt.Extension()),
		ContentType:   contentType,
		Size:          int64(len(data)),
		StorageKey:    storageKey,
		Key:           key,
		UploadedBy:    actor.UserID,
	}
	if err := s.sheets.Create(ctx, sheet); err != nil {
		if derr := s.store.Delete(ctx, storageKey); derr != nil {
			slog.WarnContext(ctx, "orphaned chord sheet blob", slog.String("key", storageKey), slog.String("error", derr.Error()))
		}
		return nil, err
	}
	metrics.RecordUpload(sheet.Size)

	sheet.URL = s.downloadURL(ctx, sheet)
	return sheet, nil
}

// accepted compares type/subtype only, so text/plain with a charset passes.
func accepted(mt *mimetype.MIME) bool {
	for _, t := range acceptedSheetTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

func (s *ChordSheetService) Get(ctx context.Context, id string) (*model.ChordSheet, error) {
	sheet, err := s.sheets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sheet == nil {
		return nil, ErrChordSheetNotFound
	}
	sheet.URL = s.downloadURL(ctx, sheet)
	return sheet, nil
}

func (s *ChordSheetService) ListBySong(ctx context.Context, songID string) ([]*model.ChordSheet, error) {
	song, err := s.songs.GetByID(ctx, songID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, ErrSongNotFound
	}
	sheets, err := s.sheets.ListBySong(ctx, songID)
	if err != nil {
		return nil, err
	}
	for _, sheet := range sheets {
		sheet.URL = s.downloadURL(ctx, sheet)
	}
	return sheets, nil
}

// Open streams a stored sheet. The caller closes the reader.
func (s *ChordSheetService) Open(ctx context.Context, id string) (*model.ChordSheet, io.ReadCloser, error) {
	sheet, err := s.sheets.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if sheet == nil {
		return nil, nil, ErrChordSheetNotFound
	}
	_, rc, err := s.store.Get(ctx, sheet.StorageKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, nil, ErrChordSheetNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return sheet, rc, nil
}

// Delete removes a sheet. The uploader, leaders and admins may delete.
func (s *ChordSheetService) Delete(ctx context.Context, actor Actor, id string) error {
	sheet, err := s.sheets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sheet == nil {
		return ErrChordSheetNotFound
	}
	if sheet.UploadedBy != actor.UserID && !actor.CanLead() {
		return ErrForbidden
	}
	if err := s.sheets.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sheet.StorageKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
		slog.WarnContext(ctx, "chord sheet blob not deleted", slog.String("key", sheet.StorageKey), slog.String("error", err.Error()))
	}
	return nil
}

// downloadURL presigns when the store can, else points at the API download route.
func (s *ChordSheetService) downloadURL(ctx context.Context, sheet *model.ChordSheet) string {
	url, err := s.store.PresignGet(ctx, sheet.StorageKey, s.presignTTL)
	if err == nil {
		return url
	}
	if !errors.Is(err, blob.ErrUnsupported) {
		slog.WarnContext(ctx, "presign failed", slog.String("key", sheet.StorageKey), slog.String("error", err.Error()))
	}
	return "/v1/chord-sheets/" + sheet.ID + "/file"
}

func cleanFileName(name, ext string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "chord-sheet" + ext
	}
	if len(name) > 200 {
		name = name[:200]
	}
	return name
}
