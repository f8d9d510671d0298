package repository

import (
	"context"
	"strings"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

const (
	songTable        = "song"
	songVersionTable = "song_version"
	chordSheetTable  = "chord_sheet"
)

// SongRepository handles song library data access
type SongRepository struct {
	db database.Database
}

// NewSongRepository creates a new song repository
func NewSongRepository(db database.Database) *SongRepository {
	return &SongRepository{db: db}
}

func songFields(s *model.Song) map[string]interface{} {
	return map[string]interface{}{
		"title":          s.Title,
		"artist":         strOrNil(s.Artist),
		"ccli_number":    strOrNil(s.CCLINumber),
		"default_key":    strOrNil(s.DefaultKey),
		"tempo":          intOrNil(s.Tempo),
		"time_signature": strOrNil(s.TimeSignature),
		"tags":           orEmpty(s.Tags),
		"notes":          strOrNil(s.Notes),
		"active":         s.Active,
	}
}

// Create creates a song
func (r *SongRepository) Create(ctx context.Context, s *model.Song) error {
	created, err := insert(ctx, r.db, songTable, ensureID(&s.ID), songFields(s))
	if err != nil {
		return err
	}
	s.Tags = orEmpty(s.Tags)
	s.CreatedOn, s.UpdatedOn = created.CreatedOn, created.UpdatedOn
	return nil
}

// GetByID retrieves a song by ID
func (r *SongRepository) GetByID(ctx context.Context, id string) (*model.Song, error) {
	return selectOne[model.Song](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": songTable, "rid": id})
}

// GetByTitle finds a song by case-insensitive title
func (r *SongRepository) GetByTitle(ctx context.Context, title string) (*model.Song, error) {
	return selectOne[model.Song](ctx, r.db,
		"SELECT * FROM song WHERE string::lowercase(title) = $title LIMIT 1",
		map[string]interface{}{"title": strings.ToLower(strings.TrimSpace(title))})
}

// List returns songs by title
func (r *SongRepository) List(ctx context.Context, includeInactive bool) ([]*model.Song, error) {
	query := "SELECT * FROM song WHERE active = true ORDER BY title"
	if includeInactive {
		query = "SELECT * FROM song ORDER BY title"
	}
	return selectAll[model.Song](ctx, r.db, query, nil)
}

// Update updates a song
func (r *SongRepository) Update(ctx context.Context, s *model.Song) error {
	updated, err := patch(ctx, r.db, songTable, s.ID, songFields(s))
	if err != nil {
		return err
	}
	s.UpdatedOn = updated.UpdatedOn
	return nil
}

// SongVersionRepository handles arrangement data access
type SongVersionRepository struct {
	db database.Database
}

// NewSongVersionRepository creates a new song version repository
func NewSongVersionRepository(db database.Database) *SongVersionRepository {
	return &SongVersionRepository{db: db}
}

func songVersionFields(v *model.SongVersion) map[string]interface{} {
	return map[string]interface{}{
		"song_id":     v.SongID,
		"name":        v.Name,
		"key":         strOrNil(v.Key),
		"tempo":       intOrNil(v.Tempo),
		"arrangement": strOrNil(v.Arrangement),
		"chord_chart": strOrNil(v.ChordChart),
	}
}

// Create creates a song version
func (r *SongVersionRepository) Create(ctx context.Context, v *model.SongVersion) error {
	created, err := insert(ctx, r.db, songVersionTable, ensureID(&v.ID), songVersionFields(v))
	if err != nil {
		return err
	}
	v.CreatedOn, v.UpdatedOn = created.CreatedOn, created.UpdatedOn
	return nil
}

// GetByID retrieves a song version by ID
func (r *SongVersionRepository) GetByID(ctx context.Context, id string) (*model.SongVersion, error) {
	return selectOne[model.SongVersion](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": songVersionTable, "rid": id})
}

// ListBySong returns a song's versions by name
func (r *SongVersionRepository) ListBySong(ctx context.Context, songID string) ([]*model.SongVersion, error) {
	return selectAll[model.SongVersion](ctx, r.db,
		"SELECT * FROM song_version WHERE song_id = $song_id ORDER BY name",
		map[string]interface{}{"song_id": songID})
}

// Update updates a song version
func (r *SongVersionRepository) Update(ctx context.Context, v *model.SongVersion) error {
	updated, err := patch(ctx, r.db, songVersionTable, v.ID, songVersionFields(v))
	if err != nil {
		return err
	}
	v.UpdatedOn = updated.UpdatedOn
	return nil
}

// Delete deletes a song version
func (r *SongVersionRepository) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.db, songVersionTable, id)
}

// ChordSheetRepository handles chord sheet metadata
type ChordSheetRepository struct {
	db database.Database
}

// NewChordSheetRepository creates a new chord sheet repository
func NewChordSheetRepository(db database.Database) *ChordSheetRepository {
	return &ChordSheetRepository{db: db}
}

// Create records an uploaded sheet
func (r *ChordSheetRepository) Create(ctx context.Context, cs *model.ChordSheet) error {
	created, err := insert(ctx, r.db, chordSheetTable, ensureID(&cs.ID), map[string]interface{}{
		"song_id":         cs.SongID,
		"song_version_id": strOrNil(cs.SongVersionID),
		"file_name":       cs.FileName,
		"content_type":    cs.ContentType,
		"size":            cs.Size,
		"storage_key":     cs.StorageKey,
		"key":             strOrNil(cs.Key),
		"uploaded_by":     cs.UploadedBy,
	})
	if err != nil {
		return err
	}
	cs.CreatedOn = created.CreatedOn
	return nil
}

// GetByID retrieves sheet metadata by ID
func (r *ChordSheetRepository) GetByID(ctx context.Context, id string) (*model.ChordSheet, error) {
	return selectOne[model.ChordSheet](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": chordSheetTable, "rid": id})
}

// ListBySong returns a song's sheets, newest first
func (r *ChordSheetRepository) ListBySong(ctx context.Context, songID string) ([]*model.ChordSheet, error) {
	return selectAll[model.ChordSheet](ctx, r.db,
		"SELECT * FROM chord_sheet WHERE song_id = $song_id ORDER BY created_on DESC",
		map[string]interface{}{"song_id": songID})
}

// Delete deletes sheet metadata
func (r *ChordSheetRepository) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.db, chordSheetTable, id)
}
