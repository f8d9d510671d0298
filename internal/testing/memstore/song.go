package memstore

import (
	"context"
	"sort"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

// SongRepo implements service.SongRepository.
type SongRepo struct{ s *Store }

func (r *SongRepo) Create(_ context.Context, song *model.Song) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	song.CreatedOn, song.UpdatedOn = now, now
	r.s.songs.put(ensureID(&song.ID), song)
	return nil
}

func (r *SongRepo) GetByID(_ context.Context, id string) (*model.Song, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.songs.get(id), nil
}

func (r *SongRepo) GetByTitle(_ context.Context, title string) (*model.Song, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.s.songs.filter(func(s *model.Song) bool { return lower(s.Title) == lower(title) })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *SongRepo) List(_ context.Context, includeInactive bool) ([]*model.Song, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	songs := r.s.songs.filter(func(s *model.Song) bool { return includeInactive || s.Active })
	sort.SliceStable(songs, func(i, j int) bool { return songs[i].Title < songs[j].Title })
	return songs, nil
}

func (r *SongRepo) Update(_ context.Context, song *model.Song) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.songs.has(song.ID) {
		return database.ErrNotFound
	}
	song.UpdatedOn = r.s.now()
	r.s.songs.put(song.ID, song)
	return nil
}

// SongVersionRepo implements service.SongVersionRepository.
type SongVersionRepo struct{ s *Store }

func (r *SongVersionRepo) Create(_ context.Context, v *model.SongVersion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	v.CreatedOn, v.UpdatedOn = now, now
	r.s.versions.put(ensureID(&v.ID), v)
	return nil
}

func (r *SongVersionRepo) GetByID(_ context.Context, id string) (*model.SongVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.versions.get(id), nil
}

func (r *SongVersionRepo) ListBySong(_ context.Context, songID string) ([]*model.SongVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	versions := r.s.versions.filter(func(v *model.SongVersion) bool { return v.SongID == songID })
	sort.SliceStable(versions, func(i, j int) bool { return versions[i].Name < versions[j].Name })
	return versions, nil
}

func (r *SongVersionRepo) Update(_ context.Context, v *model.SongVersion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.versions.has(v.ID) {
		return database.ErrNotFound
	}
	v.UpdatedOn = r.s.now()
	r.s.versions.put(v.ID, v)
	return nil
}

func (r *SongVersionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.versions.delete(id)
	return nil
}

// ChordSheetRepo implements service.ChordSheetRepository.
type ChordSheetRepo struct{ s *Store }

func (r *ChordSheetRepo) Create(_ context.Context, cs *model.ChordSheet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cs.CreatedOn = r.s.now()
	r.s.chordSheets.put(ensureID(&cs.ID), cs)
	return nil
}

func (r *ChordSheetRepo) GetByID(_ context.Context, id string) (*model.ChordSheet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.chordSheets.get(id), nil
}

// ListBySong returns the newest sheets first.
func (r *ChordSheetRepo) ListBySong(_ context.Context, songID string) ([]*model.ChordSheet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sheets := r.s.chordSheets.filter(func(cs *model.ChordSheet) bool { return cs.SongID == songID })
	for i, j := 0, len(sheets)-1; i < j; i, j = i+1, j-1 {
		sheets[i], sheets[j] = sheets[j], sheets[i]
	}
	return sheets, nil
}

func (r *ChordSheetRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.chordSheets.delete(id)
	return nil
}
