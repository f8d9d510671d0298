package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/music"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SongService manages the song library and chart transposition.
type SongService struct {
	songs    SongRepository
	versions SongVersionRepository
}

// NewSongService creates a new song service
func NewSongService(songs SongRepository, versions SongVersionRepository) *SongService {
	return &SongService{songs: songs, versions: versions}
}

// Search lists the library. With a query, songs are fuzzy matched against
// title, artist and CCLI number and returned best match first.
func (s *SongService) Search(ctx context.Context, q model.SongSearch) ([]*model.Song, error) {
	all, err := s.songs.List(ctx, q.IncludeInactive)
	if err != nil {
		return nil, err
	}

	if tag := strings.ToLower(strings.TrimSpace(q.Tag)); tag != "" {
		filtered := all[:0:0]
		for _, song := range all {
			for _, t := range song.Tags {
				if strings.ToLower(t) == tag {
					filtered = append(filtered, song)
					break
				}
			}
		}
		all = filtered
	}

	query := strings.TrimSpace(q.Query)
	if query == "" {
		return all, nil
	}

	targets := make([]string, len(all))
	for i, song := range all {
		targets[i] = searchText(song)
	}
	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Stable(ranks)

	out := make([]*model.Song, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, all[r.OriginalIndex])
	}
	return out, nil
}

func searchText(song *model.Song) string {
	parts := []string{song.Title}
	if song.Artist != nil {
		parts = append(parts, *song.Artist)
	}
	if song.CCLINumber != nil {
		parts = append(parts, *song.CCLINumber)
	}
	return strings.Join(parts, " ")
}

func (s *SongService) Get(ctx context.Context, id string) (*model.Song, error) {
	song, err := s.songs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, ErrSongNotFound
	}
	return song, nil
}

func (s *SongService) Create(ctx context.Context, req model.CreateSongRequest) (*model.Song, error) {
	key, err := canonicalKey(req.DefaultKey)
	if err != nil {
		return nil, err
	}
	song := &model.Song{
		Title:         strings.TrimSpace(req.Title),
		Artist:        req.Artist,
		CCLINumber:    req.CCLINumber,
		DefaultKey:    key,
		Tempo:         req.Tempo,
		TimeSignature: req.TimeSignature,
		Tags:          normalizeTags(req.Tags),
		Notes:         req.Notes,
		Active:        true,
	}
	if err := s.songs.Create(ctx, song); err != nil {
		return nil, err
	}
	return song, nil
}

func (s *SongService) Update(ctx context.Context, id string, req model.UpdateSongRequest) (*model.Song, error) {
	song, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		song.Title = strings.TrimSpace(*req.Title)
	}
	if req.Artist != nil {
		song.Artist = req.Artist
	}
	if req.CCLINumber != nil {
		song.CCLINumber = req.CCLINumber
	}
	if req.DefaultKey != nil {
		key, err := canonicalKey(req.DefaultKey)
		if err != nil {
			return nil, err
		}
		song.DefaultKey = key
	}
	if req.Tempo != nil {
		song.Tempo = req.Tempo
	}
	if req.TimeSignature != nil {
		song.TimeSignature = req.TimeSignature
	}
	if req.Tags != nil {
		song.Tags = normalizeTags(req.Tags)
	}
	if req.Notes != nil {
		song.Notes = req.Notes
	}
	if req.Active != nil {
		song.Active = *req.Active
	}
	if err := s.songs.Update(ctx, song); err != nil {
		return nil, err
	}
	return song, nil
}

// Deactivate hides a song from the library. Existing sets keep it.
func (s *SongService) Deactivate(ctx context.Context, id string) error {
	song, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !song.Active {
		return nil
	}
	song.Active = false
	return s.songs.Update(ctx, song)
}

// ============================================================================
// Versions
// ============================================================================

func (s *SongService) ListVersions(ctx context.Context, songID string) ([]*model.SongVersion, error) {
	if _, err := s.Get(ctx, songID); err != nil {
		return nil, err
	}
	return s.versions.ListBySong(ctx, songID)
}

func (s *SongService) GetVersion(ctx context.Context, songID, versionID string) (*model.SongVersion, error) {
	v, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if v == nil || v.SongID != songID {
		return nil, ErrSongVersionNotFound
	}
	return v, nil
}

func (s *SongService) CreateVersion(ctx context.Context, songID string, req model.CreateSongVersionRequest) (*model.SongVersion, error) {
	if _, err := s.Get(ctx, songID); err != nil {
		return nil, err
	}
	key, err := canonicalKey(req.Key)
	if err != nil {
		return nil, err
	}
	v := &model.SongVersion{
		SongID:      songID,
		Name:        strings.TrimSpace(req.Name),
		Key:         key,
		Tempo:       req.Tempo,
		Arrangement: req.Arrangement,
		ChordChart:  req.ChordChart,
	}
	if err := s.versions.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *SongService) UpdateVersion(ctx context.Context, songID, versionID string, req model.UpdateSongVersionRequest) (*model.SongVersion, error) {
	v, err := s.GetVersion(ctx, songID, versionID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		v.Name = strings.TrimSpace(*req.Name)
	}
	if req.Key != nil {
		key, err := canonicalKey(req.Key)
		if err != nil {
			return nil, err
		}
		v.Key = key
	}
	if req.Tempo != nil {
		v.Tempo = req.Tempo
	}
	if req.Arrangement != nil {
		v.Arrangement = req.Arrangement
	}
	if req.ChordChart != nil {
		v.ChordChart = req.ChordChart
	}
	if err := s.versions.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *SongService) DeleteVersion(ctx context.Context, songID, versionID string) error {
	if _, err := s.GetVersion(ctx, songID, versionID); err != nil {
		return err
	}
	return s.versions.Delete(ctx, versionID)
}

// ============================================================================
// Transposition
// ============================================================================

// Chart renders a version's chord chart in toKey. The source key is the
// version's key, falling back to the song's default. An empty toKey returns
// the chart as stored.
func (s *SongService) Chart(ctx context.Context, songID, versionID, toKey string) (*model.TransposedChart, error) {
	song, err := s.Get(ctx, songID)
	if err != nil {
		return nil, err
	}
	v, err := s.GetVersion(ctx, songID, versionID)
	if err != nil {
		return nil, err
	}
	if v.ChordChart == nil || *v.ChordChart == "" {
		return nil, ErrNoChordChart
	}

	from := v.Key
	if from == nil {
		from = song.DefaultKey
	}
	if from == nil {
		return nil, ErrSourceKeyUnknown
	}
	if toKey == "" {
		toKey = *from
	}

	out, err := transpose(*v.ChordChart, *from, toKey)
	if err != nil {
		return nil, err
	}
	out.SongID = songID
	out.VersionID = versionID
	return out, nil
}

// Transpose rewrites an arbitrary chart.
func (s *SongService) Transpose(req model.TransposeRequest) (*model.TransposedChart, error) {
	return transpose(req.Chart, req.From, req.To)
}

func transpose(chart, from, to string) (*model.TransposedChart, error) {
	steps, err := music.SemitonesBetween(from, to)
	if err != nil {
		return nil, keyError(err)
	}
	rendered, err := music.TransposeChart(chart, from, to)
	if err != nil {
		return nil, keyError(err)
	}
	fromKey, _ := music.ParseKey(from)
	toKey, _ := music.ParseKey(to)
	return &model.TransposedChart{
		FromKey:   fromKey.String(),
		ToKey:     toKey.String(),
		Semitones: steps,
		Chart:     rendered,
	}, nil
}

// canonicalKey normalizes spelling, so "F# minor" is stored as "F#m".
func canonicalKey(key *string) (*string, error) {
	if key == nil || strings.TrimSpace(*key) == "" {
		return nil, nil
	}
	k, err := music.ParseKey(*key)
	if err != nil {
		return nil, ErrInvalidKey
	}
	out := k.String()
	return &out, nil
}

func keyError(err error) error {
	if errors.Is(err, music.ErrUnknownKey) {
		return ErrInvalidKey
	}
	return err
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
