package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forgo/worship/api/internal/model"
)

// ImportService loads a YAML song library. Songs whose title already exists
// are skipped, as are instruments whose name is taken; everything else is
// created. Bad keys are dropped with a warning instead of failing the file.
type ImportService struct {
	songs       *SongService
	songRepo    SongRepository
	instruments *InstrumentService
}

// NewImportService creates a new import service
func NewImportService(songs *SongService, songRepo SongRepository, instruments *InstrumentService) *ImportService {
	return &ImportService{songs: songs, songRepo: songRepo, instruments: instruments}
}

// ParseLibrary decodes a library document, rejecting unknown fields.
func ParseLibrary(r io.Reader) (*model.SongLibrary, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var lib model.SongLibrary
	if err := dec.Decode(&lib); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: document is empty", ErrInvalidLibrary)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidLibrary, err)
	}
	for i, s := range lib.Songs {
		if strings.TrimSpace(s.Title) == "" {
			return nil, fmt.Errorf("%w: song %d has no title", ErrInvalidLibrary, i+1)
		}
	}
	for i, in := range lib.Instruments {
		if strings.TrimSpace(in.Name) == "" {
			return nil, fmt.Errorf("%w: instrument %d has no name", ErrInvalidLibrary, i+1)
		}
	}
	return &lib, nil
}

// Import reads and applies a library document.
func (s *ImportService) Import(ctx context.Context, r io.Reader) (*model.ImportResult, error) {
	lib, err := ParseLibrary(r)
	if err != nil {
		return nil, err
	}
	return s.Apply(ctx, lib)
}

// Apply creates the library's missing instruments, songs and versions.
func (s *ImportService) Apply(ctx context.Context, lib *model.SongLibrary) (*model.ImportResult, error) {
	result := &model.ImportResult{}

	for _, in := range lib.Instruments {
		req := model.CreateInstrumentRequest{Name: in.Name, DisplayOrder: intPtr(in.DisplayOrder)}
		if in.Category != "" {
			req.Category = stringPtr(in.Category)
		}
		if _, err := s.instruments.Create(ctx, req); err != nil {
			if errors.Is(err, ErrInstrumentExists) {
				continue
			}
			return result, fmt.Errorf("instrument %q: %w", in.Name, err)
		}
		result.InstrumentsCreated++
	}

	for _, item := range lib.Songs {
		title := strings.TrimSpace(item.Title)
		existing, err := s.songRepo.GetByTitle(ctx, title)
		if err != nil {
			return result, err
		}
		if existing != nil {
			result.SongsSkipped++
			continue
		}

		req := model.CreateSongRequest{
			Title:         title,
			Artist:        stringPtr(item.Artist),
			CCLINumber:    stringPtr(item.CCLINumber),
			DefaultKey:    s.importKey(result, title, item.DefaultKey),
			TimeSignature: stringPtr(item.TimeSignature),
			Tags:          item.Tags,
		}
		if item.Tempo > 0 {
			req.Tempo = intPtr(item.Tempo)
		}
		song, err := s.songs.Create(ctx, req)
		if err != nil {
			return result, fmt.Errorf("song %q: %w", title, err)
		}
		result.SongsCreated++

		for _, v := range item.Versions {
			name := strings.TrimSpace(v.Name)
			if name == "" {
				name = "Default"
			}
			vreq := model.CreateSongVersionRequest{
				Name:        name,
				Key:         s.importKey(result, title+" / "+name, v.Key),
				Arrangement: stringPtr(v.Arrangement),
				ChordChart:  stringPtr(v.ChordChart),
			}
			if v.Tempo > 0 {
				vreq.Tempo = intPtr(v.Tempo)
			}
			if _, err := s.songs.CreateVersion(ctx, song.ID, vreq); err != nil {
				return result, fmt.Errorf("song %q version %q: %w", title, name, err)
			}
			result.VersionsCreated++
		}
	}
	return result, nil
}

func (s *ImportService) importKey(result *model.ImportResult, what, key string) *string {
	k, err := canonicalKey(stringPtr(key))
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: ignoring unknown key %q", what, key))
		return nil
	}
	return k
}
