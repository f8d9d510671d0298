package model

import "time"

// Song is an entry in the church's song library.
type Song struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Artist        *string   `json:"artist,omitempty"`
	CCLINumber    *string   `json:"ccli_number,omitempty"`
	DefaultKey    *string   `json:"default_key,omitempty"`
	Tempo         *int      `json:"tempo,omitempty"`
	TimeSignature *string   `json:"time_signature,omitempty"`
	Tags          []string  `json:"tags"`
	Notes         *string   `json:"notes,omitempty"`
	Active        bool      `json:"active"`
	CreatedOn     time.Time `json:"created_on"`
	UpdatedOn     time.Time `json:"updated_on"`
}

// SongVersion is an arrangement of a song, optionally with a chord chart.
type SongVersion struct {
	ID          string    `json:"id"`
	SongID      string    `json:"song_id"`
	Name        string    `json:"name"`
	Key         *string   `json:"key,omitempty"`
	Tempo       *int      `json:"tempo,omitempty"`
	Arrangement *string   `json:"arrangement,omitempty"`
	ChordChart  *string   `json:"chord_chart,omitempty"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}

// ChordSheet is an uploaded chart file kept in object storage.
type ChordSheet struct {
	ID            string    `json:"id"`
	SongID        string    `json:"song_id"`
	SongVersionID *string   `json:"song_version_id,omitempty"`
	FileName      string    `json:"file_name"`
	ContentType   string    `json:"content_type"`
	Size          int64     `json:"size"`
	StorageKey    string    `json:"storage_key"`
	Key           *string   `json:"key,omitempty"`
	UploadedBy    string    `json:"uploaded_by"`
	URL           string    `json:"url,omitempty"`
	CreatedOn     time.Time `json:"created_on"`
}

// SongSearch narrows the song library.
type SongSearch struct {
	Query           string
	Tag             string
	IncludeInactive bool
}

// TransposedChart is a chord chart rendered in another key.
type TransposedChart struct {
	SongID    string `json:"song_id,omitempty"`
	VersionID string `json:"version_id,omitempty"`
	FromKey   string `json:"from_key"`
	ToKey     string `json:"to_key"`
	Semitones int    `json:"semitones"`
	Chart     string `json:"chart"`
}

// CreateSongRequest adds a song to the library.
type CreateSongRequest struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Artist        *string  `json:"artist,omitempty" validate:"omitempty,max=200"`
	CCLINumber    *string  `json:"ccli_number,omitempty" validate:"omitempty,numeric,max=12"`
	DefaultKey    *string  `json:"default_key,omitempty" validate:"omitempty,musickey"`
	Tempo         *int     `json:"tempo,omitempty" validate:"omitempty,min=20,max=300"`
	TimeSignature *string  `json:"time_signature,omitempty" validate:"omitempty,oneof=2/4 3/4 4/4 6/8 12/8"`
	Tags          []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=40"`
	Notes         *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateSongRequest patches a song. A nil Tags leaves tags unchanged.
type UpdateSongRequest struct {
	Title         *string  `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Artist        *string  `json:"artist,omitempty" validate:"omitempty,max=200"`
	CCLINumber    *string  `json:"ccli_number,omitempty" validate:"omitempty,numeric,max=12"`
	DefaultKey    *string  `json:"default_key,omitempty" validate:"omitempty,musickey"`
	Tempo         *int     `json:"tempo,omitempty" validate:"omitempty,min=20,max=300"`
	TimeSignature *string  `json:"time_signature,omitempty" validate:"omitempty,oneof=2/4 3/4 4/4 6/8 12/8"`
	Tags          []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=40"`
	Notes         *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Active        *bool    `json:"active,omitempty"`
}

// CreateSongVersionRequest adds an arrangement.
type CreateSongVersionRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Key         *string `json:"key,omitempty" validate:"omitempty,musickey"`
	Tempo       *int    `json:"tempo,omitempty" validate:"omitempty,min=20,max=300"`
	Arrangement *string `json:"arrangement,omitempty" validate:"omitempty,max=2000"`
	ChordChart  *string `json:"chord_chart,omitempty" validate:"omitempty,max=20000"`
}

// UpdateSongVersionRequest patches an arrangement.
type UpdateSongVersionRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Key         *string `json:"key,omitempty" validate:"omitempty,musickey"`
	Tempo       *int    `json:"tempo,omitempty" validate:"omitempty,min=20,max=300"`
	Arrangement *string `json:"arrangement,omitempty" validate:"omitempty,max=2000"`
	ChordChart  *string `json:"chord_chart,omitempty" validate:"omitempty,max=20000"`
}

// TransposeRequest asks for an ad-hoc transposition.
type TransposeRequest struct {
	Chart string `json:"chart" validate:"required,max=20000"`
	From  string `json:"from" validate:"required,musickey"`
	To    string `json:"to" validate:"required,musickey"`
}

// SongLibrary is the YAML document accepted by the library importer.
type SongLibrary struct {
	Instruments []InstrumentImport `yaml:"instruments"`
	Songs       []SongImport       `yaml:"songs"`
}

// InstrumentImport is one instrument in a library file.
type InstrumentImport struct {
	Name         string `yaml:"name"`
	Category     string `yaml:"category"`
	DisplayOrder int    `yaml:"order"`
}

// SongImport is one song in a library file.
type SongImport struct {
	Title         string          `yaml:"title"`
	Artist        string          `yaml:"artist"`
	CCLINumber    string          `yaml:"ccli"`
	DefaultKey    string          `yaml:"key"`
	Tempo         int             `yaml:"tempo"`
	TimeSignature string          `yaml:"time_signature"`
	Tags          []string        `yaml:"tags"`
	Versions      []VersionImport `yaml:"versions"`
}

// VersionImport is one arrangement in a library file.
type VersionImport struct {
	Name        string `yaml:"name"`
	Key         string `yaml:"key"`
	Tempo       int    `yaml:"tempo"`
	Arrangement string `yaml:"arrangement"`
	ChordChart  string `yaml:"chart"`
}

// ImportResult summarises a library import.
type ImportResult struct {
	SongsCreated       int      `json:"songs_created"`
	SongsSkipped       int      `json:"songs_skipped"`
	VersionsCreated    int      `json:"versions_created"`
	InstrumentsCreated int      `json:"instruments_created"`
	Warnings           []string `json:"warnings,omitempty"`
}
