package model

import "time"

// SlotStatus is the lifecycle of a suggestion slot.
type SlotStatus string

const (
	SlotStatusPending   SlotStatus = "pending"
	SlotStatusSubmitted SlotStatus = "submitted"
	SlotStatusExpired   SlotStatus = "expired"
	SlotStatusCancelled SlotStatus = "cancelled"
)

// SuggestionSlot invites one user to propose songs for a worship set before DueAt.
type SuggestionSlot struct {
	ID           string     `json:"id"`
	WorshipSetID string     `json:"worship_set_id"`
	UserID       string     `json:"user_id"`
	DueAt        time.Time  `json:"due_at"`
	MinSongs     int        `json:"min_songs"`
	MaxSongs     int        `json:"max_songs"`
	Status       SlotStatus `json:"status"`
	Notes        *string    `json:"notes,omitempty"`
	CreatedBy    string     `json:"created_by"`
	SubmittedOn  *time.Time `json:"submitted_on,omitempty"`
	CreatedOn    time.Time  `json:"created_on"`
	UpdatedOn    time.Time  `json:"updated_on"`
}

// IsOpen reports whether suggestions may still be added at now.
func (s *SuggestionSlot) IsOpen(now time.Time) bool {
	return s.Status == SlotStatusPending && now.Before(s.DueAt)
}

// Suggestion is a song proposed in a slot.
type Suggestion struct {
	ID            string    `json:"id"`
	SlotID        string    `json:"slot_id"`
	SongID        string    `json:"song_id"`
	SongVersionID *string   `json:"song_version_id,omitempty"`
	Key           *string   `json:"key,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	Accepted      bool      `json:"accepted"`
	CreatedOn     time.Time `json:"created_on"`
}

// CreateSuggestionSlotRequest opens a slot for a user.
type CreateSuggestionSlotRequest struct {
	UserID   string    `json:"user_id" validate:"required,uuid"`
	DueAt    time.Time `json:"due_at" validate:"required"`
	MinSongs int       `json:"min_songs" validate:"min=0,max=20"`
	MaxSongs int       `json:"max_songs" validate:"min=1,max=20"`
	Notes    *string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// Validate checks the song bounds.
func (r *CreateSuggestionSlotRequest) Validate() []FieldError {
	if r.MinSongs > r.MaxSongs {
		return []FieldError{{Field: "min_songs", Message: "must not exceed max_songs"}}
	}
	return nil
}

// CreateSuggestionRequest proposes a song.
type CreateSuggestionRequest struct {
	SongID        string  `json:"song_id" validate:"required,uuid"`
	SongVersionID *string `json:"song_version_id,omitempty" validate:"omitempty,uuid"`
	Key           *string `json:"key,omitempty" validate:"omitempty,musickey"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}
