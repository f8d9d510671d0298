package model

import "time"

// LeaderSource records how a worship set got its leader.
type LeaderSource string

const (
	LeaderSourceRotation LeaderSource = "rotation"
	LeaderSourceManual   LeaderSource = "manual"
)

// WorshipSetStatus is the publication state of a set.
type WorshipSetStatus string

const (
	WorshipSetStatusDraft     WorshipSetStatus = "draft"
	WorshipSetStatusPublished WorshipSetStatus = "published"
)

// WorshipSet is the song lineup and team for one service.
// The Service* fields mirror the owning service so the rotation scheduler and
// reminders can filter sets without joining.
type WorshipSet struct {
	ID               string           `json:"id"`
	ServiceID        string           `json:"service_id"`
	ServiceTypeID    string           `json:"service_type_id"`
	ServiceDate      string           `json:"service_date"`
	ServiceStartTime *string          `json:"service_start_time,omitempty"`
	ServiceStatus    ServiceStatus    `json:"service_status"`
	LeaderID         *string          `json:"leader_id,omitempty"`
	LeaderSource     LeaderSource     `json:"leader_source"`
	Status           WorshipSetStatus `json:"status"`
	Notes            *string          `json:"notes,omitempty"`
	PublishedOn      *time.Time       `json:"published_on,omitempty"`
	CreatedOn        time.Time        `json:"created_on"`
	UpdatedOn        time.Time        `json:"updated_on"`
}

// ScheduledBefore orders sets by service date, then start time. A set with
// no start time sorts first on its date.
func (w *WorshipSet) ScheduledBefore(o *WorshipSet) bool {
	if w.ServiceDate != o.ServiceDate {
		return w.ServiceDate < o.ServiceDate
	}
	a, b := "", ""
	if w.ServiceStartTime != nil {
		a = *w.ServiceStartTime
	}
	if o.ServiceStartTime != nil {
		b = *o.ServiceStartTime
	}
	return a < b
}

// IsLedBy reports whether userID is the set's leader.
func (w *WorshipSet) IsLedBy(userID string) bool {
	return w.LeaderID != nil && *w.LeaderID == userID
}

// SetSong is one entry in a worship set's ordered lineup.
type SetSong struct {
	ID            string    `json:"id"`
	WorshipSetID  string    `json:"worship_set_id"`
	SongID        string    `json:"song_id"`
	SongVersionID *string   `json:"song_version_id,omitempty"`
	Position      int       `json:"position"`
	Key           *string   `json:"key,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	SuggestionID  *string   `json:"suggestion_id,omitempty"`
	CreatedOn     time.Time `json:"created_on"`
	UpdatedOn     time.Time `json:"updated_on"`
}

// WorshipSetDetail bundles a set with its service, lineup and team.
type WorshipSetDetail struct {
	WorshipSet  *WorshipSet   `json:"worship_set"`
	Service     *Service      `json:"service"`
	Songs       []*SetSong    `json:"songs"`
	Assignments []*Assignment `json:"assignments"`
}

// CreateWorshipSetRequest creates the set for a service. Without a leader the
// rotation picks one.
type CreateWorshipSetRequest struct {
	LeaderID *string `json:"leader_id,omitempty" validate:"omitempty,uuid"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateWorshipSetRequest patches a set. Setting a leader marks it manual;
// UseRotation hands the set back to the scheduler.
type UpdateWorshipSetRequest struct {
	LeaderID    *string `json:"leader_id,omitempty" validate:"omitempty,uuid"`
	UseRotation *bool   `json:"use_rotation,omitempty"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// Validate rejects contradictory leader instructions.
func (r *UpdateWorshipSetRequest) Validate() []FieldError {
	if r.LeaderID != nil && r.UseRotation != nil && *r.UseRotation {
		return []FieldError{{Field: "use_rotation", Message: "cannot be combined with leader_id"}}
	}
	return nil
}

// AddSetSongRequest appends a song to a set.
type AddSetSongRequest struct {
	SongID        string  `json:"song_id" validate:"required,uuid"`
	SongVersionID *string `json:"song_version_id,omitempty" validate:"omitempty,uuid"`
	Key           *string `json:"key,omitempty" validate:"omitempty,musickey"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateSetSongRequest patches a set entry.
type UpdateSetSongRequest struct {
	SongVersionID *string `json:"song_version_id,omitempty" validate:"omitempty,uuid"`
	Key           *string `json:"key,omitempty" validate:"omitempty,musickey"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ReorderSetSongsRequest carries the full new order of a set.
type ReorderSetSongsRequest struct {
	SetSongIDs []string `json:"set_song_ids" validate:"required,min=1,dive,uuid"`
}

// Validate rejects duplicate ids.
func (r *ReorderSetSongsRequest) Validate() []FieldError {
	return uniqueIDs("set_song_ids", r.SetSongIDs)
}

func uniqueIDs(field string, ids []string) []FieldError {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return []FieldError{{Field: field, Message: "must not contain duplicates"}}
		}
		seen[id] = struct{}{}
	}
	return nil
}
