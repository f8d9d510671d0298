package model

import "time"

// RotationMember is one leader in a service type's rotation.
// Position is nil once the member has been removed.
type RotationMember struct {
	ID            string     `json:"id"`
	ServiceTypeID string     `json:"service_type_id"`
	UserID        string     `json:"user_id"`
	Position      *int       `json:"position,omitempty"`
	Active        bool       `json:"active"`
	DeletedOn     *time.Time `json:"deleted_on,omitempty"`
	CreatedOn     time.Time  `json:"created_on"`
	UpdatedOn     time.Time  `json:"updated_on"`
}

// AddRotationMemberRequest appends a leader to the rotation.
type AddRotationMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// ReorderRotationRequest carries the complete new order of active members.
type ReorderRotationRequest struct {
	MemberIDs []string `json:"member_ids" validate:"required,min=1,dive,uuid"`
}

// Validate rejects duplicate ids.
func (r *ReorderRotationRequest) Validate() []FieldError {
	return uniqueIDs("member_ids", r.MemberIDs)
}

// LeaderChange records one set whose leader moved during recalculation.
type LeaderChange struct {
	WorshipSetID string  `json:"worship_set_id"`
	ServiceDate  string  `json:"service_date"`
	PreviousID   *string `json:"previous_leader_id,omitempty"`
	LeaderID     *string `json:"leader_id,omitempty"`
}

// RecalculationResult summarises a rotation recalculation.
type RecalculationResult struct {
	ServiceTypeID string         `json:"service_type_id"`
	Examined      int            `json:"examined"`
	Changes       []LeaderChange `json:"changes"`
}

// NextLeader is the answer to "who leads on this date".
type NextLeader struct {
	ServiceTypeID string          `json:"service_type_id"`
	Date          string          `json:"date"`
	Member        *RotationMember `json:"member"`
	User          *User           `json:"user,omitempty"`
}
