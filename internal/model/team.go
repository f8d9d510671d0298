package model

import "time"

// Instrument is a role on the worship team (vocals, keys, drums, ...).
type Instrument struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     *string   `json:"category,omitempty"`
	DisplayOrder int       `json:"display_order"`
	CreatedOn    time.Time `json:"created_on"`
	UpdatedOn    time.Time `json:"updated_on"`
}

// CreateInstrumentRequest adds an instrument.
type CreateInstrumentRequest struct {
	Name         string  `json:"name" validate:"required,max=60"`
	Category     *string `json:"category,omitempty" validate:"omitempty,max=40"`
	DisplayOrder *int    `json:"display_order,omitempty" validate:"omitempty,min=0,max=1000"`
}

// UpdateInstrumentRequest patches an instrument.
type UpdateInstrumentRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=60"`
	Category     *string `json:"category,omitempty" validate:"omitempty,max=40"`
	DisplayOrder *int    `json:"display_order,omitempty" validate:"omitempty,min=0,max=1000"`
}

// AssignmentStatus is a musician's answer to an assignment.
type AssignmentStatus string

const (
	AssignmentStatusPending  AssignmentStatus = "pending"
	AssignmentStatusAccepted AssignmentStatus = "accepted"
	AssignmentStatusDeclined AssignmentStatus = "declined"
)

// Assignment puts a user on an instrument for a worship set.
type Assignment struct {
	ID           string           `json:"id"`
	WorshipSetID string           `json:"worship_set_id"`
	InstrumentID string           `json:"instrument_id"`
	UserID       string           `json:"user_id"`
	ServiceDate  string           `json:"service_date"`
	Status       AssignmentStatus `json:"status"`
	Notes        *string          `json:"notes,omitempty"`
	RespondedOn  *time.Time       `json:"responded_on,omitempty"`
	CreatedOn    time.Time        `json:"created_on"`
	UpdatedOn    time.Time        `json:"updated_on"`
}

// DefaultAssignment is a standing (service type, instrument) to user mapping
// used to pre-populate new worship sets.
type DefaultAssignment struct {
	ID            string    `json:"id"`
	ServiceTypeID string    `json:"service_type_id"`
	InstrumentID  string    `json:"instrument_id"`
	UserID        string    `json:"user_id"`
	CreatedOn     time.Time `json:"created_on"`
	UpdatedOn     time.Time `json:"updated_on"`
}

// CreateAssignmentRequest assigns a user to an instrument.
type CreateAssignmentRequest struct {
	InstrumentID string  `json:"instrument_id" validate:"required,uuid"`
	UserID       string  `json:"user_id" validate:"required,uuid"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// RespondAssignmentRequest is the assignee's answer.
type RespondAssignmentRequest struct {
	Status AssignmentStatus `json:"status" validate:"required,oneof=accepted declined"`
}

// DefaultAssignmentInput is one row of a default assignment replacement.
type DefaultAssignmentInput struct {
	InstrumentID string `json:"instrument_id" validate:"required,uuid"`
	UserID       string `json:"user_id" validate:"required,uuid"`
}

// SetDefaultAssignmentsRequest replaces all defaults of a service type.
type SetDefaultAssignmentsRequest struct {
	Assignments []DefaultAssignmentInput `json:"assignments" validate:"max=50,dive"`
}

// Validate rejects two users on the same instrument.
func (r *SetDefaultAssignmentsRequest) Validate() []FieldError {
	seen := make(map[string]struct{}, len(r.Assignments))
	for _, a := range r.Assignments {
		if _, ok := seen[a.InstrumentID]; ok {
			return []FieldError{{Field: "assignments", Message: "each instrument may appear once"}}
		}
		seen[a.InstrumentID] = struct{}{}
	}
	return nil
}

// Availability marks a user as unavailable on a date.
type Availability struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	Reason    *string   `json:"reason,omitempty"`
	CreatedOn time.Time `json:"created_on"`
}

// CreateAvailabilityRequest records a blackout date.
type CreateAvailabilityRequest struct {
	Date   string  `json:"date" validate:"required,datetime=2006-01-02"`
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=200"`
}
