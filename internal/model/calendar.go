package model

import (
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// MaxGenerateSpanDays bounds a single calendar generation request.
const MaxGenerateSpanDays = 366

// ServiceType is a recurring kind of service, e.g. "Sunday Morning".
type ServiceType struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description,omitempty"`
	DefaultWeekday   *int      `json:"default_weekday,omitempty"` // 0 = Sunday
	DefaultStartTime *string   `json:"default_start_time,omitempty"`
	Active           bool      `json:"active"`
	CreatedOn        time.Time `json:"created_on"`
	UpdatedOn        time.Time `json:"updated_on"`
}

// ServiceStatus is the lifecycle state of a service occurrence.
type ServiceStatus string

const (
	ServiceStatusScheduled ServiceStatus = "scheduled"
	ServiceStatusCancelled ServiceStatus = "cancelled"
	ServiceStatusCompleted ServiceStatus = "completed"
)

// Service is a single dated occurrence of a service type.
type Service struct {
	ID            string        `json:"id"`
	ServiceTypeID string        `json:"service_type_id"`
	Date          string        `json:"date"`
	StartTime     *string       `json:"start_time,omitempty"`
	Title         *string       `json:"title,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	Status        ServiceStatus `json:"status"`
	CreatedOn     time.Time     `json:"created_on"`
	UpdatedOn     time.Time     `json:"updated_on"`
}

// Day parses the service date.
func (s *Service) Day() (time.Time, error) {
	return time.Parse(DateLayout, s.Date)
}

// ServiceFilter narrows calendar listings. Empty fields are ignored.
type ServiceFilter struct {
	From          string
	To            string
	ServiceTypeID string
}

// CreateServiceTypeRequest creates a service type.
type CreateServiceTypeRequest struct {
	Name             string  `json:"name" validate:"required,max=100"`
	Description      *string `json:"description,omitempty" validate:"omitempty,max=500"`
	DefaultWeekday   *int    `json:"default_weekday,omitempty" validate:"omitempty,min=0,max=6"`
	DefaultStartTime *string `json:"default_start_time,omitempty" validate:"omitempty,datetime=15:04"`
}

// UpdateServiceTypeRequest patches a service type.
type UpdateServiceTypeRequest struct {
	Name             *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description      *string `json:"description,omitempty" validate:"omitempty,max=500"`
	DefaultWeekday   *int    `json:"default_weekday,omitempty" validate:"omitempty,min=0,max=6"`
	DefaultStartTime *string `json:"default_start_time,omitempty" validate:"omitempty,datetime=15:04"`
	Active           *bool   `json:"active,omitempty"`
}

// CreateServiceRequest schedules one service.
type CreateServiceRequest struct {
	ServiceTypeID string  `json:"service_type_id" validate:"required,uuid"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime     *string `json:"start_time,omitempty" validate:"omitempty,datetime=15:04"`
	Title         *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateServiceRequest patches a service.
type UpdateServiceRequest struct {
	Date      *string        `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartTime *string        `json:"start_time,omitempty" validate:"omitempty,datetime=15:04"`
	Title     *string        `json:"title,omitempty" validate:"omitempty,max=200"`
	Notes     *string        `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Status    *ServiceStatus `json:"status,omitempty" validate:"omitempty,oneof=scheduled cancelled completed"`
}

// GenerateServicesRequest fills a date range with services on the type's default weekday.
type GenerateServicesRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

// Validate checks the range ordering and span.
func (r *GenerateServicesRequest) Validate() []FieldError {
	from, errFrom := time.Parse(DateLayout, r.From)
	to, errTo := time.Parse(DateLayout, r.To)
	if errFrom != nil || errTo != nil {
		return nil
	}
	if to.Before(from) {
		return []FieldError{{Field: "to", Message: "must not be before from"}}
	}
	if to.Sub(from) > MaxGenerateSpanDays*24*time.Hour {
		return []FieldError{{Field: "to", Message: "range must not exceed 366 days"}}
	}
	return nil
}
