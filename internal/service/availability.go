package service

import (
	"context"
	"errors"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

// AvailabilityService manages blackout dates.
type AvailabilityService struct {
	availability AvailabilityRepository
	clock        Clock
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(availability AvailabilityRepository, clock Clock) *AvailabilityService {
	return &AvailabilityService{availability: availability, clock: clock}
}

// ListMine returns the user's blackout dates from today onward.
func (s *AvailabilityService) ListMine(ctx context.Context, userID string) ([]*model.Availability, error) {
	return s.availability.ListByUser(ctx, userID, s.clock.today())
}

// Create marks the user unavailable on req.Date.
func (s *AvailabilityService) Create(ctx context.Context, userID string, req model.CreateAvailabilityRequest) (*model.Availability, error) {
	if _, err := parseDate(req.Date); err != nil {
		return nil, err
	}
	already, err := s.availability.IsUnavailable(ctx, userID, req.Date)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, ErrAlreadyUnavailable
	}

	a := &model.Availability{UserID: userID, Date: req.Date, Reason: req.Reason}
	if err := s.availability.Create(ctx, a); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrAlreadyUnavailable
		}
		return nil, err
	}
	return a, nil
}

// Delete removes a blackout date; its owner or an admin.
func (s *AvailabilityService) Delete(ctx context.Context, actor Actor, id string) error {
	a, err := s.availability.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAvailabilityNotFound
	}
	if a.UserID != actor.UserID && !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.availability.Delete(ctx, id)
}

// ListByDate returns everyone unavailable on date.
func (s *AvailabilityService) ListByDate(ctx context.Context, date string) ([]*model.Availability, error) {
	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	return s.availability.ListByDate(ctx, date)
}
