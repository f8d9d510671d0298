package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

// LeaderScheduler reassigns rotation leaders after the calendar changes.
type LeaderScheduler interface {
	Recalculate(ctx context.Context, serviceTypeID string) (*model.RecalculationResult, error)
}

// CalendarService manages service types and dated services.
type CalendarService struct {
	types     ServiceTypeRepository
	services  CalendarRepository
	sets      WorshipSetRepository
	scheduler LeaderScheduler
}

// CalendarServiceConfig holds the calendar dependencies
type CalendarServiceConfig struct {
	ServiceTypeRepo ServiceTypeRepository
	CalendarRepo    CalendarRepository
	WorshipSetRepo  WorshipSetRepository
	Scheduler       LeaderScheduler
}

// NewCalendarService creates a new calendar service
func NewCalendarService(cfg CalendarServiceConfig) *CalendarService {
	return &CalendarService{
		types:     cfg.ServiceTypeRepo,
		services:  cfg.CalendarRepo,
		sets:      cfg.WorshipSetRepo,
		scheduler: cfg.Scheduler,
	}
}

// ============================================================================
// Service types
// ============================================================================

func (s *CalendarService) ListTypes(ctx context.Context, includeInactive bool) ([]*model.ServiceType, error) {
	return s.types.List(ctx, includeInactive)
}

func (s *CalendarService) GetType(ctx context.Context, id string) (*model.ServiceType, error) {
	st, err := s.types.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrServiceTypeNotFound
	}
	return st, nil
}

func (s *CalendarService) CreateType(ctx context.Context, req model.CreateServiceTypeRequest) (*model.ServiceType, error) {
	st := &model.ServiceType{
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		DefaultWeekday:   req.DefaultWeekday,
		DefaultStartTime: req.DefaultStartTime,
		Active:           true,
	}
	if err := s.types.Create(ctx, st); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrServiceTypeExists
		}
		return nil, err
	}
	return st, nil
}

func (s *CalendarService) UpdateType(ctx context.Context, id string, req model.UpdateServiceTypeRequest) (*model.ServiceType, error) {
	st, err := s.GetType(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		st.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		st.Description = req.Description
	}
	if req.DefaultWeekday != nil {
		st.DefaultWeekday = req.DefaultWeekday
	}
	if req.DefaultStartTime != nil {
		st.DefaultStartTime = req.DefaultStartTime
	}
	if req.Active != nil {
		st.Active = *req.Active
	}
	if err := s.types.Update(ctx, st); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrServiceTypeExists
		}
		return nil, err
	}
	return st, nil
}

// DeleteType removes a service type that has no services left, along with
// its rotation and default assignments.
func (s *CalendarService) DeleteType(ctx context.Context, id string) error {
	if _, err := s.GetType(ctx, id); err != nil {
		return err
	}
	existing, err := s.services.List(ctx, model.ServiceFilter{ServiceTypeID: id})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return ErrServiceTypeInUse
	}
	return s.types.Delete(ctx, id)
}

// ============================================================================
// Services
// ============================================================================

func (s *CalendarService) List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error) {
	for _, d := range []string{filter.From, filter.To} {
		if d == "" {
			continue
		}
		if _, err := parseDate(d); err != nil {
			return nil, err
		}
	}
	return s.services.List(ctx, filter)
}

func (s *CalendarService) Get(ctx context.Context, id string) (*model.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}
	return svc, nil
}

// Create schedules one service. The start time defaults to the type's.
func (s *CalendarService) Create(ctx context.Context, req model.CreateServiceRequest) (*model.Service, error) {
	st, err := s.GetType(ctx, req.ServiceTypeID)
	if err != nil {
		return nil, err
	}
	if !st.Active {
		return nil, ErrServiceTypeInactive
	}
	if _, err := parseDate(req.Date); err != nil {
		return nil, err
	}

	svc := &model.Service{
		ServiceTypeID: st.ID,
		Date:          req.Date,
		StartTime:     req.StartTime,
		Title:         req.Title,
		Notes:         req.Notes,
		Status:        model.ServiceStatusScheduled,
	}
	if svc.StartTime == nil {
		svc.StartTime = st.DefaultStartTime
	}
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// Update patches a service. Date, start time or status changes are copied to
// its worship set and re-run the leader rotation for the type.
func (s *CalendarService) Update(ctx context.Context, id string, req model.UpdateServiceRequest) (*model.Service, error) {
	svc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	reschedule := false
	if req.Date != nil && *req.Date != svc.Date {
		if _, err := parseDate(*req.Date); err != nil {
			return nil, err
		}
		svc.Date = *req.Date
		reschedule = true
	}
	if req.Status != nil && *req.Status != svc.Status {
		svc.Status = *req.Status
		reschedule = true
	}
	if req.StartTime != nil && stringValue(req.StartTime) != stringValue(svc.StartTime) {
		svc.StartTime = req.StartTime
		reschedule = true
	}
	if req.Title != nil {
		svc.Title = req.Title
	}
	if req.Notes != nil {
		svc.Notes = req.Notes
	}

	if err := s.services.Update(ctx, svc); err != nil {
		return nil, err
	}
	if reschedule {
		if err := s.sets.SyncService(ctx, svc); err != nil {
			return nil, err
		}
		s.recalculate(ctx, svc.ServiceTypeID)
	}
	return svc, nil
}

// Delete removes a service and its worship set.
func (s *CalendarService) Delete(ctx context.Context, id string) error {
	svc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	ws, err := s.sets.GetByServiceID(ctx, id)
	if err != nil {
		return err
	}
	if ws != nil {
		if err := s.sets.Delete(ctx, ws.ID); err != nil {
			return err
		}
	}
	if err := s.services.Delete(ctx, id); err != nil {
		return err
	}
	if ws != nil {
		s.recalculate(ctx, svc.ServiceTypeID)
	}
	return nil
}

// Generate creates a service on every default weekday of the type between
// from and to inclusive, skipping dates that already have one.
func (s *CalendarService) Generate(ctx context.Context, typeID string, req model.GenerateServicesRequest) ([]*model.Service, error) {
	st, err := s.GetType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if !st.Active {
		return nil, ErrServiceTypeInactive
	}
	if st.DefaultWeekday == nil {
		return nil, ErrNoDefaultWeekday
	}

	from, err := parseDate(req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(req.To)
	if err != nil {
		return nil, err
	}
	if to.Before(from) || to.Sub(from) > model.MaxGenerateSpanDays*24*time.Hour {
		return nil, ErrInvalidDateRange
	}

	existing, err := s.services.List(ctx, model.ServiceFilter{From: req.From, To: req.To, ServiceTypeID: typeID})
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		taken[e.Date] = struct{}{}
	}

	created := []*model.Service{}
	for d := firstWeekday(from, time.Weekday(*st.DefaultWeekday)); !d.After(to); d = d.AddDate(0, 0, 7) {
		date := d.Format(model.DateLayout)
		if _, ok := taken[date]; ok {
			continue
		}
		created = append(created, &model.Service{
			ServiceTypeID: st.ID,
			Date:          date,
			StartTime:     st.DefaultStartTime,
			Status:        model.ServiceStatusScheduled,
		})
	}
	if len(created) == 0 {
		return created, nil
	}
	if err := s.services.CreateMany(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// firstWeekday returns the first date on or after from that falls on wd.
func firstWeekday(from time.Time, wd time.Weekday) time.Time {
	offset := (int(wd) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset)
}

// recalculate runs the scheduler and logs instead of failing the caller; the
// calendar change itself has already been stored.
func (s *CalendarService) recalculate(ctx context.Context, typeID string) {
	if s.scheduler == nil {
		return
	}
	if _, err := s.scheduler.Recalculate(ctx, typeID); err != nil {
		slog.WarnContext(ctx, "leader recalculation failed",
			slog.String("service_type_id", typeID),
			slog.String("error", err.Error()),
		)
	}
}
