package service

import (
	"context"
	"errors"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

// AssignmentService puts musicians on instruments for worship sets and keeps
// the standing defaults per service type.
type AssignmentService struct {
	assignments  AssignmentRepository
	defaults     DefaultAssignmentRepository
	sets         WorshipSetRepository
	types        ServiceTypeRepository
	instruments  InstrumentRepository
	users        UserRepository
	availability AvailabilityRepository
	notifier     *NotificationService
	clock        Clock
}

// AssignmentServiceConfig holds the assignment dependencies
type AssignmentServiceConfig struct {
	AssignmentRepo        AssignmentRepository
	DefaultAssignmentRepo DefaultAssignmentRepository
	WorshipSetRepo        WorshipSetRepository
	ServiceTypeRepo       ServiceTypeRepository
	InstrumentRepo        InstrumentRepository
	UserRepo              UserRepository
	AvailabilityRepo      AvailabilityRepository
	Notifier              *NotificationService
	Clock                 Clock
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(cfg AssignmentServiceConfig) *AssignmentService {
	return &AssignmentService{
		assignments:  cfg.AssignmentRepo,
		defaults:     cfg.DefaultAssignmentRepo,
		sets:         cfg.WorshipSetRepo,
		types:        cfg.ServiceTypeRepo,
		instruments:  cfg.InstrumentRepo,
		users:        cfg.UserRepo,
		availability: cfg.AvailabilityRepo,
		notifier:     cfg.Notifier,
		clock:        cfg.Clock,
	}
}

// ListBySet returns the team of a set.
func (s *AssignmentService) ListBySet(ctx context.Context, setID string) ([]*model.Assignment, error) {
	if _, err := s.set(ctx, setID); err != nil {
		return nil, err
	}
	return s.assignments.ListBySet(ctx, setID)
}

// ListMine returns the caller's assignments from from (default today) onward.
func (s *AssignmentService) ListMine(ctx context.Context, userID, from string) ([]*model.Assignment, error) {
	if from == "" {
		from = s.clock.today()
	} else if _, err := parseDate(from); err != nil {
		return nil, err
	}
	return s.assignments.ListByUser(ctx, userID, from)
}

// Create assigns a user to an instrument on a set. Users who marked the
// service date unavailable are rejected.
func (s *AssignmentService) Create(ctx context.Context, actor Actor, setID string, req model.CreateAssignmentRequest) (*model.Assignment, error) {
	ws, err := s.set(ctx, setID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !ws.IsLedBy(actor.UserID) {
		return nil, ErrNotSetLeader
	}
	if err := s.requireInstrument(ctx, req.InstrumentID); err != nil {
		return nil, err
	}
	if err := s.requireActiveUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	unavailable, err := s.availability.IsUnavailable(ctx, req.UserID, ws.ServiceDate)
	if err != nil {
		return nil, err
	}
	if unavailable {
		return nil, ErrUserUnavailable
	}

	team, err := s.assignments.ListBySet(ctx, setID)
	if err != nil {
		return nil, err
	}
	for _, a := range team {
		if a.UserID == req.UserID && a.InstrumentID == req.InstrumentID {
			return nil, ErrAlreadyAssigned
		}
	}

	a := &model.Assignment{
		WorshipSetID: setID,
		InstrumentID: req.InstrumentID,
		UserID:       req.UserID,
		ServiceDate:  ws.ServiceDate,
		Status:       model.AssignmentStatusPending,
		Notes:        req.Notes,
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrAlreadyAssigned
		}
		return nil, err
	}
	s.notifier.notifyQuietly(ctx, assignmentNotification(a))
	return a, nil
}

// Delete removes an assignment; set leader or admin only.
func (s *AssignmentService) Delete(ctx context.Context, actor Actor, id string) error {
	a, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	ws, err := s.set(ctx, a.WorshipSetID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && !ws.IsLedBy(actor.UserID) {
		return ErrNotSetLeader
	}
	return s.assignments.Delete(ctx, id)
}

// Respond records the assignee's answer.
func (s *AssignmentService) Respond(ctx context.Context, actor Actor, id string, req model.RespondAssignmentRequest) (*model.Assignment, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != actor.UserID {
		return nil, ErrNotAssignee
	}
	now := s.clock.now()
	a.Status = req.Status
	a.RespondedOn = &now
	if err := s.assignments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ============================================================================
// Default assignments
// ============================================================================

func (s *AssignmentService) ListDefaults(ctx context.Context, typeID string) ([]*model.DefaultAssignment, error) {
	if err := s.requireType(ctx, typeID); err != nil {
		return nil, err
	}
	return s.defaults.ListByType(ctx, typeID)
}

// ReplaceDefaults swaps the full default team of a service type.
func (s *AssignmentService) ReplaceDefaults(ctx context.Context, typeID string, req model.SetDefaultAssignmentsRequest) ([]*model.DefaultAssignment, error) {
	if err := s.requireType(ctx, typeID); err != nil {
		return nil, err
	}

	defaults := make([]*model.DefaultAssignment, 0, len(req.Assignments))
	for _, in := range req.Assignments {
		if err := s.requireInstrument(ctx, in.InstrumentID); err != nil {
			return nil, err
		}
		if err := s.requireActiveUser(ctx, in.UserID); err != nil {
			return nil, err
		}
		defaults = append(defaults, &model.DefaultAssignment{
			ServiceTypeID: typeID,
			InstrumentID:  in.InstrumentID,
			UserID:        in.UserID,
		})
	}
	if err := s.defaults.Replace(ctx, typeID, defaults); err != nil {
		return nil, err
	}
	return defaults, nil
}

func (s *AssignmentService) DeleteDefault(ctx context.Context, id string) error {
	d, err := s.defaults.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrDefaultAssignmentNotFound
	}
	return s.defaults.Delete(ctx, id)
}

// ============================================================================
// Helpers
// ============================================================================

func (s *AssignmentService) get(ctx context.Context, id string) (*model.Assignment, error) {
	a, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAssignmentNotFound
	}
	return a, nil
}

func (s *AssignmentService) set(ctx context.Context, id string) (*model.WorshipSet, error) {
	ws, err := s.sets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, ErrWorshipSetNotFound
	}
	return ws, nil
}

func (s *AssignmentService) requireType(ctx context.Context, id string) error {
	st, err := s.types.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrServiceTypeNotFound
	}
	return nil
}

func (s *AssignmentService) requireInstrument(ctx context.Context, id string) error {
	inst, err := s.instruments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if inst == nil {
		return ErrInstrumentNotFound
	}
	return nil
}

func (s *AssignmentService) requireActiveUser(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !user.Active {
		return ErrAccountInactive
	}
	return nil
}
