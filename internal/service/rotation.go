package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/metrics"
	"github.com/forgo/worship/api/internal/model"
)

// RotationService owns the leader rotation of each service type and keeps
// the leaders of future worship sets in step with it.
//
// Members are kept in position order 1..n. Removing a member soft-deletes the
// row and renumbers the rest; renumbering always goes through the negative
// positions first so the unique (service type, position) index never sees two
// rows on the same number mid-update.
type RotationService struct {
	rotation RotationRepository
	users    UserRepository
	types    ServiceTypeRepository
	services CalendarRepository
	sets     WorshipSetRepository
	clock    Clock

	// mu serializes membership changes and recalculation in this process.
	mu sync.Mutex
}

// RotationServiceConfig holds the rotation dependencies
type RotationServiceConfig struct {
	RotationRepo    RotationRepository
	UserRepo        UserRepository
	ServiceTypeRepo ServiceTypeRepository
	CalendarRepo    CalendarRepository
	WorshipSetRepo  WorshipSetRepository
	Clock           Clock
}

// NewRotationService creates a new rotation service
func NewRotationService(cfg RotationServiceConfig) *RotationService {
	return &RotationService{
		rotation: cfg.RotationRepo,
		users:    cfg.UserRepo,
		types:    cfg.ServiceTypeRepo,
		services: cfg.CalendarRepo,
		sets:     cfg.WorshipSetRepo,
		clock:    cfg.Clock,
	}
}

// List returns the active members of a type in rotation order.
func (s *RotationService) List(ctx context.Context, typeID string) ([]*model.RotationMember, error) {
	if err := s.requireType(ctx, typeID); err != nil {
		return nil, err
	}
	return s.rotation.ListActive(ctx, typeID)
}

// Add appends a leader to the end of the rotation. A previously removed
// membership is reactivated rather than duplicated.
func (s *RotationService) Add(ctx context.Context, typeID string, req model.AddRotationMemberRequest) (*model.RotationMember, error) {
	if err := s.requireType(ctx, typeID); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.Active || !user.CanLead() {
		return nil, ErrLeaderNotEligible
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.rotation.ListActive(ctx, typeID)
	if err != nil {
		return nil, err
	}
	position := len(active) + 1

	existing, err := s.rotation.GetByUser(ctx, typeID, user.ID)
	if err != nil {
		return nil, err
	}

	var member *model.RotationMember
	switch {
	case existing != nil && existing.Active:
		return nil, ErrAlreadyInRotation
	case existing != nil:
		if err := s.rotation.Reactivate(ctx, existing.ID, position); err != nil {
			return nil, err
		}
		existing.Active = true
		existing.Position = &position
		existing.DeletedOn = nil
		member = existing
	default:
		member = &model.RotationMember{ServiceTypeID: typeID, UserID: user.ID, Position: &position}
		if err := s.rotation.Create(ctx, member); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return nil, ErrAlreadyInRotation
			}
			return nil, err
		}
	}

	s.recalculateAfterChange(ctx, typeID)
	return member, nil
}

// Remove soft-deletes a member and closes the gap it leaves.
func (s *RotationService) Remove(ctx context.Context, typeID, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.rotation.ListActive(ctx, typeID)
	if err != nil {
		return err
	}

	remaining := make([]string, 0, len(active))
	found := false
	for _, m := range active {
		if m.ID == memberID {
			found = true
			continue
		}
		remaining = append(remaining, m.ID)
	}
	if !found {
		return ErrRotationMemberNotFound
	}

	if err := s.rotation.Remove(ctx, memberID, remaining); err != nil {
		return err
	}
	s.recalculateAfterChange(ctx, typeID)
	return nil
}

// RemoveUser takes a user out of every rotation they are active in, closing
// each gap and recalculating the affected service types.
func (s *RotationService) RemoveUser(ctx context.Context, userID string) error {
	memberships, err := s.rotation.ListActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, m := range memberships {
		if err := s.Remove(ctx, m.ServiceTypeID, m.ID); err != nil && !errors.Is(err, ErrRotationMemberNotFound) {
			return err
		}
	}
	return nil
}

// Reorder applies a complete new order of the active members.
func (s *RotationService) Reorder(ctx context.Context, typeID string, req model.ReorderRotationRequest) ([]*model.RotationMember, error) {
	if err := s.requireType(ctx, typeID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.rotation.ListActive(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if !samePermutation(active, req.MemberIDs) {
		return nil, ErrInvalidRotationOrder
	}

	if err := s.rotation.Reorder(ctx, req.MemberIDs); err != nil {
		return nil, err
	}
	s.recalculateAfterChange(ctx, typeID)
	return s.rotation.ListActive(ctx, typeID)
}

// NextLeader answers who the rotation puts on date: the member after the
// leader of the latest rotation-led set before date.
func (s *RotationService) NextLeader(ctx context.Context, typeID, date string) (*model.NextLeader, error) {
	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	if err := s.requireType(ctx, typeID); err != nil {
		return nil, err
	}

	members, err := s.rotation.ListActive(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrRotationEmpty
	}

	anchor, err := s.sets.LatestRotationBefore(ctx, typeID, date)
	if err != nil {
		return nil, err
	}
	member := members[nextIndex(members, leaderOf(anchor))]

	user, err := s.users.GetByID(ctx, member.UserID)
	if err != nil {
		return nil, err
	}
	return &model.NextLeader{ServiceTypeID: typeID, Date: date, Member: member, User: user}, nil
}

// Recalculate walks every future, non-cancelled service of the type in date
// order and hands rotation-led sets to members in turn. Manually led sets
// keep their leader and do not use up a turn. All changes are written in a
// single batch.
func (s *RotationService) Recalculate(ctx context.Context, typeID string) (*model.RecalculationResult, error) {
	if err := s.requireType(ctx, typeID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recalculate(ctx, typeID)
}

func (s *RotationService) recalculate(ctx context.Context, typeID string) (*model.RecalculationResult, error) {
	today := s.clock.today()

	members, err := s.rotation.ListActive(ctx, typeID)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.services.List(ctx, model.ServiceFilter{From: today, ServiceTypeID: typeID})
	if err != nil {
		return nil, err
	}
	sets, err := s.sets.ListByType(ctx, typeID, today)
	if err != nil {
		return nil, err
	}
	byService := make(map[string]*model.WorshipSet, len(sets))
	for _, ws := range sets {
		byService[ws.ServiceID] = ws
	}

	idx := 0
	if len(members) > 0 {
		anchor, err := s.sets.LatestRotationBefore(ctx, typeID, today)
		if err != nil {
			return nil, err
		}
		idx = nextIndex(members, leaderOf(anchor))
	}

	result := &model.RecalculationResult{ServiceTypeID: typeID, Changes: []model.LeaderChange{}}
	for _, svc := range upcoming {
		if svc.Status == model.ServiceStatusCancelled {
			continue
		}
		ws := byService[svc.ID]
		if ws == nil {
			continue
		}
		result.Examined++
		if ws.LeaderSource == model.LeaderSourceManual {
			continue
		}

		var next *string
		if len(members) > 0 {
			id := members[idx%len(members)].UserID
			next = &id
			idx++
		}
		if sameLeader(ws.LeaderID, next) {
			continue
		}
		result.Changes = append(result.Changes, model.LeaderChange{
			WorshipSetID: ws.ID,
			ServiceDate:  ws.ServiceDate,
			PreviousID:   ws.LeaderID,
			LeaderID:     next,
		})
	}

	if len(result.Changes) > 0 {
		if err := s.sets.ApplyLeaderChanges(ctx, result.Changes); err != nil {
			return nil, err
		}
	}
	metrics.RecordRecalculation(len(result.Changes))
	slog.InfoContext(ctx, "leader rotation recalculated",
		slog.String("service_type_id", typeID),
		slog.Int("members", len(members)),
		slog.Int("examined", result.Examined),
		slog.Int("changes", len(result.Changes)),
	)
	return result, nil
}

// recalculateAfterChange runs while mu is held. Membership has already been
// stored, so a failure is logged and left for the next recalculation.
func (s *RotationService) recalculateAfterChange(ctx context.Context, typeID string) {
	if _, err := s.recalculate(ctx, typeID); err != nil {
		slog.WarnContext(ctx, "leader recalculation failed",
			slog.String("service_type_id", typeID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *RotationService) requireType(ctx context.Context, typeID string) error {
	st, err := s.types.GetByID(ctx, typeID)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrServiceTypeNotFound
	}
	return nil
}

// nextIndex is the position after lastLeader in members, wrapping around.
// It is 0 when there is no last leader or they have left the rotation.
func nextIndex(members []*model.RotationMember, lastLeader string) int {
	if lastLeader == "" || len(members) == 0 {
		return 0
	}
	for i, m := range members {
		if m.UserID == lastLeader {
			return (i + 1) % len(members)
		}
	}
	return 0
}

func leaderOf(ws *model.WorshipSet) string {
	if ws == nil {
		return ""
	}
	return stringValue(ws.LeaderID)
}

func sameLeader(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// samePermutation reports whether ids lists every member exactly once.
func samePermutation(members []*model.RotationMember, ids []string) bool {
	if len(members) != len(ids) {
		return false
	}
	want := make(map[string]int, len(members))
	for _, m := range members {
		want[m.ID]++
	}
	for _, id := range ids {
		if want[id] != 1 {
			return false
		}
		want[id]--
	}
	return true
}
