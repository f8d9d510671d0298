package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

// WorshipSetService manages worship sets and their song lineups.
type WorshipSetService struct {
	sets         WorshipSetRepository
	setSongs     SetSongRepository
	services     CalendarRepository
	songs        SongRepository
	versions     SongVersionRepository
	assignments  AssignmentRepository
	defaults     DefaultAssignmentRepository
	availability AvailabilityRepository
	users        UserRepository
	rotation     *RotationService
	notifier     *NotificationService
	clock        Clock
}

// WorshipSetServiceConfig holds the worship set dependencies
type WorshipSetServiceConfig struct {
	WorshipSetRepo        WorshipSetRepository
	SetSongRepo           SetSongRepository
	CalendarRepo          CalendarRepository
	SongRepo              SongRepository
	SongVersionRepo       SongVersionRepository
	AssignmentRepo        AssignmentRepository
	DefaultAssignmentRepo DefaultAssignmentRepository
	AvailabilityRepo      AvailabilityRepository
	UserRepo              UserRepository
	Rotation              *RotationService
	Notifier              *NotificationService
	Clock                 Clock
}

// NewWorshipSetService creates a new worship set service
func NewWorshipSetService(cfg WorshipSetServiceConfig) *WorshipSetService {
	return &WorshipSetService{
		sets:         cfg.WorshipSetRepo,
		setSongs:     cfg.SetSongRepo,
		services:     cfg.CalendarRepo,
		songs:        cfg.SongRepo,
		versions:     cfg.SongVersionRepo,
		assignments:  cfg.AssignmentRepo,
		defaults:     cfg.DefaultAssignmentRepo,
		availability: cfg.AvailabilityRepo,
		users:        cfg.UserRepo,
		rotation:     cfg.Rotation,
		notifier:     cfg.Notifier,
		clock:        cfg.Clock,
	}
}

// ============================================================================
// Sets
// ============================================================================

// Create builds the set for a service. An explicit leader makes the set
// manually led; otherwise the rotation picks one. Default assignments of the
// service type are copied in, skipping anyone unavailable that day.
func (s *WorshipSetService) Create(ctx context.Context, serviceID string, req model.CreateWorshipSetRequest) (*model.WorshipSetDetail, error) {
	svc, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}
	if svc.Status == model.ServiceStatusCancelled {
		return nil, ErrServiceCancelled
	}
	existing, err := s.sets.GetByServiceID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrWorshipSetExists
	}

	ws := &model.WorshipSet{
		ServiceID:        svc.ID,
		ServiceTypeID:    svc.ServiceTypeID,
		ServiceDate:      svc.Date,
		ServiceStartTime: svc.StartTime,
		ServiceStatus:    svc.Status,
		LeaderSource:     model.LeaderSourceRotation,
		Status:           model.WorshipSetStatusDraft,
		Notes:            req.Notes,
	}
	if req.LeaderID != nil {
		if err := s.requireLeader(ctx, *req.LeaderID); err != nil {
			return nil, err
		}
		ws.LeaderID = req.LeaderID
		ws.LeaderSource = model.LeaderSourceManual
	} else if s.rotation != nil {
		next, err := s.rotation.NextLeader(ctx, svc.ServiceTypeID, svc.Date)
		switch {
		case errors.Is(err, ErrRotationEmpty):
		case err != nil:
			return nil, err
		default:
			ws.LeaderID = &next.Member.UserID
		}
	}

	if err := s.sets.Create(ctx, ws); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrWorshipSetExists
		}
		return nil, err
	}

	assignments, err := s.populateDefaults(ctx, ws)
	if err != nil {
		return nil, err
	}

	// A new rotation-led set in the middle of the calendar shifts later turns.
	if ws.LeaderSource == model.LeaderSourceRotation && s.rotation != nil {
		if _, err := s.rotation.Recalculate(ctx, ws.ServiceTypeID); err != nil {
			slog.WarnContext(ctx, "leader recalculation failed", slog.String("error", err.Error()))
		} else if fresh, err := s.sets.GetByID(ctx, ws.ID); err == nil && fresh != nil {
			ws = fresh
		}
	}

	if ws.LeaderID != nil {
		s.notifier.notifyQuietly(ctx, model.Notification{
			UserID:      *ws.LeaderID,
			Type:        model.NotificationLeaderAssigned,
			Subject:     "You are leading worship on " + ws.ServiceDate,
			Body:        "You have been scheduled to lead the worship set for " + ws.ServiceDate + ".",
			ReferenceID: ws.ID,
		})
	}
	for _, a := range assignments {
		s.notifier.notifyQuietly(ctx, assignmentNotification(a))
	}

	return &model.WorshipSetDetail{WorshipSet: ws, Service: svc, Songs: []*model.SetSong{}, Assignments: assignments}, nil
}

func (s *WorshipSetService) populateDefaults(ctx context.Context, ws *model.WorshipSet) ([]*model.Assignment, error) {
	defaults, err := s.defaults.ListByType(ctx, ws.ServiceTypeID)
	if err != nil {
		return nil, err
	}

	out := []*model.Assignment{}
	for _, d := range defaults {
		unavailable, err := s.availability.IsUnavailable(ctx, d.UserID, ws.ServiceDate)
		if err != nil {
			return nil, err
		}
		if unavailable {
			continue
		}
		user, err := s.users.GetByID(ctx, d.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil || !user.Active {
			continue
		}
		out = append(out, &model.Assignment{
			WorshipSetID: ws.ID,
			InstrumentID: d.InstrumentID,
			UserID:       d.UserID,
			ServiceDate:  ws.ServiceDate,
			Status:       model.AssignmentStatusPending,
		})
	}
	if len(out) == 0 {
		return out, nil
	}
	if err := s.assignments.CreateMany(ctx, out); err != nil {
		return nil, fmt.Errorf("copy default assignments: %w", err)
	}
	return out, nil
}

// Get returns a set with its service, lineup and team.
func (s *WorshipSetService) Get(ctx context.Context, id string) (*model.WorshipSetDetail, error) {
	ws, err := s.getSet(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, ws)
}

// GetByService returns the set of a service.
func (s *WorshipSetService) GetByService(ctx context.Context, serviceID string) (*model.WorshipSetDetail, error) {
	ws, err := s.sets.GetByServiceID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, ErrWorshipSetNotFound
	}
	return s.detail(ctx, ws)
}

func (s *WorshipSetService) detail(ctx context.Context, ws *model.WorshipSet) (*model.WorshipSetDetail, error) {
	svc, err := s.services.GetByID(ctx, ws.ServiceID)
	if err != nil {
		return nil, err
	}
	songs, err := s.setSongs.ListBySet(ctx, ws.ID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListBySet(ctx, ws.ID)
	if err != nil {
		return nil, err
	}
	return &model.WorshipSetDetail{WorshipSet: ws, Service: svc, Songs: songs, Assignments: assignments}, nil
}

// Update patches a set. Naming a leader pins the set to that leader;
// use_rotation hands it back to the scheduler.
func (s *WorshipSetService) Update(ctx context.Context, actor Actor, id string, req model.UpdateWorshipSetRequest) (*model.WorshipSet, error) {
	ws, err := s.editableSet(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	leaderChanged := false
	if req.LeaderID != nil {
		if err := s.requireLeader(ctx, *req.LeaderID); err != nil {
			return nil, err
		}
		leaderChanged = !ws.IsLedBy(*req.LeaderID) || ws.LeaderSource != model.LeaderSourceManual
		ws.LeaderID = req.LeaderID
		ws.LeaderSource = model.LeaderSourceManual
	} else if req.UseRotation != nil && *req.UseRotation && ws.LeaderSource != model.LeaderSourceRotation {
		ws.LeaderSource = model.LeaderSourceRotation
		leaderChanged = true
	}
	if req.Notes != nil {
		ws.Notes = req.Notes
	}

	if err := s.sets.Update(ctx, ws); err != nil {
		return nil, err
	}

	if leaderChanged && s.rotation != nil {
		if _, err := s.rotation.Recalculate(ctx, ws.ServiceTypeID); err != nil {
			return nil, err
		}
		return s.getSet(ctx, id)
	}
	return ws, nil
}

// Publish marks a set final.
func (s *WorshipSetService) Publish(ctx context.Context, actor Actor, id string) (*model.WorshipSet, error) {
	ws, err := s.editableSet(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if ws.Status == model.WorshipSetStatusPublished {
		return nil, ErrAlreadyPublished
	}
	now := s.clock.now()
	ws.Status = model.WorshipSetStatusPublished
	ws.PublishedOn = &now
	if err := s.sets.Update(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// Delete removes a set with its lineup, team and suggestion slots.
func (s *WorshipSetService) Delete(ctx context.Context, actor Actor, id string) error {
	ws, err := s.editableSet(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.sets.Delete(ctx, id); err != nil {
		return err
	}
	if ws.LeaderSource == model.LeaderSourceRotation && s.rotation != nil {
		if _, err := s.rotation.Recalculate(ctx, ws.ServiceTypeID); err != nil {
			slog.WarnContext(ctx, "leader recalculation failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

// ============================================================================
// Lineup
// ============================================================================

func (s *WorshipSetService) ListSongs(ctx context.Context, setID string) ([]*model.SetSong, error) {
	if _, err := s.getSet(ctx, setID); err != nil {
		return nil, err
	}
	return s.setSongs.ListBySet(ctx, setID)
}

// AddSong appends a song to the end of the lineup.
func (s *WorshipSetService) AddSong(ctx context.Context, actor Actor, setID string, req model.AddSetSongRequest) (*model.SetSong, error) {
	ws, err := s.editableSet(ctx, actor, setID)
	if err != nil {
		return nil, err
	}
	return s.appendSong(ctx, ws, req, nil)
}

func (s *WorshipSetService) appendSong(ctx context.Context, ws *model.WorshipSet, req model.AddSetSongRequest, suggestionID *string) (*model.SetSong, error) {
	song, err := s.songs.GetByID(ctx, req.SongID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, ErrSongNotFound
	}
	if !song.Active {
		return nil, ErrSongInactive
	}

	key, err := canonicalKey(req.Key)
	if err != nil {
		return nil, err
	}
	if req.SongVersionID != nil {
		v, err := s.songVersion(ctx, song.ID, *req.SongVersionID)
		if err != nil {
			return nil, err
		}
		if key == nil {
			key = v.Key
		}
	}
	if key == nil {
		key = song.DefaultKey
	}

	lineup, err := s.setSongs.ListBySet(ctx, ws.ID)
	if err != nil {
		return nil, err
	}
	entry := &model.SetSong{
		WorshipSetID:  ws.ID,
		SongID:        song.ID,
		SongVersionID: req.SongVersionID,
		Position:      len(lineup) + 1,
		Key:           key,
		Notes:         req.Notes,
		SuggestionID:  suggestionID,
	}
	if err := s.setSongs.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateSong patches one lineup entry.
func (s *WorshipSetService) UpdateSong(ctx context.Context, actor Actor, setID, setSongID string, req model.UpdateSetSongRequest) (*model.SetSong, error) {
	if _, err := s.editableSet(ctx, actor, setID); err != nil {
		return nil, err
	}
	entry, err := s.setSong(ctx, setID, setSongID)
	if err != nil {
		return nil, err
	}
	if req.SongVersionID != nil {
		if _, err := s.songVersion(ctx, entry.SongID, *req.SongVersionID); err != nil {
			return nil, err
		}
		entry.SongVersionID = req.SongVersionID
	}
	if req.Key != nil {
		key, err := canonicalKey(req.Key)
		if err != nil {
			return nil, err
		}
		entry.Key = key
	}
	if req.Notes != nil {
		entry.Notes = req.Notes
	}
	if err := s.setSongs.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveSong deletes an entry and closes the gap.
func (s *WorshipSetService) RemoveSong(ctx context.Context, actor Actor, setID, setSongID string) error {
	if _, err := s.editableSet(ctx, actor, setID); err != nil {
		return err
	}
	lineup, err := s.setSongs.ListBySet(ctx, setID)
	if err != nil {
		return err
	}
	remaining := make([]string, 0, len(lineup))
	found := false
	for _, e := range lineup {
		if e.ID == setSongID {
			found = true
			continue
		}
		remaining = append(remaining, e.ID)
	}
	if !found {
		return ErrSetSongNotFound
	}
	return s.setSongs.Delete(ctx, setSongID, remaining)
}

// ReorderSongs applies a complete new lineup order.
func (s *WorshipSetService) ReorderSongs(ctx context.Context, actor Actor, setID string, req model.ReorderSetSongsRequest) ([]*model.SetSong, error) {
	if _, err := s.editableSet(ctx, actor, setID); err != nil {
		return nil, err
	}
	lineup, err := s.setSongs.ListBySet(ctx, setID)
	if err != nil {
		return nil, err
	}
	if len(lineup) != len(req.SetSongIDs) {
		return nil, ErrInvalidSetOrder
	}
	known := make(map[string]bool, len(lineup))
	for _, e := range lineup {
		known[e.ID] = true
	}
	for _, id := range req.SetSongIDs {
		if !known[id] {
			return nil, ErrInvalidSetOrder
		}
		known[id] = false
	}

	if err := s.setSongs.Reorder(ctx, req.SetSongIDs); err != nil {
		return nil, err
	}
	return s.setSongs.ListBySet(ctx, setID)
}

// ============================================================================
// Helpers
// ============================================================================

func (s *WorshipSetService) getSet(ctx context.Context, id string) (*model.WorshipSet, error) {
	ws, err := s.sets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, ErrWorshipSetNotFound
	}
	return ws, nil
}

// editableSet loads a set the actor may change: its leader or an admin.
func (s *WorshipSetService) editableSet(ctx context.Context, actor Actor, id string) (*model.WorshipSet, error) {
	ws, err := s.getSet(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !ws.IsLedBy(actor.UserID) {
		return nil, ErrNotSetLeader
	}
	return ws, nil
}

func (s *WorshipSetService) setSong(ctx context.Context, setID, id string) (*model.SetSong, error) {
	entry, err := s.setSongs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.WorshipSetID != setID {
		return nil, ErrSetSongNotFound
	}
	return entry, nil
}

func (s *WorshipSetService) songVersion(ctx context.Context, songID, versionID string) (*model.SongVersion, error) {
	v, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrSongVersionNotFound
	}
	if v.SongID != songID {
		return nil, ErrVersionSongMismatch
	}
	return v, nil
}

func (s *WorshipSetService) requireLeader(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !user.Active || !user.CanLead() {
		return ErrLeaderNotEligible
	}
	return nil
}

func assignmentNotification(a *model.Assignment) model.Notification {
	return model.Notification{
		UserID:      a.UserID,
		Type:        model.NotificationAssignment,
		Subject:     "New assignment on " + a.ServiceDate,
		Body:        "You have been assigned to play on " + a.ServiceDate + ". Please accept or decline.",
		ReferenceID: a.ID,
	}
}
