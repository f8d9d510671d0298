package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/forgo/worship/api/internal/model"
)

// SuggestionService runs the song suggestion workflow: a set leader opens a
// time-boxed slot for a user, the user proposes songs and submits, and the
// leader accepts suggestions into the lineup.
type SuggestionService struct {
	slots       SuggestionSlotRepository
	suggestions SuggestionRepository
	users       UserRepository
	songs       SongRepository
	sets        *WorshipSetService
	notifier    *NotificationService
	clock       Clock
}

// SuggestionServiceConfig holds the suggestion dependencies
type SuggestionServiceConfig struct {
	SlotRepo       SuggestionSlotRepository
	SuggestionRepo SuggestionRepository
	UserRepo       UserRepository
	SongRepo       SongRepository
	WorshipSets    *WorshipSetService
	Notifier       *NotificationService
	Clock          Clock
}

// NewSuggestionService creates a new suggestion service
func NewSuggestionService(cfg SuggestionServiceConfig) *SuggestionService {
	return &SuggestionService{
		slots:       cfg.SlotRepo,
		suggestions: cfg.SuggestionRepo,
		users:       cfg.UserRepo,
		songs:       cfg.SongRepo,
		sets:        cfg.WorshipSets,
		notifier:    cfg.Notifier,
		clock:       cfg.Clock,
	}
}

// ============================================================================
// Slots
// ============================================================================

// CreateSlot invites a user to suggest songs for a set.
func (s *SuggestionService) CreateSlot(ctx context.Context, actor Actor, setID string, req model.CreateSuggestionSlotRequest) (*model.SuggestionSlot, error) {
	ws, err := s.sets.editableSet(ctx, actor, setID)
	if err != nil {
		return nil, err
	}
	if !req.DueAt.After(s.clock.now()) {
		return nil, ErrDueDateInPast
	}
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.Active {
		return nil, ErrAccountInactive
	}

	slot := &model.SuggestionSlot{
		WorshipSetID: ws.ID,
		UserID:       user.ID,
		DueAt:        req.DueAt.UTC(),
		MinSongs:     req.MinSongs,
		MaxSongs:     req.MaxSongs,
		Status:       model.SlotStatusPending,
		Notes:        req.Notes,
		CreatedBy:    actor.UserID,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}

	s.notifier.notifyQuietly(ctx, model.Notification{
		UserID:  user.ID,
		Email:   user.Email,
		Type:    model.NotificationSuggestionSlot,
		Subject: "Song suggestions wanted for " + ws.ServiceDate,
		Body: fmt.Sprintf("Please suggest %d to %d songs for %s by %s.",
			slot.MinSongs, slot.MaxSongs, ws.ServiceDate, slot.DueAt.Format("Mon Jan 2 15:04 MST")),
		ReferenceID: slot.ID,
	})
	return slot, nil
}

func (s *SuggestionService) GetSlot(ctx context.Context, id string) (*model.SuggestionSlot, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

func (s *SuggestionService) ListBySet(ctx context.Context, setID string) ([]*model.SuggestionSlot, error) {
	if _, err := s.sets.getSet(ctx, setID); err != nil {
		return nil, err
	}
	return s.slots.ListBySet(ctx, setID)
}

// ListMine returns the caller's slots, optionally only the pending ones.
func (s *SuggestionService) ListMine(ctx context.Context, userID string, openOnly bool) ([]*model.SuggestionSlot, error) {
	return s.slots.ListByUser(ctx, userID, openOnly)
}

// CancelSlot closes a pending slot. Set leader or admin.
func (s *SuggestionService) CancelSlot(ctx context.Context, actor Actor, id string) (*model.SuggestionSlot, error) {
	slot, err := s.GetSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.sets.editableSet(ctx, actor, slot.WorshipSetID); err != nil {
		return nil, err
	}
	if slot.Status != model.SlotStatusPending {
		return nil, ErrSlotClosed
	}
	slot.Status = model.SlotStatusCancelled
	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// Submit closes the slot for its owner once at least MinSongs are in.
func (s *SuggestionService) Submit(ctx context.Context, actor Actor, id string) (*model.SuggestionSlot, error) {
	slot, err := s.ownSlot(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.now()
	if !slot.IsOpen(now) {
		return nil, ErrSlotClosed
	}
	suggestions, err := s.suggestions.ListBySlot(ctx, slot.ID)
	if err != nil {
		return nil, err
	}
	if len(suggestions) < slot.MinSongs {
		return nil, ErrTooFewSuggestions
	}

	slot.Status = model.SlotStatusSubmitted
	slot.SubmittedOn = &now
	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// ExpireDue marks every pending slot past its due time as expired.
func (s *SuggestionService) ExpireDue(ctx context.Context) (int, error) {
	n, err := s.slots.ExpireDue(ctx, s.clock.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("expired suggestion slots", "count", n)
	}
	return n, nil
}

// ============================================================================
// Suggestions
// ============================================================================

// AddSuggestion proposes a song in an open slot owned by the actor.
func (s *SuggestionService) AddSuggestion(ctx context.Context, actor Actor, slotID string, req model.CreateSuggestionRequest) (*model.Suggestion, error) {
	slot, err := s.ownSlot(ctx, actor, slotID)
	if err != nil {
		return nil, err
	}
	if !slot.IsOpen(s.clock.now()) {
		return nil, ErrSlotClosed
	}
	existing, err := s.suggestions.ListBySlot(ctx, slot.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= slot.MaxSongs {
		return nil, ErrSlotFull
	}

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
	if req.SongVersionID != nil {
		if _, err := s.sets.songVersion(ctx, song.ID, *req.SongVersionID); err != nil {
			return nil, err
		}
	}
	key, err := canonicalKey(req.Key)
	if err != nil {
		return nil, err
	}

	sg := &model.Suggestion{
		SlotID:        slot.ID,
		SongID:        song.ID,
		SongVersionID: req.SongVersionID,
		Key:           key,
		Notes:         req.Notes,
	}
	if err := s.suggestions.Create(ctx, sg); err != nil {
		return nil, err
	}
	return sg, nil
}

func (s *SuggestionService) ListSuggestions(ctx context.Context, slotID string) ([]*model.Suggestion, error) {
	if _, err := s.GetSlot(ctx, slotID); err != nil {
		return nil, err
	}
	return s.suggestions.ListBySlot(ctx, slotID)
}

// DeleteSuggestion withdraws a suggestion. The slot owner may do so while the
// slot is open; the set leader or an admin at any time before acceptance.
func (s *SuggestionService) DeleteSuggestion(ctx context.Context, actor Actor, id string) error {
	sg, err := s.getSuggestion(ctx, id)
	if err != nil {
		return err
	}
	if sg.Accepted {
		return ErrSuggestionAccepted
	}
	slot, err := s.GetSlot(ctx, sg.SlotID)
	if err != nil {
		return err
	}

	if slot.UserID == actor.UserID {
		if !slot.IsOpen(s.clock.now()) {
			return ErrSlotClosed
		}
	} else if _, err := s.sets.editableSet(ctx, actor, slot.WorshipSetID); err != nil {
		return err
	}
	return s.suggestions.Delete(ctx, id)
}

// Accept appends a suggested song to the set's lineup. Set leader or admin.
func (s *SuggestionService) Accept(ctx context.Context, actor Actor, id string) (*model.SetSong, error) {
	sg, err := s.getSuggestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if sg.Accepted {
		return nil, ErrSuggestionAccepted
	}
	slot, err := s.GetSlot(ctx, sg.SlotID)
	if err != nil {
		return nil, err
	}
	ws, err := s.sets.editableSet(ctx, actor, slot.WorshipSetID)
	if err != nil {
		return nil, err
	}

	entry, err := s.sets.appendSong(ctx, ws, model.AddSetSongRequest{
		SongID:        sg.SongID,
		SongVersionID: sg.SongVersionID,
		Key:           sg.Key,
		Notes:         sg.Notes,
	}, &sg.ID)
	if err != nil {
		return nil, err
	}
	if err := s.suggestions.MarkAccepted(ctx, sg.ID); err != nil {
		return nil, err
	}
	return entry, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *SuggestionService) ownSlot(ctx context.Context, actor Actor, id string) (*model.SuggestionSlot, error) {
	slot, err := s.GetSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	if slot.UserID != actor.UserID {
		return nil, ErrNotSlotOwner
	}
	return slot, nil
}

func (s *SuggestionService) getSuggestion(ctx context.Context, id string) (*model.Suggestion, error) {
	sg, err := s.suggestions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sg == nil {
		return nil, ErrSuggestionNotFound
	}
	return sg, nil
}
