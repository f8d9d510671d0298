package service

import (
	"context"
	"time"

	"github.com/forgo/worship/api/internal/model"
)

// Storage contracts consumed by the services. Lookups by id return (nil, nil)
// when the record does not exist.

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, includeInactive bool) ([]*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, userID, hash string) error
	TouchLogin(ctx context.Context, userID string) error
}

// TokenRepository defines the interface for refresh token storage
type TokenRepository interface {
	CreateRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, hash string) error
	RevokeAllUserTokens(ctx context.Context, userID string) error
	DeleteExpiredTokens(ctx context.Context) (int, error)
}

// ServiceTypeRepository stores service types.
type ServiceTypeRepository interface {
	Create(ctx context.Context, st *model.ServiceType) error
	GetByID(ctx context.Context, id string) (*model.ServiceType, error)
	List(ctx context.Context, includeInactive bool) ([]*model.ServiceType, error)
	Update(ctx context.Context, st *model.ServiceType) error
	// Delete also removes the type's rotation and default assignments.
	Delete(ctx context.Context, id string) error
}

// CalendarRepository stores dated service occurrences.
type CalendarRepository interface {
	Create(ctx context.Context, svc *model.Service) error
	CreateMany(ctx context.Context, svcs []*model.Service) error
	GetByID(ctx context.Context, id string) (*model.Service, error)
	List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error)
	Update(ctx context.Context, svc *model.Service) error
	Delete(ctx context.Context, id string) error
}

// WorshipSetRepository stores worship sets. Sets carry a copy of their
// service's type and date, which SyncService keeps current.
type WorshipSetRepository interface {
	Create(ctx context.Context, ws *model.WorshipSet) error
	GetByID(ctx context.Context, id string) (*model.WorshipSet, error)
	GetByServiceID(ctx context.Context, serviceID string) (*model.WorshipSet, error)
	Update(ctx context.Context, ws *model.WorshipSet) error
	Delete(ctx context.Context, id string) error
	SyncService(ctx context.Context, svc *model.Service) error
	// ListByType returns sets of a service type dated on or after from, by date.
	ListByType(ctx context.Context, serviceTypeID, from string) ([]*model.WorshipSet, error)
	// LatestRotationBefore is the most recent rotation-led set dated before date.
	LatestRotationBefore(ctx context.Context, serviceTypeID, date string) (*model.WorshipSet, error)
	// ApplyLeaderChanges writes every change in one transaction.
	ApplyLeaderChanges(ctx context.Context, changes []model.LeaderChange) error
}

// SetSongRepository stores a set's ordered lineup.
type SetSongRepository interface {
	Create(ctx context.Context, song *model.SetSong) error
	GetByID(ctx context.Context, id string) (*model.SetSong, error)
	ListBySet(ctx context.Context, setID string) ([]*model.SetSong, error)
	Update(ctx context.Context, song *model.SetSong) error
	// Delete removes id and renumbers remaining as 1..n in one transaction.
	Delete(ctx context.Context, id string, remaining []string) error
	// Reorder assigns positions 1..n to ids in order.
	Reorder(ctx context.Context, ids []string) error
}

// SongRepository stores the song library.
type SongRepository interface {
	Create(ctx context.Context, song *model.Song) error
	GetByID(ctx context.Context, id string) (*model.Song, error)
	GetByTitle(ctx context.Context, title string) (*model.Song, error)
	List(ctx context.Context, includeInactive bool) ([]*model.Song, error)
	Update(ctx context.Context, song *model.Song) error
}

// SongVersionRepository stores song arrangements.
type SongVersionRepository interface {
	Create(ctx context.Context, v *model.SongVersion) error
	GetByID(ctx context.Context, id string) (*model.SongVersion, error)
	ListBySong(ctx context.Context, songID string) ([]*model.SongVersion, error)
	Update(ctx context.Context, v *model.SongVersion) error
	Delete(ctx context.Context, id string) error
}

// ChordSheetRepository stores chord sheet metadata.
type ChordSheetRepository interface {
	Create(ctx context.Context, cs *model.ChordSheet) error
	GetByID(ctx context.Context, id string) (*model.ChordSheet, error)
	ListBySong(ctx context.Context, songID string) ([]*model.ChordSheet, error)
	Delete(ctx context.Context, id string) error
}

// InstrumentRepository stores instruments.
type InstrumentRepository interface {
	Create(ctx context.Context, inst *model.Instrument) error
	GetByID(ctx context.Context, id string) (*model.Instrument, error)
	GetByName(ctx context.Context, name string) (*model.Instrument, error)
	List(ctx context.Context) ([]*model.Instrument, error)
	Update(ctx context.Context, inst *model.Instrument) error
	Delete(ctx context.Context, id string) error
}

// AssignmentRepository stores set assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.Assignment) error
	CreateMany(ctx context.Context, as []*model.Assignment) error
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	ListBySet(ctx context.Context, setID string) ([]*model.Assignment, error)
	// ListByUser returns a user's assignments dated on or after from.
	ListByUser(ctx context.Context, userID, from string) ([]*model.Assignment, error)
	// ListPending returns pending assignments with service dates in [from, to].
	ListPending(ctx context.Context, from, to string) ([]*model.Assignment, error)
	Update(ctx context.Context, a *model.Assignment) error
	Delete(ctx context.Context, id string) error
}

// DefaultAssignmentRepository stores standing assignments per service type.
type DefaultAssignmentRepository interface {
	GetByID(ctx context.Context, id string) (*model.DefaultAssignment, error)
	ListByType(ctx context.Context, serviceTypeID string) ([]*model.DefaultAssignment, error)
	// Replace swaps the whole set for a service type in one transaction.
	Replace(ctx context.Context, serviceTypeID string, defaults []*model.DefaultAssignment) error
	Delete(ctx context.Context, id string) error
}

// RotationRepository stores leader rotation membership.
type RotationRepository interface {
	GetByID(ctx context.Context, id string) (*model.RotationMember, error)
	// GetByUser finds a membership regardless of whether it is active.
	GetByUser(ctx context.Context, serviceTypeID, userID string) (*model.RotationMember, error)
	// ListActive returns active members ordered by position.
	ListActive(ctx context.Context, serviceTypeID string) ([]*model.RotationMember, error)
	// ListActiveByUser returns a user's active memberships across service types.
	ListActiveByUser(ctx context.Context, userID string) ([]*model.RotationMember, error)
	Create(ctx context.Context, m *model.RotationMember) error
	Reactivate(ctx context.Context, id string, position int) error
	// Remove soft-deletes id and renumbers remaining as 1..n in one transaction.
	Remove(ctx context.Context, id string, remaining []string) error
	// Reorder assigns positions 1..n to ids in order.
	Reorder(ctx context.Context, ids []string) error
}

// SuggestionSlotRepository stores suggestion slots.
type SuggestionSlotRepository interface {
	Create(ctx context.Context, slot *model.SuggestionSlot) error
	GetByID(ctx context.Context, id string) (*model.SuggestionSlot, error)
	ListBySet(ctx context.Context, setID string) ([]*model.SuggestionSlot, error)
	ListByUser(ctx context.Context, userID string, openOnly bool) ([]*model.SuggestionSlot, error)
	// ListPendingDueBefore returns pending slots due before t.
	ListPendingDueBefore(ctx context.Context, t time.Time) ([]*model.SuggestionSlot, error)
	Update(ctx context.Context, slot *model.SuggestionSlot) error
	// ExpireDue marks every pending slot due before now as expired.
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// SuggestionRepository stores suggestions.
type SuggestionRepository interface {
	Create(ctx context.Context, s *model.Suggestion) error
	GetByID(ctx context.Context, id string) (*model.Suggestion, error)
	ListBySlot(ctx context.Context, slotID string) ([]*model.Suggestion, error)
	MarkAccepted(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// AvailabilityRepository stores blackout dates.
type AvailabilityRepository interface {
	Create(ctx context.Context, a *model.Availability) error
	GetByID(ctx context.Context, id string) (*model.Availability, error)
	ListByUser(ctx context.Context, userID, from string) ([]*model.Availability, error)
	ListByDate(ctx context.Context, date string) ([]*model.Availability, error)
	IsUnavailable(ctx context.Context, userID, date string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// NotificationRepository stores notification logs.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.NotificationLog) error
	// List returns the newest logs first; an empty userID lists everyone.
	List(ctx context.Context, userID string, limit int) ([]*model.NotificationLog, error)
	// Exists reports whether a sent log exists for the user, type and reference.
	Exists(ctx context.Context, userID string, typ model.NotificationType, referenceID string) (bool, error)
}
