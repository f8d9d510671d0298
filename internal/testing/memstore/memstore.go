// Package memstore provides in-memory implementations of every repository
// interface the service layer consumes. It mirrors the unique constraints and
// orderings of the SurrealDB repositories closely enough for service and
// handler tests; it is not safe to use outside tests.
package memstore

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

// table keeps copies of rows in insertion order.
type table[T any] struct {
	rows  map[string]*T
	order map[string]int
	next  int
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: map[string]*T{}, order: map[string]int{}}
}

func (t *table[T]) put(id string, v *T) {
	c := *v
	if _, ok := t.order[id]; !ok {
		t.order[id] = t.next
		t.next++
	}
	t.rows[id] = &c
}

func (t *table[T]) get(id string) *T {
	v, ok := t.rows[id]
	if !ok {
		return nil
	}
	c := *v
	return &c
}

// ptr returns the stored row for in-place edits.
func (t *table[T]) ptr(id string) *T {
	return t.rows[id]
}

func (t *table[T]) has(id string) bool {
	_, ok := t.rows[id]
	return ok
}

func (t *table[T]) delete(id string) {
	delete(t.rows, id)
	delete(t.order, id)
}

func (t *table[T]) filter(keep func(*T) bool) []*T {
	ids := make([]string, 0, len(t.rows))
	for id, v := range t.rows {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return t.order[ids[i]] < t.order[ids[j]] })
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		c := *t.rows[id]
		out = append(out, &c)
	}
	return out
}

// Store holds every table behind one lock.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	users         *table[model.User]
	tokens        *table[service.RefreshToken]
	serviceTypes  *table[model.ServiceType]
	services      *table[model.Service]
	sets          *table[model.WorshipSet]
	setSongs      *table[model.SetSong]
	songs         *table[model.Song]
	versions      *table[model.SongVersion]
	chordSheets   *table[model.ChordSheet]
	instruments   *table[model.Instrument]
	assignments   *table[model.Assignment]
	defaults      *table[model.DefaultAssignment]
	rotation      *table[model.RotationMember]
	slots         *table[model.SuggestionSlot]
	suggestions   *table[model.Suggestion]
	availability  *table[model.Availability]
	notifications *table[model.NotificationLog]
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:           time.Now,
		users:         newTable[model.User](),
		tokens:        newTable[service.RefreshToken](),
		serviceTypes:  newTable[model.ServiceType](),
		services:      newTable[model.Service](),
		sets:          newTable[model.WorshipSet](),
		setSongs:      newTable[model.SetSong](),
		songs:         newTable[model.Song](),
		versions:      newTable[model.SongVersion](),
		chordSheets:   newTable[model.ChordSheet](),
		instruments:   newTable[model.Instrument](),
		assignments:   newTable[model.Assignment](),
		defaults:      newTable[model.DefaultAssignment](),
		rotation:      newTable[model.RotationMember](),
		slots:         newTable[model.SuggestionSlot](),
		suggestions:   newTable[model.Suggestion](),
		availability:  newTable[model.Availability](),
		notifications: newTable[model.NotificationLog](),
	}
}

// SetClock replaces the timestamp source used for created and updated times.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func ensureID(id *string) string {
	if *id == "" {
		*id = uuid.NewString()
	}
	return *id
}

// Repository accessors.

func (s *Store) Users() *UserRepo                 { return &UserRepo{s} }
func (s *Store) Tokens() *TokenRepo               { return &TokenRepo{s} }
func (s *Store) ServiceTypes() *ServiceTypeRepo   { return &ServiceTypeRepo{s} }
func (s *Store) Calendar() *CalendarRepo          { return &CalendarRepo{s} }
func (s *Store) WorshipSets() *WorshipSetRepo     { return &WorshipSetRepo{s} }
func (s *Store) SetSongs() *SetSongRepo           { return &SetSongRepo{s} }
func (s *Store) Songs() *SongRepo                 { return &SongRepo{s} }
func (s *Store) SongVersions() *SongVersionRepo   { return &SongVersionRepo{s} }
func (s *Store) ChordSheets() *ChordSheetRepo     { return &ChordSheetRepo{s} }
func (s *Store) Instruments() *InstrumentRepo     { return &InstrumentRepo{s} }
func (s *Store) Assignments() *AssignmentRepo     { return &AssignmentRepo{s} }
func (s *Store) Defaults() *DefaultAssignmentRepo { return &DefaultAssignmentRepo{s} }
func (s *Store) Rotation() *RotationRepo          { return &RotationRepo{s} }
func (s *Store) Slots() *SlotRepo                 { return &SlotRepo{s} }
func (s *Store) Suggestions() *SuggestionRepo     { return &SuggestionRepo{s} }
func (s *Store) Availability() *AvailabilityRepo  { return &AvailabilityRepo{s} }
func (s *Store) Notifications() *NotificationRepo { return &NotificationRepo{s} }

var (
	_ service.UserRepository              = (*UserRepo)(nil)
	_ service.TokenRepository             = (*TokenRepo)(nil)
	_ service.ServiceTypeRepository       = (*ServiceTypeRepo)(nil)
	_ service.CalendarRepository          = (*CalendarRepo)(nil)
	_ service.WorshipSetRepository        = (*WorshipSetRepo)(nil)
	_ service.SetSongRepository           = (*SetSongRepo)(nil)
	_ service.SongRepository              = (*SongRepo)(nil)
	_ service.SongVersionRepository       = (*SongVersionRepo)(nil)
	_ service.ChordSheetRepository        = (*ChordSheetRepo)(nil)
	_ service.InstrumentRepository        = (*InstrumentRepo)(nil)
	_ service.AssignmentRepository        = (*AssignmentRepo)(nil)
	_ service.DefaultAssignmentRepository = (*DefaultAssignmentRepo)(nil)
	_ service.RotationRepository          = (*RotationRepo)(nil)
	_ service.SuggestionSlotRepository    = (*SlotRepo)(nil)
	_ service.SuggestionRepository        = (*SuggestionRepo)(nil)
	_ service.AvailabilityRepository      = (*AvailabilityRepo)(nil)
	_ service.NotificationRepository      = (*NotificationRepo)(nil)
)

// renumber assigns positions 1..n to ids the way database.Batch.Renumber
// does: every row first to -(i+1), then to i+1, one update at a time. key
// names a row's slot in the unique position index ("" when it holds none);
// like the index, every single update is checked, and a collision rolls the
// whole renumber back with ErrDuplicate.
func renumber[T any](t *table[T], ids []string, set func(*T, int), key func(*T) string) error {
	before := make(map[string]T, len(ids))
	for _, id := range ids {
		row := t.ptr(id)
		if row == nil {
			return database.ErrNotFound
		}
		before[id] = *row
	}
	for _, phase := range []int{-1, 1} {
		for i, id := range ids {
			set(t.ptr(id), phase*(i+1))
			if !uniqueKeys(t, key) {
				for rid, row := range before {
					*t.rows[rid] = row
				}
				return database.ErrDuplicate
			}
		}
	}
	return nil
}

func uniqueKeys[T any](t *table[T], key func(*T) string) bool {
	seen := make(map[string]struct{}, len(t.rows))
	for _, row := range t.rows {
		k := key(row)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
	}
	return true
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
