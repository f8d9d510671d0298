package service_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forgo/worship/api/internal/blob"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
	"github.com/forgo/worship/api/internal/testing/memstore"
	"github.com/forgo/worship/api/pkg/jwt"
)

// ============================================================================
// Test environment
// ============================================================================

// testNow is a Wednesday; the following Sundays are 2025-03-09, -16, -23, -30.
var testNow = time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)

type env struct {
	store *memstore.Store
	clock service.Clock
	blobs *blob.Memory
	now   time.Time

	tokens       *service.TokenService
	auth         *service.AuthService
	users        *service.UserService
	calendar     *service.CalendarService
	rotation     *service.RotationService
	sets         *service.WorshipSetService
	songs        *service.SongService
	sheets       *service.ChordSheetService
	instruments  *service.InstrumentService
	assignments  *service.AssignmentService
	suggestions  *service.SuggestionService
	availability *service.AvailabilityService
	notifier     *service.NotificationService
	imports      *service.ImportService
	export       *service.ExportService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	store := memstore.New()
	e := &env{store: store, blobs: blob.NewMemory(), now: testNow}
	clock := service.Clock(func() time.Time { return e.now })
	e.clock = clock
	store.SetClock(clock)
	e.tokens = service.NewTokenService(service.TokenServiceConfig{
		JWTService: jwt.NewTestService(key, "worship-test", time.Hour),
		TokenRepo:  store.Tokens(),
		Clock:      clock,
	})
	e.auth = service.NewAuthService(service.AuthServiceConfig{
		UserRepo:          store.Users(),
		TokenService:      e.tokens,
		AllowRegistration: true,
	})
	e.notifier = service.NewNotificationService(store.Notifications(), store.Users(), nil, clock)
	e.rotation = service.NewRotationService(service.RotationServiceConfig{
		RotationRepo:    store.Rotation(),
		UserRepo:        store.Users(),
		ServiceTypeRepo: store.ServiceTypes(),
		CalendarRepo:    store.Calendar(),
		WorshipSetRepo:  store.WorshipSets(),
		Clock:           clock,
	})
	e.users = service.NewUserService(store.Users(), e.auth, e.tokens, e.rotation)
	e.calendar = service.NewCalendarService(service.CalendarServiceConfig{
		ServiceTypeRepo: store.ServiceTypes(),
		CalendarRepo:    store.Calendar(),
		WorshipSetRepo:  store.WorshipSets(),
		Scheduler:       e.rotation,
	})
	e.sets = service.NewWorshipSetService(service.WorshipSetServiceConfig{
		WorshipSetRepo:        store.WorshipSets(),
		SetSongRepo:           store.SetSongs(),
		CalendarRepo:          store.Calendar(),
		SongRepo:              store.Songs(),
		SongVersionRepo:       store.SongVersions(),
		AssignmentRepo:        store.Assignments(),
		DefaultAssignmentRepo: store.Defaults(),
		AvailabilityRepo:      store.Availability(),
		UserRepo:              store.Users(),
		Rotation:              e.rotation,
		Notifier:              e.notifier,
		Clock:                 clock,
	})
	e.songs = service.NewSongService(store.Songs(), store.SongVersions())
	e.sheets = service.NewChordSheetService(service.ChordSheetServiceConfig{
		ChordSheetRepo:  store.ChordSheets(),
		SongRepo:        store.Songs(),
		SongVersionRepo: store.SongVersions(),
		Store:           e.blobs,
		MaxBytes:        1024,
	})
	e.instruments = service.NewInstrumentService(store.Instruments())
	e.assignments = service.NewAssignmentService(service.AssignmentServiceConfig{
		AssignmentRepo:        store.Assignments(),
		DefaultAssignmentRepo: store.Defaults(),
		WorshipSetRepo:        store.WorshipSets(),
		ServiceTypeRepo:       store.ServiceTypes(),
		InstrumentRepo:        store.Instruments(),
		UserRepo:              store.Users(),
		AvailabilityRepo:      store.Availability(),
		Notifier:              e.notifier,
		Clock:                 clock,
	})
	e.suggestions = service.NewSuggestionService(service.SuggestionServiceConfig{
		SlotRepo:       store.Slots(),
		SuggestionRepo: store.Suggestions(),
		UserRepo:       store.Users(),
		SongRepo:       store.Songs(),
		WorshipSets:    e.sets,
		Notifier:       e.notifier,
		Clock:          clock,
	})
	e.availability = service.NewAvailabilityService(store.Availability(), clock)
	e.imports = service.NewImportService(e.songs, store.Songs(), e.instruments)
	e.export = service.NewExportService(service.ExportServiceConfig{
		ServiceTypeRepo: store.ServiceTypes(),
		CalendarRepo:    store.Calendar(),
		WorshipSetRepo:  store.WorshipSets(),
		SetSongRepo:     store.SetSongs(),
		SongRepo:        store.Songs(),
		AssignmentRepo:  store.Assignments(),
		InstrumentRepo:  store.Instruments(),
		UserRepo:        store.Users(),
		Clock:           clock,
	})
	return e
}

// advance moves the shared clock forward.
func (e *env) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

// ============================================================================
// Seed helpers
// ============================================================================

func (e *env) user(t *testing.T, first string, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{
		Email:     first + "@church.test",
		FirstName: first,
		LastName:  "Tester",
		Role:      role,
		Active:    true,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

func (e *env) sundayType(t *testing.T) *model.ServiceType {
	t.Helper()
	sunday := 0
	st, err := e.calendar.CreateType(context.Background(), model.CreateServiceTypeRequest{
		Name:           "Sunday Morning",
		DefaultWeekday: &sunday,
	})
	require.NoError(t, err)
	return st
}

func (e *env) service(t *testing.T, typeID, date string) *model.Service {
	t.Helper()
	svc, err := e.calendar.Create(context.Background(), model.CreateServiceRequest{ServiceTypeID: typeID, Date: date})
	require.NoError(t, err)
	return svc
}

func (e *env) song(t *testing.T, title, key string) *model.Song {
	t.Helper()
	song, err := e.songs.Create(context.Background(), model.CreateSongRequest{Title: title, DefaultKey: &key})
	require.NoError(t, err)
	return song
}

func (e *env) addToRotation(t *testing.T, typeID string, users ...*model.User) []*model.RotationMember {
	t.Helper()
	out := make([]*model.RotationMember, 0, len(users))
	for _, u := range users {
		m, err := e.rotation.Add(context.Background(), typeID, model.AddRotationMemberRequest{UserID: u.ID})
		require.NoError(t, err)
		out = append(out, m)
	}
	return out
}

// leaders returns the leader id of each service's set, "" when leaderless.
func (e *env) leaders(t *testing.T, svcs ...*model.Service) []string {
	t.Helper()
	out := make([]string, 0, len(svcs))
	for _, svc := range svcs {
		detail, err := e.sets.GetByService(context.Background(), svc.ID)
		require.NoError(t, err)
		if detail.WorshipSet.LeaderID == nil {
			out = append(out, "")
			continue
		}
		out = append(out, *detail.WorshipSet.LeaderID)
	}
	return out
}

func actorOf(u *model.User) service.Actor {
	return service.Actor{UserID: u.ID, Role: u.Role}
}
