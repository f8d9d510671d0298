package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forgo/worship/api/internal/authz"
	"github.com/forgo/worship/api/internal/blob"
	"github.com/forgo/worship/api/internal/handler"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
	"github.com/forgo/worship/api/internal/testing/helpers"
	"github.com/forgo/worship/api/internal/testing/memstore"
)

// ============================================================================
// Test environment
// ============================================================================

// testNow is a Wednesday; the following Sunday is 2025-03-09.
var testNow = time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type apiEnv struct {
	store  *memstore.Store
	jwt    *helpers.JWTHelper
	router http.Handler
	svc    handler.Services
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()

	store := memstore.New()
	clock := service.Clock(func() time.Time { return testNow })
	store.SetClock(clock)
	jwtHelper := helpers.NewJWTHelper(t)

	var s handler.Services
	s.Tokens = service.NewTokenService(service.TokenServiceConfig{
		JWTService: jwtHelper.Service,
		TokenRepo:  store.Tokens(),
		Clock:      clock,
	})
	s.Auth = service.NewAuthService(service.AuthServiceConfig{
		UserRepo:          store.Users(),
		TokenService:      s.Tokens,
		AllowRegistration: true,
	})
	s.Notifications = service.NewNotificationService(store.Notifications(), store.Users(), nil, clock)
	s.Rotation = service.NewRotationService(service.RotationServiceConfig{
		RotationRepo:    store.Rotation(),
		UserRepo:        store.Users(),
		ServiceTypeRepo: store.ServiceTypes(),
		CalendarRepo:    store.Calendar(),
		WorshipSetRepo:  store.WorshipSets(),
		Clock:           clock,
	})
	s.Users = service.NewUserService(store.Users(), s.Auth, s.Tokens, s.Rotation)
	s.Calendar = service.NewCalendarService(service.CalendarServiceConfig{
		ServiceTypeRepo: store.ServiceTypes(),
		CalendarRepo:    store.Calendar(),
		WorshipSetRepo:  store.WorshipSets(),
		Scheduler:       s.Rotation,
	})
	s.WorshipSets = service.NewWorshipSetService(service.WorshipSetServiceConfig{
		WorshipSetRepo:        store.WorshipSets(),
		SetSongRepo:           store.SetSongs(),
		CalendarRepo:          store.Calendar(),
		SongRepo:              store.Songs(),
		SongVersionRepo:       store.SongVersions(),
		AssignmentRepo:        store.Assignments(),
		DefaultAssignmentRepo: store.Defaults(),
		AvailabilityRepo:      store.Availability(),
		UserRepo:              store.Users(),
		Rotation:              s.Rotation,
		Notifier:              s.Notifications,
		Clock:                 clock,
	})
	s.Songs = service.NewSongService(store.Songs(), store.SongVersions())
	s.ChordSheets = service.NewChordSheetService(service.ChordSheetServiceConfig{
		ChordSheetRepo:  store.ChordSheets(),
		SongRepo:        store.Songs(),
		SongVersionRepo: store.SongVersions(),
		Store:           blob.NewMemory(),
		MaxBytes:        1024,
	})
	s.Instruments = service.NewInstrumentService(store.Instruments())
	s.Assignments = service.NewAssignmentService(service.AssignmentServiceConfig{
		AssignmentRepo:        store.Assignments(),
		DefaultAssignmentRepo: store.Defaults(),
		WorshipSetRepo:        store.WorshipSets(),
		ServiceTypeRepo:       store.ServiceTypes(),
		InstrumentRepo:        store.Instruments(),
		UserRepo:              store.Users(),
		AvailabilityRepo:      store.Availability(),
		Notifier:              s.Notifications,
		Clock:                 clock,
	})
	s.Suggestions = service.NewSuggestionService(service.SuggestionServiceConfig{
		SlotRepo:       store.Slots(),
		SuggestionRepo: store.Suggestions(),
		UserRepo:       store.Users(),
		SongRepo:       store.Songs(),
		WorshipSets:    s.WorshipSets,
		Notifier:       s.Notifications,
		Clock:          clock,
	})
	s.Availability = service.NewAvailabilityService(store.Availability(), clock)
	s.Imports = service.NewImportService(s.Songs, store.Songs(), s.Instruments)
	s.Export = service.NewExportService(service.ExportServiceConfig{
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

	authorizer, err := authz.New()
	require.NoError(t, err)

	return &apiEnv{
		store: store,
		jwt:   jwtHelper,
		svc:   s,
		router: handler.NewRouter(handler.RouterConfig{
			Services:    s,
			Tokens:      jwtHelper,
			Authorizer:  authorizer,
			DB:          stubPinger{},
			Version:     "test",
			MetricsPath: "/metrics",
		}),
	}
}

// ============================================================================
// Seed helpers
// ============================================================================

func (e *apiEnv) user(t *testing.T, first string, role model.UserRole) *model.User {
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

func (e *apiEnv) sundayType(t *testing.T) *model.ServiceType {
	t.Helper()
	sunday := 0
	st, err := e.svc.Calendar.CreateType(context.Background(), model.CreateServiceTypeRequest{
		Name:           "Sunday Morning",
		DefaultWeekday: &sunday,
	})
	require.NoError(t, err)
	return st
}

func (e *apiEnv) service(t *testing.T, typeID, date string) *model.Service {
	t.Helper()
	svc, err := e.svc.Calendar.Create(context.Background(), model.CreateServiceRequest{ServiceTypeID: typeID, Date: date})
	require.NoError(t, err)
	return svc
}

func (e *apiEnv) song(t *testing.T, title string) *model.Song {
	t.Helper()
	key := "G"
	song, err := e.svc.Songs.Create(context.Background(), model.CreateSongRequest{Title: title, DefaultKey: &key})
	require.NoError(t, err)
	return song
}

// do sends req as user; a nil user sends it anonymously.
func (e *apiEnv) do(t *testing.T, rb *helpers.RequestBuilder, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		rb = rb.WithAuth(e.jwt, user)
	}
	return rb.Do(e.router)
}
