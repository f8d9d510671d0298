package jobs_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/forgo/worship/api/internal/jobs"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
	"github.com/forgo/worship/api/internal/testing/memstore"
	"github.com/forgo/worship/api/pkg/jwt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ============================================================================
// Test environment
// ============================================================================

// testNow is a Wednesday; the following Sunday is 2025-03-09.
var testNow = time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)

type env struct {
	mu    sync.Mutex
	now   time.Time
	store *memstore.Store
	clock service.Clock

	notifier    *service.NotificationService
	sets        *service.WorshipSetService
	assignments *service.AssignmentService
	suggestions *service.SuggestionService
	instruments *service.InstrumentService
	reminders   *service.ReminderService
	tokens      *service.TokenService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{now: testNow, store: memstore.New()}
	e.clock = func() time.Time {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.now
	}
	store := e.store
	store.SetClock(e.clock)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	e.tokens = service.NewTokenService(service.TokenServiceConfig{
		JWTService:      jwt.NewTestService(key, "worship-test", time.Hour),
		TokenRepo:       store.Tokens(),
		RefreshDuration: 24 * time.Hour,
		Clock:           e.clock,
	})
	e.notifier = service.NewNotificationService(store.Notifications(), store.Users(), nil, e.clock)
	rotation := service.NewRotationService(service.RotationServiceConfig{
		RotationRepo:    store.Rotation(),
		UserRepo:        store.Users(),
		ServiceTypeRepo: store.ServiceTypes(),
		CalendarRepo:    store.Calendar(),
		WorshipSetRepo:  store.WorshipSets(),
		Clock:           e.clock,
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
		Rotation:              rotation,
		Notifier:              e.notifier,
		Clock:                 e.clock,
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
		Clock:                 e.clock,
	})
	e.suggestions = service.NewSuggestionService(service.SuggestionServiceConfig{
		SlotRepo:       store.Slots(),
		SuggestionRepo: store.Suggestions(),
		UserRepo:       store.Users(),
		SongRepo:       store.Songs(),
		WorshipSets:    e.sets,
		Notifier:       e.notifier,
		Clock:          e.clock,
	})
	e.reminders = service.NewReminderService(store.Assignments(), store.Slots(), e.clock)
	return e
}

func (e *env) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

func (e *env) user(t *testing.T, first string, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{Email: first + "@church.test", FirstName: first, Role: role, Active: true}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

// scheduledSet creates the set for Sunday 2025-03-09 led by leader.
func (e *env) scheduledSet(t *testing.T, leader *model.User) string {
	t.Helper()
	ctx := context.Background()
	st := &model.ServiceType{Name: "Sunday Morning", Active: true}
	require.NoError(t, e.store.ServiceTypes().Create(ctx, st))
	svc := &model.Service{ServiceTypeID: st.ID, Date: "2025-03-09"}
	require.NoError(t, e.store.Calendar().Create(ctx, svc))
	detail, err := e.sets.Create(ctx, svc.ID, model.CreateWorshipSetRequest{LeaderID: &leader.ID})
	require.NoError(t, err)
	return detail.WorshipSet.ID
}

func countReminders(t *testing.T, e *env, userID string) int {
	t.Helper()
	logs, err := e.notifier.List(context.Background(), userID, 200)
	require.NoError(t, err)
	n := 0
	for _, l := range logs {
		if l.Type == model.NotificationReminder {
			n++
		}
	}
	return n
}

// ============================================================================
// ReminderProcessor
// ============================================================================

func TestReminderProcessor_SendsOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "Ada", model.UserRoleAdmin)
	musicians := []*model.User{
		e.user(t, "Bo", model.UserRoleMusician),
		e.user(t, "Cy", model.UserRoleMusician),
		e.user(t, "Di", model.UserRoleMusician),
	}
	setID := e.scheduledSet(t, admin)

	inst, err := e.instruments.Create(ctx, model.CreateInstrumentRequest{Name: "Vocals"})
	require.NoError(t, err)
	for _, m := range musicians {
		_, err := e.assignments.Create(ctx, service.Actor{UserID: admin.ID, Role: admin.Role}, setID,
			model.CreateAssignmentRequest{InstrumentID: inst.ID, UserID: m.ID})
		require.NoError(t, err)
	}

	p := jobs.NewReminderProcessor(jobs.ReminderConfig{
		Reminders:   e.reminders,
		Notifier:    e.notifier,
		Lead:        7 * 24 * time.Hour,
		Concurrency: 2,
	})
	require.NoError(t, p.RunOnce(ctx))
	require.NoError(t, p.RunOnce(ctx))

	for _, m := range musicians {
		assert.Equal(t, 1, countReminders(t, e, m.ID), m.FirstName)
	}
}

func TestReminderProcessor_OutsideLead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "Ed", model.UserRoleAdmin)
	musician := e.user(t, "Flo", model.UserRoleMusician)
	setID := e.scheduledSet(t, admin)

	inst, err := e.instruments.Create(ctx, model.CreateInstrumentRequest{Name: "Bass"})
	require.NoError(t, err)
	_, err = e.assignments.Create(ctx, service.Actor{UserID: admin.ID, Role: admin.Role}, setID,
		model.CreateAssignmentRequest{InstrumentID: inst.ID, UserID: musician.ID})
	require.NoError(t, err)

	p := jobs.NewReminderProcessor(jobs.ReminderConfig{Reminders: e.reminders, Notifier: e.notifier, Lead: 24 * time.Hour})
	require.NoError(t, p.RunOnce(ctx))
	assert.Zero(t, countReminders(t, e, musician.ID))
}

// ============================================================================
// SlotExpirer
// ============================================================================

func TestSlotExpirer_RunOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "Gus", model.UserRoleAdmin)
	musician := e.user(t, "Hal", model.UserRoleMusician)
	setID := e.scheduledSet(t, admin)

	slot, err := e.suggestions.CreateSlot(ctx, service.Actor{UserID: admin.ID, Role: admin.Role}, setID,
		model.CreateSuggestionSlotRequest{UserID: musician.ID, DueAt: testNow.Add(time.Hour), MinSongs: 1, MaxSongs: 2})
	require.NoError(t, err)

	x := jobs.NewSlotExpirer(e.suggestions, 0, 0)
	require.NoError(t, x.RunOnce(ctx))
	got, err := e.suggestions.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusPending, got.Status)

	e.advance(2 * time.Hour)
	require.NoError(t, x.RunOnce(ctx))
	got, err = e.suggestions.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusExpired, got.Status)
}

// ============================================================================
// TokenCleanup
// ============================================================================

func TestTokenCleanup_RunOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "Ida", model.UserRoleMusician)

	_, err := e.tokens.GenerateTokenPair(ctx, u)
	require.NoError(t, err)

	c := jobs.NewTokenCleanup(e.tokens, 0, 0)
	e.advance(48 * time.Hour)
	_, err = e.tokens.GenerateTokenPair(ctx, u)
	require.NoError(t, err)
	require.NoError(t, c.RunOnce(ctx))

	// Only the second token is left to expire.
	e.advance(48 * time.Hour)
	n, err := e.tokens.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// ============================================================================
// Lifecycle
// ============================================================================

func TestJobs_StartStop(t *testing.T) {
	e := newEnv(t)

	lifecycles := map[string]interface {
		Start()
		Stop()
		IsRunning() bool
	}{
		"reminders":     jobs.NewReminderProcessor(jobs.ReminderConfig{Reminders: e.reminders, Notifier: e.notifier, Interval: 10 * time.Millisecond}),
		"slot_expirer":  jobs.NewSlotExpirer(e.suggestions, 10*time.Millisecond, 0),
		"token_cleanup": jobs.NewTokenCleanup(e.tokens, 10*time.Millisecond, time.Hour),
	}

	for name, job := range lifecycles {
		t.Run(name, func(t *testing.T) {
			assert.False(t, job.IsRunning())
			job.Stop() // no-op when idle

			job.Start()
			job.Start()
			assert.True(t, job.IsRunning())
			time.Sleep(30 * time.Millisecond)
			job.Stop()
			assert.False(t, job.IsRunning())

			// A stopped job can be started again.
			job.Start()
			job.Stop()
			assert.False(t, job.IsRunning())
		})
	}
}
