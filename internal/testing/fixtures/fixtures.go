// Package fixtures provides test data factories for repository tests.
//
// Each factory method stores an entity through the real SurrealDB
// repositories with sensible defaults, allowing customization via option
// functions.
//
//	tdb := testdb.New(t)
//	f := fixtures.New(tdb.DB)
//	leader := f.CreateUser(t, fixtures.WithRole(model.UserRoleLeader))
//	st := f.CreateServiceType(t)
//	svc := f.CreateService(t, st, "2025-03-09")
package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/repository"
)

// DefaultPassword is the password of every fixture user.
const DefaultPassword = "testpass123"

// Factory creates test entities in the database
type Factory struct {
	db database.Database
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{db: db}
}

func randomID() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Email     string
	FirstName string
	Password  string
	Role      model.UserRole
	Active    bool
}

// WithRole sets the user's role
func WithRole(role model.UserRole) func(*UserOpts) {
	return func(o *UserOpts) { o.Role = role }
}

// WithEmail sets the user's email
func WithEmail(email string) func(*UserOpts) {
	return func(o *UserOpts) { o.Email = email }
}

// Inactive creates a deactivated account
func Inactive() func(*UserOpts) {
	return func(o *UserOpts) { o.Active = false }
}

// CreateUser creates a user with optional customizations
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	id := randomID()
	o := &UserOpts{
		Email:     fmt.Sprintf("user_%s@test.local", id),
		FirstName: "User " + id,
		Password:  DefaultPassword,
		Role:      model.UserRoleMusician,
		Active:    true,
	}
	for _, fn := range opts {
		fn(o)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}
	h := string(hash)
	user := &model.User{
		Email:     o.Email,
		Hash:      &h,
		FirstName: o.FirstName,
		LastName:  "Fixture",
		Role:      o.Role,
		Active:    o.Active,
	}
	if err := repository.NewUserRepository(f.db).Create(ctx(t), user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}
	user.Hash = nil
	return user
}

// CreateLeader creates a worship leader
func (f *Factory) CreateLeader(t *testing.T) *model.User {
	return f.CreateUser(t, WithRole(model.UserRoleLeader))
}

// CreateAdmin creates an admin user
func (f *Factory) CreateAdmin(t *testing.T) *model.User {
	return f.CreateUser(t, WithRole(model.UserRoleAdmin))
}

// ============================================================================
// Calendar Fixtures
// ============================================================================

// CreateServiceType creates a Sunday service type with a random name
func (f *Factory) CreateServiceType(t *testing.T) *model.ServiceType {
	t.Helper()

	sunday := 0
	start := "10:00"
	st := &model.ServiceType{
		Name:             "Service " + randomID(),
		DefaultWeekday:   &sunday,
		DefaultStartTime: &start,
		Active:           true,
	}
	if err := repository.NewServiceTypeRepository(f.db).Create(ctx(t), st); err != nil {
		t.Fatalf("fixtures: failed to create service type: %v", err)
	}
	return st
}

// CreateService schedules a service of st on date at the type's start time
func (f *Factory) CreateService(t *testing.T, st *model.ServiceType, date string) *model.Service {
	t.Helper()
	return f.CreateServiceAt(t, st, date, st.DefaultStartTime)
}

// CreateServiceAt schedules a service of st on date at start
func (f *Factory) CreateServiceAt(t *testing.T, st *model.ServiceType, date string, start *string) *model.Service {
	t.Helper()

	svc := &model.Service{
		ServiceTypeID: st.ID,
		Date:          date,
		StartTime:     start,
		Status:        model.ServiceStatusScheduled,
	}
	if err := repository.NewCalendarRepository(f.db).Create(ctx(t), svc); err != nil {
		t.Fatalf("fixtures: failed to create service: %v", err)
	}
	return svc
}

// CreateWorshipSet creates a draft set for svc. A leader makes it manually
// led; a nil leader leaves it leaderless under the rotation.
func (f *Factory) CreateWorshipSet(t *testing.T, svc *model.Service, leader *model.User) *model.WorshipSet {
	t.Helper()
	if leader == nil {
		return f.createSet(t, svc, nil, model.LeaderSourceRotation)
	}
	return f.createSet(t, svc, &leader.ID, model.LeaderSourceManual)
}

// CreateRotationSet creates a draft set the rotation handed to leader.
func (f *Factory) CreateRotationSet(t *testing.T, svc *model.Service, leader *model.User) *model.WorshipSet {
	t.Helper()
	return f.createSet(t, svc, &leader.ID, model.LeaderSourceRotation)
}

func (f *Factory) createSet(t *testing.T, svc *model.Service, leaderID *string, source model.LeaderSource) *model.WorshipSet {
	t.Helper()

	ws := &model.WorshipSet{
		ServiceID:        svc.ID,
		ServiceTypeID:    svc.ServiceTypeID,
		ServiceDate:      svc.Date,
		ServiceStartTime: svc.StartTime,
		ServiceStatus:    svc.Status,
		LeaderID:         leaderID,
		LeaderSource:     source,
		Status:           model.WorshipSetStatusDraft,
	}
	if err := repository.NewWorshipSetRepository(f.db).Create(ctx(t), ws); err != nil {
		t.Fatalf("fixtures: failed to create worship set: %v", err)
	}
	return ws
}

// CancelService marks svc cancelled and copies the status onto its set.
func (f *Factory) CancelService(t *testing.T, svc *model.Service) {
	t.Helper()

	svc.Status = model.ServiceStatusCancelled
	if err := repository.NewCalendarRepository(f.db).Update(ctx(t), svc); err != nil {
		t.Fatalf("fixtures: failed to cancel service: %v", err)
	}
	if err := repository.NewWorshipSetRepository(f.db).SyncService(ctx(t), svc); err != nil {
		t.Fatalf("fixtures: failed to sync worship set: %v", err)
	}
}

// ============================================================================
// Library Fixtures
// ============================================================================

// CreateSong creates an active song in key
func (f *Factory) CreateSong(t *testing.T, title, key string) *model.Song {
	t.Helper()

	song := &model.Song{Title: title, Tags: []string{}, Active: true}
	if key != "" {
		song.DefaultKey = &key
	}
	if err := repository.NewSongRepository(f.db).Create(ctx(t), song); err != nil {
		t.Fatalf("fixtures: failed to create song: %v", err)
	}
	return song
}

// CreateInstrument creates an instrument with a random name
func (f *Factory) CreateInstrument(t *testing.T) *model.Instrument {
	t.Helper()

	inst := &model.Instrument{Name: "Instrument " + randomID()}
	if err := repository.NewInstrumentRepository(f.db).Create(ctx(t), inst); err != nil {
		t.Fatalf("fixtures: failed to create instrument: %v", err)
	}
	return inst
}
