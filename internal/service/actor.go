package service

import (
	"time"

	"github.com/forgo/worship/api/internal/model"
)

// Actor is the authenticated caller on whose behalf a service method runs.
type Actor struct {
	UserID string
	Role   model.UserRole
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == model.UserRoleAdmin }

// CanLead reports whether the actor may lead sets and curate songs.
func (a Actor) CanLead() bool {
	return a.Role == model.UserRoleLeader || a.Role == model.UserRoleAdmin
}

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// today is the calendar date of now in UTC.
func (c Clock) today() string {
	return c.now().UTC().Format(model.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intPtr(i int) *int {
	if i == 0 {
		return nil
	}
	return &i
}
