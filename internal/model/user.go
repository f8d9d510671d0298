package model

import (
	"strings"
	"time"
)

// UserRole represents the role of a user in the system
type UserRole string

const (
	UserRoleMusician UserRole = "musician" // Default role, plays or sings in sets
	UserRoleLeader   UserRole = "leader"   // Can lead sets, manage songs and the calendar
	UserRoleAdmin    UserRole = "admin"    // Full access including users and rotations
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleMusician, UserRoleLeader, UserRoleAdmin:
		return true
	}
	return false
}

// User represents a user account
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Hash      *string    `json:"-"` // Never expose password hash
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     *string    `json:"phone,omitempty"`
	Role      UserRole   `json:"role"`
	Active    bool       `json:"active"`
	CreatedOn time.Time  `json:"created_on"`
	UpdatedOn time.Time  `json:"updated_on"`
	LoginOn   *time.Time `json:"login_on,omitempty"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// CanLead returns true if the user may lead worship sets
func (u *User) CanLead() bool {
	return u.Role == UserRoleLeader || u.Role == UserRoleAdmin
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// TokenClaims represents extracted JWT claims
type TokenClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
}

// CreateUserRequest is used by admins to provision an account.
type CreateUserRequest struct {
	Email     string   `json:"email" validate:"required,email,max=254"`
	Password  string   `json:"password" validate:"required,min=8,max=128"`
	FirstName string   `json:"first_name" validate:"required,max=100"`
	LastName  string   `json:"last_name" validate:"max=100"`
	Phone     *string  `json:"phone,omitempty" validate:"omitempty,max=32"`
	Role      UserRole `json:"role,omitempty" validate:"omitempty,oneof=musician leader admin"`
}

// UpdateUserRequest is the admin patch for a user.
type UpdateUserRequest struct {
	FirstName *string   `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string   `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone     *string   `json:"phone,omitempty" validate:"omitempty,max=32"`
	Role      *UserRole `json:"role,omitempty" validate:"omitempty,oneof=musician leader admin"`
	Active    *bool     `json:"active,omitempty"`
}

// UpdateProfileRequest is what a user may change about themselves.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// RegisterRequest is self-registration, when enabled.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}
