package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/forgo/worship/api/internal/model"
)

// RotationLeaver takes a user out of every leader rotation.
type RotationLeaver interface {
	RemoveUser(ctx context.Context, userID string) error
}

// UserService is the admin view of accounts.
type UserService struct {
	users    UserRepository
	auth     *AuthService
	tokens   *TokenService
	rotation RotationLeaver
}

// NewUserService creates a new user service. It reuses the auth service for
// account creation so both paths hash and validate the same way. rotation
// may be nil.
func NewUserService(users UserRepository, auth *AuthService, tokens *TokenService, rotation RotationLeaver) *UserService {
	return &UserService{users: users, auth: auth, tokens: tokens, rotation: rotation}
}

func (s *UserService) List(ctx context.Context, includeInactive bool) ([]*model.User, error) {
	return s.users.List(ctx, includeInactive)
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Create provisions an account with an initial password.
func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	role := req.Role
	if role == "" {
		role = model.UserRoleMusician
	}
	user, err := s.auth.newUser(ctx, req.Email, req.Password, req.FirstName, req.LastName, role)
	if err != nil {
		return nil, err
	}
	if req.Phone != nil {
		user.Phone = stringPtr(strings.TrimSpace(*req.Phone))
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Update applies an admin patch. Deactivating a user revokes their sessions.
// A user who can no longer lead, through deactivation or a role below
// leader, leaves every rotation.
func (s *UserService) Update(ctx context.Context, actor Actor, id string, req model.UpdateUserRequest) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		user.Phone = stringPtr(strings.TrimSpace(*req.Phone))
	}
	couldLead := user.Active && user.CanLead()
	if req.Role != nil {
		user.Role = *req.Role
	}
	deactivated := false
	if req.Active != nil {
		if !*req.Active && id == actor.UserID {
			return nil, ErrCannotDeactivateSelf
		}
		deactivated = user.Active && !*req.Active
		user.Active = *req.Active
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if deactivated {
		if err := s.tokens.RevokeAllUserTokens(ctx, id); err != nil {
			return nil, err
		}
	}
	if couldLead && !(user.Active && user.CanLead()) && s.rotation != nil {
		if err := s.rotation.RemoveUser(ctx, id); err != nil {
			slog.ErrorContext(ctx, "failed to remove user from rotations",
				slog.String("user_id", id),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
	}
	return user, nil
}

// Deactivate is Update with active=false.
func (s *UserService) Deactivate(ctx context.Context, actor Actor, id string) error {
	inactive := false
	_, err := s.Update(ctx, actor, id, model.UpdateUserRequest{Active: &inactive})
	return err
}
