package service

import (
	"context"
	"errors"
	"strings"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const (
	// bcrypt cost factor (10-14 recommended for production)
	bcryptCost = 12

	minPasswordLength = 8
	maxPasswordLength = 128
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo          UserRepository
	tokenService      *TokenService
	allowRegistration bool
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	UserRepo          UserRepository
	TokenService      *TokenService
	AllowRegistration bool
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		userRepo:          cfg.UserRepo,
		tokenService:      cfg.TokenService,
		allowRegistration: cfg.AllowRegistration,
	}
}

// AuthResult is a signed-in user with fresh tokens.
type AuthResult struct {
	User      *model.User `json:"user"`
	TokenPair *TokenPair  `json:"tokens"`
}

// Register creates a musician account and signs it in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*AuthResult, error) {
	if !s.allowRegistration {
		return nil, ErrRegistrationClosed
	}

	user, err := s.newUser(ctx, req.Email, req.Password, req.FirstName, req.LastName, model.UserRoleMusician)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokenService.GenerateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: pair}, nil
}

// newUser validates, hashes and stores a new active account.
func (s *AuthService) newUser(ctx context.Context, email, password, first, last string, role model.UserRole) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     email,
		Hash:      &hash,
		FirstName: strings.TrimSpace(first),
		LastName:  strings.TrimSpace(last),
		Role:      role,
		Active:    true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

// Login authenticates a user with email/password
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil || user.Hash == nil || *user.Hash == "" {
		return nil, ErrInvalidCredentials
	}
	if !checkPassword(req.Password, *user.Hash) {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrAccountInactive
	}

	pair, err := s.tokenService.GenerateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	_ = s.userRepo.TouchLogin(ctx, user.ID)

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// RefreshTokens validates a refresh token and issues new tokens
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.tokenService.lookup(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.Active {
		_ = s.tokenService.RevokeAllUserTokens(ctx, user.ID)
		return nil, ErrAccountInactive
	}

	return s.tokenService.RefreshTokens(ctx, refreshToken, user)
}

// Logout revokes the given refresh token, or every token of the user when empty.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken != "" {
		return s.tokenService.RevokeRefreshToken(ctx, refreshToken)
	}
	return s.tokenService.RevokeAllUserTokens(ctx, userID)
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies the caller's own profile changes.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.Me(ctx, userID)
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
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword changes a user's password and signs out every session.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}

	if user.Hash != nil && *user.Hash != "" {
		if !checkPassword(req.CurrentPassword, *user.Hash) {
			return ErrInvalidCredentials
		}
	}

	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	return s.tokenService.RevokeAllUserTokens(ctx, userID)
}

// Helper functions

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

func isValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	atIndex := strings.Index(email, "@")
	if atIndex < 1 {
		return false
	}
	dotIndex := strings.LastIndex(email, ".")
	if dotIndex < atIndex+2 {
		return false
	}
	return dotIndex < len(email)-1
}
