package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/pkg/jwt"
)

// RefreshToken represents a stored refresh token
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `json:"revoked"`
}

// TokenService handles JWT and refresh token operations
type TokenService struct {
	jwtService      *jwt.Service
	tokenRepo       TokenRepository
	refreshDuration time.Duration
	clock           Clock
}

// TokenServiceConfig holds configuration for the token service
type TokenServiceConfig struct {
	JWTService      *jwt.Service
	TokenRepo       TokenRepository
	RefreshDuration time.Duration // Default: 30 days
	Clock           Clock
}

// NewTokenService creates a new token service
func NewTokenService(cfg TokenServiceConfig) *TokenService {
	if cfg.RefreshDuration == 0 {
		cfg.RefreshDuration = 30 * 24 * time.Hour
	}

	return &TokenService{
		jwtService:      cfg.JWTService,
		tokenRepo:       cfg.TokenRepo,
		refreshDuration: cfg.RefreshDuration,
		clock:           cfg.Clock,
	}
}

// TokenPair represents an access token and refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}

// GenerateTokenPair creates a new access token and refresh token for a user
func (s *TokenService) GenerateTokenPair(ctx context.Context, user *model.User) (*TokenPair, error) {
	accessToken, err := s.jwtService.Sign(jwt.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		return nil, err
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.now()
	stored := &RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: now.Add(s.refreshDuration),
		CreatedAt: now,
	}
	if err := s.tokenRepo.CreateRefreshToken(ctx, stored); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.jwtService.GetExpiration().Seconds()),
	}, nil
}

// lookup returns the stored token for a raw refresh token, checking reuse and expiry.
// Presenting a revoked token revokes every token of its user.
func (s *TokenService) lookup(ctx context.Context, refreshToken string) (*RefreshToken, error) {
	stored, err := s.tokenRepo.GetRefreshTokenByHash(ctx, hashToken(refreshToken))
	if err != nil || stored == nil {
		return nil, ErrInvalidRefreshToken
	}

	if stored.Revoked {
		slog.WarnContext(ctx, "refresh token reuse detected", slog.String("user_id", stored.UserID))
		_ = s.tokenRepo.RevokeAllUserTokens(ctx, stored.UserID)
		return nil, ErrRefreshTokenRevoked
	}

	if s.clock.now().After(stored.ExpiresAt) {
		return nil, ErrRefreshTokenExpired
	}
	return stored, nil
}

// RefreshTokens revokes the presented token and issues a new pair (single-use rotation).
func (s *TokenService) RefreshTokens(ctx context.Context, refreshToken string, user *model.User) (*TokenPair, error) {
	if err := s.tokenRepo.RevokeRefreshToken(ctx, hashToken(refreshToken)); err != nil {
		return nil, err
	}
	return s.GenerateTokenPair(ctx, user)
}

// ValidateAccessToken validates an access token and returns the claims
func (s *TokenService) ValidateAccessToken(token string) (*jwt.Claims, error) {
	return s.jwtService.Validate(token)
}

// RevokeRefreshToken revokes one refresh token. Unknown tokens are ignored.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return s.tokenRepo.RevokeRefreshToken(ctx, hashToken(refreshToken))
}

// RevokeAllUserTokens revokes all refresh tokens for a user (logout from all devices)
func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID string) error {
	return s.tokenRepo.RevokeAllUserTokens(ctx, userID)
}

// CleanupExpired deletes expired refresh tokens.
func (s *TokenService) CleanupExpired(ctx context.Context) (int, error) {
	return s.tokenRepo.DeleteExpiredTokens(ctx)
}

// generateRefreshToken creates a cryptographically secure random token
func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
