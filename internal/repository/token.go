package repository

import (
	"context"
	"time"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/service"
	"github.com/google/uuid"
)

// TokenRepository handles refresh token data access
type TokenRepository struct {
	db database.Database
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db database.Database) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateRefreshToken stores a new refresh token
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token *service.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	query := `
		CREATE type::record('refresh_token', $rid) CONTENT {
			user_id: $user_id,
			token_hash: $token_hash,
			expires_at: $expires_at,
			created_at: time::now(),
			revoked: false
		}
	`
	vars := map[string]interface{}{
		"rid":        token.ID,
		"user_id":    token.UserID,
		"token_hash": token.TokenHash,
		"expires_at": datetime(token.ExpiresAt),
	}
	if err := r.db.Execute(ctx, query, vars); err != nil {
		return err
	}
	token.CreatedAt = time.Now()
	return nil
}

// GetRefreshTokenByHash retrieves a refresh token by its hash
func (r *TokenRepository) GetRefreshTokenByHash(ctx context.Context, hash string) (*service.RefreshToken, error) {
	return selectOne[service.RefreshToken](ctx, r.db,
		"SELECT * FROM refresh_token WHERE token_hash = $hash LIMIT 1",
		map[string]interface{}{"hash": hash})
}

// RevokeRefreshToken marks a refresh token as revoked
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, hash string) error {
	return r.db.Execute(ctx,
		"UPDATE refresh_token SET revoked = true WHERE token_hash = $hash",
		map[string]interface{}{"hash": hash})
}

// RevokeAllUserTokens revokes all refresh tokens for a user
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID string) error {
	return r.db.Execute(ctx,
		"UPDATE refresh_token SET revoked = true WHERE user_id = $user_id",
		map[string]interface{}{"user_id": userID})
}

// DeleteExpiredTokens removes expired refresh tokens and reports how many went.
func (r *TokenRepository) DeleteExpiredTokens(ctx context.Context) (int, error) {
	results, err := r.db.Query(ctx, "DELETE refresh_token WHERE expires_at < time::now() RETURN BEFORE", nil)
	if err != nil {
		return 0, err
	}
	return len(database.LastRows(results)), nil
}
