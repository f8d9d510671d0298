package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

const testPassword = "hymnal-2025"

func (e *env) register(t *testing.T, email string) *service.AuthResult {
	t.Helper()
	res, err := e.auth.Register(context.Background(), model.RegisterRequest{
		Email:     email,
		Password:  testPassword,
		FirstName: "Ruth",
		LastName:  "Moab",
	})
	require.NoError(t, err)
	return res
}

// ============================================================================
// Registration and login
// ============================================================================

func TestAuth_RegisterCreatesMusician(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	res := e.register(t, "  Ruth@Church.Test ")
	assert.Equal(t, "ruth@church.test", res.User.Email)
	assert.Equal(t, model.UserRoleMusician, res.User.Role)
	assert.True(t, res.User.Active)
	assert.Equal(t, "Bearer", res.TokenPair.TokenType)
	assert.Equal(t, int(time.Hour.Seconds()), res.TokenPair.ExpiresIn)

	claims, err := e.tokens.ValidateAccessToken(res.TokenPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, string(model.UserRoleMusician), claims.Role)
}

func TestAuth_RegisterValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.register(t, "ruth@church.test")

	tests := []struct {
		name string
		req  model.RegisterRequest
		want error
	}{
		{"duplicate email", model.RegisterRequest{Email: "RUTH@church.test", Password: testPassword}, service.ErrEmailAlreadyExists},
		{"bad email", model.RegisterRequest{Email: "ruth", Password: testPassword}, service.ErrInvalidEmail},
		{"short password", model.RegisterRequest{Email: "naomi@church.test", Password: "short"}, service.ErrPasswordTooShort},
		{"no password", model.RegisterRequest{Email: "naomi@church.test"}, service.ErrPasswordRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.auth.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuth_RegistrationClosed(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	closed := service.NewAuthService(service.AuthServiceConfig{UserRepo: e.store.Users(), TokenService: e.tokens})

	_, err := closed.Register(context.Background(), model.RegisterRequest{Email: "ruth@church.test", Password: testPassword})
	assert.ErrorIs(t, err, service.ErrRegistrationClosed)
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	res := e.register(t, "ruth@church.test")

	_, err := e.auth.Login(ctx, model.LoginRequest{Email: "ruth@church.test", Password: "wrong-password"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = e.auth.Login(ctx, model.LoginRequest{Email: "nobody@church.test", Password: testPassword})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	logged, err := e.auth.Login(ctx, model.LoginRequest{Email: "Ruth@church.test", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, logged.User.ID)
	assert.Equal(t, 2, e.store.Tokens().ActiveTokens(res.User.ID))
}

func TestAuth_LoginInactive(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	root := e.user(t, "root", model.UserRoleAdmin)
	res := e.register(t, "ruth@church.test")

	require.NoError(t, e.users.Deactivate(ctx, actorOf(root), res.User.ID))
	assert.Equal(t, 0, e.store.Tokens().ActiveTokens(res.User.ID))

	_, err := e.auth.Login(ctx, model.LoginRequest{Email: "ruth@church.test", Password: testPassword})
	assert.ErrorIs(t, err, service.ErrAccountInactive)
}

// ============================================================================
// Refresh token rotation
// ============================================================================

func TestAuth_RefreshRotatesTokens(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	res := e.register(t, "ruth@church.test")

	pair, err := e.auth.RefreshTokens(ctx, res.TokenPair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.TokenPair.RefreshToken, pair.RefreshToken)
	assert.Equal(t, 1, e.store.Tokens().ActiveTokens(res.User.ID))

	_, err = e.auth.RefreshTokens(ctx, "not-a-token")
	assert.ErrorIs(t, err, service.ErrInvalidRefreshToken)
}

func TestAuth_RefreshReuseRevokesEverything(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	res := e.register(t, "ruth@church.test")

	_, err := e.auth.RefreshTokens(ctx, res.TokenPair.RefreshToken)
	require.NoError(t, err)

	_, err = e.auth.RefreshTokens(ctx, res.TokenPair.RefreshToken)
	assert.ErrorIs(t, err, service.ErrRefreshTokenRevoked)
	assert.Equal(t, 0, e.store.Tokens().ActiveTokens(res.User.ID))
}

func TestAuth_RefreshExpired(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	res := e.register(t, "ruth@church.test")

	e.advance(31 * 24 * time.Hour)
	_, err := e.auth.RefreshTokens(context.Background(), res.TokenPair.RefreshToken)
	assert.ErrorIs(t, err, service.ErrRefreshTokenExpired)

	n, err := e.tokens.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAuth_Logout(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	res := e.register(t, "ruth@church.test")
	_, err := e.auth.Login(ctx, model.LoginRequest{Email: "ruth@church.test", Password: testPassword})
	require.NoError(t, err)

	require.NoError(t, e.auth.Logout(ctx, res.User.ID, res.TokenPair.RefreshToken))
	assert.Equal(t, 1, e.store.Tokens().ActiveTokens(res.User.ID))

	require.NoError(t, e.auth.Logout(ctx, res.User.ID, ""))
	assert.Equal(t, 0, e.store.Tokens().ActiveTokens(res.User.ID))
}

// ============================================================================
// Account management
// ============================================================================

func TestAuth_ChangePassword(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	res := e.register(t, "ruth@church.test")

	err := e.auth.ChangePassword(ctx, res.User.ID, model.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "another-secret"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	require.NoError(t, e.auth.ChangePassword(ctx, res.User.ID, model.ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "another-secret"}))
	assert.Equal(t, 0, e.store.Tokens().ActiveTokens(res.User.ID))

	_, err = e.auth.Login(ctx, model.LoginRequest{Email: "ruth@church.test", Password: "another-secret"})
	assert.NoError(t, err)
}

func TestUser_AdminManagement(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	root := e.user(t, "root", model.UserRoleAdmin)

	created, err := e.users.Create(ctx, model.CreateUserRequest{Email: "boaz@church.test", Password: testPassword, FirstName: "Boaz"})
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleMusician, created.Role)

	leader := model.UserRoleLeader
	updated, err := e.users.Update(ctx, actorOf(root), created.ID, model.UpdateUserRequest{Role: &leader})
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleLeader, updated.Role)

	assert.ErrorIs(t, e.users.Deactivate(ctx, actorOf(root), root.ID), service.ErrCannotDeactivateSelf)

	require.NoError(t, e.users.Deactivate(ctx, actorOf(root), created.ID))
	active, err := e.users.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	all, err := e.users.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
