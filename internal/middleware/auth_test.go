package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/worship/api/internal/authz"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
	"github.com/forgo/worship/api/pkg/jwt"
)

// ============================================================================
// Mock TokenValidator
// ============================================================================

type mockValidator struct {
	validateFunc func(token string) (*jwt.Claims, error)
}

func (m *mockValidator) ValidateAccessToken(token string) (*jwt.Claims, error) {
	return m.validateFunc(token)
}

// successValidator returns valid claims for any token
func successValidator(userID, role string) *mockValidator {
	return &mockValidator{
		validateFunc: func(token string) (*jwt.Claims, error) {
			return &jwt.Claims{UserID: userID, Email: userID + "@example.com", Role: role}, nil
		},
	}
}

// errorValidator returns the specified error
func errorValidator(err error) *mockValidator {
	return &mockValidator{
		validateFunc: func(token string) (*jwt.Claims, error) {
			return nil, err
		},
	}
}

// ============================================================================
// Test Helpers
// ============================================================================

func newTestRequest(authHeader string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

// captureHandler captures the request context for inspection
type captureHandler struct {
	called bool
	ctx    context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	var p model.ProblemDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	return p
}

// ============================================================================
// Auth() Middleware Tests
// ============================================================================

func TestAuth_RejectsMalformedHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"no bearer prefix", "token-only"},
		{"only bearer", "Bearer"},
		{"empty token", "Bearer "},
		{"basic scheme", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next := &captureHandler{}
			rr := httptest.NewRecorder()
			Auth(successValidator("u1", "musician"))(next).ServeHTTP(rr, newTestRequest(tt.header))

			assert.False(t, next.called)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, model.ErrCodeUnauthorized, decodeProblem(t, rr).Code)
		})
	}
}

func TestAuth_ValidToken_SetsClaims(t *testing.T) {
	t.Parallel()

	next := &captureHandler{}
	rr := httptest.NewRecorder()
	Auth(successValidator("user-123", "leader"))(next).ServeHTTP(rr, newTestRequest("bearer abc"))

	require.True(t, next.called)
	assert.Equal(t, "user-123", GetUserID(next.ctx))
	claims := GetClaims(next.ctx)
	require.NotNil(t, claims)
	assert.Equal(t, "user-123@example.com", claims.Email)
	assert.Equal(t, service.Actor{UserID: "user-123", Role: model.UserRoleLeader}, GetActor(next.ctx))
}

func TestAuth_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code model.ErrorCode
	}{
		{"expired", jwt.ErrTokenExpired, model.ErrCodeTokenExpired},
		{"wrapped expired", errors.Join(errors.New("x"), jwt.ErrTokenExpired), model.ErrCodeTokenExpired},
		{"bad signature", jwt.ErrInvalidSignature, model.ErrCodeUnauthorized},
		{"other", errors.New("boom"), model.ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next := &captureHandler{}
			rr := httptest.NewRecorder()
			Auth(errorValidator(tt.err))(next).ServeHTTP(rr, newTestRequest("Bearer tok"))

			assert.False(t, next.called)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, tt.code, decodeProblem(t, rr).Code)
		})
	}
}

// ============================================================================
// Require() Tests
// ============================================================================

func TestRequire_RoleGuards(t *testing.T) {
	t.Parallel()

	authorizer, err := authz.New()
	require.NoError(t, err)

	tests := []struct {
		name     string
		role     string
		resource string
		action   string
		want     int
	}{
		{"musician reads songs", "musician", authz.ResourceSongs, authz.ActionRead, http.StatusOK},
		{"musician cannot write songs", "musician", authz.ResourceSongs, authz.ActionWrite, http.StatusForbidden},
		{"leader writes songs", "leader", authz.ResourceSongs, authz.ActionWrite, http.StatusOK},
		{"leader inherits musician reads", "leader", authz.ResourceInstruments, authz.ActionRead, http.StatusOK},
		{"leader cannot manage rotation", "leader", authz.ResourceRotation, authz.ActionWrite, http.StatusForbidden},
		{"admin manages rotation", "admin", authz.ResourceRotation, authz.ActionWrite, http.StatusOK},
		{"unknown role", "guest", authz.ResourceSongs, authz.ActionRead, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next := &captureHandler{}
			h := Chain(next, Auth(successValidator("u1", tt.role)), Require(authorizer, tt.resource, tt.action))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, newTestRequest("Bearer tok"))

			assert.Equal(t, tt.want, rr.Code)
			assert.Equal(t, tt.want == http.StatusOK, next.called)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, model.ErrCodeRoleMissing, decodeProblem(t, rr).Code)
			}
		})
	}
}

func TestRequire_WithoutAuth_Unauthorized(t *testing.T) {
	t.Parallel()

	authorizer, err := authz.New()
	require.NoError(t, err)

	next := &captureHandler{}
	rr := httptest.NewRecorder()
	Require(authorizer, authz.ResourceSongs, authz.ActionRead)(next).ServeHTTP(rr, newTestRequest(""))

	assert.False(t, next.called)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// ============================================================================
// Context accessor Tests
// ============================================================================

func TestContextAccessors_Missing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, GetUserID(ctx))
	assert.Nil(t, GetClaims(ctx))
	assert.Equal(t, service.Actor{}, GetActor(ctx))

	ctx = context.WithValue(ctx, ClaimsKey, "not-claims")
	assert.Nil(t, GetClaims(ctx))
}
