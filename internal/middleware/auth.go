package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/forgo/worship/api/internal/metrics"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
	"github.com/forgo/worship/api/pkg/jwt"
)

// TokenValidator defines the interface for access token validation
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// Authorizer decides whether a role may perform an action on a resource.
type Authorizer interface {
	Authorize(ctx context.Context, role, resource, action string) error
}

// ClaimsKey is the context key for JWT claims
const ClaimsKey contextKey = "claims"

// Auth returns a middleware that validates bearer tokens
func Auth(tokens TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				model.NewUnauthorizedError("missing or malformed authorization header").WriteJSON(w)
				return
			}

			claims, err := tokens.ValidateAccessToken(token)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					model.NewTokenExpiredError().WriteJSON(w)
				case errors.Is(err, jwt.ErrInvalidSignature):
					model.NewUnauthorizedError("invalid token signature").WriteJSON(w)
				default:
					model.NewUnauthorizedError("invalid token").WriteJSON(w)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// Require returns a middleware that lets the request through only when the
// caller's role is granted action on resource. It must run after Auth.
func Require(authz Authorizer, resource, action string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				model.NewUnauthorizedError("authentication required").WriteJSON(w)
				return
			}

			err := authz.Authorize(r.Context(), claims.Role, resource, action)
			metrics.RecordAuthz(resource, err == nil)
			if err != nil {
				p := model.NewForbiddenError("your role may not " + action + " " + strings.ReplaceAll(resource, "_", " "))
				p.Code = model.ErrCodeRoleMissing
				p.WriteJSON(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// WithClaims stores verified claims on ctx.
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims extracts the JWT claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

// GetActor returns the authenticated caller as a service actor.
func GetActor(ctx context.Context) service.Actor {
	claims := GetClaims(ctx)
	if claims == nil {
		return service.Actor{}
	}
	return service.Actor{UserID: claims.UserID, Role: model.UserRole(claims.Role)}
}
