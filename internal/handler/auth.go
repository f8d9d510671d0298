package handler

import (
	"net/http"

	"github.com/forgo/worship/api/internal/middleware"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// logoutRequest optionally names the refresh token to revoke.
type logoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

var meLinks = map[string]string{"self": "/v1/auth/me"}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	WriteData(w, http.StatusCreated, result, meLinks)
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	WriteData(w, http.StatusOK, result, meLinks)
}

// Refresh handles POST /v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tokenPair, err := h.authService.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	WriteData(w, http.StatusOK, tokenPair, nil)
}

// Logout handles POST /v1/auth/logout. Without a body every session of the
// caller is revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if r.ContentLength != 0 {
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, model.NewBadRequestError("invalid request body"))
			return
		}
	}

	if err := h.authService.Logout(r.Context(), middleware.GetUserID(r.Context()), req.RefreshToken); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	WriteNoContent(w)
}

// Me handles GET /v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	WriteData(w, http.StatusOK, user, meLinks)
}

// UpdateMe handles PATCH /v1/auth/me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	WriteData(w, http.StatusOK, user, meLinks)
}

// ChangePassword handles POST /v1/auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req model.ChangePasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), middleware.GetUserID(r.Context()), req); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	WriteNoContent(w)
}
