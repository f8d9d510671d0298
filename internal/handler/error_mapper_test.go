package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/worship/api/internal/authz"
	"github.com/forgo/worship/api/internal/blob"
	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/handler"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

func TestMapServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
		code   model.ErrorCode
	}{
		{service.ErrInvalidCredentials, http.StatusUnauthorized, model.ErrCodeLoginFailed},
		{service.ErrRefreshTokenRevoked, http.StatusUnauthorized, model.ErrCodeTokenInvalid},
		{service.ErrAccountInactive, http.StatusForbidden, model.ErrCodeForbidden},
		{service.ErrNotSetLeader, http.StatusForbidden, model.ErrCodeNotSetOwner},
		{authz.ErrForbidden, http.StatusForbidden, model.ErrCodeForbidden},
		{service.ErrSongNotFound, http.StatusNotFound, model.ErrCodeNotFound},
		{blob.ErrNotFound, http.StatusNotFound, model.ErrCodeNotFound},
		{database.ErrNotFound, http.StatusNotFound, model.ErrCodeNotFound},
		{service.ErrEmailAlreadyExists, http.StatusConflict, model.ErrCodeAlreadyExists},
		{service.ErrRotationEmpty, http.StatusConflict, model.ErrCodeConflict},
		{service.ErrUserUnavailable, http.StatusConflict, model.ErrCodeConflict},
		{database.ErrDuplicate, http.StatusConflict, 0},
		{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, model.ErrCodeTooLarge},
		{service.ErrUnsupportedFileType, http.StatusUnsupportedMediaType, 0},
		{service.ErrInvalidKey, http.StatusUnprocessableEntity, model.ErrCodeValidation},
		{database.ErrConnection, http.StatusServiceUnavailable, 0},
		{service.ErrStorageUnavailable, http.StatusBadGateway, model.ErrCodeExternalAPI},
		{errors.New("boom"), http.StatusInternalServerError, model.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			p := handler.MapServiceError(fmt.Errorf("wrapped: %w", tt.err))
			require.NotNil(t, p)
			assert.Equal(t, tt.status, p.Status)
			if tt.code != 0 {
				assert.Equal(t, tt.code, p.Code)
			}
		})
	}
}

func TestMapServiceError_Nil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, handler.MapServiceError(nil))
}

func TestMapServiceError_InternalHidesDetail(t *testing.T) {
	t.Parallel()
	p := handler.MapServiceError(errors.New("surreal: connection string leaked"))
	assert.NotContains(t, p.Detail, "surreal")
}
