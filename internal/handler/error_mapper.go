package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/forgo/worship/api/internal/authz"
	"github.com/forgo/worship/api/internal/blob"
	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/middleware"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials):
		p := model.NewUnauthorizedError(err.Error())
		p.Code = model.ErrCodeLoginFailed
		return p
	case errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenExpired),
		errors.Is(err, service.ErrRefreshTokenRevoked):
		p := model.NewUnauthorizedError(err.Error())
		p.Code = model.ErrCodeTokenInvalid
		return p

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrAccountInactive),
		errors.Is(err, service.ErrRegistrationClosed),
		errors.Is(err, service.ErrForbidden),
		errors.Is(err, authz.ErrForbidden),
		errors.Is(err, service.ErrNotAssignee),
		errors.Is(err, service.ErrNotSlotOwner):
		return model.NewForbiddenError(err.Error())
	case errors.Is(err, service.ErrNotSetLeader):
		p := model.NewForbiddenError(err.Error())
		p.Code = model.ErrCodeNotSetOwner
		return p

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrServiceTypeNotFound):
		return model.NewNotFoundError("service type")
	case errors.Is(err, service.ErrServiceNotFound):
		return model.NewNotFoundError("service")
	case errors.Is(err, service.ErrWorshipSetNotFound):
		return model.NewNotFoundError("worship set")
	case errors.Is(err, service.ErrSetSongNotFound):
		return model.NewNotFoundError("set song")
	case errors.Is(err, service.ErrSongNotFound):
		return model.NewNotFoundError("song")
	case errors.Is(err, service.ErrSongVersionNotFound):
		return model.NewNotFoundError("song version")
	case errors.Is(err, service.ErrChordSheetNotFound),
		errors.Is(err, blob.ErrNotFound):
		return model.NewNotFoundError("chord sheet")
	case errors.Is(err, service.ErrInstrumentNotFound):
		return model.NewNotFoundError("instrument")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return model.NewNotFoundError("assignment")
	case errors.Is(err, service.ErrDefaultAssignmentNotFound):
		return model.NewNotFoundError("default assignment")
	case errors.Is(err, service.ErrRotationMemberNotFound):
		return model.NewNotFoundError("rotation member")
	case errors.Is(err, service.ErrSlotNotFound):
		return model.NewNotFoundError("suggestion slot")
	case errors.Is(err, service.ErrSuggestionNotFound):
		return model.NewNotFoundError("suggestion")
	case errors.Is(err, service.ErrAvailabilityNotFound):
		return model.NewNotFoundError("availability")
	case errors.Is(err, database.ErrNotFound):
		return model.NewNotFoundError("record")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, service.ErrServiceTypeExists),
		errors.Is(err, service.ErrWorshipSetExists),
		errors.Is(err, service.ErrInstrumentExists),
		errors.Is(err, service.ErrAlreadyAssigned),
		errors.Is(err, service.ErrAlreadyInRotation),
		errors.Is(err, service.ErrAlreadyUnavailable),
		errors.Is(err, service.ErrSuggestionAccepted),
		errors.Is(err, service.ErrAlreadyPublished):
		p := model.NewConflictError(err.Error())
		p.Code = model.ErrCodeAlreadyExists
		return p
	case errors.Is(err, service.ErrServiceTypeInUse),
		errors.Is(err, service.ErrServiceCancelled),
		errors.Is(err, service.ErrServiceTypeInactive),
		errors.Is(err, service.ErrSongInactive),
		errors.Is(err, service.ErrSlotClosed),
		errors.Is(err, service.ErrRotationEmpty),
		errors.Is(err, service.ErrUserUnavailable),
		errors.Is(err, database.ErrDuplicate):
		return model.NewConflictError(err.Error())

	// ===== Upload Errors → 413 / 415 =====
	case errors.Is(err, service.ErrFileTooLarge):
		p := model.NewPayloadTooLargeError(0)
		p.Detail = err.Error()
		return p
	case errors.Is(err, service.ErrUnsupportedFileType):
		p := model.NewUnsupportedMediaTypeError("")
		p.Detail = err.Error()
		return p

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrInvalidEmail):
		return model.NewFieldError("email", err.Error())
	case errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordTooLong):
		return model.NewFieldError("password", err.Error())
	case errors.Is(err, service.ErrCannotDeactivateSelf):
		return model.NewFieldError("active", err.Error())
	case errors.Is(err, service.ErrInvalidDate):
		return model.NewFieldError("date", err.Error())
	case errors.Is(err, service.ErrInvalidDateRange):
		return model.NewFieldError("to", err.Error())
	case errors.Is(err, service.ErrNoDefaultWeekday):
		return model.NewFieldError("default_weekday", err.Error())
	case errors.Is(err, service.ErrLeaderNotEligible):
		return model.NewFieldError("leader_id", err.Error())
	case errors.Is(err, service.ErrInvalidSetOrder):
		return model.NewFieldError("set_song_ids", err.Error())
	case errors.Is(err, service.ErrInvalidRotationOrder):
		return model.NewFieldError("member_ids", err.Error())
	case errors.Is(err, service.ErrVersionSongMismatch):
		return model.NewFieldError("song_version_id", err.Error())
	case errors.Is(err, service.ErrInvalidKey),
		errors.Is(err, service.ErrSourceKeyUnknown):
		return model.NewFieldError("key", err.Error())
	case errors.Is(err, service.ErrNoChordChart):
		return model.NewFieldError("chord_chart", err.Error())
	case errors.Is(err, service.ErrInvalidLibrary):
		return model.NewFieldError("file", err.Error())
	case errors.Is(err, service.ErrEmptyFile):
		return model.NewFieldError("file", err.Error())
	case errors.Is(err, service.ErrDueDateInPast):
		return model.NewFieldError("due_at", err.Error())
	case errors.Is(err, service.ErrSlotFull):
		return model.NewFieldError("song_id", err.Error())
	case errors.Is(err, service.ErrTooFewSuggestions):
		return model.NewFieldError("suggestions", err.Error())

	// ===== Infrastructure → 502/503 =====
	case errors.Is(err, database.ErrConnection):
		return model.NewServiceUnavailableError("database unavailable")
	case errors.Is(err, service.ErrStorageUnavailable):
		return model.NewBadGatewayError(service.ErrStorageUnavailable.Error())

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// writeServiceError maps err and writes it. Unmapped errors are logged since
// the client only sees a generic 500.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	p := MapServiceError(err)
	if p.Status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(ctx)),
		)
	}
	WriteError(w, p)
}
