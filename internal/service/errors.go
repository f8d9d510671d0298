package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here so that
// handler.MapServiceError can translate them with a single switch.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailAlreadyExists   = errors.New("email already registered")
	ErrUserNotFound         = errors.New("user not found")
	ErrPasswordRequired     = errors.New("password is required")
	ErrPasswordTooShort     = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong      = errors.New("password must be at most 128 characters")
	ErrInvalidEmail         = errors.New("invalid email format")
	ErrAccountInactive      = errors.New("account is deactivated")
	ErrRegistrationClosed   = errors.New("self registration is disabled")
	ErrCannotDeactivateSelf = errors.New("cannot deactivate your own account")
)

// ===== Token Errors =====
var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)

// ===== Authorization Errors =====
var (
	ErrForbidden    = errors.New("not authorized to perform this action")
	ErrNotSetLeader = errors.New("only the set leader or an admin may change this worship set")
)

// ===== Calendar Errors =====
var (
	ErrServiceTypeNotFound = errors.New("service type not found")
	ErrServiceTypeExists   = errors.New("a service type with this name already exists")
	ErrServiceTypeInUse    = errors.New("service type still has scheduled services")
	ErrServiceTypeInactive = errors.New("service type is inactive")
	ErrServiceNotFound     = errors.New("service not found")
	ErrNoDefaultWeekday    = errors.New("service type has no default weekday")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrInvalidDate         = errors.New("invalid date, expected YYYY-MM-DD")
)

// ===== Worship Set Errors =====
var (
	ErrWorshipSetNotFound = errors.New("worship set not found")
	ErrWorshipSetExists   = errors.New("service already has a worship set")
	ErrServiceCancelled   = errors.New("service is cancelled")
	ErrSetSongNotFound    = errors.New("set song not found")
	ErrInvalidSetOrder    = errors.New("order must list every song of the set exactly once")
	ErrLeaderNotEligible  = errors.New("user cannot lead worship")
	ErrAlreadyPublished   = errors.New("worship set is already published")
)

// ===== Song Errors =====
var (
	ErrSongNotFound        = errors.New("song not found")
	ErrSongInactive        = errors.New("song is inactive")
	ErrSongVersionNotFound = errors.New("song version not found")
	ErrVersionSongMismatch = errors.New("version does not belong to this song")
	ErrNoChordChart        = errors.New("version has no chord chart")
	ErrSourceKeyUnknown    = errors.New("version has no key to transpose from")
	ErrInvalidKey          = errors.New("unknown musical key")
	ErrInvalidLibrary      = errors.New("invalid song library file")
)

// ===== Chord Sheet Errors =====
var (
	ErrChordSheetNotFound  = errors.New("chord sheet not found")
	ErrFileTooLarge        = errors.New("file exceeds the upload limit")
	ErrEmptyFile           = errors.New("file is empty")
	ErrUnsupportedFileType = errors.New("file type not accepted")
	ErrStorageUnavailable  = errors.New("file storage is unavailable")
)

// ===== Team Errors =====
var (
	ErrInstrumentNotFound        = errors.New("instrument not found")
	ErrInstrumentExists          = errors.New("an instrument with this name already exists")
	ErrAssignmentNotFound        = errors.New("assignment not found")
	ErrAlreadyAssigned           = errors.New("user is already assigned to this instrument")
	ErrUserUnavailable           = errors.New("user is unavailable on the service date")
	ErrNotAssignee               = errors.New("only the assigned user may respond")
	ErrDefaultAssignmentNotFound = errors.New("default assignment not found")
)

// ===== Rotation Errors =====
var (
	ErrRotationEmpty          = errors.New("rotation has no active members")
	ErrRotationMemberNotFound = errors.New("rotation member not found")
	ErrAlreadyInRotation      = errors.New("user is already in this rotation")
	ErrInvalidRotationOrder   = errors.New("order must list every active member exactly once")
)

// ===== Suggestion Errors =====
var (
	ErrSlotNotFound       = errors.New("suggestion slot not found")
	ErrSlotClosed         = errors.New("suggestion slot is closed")
	ErrSlotFull           = errors.New("suggestion slot has reached its song limit")
	ErrNotSlotOwner       = errors.New("only the invited user may suggest songs")
	ErrTooFewSuggestions  = errors.New("not enough songs suggested")
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrSuggestionAccepted = errors.New("suggestion was already accepted")
	ErrDueDateInPast      = errors.New("due date must be in the future")
)

// ===== Availability Errors =====
var (
	ErrAvailabilityNotFound = errors.New("availability not found")
	ErrAlreadyUnavailable   = errors.New("date is already marked unavailable")
)
