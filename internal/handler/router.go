package handler

import (
	"net/http"
	"regexp"
	"time"

	"github.com/forgo/worship/api/internal/authz"
	"github.com/forgo/worship/api/internal/metrics"
	"github.com/forgo/worship/api/internal/middleware"
	"github.com/forgo/worship/api/internal/service"
)

// referenceMaxAge is how long clients may cache slow-changing lists such as
// instruments and service types.
const referenceMaxAge = time.Minute

// Services bundles the services the API exposes.
type Services struct {
	Auth          *service.AuthService
	Tokens        *service.TokenService
	Users         *service.UserService
	Calendar      *service.CalendarService
	Export        *service.ExportService
	Rotation      *service.RotationService
	WorshipSets   *service.WorshipSetService
	Songs         *service.SongService
	Imports       *service.ImportService
	ChordSheets   *service.ChordSheetService
	Instruments   *service.InstrumentService
	Assignments   *service.AssignmentService
	Suggestions   *service.SuggestionService
	Availability  *service.AvailabilityService
	Notifications *service.NotificationService
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Services   Services
	Tokens     middleware.TokenValidator
	Authorizer middleware.Authorizer
	DB         Pinger
	Version    string

	// AuthLimiter guards the unauthenticated auth endpoints. Nil disables it.
	AuthLimiter *middleware.RateLimiter
	// MetricsPath exposes Prometheus metrics when set.
	MetricsPath string
}

// router registers routes on a ServeMux with their per-route middleware.
type router struct {
	mux   *http.ServeMux
	auth  middleware.Middleware
	authz middleware.Authorizer
}

var pathParam = regexp.MustCompile(`\{(\w+)\}`)

// handle registers h with every path parameter checked as a UUID.
func (rt *router) handle(pattern string, h http.HandlerFunc, mws ...middleware.Middleware) {
	var names []string
	for _, m := range pathParam.FindAllStringSubmatch(pattern, -1) {
		names = append(names, m[1])
	}
	if len(names) > 0 {
		mws = append(mws, middleware.UUIDParams(names...))
	}
	rt.mux.Handle(pattern, middleware.Chain(h, mws...))
}

// authed registers a route open to any signed-in user.
func (rt *router) authed(pattern string, h http.HandlerFunc, mws ...middleware.Middleware) {
	rt.handle(pattern, h, append([]middleware.Middleware{rt.auth}, mws...)...)
}

// guarded registers a route that needs the caller's role to allow action on
// resource.
func (rt *router) guarded(pattern, resource, action string, h http.HandlerFunc, mws ...middleware.Middleware) {
	rt.handle(pattern, h, append([]middleware.Middleware{
		rt.auth,
		middleware.Require(rt.authz, resource, action),
	}, mws...)...)
}

// NewRouter builds the API mux. Process-wide middleware (logging, CORS,
// compression, global rate limit) is applied by the caller.
func NewRouter(cfg RouterConfig) http.Handler {
	rt := &router{
		mux:   http.NewServeMux(),
		auth:  middleware.Auth(cfg.Tokens),
		authz: cfg.Authorizer,
	}
	svc := cfg.Services

	authH := NewAuthHandler(svc.Auth)
	userH := NewUserHandler(svc.Users)
	calH := NewCalendarHandler(svc.Calendar, svc.Export)
	setH := NewWorshipSetHandler(svc.WorshipSets)
	songH := NewSongHandler(svc.Songs, svc.Imports)
	sheetH := NewChordSheetHandler(svc.ChordSheets)
	teamH := NewTeamHandler(svc.Instruments, svc.Assignments)
	rotH := NewRotationHandler(svc.Rotation)
	sugH := NewSuggestionHandler(svc.Suggestions)
	availH := NewAvailabilityHandler(svc.Availability)
	noteH := NewNotificationHandler(svc.Notifications)

	noStore := middleware.Middleware(middleware.NoStore)
	cached := middleware.CacheControl(referenceMaxAge, false)

	// Health and metrics
	if cfg.DB != nil {
		rt.handle("GET /health", NewHealthHandler(cfg.DB, cfg.Version).Health, noStore)
	}
	if cfg.MetricsPath != "" {
		rt.mux.Handle("GET "+cfg.MetricsPath, metrics.Handler())
	}

	// Auth
	open := []middleware.Middleware{noStore}
	if cfg.AuthLimiter != nil {
		open = append(open, middleware.RateLimit(cfg.AuthLimiter))
	}
	rt.handle("POST /v1/auth/register", authH.Register, open...)
	rt.handle("POST /v1/auth/login", authH.Login, open...)
	rt.handle("POST /v1/auth/refresh", authH.Refresh, open...)
	rt.authed("POST /v1/auth/logout", authH.Logout, noStore)
	rt.authed("GET /v1/auth/me", authH.Me, noStore)
	rt.authed("PATCH /v1/auth/me", authH.UpdateMe, noStore)
	rt.authed("POST /v1/auth/password", authH.ChangePassword, noStore)

	// Users
	rt.guarded("GET /v1/users", authz.ResourceUsers, authz.ActionRead, userH.List, noStore)
	rt.guarded("POST /v1/users", authz.ResourceUsers, authz.ActionWrite, userH.Create)
	rt.guarded("GET /v1/users/{id}", authz.ResourceUsers, authz.ActionRead, userH.Get, noStore)
	rt.guarded("PATCH /v1/users/{id}", authz.ResourceUsers, authz.ActionWrite, userH.Update)
	rt.guarded("DELETE /v1/users/{id}", authz.ResourceUsers, authz.ActionDelete, userH.Deactivate)

	// Service types
	rt.guarded("GET /v1/service-types", authz.ResourceServiceTypes, authz.ActionRead, calH.ListTypes, cached)
	rt.guarded("POST /v1/service-types", authz.ResourceServiceTypes, authz.ActionWrite, calH.CreateType)
	rt.guarded("GET /v1/service-types/{id}", authz.ResourceServiceTypes, authz.ActionRead, calH.GetType, cached)
	rt.guarded("PATCH /v1/service-types/{id}", authz.ResourceServiceTypes, authz.ActionWrite, calH.UpdateType)
	rt.guarded("DELETE /v1/service-types/{id}", authz.ResourceServiceTypes, authz.ActionDelete, calH.DeleteType)
	rt.guarded("POST /v1/service-types/{id}/services/generate", authz.ResourceServices, authz.ActionWrite, calH.Generate)

	// Services
	rt.guarded("GET /v1/services", authz.ResourceServices, authz.ActionRead, calH.List)
	rt.guarded("POST /v1/services", authz.ResourceServices, authz.ActionWrite, calH.Create)
	rt.guarded("GET /v1/services/export.xlsx", authz.ResourceExport, authz.ActionRead, calH.Export, noStore)
	rt.guarded("GET /v1/services/{id}", authz.ResourceServices, authz.ActionRead, calH.Get)
	rt.guarded("PATCH /v1/services/{id}", authz.ResourceServices, authz.ActionWrite, calH.Update)
	rt.guarded("DELETE /v1/services/{id}", authz.ResourceServices, authz.ActionDelete, calH.Delete)

	// Worship sets
	rt.guarded("POST /v1/services/{id}/worship-set", authz.ResourceWorshipSets, authz.ActionWrite, setH.Create)
	rt.guarded("GET /v1/services/{id}/worship-set", authz.ResourceWorshipSets, authz.ActionRead, setH.GetByService)
	rt.guarded("GET /v1/worship-sets/{id}", authz.ResourceWorshipSets, authz.ActionRead, setH.Get)
	rt.guarded("PATCH /v1/worship-sets/{id}", authz.ResourceWorshipSets, authz.ActionWrite, setH.Update)
	rt.guarded("POST /v1/worship-sets/{id}/publish", authz.ResourceWorshipSets, authz.ActionWrite, setH.Publish)
	rt.guarded("DELETE /v1/worship-sets/{id}", authz.ResourceWorshipSets, authz.ActionDelete, setH.Delete)
	rt.guarded("GET /v1/worship-sets/{id}/songs", authz.ResourceWorshipSets, authz.ActionRead, setH.ListSongs)
	rt.guarded("POST /v1/worship-sets/{id}/songs", authz.ResourceWorshipSets, authz.ActionWrite, setH.AddSong)
	rt.guarded("PUT /v1/worship-sets/{id}/songs/order", authz.ResourceWorshipSets, authz.ActionWrite, setH.ReorderSongs)
	rt.guarded("PATCH /v1/worship-sets/{id}/songs/{songId}", authz.ResourceWorshipSets, authz.ActionWrite, setH.UpdateSong)
	rt.guarded("DELETE /v1/worship-sets/{id}/songs/{songId}", authz.ResourceWorshipSets, authz.ActionWrite, setH.RemoveSong)

	// Songs
	rt.guarded("GET /v1/songs", authz.ResourceSongs, authz.ActionRead, songH.Search)
	rt.guarded("POST /v1/songs", authz.ResourceSongs, authz.ActionWrite, songH.Create)
	rt.guarded("POST /v1/songs/import", authz.ResourceSongs, authz.ActionWrite, songH.Import)
	rt.guarded("GET /v1/songs/{id}", authz.ResourceSongs, authz.ActionRead, songH.Get)
	rt.guarded("PATCH /v1/songs/{id}", authz.ResourceSongs, authz.ActionWrite, songH.Update)
	rt.guarded("DELETE /v1/songs/{id}", authz.ResourceSongs, authz.ActionDelete, songH.Delete)
	rt.guarded("GET /v1/songs/{id}/versions", authz.ResourceSongs, authz.ActionRead, songH.ListVersions)
	rt.guarded("POST /v1/songs/{id}/versions", authz.ResourceSongs, authz.ActionWrite, songH.CreateVersion)
	rt.guarded("GET /v1/songs/{id}/versions/{versionId}", authz.ResourceSongs, authz.ActionRead, songH.GetVersion)
	rt.guarded("PATCH /v1/songs/{id}/versions/{versionId}", authz.ResourceSongs, authz.ActionWrite, songH.UpdateVersion)
	rt.guarded("DELETE /v1/songs/{id}/versions/{versionId}", authz.ResourceSongs, authz.ActionDelete, songH.DeleteVersion)
	rt.guarded("GET /v1/songs/{id}/versions/{versionId}/chart", authz.ResourceSongs, authz.ActionRead, songH.Chart)
	rt.guarded("POST /v1/transpose", authz.ResourceSongs, authz.ActionRead, songH.Transpose)

	// Chord sheets. Deleting needs only write here; the service limits it
	// to the uploader, leaders and admins.
	rt.guarded("POST /v1/songs/{id}/chord-sheets", authz.ResourceChordSheets, authz.ActionWrite, sheetH.Upload)
	rt.guarded("GET /v1/songs/{id}/chord-sheets", authz.ResourceChordSheets, authz.ActionRead, sheetH.ListBySong)
	rt.guarded("GET /v1/chord-sheets/{id}", authz.ResourceChordSheets, authz.ActionRead, sheetH.Get)
	rt.guarded("GET /v1/chord-sheets/{id}/file", authz.ResourceChordSheets, authz.ActionRead, sheetH.Download, cached)
	rt.guarded("DELETE /v1/chord-sheets/{id}", authz.ResourceChordSheets, authz.ActionWrite, sheetH.Delete)

	// Instruments
	rt.guarded("GET /v1/instruments", authz.ResourceInstruments, authz.ActionRead, teamH.ListInstruments, cached)
	rt.guarded("POST /v1/instruments", authz.ResourceInstruments, authz.ActionWrite, teamH.CreateInstrument)
	rt.guarded("PATCH /v1/instruments/{id}", authz.ResourceInstruments, authz.ActionWrite, teamH.UpdateInstrument)
	rt.guarded("DELETE /v1/instruments/{id}", authz.ResourceInstruments, authz.ActionDelete, teamH.DeleteInstrument)

	// Assignments
	rt.guarded("GET /v1/worship-sets/{id}/assignments", authz.ResourceAssignments, authz.ActionRead, teamH.ListBySet)
	rt.guarded("POST /v1/worship-sets/{id}/assignments", authz.ResourceAssignments, authz.ActionWrite, teamH.CreateAssignment)
	rt.guarded("DELETE /v1/assignments/{id}", authz.ResourceAssignments, authz.ActionWrite, teamH.DeleteAssignment)
	rt.guarded("POST /v1/assignments/{id}/respond", authz.ResourceAssignments, authz.ActionRespond, teamH.Respond)
	rt.authed("GET /v1/me/assignments", teamH.ListMine, noStore)

	// Default assignments
	rt.guarded("GET /v1/service-types/{id}/default-assignments", authz.ResourceDefaults, authz.ActionRead, teamH.ListDefaults)
	rt.guarded("PUT /v1/service-types/{id}/default-assignments", authz.ResourceDefaults, authz.ActionWrite, teamH.ReplaceDefaults)
	rt.guarded("DELETE /v1/default-assignments/{id}", authz.ResourceDefaults, authz.ActionDelete, teamH.DeleteDefault)

	// Leader rotation
	rt.guarded("GET /v1/service-types/{id}/rotation", authz.ResourceRotation, authz.ActionRead, rotH.List)
	rt.guarded("POST /v1/service-types/{id}/rotation", authz.ResourceRotation, authz.ActionWrite, rotH.Add)
	rt.guarded("PUT /v1/service-types/{id}/rotation/order", authz.ResourceRotation, authz.ActionWrite, rotH.Reorder)
	rt.guarded("GET /v1/service-types/{id}/rotation/next", authz.ResourceRotation, authz.ActionRead, rotH.Next)
	rt.guarded("POST /v1/service-types/{id}/rotation/recalculate", authz.ResourceRotation, authz.ActionWrite, rotH.Recalculate)
	rt.guarded("DELETE /v1/service-types/{id}/rotation/{memberId}", authz.ResourceRotation, authz.ActionWrite, rotH.Remove)

	// Suggestions
	rt.guarded("POST /v1/worship-sets/{id}/suggestion-slots", authz.ResourceSuggestions, authz.ActionManage, sugH.CreateSlot)
	rt.guarded("GET /v1/worship-sets/{id}/suggestion-slots", authz.ResourceSuggestions, authz.ActionRead, sugH.ListBySet)
	rt.authed("GET /v1/me/suggestion-slots", sugH.ListMine, noStore)
	rt.guarded("GET /v1/suggestion-slots/{id}", authz.ResourceSuggestions, authz.ActionRead, sugH.GetSlot)
	rt.guarded("DELETE /v1/suggestion-slots/{id}", authz.ResourceSuggestions, authz.ActionManage, sugH.CancelSlot)
	rt.guarded("POST /v1/suggestion-slots/{id}/submit", authz.ResourceSuggestions, authz.ActionWrite, sugH.Submit)
	rt.guarded("GET /v1/suggestion-slots/{id}/suggestions", authz.ResourceSuggestions, authz.ActionRead, sugH.ListSuggestions)
	rt.guarded("POST /v1/suggestion-slots/{id}/suggestions", authz.ResourceSuggestions, authz.ActionWrite, sugH.AddSuggestion)
	rt.guarded("DELETE /v1/suggestions/{id}", authz.ResourceSuggestions, authz.ActionWrite, sugH.DeleteSuggestion)
	rt.guarded("POST /v1/suggestions/{id}/accept", authz.ResourceSuggestions, authz.ActionManage, sugH.Accept)

	// Availability
	rt.authed("GET /v1/me/availability", availH.ListMine, noStore)
	rt.guarded("POST /v1/me/availability", authz.ResourceAvailability, authz.ActionWrite, availH.Create)
	rt.guarded("DELETE /v1/availability/{id}", authz.ResourceAvailability, authz.ActionWrite, availH.Delete)
	rt.guarded("GET /v1/availability", authz.ResourceAvailability, authz.ActionRead, availH.ListByDate, noStore)

	// Notifications
	rt.authed("GET /v1/me/notifications", noteH.ListMine, noStore)
	rt.guarded("GET /v1/notifications", authz.ResourceNotifications, authz.ActionRead, noteH.List, noStore)

	return rt.mux
}
