// Package app wires configuration, storage and services into a running
// application. Both the HTTP server and the admin CLI build on it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/forgo/worship/api/internal/blob"
	"github.com/forgo/worship/api/internal/config"
	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/handler"
	"github.com/forgo/worship/api/internal/repository"
	"github.com/forgo/worship/api/internal/service"
	"github.com/forgo/worship/api/pkg/jwt"
)

// Options adjust what New builds.
type Options struct {
	// SkipTokens builds the services without loading JWT keys. Auth and
	// token operations are unusable; the CLI uses this for data commands.
	SkipTokens bool
	Logger     *slog.Logger
}

// App holds the connected database and every service.
type App struct {
	DB        *database.SurrealDB
	JWT       *jwt.Service
	Blobs     blob.Store
	Services  handler.Services
	Reminders *service.ReminderService
}

// New connects to SurrealDB and the blob store and builds the services.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	a := &App{DB: db}

	if !opts.SkipTokens {
		jwtService, err := jwt.NewService(jwt.Config{
			PrivateKeyPath: cfg.JWT.PrivateKeyPath,
			PublicKeyPath:  cfg.JWT.PublicKeyPath,
			Issuer:         cfg.JWT.Issuer,
			Expiration:     cfg.AccessTTL(),
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("load JWT keys: %w", err)
		}
		a.JWT = jwtService
	}

	blobs, err := blob.Open(ctx, blob.Config{
		Driver:          blob.Driver(cfg.Storage.Driver),
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		PathStyle:       cfg.Storage.PathStyle,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	a.Blobs = blobs

	a.build(cfg, logger)
	return a, nil
}

func (a *App) build(cfg *config.Config, logger *slog.Logger) {
	db := a.DB

	// Repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	serviceTypeRepo := repository.NewServiceTypeRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	worshipSetRepo := repository.NewWorshipSetRepository(db)
	setSongRepo := repository.NewSetSongRepository(db)
	songRepo := repository.NewSongRepository(db)
	songVersionRepo := repository.NewSongVersionRepository(db)
	chordSheetRepo := repository.NewChordSheetRepository(db)
	instrumentRepo := repository.NewInstrumentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	defaultRepo := repository.NewDefaultAssignmentRepository(db)
	rotationRepo := repository.NewRotationRepository(db)
	slotRepo := repository.NewSuggestionSlotRepository(db)
	suggestionRepo := repository.NewSuggestionRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	s := &a.Services
	s.Tokens = service.NewTokenService(service.TokenServiceConfig{
		JWTService:      a.JWT,
		TokenRepo:       tokenRepo,
		RefreshDuration: cfg.JWT.RefreshTTL,
	})
	s.Auth = service.NewAuthService(service.AuthServiceConfig{
		UserRepo:          userRepo,
		TokenService:      s.Tokens,
		AllowRegistration: cfg.Auth.AllowRegistration,
	})
	s.Notifications = service.NewNotificationService(notificationRepo, userRepo, service.LogSender{Logger: logger}, nil)
	s.Rotation = service.NewRotationService(service.RotationServiceConfig{
		RotationRepo:    rotationRepo,
		UserRepo:        userRepo,
		ServiceTypeRepo: serviceTypeRepo,
		CalendarRepo:    calendarRepo,
		WorshipSetRepo:  worshipSetRepo,
	})
	s.Users = service.NewUserService(userRepo, s.Auth, s.Tokens, s.Rotation)
	s.Calendar = service.NewCalendarService(service.CalendarServiceConfig{
		ServiceTypeRepo: serviceTypeRepo,
		CalendarRepo:    calendarRepo,
		WorshipSetRepo:  worshipSetRepo,
		Scheduler:       s.Rotation,
	})
	s.WorshipSets = service.NewWorshipSetService(service.WorshipSetServiceConfig{
		WorshipSetRepo:        worshipSetRepo,
		SetSongRepo:           setSongRepo,
		CalendarRepo:          calendarRepo,
		SongRepo:              songRepo,
		SongVersionRepo:       songVersionRepo,
		AssignmentRepo:        assignmentRepo,
		DefaultAssignmentRepo: defaultRepo,
		AvailabilityRepo:      availabilityRepo,
		UserRepo:              userRepo,
		Rotation:              s.Rotation,
		Notifier:              s.Notifications,
	})
	s.Songs = service.NewSongService(songRepo, songVersionRepo)
	s.ChordSheets = service.NewChordSheetService(service.ChordSheetServiceConfig{
		ChordSheetRepo:  chordSheetRepo,
		SongRepo:        songRepo,
		SongVersionRepo: songVersionRepo,
		Store:           a.Blobs,
		MaxBytes:        cfg.Storage.MaxUploadBytes,
		PresignTTL:      cfg.Storage.PresignTTL,
	})
	s.Instruments = service.NewInstrumentService(instrumentRepo)
	s.Assignments = service.NewAssignmentService(service.AssignmentServiceConfig{
		AssignmentRepo:        assignmentRepo,
		DefaultAssignmentRepo: defaultRepo,
		WorshipSetRepo:        worshipSetRepo,
		ServiceTypeRepo:       serviceTypeRepo,
		InstrumentRepo:        instrumentRepo,
		UserRepo:              userRepo,
		AvailabilityRepo:      availabilityRepo,
		Notifier:              s.Notifications,
	})
	s.Suggestions = service.NewSuggestionService(service.SuggestionServiceConfig{
		SlotRepo:       slotRepo,
		SuggestionRepo: suggestionRepo,
		UserRepo:       userRepo,
		SongRepo:       songRepo,
		WorshipSets:    s.WorshipSets,
		Notifier:       s.Notifications,
	})
	s.Availability = service.NewAvailabilityService(availabilityRepo, nil)
	s.Imports = service.NewImportService(s.Songs, songRepo, s.Instruments)
	s.Export = service.NewExportService(service.ExportServiceConfig{
		ServiceTypeRepo: serviceTypeRepo,
		CalendarRepo:    calendarRepo,
		WorshipSetRepo:  worshipSetRepo,
		SetSongRepo:     setSongRepo,
		SongRepo:        songRepo,
		AssignmentRepo:  assignmentRepo,
		InstrumentRepo:  instrumentRepo,
		UserRepo:        userRepo,
	})
	a.Reminders = service.NewReminderService(assignmentRepo, slotRepo, nil)
}

// Close releases the database connection.
func (a *App) Close() error {
	return a.DB.Close()
}
