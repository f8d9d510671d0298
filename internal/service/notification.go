package service

import (
	"context"
	"log/slog"

	"github.com/forgo/worship/api/internal/metrics"
	"github.com/forgo/worship/api/internal/model"
)

const defaultNotificationLimit = 50

// Sender delivers a notification over one channel.
type Sender interface {
	Channel() string
	Send(ctx context.Context, n model.Notification) error
}

// LogSender writes notifications to the structured log. It stands in for a
// mail or push provider.
type LogSender struct {
	Logger *slog.Logger
}

func (LogSender) Channel() string { return "log" }

func (s LogSender) Send(ctx context.Context, n model.Notification) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification",
		slog.String("user_id", n.UserID),
		slog.String("email", n.Email),
		slog.String("type", string(n.Type)),
		slog.String("subject", n.Subject),
		slog.String("reference_id", n.ReferenceID),
	)
	return nil
}

// NotificationService delivers notifications and records every attempt.
type NotificationService struct {
	repo   NotificationRepository
	users  UserRepository
	sender Sender
	clock  Clock
}

// NewNotificationService creates a new notification service. A nil sender
// logs notifications.
func NewNotificationService(repo NotificationRepository, users UserRepository, sender Sender, clock Clock) *NotificationService {
	if sender == nil {
		sender = LogSender{}
	}
	return &NotificationService{repo: repo, users: users, sender: sender, clock: clock}
}

// Notify sends n and stores the outcome. Delivery failures are recorded as
// failed logs, not returned; only storage errors are.
func (s *NotificationService) Notify(ctx context.Context, n model.Notification) error {
	if n.Email == "" && s.users != nil {
		user, err := s.users.GetByID(ctx, n.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		n.Email = user.Email
	}

	entry := &model.NotificationLog{
		UserID:      n.UserID,
		Type:        n.Type,
		Channel:     s.sender.Channel(),
		Subject:     n.Subject,
		Body:        n.Body,
		ReferenceID: stringPtr(n.ReferenceID),
		Status:      model.NotificationSent,
		SentOn:      s.clock.now(),
	}
	if err := s.sender.Send(ctx, n); err != nil {
		msg := err.Error()
		entry.Status = model.NotificationFailed
		entry.Error = &msg
		slog.WarnContext(ctx, "notification delivery failed",
			slog.String("user_id", n.UserID),
			slog.String("type", string(n.Type)),
			slog.String("error", msg),
		)
	}
	metrics.RecordNotification(string(n.Type), string(entry.Status))
	return s.repo.Create(ctx, entry)
}

// NotifyOnce sends n unless a sent log already exists for its user, type and
// reference. It reports whether a notification went out.
func (s *NotificationService) NotifyOnce(ctx context.Context, n model.Notification) (bool, error) {
	exists, err := s.repo.Exists(ctx, n.UserID, n.Type, n.ReferenceID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.Notify(ctx, n); err != nil {
		return false, err
	}
	return true, nil
}

// notifyQuietly is Notify for side effects of other operations.
func (s *NotificationService) notifyQuietly(ctx context.Context, n model.Notification) {
	if s == nil {
		return
	}
	if err := s.Notify(ctx, n); err != nil {
		slog.WarnContext(ctx, "notification not recorded",
			slog.String("user_id", n.UserID),
			slog.String("type", string(n.Type)),
			slog.String("error", err.Error()),
		)
	}
}

// List returns recent logs, newest first. An empty userID lists everyone.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]*model.NotificationLog, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}
	return s.repo.List(ctx, userID, limit)
}
