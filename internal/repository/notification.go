package repository

import (
	"context"
	"errors"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

const notificationTable = "notification_log"

// NotificationRepository handles notification logs
type NotificationRepository struct {
	db database.Database
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db database.Database) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create records a delivery attempt
func (r *NotificationRepository) Create(ctx context.Context, n *model.NotificationLog) error {
	return r.db.Execute(ctx, `
		CREATE type::record($tb, $rid) CONTENT {
			user_id: $user_id,
			type: $type,
			channel: $channel,
			subject: $subject,
			body: $body,
			reference_id: $reference_id,
			status: $status,
			error: $error,
			sent_on: $sent_on
		}`,
		map[string]interface{}{
			"tb":           notificationTable,
			"rid":          ensureID(&n.ID),
			"user_id":      n.UserID,
			"type":         string(n.Type),
			"channel":      n.Channel,
			"subject":      n.Subject,
			"body":         n.Body,
			"reference_id": strOrNil(n.ReferenceID),
			"status":       string(n.Status),
			"error":        strOrNil(n.Error),
			"sent_on":      datetime(n.SentOn),
		})
}

// List returns logs newest first, optionally for one user
func (r *NotificationRepository) List(ctx context.Context, userID string, limit int) ([]*model.NotificationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	vars := map[string]interface{}{"limit": limit}
	query := "SELECT * FROM notification_log ORDER BY sent_on DESC LIMIT $limit"
	if userID != "" {
		query = "SELECT * FROM notification_log WHERE user_id = $user_id ORDER BY sent_on DESC LIMIT $limit"
		vars["user_id"] = userID
	}
	return selectAll[model.NotificationLog](ctx, r.db, query, vars)
}

// Exists reports whether a successful log exists for user, type and reference
func (r *NotificationRepository) Exists(ctx context.Context, userID string, typ model.NotificationType, referenceID string) (bool, error) {
	raw, err := r.db.QueryOne(ctx, `
		SELECT count() FROM notification_log
		WHERE user_id = $user_id AND type = $type AND reference_id = $reference_id AND status = 'sent'
		GROUP ALL`,
		map[string]interface{}{"user_id": userID, "type": string(typ), "reference_id": referenceID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return extractCount(raw) > 0, nil
}
