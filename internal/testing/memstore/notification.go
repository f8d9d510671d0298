package memstore

import (
	"context"
	"sort"

	"github.com/forgo/worship/api/internal/model"
)

// NotificationRepo implements service.NotificationRepository.
type NotificationRepo struct{ s *Store }

func (r *NotificationRepo) Create(_ context.Context, n *model.NotificationLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if n.SentOn.IsZero() {
		n.SentOn = r.s.now()
	}
	r.s.notifications.put(ensureID(&n.ID), n)
	return nil
}

func (r *NotificationRepo) List(_ context.Context, userID string, limit int) ([]*model.NotificationLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	logs := r.s.notifications.filter(func(n *model.NotificationLog) bool { return userID == "" || n.UserID == userID })
	// Newest first; later inserts win ties.
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].SentOn.After(logs[j].SentOn) })
	if len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (r *NotificationRepo) Exists(_ context.Context, userID string, typ model.NotificationType, referenceID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, n := range r.s.notifications.rows {
		if n.UserID == userID && n.Type == typ && n.Status == model.NotificationSent &&
			n.ReferenceID != nil && *n.ReferenceID == referenceID {
			return true, nil
		}
	}
	return false, nil
}

// All returns every log in insertion order.
func (r *NotificationRepo) All() []*model.NotificationLog {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.notifications.filter(nil)
}
