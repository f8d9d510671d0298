package handler

import (
	"net/http"

	"github.com/forgo/worship/api/internal/middleware"
	"github.com/forgo/worship/api/internal/service"
)

// NotificationHandler serves the notification log
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListMine handles GET /v1/me/notifications?limit=
func (h *NotificationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 50, 200)
	if !ok {
		return
	}
	list, err := h.notifications.List(r.Context(), middleware.GetUserID(r.Context()), limit)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, list, nil)
}

// List handles GET /v1/notifications?user_id=&limit=. Without user_id
// every user's log is listed.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 50, 200)
	if !ok {
		return
	}
	list, err := h.notifications.List(r.Context(), r.URL.Query().Get("user_id"), limit)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	WriteCollection(w, list, nil)
}
