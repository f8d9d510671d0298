package model

import "time"

// NotificationType classifies what a notification is about.
type NotificationType string

const (
	NotificationAssignment     NotificationType = "assignment"
	NotificationLeaderAssigned NotificationType = "leader_assigned"
	NotificationSuggestionSlot NotificationType = "suggestion_slot"
	NotificationReminder       NotificationType = "reminder"
)

// NotificationStatus is the outcome of a delivery attempt.
type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// Notification is a message to deliver to a user.
type Notification struct {
	UserID      string
	Email       string
	Type        NotificationType
	Subject     string
	Body        string
	ReferenceID string
}

// NotificationLog records one delivery attempt.
type NotificationLog struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Type        NotificationType   `json:"type"`
	Channel     string             `json:"channel"`
	Subject     string             `json:"subject"`
	Body        string             `json:"body"`
	ReferenceID *string            `json:"reference_id,omitempty"`
	Status      NotificationStatus `json:"status"`
	Error       *string            `json:"error,omitempty"`
	SentOn      time.Time          `json:"sent_on"`
}
