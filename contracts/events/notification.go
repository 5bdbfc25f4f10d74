package events

import "time"

// Lifecycle events published after a notification dispatch attempt.
const (
	NotificationSentType   = "notification.sent"
	NotificationFailedType = "notification.failed"
)

type NotificationSentPayload struct {
	ReminderID int       `json:"reminder_id"`
	TaskID     int       `json:"task_id"`
	UserID     int       `json:"user_id"`
	Channel    string    `json:"channel"`
	SentAt     time.Time `json:"sent_at"`
}

type NotificationFailedPayload struct {
	ReminderID int    `json:"reminder_id"`
	TaskID     int    `json:"task_id"`
	UserID     int    `json:"user_id"`
	Channel    string `json:"channel"`
	Error      string `json:"error"`
}
