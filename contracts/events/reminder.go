package events

import (
	"strings"
	"time"
)

// Notification channels named in reminder events.
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
	ChannelInApp = "in_app"
)

type ReminderData struct {
	ReminderID           int       `json:"reminder_id"`
	TaskID               int       `json:"task_id"`
	TaskTitle            string    `json:"task_title"`
	RemindAt             time.Time `json:"remind_at"`
	ReminderType         string    `json:"reminder_type"`
	NotificationChannels string    `json:"notification_channels"`
}

type ReminderEvent struct {
	EventID    string       `json:"event_id"`
	EventType  string       `json:"event_type"`
	Timestamp  time.Time    `json:"timestamp"`
	UserID     int          `json:"user_id"`
	ReminderID int          `json:"reminder_id"`
	TaskID     int          `json:"task_id"`
	Data       ReminderData `json:"data"`
}

// Channels splits the comma-separated channel list, trimming whitespace
// and dropping empty entries.
func (d ReminderData) Channels() []string {
	parts := strings.Split(d.NotificationChannels, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
