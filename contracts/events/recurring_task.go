package events

import (
	"strings"
	"time"
)

// RecurringTaskEventPrefix selects the event types the recurring-task
// service processes; everything else on the topic is acknowledged as
// ignored.
const RecurringTaskEventPrefix = "recurring_task."

// Recurrence patterns understood by the calculator.
const (
	PatternDaily   = "daily"
	PatternWeekly  = "weekly"
	PatternMonthly = "monthly"
	PatternYearly  = "yearly"
)

type RecurringTaskData struct {
	RecurringTaskID    int       `json:"recurring_task_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	Status             string    `json:"status"`
	Priority           string    `json:"priority"`
	RecurrencePattern  string    `json:"recurrence_pattern"`
	RecurrenceInterval int       `json:"recurrence_interval"`
	NextOccurrence     time.Time `json:"next_occurrence"`
	IsActive           bool      `json:"is_active"`
}

type RecurringTaskEvent struct {
	EventID         string            `json:"event_id"`
	EventType       string            `json:"event_type"`
	Timestamp       time.Time         `json:"timestamp"`
	UserID          int               `json:"user_id"`
	RecurringTaskID int               `json:"recurring_task_id"`
	Data            RecurringTaskData `json:"data"`
}

// IsRecurringTaskEvent reports whether an event type belongs to the
// recurring-task lifecycle.
func IsRecurringTaskEvent(eventType string) bool {
	return strings.HasPrefix(eventType, RecurringTaskEventPrefix)
}
