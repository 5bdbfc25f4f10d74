package events

import "time"

// Requests and responses exchanged with the task-owning backend via the
// bus's service-invocation facility.

type TaskCreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ProjectID   *int       `json:"project_id,omitempty"`
	TagIDs      []int      `json:"tag_ids"`
}

type TaskCreated struct {
	ID int `json:"id"`
}

type NextOccurrenceUpdate struct {
	NextOccurrence    time.Time `json:"next_occurrence"`
	LastCreatedTaskID *int      `json:"last_created_task_id,omitempty"`
}

type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

type EmailNotificationRequest struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	UserID  int    `json:"user_id"`
}
