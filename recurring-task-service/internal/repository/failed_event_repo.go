package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FailedEventRepository journals events whose downstream calls failed so
// the redelivery dispatcher can replay them. Materialize-and-advance are
// two independent writes with no transactional link; the journal is what
// lets a partial failure converge instead of silently dropping work.
type FailedEventRepository struct {
	db *pgxpool.Pool
}

func NewFailedEventRepository(db *pgxpool.Pool) *FailedEventRepository {
	return &FailedEventRepository{db: db}
}

type FailedEvent struct {
	ID              int
	RecurringTaskID int
	UserID          int
	Stage           string
	Payload         json.RawMessage
	ErrorMessage    string
	RetryCount      int
	Status          string
}

// RecordFailure inserts a pending journal entry. Payload is the full
// event for the create stage and an advance record for the advance
// stage.
func (r *FailedEventRepository) RecordFailure(
	ctx context.Context,
	stage string,
	recurringTaskID, userID int,
	payload any,
	cause error,
) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO failed_events (recurring_task_id, user_id, stage, payload, error_message, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
	`
	_, err = r.db.Exec(ctx, query, recurringTaskID, userID, stage, payloadJSON, cause.Error())
	return err
}

// GetPendingEvents returns journal entries still eligible for replay.
func (r *FailedEventRepository) GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]FailedEvent, error) {
	query := `
		SELECT id, recurring_task_id, user_id, stage, payload, error_message, retry_count, status
		FROM failed_events
		WHERE status = 'pending' AND retry_count < $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, maxRetries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evts []FailedEvent
	for rows.Next() {
		var e FailedEvent
		if err := rows.Scan(&e.ID, &e.RecurringTaskID, &e.UserID, &e.Stage, &e.Payload, &e.ErrorMessage, &e.RetryCount, &e.Status); err != nil {
			return nil, err
		}
		evts = append(evts, e)
	}
	return evts, rows.Err()
}

// MarkResolved closes an entry after a successful replay.
func (r *FailedEventRepository) MarkResolved(ctx context.Context, id int) error {
	query := `
		UPDATE failed_events
		SET status = 'resolved', updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

// IncrementRetry bumps the retry counter after a failed replay, leaving
// the entry pending.
func (r *FailedEventRepository) IncrementRetry(ctx context.Context, id int) error {
	query := `
		UPDATE failed_events
		SET retry_count = retry_count + 1, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

// MarkFailed gives up on an entry that exhausted its retries.
func (r *FailedEventRepository) MarkFailed(ctx context.Context, id int) error {
	query := `
		UPDATE failed_events
		SET status = 'failed', updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
