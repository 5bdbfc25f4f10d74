package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"puretasks/contracts/events"
	"puretasks/pkg/metrics"
	"puretasks/pkg/util"
	"puretasks/recurring-task-service/internal/recurrence"
)

// Journal stages for failed downstream calls.
const (
	StageCreate  = "create"
	StageAdvance = "advance"
)

const dedupScope = "occurrence"

// BackendClient is the slice of the task-owning service this processor
// needs. The production implementation rides the bus sidecar.
type BackendClient interface {
	CreateTask(ctx context.Context, userID int, req events.TaskCreateRequest) (*events.TaskCreated, error)
	UpdateNextOccurrence(ctx context.Context, recurringTaskID int, upd events.NextOccurrenceUpdate) error
}

// FailureJournal records downstream failures for later replay. A nil
// journal disables journaling.
type FailureJournal interface {
	RecordFailure(ctx context.Context, stage string, recurringTaskID, userID int, payload any, cause error) error
}

// AdvanceRecord is the journal payload for a failed advance: everything
// needed to retry the schedule update without re-creating the task.
type AdvanceRecord struct {
	RecurringTaskID   int       `json:"recurring_task_id"`
	UserID            int       `json:"user_id"`
	NextOccurrence    time.Time `json:"next_occurrence"`
	LastCreatedTaskID *int      `json:"last_created_task_id,omitempty"`
}

// Processor turns recurring-task lifecycle events into task instances.
// It keeps no state between events; durable state lives in the backend.
type Processor struct {
	backend BackendClient
	deduper *util.Deduper
	journal FailureJournal
	logger  *zap.Logger
	now     func() time.Time
}

func NewProcessor(backend BackendClient, deduper *util.Deduper, journal FailureJournal, logger *zap.Logger) *Processor {
	return &Processor{
		backend: backend,
		deduper: deduper,
		journal: journal,
		logger:  logger,
		now:     time.Now,
	}
}

// ProcessRaw handles one raw delivery. The returned Ack is the payload
// for the bus; a non-nil error means the envelope or event was
// structurally invalid and the transport should surface that instead.
func (p *Processor) ProcessRaw(ctx context.Context, body []byte) (events.Ack, error) {
	data, err := events.UnwrapData(body)
	if err != nil {
		return events.Ack{}, fmt.Errorf("failed to parse event envelope: %w", err)
	}

	var probe struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return events.Ack{}, fmt.Errorf("failed to parse event: %w", err)
	}

	if !events.IsRecurringTaskEvent(probe.EventType) {
		p.logger.Info("Ignoring non-recurring task event",
			zap.String("event_type", probe.EventType),
		)
		return events.Ack{Status: events.StatusIgnored}, nil
	}

	var evt events.RecurringTaskEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return events.Ack{}, fmt.Errorf("failed to parse recurring task event: %w", err)
	}

	return p.Process(ctx, evt), nil
}

// Process runs the checkpoints for one event: activation check, due
// check, materialize, advance. Downstream failures are logged, journaled
// and reported in the ack; they never propagate as transport errors, so
// a backend outage cannot put the bus into a redelivery loop.
func (p *Processor) Process(ctx context.Context, evt events.RecurringTaskEvent) events.Ack {
	log := p.logger.With(
		zap.String("event_id", evt.EventID),
		zap.String("event_type", evt.EventType),
		zap.Int("recurring_task_id", evt.RecurringTaskID),
		zap.Int("user_id", evt.UserID),
	)

	log.Info("Processing recurring task event")

	if !evt.Data.IsActive {
		log.Info("Recurring task is not active, skipping")
		return events.Ack{Status: events.StatusSuccess}
	}

	nextOccurrence := evt.Data.NextOccurrence
	if nextOccurrence.After(p.now()) {
		log.Info("Next occurrence not yet due",
			zap.Time("next_occurrence", nextOccurrence),
		)
		return events.Ack{Status: events.StatusSuccess}
	}

	// At-least-once delivery means the same due occurrence can arrive
	// twice; claim it before materializing so redelivery converges.
	dedupKey := fmt.Sprintf("%d:%d", evt.RecurringTaskID, nextOccurrence.Unix())
	if !p.deduper.AcquireOnce(ctx, dedupScope, dedupKey) {
		log.Info("Occurrence already materialized, skipping",
			zap.Time("next_occurrence", nextOccurrence),
		)
		return events.Ack{Status: events.StatusSuccess}
	}

	log.Info("Creating task instance",
		zap.Time("next_occurrence", nextOccurrence),
	)

	created, err := p.backend.CreateTask(ctx, evt.UserID, events.TaskCreateRequest{
		Title:       evt.Data.Title,
		Description: evt.Data.Description,
		Status:      evt.Data.Status,
		Priority:    evt.Data.Priority,
		DueDate:     &nextOccurrence,
		TagIDs:      []int{},
	})
	if err != nil {
		log.Error("Failed to create task instance", zap.Error(err))
		p.deduper.Release(ctx, dedupScope, dedupKey)
		p.recordFailure(ctx, log, StageCreate, evt.RecurringTaskID, evt.UserID, evt, err)
		return events.Ack{Status: events.StatusError, Message: "failed to create task instance"}
	}

	metrics.TaskInstanceCreatedCount.Inc()

	// Advance from the old occurrence, not from now, so the cadence
	// stays fixed even when processing lags.
	newNext := recurrence.Next(evt.Data.RecurrencePattern, evt.Data.RecurrenceInterval, nextOccurrence)

	upd := events.NextOccurrenceUpdate{
		NextOccurrence:    newNext,
		LastCreatedTaskID: &created.ID,
	}
	if err := p.backend.UpdateNextOccurrence(ctx, evt.RecurringTaskID, upd); err != nil {
		log.Error("Failed to update next occurrence", zap.Error(err))
		p.recordFailure(ctx, log, StageAdvance, evt.RecurringTaskID, evt.UserID, AdvanceRecord{
			RecurringTaskID:   evt.RecurringTaskID,
			UserID:            evt.UserID,
			NextOccurrence:    newNext,
			LastCreatedTaskID: &created.ID,
		}, err)
		return events.Ack{Status: events.StatusError, Message: "failed to advance next occurrence"}
	}

	log.Info("Recurring task processed",
		zap.Int("task_id", created.ID),
		zap.Time("new_next_occurrence", newNext),
	)
	return events.Ack{Status: events.StatusSuccess}
}

func (p *Processor) recordFailure(ctx context.Context, log *zap.Logger, stage string, recurringTaskID, userID int, payload any, cause error) {
	if p.journal == nil {
		return
	}
	if err := p.journal.RecordFailure(ctx, stage, recurringTaskID, userID, payload, cause); err != nil {
		log.Error("Failed to journal downstream failure",
			zap.String("stage", stage),
			zap.Error(err),
		)
	}
}
