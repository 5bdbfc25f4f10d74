package redelivery

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"puretasks/contracts/events"
	"puretasks/pkg/metrics"
	"puretasks/recurring-task-service/internal/repository"
	"puretasks/recurring-task-service/internal/service"
)

const fetchLimit = 50

// Store is the journal surface the dispatcher needs.
type Store interface {
	GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]repository.FailedEvent, error)
	MarkResolved(ctx context.Context, id int) error
	IncrementRetry(ctx context.Context, id int) error
	MarkFailed(ctx context.Context, id int) error
}

// Dispatcher polls the failed-event journal and replays entries: create
// failures go back through the full processor, advance failures retry
// only the schedule update.
type Dispatcher struct {
	store      Store
	processor  *service.Processor
	backend    service.BackendClient
	interval   time.Duration
	maxRetries int
	logger     *zap.Logger
}

func NewDispatcher(store Store, processor *service.Processor, backend service.BackendClient, interval time.Duration, maxRetries int, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:      store,
		processor:  processor,
		backend:    backend,
		interval:   interval,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Start blocks polling the journal until ctx is cancelled. Run it in its
// own goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("Redelivery dispatcher started",
		zap.Duration("interval", d.interval),
		zap.Int("max_retries", d.maxRetries),
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Redelivery dispatcher stopped")
			return
		case <-ticker.C:
			if err := d.dispatchPending(ctx); err != nil {
				d.logger.Error("Redelivery pass failed", zap.Error(err))
			}
		}
	}
}

func (d *Dispatcher) dispatchPending(ctx context.Context) error {
	pending, err := d.store.GetPendingEvents(ctx, d.maxRetries, fetchLimit)
	if err != nil {
		return err
	}

	for _, evt := range pending {
		if d.replay(ctx, evt) {
			if err := d.store.MarkResolved(ctx, evt.ID); err != nil {
				d.logger.Error("Failed to mark journal entry resolved",
					zap.Int("id", evt.ID), zap.Error(err))
			}
			metrics.RedeliveryCount.WithLabelValues("recurring-task-service", "retried").Inc()
			continue
		}

		if evt.RetryCount+1 >= d.maxRetries {
			d.logger.Warn("Journal entry exhausted retries, giving up",
				zap.Int("id", evt.ID),
				zap.Int("recurring_task_id", evt.RecurringTaskID),
				zap.String("stage", evt.Stage),
			)
			if err := d.store.MarkFailed(ctx, evt.ID); err != nil {
				d.logger.Error("Failed to mark journal entry failed",
					zap.Int("id", evt.ID), zap.Error(err))
			}
			metrics.RedeliveryCount.WithLabelValues("recurring-task-service", "gave_up").Inc()
			continue
		}

		if err := d.store.IncrementRetry(ctx, evt.ID); err != nil {
			d.logger.Error("Failed to bump journal retry count",
				zap.Int("id", evt.ID), zap.Error(err))
		}
	}
	return nil
}

// replay reports whether the entry is done and can be resolved.
func (d *Dispatcher) replay(ctx context.Context, entry repository.FailedEvent) bool {
	switch entry.Stage {
	case service.StageCreate:
		var evt events.RecurringTaskEvent
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			// Unreadable payload will never replay; resolve it away.
			d.logger.Error("Journaled event payload is unreadable, dropping",
				zap.Int("id", entry.ID), zap.Error(err))
			return true
		}
		ack := d.processor.Process(ctx, evt)
		return ack.Status != events.StatusError
	case service.StageAdvance:
		var rec service.AdvanceRecord
		if err := json.Unmarshal(entry.Payload, &rec); err != nil {
			d.logger.Error("Journaled advance payload is unreadable, dropping",
				zap.Int("id", entry.ID), zap.Error(err))
			return true
		}
		err := d.backend.UpdateNextOccurrence(ctx, rec.RecurringTaskID, events.NextOccurrenceUpdate{
			NextOccurrence:    rec.NextOccurrence,
			LastCreatedTaskID: rec.LastCreatedTaskID,
		})
		if err != nil {
			d.logger.Error("Advance replay failed",
				zap.Int("recurring_task_id", rec.RecurringTaskID), zap.Error(err))
			return false
		}
		return true
	default:
		d.logger.Error("Unknown journal stage, dropping",
			zap.Int("id", entry.ID), zap.String("stage", entry.Stage))
		return true
	}
}
