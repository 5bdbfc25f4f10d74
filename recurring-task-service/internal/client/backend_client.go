package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"puretasks/contracts/events"
	"puretasks/pkg/bus"
	"puretasks/pkg/circuitbreaker"
	"puretasks/pkg/metrics"
)

const (
	createTimeout  = 30 * time.Second
	advanceTimeout = 10 * time.Second
)

// BackendClient calls the task-owning service through the bus invoker,
// guarded by a circuit breaker so a backend outage fails fast instead of
// tying up event deliveries.
type BackendClient struct {
	invoker bus.Invoker
	cb      *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewBackendClient(invoker bus.Invoker, logger *zap.Logger) *BackendClient {
	cbConfig := circuitbreaker.Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 2,
	}

	return &BackendClient{
		invoker: invoker,
		cb:      circuitbreaker.NewCircuitBreaker(cbConfig),
		logger:  logger,
	}
}

// CreateTask materializes one task instance for the user.
func (c *BackendClient) CreateTask(ctx context.Context, userID int, req events.TaskCreateRequest) (*events.TaskCreated, error) {
	var created events.TaskCreated

	err := c.call(ctx, http.MethodPost, "/api/tasks", createTimeout, req, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateNextOccurrence persists the advanced schedule and the id of the
// last created task.
func (c *BackendClient) UpdateNextOccurrence(ctx context.Context, recurringTaskID int, upd events.NextOccurrenceUpdate) error {
	path := fmt.Sprintf("/api/recurring-tasks/%d/next-occurrence", recurringTaskID)
	return c.call(ctx, http.MethodPatch, path, advanceTimeout, upd, nil)
}

func (c *BackendClient) call(ctx context.Context, method, path string, timeout time.Duration, body any, out any) error {
	return c.cb.Execute(func() error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		start := time.Now()
		err := c.invoker.Invoke(callCtx, method, path, body, out)
		metrics.RecordBackendCallLatency(method+" "+path, callStatus(err), time.Since(start))
		return err
	})
}

func callStatus(err error) string {
	if err == nil {
		return "success"
	}
	var statusErr *bus.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code >= 500 {
			return "5xx"
		}
		return fmt.Sprintf("%d", statusErr.Code)
	}
	return "error"
}
