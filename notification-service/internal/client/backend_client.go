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
	lookupTimeout = 10 * time.Second
	sendTimeout   = 30 * time.Second
)

// BackendClient resolves users and dispatches email through the
// task-owning service, guarded by a circuit breaker.
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

func (c *BackendClient) GetUser(ctx context.Context, userID int) (*events.User, error) {
	var user events.User

	path := fmt.Sprintf("/api/users/%d", userID)
	if err := c.call(ctx, http.MethodGet, path, lookupTimeout, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *BackendClient) SendEmail(ctx context.Context, req events.EmailNotificationRequest) error {
	return c.call(ctx, http.MethodPost, "/api/notifications/send-email", sendTimeout, req, nil)
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
