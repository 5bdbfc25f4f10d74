package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"puretasks/contracts/events"
	"puretasks/pkg/trace"
	"puretasks/recurring-task-service/internal/handler"
	"puretasks/recurring-task-service/internal/service"
)

type stubBackend struct {
	createCount  int
	advanceCount int
}

func (s *stubBackend) CreateTask(_ context.Context, _ int, _ events.TaskCreateRequest) (*events.TaskCreated, error) {
	s.createCount++
	return &events.TaskCreated{ID: 1}, nil
}

func (s *stubBackend) UpdateNextOccurrence(_ context.Context, _ int, _ events.NextOccurrenceUpdate) error {
	s.advanceCount++
	return nil
}

func newTestRouter(t *testing.T, backend service.BackendClient) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)
	processor := service.NewProcessor(backend, nil, nil, zap.NewNop())
	return NewRouter(handler.NewTaskEventHandler(processor, zap.NewNop()), "kafka-pubsub", nil)
}

func TestTaskEventsRouteAcksIgnoredEvent(t *testing.T) {
	backend := &stubBackend{}
	router := newTestRouter(t, backend)

	body := `{"event_id":"e1","event_type":"task_created","user_id":1}`
	req := httptest.NewRequest(http.MethodPost, "/task-events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var ack events.Ack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	require.Equal(t, events.StatusIgnored, ack.Status)
	require.Zero(t, backend.createCount)
	require.Zero(t, backend.advanceCount)
}

func TestTaskEventsRouteProcessesDueEvent(t *testing.T) {
	backend := &stubBackend{}
	router := newTestRouter(t, backend)

	evt := events.RecurringTaskEvent{
		EventID:         "e2",
		EventType:       "recurring_task.due",
		UserID:          1,
		RecurringTaskID: 5,
		Data: events.RecurringTaskData{
			RecurringTaskID:    5,
			Title:              "Backup database",
			Status:             "todo",
			Priority:           "high",
			RecurrencePattern:  "daily",
			RecurrenceInterval: 1,
			NextOccurrence:     time.Now().Add(-time.Hour),
			IsActive:           true,
		},
	}
	body, err := json.Marshal(map[string]any{"data": evt})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/task-events", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var ack events.Ack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	require.Equal(t, events.StatusSuccess, ack.Status)
	require.Equal(t, 1, backend.createCount)
	require.Equal(t, 1, backend.advanceCount)
}

func TestTaskEventsRouteRejectsMalformedEnvelope(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})

	req := httptest.NewRequest(http.MethodPost, "/task-events", strings.NewReader(`{broken`))
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSubscribeRouteAdvertisesTaskEventsTopic(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})

	req := httptest.NewRequest(http.MethodGet, "/dapr/subscribe", nil)
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var subs []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
	require.Len(t, subs, 1)
	require.Equal(t, "kafka-pubsub", subs[0]["pubsubname"])
	require.Equal(t, "task-events", subs[0]["topic"])
	require.Equal(t, "/task-events", subs[0]["route"])
}

func TestHealthRoute(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "healthy", resp["status"])
	require.Equal(t, "recurring-task-service", resp["service"])
	require.NotEmpty(t, resp["timestamp"])
}

func TestTraceHeaderIsEchoed(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(trace.Header, "abc123")
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)

	require.Equal(t, "abc123", rec.Header().Get(trace.Header))
}
