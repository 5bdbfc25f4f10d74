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
	"puretasks/notification-service/internal/handler"
	"puretasks/notification-service/internal/service"
)

type stubBackend struct {
	user       *events.User
	sentEmails []events.EmailNotificationRequest
}

func (s *stubBackend) GetUser(_ context.Context, _ int) (*events.User, error) {
	return s.user, nil
}

func (s *stubBackend) SendEmail(_ context.Context, req events.EmailNotificationRequest) error {
	s.sentEmails = append(s.sentEmails, req)
	return nil
}

func newTestRouter(t *testing.T, backend service.BackendClient) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)
	processor := service.NewProcessor(backend, nil, zap.NewNop())
	return NewRouter(handler.NewReminderEventHandler(processor, zap.NewNop()), "kafka-pubsub")
}

func TestRemindersRouteDispatchesEmail(t *testing.T) {
	backend := &stubBackend{user: &events.User{ID: 3, Email: "sam@example.com"}}
	router := newTestRouter(t, backend)

	evt := events.ReminderEvent{
		EventID:    "e1",
		EventType:  "reminder.due",
		UserID:     3,
		ReminderID: 11,
		TaskID:     99,
		Data: events.ReminderData{
			ReminderID:           11,
			TaskID:               99,
			TaskTitle:            "Submit quarterly report",
			RemindAt:             time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
			ReminderType:         "due_soon",
			NotificationChannels: "email",
		},
	}
	body, err := json.Marshal(map[string]any{"data": evt})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/reminders", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var ack events.Ack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	require.Equal(t, events.StatusSuccess, ack.Status)
	require.Len(t, backend.sentEmails, 1)
	require.Equal(t, "sam@example.com", backend.sentEmails[0].ToEmail)
}

func TestRemindersRouteRejectsMalformedEnvelope(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})

	req := httptest.NewRequest(http.MethodPost, "/reminders", strings.NewReader(`{broken`))
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSubscribeRouteAdvertisesRemindersTopic(t *testing.T) {
	router := newTestRouter(t, &stubBackend{})

	req := httptest.NewRequest(http.MethodGet, "/dapr/subscribe", nil)
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var subs []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
	require.Len(t, subs, 1)
	require.Equal(t, "kafka-pubsub", subs[0]["pubsubname"])
	require.Equal(t, "reminders", subs[0]["topic"])
	require.Equal(t, "/reminders", subs[0]["route"])
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
	require.Equal(t, "notification-service", resp["service"])
}
