package redelivery

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"puretasks/contracts/events"
	"puretasks/recurring-task-service/internal/repository"
	"puretasks/recurring-task-service/internal/service"
)

type fakeStore struct {
	pending     []repository.FailedEvent
	resolved    []int
	failed      []int
	incremented []int
}

func (f *fakeStore) GetPendingEvents(_ context.Context, _, _ int) ([]repository.FailedEvent, error) {
	return f.pending, nil
}

func (f *fakeStore) MarkResolved(_ context.Context, id int) error {
	f.resolved = append(f.resolved, id)
	return nil
}

func (f *fakeStore) IncrementRetry(_ context.Context, id int) error {
	f.incremented = append(f.incremented, id)
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, id int) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeBackend struct {
	calls      []string
	advanceErr error
	advances   []events.NextOccurrenceUpdate
}

func (f *fakeBackend) CreateTask(_ context.Context, _ int, _ events.TaskCreateRequest) (*events.TaskCreated, error) {
	f.calls = append(f.calls, "create")
	return &events.TaskCreated{ID: 1}, nil
}

func (f *fakeBackend) UpdateNextOccurrence(_ context.Context, _ int, upd events.NextOccurrenceUpdate) error {
	f.calls = append(f.calls, "advance")
	f.advances = append(f.advances, upd)
	return f.advanceErr
}

func newTestDispatcher(store Store, backend service.BackendClient) *Dispatcher {
	processor := service.NewProcessor(backend, nil, nil, zap.NewNop())
	return NewDispatcher(store, processor, backend, time.Minute, 3, zap.NewNop())
}

func advanceEntry(t *testing.T, id, retryCount int) repository.FailedEvent {
	t.Helper()
	taskID := 7
	payload, err := json.Marshal(service.AdvanceRecord{
		RecurringTaskID:   42,
		NextOccurrence:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		LastCreatedTaskID: &taskID,
	})
	require.NoError(t, err)
	return repository.FailedEvent{
		ID:              id,
		RecurringTaskID: 42,
		UserID:          7,
		Stage:           service.StageAdvance,
		Payload:         payload,
		RetryCount:      retryCount,
		Status:          "pending",
	}
}

func TestDispatchReplaysAdvanceAndResolves(t *testing.T) {
	backend := &fakeBackend{}
	store := &fakeStore{pending: []repository.FailedEvent{advanceEntry(t, 1, 0)}}
	d := newTestDispatcher(store, backend)

	require.NoError(t, d.dispatchPending(context.Background()))

	require.Equal(t, []string{"advance"}, backend.calls)
	require.Equal(t, []int{1}, store.resolved)
	require.Empty(t, store.incremented)
	require.Empty(t, store.failed)

	require.Len(t, backend.advances, 1)
	require.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), backend.advances[0].NextOccurrence)
	require.NotNil(t, backend.advances[0].LastCreatedTaskID)
	require.Equal(t, 7, *backend.advances[0].LastCreatedTaskID)
}

func TestDispatchIncrementsRetryOnFailure(t *testing.T) {
	backend := &fakeBackend{advanceErr: errors.New("backend down")}
	store := &fakeStore{pending: []repository.FailedEvent{advanceEntry(t, 2, 0)}}
	d := newTestDispatcher(store, backend)

	require.NoError(t, d.dispatchPending(context.Background()))

	require.Equal(t, []int{2}, store.incremented)
	require.Empty(t, store.resolved)
	require.Empty(t, store.failed)
}

func TestDispatchGivesUpAfterMaxRetries(t *testing.T) {
	backend := &fakeBackend{advanceErr: errors.New("backend down")}
	store := &fakeStore{pending: []repository.FailedEvent{advanceEntry(t, 3, 2)}}
	d := newTestDispatcher(store, backend)

	require.NoError(t, d.dispatchPending(context.Background()))

	require.Equal(t, []int{3}, store.failed)
	require.Empty(t, store.resolved)
	require.Empty(t, store.incremented)
}

func TestDispatchReplaysCreateThroughProcessor(t *testing.T) {
	evt := events.RecurringTaskEvent{
		EventID:         "evt-1",
		EventType:       "recurring_task.due",
		UserID:          7,
		RecurringTaskID: 42,
		Data: events.RecurringTaskData{
			RecurringTaskID:    42,
			Title:              "Water the plants",
			Status:             "todo",
			Priority:           "medium",
			RecurrencePattern:  "daily",
			RecurrenceInterval: 1,
			NextOccurrence:     time.Now().Add(-time.Hour),
			IsActive:           true,
		},
	}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	backend := &fakeBackend{}
	store := &fakeStore{pending: []repository.FailedEvent{{
		ID:              4,
		RecurringTaskID: 42,
		UserID:          7,
		Stage:           service.StageCreate,
		Payload:         payload,
		Status:          "pending",
	}}}
	d := newTestDispatcher(store, backend)

	require.NoError(t, d.dispatchPending(context.Background()))

	require.Equal(t, []string{"create", "advance"}, backend.calls)
	require.Equal(t, []int{4}, store.resolved)
}

func TestDispatchDropsUnreadablePayload(t *testing.T) {
	backend := &fakeBackend{}
	store := &fakeStore{pending: []repository.FailedEvent{{
		ID:      5,
		Stage:   service.StageCreate,
		Payload: json.RawMessage(`{not json`),
		Status:  "pending",
	}}}
	d := newTestDispatcher(store, backend)

	require.NoError(t, d.dispatchPending(context.Background()))

	require.Empty(t, backend.calls)
	require.Equal(t, []int{5}, store.resolved)
}
