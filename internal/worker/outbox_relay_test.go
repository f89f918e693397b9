//go:build unit

package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"course-enrollment/internal/usecase/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Claim(ctx context.Context, limit int) ([]shared.OutboxMessage, error) {
	args := m.Called(ctx, limit)
	msgs, _ := args.Get(0).([]shared.OutboxMessage)
	return msgs, args.Error(1)
}

func (m *mockQueue) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, id, eventType string, payload []byte) error {
	return m.Called(ctx, id, eventType, payload).Error(0)
}

type txStore struct {
	queue shared.OutboxQueue
}

func (s txStore) WithinOutbox(ctx context.Context, fn func(ctx context.Context, outbox shared.OutboxQueue) error) error {
	return fn(ctx, s.queue)
}

func newRelay(queue *mockQueue, pub *mockPublisher) *OutboxRelay {
	return NewOutboxRelay(txStore{queue: queue}, pub, time.Second, 10, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProcessBatch_PublishesThenDeletes(t *testing.T) {
	queue := new(mockQueue)
	pub := new(mockPublisher)

	msgs := []shared.OutboxMessage{
		{ID: "ev-1", EventType: "enrollment.created", Payload: []byte(`{"id":"ev-1"}`)},
		{ID: "ev-2", EventType: "enrollment.created", Payload: []byte(`{"id":"ev-2"}`)},
	}
	queue.On("Claim", mock.Anything, 10).Return(msgs, nil)
	for _, m := range msgs {
		pub.On("Publish", mock.Anything, m.ID, m.EventType, m.Payload).Return(nil).Once()
		queue.On("Delete", mock.Anything, m.ID).Return(nil).Once()
	}

	n, err := newRelay(queue, pub).ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	queue.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestProcessBatch_FailedPublishKeepsEvent(t *testing.T) {
	queue := new(mockQueue)
	pub := new(mockPublisher)

	msgs := []shared.OutboxMessage{
		{ID: "ev-1", EventType: "enrollment.created"},
		{ID: "ev-2", EventType: "enrollment.created"},
	}
	queue.On("Claim", mock.Anything, 10).Return(msgs, nil)
	pub.On("Publish", mock.Anything, "ev-1", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	pub.On("Publish", mock.Anything, "ev-2", mock.Anything, mock.Anything).Return(nil)
	queue.On("Delete", mock.Anything, "ev-2").Return(nil)

	n, err := newRelay(queue, pub).ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	queue.AssertNotCalled(t, "Delete", mock.Anything, "ev-1")
}

func TestProcessBatch_ClaimFailure(t *testing.T) {
	queue := new(mockQueue)
	pub := new(mockPublisher)
	queue.On("Claim", mock.Anything, 10).Return(nil, errors.New("db down"))

	n, err := newRelay(queue, pub).ProcessBatch(context.Background())
	require.Error(t, err)
	assert.Zero(t, n)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_StopsOnCancel(t *testing.T) {
	queue := new(mockQueue)
	pub := new(mockPublisher)
	queue.On("Claim", mock.Anything, 10).Return([]shared.OutboxMessage{}, nil)

	relay := NewOutboxRelay(txStore{queue: queue}, pub, 5*time.Millisecond, 10, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop after cancel")
	}
}
