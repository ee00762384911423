package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comments-service/internal/model"
	"comments-service/pkg/logger"
)

type fakeBroker struct {
	mu       sync.Mutex
	messages []fakeMessage
	err      error
}

type fakeMessage struct {
	topic string
	key   []byte
	value []byte
}

func (b *fakeBroker) SendMessage(topic string, key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.messages = append(b.messages, fakeMessage{topic: topic, key: key, value: value})
	return nil
}

func (b *fakeBroker) sent() []fakeMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]fakeMessage(nil), b.messages...)
}

func TestPublishPendingSendsOneEventPerComment(t *testing.T) {
	broker := &fakeBroker{}
	publisher := NewEventPublisher(broker, "comments.events", logger.NewNopLogger())

	c := model.NewComment(10, "alice", "alice@example.com", "", "hello", 0, 0)
	publisher.PublishPending(context.Background(), c)

	msgs := broker.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, "comments.events", msgs[0].topic)
	assert.Equal(t, []byte("10"), msgs[0].key)

	var envelope model.IntegrationEvent
	require.NoError(t, json.Unmarshal(msgs[0].value, &envelope))
	assert.Equal(t, model.EventTypeCommentCreated, envelope.Type)
	require.NotNil(t, envelope.CommentCreated)
	assert.Equal(t, int64(10), envelope.CommentCreated.CommentID)
}

func TestPublishPendingHarvestsEventsOnce(t *testing.T) {
	broker := &fakeBroker{}
	publisher := NewEventPublisher(broker, "comments.events", logger.NewNopLogger())

	c := model.NewComment(10, "alice", "alice@example.com", "", "hello", 0, 0)
	publisher.PublishPending(context.Background(), c)
	publisher.PublishPending(context.Background(), c)

	assert.Len(t, broker.sent(), 1)
	assert.False(t, c.HasPendingEvents())
}

func TestPublishPendingPreservesRequestOrder(t *testing.T) {
	broker := &fakeBroker{}
	publisher := NewEventPublisher(broker, "comments.events", logger.NewNopLogger())

	first := model.NewComment(1, "alice", "alice@example.com", "", "first", 0, 0)
	second := model.NewComment(2, "alice", "alice@example.com", "", "second", 0, 0)
	publisher.PublishPending(context.Background(), first, second)

	msgs := broker.sent()
	require.Len(t, msgs, 2)
	assert.Equal(t, []byte("1"), msgs[0].key)
	assert.Equal(t, []byte("2"), msgs[1].key)
}

func TestPublishPendingSwallowsBrokerErrors(t *testing.T) {
	broker := &fakeBroker{err: errors.New("broker down")}
	publisher := NewEventPublisher(broker, "comments.events", logger.NewNopLogger())

	c := model.NewComment(10, "alice", "alice@example.com", "", "hello", 0, 0)

	assert.NotPanics(t, func() {
		publisher.PublishPending(context.Background(), c)
	})
	assert.False(t, c.HasPendingEvents())
}
