package kafka

import (
	"context"
	"testing"

	"github.com/kiffoh/messaging-app-mongoDB/internal/domain"
	"github.com/kiffoh/messaging-app-mongoDB/internal/events"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_KeysByChat(t *testing.T) {
	fw := &fakeWriter{}
	p := &Producer{writer: fw}

	msg := domain.Message{ID: "m1", Content: "hi", ChatID: "chat-1"}
	require.NoError(t, p.Publish(context.Background(), events.MessageCreated{Message: msg}))

	require.Len(t, fw.msgs, 1)
	got := fw.msgs[0]
	assert.Equal(t, "chat-1", string(got.Key))
	require.Len(t, got.Headers, 1)
	assert.Equal(t, "newMessage", string(got.Headers[0].Value))
	assert.Contains(t, string(got.Value), `"event":"newMessage"`)

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}

func TestNewProducer(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "chat.messages")
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "chat.messages", w.Topic)
}
