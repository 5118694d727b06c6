package kafka

import (
	"context"
	"time"

	"github.com/kiffoh/messaging-app-mongoDB/internal/events"
	"github.com/segmentio/kafka-go"
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes message events to one topic keyed by chat id, so events of
// a chat stay on one partition.
type Producer struct {
	writer writer
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return &Producer{writer: w}
}

func (p *Producer) Publish(ctx context.Context, e events.Event) error {
	value, err := events.Encode(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:     []byte(e.Key()),
		Value:   value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "event", Value: []byte(e.Name())}},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error { return p.writer.Close() }
