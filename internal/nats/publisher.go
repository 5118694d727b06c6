package nats

import (
	"context"
	"time"

	"github.com/kiffoh/messaging-app-mongoDB/internal/events"
	"github.com/nats-io/nats.go"
)

type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// Publisher sends message events to <prefix>.<event name>.
type Publisher struct {
	nc     conn
	prefix string
}

func NewPublisher(url, prefix, name string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, prefix: prefix}, nil
}

func (p *Publisher) Subject(e events.Event) string {
	return p.prefix + "." + e.Name()
}

func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := events.Encode(e)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.Subject(e), b)
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.nc.Drain()
}
