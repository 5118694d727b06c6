package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Fanout hands every event to all sinks on background goroutines and returns
// immediately. Sink failures are logged and never reach the caller.
type Fanout struct {
	sinks   []Publisher
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewFanout(logger *zap.Logger, timeout time.Duration, sinks ...Publisher) *Fanout {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fanout{sinks: sinks, timeout: timeout, logger: logger}
}

func (f *Fanout) Publish(ctx context.Context, e Event) error {
	// the request context ends with the request; delivery must outlive it
	base := context.WithoutCancel(ctx)
	for _, sink := range f.sinks {
		f.wg.Add(1)
		go func(sink Publisher) {
			defer f.wg.Done()
			ctx, cancel := context.WithTimeout(base, f.timeout)
			defer cancel()
			if err := sink.Publish(ctx, e); err != nil {
				f.logger.Warn("event delivery failed",
					zap.String("event", e.Name()),
					zap.String("chat_id", e.Key()),
					zap.Error(err),
				)
			}
		}(sink)
	}
	return nil
}

// Wait blocks until all in-flight deliveries have finished.
func (f *Fanout) Wait() {
	f.wg.Wait()
}
