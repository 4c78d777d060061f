package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ceramics-booking/metrics"
)

// Dispatcher sends notifications in the background so callers never wait on the
// e-mail provider. Failures are logged and counted, never returned.
type Dispatcher struct {
	sink    Sink
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(sink Sink, logger *zap.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{sink: sink, logger: logger, timeout: timeout}
}

// Dispatch sends msg asynchronously. kind labels the metric ("booking", "event_booking").
func (d *Dispatcher) Dispatch(kind string, msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("notification panicked", zap.String("kind", kind), zap.Any("panic", r))
				metrics.TrackNotification(kind, "failed")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.sink.Send(ctx, msg); err != nil {
			d.logger.Warn("notification failed",
				zap.String("kind", kind),
				zap.String("subject", msg.Subject),
				zap.Error(err))
			metrics.TrackNotification(kind, "failed")
			return
		}
		metrics.TrackNotification(kind, "sent")
	}()
}

// Drain waits for in-flight notifications or until ctx is done.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
