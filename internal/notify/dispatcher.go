package notify

import (
	"context"
	"log/slog"
	"sync"
)

// FailureCounter counts deliveries that could not be made. A prometheus
// counter satisfies it.
type FailureCounter interface {
	Inc()
}

// Dispatcher decouples notification delivery from the request path. Emit
// never blocks the caller: when the buffer is full the notification is
// dropped with a warning, because this channel is advisory by contract.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
	failures FailureCounter
	inbox    chan Notification
	done     chan struct{}
	closeOne sync.Once
}

// NewDispatcher starts the delivery goroutine with the given buffer size.
func NewDispatcher(notifier Notifier, logger *slog.Logger, buffer int, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		notifier: notifier,
		logger:   logger,
		inbox:    make(chan Notification, buffer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.run()
	return d
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithFailureCounter counts dropped and failed deliveries.
func WithFailureCounter(c FailureCounter) DispatcherOption {
	return func(d *Dispatcher) { d.failures = c }
}

// Emit queues a notification for delivery.
func (d *Dispatcher) Emit(n Notification) {
	select {
	case d.inbox <- n:
	default:
		d.logger.Warn("notification buffer full, dropping",
			"claim_id", n.ClaimID.String(),
			"outcome", string(n.Outcome),
		)
		d.countFailure()
	}
}

// Close stops accepting notifications and drains the buffer.
func (d *Dispatcher) Close() {
	d.closeOne.Do(func() {
		close(d.inbox)
		<-d.done
	})
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.inbox {
		if err := d.notifier.NotifyDecision(context.Background(), n); err != nil {
			d.logger.Error("notification delivery failed",
				"claim_id", n.ClaimID.String(),
				"outcome", string(n.Outcome),
				"error", err,
			)
			d.countFailure()
		}
	}
}

func (d *Dispatcher) countFailure() {
	if d.failures != nil {
		d.failures.Inc()
	}
}
