package notify

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	id "wasmember/pkg/domain"
)

type recordingNotifier struct {
	mu   sync.Mutex
	got  []Notification
	done chan struct{}
	want int
}

func (r *recordingNotifier) NotifyDecision(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	if len(r.got) == r.want {
		close(r.done)
	}
	return nil
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	rec := &recordingNotifier{done: make(chan struct{}), want: 3}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	d := NewDispatcher(rec, logger, 8)
	defer d.Close()

	notifications := []Notification{
		{ClaimID: id.ClaimID(uuid.New()), Outcome: OutcomeApproved},
		{ClaimID: id.ClaimID(uuid.New()), Outcome: OutcomeRejected, Reason: "illegible"},
		{ClaimID: id.ClaimID(uuid.New()), Outcome: OutcomeApproved},
	}
	for _, n := range notifications {
		d.Emit(n)
	}

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for deliveries")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, notifications, rec.got)
}

func TestDispatcherCloseDrains(t *testing.T) {
	rec := &recordingNotifier{done: make(chan struct{}), want: 5}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	d := NewDispatcher(rec, logger, 8)

	for i := 0; i < 5; i++ {
		d.Emit(Notification{ClaimID: id.ClaimID(uuid.New()), Outcome: OutcomeApproved})
	}
	d.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.got, 5, "Close must drain queued notifications")
}

type failingNotifier struct{}

func (failingNotifier) NotifyDecision(context.Context, Notification) error {
	return context.DeadlineExceeded
}

type countingFailures struct {
	mu sync.Mutex
	n  int
}

func (c *countingFailures) Inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countingFailures) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestDispatcherCountsDeliveryFailures(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	failures := &countingFailures{}
	d := NewDispatcher(failingNotifier{}, logger, 8, WithFailureCounter(failures))

	d.Emit(Notification{ClaimID: id.ClaimID(uuid.New()), Outcome: OutcomeApproved})
	d.Emit(Notification{ClaimID: id.ClaimID(uuid.New()), Outcome: OutcomeRejected})
	d.Close()

	require.Equal(t, 2, failures.count())
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	d := NewDispatcher(&recordingNotifier{done: make(chan struct{}), want: -1}, logger, 1)
	d.Close()
	d.Close()
}
