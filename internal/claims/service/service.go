// Package service orchestrates the claim workflow: batch submission,
// owner-side management, administrative review and code selectability.
//
// The service never caches claim state. Every uniqueness decision is made by
// the store at write time; reads are advisory UX hints only.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"wasmember/internal/audit"
	"wasmember/internal/claims/metrics"
	"wasmember/internal/claims/store"
	"wasmember/internal/notify"
	"wasmember/internal/registry"
)

// TxRunner executes fn inside one database transaction. The transaction is
// carried in the context handed to fn; stores pick it up transparently.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DecisionNotifier queues a decision notification for asynchronous delivery.
type DecisionNotifier interface {
	Emit(n notify.Notification)
}

// Service implements the claim workflow operations.
type Service struct {
	store    store.Store
	tx       TxRunner
	audit    *audit.Publisher
	notifier DecisionNotifier
	registry registry.Searcher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches workflow counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New wires the claim service. The audit publisher and the transaction runner
// are mandatory: review decisions must commit atomically with their audit
// entries, and that coupling is not optional.
func New(st store.Store, tx TxRunner, auditPub *audit.Publisher, notifier DecisionNotifier, searcher registry.Searcher, opts ...Option) *Service {
	s := &Service{
		store:    st,
		tx:       tx,
		audit:    auditPub,
		notifier: notifier,
		registry: searcher,
		logger:   slog.Default(),
		tracer:   otel.Tracer("wasmember/internal/claims/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) count(pick func(*metrics.Metrics)) {
	if s.metrics != nil {
		pick(s.metrics)
	}
}
