// Package claims wires the claim workflow: service construction and HTTP
// handler registration for account and admin surfaces.
package claims

import (
	"log/slog"

	"wasmember/internal/audit"
	"wasmember/internal/claims/handler"
	"wasmember/internal/claims/service"
	"wasmember/internal/claims/store"
	"wasmember/internal/documents"
	"wasmember/internal/platform/metrics"
	"wasmember/internal/platform/middleware"
	platformredis "wasmember/internal/platform/redis"
	"wasmember/internal/registry"
)

// Service orchestrates the claim workflow.
type Service = service.Service

// Handler wires HTTP endpoints to the claim service.
type Handler = handler.Handler

// NewService constructs the claim service with required dependencies.
func NewService(
	st store.Store,
	tx service.TxRunner,
	auditPub *audit.Publisher,
	notifier service.DecisionNotifier,
	searcher registry.Searcher,
	opts ...service.Option,
) *Service {
	return service.New(st, tx, auditPub, notifier, searcher, opts...)
}

// NewHandler constructs the HTTP handler for account and admin claim routes.
func NewHandler(
	s *Service,
	docs documents.Store,
	logger *slog.Logger,
	m *metrics.Metrics,
	jwtValidator middleware.TokenValidator,
	adminTokenHash string,
	redis *platformredis.Client,
	submitPerMin int,
) *Handler {
	return handler.New(s, docs, logger, m, jwtValidator, adminTokenHash, redis, submitPerMin)
}
