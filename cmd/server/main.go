package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wasmember/internal/audit"
	"wasmember/internal/audit/outbox"
	auditpg "wasmember/internal/audit/store/postgres"
	"wasmember/internal/claims"
	claimsmetrics "wasmember/internal/claims/metrics"
	"wasmember/internal/claims/service"
	claimstore "wasmember/internal/claims/store"
	"wasmember/internal/documents"
	"wasmember/internal/notify"
	"wasmember/internal/platform/config"
	"wasmember/internal/platform/httpserver"
	platformjwt "wasmember/internal/platform/jwt"
	"wasmember/internal/platform/logger"
	"wasmember/internal/platform/metrics"
	platformredis "wasmember/internal/platform/redis"
	"wasmember/internal/registry"
	"wasmember/pkg/platform/httputil"
)

const notificationBuffer = 256

// main wires dependencies and owns the process lifecycle. Business logic
// lives under internal/.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		log.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		// The submission limiter fails open without Redis; the claim flow
		// stays available.
		log.Warn("redis unavailable, rate limiting disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	platformMetrics := metrics.New()
	claimMetrics := claimsmetrics.New()

	dispatcher := notify.NewDispatcher(&notify.LogNotifier{Logger: log}, log, notificationBuffer,
		notify.WithFailureCounter(claimMetrics.NotifyFailure))
	defer dispatcher.Close()

	svc := claims.NewService(
		claimstore.NewPostgres(db),
		newClaimsPostgresTx(db),
		audit.NewPublisher(auditpg.New(db)),
		dispatcher,
		registry.NewClient(cfg.RegistryBaseURL),
		service.WithLogger(log),
		service.WithMetrics(claimMetrics),
	)

	handler := claims.NewHandler(
		svc,
		documents.NewClient(cfg.DocumentsBaseURL),
		log,
		platformMetrics,
		platformjwt.NewValidator(cfg.JWTSigningKey),
		cfg.AdminTokenHash,
		redisClient,
		cfg.SubmitRatePerMinute,
	)

	router := chi.NewRouter()
	handler.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthHandler(db, redisClient))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.Kafka.Brokers) > 0 {
		worker, err := outbox.New(db, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, cfg.Kafka.PollInterval, log)
		if err != nil {
			log.Error("outbox worker setup failed", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("outbox worker stopped", "error", err)
			}
		}()
	} else {
		log.Info("kafka brokers not configured, decision feed disabled")
	}

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("starting wasmember", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func healthHandler(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"reason": "database",
			})
			return
		}
		body := map[string]string{"status": "ok"}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				body["status"] = "degraded"
				body["reason"] = "redis"
			}
		}
		httputil.WriteJSON(w, http.StatusOK, body)
	}
}
