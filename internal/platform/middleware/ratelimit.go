package middleware

import (
	"log/slog"
	"net/http"
	"time"

	platformredis "wasmember/internal/platform/redis"
)

// SubmitRateLimit applies a fixed-window per-account limit to submission
// endpoints using Redis INCR. When Redis is not configured or unreachable the
// limiter fails open: availability of the claim flow wins over throttling.
func SubmitRateLimit(client *platformredis.Client, perMinute int, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil || perMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			accountID := GetAccountID(ctx)
			if accountID.IsNil() {
				next.ServeHTTP(w, r)
				return
			}

			key := "ratelimit:submit:" + accountID.String() + ":" + time.Now().UTC().Format("200601021504")
			count, err := client.Incr(ctx, key).Result()
			if err != nil {
				logger.WarnContext(ctx, "rate limiter unavailable, failing open",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				client.Expire(ctx, key, time.Minute)
			}
			if count > int64(perMinute) {
				logger.WarnContext(ctx, "submission rate limit exceeded",
					"account_id", accountID.String(),
					"request_id", GetRequestID(ctx),
				)
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
