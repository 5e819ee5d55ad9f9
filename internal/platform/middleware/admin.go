package middleware

import (
	"context"
	"log/slog"
	"net/http"

	id "wasmember/pkg/domain"
	"wasmember/pkg/requestcontext"
	"wasmember/pkg/secrets"
)

// GetAdminID retrieves the acting administrator's ID from the context.
func GetAdminID(ctx context.Context) id.AdminID {
	return requestcontext.AdminID(ctx)
}

// RequireAdminToken gates admin routes behind a shared token (bcrypt hash in
// config) plus an X-Admin-ID header identifying the acting administrator for
// the audit trail. An empty hash disables the admin surface entirely.
func RequireAdminToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			if tokenHash == "" {
				logger.WarnContext(ctx, "admin route hit but no admin token configured",
					"request_id", requestID,
				)
				w.WriteHeader(http.StatusForbidden)
				return
			}

			if err := secrets.Verify(r.Header.Get("X-Admin-Token"), tokenHash); err != nil {
				logger.WarnContext(ctx, "forbidden - invalid admin token",
					"request_id", requestID,
				)
				w.WriteHeader(http.StatusForbidden)
				return
			}

			adminID, err := id.ParseAdminID(r.Header.Get("X-Admin-ID"))
			if err != nil {
				logger.WarnContext(ctx, "forbidden - missing or malformed X-Admin-ID",
					"request_id", requestID,
				)
				w.WriteHeader(http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithAdminID(ctx, adminID)))
		})
	}
}
