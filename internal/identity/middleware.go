package identity

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/advista/advista/internal/authz"
	"github.com/advista/advista/internal/shared"
)

// SubjectMiddleware resolves the session user into an authz.Subject and
// places it in the request context. Requests without a logged-in user pass
// through without a subject; authorization-gated routes reject those later.
func SubjectMiddleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			raw := strings.TrimSpace(sess.User())
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				if logger != nil {
					logger.Error("parse session user id", slog.String("value", raw))
				}
				next.ServeHTTP(w, r)
				return
			}
			subject, err := service.ResolveSubject(r.Context(), userID)
			if err != nil {
				if logger != nil {
					logger.Warn("resolve subject", slog.Int64("user_id", userID), slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := authz.ContextWithSubject(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
