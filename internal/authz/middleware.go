package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/advista/advista/internal/platform/httpx"
)

type subjectContextKey struct{}

// ContextWithSubject stores the resolved subject in context.
func ContextWithSubject(ctx context.Context, subject Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, subject)
}

// SubjectFromContext extracts the subject placed by the identity middleware.
func SubjectFromContext(ctx context.Context) (Subject, bool) {
	subject, ok := ctx.Value(subjectContextKey{}).(Subject)
	return subject, ok
}

// Middleware gates HTTP routes on the authorization engine.
type Middleware struct {
	Engine *Engine
	Logger *slog.Logger
}

// Require rejects requests whose subject fails Check for (module, action).
// Denials surface uniformly as 403 except fail-closed store failures, which
// are 503 so clients retry with backoff.
func (m Middleware) Require(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := SubjectFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			d := m.Engine.Check(r.Context(), subject, module, action)
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("request denied",
					slog.String("path", r.URL.Path),
					slog.String("module", module),
					slog.String("action", action),
					slog.String("reason", string(d.Reason)))
			}
			httpx.RespondError(w, d.Err())
		})
	}
}
