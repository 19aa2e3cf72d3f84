package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/tasklist-api/internal/api/shared"
	"github.com/phrazzld/tasklist-api/internal/platform/logger"
)

// TraceMiddleware assigns a trace id to the request and stores a logger
// tagged with it in the context. Apply it before any other middleware.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		log := logger.FromContext(ctx).With(slog.String("trace_id", traceID))
		ctx = logger.WithLogger(ctx, log)

		log.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		w.Header().Set("X-Trace-ID", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
