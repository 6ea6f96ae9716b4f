package middleware

import (
	"log/slog"
	"net/http"

	"github.com/caselight/caselight-api/internal/api/shared"
)

// TraceMiddleware assigns each request a trace ID, stores it on the
// context for handlers and error responses, and echoes it back in the
// X-Trace-ID header so clients can reference it when reporting problems.
// Apply it early in the chain so everything downstream sees the ID.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		w.Header().Set("X-Trace-ID", traceID)

		slog.Debug("request started",
			slog.String("trace_id", traceID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
