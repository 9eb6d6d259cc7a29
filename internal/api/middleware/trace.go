// Package middleware provides HTTP middleware for tracing and
// authentication.
package middleware

import (
	"net/http"

	"github.com/ecomroutine/ecomroutine-api/internal/api/shared"
)

// TraceMiddleware attaches a trace ID to each request. An incoming
// X-Trace-ID header is honored so IDs survive proxy hops; otherwise one is
// generated. The ID is echoed back on the response.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context(), r.Header.Get("X-Trace-ID"))
		w.Header().Set("X-Trace-ID", shared.GetTraceID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
