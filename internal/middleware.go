package internal

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// Middleware logs every request once the handler is done with it. Websocket
// sessions are logged when the connection closes.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		slog.InfoContext(r.Context(), "handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration)
	})
}
