package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/getmockd/mockserver/pkg/logging"
)

// AccessLogHandler logs one debug record per request.
type AccessLogHandler struct {
	handler http.Handler
	log     *slog.Logger
}

// AccessLog returns a Middleware logging method, path, status and duration
// of every request at debug level.
func AccessLog(log *slog.Logger) Middleware {
	if log == nil {
		log = logging.Nop()
	}
	return func(next http.Handler) http.Handler {
		return &AccessLogHandler{handler: next, log: log}
	}
}

// ServeHTTP implements http.Handler.
func (m *AccessLogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

	m.handler.ServeHTTP(sw, r)

	m.log.Debug("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", sw.status,
		"duration", time.Since(start),
		"proto", r.Proto,
		"remote", r.RemoteAddr,
	)
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

// WriteHeader captures the status code.
func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
