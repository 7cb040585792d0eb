package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/getmockd/mockserver/pkg/httputil"
	"github.com/getmockd/mockserver/pkg/logging"
)

// Recover returns a Middleware that turns a panicking handler into a 500
// response for that request only. http.ErrAbortHandler is re-raised so
// net/http can abort the connection as the handler intended.
func Recover(log *slog.Logger) Middleware {
	if log == nil {
		log = logging.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				log.Error("handler panicked",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				httputil.WriteInternalError(w, httputil.CodeInternalError, "internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
