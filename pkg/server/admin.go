package server

import "net/http"

// adminStopHandler answers any request on AdminStopPath with 202 Accepted and
// then stops the server. The response is flushed before Stop is called;
// Stop never blocks, so the connection carrying the response is drained like
// any other.
func (s *Server) adminStopHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("received command to stop server",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
		)

		w.Header().Set("Connection", "close")
		w.WriteHeader(http.StatusAccepted)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		s.Stop()
	})
}
