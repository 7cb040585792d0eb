package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/getmockd/mockserver/pkg/httputil"
	"github.com/getmockd/mockserver/pkg/logging"
)

// DefaultMaxBodySize is the request body limit applied by the Adapter.
const DefaultMaxBodySize int64 = 10 << 20

// Adapter exposes a Handler as an http.Handler.
type Adapter struct {
	handler     Handler
	maxBodySize int64
	log         *slog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithMaxBodySize sets the maximum accepted request body size in bytes.
// Zero or negative disables the limit.
func WithMaxBodySize(n int64) AdapterOption {
	return func(a *Adapter) {
		a.maxBodySize = n
	}
}

// WithLogger sets the logger used for handler failures.
func WithLogger(log *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAdapter wraps h so it can be served by net/http.
func NewAdapter(h Handler, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		handler:     h,
		maxBodySize: DefaultMaxBodySize,
		log:         logging.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ServeHTTP implements http.Handler.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)

	body, err := a.readBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteRequestError(w, http.StatusRequestEntityTooLarge, httputil.CodeBodyTooLarge,
				"request body exceeds limit", id)
			return
		}
		a.log.Warn("failed to read request body", "requestId", id, "error", err)
		httputil.WriteRequestError(w, http.StatusBadRequest, httputil.CodeBodyReadFailed, err.Error(), id)
		return
	}

	req := &Request{
		ID:         id,
		Method:     r.Method,
		Path:       r.URL.Path,
		RawQuery:   r.URL.RawQuery,
		Query:      r.URL.Query(),
		Header:     r.Header.Clone(),
		Body:       body,
		Host:       r.Host,
		RemoteAddr: r.RemoteAddr,
		TLS:        r.TLS != nil,
	}

	resp, err := a.handler.Handle(r.Context(), req)
	if err != nil {
		a.log.Error("handler failed", "requestId", id, "method", r.Method, "path", r.URL.Path, "error", err)
		httputil.WriteRequestError(w, http.StatusInternalServerError, httputil.CodeHandlerError, err.Error(), id)
		return
	}

	writeResponse(w, r, resp)
}

func (a *Adapter) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body := r.Body
	if a.maxBodySize > 0 {
		body = http.MaxBytesReader(w, r.Body, a.maxBodySize)
	}
	return io.ReadAll(body)
}

func writeResponse(w http.ResponseWriter, r *http.Request, resp *Response) {
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	for k, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if r.Method == http.MethodHead || len(resp.Body) == 0 {
		return
	}
	_, _ = w.Write(resp.Body)
}
