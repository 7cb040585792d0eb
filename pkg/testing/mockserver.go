package testing

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/getmockd/mockserver/pkg/handler"
	"github.com/getmockd/mockserver/pkg/server"
)

const stopTimeout = 10 * time.Second

// Option configures a MockServer.
type Option func(*server.Builder)

// WithHandler sets the handler answering requests. The default answers every
// request with 200 and an empty body.
func WithHandler(h handler.Handler) Option {
	return func(b *server.Builder) { b.Handler(h) }
}

// WithResponse answers every request with the same status and body.
func WithResponse(status int, body string) Option {
	return WithHandler(handler.HandlerFunc(func(context.Context, *handler.Request) (*handler.Response, error) {
		return handler.Text(status, body), nil
	}))
}

// WithTLS serves HTTPS with a generated self-signed certificate. Client
// trusts it.
func WithTLS() Option {
	return func(b *server.Builder) { b.HTTPS(0).AutoCert(true) }
}

// WithCORS enables permissive CORS handling.
func WithCORS() Option {
	return func(b *server.Builder) { b.CORSEnabled(true) }
}

// WithLogger routes server logs to log.
func WithLogger(log *slog.Logger) Option {
	return func(b *server.Builder) { b.Logger(log) }
}

// MockServer is a running mock server that records every request it
// handles. It is stopped automatically when the test finishes.
type MockServer struct {
	t   testing.TB
	srv *server.Server

	mu       sync.Mutex
	requests []RequestLog
}

// New starts a MockServer on a free loopback port.
func New(t testing.TB, opts ...Option) *MockServer {
	t.Helper()

	m := &MockServer{t: t}
	inner := handler.Handler(handler.HandlerFunc(func(context.Context, *handler.Request) (*handler.Response, error) {
		return &handler.Response{Status: http.StatusOK}, nil
	}))

	b := server.WithHandler(inner).HTTP(0)
	for _, opt := range opts {
		opt(b)
	}
	inner = b.Config().Handler
	b.Handler(m.record(inner))

	srv, err := b.Build()
	if err != nil {
		t.Fatalf("failed to start mock server: %v", err)
	}
	m.srv = srv
	t.Cleanup(m.Stop)
	return m
}

func (m *MockServer) record(next handler.Handler) handler.Handler {
	return handler.HandlerFunc(func(ctx context.Context, req *handler.Request) (*handler.Response, error) {
		m.mu.Lock()
		m.requests = append(m.requests, newRequestLog(req))
		m.mu.Unlock()
		return next.Handle(ctx, req)
	})
}

// URL returns the base URL of the mock server.
func (m *MockServer) URL() string {
	return m.srv.URL()
}

// Server returns the underlying server for advanced use cases.
func (m *MockServer) Server() *server.Server {
	return m.srv
}

// Client returns an http.Client for the mock server. Over TLS it trusts the
// generated certificate.
func (m *MockServer) Client() *http.Client {
	client := &http.Client{Timeout: stopTimeout}
	if cert := m.srv.Certificate(); cert != nil {
		pool := x509.NewCertPool()
		pool.AddCert(cert)
		client.Transport = &http.Transport{
			TLSClientConfig:   &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
			ForceAttemptHTTP2: true,
		}
	}
	return client
}

// Stop stops the server and waits for it to finish. It is safe to call more
// than once.
func (m *MockServer) Stop() {
	m.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := m.srv.Stop().Wait(ctx); err != nil {
		m.t.Errorf("mock server did not stop cleanly: %v", err)
	}
}

// Requests returns the recorded requests, oldest first.
func (m *MockServer) Requests() []RequestLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// LastRequest returns the most recent request, failing the test if there
// is none.
func (m *MockServer) LastRequest() RequestLog {
	m.t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		m.t.Fatalf("mock server received no requests")
	}
	return m.requests[len(m.requests)-1]
}

// Reset clears the recorded requests.
func (m *MockServer) Reset() {
	m.mu.Lock()
	m.requests = nil
	m.mu.Unlock()
}

// AssertCalled asserts that method and path were requested at least once.
func (m *MockServer) AssertCalled(t testing.TB, method, path string) {
	t.Helper()

	if m.countCalls(method, path) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
	}
}

// AssertCalledTimes asserts that method and path were requested exactly n times.
func (m *MockServer) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()

	if count := m.countCalls(method, path); count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, path, times, count)
	}
}

// AssertNotCalled asserts that method and path were never requested.
func (m *MockServer) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()

	if count := m.countCalls(method, path); count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, path, count)
	}
}

func (m *MockServer) countCalls(method, path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, r := range m.requests {
		if r.Method == method && matchesPath(r.Path, path) {
			count++
		}
	}
	return count
}
