package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getmockd/mockserver/pkg/handler"
	"github.com/getmockd/mockserver/pkg/middleware"
	mocktls "github.com/getmockd/mockserver/pkg/tls"
)

// Builder accumulates server settings and produces a running Server.
//
// A Builder is not safe for concurrent mutation, but Build snapshots the
// settings, so one configured Builder may be built many times concurrently.
type Builder struct {
	cfg Config
	err error
}

// NewBuilder returns a Builder starting from DefaultConfig.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig()}
}

// WithHandler returns a Builder preloaded with h.
func WithHandler(h handler.Handler) *Builder {
	return NewBuilder().Handler(h)
}

// WithRoot returns a Builder serving static files below dir.
// A missing directory is reported by Build as ErrConfiguration.
func WithRoot(dir string) *Builder {
	b := NewBuilder()
	fh, err := handler.NewFileHandler(dir)
	if err != nil {
		b.err = fmt.Errorf("%w: %w", ErrConfiguration, err)
		return b
	}
	b.cfg.Handler = fh
	return b
}

// HTTP serves plain HTTP on port. Zero picks an ephemeral port.
func (b *Builder) HTTP(port int) *Builder {
	b.cfg.Port = port
	b.cfg.TLS = false
	return b
}

// HTTPS serves HTTPS on port. Zero picks an ephemeral port.
func (b *Builder) HTTPS(port int) *Builder {
	b.cfg.Port = port
	b.cfg.TLS = true
	return b
}

// Local selects binding to 127.0.0.1 only (true, the default) or to all
// interfaces. Local servers do not accept IPv6 loopback connections.
func (b *Builder) Local(local bool) *Builder {
	b.cfg.Local = local
	return b
}

// CertFile sets the PEM certificate file used with HTTPS.
func (b *Builder) CertFile(path string) *Builder {
	b.cfg.CertFile = path
	return b
}

// KeyFile sets the PEM private key file used with HTTPS.
func (b *Builder) KeyFile(path string) *Builder {
	b.cfg.KeyFile = path
	return b
}

// AutoCert generates a self-signed certificate for HTTPS when no cert/key
// files are set.
func (b *Builder) AutoCert(enabled bool) *Builder {
	b.cfg.AutoCert = enabled
	return b
}

// CORSEnabled toggles permissive cross-origin handling.
func (b *Builder) CORSEnabled(enabled bool) *Builder {
	b.cfg.CORSEnabled = enabled
	return b
}

// HTTP2 toggles HTTP/2 support.
func (b *Builder) HTTP2(enabled bool) *Builder {
	b.cfg.HTTP2 = enabled
	return b
}

// Handler sets the application handler.
func (b *Builder) Handler(h handler.Handler) *Builder {
	b.cfg.Handler = h
	return b
}

// Use appends middleware around the application handler.
func (b *Builder) Use(mws ...middleware.Middleware) *Builder {
	b.cfg.Middleware = append(b.cfg.Middleware, mws...)
	return b
}

// MaxBodySize limits request bodies passed to the handler.
func (b *Builder) MaxBodySize(n int64) *Builder {
	b.cfg.MaxBodySize = n
	return b
}

// ShutdownTimeout bounds the graceful drain performed by Stop.
func (b *Builder) ShutdownTimeout(d time.Duration) *Builder {
	b.cfg.ShutdownTimeout = d
	return b
}

// Logger sets the operational logger.
func (b *Builder) Logger(log *slog.Logger) *Builder {
	b.cfg.Logger = log
	return b
}

// Resolver replaces the TLS credential resolver.
func (b *Builder) Resolver(r mocktls.Resolver) *Builder {
	b.cfg.Resolver = r
	return b
}

// Config returns a snapshot of the accumulated configuration.
func (b *Builder) Config() Config {
	return b.cfg.clone()
}

// Build validates the configuration, binds the socket and returns the
// running Server. It returns only once the server is accepting connections.
func (b *Builder) Build() (*Server, error) {
	return b.BuildContext(context.Background())
}

// BuildContext is Build with a context bounding the bind.
func (b *Builder) BuildContext(ctx context.Context) (*Server, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewContext(ctx, b.Config())
}
