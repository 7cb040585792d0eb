package server

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/getmockd/mockserver/pkg/handler"
	"github.com/getmockd/mockserver/pkg/middleware"
	mocktls "github.com/getmockd/mockserver/pkg/tls"
)

// AdminStopPath is the reserved route that stops the server. It is matched
// before the application handler and can never be shadowed by it.
const AdminStopPath = "/__admin/stop"

// LoopbackHost is the address a local-only server binds to. There is no IPv6
// loopback listener.
const LoopbackHost = "127.0.0.1"

// DefaultShutdownTimeout bounds the graceful drain in Stop. Connections still
// open afterwards are closed.
const DefaultShutdownTimeout = 5 * time.Second

const maxPort = 65535

// Config is the complete, immutable description of a server. It is validated
// once by New; Builder is the usual way to produce one.
type Config struct {
	// Port to listen on. Zero asks the OS for an ephemeral port.
	Port int
	// TLS serves HTTPS instead of plain HTTP.
	TLS bool
	// Local binds to the IPv4 loopback address 127.0.0.1 only, so clients
	// connecting to [::1] are refused. False binds to all interfaces.
	Local bool
	// CertFile and KeyFile are the PEM files used when TLS is set.
	CertFile string
	KeyFile  string
	// AutoCert generates an in-memory self-signed certificate when TLS is set
	// and no cert/key files are given.
	AutoCert bool
	// CORSEnabled answers cross-origin requests permissively for any origin.
	CORSEnabled bool
	// HTTP2 enables HTTP/2: h2 over TLS, h2c on plain connections.
	HTTP2 bool
	// Handler is the application logic. Required.
	Handler handler.Handler
	// Middleware decorates the handler, first entry outermost.
	Middleware []middleware.Middleware
	// MaxBodySize limits request bodies passed to Handler. Zero means no limit.
	MaxBodySize int64
	// ShutdownTimeout bounds the graceful drain in Stop.
	ShutdownTimeout time.Duration
	// Logger receives operational logs. Nil means no logging.
	Logger *slog.Logger
	// Resolver turns CertFile/KeyFile into credentials. Nil selects
	// tls.FileResolver, or tls.SelfSignedResolver with AutoCert.
	Resolver mocktls.Resolver
}

// DefaultConfig returns a local-only plain HTTP configuration on an
// ephemeral port. Handler still has to be set.
func DefaultConfig() Config {
	return Config{
		Local:           true,
		HTTP2:           true,
		MaxBodySize:     handler.DefaultMaxBodySize,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Validate checks the configuration without touching the network.
func (c Config) Validate() error {
	if c.Handler == nil {
		return fmt.Errorf("%w: handler is required", ErrConfiguration)
	}
	if c.Port < 0 || c.Port > maxPort {
		return fmt.Errorf("%w: port %d out of range 0-%d", ErrConfiguration, c.Port, maxPort)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: negative shutdown timeout", ErrConfiguration)
	}
	if !c.TLS || c.usesGeneratedCert() {
		return nil
	}

	if c.CertFile == "" {
		return fmt.Errorf("%w: TLS requires a certificate file", ErrConfiguration)
	}
	if c.KeyFile == "" {
		return fmt.Errorf("%w: TLS requires a key file", ErrConfiguration)
	}
	for _, path := range []string{c.CertFile, c.KeyFile} {
		if err := checkReadable(path); err != nil {
			return fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}
	return nil
}

// usesGeneratedCert reports whether credentials come from the self-signed
// generator rather than from files.
func (c Config) usesGeneratedCert() bool {
	return c.AutoCert && c.CertFile == "" && c.KeyFile == ""
}

// Address is the host:port the server binds to.
func (c Config) Address() string {
	host := ""
	if c.Local {
		host = LoopbackHost
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

func (c Config) clone() Config {
	c.Middleware = slices.Clone(c.Middleware)
	return c
}

func (c Config) resolver() mocktls.Resolver {
	switch {
	case c.Resolver != nil:
		return c.Resolver
	case c.usesGeneratedCert():
		return &mocktls.SelfSignedResolver{}
	default:
		return mocktls.FileResolver{}
	}
}

func checkReadable(path string) error {
	//nolint:gosec // G304: path is supplied by the server owner
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	return f.Close()
}
