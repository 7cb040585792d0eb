package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getmockd/mockserver/pkg/handler"
	"github.com/getmockd/mockserver/pkg/logging"
	"github.com/getmockd/mockserver/pkg/middleware"
	mocktls "github.com/getmockd/mockserver/pkg/tls"
)

// Server is a bound, running mock server. It is created already serving and
// stops exactly once.
type Server struct {
	cfg        Config
	log        *slog.Logger
	httpServer *http.Server
	listener   net.Listener
	addr       *net.TCPAddr
	leaf       *x509.Certificate
	startTime  time.Time

	running  atomic.Bool
	stopOnce sync.Once
	stop     *StopHandle

	// served is closed once the serve loop has returned.
	served   chan struct{}
	serveErr error
}

// StopHandle reports the completion of Stop. Every Stop call on a server
// returns the same handle.
type StopHandle struct {
	done chan struct{}
	err  error
}

// Done is closed when teardown has finished.
func (h *StopHandle) Done() <-chan struct{} {
	return h.done
}

// Err returns the teardown error once Done is closed, and nil before that.
func (h *StopHandle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until teardown finishes or ctx is done.
func (h *StopHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// New builds and starts a server from cfg.
func New(cfg Config) (*Server, error) {
	return NewContext(context.Background(), cfg)
}

// NewContext builds and starts a server from cfg. ctx bounds the bind only;
// cancelling it later has no effect on the running server.
func NewContext(ctx context.Context, cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}

	s := &Server{
		cfg:    cfg,
		log:    log.With("component", "mockserver"),
		stop:   &StopHandle{done: make(chan struct{})},
		served: make(chan struct{}),
	}

	tlsConfig, err := s.resolveTLS()
	if err != nil {
		return nil, err
	}

	// No read, write or idle timeouts: mock endpoints may hold connections
	// open for as long as a test needs.
	//nolint:gosec // G112: ReadHeaderTimeout intentionally unset
	s.httpServer = &http.Server{
		Handler:   s.routes(),
		TLSConfig: tlsConfig,
		ErrorLog:  slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}
	s.configureProtocols()

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", cfg.Address())
	if err != nil {
		return nil, fmt.Errorf("%w: listen on %s: %w", ErrBind, cfg.Address(), err)
	}
	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		_ = ln.Close()
		return nil, fmt.Errorf("%w: unexpected listener address %s", ErrBind, ln.Addr())
	}
	s.listener = ln
	s.addr = addr

	s.startTime = time.Now()
	s.running.Store(true)

	started := make(chan struct{})
	go s.serve(started)
	<-started

	s.log.Info("server started", "addr", addr.String(), "port", addr.Port, "tls", cfg.TLS, "cors", cfg.CORSEnabled)
	return s, nil
}

func (s *Server) resolveTLS() (*tls.Config, error) {
	if !s.cfg.TLS {
		return nil, nil
	}

	cert, err := s.cfg.resolver().Resolve(s.cfg.CertFile, s.cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTLSCredential, err)
	}

	leaf := cert.Leaf
	if leaf == nil && len(cert.Certificate) > 0 {
		leaf, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("%w: parse leaf certificate: %w", ErrTLSCredential, err)
		}
	}
	s.leaf = leaf

	return mocktls.ServerConfig(cert), nil
}

// configureProtocols selects the protocols net/http negotiates. HTTP/2 runs
// as h2 over TLS or as prior-knowledge h2c on plain connections; both stay
// owned by the http.Server, so Shutdown drains them and Close cuts them off.
func (s *Server) configureProtocols() {
	var p http.Protocols
	p.SetHTTP1(true)
	if s.cfg.HTTP2 {
		if s.cfg.TLS {
			p.SetHTTP2(true)
		} else {
			p.SetUnencryptedHTTP2(true)
		}
	}
	s.httpServer.Protocols = &p
}

// routes composes the reserved admin route and the decorated application
// handler.
func (s *Server) routes() http.Handler {
	adapter := handler.NewAdapter(s.cfg.Handler,
		handler.WithMaxBodySize(s.cfg.MaxBodySize),
		handler.WithLogger(s.log),
	)

	chain := middleware.NewChain(middleware.AccessLog(s.log), middleware.Recover(s.log))
	if s.cfg.CORSEnabled {
		chain = chain.Append(middleware.CORS())
	}
	chain = chain.Append(s.cfg.Middleware...)

	return &router{
		admin: s.adminStopHandler(),
		app:   chain.Then(adapter),
	}
}

func (s *Server) serve(started chan<- struct{}) {
	defer close(s.served)
	close(started)

	var err error
	if s.cfg.TLS {
		err = s.httpServer.ServeTLS(s.listener, "", "")
	} else {
		err = s.httpServer.Serve(s.listener)
	}
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return
	}

	s.log.Error("server error", "error", err)
	s.serveErr = err
	s.Stop()
}

// Port returns the port the server is bound to. When an ephemeral port was
// requested this is the port the OS assigned.
func (s *Server) Port() int {
	return s.addr.Port
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// URL returns the base URL clients on this host can use, e.g.
// "https://127.0.0.1:8443".
func (s *Server) URL() string {
	scheme := "http"
	if s.cfg.TLS {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(LoopbackHost, strconv.Itoa(s.Port()))
}

// IsTLS reports whether the server speaks HTTPS.
func (s *Server) IsTLS() bool {
	return s.cfg.TLS
}

// Certificate returns the leaf certificate served over TLS, or nil for plain
// HTTP. Clients of a self-signed server add it to their root pool.
func (s *Server) Certificate() *x509.Certificate {
	return s.leaf
}

// IsRunning reports whether the server has not yet finished stopping.
func (s *Server) IsRunning() bool {
	return s.running.Load()
}

// Uptime returns how long the server has been running, or zero once stopped.
func (s *Server) Uptime() time.Duration {
	if !s.IsRunning() {
		return 0
	}
	return time.Since(s.startTime)
}

// Stop begins shutting the server down and returns immediately. The listener
// is closed at once; in-flight requests get ShutdownTimeout to finish before
// their connections are closed. Calling Stop again returns the same handle.
func (s *Server) Stop() *StopHandle {
	s.stopOnce.Do(func() {
		s.log.Info("stopping server", "port", s.Port())
		go s.teardown()
	})
	return s.stop
}

func (s *Server) teardown() {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			errs = append(errs, fmt.Errorf("shutdown: %w", err))
		}
		s.log.Warn("graceful shutdown incomplete, closing remaining connections", "error", err)
		if err := s.httpServer.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
	}

	<-s.served
	if s.serveErr != nil {
		errs = append(errs, fmt.Errorf("serve: %w", s.serveErr))
	}

	s.running.Store(false)
	if len(errs) > 0 {
		s.stop.err = fmt.Errorf("%w: %w", ErrStop, errors.Join(errs...))
		s.log.Error("server stopped with errors", "port", s.Port(), "error", s.stop.err)
	} else {
		s.log.Info("server stopped", "port", s.Port())
	}
	close(s.stop.done)
}

// Wait blocks until the server has stopped or ctx is done. It returns the
// stop error, or ctx.Err() if the wait was cancelled.
func (s *Server) Wait(ctx context.Context) error {
	return s.stop.Wait(ctx)
}

// WaitForever parks the calling goroutine for the life of the server. It
// offers no cancellation: it returns only once the server has been stopped,
// through Stop or the admin route, so in practice only process termination
// ends it early. Use Wait with a context when the caller must stay
// responsive to shutdown signals.
func (s *Server) WaitForever() {
	<-s.stop.done
}

// router sends the reserved admin path to the admin handler and everything
// else to the application.
type router struct {
	admin http.Handler
	app   http.Handler
}

func (rt *router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == AdminStopPath {
		rt.admin.ServeHTTP(w, r)
		return
	}
	rt.app.ServeHTTP(w, r)
}
