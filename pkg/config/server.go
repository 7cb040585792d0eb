package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/getmockd/mockserver/pkg/handler"
	"github.com/getmockd/mockserver/pkg/logging"
	"github.com/getmockd/mockserver/pkg/server"
)

// ErrInvalidConfig is returned when a parsed configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// ServerConfig is the file representation of a mock server.
type ServerConfig struct {
	// Port to listen on. 0 picks an ephemeral port.
	Port int `json:"port" yaml:"port"`
	// SSL serves HTTPS.
	SSL bool `json:"ssl" yaml:"ssl"`
	// Local binds to 127.0.0.1 only.
	Local bool `json:"local" yaml:"local"`
	// CertFile and KeyFile are PEM files used with SSL.
	CertFile string `json:"certFile,omitempty" yaml:"certFile,omitempty"`
	KeyFile  string `json:"keyFile,omitempty" yaml:"keyFile,omitempty"`
	// AutoCert generates a self-signed certificate when no files are given.
	AutoCert bool `json:"autoCert" yaml:"autoCert"`
	// CORS answers cross-origin requests for any origin.
	CORS bool `json:"cors" yaml:"cors"`
	// HTTP2 enables h2 and h2c.
	HTTP2 bool `json:"http2" yaml:"http2"`
	// Root serves static files from a directory. Empty serves the echo handler.
	Root string `json:"root,omitempty" yaml:"root,omitempty"`
	// ShutdownTimeout is a Go duration string such as "5s".
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
	// MaxBodySize caps request bodies in bytes. 0 disables the cap.
	MaxBodySize int64 `json:"maxBodySize" yaml:"maxBodySize"`

	Log LogConfig `json:"log" yaml:"log"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	// File additionally writes JSON logs to this path.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// DefaultServerConfig returns the defaults applied before a file is read.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Local:           true,
		HTTP2:           true,
		ShutdownTimeout: server.DefaultShutdownTimeout.String(),
		MaxBodySize:     handler.DefaultMaxBodySize,
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
	}
}

// Validate checks values that can be checked without touching the filesystem.
func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.MaxBodySize < 0 {
		return fmt.Errorf("%w: maxBodySize must not be negative", ErrInvalidConfig)
	}
	if c.SSL && !c.AutoCert && (c.CertFile == "" || c.KeyFile == "") {
		return fmt.Errorf("%w: ssl requires certFile and keyFile, or autoCert", ErrInvalidConfig)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", string(logging.FormatText), string(logging.FormatJSON):
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// Timeout parses ShutdownTimeout. Empty means server.DefaultShutdownTimeout.
func (c *ServerConfig) Timeout() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		return server.DefaultShutdownTimeout, nil
	}
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: shutdownTimeout: %w", ErrInvalidConfig, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: shutdownTimeout must not be negative", ErrInvalidConfig)
	}
	return d, nil
}

// LoggingConfig converts the log section to a logging.Config writing to stderr.
func (c *ServerConfig) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	cfg.Format = logging.ParseFormat(c.Log.Format)
	return cfg
}

// ToBuilder returns a server.Builder carrying every setting in c. A missing
// root directory surfaces when the builder is built.
func (c *ServerConfig) ToBuilder() (*server.Builder, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	timeout, err := c.Timeout()
	if err != nil {
		return nil, err
	}

	var b *server.Builder
	if c.Root != "" {
		b = server.WithRoot(c.Root)
	} else {
		b = server.WithHandler(handler.Echo())
	}

	if c.SSL {
		b.HTTPS(c.Port)
	} else {
		b.HTTP(c.Port)
	}

	return b.
		Local(c.Local).
		CertFile(c.CertFile).
		KeyFile(c.KeyFile).
		AutoCert(c.AutoCert).
		CORSEnabled(c.CORS).
		HTTP2(c.HTTP2).
		MaxBodySize(c.MaxBodySize).
		ShutdownTimeout(timeout), nil
}
