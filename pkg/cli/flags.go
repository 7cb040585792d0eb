package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockserver/pkg/config"
)

// serverFlags holds the flags shared by serve and config. Flags override
// values read from the configuration file only when set explicitly.
type serverFlags struct {
	configPath      string
	port            int
	https           bool
	certFile        string
	keyFile         string
	autoCert        bool
	local           bool
	cors            bool
	http2           bool
	root            string
	echo            bool
	maxBodySize     int64
	shutdownTimeout time.Duration
	logLevel        string
	logFormat       string
	logFile         string
}

func addServerFlags(cmd *cobra.Command, f *serverFlags) {
	defaults := config.DefaultServerConfig()
	fs := cmd.Flags()

	fs.StringVarP(&f.configPath, "config", "c", "", "Path to a YAML or JSON configuration file")
	fs.IntVarP(&f.port, "port", "p", defaults.Port, "Port to listen on (0 picks a free port)")
	fs.BoolVar(&f.https, "https", defaults.SSL, "Serve HTTPS")
	fs.StringVar(&f.certFile, "cert", "", "PEM certificate file for HTTPS")
	fs.StringVar(&f.keyFile, "key", "", "PEM private key file for HTTPS")
	fs.BoolVar(&f.autoCert, "auto-cert", defaults.AutoCert, "Generate a self-signed certificate when no cert/key is given")
	fs.BoolVar(&f.local, "local", defaults.Local, "Bind to 127.0.0.1 only")
	fs.BoolVar(&f.cors, "cors", defaults.CORS, "Allow cross-origin requests from any origin")
	fs.BoolVar(&f.http2, "http2", defaults.HTTP2, "Enable HTTP/2 (h2 over TLS, h2c otherwise)")
	fs.StringVar(&f.root, "root", "", "Serve static files from this directory")
	fs.BoolVar(&f.echo, "echo", false, "Answer every request with a JSON echo of it (default without --root)")
	fs.Int64Var(&f.maxBodySize, "max-body-size", defaults.MaxBodySize, "Maximum request body size in bytes (0 for no limit)")
	fs.DurationVar(&f.shutdownTimeout, "shutdown-timeout", 0, "Time allowed for in-flight requests when stopping (default 5s)")
	fs.StringVar(&f.logLevel, "log-level", defaults.Log.Level, "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", defaults.Log.Format, "Log format (text, json)")
	fs.StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file")

	cmd.MarkFlagsMutuallyExclusive("root", "echo")
}

// resolveConfig loads the configuration file, explicit or discovered, and
// applies the flags that were set on the command line.
func resolveConfig(cmd *cobra.Command, f *serverFlags) (*config.ServerConfig, error) {
	path, err := configPath(f.configPath)
	if err != nil {
		return nil, err
	}

	cfg := config.DefaultServerConfig()
	if path != "" {
		if cfg, err = config.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	fs := cmd.Flags()
	if fs.Changed("port") {
		cfg.Port = f.port
	}
	if fs.Changed("https") {
		cfg.SSL = f.https
	}
	if fs.Changed("cert") {
		cfg.CertFile = f.certFile
	}
	if fs.Changed("key") {
		cfg.KeyFile = f.keyFile
	}
	if fs.Changed("auto-cert") {
		cfg.AutoCert = f.autoCert
	}
	if fs.Changed("local") {
		cfg.Local = f.local
	}
	if fs.Changed("cors") {
		cfg.CORS = f.cors
	}
	if fs.Changed("http2") {
		cfg.HTTP2 = f.http2
	}
	if fs.Changed("root") {
		cfg.Root = f.root
	}
	if f.echo {
		cfg.Root = ""
	}
	if fs.Changed("max-body-size") {
		cfg.MaxBodySize = f.maxBodySize
	}
	if fs.Changed("shutdown-timeout") {
		cfg.ShutdownTimeout = f.shutdownTimeout.String()
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if fs.Changed("log-file") {
		cfg.Log.File = f.logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configPath returns the explicit path, or a discovered one, or "" when no
// configuration file exists.
func configPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	path, err := config.Discover(cwd)
	if err != nil {
		if errors.Is(err, config.ErrFileNotFound) && os.Getenv(config.EnvConfigPath) == "" {
			return "", nil
		}
		return "", err
	}
	return path, nil
}
