package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockserver/pkg/cli/internal/output"
	"github.com/getmockd/mockserver/pkg/config"
	"github.com/getmockd/mockserver/pkg/logging"
	"github.com/getmockd/mockserver/pkg/server"
)

func newServeCommand() *cobra.Command {
	f := &serverFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock server",
		Long: `Start the mock server and block until it is stopped by SIGINT, SIGTERM
or a request to ` + server.AdminStopPath + `.`,
		Example: `  # Echo server on a free port
  mockserver serve --port 0

  # HTTPS with a generated certificate, reachable from other hosts
  mockserver serve --port 8443 --https --auto-cert --local=false

  # Static files with CORS
  mockserver serve --root ./public --cors`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, f)
		},
	}
	addServerFlags(cmd, f)
	return cmd
}

func runServe(cmd *cobra.Command, f *serverFlags) error {
	cfg, err := resolveConfig(cmd, f)
	if err != nil {
		return err
	}

	logCfg := cfg.LoggingConfig()
	logCfg.Output = cmd.ErrOrStderr()
	log, closer, err := logging.NewWithFile(logCfg, cfg.Log.File)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			output.Warn(cmd.ErrOrStderr(), "failed to close log file: %v", err)
		}
	}()

	b, err := cfg.ToBuilder()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := b.Logger(log).BuildContext(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "mockserver listening on %s\n", srv.URL())
	fmt.Fprintf(out, "Stop with Ctrl+C or: mockserver stop --port %d%s\n", srv.Port(), stopHint(srv, cfg))

	err = srv.Wait(ctx)
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		fmt.Fprintln(out, "\nShutting down...")
		err = srv.Stop().Wait(context.Background())
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "mockserver stopped")
	return nil
}

func stopHint(srv *server.Server, cfg *config.ServerConfig) string {
	switch {
	case !srv.IsTLS():
		return ""
	case cfg.CertFile != "":
		return " --ca-cert " + cfg.CertFile
	default:
		return " --https --insecure"
	}
}
