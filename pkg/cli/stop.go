package cli

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/getmockd/mockserver/pkg/server"
	mocktls "github.com/getmockd/mockserver/pkg/tls"
)

// ErrStopRejected is returned when a server does not accept the stop request.
var ErrStopRejected = errors.New("stop request rejected")

type stopFlags struct {
	ports    []int
	host     string
	https    bool
	insecure bool
	caCert   string
	wait     bool
	timeout  time.Duration
}

func newStopCommand() *cobra.Command {
	f := &stopFlags{}

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop running mock servers",
		Long: `Stop one or more running mock servers by calling ` + server.AdminStopPath + `.
Each server must answer 202 Accepted.`,
		Example: `  # Stop the server on port 8080
  mockserver stop --port 8080

  # Stop an HTTPS server, trusting the certificate written by "mockserver cert"
  mockserver stop --port 8443 --ca-cert mockserver.crt

  # Stop an HTTPS server without verifying its certificate
  mockserver stop --port 8443 --https --insecure

  # Stop several servers at once
  mockserver stop --port 8080 --port 8081`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStop(cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.IntSliceVarP(&f.ports, "port", "p", nil, "Port of the server to stop (repeatable)")
	fs.StringVar(&f.host, "host", server.LoopbackHost, "Host the servers listen on")
	fs.BoolVar(&f.https, "https", false, "Use HTTPS")
	fs.BoolVarP(&f.insecure, "insecure", "k", false, "Skip TLS certificate verification")
	fs.StringVar(&f.caCert, "ca-cert", "", "PEM certificate to trust for HTTPS (implies --https)")
	fs.BoolVar(&f.wait, "wait", true, "Wait until the port stops accepting connections")
	fs.DurationVar(&f.timeout, "timeout", 10*time.Second, "Time allowed per server")
	_ = cmd.MarkFlagRequired("port")

	return cmd
}

func runStop(cmd *cobra.Command, f *stopFlags) error {
	if f.caCert != "" {
		f.https = true
	}

	client := &http.Client{Timeout: f.timeout}
	if f.https {
		//nolint:gosec // G402: opt-in for self-signed test certificates
		tlsConfig := &tls.Config{InsecureSkipVerify: f.insecure, MinVersion: tls.VersionTLS12}
		if f.caCert != "" {
			pool, err := mocktls.LoadCertPool(f.caCert)
			if err != nil {
				return err
			}
			tlsConfig.RootCAs = pool
		}
		client.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}

	scheme := "http"
	if f.https {
		scheme = "https"
	}

	stopped := make([]string, len(f.ports))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, port := range f.ports {
		addr := net.JoinHostPort(f.host, strconv.Itoa(port))
		url := scheme + "://" + addr + server.AdminStopPath
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			if err := requestStop(reqCtx, client, url); err != nil {
				return err
			}
			if f.wait {
				if err := waitClosed(reqCtx, addr); err != nil {
					return fmt.Errorf("%s accepted stop but is still listening: %w", addr, err)
				}
			}
			stopped[i] = addr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, addr := range stopped {
		fmt.Fprintf(cmd.OutOrStdout(), "Stopped mock server at %s\n", addr)
	}
	return nil
}

func requestStop(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", url, err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: %s answered %d, expected %d", ErrStopRejected, url, resp.StatusCode, http.StatusAccepted)
	}
	return nil
}

// waitClosed polls addr until connections are refused or ctx is done.
func waitClosed(ctx context.Context, addr string) error {
	var d net.Dialer
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}
		_ = conn.Close()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
