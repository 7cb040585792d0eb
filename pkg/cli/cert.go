package cli

import (
	"fmt"
	"net"
	"slices"
	"time"

	"github.com/spf13/cobra"

	mocktls "github.com/getmockd/mockserver/pkg/tls"
)

type certFlags struct {
	certFile string
	keyFile  string
	hosts    []string
	validFor time.Duration
	force    bool
}

func newCertCommand() *cobra.Command {
	f := &certFlags{}

	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Generate a self-signed certificate for HTTPS",
		Long: `Generate a self-signed ECDSA certificate and key as PEM files. The
certificate always covers localhost, 127.0.0.1 and ::1; --host adds names
or addresses.

Serve with the pair, then give the certificate to clients (for example
"mockserver stop --ca-cert") so they can verify the server.`,
		Example: `  mockserver cert --cert server.crt --key server.key
  mockserver serve --https --cert server.crt --key server.key --port 8443
  mockserver stop --port 8443 --ca-cert server.crt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCert(cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.certFile, "cert", "mockserver.crt", "Certificate output file")
	fs.StringVar(&f.keyFile, "key", "mockserver.key", "Private key output file")
	fs.StringSliceVar(&f.hosts, "host", nil, "Extra DNS name or IP address (repeatable)")
	fs.DurationVar(&f.validFor, "valid-for", 365*24*time.Hour, "Certificate lifetime")
	fs.BoolVarP(&f.force, "force", "f", false, "Overwrite existing files")
	return cmd
}

func runCert(cmd *cobra.Command, f *certFlags) error {
	if f.validFor <= 0 {
		return fmt.Errorf("--valid-for must be positive, got %s", f.validFor)
	}

	cfg := mocktls.DefaultCertificateConfig()
	cfg.ValidFor = f.validFor
	for _, host := range f.hosts {
		if ip := net.ParseIP(host); ip != nil {
			if !slices.ContainsFunc(cfg.IPAddresses, ip.Equal) {
				cfg.IPAddresses = append(cfg.IPAddresses, ip)
			}
			continue
		}
		if !slices.Contains(cfg.DNSNames, host) {
			cfg.DNSNames = append(cfg.DNSNames, host)
		}
	}

	gen, err := mocktls.GenerateFiles(cfg, f.certFile, f.keyFile, f.force)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote certificate %s and key %s\n", f.certFile, f.keyFile)
	fmt.Fprintf(out, "Valid until %s for %v %v\n",
		gen.Certificate.NotAfter.Format(time.RFC3339), gen.Certificate.DNSNames, gen.Certificate.IPAddresses)
	return nil
}
