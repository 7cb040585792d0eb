package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrInvalidCredential is returned when a certificate/key pair cannot be
// turned into usable TLS credentials.
var ErrInvalidCredential = errors.New("invalid TLS credential")

// Resolver turns certificate and key file paths into TLS credentials.
type Resolver interface {
	Resolve(certFile, keyFile string) (tls.Certificate, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(certFile, keyFile string) (tls.Certificate, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(certFile, keyFile string) (tls.Certificate, error) {
	return f(certFile, keyFile)
}

// FileResolver loads a PEM encoded certificate chain and private key from disk.
// RSA, ECDSA and Ed25519 keys in PKCS#1, PKCS#8 or SEC 1 form are accepted.
type FileResolver struct{}

// Resolve implements Resolver.
func (FileResolver) Resolve(certFile, keyFile string) (tls.Certificate, error) {
	//nolint:gosec // G304: paths are supplied by the server owner
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: read certificate %s: %w", ErrInvalidCredential, certFile, err)
	}

	//nolint:gosec // G304: paths are supplied by the server owner
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: read key %s: %w", ErrInvalidCredential, keyFile, err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	return cert, nil
}

// SelfSignedResolver ignores the file paths and generates an in-memory
// self-signed certificate. The certificate is generated once and reused by
// every later Resolve call on the same resolver.
type SelfSignedResolver struct {
	// Config controls the generated certificate. Nil means DefaultCertificateConfig.
	Config *CertificateConfig

	once sync.Once
	cert tls.Certificate
	gen  *GeneratedCertificate
	err  error
}

// Resolve implements Resolver.
func (r *SelfSignedResolver) Resolve(_, _ string) (tls.Certificate, error) {
	r.once.Do(func() {
		gen, err := GenerateSelfSignedCert(r.Config)
		if err != nil {
			r.err = fmt.Errorf("%w: %w", ErrInvalidCredential, err)
			return
		}
		cert, err := gen.TLSCertificate()
		if err != nil {
			r.err = fmt.Errorf("%w: %w", ErrInvalidCredential, err)
			return
		}
		r.gen = gen
		r.cert = cert
	})
	return r.cert, r.err
}

// Generated returns the certificate produced by the first Resolve call, or
// nil before that. Clients use its CertPEM to trust the server.
func (r *SelfSignedResolver) Generated() *GeneratedCertificate {
	return r.gen
}

// ServerConfig builds the server side tls.Config for a single certificate.
func ServerConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
}
