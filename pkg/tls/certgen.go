// Package tls resolves the TLS credentials an HTTPS mock server listens with.
//
// Credentials normally come from a certificate and private key PEM file pair
// (FileResolver). For throwaway test servers a self-signed certificate can be
// generated in memory instead (SelfSignedResolver); the same generator is used
// by tests to produce fixture files.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"time"
)

// PEM block types written by the generator.
const (
	pemTypeCertificate = "CERTIFICATE"
	pemTypeECKey       = "EC PRIVATE KEY"
)

// CertificateConfig contains options for certificate generation.
type CertificateConfig struct {
	// Organization name for the certificate
	Organization string
	// Common name (CN) for the certificate
	CommonName string
	// DNS subject alternative names
	DNSNames []string
	// IP subject alternative names
	IPAddresses []net.IP
	// Validity duration, starting one minute in the past to absorb clock skew
	ValidFor time.Duration
	// Whether this is a CA certificate
	IsCA bool
}

// DefaultCertificateConfig returns a configuration for a loopback test server.
func DefaultCertificateConfig() *CertificateConfig {
	return &CertificateConfig{
		Organization: "mockserver",
		CommonName:   "localhost",
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		ValidFor:     365 * 24 * time.Hour,
	}
}

// GeneratedCertificate contains a generated certificate and its private key.
type GeneratedCertificate struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
	CertPEM     []byte
	KeyPEM      []byte
}

// TLSCertificate converts the generated pair into a tls.Certificate.
func (g *GeneratedCertificate) TLSCertificate() (tls.Certificate, error) {
	return tls.X509KeyPair(g.CertPEM, g.KeyPEM)
}

// GeneratePrivateKey generates a new ECDSA private key using P-256 curve.
func GeneratePrivateKey() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return key, nil
}

// CreateCertificateTemplate creates an x509 server certificate template.
func CreateCertificateTemplate(cfg *CertificateConfig) (*x509.Certificate, error) {
	if cfg == nil {
		cfg = DefaultCertificateConfig()
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	notBefore := time.Now().Add(-time.Minute)
	template := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{cfg.Organization},
			CommonName:   cfg.CommonName,
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(cfg.ValidFor),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              cfg.DNSNames,
		IPAddresses:           cfg.IPAddresses,
	}

	if cfg.IsCA {
		template.IsCA = true
		template.KeyUsage |= x509.KeyUsageCertSign
	}

	return template, nil
}

// GenerateSelfSignedCert generates a self-signed certificate with the given configuration.
func GenerateSelfSignedCert(cfg *CertificateConfig) (*GeneratedCertificate, error) {
	privateKey, err := GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	template, err := CreateCertificateTemplate(cfg)
	if err != nil {
		return nil, err
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	return &GeneratedCertificate{
		Certificate: cert,
		PrivateKey:  privateKey,
		CertPEM:     pem.EncodeToMemory(&pem.Block{Type: pemTypeCertificate, Bytes: certDER}),
		KeyPEM:      pem.EncodeToMemory(&pem.Block{Type: pemTypeECKey, Bytes: keyDER}),
	}, nil
}
